package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var errCacheMiss = errors.New("cache miss")

// cachedArtifact is the JSON wire form stored in Redis for one
// FingerprintKey.
type cachedArtifact struct {
	Artifact  Artifact  `json:"artifact"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultCache is the optional Redis-backed cache keyed by FingerprintKey
// (§9, Open Question: caching is opt-in per deployment, off by default).
// Concurrent requests sharing a key are coalesced via singleflight so a
// cache-cold burst of identical requests only runs the pipeline once.
type ResultCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewResultCache builds a cache against an already-connected redis client.
// A nil client disables caching: Get always misses, Set is a no-op.
func NewResultCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultCache{rdb: rdb, ttl: ttl, logger: logger}
}

// FingerprintKey is the SHA-256 digest of the normalized request: the
// query text, the sorted requested-model set, and a digest of the options
// that affect pipeline output (peer review inclusion, lead model override).
// Two requests that would produce identical artifacts always share a key.
func FingerprintKey(req Request) string {
	models := make([]string, len(req.RequestedModels))
	for i, m := range req.RequestedModels {
		models[i] = m.String()
	}
	sort.Strings(models)

	lead := ""
	if req.Options.LeadModel != nil {
		lead = req.Options.LeadModel.String()
	}

	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(req.Query)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(models, ",")))
	h.Write([]byte{0})
	if req.Options.IncludePeerReview {
		h.Write([]byte{1})
	}
	h.Write([]byte{0})
	h.Write([]byte(lead))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) redisKey(fingerprint string) string {
	return "ultrai:artifact:" + fingerprint
}

// Get returns the cached Artifact for fingerprint, or errCacheMiss.
func (c *ResultCache) Get(ctx context.Context, fingerprint string) (Artifact, error) {
	if c.rdb == nil {
		return Artifact{}, errCacheMiss
	}
	data, err := c.rdb.Get(ctx, c.redisKey(fingerprint)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("result cache get failed", zap.Error(err))
		}
		return Artifact{}, errCacheMiss
	}
	var cached cachedArtifact
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("result cache decode failed", zap.Error(err))
		return Artifact{}, errCacheMiss
	}
	return cached.Artifact, nil
}

// Set stores artifact under fingerprint with the cache's configured TTL.
func (c *ResultCache) Set(ctx context.Context, fingerprint string, artifact Artifact) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(cachedArtifact{Artifact: artifact, CreatedAt: time.Now()})
	if err != nil {
		c.logger.Warn("result cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.redisKey(fingerprint), data, c.ttl).Err(); err != nil {
		c.logger.Warn("result cache set failed", zap.Error(err))
	}
}

// Coalesce runs compute at most once per concurrently-in-flight fingerprint:
// callers that arrive while a compute for the same fingerprint is already
// running block on its result instead of re-running the pipeline.
func (c *ResultCache) Coalesce(fingerprint string, compute func() (Artifact, error)) (Artifact, error, bool) {
	v, err, shared := c.group.Do(fingerprint, func() (any, error) {
		return compute()
	})
	if err != nil {
		return Artifact{}, err, shared
	}
	return v.(Artifact), nil, shared
}
