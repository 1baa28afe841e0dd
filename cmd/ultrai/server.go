// Package main provides the UltrAI server implementation.
package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ultrai-project/ultrai-core/api/handlers"
	"github.com/ultrai-project/ultrai-core/config"
	"github.com/ultrai-project/ultrai-core/internal/metrics"
	"github.com/ultrai-project/ultrai-core/internal/server"
	"github.com/ultrai-project/ultrai-core/internal/telemetry"
	"github.com/ultrai-project/ultrai-core/llm/circuitbreaker"
	"github.com/ultrai-project/ultrai-core/llm/health"
	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/llm/providers/anthropic"
	"github.com/ultrai-project/ultrai-core/llm/providers/gemini"
	"github.com/ultrai-project/ultrai-core/llm/providers/huggingface"
	"github.com/ultrai-project/ultrai-core/llm/providers/openai"
	"github.com/ultrai-project/ultrai-core/llm/resilience"
	"github.com/ultrai-project/ultrai-core/orchestrator"
	"github.com/ultrai-project/ultrai-core/types"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server is UltrAI's main process: an HTTP listener serving the
// orchestrator API and a separate metrics listener.
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	otel       *telemetry.Providers

	httpManager    *server.Manager
	metricsManager *server.Manager

	healthHandler       *handlers.HealthHandler
	orchestratorHandler *handlers.OrchestratorHandler

	metricsCollector *metrics.Collector
	healthMgr        *health.Manager
	breakers         *circuitbreaker.Manager

	wg sync.WaitGroup
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{cfg: cfg, configPath: configPath, logger: logger, otel: otelProviders}
}

// Start wires every component and brings up both listeners. It returns
// once both are accepting connections.
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("ultrai", s.logger)

	minModels := s.cfg.Orchestrator.MinimumModelsRequired
	if s.cfg.Orchestrator.EnableSingleModelFallback {
		minModels = 1
	}
	s.healthMgr = health.NewManager(health.Config{
		MinModels:     minModels,
		PriorityOrder: leadPriority(s.cfg.Orchestrator.LeadModelPriority),
	}, s.cfg.Providers.Credentials())

	s.breakers = circuitbreaker.NewManager(s.logger, func(provider string) circuitbreaker.Config {
		adapterCfg := types.DefaultAdapterConfig(types.Provider(provider))
		return circuitbreaker.Config{
			Threshold:    adapterCfg.CBFailureThreshold,
			ResetTimeout: adapterCfg.CBResetAfter,
			OnStateChange: func(from, to circuitbreaker.State) {
				s.metricsCollector.SetCircuitState(provider, int(to))
			},
		}
	})

	pipeline := s.buildPipeline()

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.orchestratorHandler = handlers.NewOrchestratorHandler(pipeline, s.healthMgr, s.breakers, s.logger)

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// buildPipeline constructs the Provider Adapters, wraps each in a
// Resilient Wrapper bound to its own circuit breaker, and assembles the
// Pipeline Orchestrator around the shared Provider Health & Fallback
// Manager.
func (s *Server) buildPipeline() *orchestrator.Pipeline {
	creds := s.cfg.Providers.Credentials()

	adapters := map[types.Provider]providers.Adapter{
		types.ProviderOpenAI:      openai.New(openai.Config{APIKey: creds[types.ProviderOpenAI]}, s.logger),
		types.ProviderAnthropic:   anthropic.New(anthropic.Config{APIKey: creds[types.ProviderAnthropic]}, s.logger),
		types.ProviderGoogle:      gemini.New(gemini.Config{APIKey: creds[types.ProviderGoogle]}, s.logger),
		types.ProviderHuggingFace: huggingface.New(huggingface.Config{APIKey: creds[types.ProviderHuggingFace]}, s.logger),
	}

	wrappers := make(map[types.Provider]*resilience.Wrapper, len(adapters))
	for provider, adapter := range adapters {
		adapterCfg := types.DefaultAdapterConfig(provider)
		wrappers[provider] = resilience.New(adapter, adapterCfg, s.breakers.For(string(provider)), s.healthMgr, s.logger)
	}

	wrapperFor := func(p types.Provider) orchestrator.Caller {
		w := wrappers[p]
		return func(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope {
			return w.Call(ctx, model, prompt, deadline)
		}
	}

	sem := orchestrator.NewSemaphorePool(s.cfg.Orchestrator.PerProviderConcurrency)
	cache := s.buildResultCache()

	return orchestrator.NewPipeline(s.healthMgr, wrapperFor, sem, cache, s.logger)
}

// buildResultCache connects to Redis if the result cache is enabled;
// otherwise it returns a cache that always misses.
func (s *Server) buildResultCache() *orchestrator.ResultCache {
	if !s.cfg.Orchestrator.EnableResultCache {
		return orchestrator.NewResultCache(nil, s.cfg.Orchestrator.ResultCacheTTL, s.logger)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	return orchestrator.NewResultCache(rdb, s.cfg.Orchestrator.ResultCacheTTL, s.logger)
}

func leadPriority(names []string) []types.Provider {
	if len(names) == 0 {
		return nil
	}
	out := make([]types.Provider, len(names))
	for i, n := range names {
		out[i] = types.Provider(n)
	}
	return out
}

// startHTTPServer registers routes and starts the primary API listener.
func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/api/orchestrator/analyze", s.orchestratorHandler.HandleAnalyze)
	mux.HandleFunc("/api/orchestrator/analyze/stream", s.orchestratorHandler.HandleAnalyzeStream)
	mux.HandleFunc("/api/orchestrator/status", s.orchestratorHandler.HandleStatus)
	mux.HandleFunc("/api/available-models", s.orchestratorHandler.HandleAvailableModels)

	middlewares := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
	}
	if s.otel != nil {
		middlewares = append(middlewares, OTelTracing())
	}
	handler := Chain(mux, middlewares...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}
	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// startMetricsServer starts the Prometheus /metrics listener on its own
// port, isolated from the API surface.
func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}
	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until an OS signal arrives, then shuts down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown drains both listeners and flushes telemetry.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	if s.otel != nil {
		if err := s.otel.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.wg.Wait()
	s.logger.Info("graceful shutdown completed")
}
