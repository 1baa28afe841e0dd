package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.stageCallsTotal)
	assert.NotNil(t, collector.pipelineDuration)
	assert.NotNil(t, collector.retriesTotal)
	assert.NotNil(t, collector.circuitState)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordHTTPRequest("POST", "/api/orchestrator/analyze", 200, 100*time.Millisecond)
	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("POST", "/api/orchestrator/analyze", 503, 50*time.Millisecond)
	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, newCount, count)
}

func TestCollector_RecordStageCall(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordStageCall("initial_response", "openai", "ok")
	collector.RecordStageCall("initial_response", "anthropic", "timeout")

	count := testutil.CollectAndCount(collector.stageCallsTotal)
	assert.Equal(t, 2, count)
}

func TestCollector_RecordPipelineDuration(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordPipelineDuration("success", 2*time.Second)
	count := testutil.CollectAndCount(collector.pipelineDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordRetry(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordRetry("google")
	collector.RecordRetry("google")
	count := testutil.CollectAndCount(collector.retriesTotal)
	assert.Equal(t, 1, count)
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.retriesTotal.WithLabelValues("google")))
}

func TestCollector_SetCircuitState(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.SetCircuitState("huggingface", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.circuitState.WithLabelValues("huggingface")))

	collector.SetCircuitState("huggingface", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.circuitState.WithLabelValues("huggingface")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			collector.RecordHTTPRequest("GET", "/api/available-models", 200, 10*time.Millisecond)
			collector.RecordStageCall("ultra_synthesis", "anthropic", "ok")
			collector.RecordRetry("openai")
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Greater(t, testutil.CollectAndCount(collector.httpRequestsTotal), 0)
	assert.Greater(t, testutil.CollectAndCount(collector.stageCallsTotal), 0)
	assert.Equal(t, float64(10), testutil.ToFloat64(collector.retriesTotal.WithLabelValues("openai")))
}

func TestCollector_MetricsRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	registry.MustRegister(collector.httpRequestsTotal)
	collector.RecordHTTPRequest("GET", "/health", 200, 1*time.Millisecond)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}
