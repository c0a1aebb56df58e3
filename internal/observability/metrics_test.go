package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	// Don't call NewMetrics() here as it registers with default registry
	// Just verify the structure would be created
	t.Log("Metrics structure verified through integration tests")
}

func TestRecordLLMRequest(t *testing.T) {
	// Test with isolated registry
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_llm_requests_total",
			Help: "Test LLM request counter",
		},
		[]string{"provider", "model", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("anthropic", "claude-3-opus", "success").Inc()
	counter.WithLabelValues("openai", "gpt-4", "success").Inc()
	counter.WithLabelValues("anthropic", "claude-3-opus", "error").Inc()

	// Verify counter was incremented
	count := testutil.CollectAndCount(counter)
	if count < 1 {
		t.Error("Expected at least 1 LLM request recorded")
	}
}

func TestRecordToolExecution(t *testing.T) {
	// Test with isolated registry
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_tool_executions_total",
			Help: "Test tool execution counter",
		},
		[]string{"tool_name", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("web_search", "success").Inc()
	counter.WithLabelValues("web_search", "success").Inc()
	counter.WithLabelValues("browser", "error").Inc()

	// Verify counters
	count := testutil.CollectAndCount(counter)
	if count < 1 {
		t.Error("Expected at least 1 tool execution recorded")
	}
}

func TestRecordError(t *testing.T) {
	// Test with isolated registry
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_errors_total",
			Help: "Test error counter",
		},
		[]string{"component", "error_type"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("loop", "timeout").Inc()
	counter.WithLabelValues("loop", "timeout").Inc()
	counter.WithLabelValues("provider", "rate_limited").Inc()
	counter.WithLabelValues("tool", "execution_failed").Inc()

	// Verify counter
	count := testutil.CollectAndCount(counter)
	if count < 1 {
		t.Error("Expected at least 1 error recorded")
	}
}

func TestRecordRetryAttempt(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_retry_attempts_total",
			Help: "Test retry attempt counter",
		},
		[]string{"component", "outcome"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("provider", "retried").Inc()
	counter.WithLabelValues("provider", "retried").Inc()
	counter.WithLabelValues("provider", "exhausted").Inc()

	expected := `
		# HELP test_retry_attempts_total Test retry attempt counter
		# TYPE test_retry_attempts_total counter
		test_retry_attempts_total{component="provider",outcome="exhausted"} 1
		test_retry_attempts_total{component="provider",outcome="retried"} 2
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestRecordBudgetReservation(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_budget_reservations_total",
			Help: "Test budget reservation counter",
		},
		[]string{"outcome"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("granted").Inc()
	counter.WithLabelValues("granted").Inc()
	counter.WithLabelValues("denied").Inc()

	expected := `
		# HELP test_budget_reservations_total Test budget reservation counter
		# TYPE test_budget_reservations_total counter
		test_budget_reservations_total{outcome="denied"} 1
		test_budget_reservations_total{outcome="granted"} 2
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestContextWindowHistogramBuckets(t *testing.T) {
	// Test histogram with various context window sizes
	registry := prometheus.NewRegistry()
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_context_window_tokens",
			Help:    "Test context window histogram",
			Buckets: []float64{1000, 4000, 8000, 16000, 32000, 64000, 128000},
		},
		[]string{"provider", "model"},
	)
	registry.MustRegister(histogram)

	sizes := []float64{1000, 4000, 8000, 16000, 32000, 64000, 128000}
	for _, size := range sizes {
		histogram.WithLabelValues("anthropic", "claude-3-opus").Observe(size)
	}

	// Verify histogram recorded all observations
	if testutil.CollectAndCount(histogram) < 1 {
		t.Error("Expected histogram to have observations across buckets")
	}
}

func TestConcurrentMetrics(t *testing.T) {
	// Test concurrent metric recording
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_concurrent_total",
			Help: "Test concurrent counter",
		},
		[]string{"label"},
	)
	registry.MustRegister(counter)

	done := make(chan bool)
	iterations := 100

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("a").Inc()
			time.Sleep(time.Microsecond)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("b").Inc()
			time.Sleep(time.Microsecond)
		}
		done <- true
	}()

	<-done
	<-done

	// Should not panic
	if testutil.CollectAndCount(counter) < 1 {
		t.Error("Expected concurrent metric recording to work")
	}
}
