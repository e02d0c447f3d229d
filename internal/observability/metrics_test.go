package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across the client and tools packages.
func TestMetrics_Usable(t *testing.T) {
	ToolInvocationsTotal.WithLabelValues("get_current_weather", "success").Inc()
	ToolInvocationsTotal.WithLabelValues("get_forecast", "invalid_input").Inc()
	ToolDuration.WithLabelValues("get_current_weather").Observe(0.01)
	WeatherAPICallsTotal.WithLabelValues("success").Inc()
	WeatherAPICallsTotal.WithLabelValues("error").Inc()
	WeatherAPIDuration.WithLabelValues("success").Observe(0.1)
	WeatherAPIErrorsTotal.WithLabelValues("upstream_5xx").Inc()
	UpstreamThrottleWaitSeconds.Add(0.002)
}

func TestRecordToolInvocation(t *testing.T) {
	RecordToolInvocation("get_forecast", "success", 0.05)
	RecordToolInvocation("get_forecast", "upstream_error", 0.5)
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "weatherApiCallsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
}
