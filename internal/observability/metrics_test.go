package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/signalsfoundry/orrery-sim/core"
	"go.opentelemetry.io/otel"
)

func TestSceneCollectorObservesFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSceneCollector(reg)
	if err != nil {
		t.Fatalf("NewSceneCollector: %v", err)
	}

	collector.ObserveFrame(core.FrameStats{Frame: 1, Delta: 0.016, Spawned: 1, ActiveFlares: 4, AsteroidCount: 1000})
	collector.ObserveFrame(core.FrameStats{Frame: 2, Delta: 0.016, Retired: 2, Evicted: 1, ActiveFlares: 1, AsteroidCount: 500, BeltRebuilt: true})

	if got := testutil.ToFloat64(collector.Frames); got != 2 {
		t.Fatalf("orrery_frames_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ActiveFlares); got != 1 {
		t.Fatalf("orrery_active_flares = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.AsteroidCount); got != 500 {
		t.Fatalf("orrery_asteroids = %v, want 500", got)
	}
	if got := testutil.ToFloat64(collector.BeltRebuilds); got != 1 {
		t.Fatalf("orrery_belt_rebuilds_total = %v, want 1", got)
	}
	for event, want := range map[string]float64{"spawned": 1, "retired": 2, "evicted": 1} {
		if got := testutil.ToFloat64(collector.FlareEvents.WithLabelValues(event)); got != want {
			t.Fatalf("orrery_flare_events_total{event=%q} = %v, want %v", event, got, want)
		}
	}
	if count := histogramSampleCount(t, reg, "orrery_frame_delta_seconds", nil); count != 2 {
		t.Fatalf("orrery_frame_delta_seconds sample_count = %d, want 2", count)
	}
}

func TestSceneCollectorToleratesReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSceneCollector(reg)
	if err != nil {
		t.Fatalf("NewSceneCollector: %v", err)
	}
	second, err := NewSceneCollector(reg)
	if err != nil {
		t.Fatalf("second NewSceneCollector: %v", err)
	}
	first.Frames.Inc()
	if got := testutil.ToFloat64(second.Frames); got != 1 {
		t.Fatalf("re-registered collector does not share counters: %v", got)
	}
}

func TestSceneCollectorNilSafe(t *testing.T) {
	var c *SceneCollector
	c.ObserveFrame(core.FrameStats{})
	c.ObserveFrameDuration(time.Millisecond)
	c.SetSceneCounts(1, 2)
	if c.Gatherer() != nil {
		t.Fatalf("nil collector returned a gatherer")
	}
}

func TestMetricsHandlerExposesSceneGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSceneCollector(reg)
	if err != nil {
		t.Fatalf("NewSceneCollector: %v", err)
	}
	collector.SetSceneCounts(9, 9)
	collector.ObserveFrameDuration(2 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"orrery_scene_bodies 9",
		"orrery_scene_satellites 9",
		"orrery_frame_duration_seconds",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestControlCollectorInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewControlCollector(reg)
	if err != nil {
		t.Fatalf("NewControlCollector: %v", err)
	}

	h := collector.Instrument("/api/params/speed", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/params/speed", nil))

	if got := testutil.ToFloat64(collector.Requests.WithLabelValues("/api/params/speed", "POST", "400")); got != 1 {
		t.Fatalf("orrery_control_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "orrery_control_request_duration_seconds", map[string]string{"route": "/api/params/speed"}); count != 1 {
		t.Fatalf("duration sample_count = %d, want 1", count)
	}

	collector.IncParamChange("sizeScale")
	collector.IncRateLimited()
	if got := testutil.ToFloat64(collector.ParamChanges.WithLabelValues("sizeScale")); got != 1 {
		t.Fatalf("orrery_param_changes_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.RateLimited); got != 1 {
		t.Fatalf("orrery_control_rate_limited_total = %v, want 1", got)
	}
}

func TestControlCollectorNilPassesThrough(t *testing.T) {
	var c *ControlCollector
	called := false
	h := c.Instrument("/x", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !called {
		t.Fatalf("nil collector did not call the wrapped handler")
	}
	c.IncParamChange("x")
	c.IncRateLimited()
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("ORRERY_TRACING_ENABLED", "TRUE")
	t.Setenv("ORRERY_TRACING_EXPORTER", "OTLP")
	t.Setenv("ORRERY_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("ORRERY_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" || cfg.ServiceName != "orrery" {
		t.Fatalf("TracingConfigFromEnv() = %+v", cfg)
	}

	t.Setenv("ORRERY_TRACING_SAMPLE_RATIO", "7")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1 {
		t.Fatalf("out-of-range ratio accepted: %v", cfg.SampleRatio)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Output = &buf

	ctx := context.Background()
	shutdown, err := InitTracing(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := otel.Tracer("test").Start(ctx, "core.Build")
	span.End()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "core.Build") {
		t.Fatalf("stdout exporter output missing span: %q", buf.String())
	}

	if _, err := InitTracing(ctx, TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("unsupported exporter accepted")
	}
	disabled, err := InitTracing(ctx, TracingConfig{}, nil)
	if err != nil || disabled(ctx) != nil {
		t.Fatalf("disabled tracing returned err=%v", err)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
