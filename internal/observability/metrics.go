package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalsfoundry/orrery-sim/core"
)

// SceneCollector bundles Prometheus metrics for the frame loop. It satisfies
// core.SceneMetricsRecorder so the scene drives it directly.
type SceneCollector struct {
	gatherer prometheus.Gatherer

	Frames          prometheus.Counter
	FrameDelta      prometheus.Histogram
	FrameDuration   prometheus.Histogram
	ActiveFlares    prometheus.Gauge
	FlareEvents     *prometheus.CounterVec
	AsteroidCount   prometheus.Gauge
	BeltRebuilds    prometheus.Counter
	SceneBodies     prometheus.Gauge
	SceneSatellites prometheus.Gauge
}

// NewSceneCollector registers scene metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSceneCollector(reg prometheus.Registerer) (*SceneCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_frames_total",
		Help: "Number of animation frames advanced.",
	}), "orrery_frames_total")
	if err != nil {
		return nil, err
	}

	delta, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_frame_delta_seconds",
		Help:    "Animation time covered by each frame.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.0167, 0.033, 0.05, 0.1, 0.25, 1, 10, 60},
	}), "orrery_frame_delta_seconds")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orrery_frame_duration_seconds",
		Help:    "Wall time spent advancing and publishing one frame.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "orrery_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_active_flares",
		Help: "Flares alive after the last frame.",
	}), "orrery_active_flares")
	if err != nil {
		return nil, err
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_flare_events_total",
		Help: "Flare lifecycle events, labeled by event (spawned, retired, evicted).",
	}, []string{"event"})
	events, err = registerCounterVec(reg, events, "orrery_flare_events_total")
	if err != nil {
		return nil, err
	}

	asteroids, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_asteroids",
		Help: "Asteroids in the current belt.",
	}), "orrery_asteroids")
	if err != nil {
		return nil, err
	}

	rebuilds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_belt_rebuilds_total",
		Help: "Asteroid belt regenerations.",
	}), "orrery_belt_rebuilds_total")
	if err != nil {
		return nil, err
	}

	bodies, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_scene_bodies",
		Help: "Bodies in the scene hierarchy.",
	}), "orrery_scene_bodies")
	if err != nil {
		return nil, err
	}
	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orrery_scene_satellites",
		Help: "Satellites attached to scene bodies.",
	}), "orrery_scene_satellites")
	if err != nil {
		return nil, err
	}

	return &SceneCollector{
		gatherer:        gatherer,
		Frames:          frames,
		FrameDelta:      delta,
		FrameDuration:   duration,
		ActiveFlares:    active,
		FlareEvents:     events,
		AsteroidCount:   asteroids,
		BeltRebuilds:    rebuilds,
		SceneBodies:     bodies,
		SceneSatellites: satellites,
	}, nil
}

// ObserveFrame records one frame's statistics.
func (c *SceneCollector) ObserveFrame(stats core.FrameStats) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.FrameDelta.Observe(stats.Delta)
	c.ActiveFlares.Set(float64(stats.ActiveFlares))
	c.AsteroidCount.Set(float64(stats.AsteroidCount))
	if stats.Spawned > 0 {
		c.FlareEvents.WithLabelValues("spawned").Add(float64(stats.Spawned))
	}
	if stats.Retired > 0 {
		c.FlareEvents.WithLabelValues("retired").Add(float64(stats.Retired))
	}
	if stats.Evicted > 0 {
		c.FlareEvents.WithLabelValues("evicted").Add(float64(stats.Evicted))
	}
	if stats.BeltRebuilt {
		c.BeltRebuilds.Inc()
	}
}

// ObserveFrameDuration records the wall time spent on one frame.
func (c *SceneCollector) ObserveFrameDuration(d time.Duration) {
	if c == nil || c.FrameDuration == nil {
		return
	}
	c.FrameDuration.Observe(d.Seconds())
}

// SetSceneCounts satisfies core.SceneMetricsRecorder.
func (c *SceneCollector) SetSceneCounts(bodies, satellites int) {
	if c == nil {
		return
	}
	c.SceneBodies.Set(float64(bodies))
	c.SceneSatellites.Set(float64(satellites))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SceneCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SceneCollector) Handler() http.Handler {
	return HandlerFor(c.Gatherer())
}

// HandlerFor serves gatherer in the Prometheus exposition format, falling
// back to the default gatherer when nil.
func HandlerFor(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ core.SceneMetricsRecorder = (*SceneCollector)(nil)

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
