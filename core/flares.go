package core

import (
	"math"
	"math/rand"

	"github.com/google/uuid"
)

// FlareConfig tunes flare geometry, lifetime and population.
type FlareConfig struct {
	// Origin is the fixed start point of every flare curve.
	Origin Vec3 `mapstructure:"-"`
	// ControlSpread and EndSpread bound the random displacement of the
	// Bezier control and end points from Origin.
	ControlSpread float64 `mapstructure:"controlSpread"`
	EndSpread     float64 `mapstructure:"endSpread"`
	Samples       int     `mapstructure:"samples"`
	BatchSize     int     `mapstructure:"batchSize"`
	MinLifespan   float64 `mapstructure:"minLifespan"`
	MaxLifespan   float64 `mapstructure:"maxLifespan"`
	BaseOpacity   float64 `mapstructure:"baseOpacity"`
	PulseAmount   float64 `mapstructure:"pulseAmount"`
	// MaxActive caps concurrent flares; the oldest are evicted first.
	// Zero leaves the population unbounded.
	MaxActive int `mapstructure:"maxActive"`
}

// DefaultFlareConfig returns the stock flare tuning.
func DefaultFlareConfig() FlareConfig {
	return FlareConfig{
		ControlSpread: 6,
		EndSpread:     10,
		Samples:       32,
		BatchSize:     3,
		MinLifespan:   5,
		MaxLifespan:   10,
		BaseOpacity:   0.8,
		PulseAmount:   0.2,
		MaxActive:     64,
	}
}

// Flare is one transient solar flare. Its curve is fixed at creation; only
// scale and opacity change afterwards.
type Flare struct {
	ID           string
	CurveSamples []Vec3
	BirthTime    float64
	Age          float64
	MaxLifespan  float64
	PhaseOffset  float64
	Node         *Node

	baseOpacity float64
	pulseAmount float64
}

// Expired reports whether the flare reached its lifespan.
func (f *Flare) Expired() bool {
	return f.Age >= f.MaxLifespan
}

// Scale is the pulsing factor driven by continuous wall-clock time, not by
// simulation delta.
func (f *Flare) Scale(wallClockSeconds float64) float64 {
	return 1 + f.pulseAmount*math.Sin(wallClockSeconds+f.PhaseOffset)
}

// Opacity fades linearly from the base opacity to zero over the lifespan.
func (f *Flare) Opacity() float64 {
	if f.MaxLifespan <= 0 {
		return 0
	}
	o := f.baseOpacity * (1 - f.Age/f.MaxLifespan)
	if o < 0 {
		return 0
	}
	return o
}

// FlareTick summarises one Tick call.
type FlareTick struct {
	Retained []*Flare
	Spawned  []*Flare
	Retired  []*Flare
	Evicted  []*Flare
}

// FlareSystem generates flares and manages their lifecycle.
type FlareSystem struct {
	cfg     FlareConfig
	rng     *rand.Rand
	elapsed float64
}

// NewFlareSystem returns a generator drawing from rng.
func NewFlareSystem(rng *rand.Rand, cfg FlareConfig) *FlareSystem {
	return &FlareSystem{cfg: cfg, rng: rng}
}

// Config returns the active tuning.
func (fs *FlareSystem) Config() FlareConfig { return fs.cfg }

// SpawnBatch creates BatchSize new flares born at the current time.
func (fs *FlareSystem) SpawnBatch() []*Flare {
	n := fs.cfg.BatchSize
	if n < 1 {
		n = 1
	}
	out := make([]*Flare, 0, n)
	for range n {
		out = append(out, fs.newFlare())
	}
	return out
}

func (fs *FlareSystem) newFlare() *Flare {
	id, err := uuid.NewRandomFromReader(fs.rng)
	if err != nil {
		id = uuid.New()
	}

	// Samples are local to the flare node, which sits at Origin.
	var p0 Vec3
	p1 := fs.displacement(fs.cfg.ControlSpread)
	p2 := fs.displacement(fs.cfg.EndSpread)

	samples := fs.cfg.Samples
	if samples < 2 {
		samples = 2
	}
	curve := make([]Vec3, samples)
	for i := range curve {
		t := float64(i) / float64(samples-1)
		curve[i] = QuadraticBezier(p0, p1, p2, t)
	}

	lifespan := fs.cfg.MinLifespan + fs.rng.Float64()*(fs.cfg.MaxLifespan-fs.cfg.MinLifespan)

	f := &Flare{
		ID:           id.String(),
		CurveSamples: curve,
		BirthTime:    fs.elapsed,
		MaxLifespan:  lifespan,
		PhaseOffset:  randomAngle(fs.rng),
		Node:         NewNode(NodeFlare, "flare-"+id.String()[:8]),
		baseOpacity:  fs.cfg.BaseOpacity,
		pulseAmount:  fs.cfg.PulseAmount,
	}
	f.Node.Transform.Position = fs.cfg.Origin
	f.Node.Opacity = fs.cfg.BaseOpacity
	return f
}

func (fs *FlareSystem) displacement(spread float64) Vec3 {
	return Vec3{
		X: (fs.rng.Float64()*2 - 1) * spread,
		Y: (fs.rng.Float64()*2 - 1) * spread,
		Z: (fs.rng.Float64()*2 - 1) * spread,
	}
}

// Tick ages existing flares by deltaSeconds, retires every flare whose age
// reached its lifespan in this same tick, and runs one Bernoulli trial with
// probability deltaSeconds/spawnIntervalSeconds. On success exactly one new
// flare (the first of a fresh batch) is spawned. A non-positive interval
// disables spawning. The existing slice is not modified, but its flares are
// aged in place.
func (fs *FlareSystem) Tick(existing []*Flare, deltaSeconds, spawnIntervalSeconds float64) FlareTick {
	fs.elapsed += deltaSeconds

	var res FlareTick
	res.Retained = make([]*Flare, 0, len(existing)+1)
	for _, f := range existing {
		f.Age += deltaSeconds
		if f.Expired() {
			res.Retired = append(res.Retired, f)
			continue
		}
		res.Retained = append(res.Retained, f)
	}

	if spawnIntervalSeconds > 0 && deltaSeconds > 0 {
		p := deltaSeconds / spawnIntervalSeconds
		if fs.rng.Float64() < p {
			res.Spawned = fs.SpawnBatch()[:1]
		}
	}

	if limit := fs.cfg.MaxActive; limit > 0 {
		total := len(res.Retained) + len(res.Spawned)
		if over := total - limit; over > 0 {
			// Retained is in birth order, so the head holds the oldest.
			if over > len(res.Retained) {
				over = len(res.Retained)
			}
			res.Evicted = append(res.Evicted, res.Retained[:over]...)
			res.Retained = res.Retained[over:]
		}
	}
	return res
}

// Active merges retained and spawned flares into the new active set.
func (t FlareTick) Active() []*Flare {
	out := make([]*Flare, 0, len(t.Retained)+len(t.Spawned))
	out = append(out, t.Retained...)
	return append(out, t.Spawned...)
}

// UpdateFlareVisuals writes the per-tick scale and opacity onto each flare node.
func UpdateFlareVisuals(flares []*Flare, wallClockSeconds float64) {
	for _, f := range flares {
		f.Node.Transform.Scale = f.Scale(wallClockSeconds)
		f.Node.Opacity = f.Opacity()
	}
}
