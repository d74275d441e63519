package core

import (
	"context"
	"math/rand"
	"time"

	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/model"
	"github.com/signalsfoundry/orrery-sim/params"
)

// FrameStats summarises one Scene.Advance call.
type FrameStats struct {
	Frame         uint64
	Delta         float64
	Spawned       int
	Retired       int
	Evicted       int
	ActiveFlares  int
	AsteroidCount int
	BeltRebuilt   bool
}

// SceneMetricsRecorder receives per-frame statistics.
type SceneMetricsRecorder interface {
	ObserveFrame(stats FrameStats)
	SetSceneCounts(bodies, satellites int)
}

// Scene owns the body hierarchy, the flare population and the asteroid
// field. It is not safe for concurrent use: a single frame loop drives it
// and everyone else reads published snapshots.
type Scene struct {
	Root   *Node
	Bodies []*BodyState
	Flares []*Flare
	Belt   *AsteroidField

	rng      *rand.Rand
	resolver AssetResolver
	rates    Rates
	flareCfg FlareConfig
	beltCfg  BeltConfig

	updater *Updater
	flares  *FlareSystem
	belt    *AsteroidBelt

	beltSeq uint64
	frame   uint64
	elapsed float64

	log     logging.Logger
	metrics SceneMetricsRecorder
}

// SceneOption customises Scene construction.
type SceneOption func(*Scene)

// WithRand injects the random source used for every randomised quantity.
func WithRand(rng *rand.Rand) SceneOption {
	return func(s *Scene) { s.rng = rng }
}

// WithSeed seeds a fresh random source.
func WithSeed(seed int64) SceneOption {
	return func(s *Scene) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithResolver sets the asset resolver used while building bodies.
func WithResolver(r AssetResolver) SceneOption {
	return func(s *Scene) { s.resolver = r }
}

// WithRates overrides the animation constants.
func WithRates(r Rates) SceneOption {
	return func(s *Scene) { s.rates = r }
}

// WithFlareConfig overrides flare tuning.
func WithFlareConfig(cfg FlareConfig) SceneOption {
	return func(s *Scene) { s.flareCfg = cfg }
}

// WithBeltConfig overrides asteroid belt placement.
func WithBeltConfig(cfg BeltConfig) SceneOption {
	return func(s *Scene) { s.beltCfg = cfg }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) SceneOption {
	return func(s *Scene) { s.log = l }
}

// WithMetricsRecorder attaches a recorder for frame statistics.
func WithMetricsRecorder(m SceneMetricsRecorder) SceneOption {
	return func(s *Scene) { s.metrics = m }
}

// NewScene builds the hierarchy for descriptors, the initial asteroid field
// for initial.AsteroidCount and the initial flare batch.
func NewScene(ctx context.Context, descriptors []model.BodyDescriptor, initial params.GlobalParameters, opts ...SceneOption) *Scene {
	s := &Scene{
		Root:     NewNode(NodeRoot, "scene"),
		rates:    DefaultRates(),
		flareCfg: DefaultFlareConfig(),
		beltCfg:  DefaultBeltConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.log = logging.OrNoop(s.log).With(logging.String("component", "scene"))

	s.updater = NewUpdater(s.rates)
	s.flares = NewFlareSystem(s.rng, s.flareCfg)
	s.belt = NewAsteroidBelt(s.rng, s.beltCfg)

	s.Bodies = NewBuilder(s.rng, s.resolver, s.rates, s.log).Build(ctx, descriptors)
	for _, b := range s.Bodies {
		s.Root.Add(b.Group)
	}

	s.Belt = s.belt.Rebuild(ctx, initial.AsteroidCount)
	s.Root.Add(s.Belt.Node)
	s.beltSeq = initial.AsteroidRebuildSeq

	s.Flares = s.flares.SpawnBatch()
	for _, f := range s.Flares {
		s.Root.Add(f.Node)
	}

	if s.metrics != nil {
		s.metrics.SetSceneCounts(len(s.Bodies), s.satelliteCount())
	}
	return s
}

// Advance runs one frame: reconcile the belt with the live parameters,
// advance bodies, spin the belt, then age/spawn/retire flares and refresh
// their visuals. wallClockSeconds drives only the flare pulse.
func (s *Scene) Advance(ctx context.Context, p *params.GlobalParameters, deltaSeconds, wallClockSeconds float64) FrameStats {
	stats := FrameStats{Delta: deltaSeconds}

	if p.AsteroidCount != s.Belt.Count || p.AsteroidRebuildSeq != s.beltSeq {
		s.RebuildAsteroids(ctx, p.AsteroidCount)
		s.beltSeq = p.AsteroidRebuildSeq
		stats.BeltRebuilt = true
	}

	s.updater.Advance(s.Bodies, p, deltaSeconds)
	s.Belt.Spin(s.rates.BeltRate, p.RotationSpeedMultiplier, deltaSeconds)

	tick := s.flares.Tick(s.Flares, deltaSeconds, p.FlareSpawnIntervalSeconds)
	for _, f := range tick.Retired {
		s.Root.Remove(f.Node)
	}
	for _, f := range tick.Evicted {
		s.Root.Remove(f.Node)
	}
	for _, f := range tick.Spawned {
		s.Root.Add(f.Node)
	}
	s.Flares = tick.Active()
	UpdateFlareVisuals(s.Flares, wallClockSeconds)

	s.frame++
	s.elapsed += deltaSeconds

	stats.Frame = s.frame
	stats.Spawned = len(tick.Spawned)
	stats.Retired = len(tick.Retired)
	stats.Evicted = len(tick.Evicted)
	stats.ActiveFlares = len(s.Flares)
	stats.AsteroidCount = s.Belt.Count

	if len(tick.Evicted) > 0 {
		s.log.Debug(ctx, "flare cap reached; evicted oldest",
			logging.Int("evicted", len(tick.Evicted)),
			logging.Int("max_active", s.flareCfg.MaxActive),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveFrame(stats)
	}
	return stats
}

// RebuildAsteroids discards the current field and generates a new one with
// count members.
func (s *Scene) RebuildAsteroids(ctx context.Context, count int) {
	prev := 0
	if s.Belt != nil {
		prev = s.Belt.Count
		s.Root.Remove(s.Belt.Node)
	}
	s.Belt = s.belt.Rebuild(ctx, count)
	s.Root.Add(s.Belt.Node)

	s.log.Info(ctx, "asteroid belt rebuilt",
		logging.Int("previous", prev),
		logging.Int("count", s.Belt.Count),
	)
}

// Body returns the body named name, or nil.
func (s *Scene) Body(name string) *BodyState {
	return LookupByName(s.Bodies, name)
}

// BodyNames lists body names in descriptor order.
func (s *Scene) BodyNames() []string {
	names := make([]string, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		names = append(names, b.Descriptor.Name)
	}
	return names
}

// Frame returns the number of frames advanced so far.
func (s *Scene) Frame() uint64 { return s.frame }

// Elapsed returns the accumulated animation time in seconds.
func (s *Scene) Elapsed() float64 { return s.elapsed }

func (s *Scene) satelliteCount() int {
	n := 0
	for _, b := range s.Bodies {
		n += len(b.Satellites)
	}
	return n
}
