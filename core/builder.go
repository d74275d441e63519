package core

import (
	"context"
	"math/rand"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/model"
)

const (
	ringInnerFactor = 1.2
	ringOuterFactor = 2.0
	cloudFactor     = 1.02
	cloudOpacity    = 0.4
	ringOpacity     = 0.8

	moonColor  model.Color = 0x9a9a9a
	cloudColor model.Color = 0xffffff
)

// BodyState is the runtime state of one body. It is created by the Builder
// and mutated in place by Advance.
type BodyState struct {
	Descriptor model.BodyDescriptor
	Index      int

	// Group carries the orbital placement of the whole assembly; Body
	// carries the spin of the body mesh alone.
	Group  *Node
	Body   *Node
	Ring   *Node
	Clouds *Node

	Surface *Surface

	OrbitAngle   float64
	SpinAngle    float64
	SpinRateBase float64

	Satellites []*SatelliteState
}

// Name returns the descriptor name.
func (b *BodyState) Name() string { return b.Descriptor.Name }

// HasDayNight reports whether the body carries day/night shading.
func (b *BodyState) HasDayNight() bool {
	return b.Surface != nil && b.Surface.Model == ShadingDayNight
}

// SatelliteState is a moon owned exclusively by its parent BodyState.
type SatelliteState struct {
	Spec        model.SatelliteSpec
	OrbitRadius float64
	OrbitAngle  float64
	SpinAngle   float64
	SpinRate    float64
	Node        *Node
}

// Builder turns body descriptors into positioned, parented scene nodes.
type Builder struct {
	rng      *rand.Rand
	resolver AssetResolver
	rates    Rates
	log      logging.Logger
}

// NewBuilder constructs a builder. rng supplies every random initial phase;
// pass a seeded source for reproducible builds. A nil resolver falls back to
// plain colours.
func NewBuilder(rng *rand.Rand, resolver AssetResolver, rates Rates, log logging.Logger) *Builder {
	if resolver == nil {
		resolver = ColorResolver{}
	}
	return &Builder{
		rng:      rng,
		resolver: resolver,
		rates:    rates,
		log:      logging.OrNoop(log),
	}
}

// Build constructs one BodyState per descriptor, preserving order. Bodies
// are assembled sequentially; the textures of a single body are resolved
// concurrently and awaited together before the body is returned, so no
// caller ever observes a partially textured body.
func (b *Builder) Build(ctx context.Context, descriptors []model.BodyDescriptor) []*BodyState {
	ctx, span := startSpan(ctx, "core.Build", attribute.Int("bodies", len(descriptors)))
	defer span.End()

	states := make([]*BodyState, 0, len(descriptors))
	for i, d := range descriptors {
		states = append(states, b.buildBody(ctx, i, d))
	}

	b.log.Info(ctx, "scene hierarchy built", logging.Int("bodies", len(states)))
	return states
}

type bodyTextures struct {
	day, night, ring, clouds SurfaceInput
}

func (b *Builder) buildBody(ctx context.Context, index int, d model.BodyDescriptor) *BodyState {
	// Random draws happen before any concurrent work so the sequence only
	// depends on descriptor order.
	orbitAngle := randomAngle(b.rng)
	specs := d.SatelliteSpecs()
	moonAngles := make([]float64, len(specs))
	for i := range specs {
		moonAngles[i] = randomAngle(b.rng)
	}

	tex := b.resolveTextures(ctx, d)

	state := &BodyState{
		Descriptor:   d,
		Index:        index,
		Group:        NewNode(NodeGroup, d.Name),
		Body:         NewNode(NodeBody, d.Name),
		OrbitAngle:   orbitAngle,
		SpinRateBase: SpinRate(b.rates.BodySpinK, d.Size),
	}
	state.Body.Radius = d.Size
	state.Body.Surface = surfaceFor(d, tex)
	state.Surface = state.Body.Surface
	state.Group.Add(state.Body)

	for i, spec := range specs {
		moon := &SatelliteState{
			Spec:        spec,
			OrbitRadius: spec.OrbitRadius,
			OrbitAngle:  moonAngles[i],
			SpinRate:    SpinRate(b.rates.SatelliteSpinK, spec.Size),
			Node:        NewNode(NodeMoon, spec.Name),
		}
		moon.Node.Radius = spec.Size
		moon.Node.Surface = &Surface{Model: ShadingStandard, Day: SurfaceInput{Color: moonColor}}
		moon.Node.Transform.Position = CircularPosition(moon.OrbitAngle, moon.OrbitRadius)
		state.Group.Add(moon.Node)
		state.Satellites = append(state.Satellites, moon)
	}

	if d.HasRings {
		ring := NewNode(NodeRing, d.Name+" ring")
		ring.InnerRadius = ringInnerFactor * d.Size
		ring.OuterRadius = ringOuterFactor * d.Size
		ring.Opacity = ringOpacity
		ring.Surface = &Surface{Model: ShadingTranslucent, Day: tex.ring}
		state.Group.Add(ring)
		state.Ring = ring
	}

	if d.HasClouds {
		clouds := NewNode(NodeClouds, d.Name+" clouds")
		clouds.Radius = cloudFactor * d.Size
		clouds.Opacity = cloudOpacity
		clouds.Surface = &Surface{Model: ShadingTranslucent, Day: tex.clouds}
		// Clouds ride on the spinning body.
		state.Body.Add(clouds)
		state.Clouds = clouds
	}

	state.Group.Transform.Position = Vec3{X: d.OrbitRadius}

	b.log.Debug(ctx, "body constructed",
		logging.String("body", d.Name),
		logging.Int("index", index),
		logging.Int("satellites", len(state.Satellites)),
		logging.Bool("textured", tex.day.Resolved()),
	)
	return state
}

// resolveTextures fetches all textures for one body in parallel and waits
// for every one of them.
func (b *Builder) resolveTextures(ctx context.Context, d model.BodyDescriptor) bodyTextures {
	var tex bodyTextures

	g, gctx := errgroup.WithContext(ctx)
	resolve := func(dst *SurfaceInput, path string, fallback model.Color) {
		if path == "" {
			*dst = SurfaceInput{Color: fallback}
			return
		}
		g.Go(func() error {
			*dst = b.resolver.Resolve(gctx, path, fallback)
			return nil
		})
	}

	resolve(&tex.day, d.Texture, d.Color)
	if d.IsPrimaryWithDayNight {
		resolve(&tex.night, d.NightTexture, nightColor(d.Color))
	}
	if d.HasRings {
		resolve(&tex.ring, d.RingTexture, d.Color)
	}
	if d.HasClouds {
		resolve(&tex.clouds, d.CloudTexture, cloudColor)
	}

	// Resolvers never fail; Wait is the await-all barrier.
	_ = g.Wait()
	return tex
}

func surfaceFor(d model.BodyDescriptor, tex bodyTextures) *Surface {
	switch {
	case d.IsPrimaryWithDayNight:
		return &Surface{
			Model:        ShadingDayNight,
			Day:          tex.day,
			Night:        tex.night,
			SunDirection: SunDirection(0),
		}
	case d.Emissive:
		return &Surface{Model: ShadingEmissive, Day: tex.day}
	default:
		return &Surface{Model: ShadingStandard, Day: tex.day}
	}
}

// nightColor darkens c to a quarter of its brightness.
func nightColor(c model.Color) model.Color {
	r, g, b := c.RGB()
	return model.Color(uint32(r/4)<<16 | uint32(g/4)<<8 | uint32(b/4))
}

// LookupByName returns the first body named name, or nil.
func LookupByName(states []*BodyState, name string) *BodyState {
	for _, s := range states {
		if s.Descriptor.Name == name {
			return s
		}
	}
	return nil
}
