package core

import (
	"sync/atomic"

	"github.com/signalsfoundry/orrery-sim/params"
)

// SceneSnapshot is an immutable, JSON-friendly copy of the scene taken at a
// frame boundary. Renderers and the control surface only ever see these.
type SceneSnapshot struct {
	Frame    uint64                  `json:"frame"`
	Elapsed  float64                 `json:"elapsed"`
	Params   params.GlobalParameters `json:"params"`
	Bodies   []BodySnapshot          `json:"bodies"`
	Flares   []FlareSnapshot         `json:"flares"`
	Belt     BeltSnapshot            `json:"belt"`
	Selected *Framing                `json:"selected,omitempty"`
}

// BodySnapshot is one body in world coordinates.
type BodySnapshot struct {
	Name         string              `json:"name"`
	Index        int                 `json:"index"`
	Position     Vec3                `json:"position"`
	OrbitRadius  float64             `json:"orbitRadius"`
	OrbitAngle   float64             `json:"orbitAngle"`
	SpinAngle    float64             `json:"spinAngle"`
	Radius       float64             `json:"radius"`
	Color        string              `json:"color"`
	Textured     bool                `json:"textured"`
	Emissive     bool                `json:"emissive,omitempty"`
	SunDirection *Vec3               `json:"sunDirection,omitempty"`
	Ring         *RingSnapshot       `json:"ring,omitempty"`
	Clouds       bool                `json:"clouds,omitempty"`
	Satellites   []SatelliteSnapshot `json:"satellites,omitempty"`
}

// RingSnapshot is a ring annulus in world units.
type RingSnapshot struct {
	Inner float64 `json:"inner"`
	Outer float64 `json:"outer"`
}

// SatelliteSnapshot is one moon in world coordinates.
type SatelliteSnapshot struct {
	Name       string  `json:"name,omitempty"`
	Position   Vec3    `json:"position"`
	Radius     float64 `json:"radius"`
	OrbitAngle float64 `json:"orbitAngle"`
}

// FlareSnapshot is one active flare.
type FlareSnapshot struct {
	ID          string  `json:"id"`
	Age         float64 `json:"age"`
	MaxLifespan float64 `json:"maxLifespan"`
	Opacity     float64 `json:"opacity"`
	Scale       float64 `json:"scale"`
	Tip         Vec3    `json:"tip"`
}

// BeltSnapshot summarises the asteroid field. Positions are only filled when
// requested.
type BeltSnapshot struct {
	Count       int     `json:"count"`
	SpinAngle   float64 `json:"spinAngle"`
	InnerRadius float64 `json:"innerRadius"`
	OuterRadius float64 `json:"outerRadius"`
	Positions   []Vec3  `json:"positions,omitempty"`
}

// Framing is a close-up camera target for the selected body.
type Framing struct {
	Body     string  `json:"body"`
	Target   Vec3    `json:"target"`
	Distance float64 `json:"distance"`
}

// SnapshotOptions selects optional snapshot content.
type SnapshotOptions struct {
	AsteroidPositions bool
}

// Snapshot copies the scene state. p is the parameter set the frame was
// advanced with.
func (s *Scene) Snapshot(p params.GlobalParameters, opts SnapshotOptions) *SceneSnapshot {
	snap := &SceneSnapshot{
		Frame:   s.frame,
		Elapsed: s.elapsed,
		Params:  p,
		Bodies:  make([]BodySnapshot, 0, len(s.Bodies)),
		Flares:  make([]FlareSnapshot, 0, len(s.Flares)),
	}

	for _, b := range s.Bodies {
		snap.Bodies = append(snap.Bodies, snapshotBody(b))
	}

	for _, f := range s.Flares {
		tip := f.CurveSamples[len(f.CurveSamples)-1]
		snap.Flares = append(snap.Flares, FlareSnapshot{
			ID:          f.ID,
			Age:         f.Age,
			MaxLifespan: f.MaxLifespan,
			Opacity:     f.Node.Opacity,
			Scale:       f.Node.Transform.Scale,
			Tip:         tip.Scale(f.Node.Transform.Scale).Add(f.Node.WorldPosition()),
		})
	}

	snap.Belt = BeltSnapshot{
		Count:       s.Belt.Count,
		SpinAngle:   s.Belt.SpinAngle,
		InnerRadius: s.beltCfg.InnerRadius,
		OuterRadius: s.beltCfg.InnerRadius + s.beltCfg.Band,
	}
	if opts.AsteroidPositions {
		snap.Belt.Positions = make([]Vec3, 0, len(s.Belt.Instances))
		for _, a := range s.Belt.Instances {
			snap.Belt.Positions = append(snap.Belt.Positions, a.Node.WorldPosition())
		}
	}

	if p.HasSelection() {
		if f, ok := s.Framing(p.SelectedBody, p.SizeScale); ok {
			snap.Selected = &f
		}
	}
	return snap
}

func snapshotBody(b *BodyState) BodySnapshot {
	bs := BodySnapshot{
		Name:        b.Descriptor.Name,
		Index:       b.Index,
		Position:    b.Group.WorldPosition(),
		OrbitRadius: b.Descriptor.OrbitRadius,
		OrbitAngle:  b.OrbitAngle,
		SpinAngle:   b.SpinAngle,
		Radius:      b.Body.Radius * b.Body.WorldScale(),
		Color:       b.Descriptor.Color.Hex(),
		Textured:    b.Surface.Day.Resolved(),
		Emissive:    b.Surface.Model == ShadingEmissive,
		Clouds:      b.Clouds != nil,
	}
	if b.HasDayNight() {
		dir := b.Surface.SunDirection
		bs.SunDirection = &dir
	}
	if b.Ring != nil {
		scale := b.Ring.WorldScale()
		bs.Ring = &RingSnapshot{Inner: b.Ring.InnerRadius * scale, Outer: b.Ring.OuterRadius * scale}
	}
	for _, m := range b.Satellites {
		bs.Satellites = append(bs.Satellites, SatelliteSnapshot{
			Name:       m.Spec.Name,
			Position:   m.Node.WorldPosition(),
			Radius:     m.Node.Radius * m.Node.WorldScale(),
			OrbitAngle: m.OrbitAngle,
		})
	}
	return bs
}

// Framing computes a close-up target for the named body: its current world
// position, and a distance that keeps the body and its moons in view.
func (s *Scene) Framing(name string, sizeScale float64) (Framing, bool) {
	b := s.Body(name)
	if b == nil {
		return Framing{}, false
	}
	dist := 4 * b.Descriptor.Size * sizeScale
	for _, m := range b.Satellites {
		if d := 1.5 * m.OrbitRadius; d > dist {
			dist = d
		}
	}
	if b.Ring != nil {
		if d := 1.5 * b.Ring.OuterRadius * sizeScale; d > dist {
			dist = d
		}
	}
	return Framing{Body: name, Target: b.Group.WorldPosition(), Distance: dist}, true
}

// SnapshotBoard publishes the latest snapshot from the frame loop to any
// number of concurrent readers.
type SnapshotBoard struct {
	latest atomic.Pointer[SceneSnapshot]
}

// Publish replaces the current snapshot.
func (b *SnapshotBoard) Publish(s *SceneSnapshot) { b.latest.Store(s) }

// Latest returns the most recent snapshot, or nil before the first publish.
func (b *SnapshotBoard) Latest() *SceneSnapshot { return b.latest.Load() }
