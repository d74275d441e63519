package core

import (
	"context"
	"math/rand"

	"go.opentelemetry.io/otel/attribute"
)

// BeltConfig places the asteroid band.
type BeltConfig struct {
	InnerRadius  float64 `mapstructure:"innerRadius"`
	Band         float64 `mapstructure:"band"`
	VerticalBand float64 `mapstructure:"verticalBand"`
	MinSize      float64 `mapstructure:"minSize"`
	MaxSize      float64 `mapstructure:"maxSize"`
}

// DefaultBeltConfig puts the belt between the fourth and fifth orbits of the
// default scene.
func DefaultBeltConfig() BeltConfig {
	return BeltConfig{
		InnerRadius:  30,
		Band:         10,
		VerticalBand: 2,
		MinSize:      0.05,
		MaxSize:      0.2,
	}
}

// Asteroid is one belt member. Its placement is sampled once and never
// changes; the belt as a whole rotates instead.
type Asteroid struct {
	Angle    float64
	Radius   float64
	Offset   float64
	Rotation Vec3
	Size     float64
	Node     *Node
}

// AsteroidField is a complete, immutable-membership belt.
type AsteroidField struct {
	Count     int
	Instances []*Asteroid
	SpinAngle float64
	Node      *Node
}

// AsteroidBelt regenerates asteroid fields.
type AsteroidBelt struct {
	cfg BeltConfig
	rng *rand.Rand
}

// NewAsteroidBelt returns a generator drawing from rng.
func NewAsteroidBelt(rng *rand.Rand, cfg BeltConfig) *AsteroidBelt {
	return &AsteroidBelt{cfg: cfg, rng: rng}
}

// Rebuild creates a brand-new field of count asteroids. Nothing is carried
// over from any previous field: callers discard the old one entirely.
func (b *AsteroidBelt) Rebuild(ctx context.Context, count int) *AsteroidField {
	_, span := startSpan(ctx, "core.RebuildAsteroids", attribute.Int("count", count))
	defer span.End()

	if count < 0 {
		count = 0
	}
	field := &AsteroidField{
		Count:     count,
		Instances: make([]*Asteroid, 0, count),
		Node:      NewNode(NodeBelt, "asteroid belt"),
	}
	for range count {
		a := b.sample()
		field.Instances = append(field.Instances, a)
		field.Node.Add(a.Node)
	}
	return field
}

func (b *AsteroidBelt) sample() *Asteroid {
	a := &Asteroid{
		Angle:  randomAngle(b.rng),
		Radius: b.cfg.InnerRadius + b.rng.Float64()*b.cfg.Band,
		Offset: (b.rng.Float64() - 0.5) * b.cfg.VerticalBand,
		Rotation: Vec3{
			X: randomAngle(b.rng),
			Y: randomAngle(b.rng),
			Z: randomAngle(b.rng),
		},
		Size: b.cfg.MinSize + b.rng.Float64()*(b.cfg.MaxSize-b.cfg.MinSize),
	}
	a.Node = NewNode(NodeAsteroid, "")
	a.Node.Radius = a.Size
	a.Node.Transform.Position = CircularPosition(a.Angle, a.Radius).Add(Vec3{Y: a.Offset})
	a.Node.Transform.Rotation = a.Rotation
	return a
}

// Spin rotates the whole field rigidly. The cost is constant in the number
// of asteroids.
func (f *AsteroidField) Spin(rate, multiplier, deltaSeconds float64) {
	f.SpinAngle += rate * multiplier * deltaSeconds
	f.Node.Transform.Rotation.Y = f.SpinAngle
}
