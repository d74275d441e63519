package core

import (
	"context"
	"math"
	"testing"
)

func TestRebuildProducesRequestedCount(t *testing.T) {
	belt := NewAsteroidBelt(seededRand(1), DefaultBeltConfig())
	ctx := context.Background()

	first := belt.Rebuild(ctx, 500)
	if first.Count != 500 || len(first.Instances) != 500 || len(first.Node.Children()) != 500 {
		t.Fatalf("first field count = %d/%d/%d, want 500", first.Count, len(first.Instances), len(first.Node.Children()))
	}

	second := belt.Rebuild(ctx, 1000)
	if second.Count != 1000 || len(second.Instances) != 1000 {
		t.Fatalf("second field count = %d, want 1000", len(second.Instances))
	}

	old := make(map[*Asteroid]bool, len(first.Instances))
	for _, a := range first.Instances {
		old[a] = true
	}
	for _, a := range second.Instances {
		if old[a] {
			t.Fatalf("rebuilt field shares an instance with the previous field")
		}
	}
	if first.Node == second.Node {
		t.Fatalf("rebuilt field reuses the belt node")
	}
}

func TestRebuildStaysInsideBand(t *testing.T) {
	cfg := DefaultBeltConfig()
	belt := NewAsteroidBelt(seededRand(2), cfg)
	field := belt.Rebuild(context.Background(), 2000)

	for _, a := range field.Instances {
		if a.Radius < cfg.InnerRadius || a.Radius >= cfg.InnerRadius+cfg.Band {
			t.Fatalf("radius %v outside [%v, %v)", a.Radius, cfg.InnerRadius, cfg.InnerRadius+cfg.Band)
		}
		if math.Abs(a.Offset) > cfg.VerticalBand/2 {
			t.Fatalf("vertical offset %v outside band", a.Offset)
		}
		if a.Size < cfg.MinSize || a.Size >= cfg.MaxSize {
			t.Fatalf("size %v outside [%v, %v)", a.Size, cfg.MinSize, cfg.MaxSize)
		}
		pos := a.Node.Transform.Position
		if !approxEqual(math.Hypot(pos.X, pos.Z), a.Radius, 1e-9) || pos.Y != a.Offset {
			t.Fatalf("node position %v does not match radius %v offset %v", pos, a.Radius, a.Offset)
		}
	}
}

func TestRebuildEmptyAndNegative(t *testing.T) {
	belt := NewAsteroidBelt(seededRand(3), DefaultBeltConfig())
	for _, n := range []int{0, -5} {
		field := belt.Rebuild(context.Background(), n)
		if field.Count != 0 || len(field.Instances) != 0 {
			t.Fatalf("Rebuild(%d) produced %d asteroids, want 0", n, len(field.Instances))
		}
		if field.Node == nil {
			t.Fatalf("Rebuild(%d) returned no belt node", n)
		}
	}
}

func TestBeltSpinIsRigid(t *testing.T) {
	belt := NewAsteroidBelt(seededRand(4), DefaultBeltConfig())
	field := belt.Rebuild(context.Background(), 100)

	positions := make([]Vec3, len(field.Instances))
	for i, a := range field.Instances {
		positions[i] = a.Node.Transform.Position
	}

	field.Spin(0.02, 2, 5)
	if !approxEqual(field.SpinAngle, 0.2, eps) {
		t.Fatalf("spin angle = %v, want 0.2", field.SpinAngle)
	}
	if field.Node.Transform.Rotation.Y != field.SpinAngle {
		t.Fatalf("belt node rotation = %v, want %v", field.Node.Transform.Rotation.Y, field.SpinAngle)
	}
	for i, a := range field.Instances {
		if a.Node.Transform.Position != positions[i] {
			t.Fatalf("asteroid %d moved locally during spin", i)
		}
	}

	// World positions follow the rotated parent.
	a := field.Instances[0]
	want := a.Node.Transform.Position.RotateY(field.SpinAngle)
	if got := a.Node.WorldPosition(); got.DistanceTo(want) > 1e-9 {
		t.Fatalf("world position = %v, want %v", got, want)
	}
}

func TestRebuildDeterministicForSeed(t *testing.T) {
	a := NewAsteroidBelt(seededRand(5), DefaultBeltConfig()).Rebuild(context.Background(), 50)
	b := NewAsteroidBelt(seededRand(5), DefaultBeltConfig()).Rebuild(context.Background(), 50)
	for i := range a.Instances {
		if a.Instances[i].Angle != b.Instances[i].Angle || a.Instances[i].Radius != b.Instances[i].Radius {
			t.Fatalf("asteroid %d differs across identical seeds", i)
		}
	}
}
