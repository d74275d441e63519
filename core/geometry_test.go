package core

import (
	"math"
	"testing"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{X: 3, Y: 4, Z: 0}
	if got := a.Norm(); got != 5 {
		t.Fatalf("Norm = %v, want 5", got)
	}
	if got := a.Normalize().Norm(); !approxEqual(got, 1, eps) {
		t.Fatalf("Normalize().Norm() = %v, want 1", got)
	}
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Fatalf("zero vector normalised to %v", got)
	}
	if got := a.DistanceTo(Vec3{}); got != 5 {
		t.Fatalf("DistanceTo = %v, want 5", got)
	}
}

func TestRotateYMatchesCircularPosition(t *testing.T) {
	for _, angle := range []float64{0, 0.3, math.Pi / 2, 2, math.Pi, 5.5} {
		got := Vec3{X: 1}.RotateY(angle)
		want := CircularPosition(angle, 1)
		if got.DistanceTo(want) > eps {
			t.Fatalf("RotateY(%v) = %v, want %v", angle, got, want)
		}
	}
}

func TestQuadraticBezierEndpoints(t *testing.T) {
	p0 := Vec3{}
	p1 := Vec3{X: 1, Y: 2}
	p2 := Vec3{X: 4, Z: -1}
	if got := QuadraticBezier(p0, p1, p2, 0); got != p0 {
		t.Fatalf("B(0) = %v, want %v", got, p0)
	}
	if got := QuadraticBezier(p0, p1, p2, 1); got.DistanceTo(p2) > eps {
		t.Fatalf("B(1) = %v, want %v", got, p2)
	}
	mid := QuadraticBezier(p0, p1, p2, 0.5)
	want := Vec3{X: 1.5, Y: 1, Z: -0.25}
	if mid.DistanceTo(want) > eps {
		t.Fatalf("B(0.5) = %v, want %v", mid, want)
	}
}

func TestSunDirectionPointsAtOrigin(t *testing.T) {
	for _, angle := range []float64{0, 1, 2.5, 4} {
		dir := SunDirection(angle)
		if !approxEqual(dir.Norm(), 1, eps) {
			t.Fatalf("SunDirection(%v) not unit: %v", angle, dir)
		}
		toSun := CircularPosition(angle, 20).Scale(-1).Normalize()
		if dir.DistanceTo(toSun) > eps {
			t.Fatalf("SunDirection(%v) = %v, want %v", angle, dir, toSun)
		}
	}
}

func TestNodeWorldPosition(t *testing.T) {
	root := NewNode(NodeRoot, "root")
	group := NewNode(NodeGroup, "g")
	group.Transform.Position = Vec3{X: 10}
	root.Add(group)

	body := NewNode(NodeBody, "b")
	body.Transform.Rotation.Y = math.Pi / 2
	body.Transform.Scale = 2
	group.Add(body)

	clouds := NewNode(NodeClouds, "c")
	clouds.Transform.Position = Vec3{X: 1}
	body.Add(clouds)

	// (1,0,0) scaled by 2 and yawed by π/2 lands on (0,0,2), then offset by the group.
	want := Vec3{X: 10, Z: 2}
	if got := clouds.WorldPosition(); got.DistanceTo(want) > eps {
		t.Fatalf("WorldPosition = %v, want %v", got, want)
	}
	if got := clouds.WorldScale(); got != 2 {
		t.Fatalf("WorldScale = %v, want 2", got)
	}
}

func TestNodeAddRemove(t *testing.T) {
	a := NewNode(NodeRoot, "a")
	b := NewNode(NodeRoot, "b")
	n := NewNode(NodeFlare, "f")

	a.Add(n)
	b.Add(n)
	if len(a.Children()) != 0 || n.Parent() != b {
		t.Fatalf("re-parenting did not detach from previous parent")
	}

	b.Add(NewNode(NodeFlare, "g"))
	b.Add(NewNode(NodeBelt, "belt"))
	if got := b.RemoveKind(NodeFlare); got != 2 {
		t.Fatalf("RemoveKind removed %d, want 2", got)
	}
	if len(b.Children()) != 1 || b.Children()[0].Kind != NodeBelt {
		t.Fatalf("unexpected children after RemoveKind: %v", b.Children())
	}
	if n.Parent() != nil {
		t.Fatalf("removed node kept its parent")
	}
}

func TestNodeKindString(t *testing.T) {
	if NodeMoon.String() != "moon" || NodeKind(99).String() != "unknown" {
		t.Fatalf("unexpected kind names: %q %q", NodeMoon, NodeKind(99))
	}
}
