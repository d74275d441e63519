package core

import (
	"context"
	"testing"

	"github.com/signalsfoundry/orrery-sim/model"
)

func TestBuildPreservesOrderAndPlacement(t *testing.T) {
	descriptors := eightPlanets()
	states := buildStates(t, 1, descriptors)

	if len(states) != len(descriptors) {
		t.Fatalf("Build returned %d states, want %d", len(states), len(descriptors))
	}
	for i, s := range states {
		d := descriptors[i]
		if s.Name() != d.Name || s.Index != i {
			t.Fatalf("state %d = %q (index %d), want %q", i, s.Name(), s.Index, d.Name)
		}
		if s.Group.Transform.Position != (Vec3{X: d.OrbitRadius}) {
			t.Fatalf("%s group at %v, want (%v,0,0)", d.Name, s.Group.Transform.Position, d.OrbitRadius)
		}
		if s.OrbitAngle < 0 || s.OrbitAngle >= TwoPi {
			t.Fatalf("%s initial orbit angle %v outside [0, 2π)", d.Name, s.OrbitAngle)
		}
		if s.Body.Parent() != s.Group {
			t.Fatalf("%s body node not parented to its group", d.Name)
		}
		if want := DefaultRates().BodySpinK / d.Size; s.SpinRateBase != want {
			t.Fatalf("%s spin rate %v, want %v", d.Name, s.SpinRateBase, want)
		}
	}
}

func TestBuildIsReproducibleWithSeed(t *testing.T) {
	a := buildStates(t, 42, model.SolarSystem())
	b := buildStates(t, 42, model.SolarSystem())
	c := buildStates(t, 43, model.SolarSystem())

	differs := false
	for i := range a {
		if a[i].OrbitAngle != b[i].OrbitAngle {
			t.Fatalf("body %d angle differs across identical seeds: %v vs %v", i, a[i].OrbitAngle, b[i].OrbitAngle)
		}
		for j := range a[i].Satellites {
			if a[i].Satellites[j].OrbitAngle != b[i].Satellites[j].OrbitAngle {
				t.Fatalf("body %d satellite %d angle differs across identical seeds", i, j)
			}
		}
		if a[i].OrbitAngle != c[i].OrbitAngle {
			differs = true
		}
	}
	if !differs {
		t.Fatalf("different seeds produced identical initial phases")
	}
}

func TestBuildPhasesAreIndependent(t *testing.T) {
	states := buildStates(t, 7, eightPlanets())
	seen := make(map[float64]bool)
	for _, s := range states {
		if seen[s.OrbitAngle] {
			t.Fatalf("two bodies share initial phase %v", s.OrbitAngle)
		}
		seen[s.OrbitAngle] = true
	}
}

func TestBuildSurfaces(t *testing.T) {
	states := buildStates(t, 3, model.SolarSystem())

	sun := LookupByName(states, "Sun")
	earth := LookupByName(states, "Earth")
	mars := LookupByName(states, "Mars")
	if sun == nil || earth == nil || mars == nil {
		t.Fatalf("LookupByName failed for default bodies")
	}

	if sun.Surface.Model != ShadingEmissive {
		t.Fatalf("sun shading = %v, want emissive", sun.Surface.Model)
	}
	if !earth.HasDayNight() {
		t.Fatalf("earth should carry day/night shading")
	}
	if got := earth.Surface.SunDirection.Norm(); !approxEqual(got, 1, eps) {
		t.Fatalf("earth sun direction not unit: %v", earth.Surface.SunDirection)
	}
	if mars.HasDayNight() || mars.Surface.Model != ShadingStandard {
		t.Fatalf("mars shading = %v, want standard", mars.Surface.Model)
	}

	dayNight := 0
	for _, s := range states {
		if s.HasDayNight() {
			dayNight++
		}
	}
	if dayNight != 1 {
		t.Fatalf("%d bodies with day/night shading, want 1", dayNight)
	}
}

func TestBuildRingsAndClouds(t *testing.T) {
	states := buildStates(t, 5, []model.BodyDescriptor{
		{Name: "ringed", Size: 2, OrbitRadius: 60, HasRings: true},
		{Name: "cloudy", Size: 1, OrbitRadius: 20, HasClouds: true},
		{Name: "bare", Size: 1, OrbitRadius: 30},
	})

	ringed := states[0]
	if ringed.Ring == nil {
		t.Fatalf("ring not attached")
	}
	if ringed.Ring.Kind != NodeRing || ringed.Ring.Parent() != ringed.Group {
		t.Fatalf("ring node kind %v parent %v", ringed.Ring.Kind, ringed.Ring.Parent())
	}
	if ringed.Ring.InnerRadius != 2.4 || ringed.Ring.OuterRadius != 4 {
		t.Fatalf("ring annulus [%v, %v], want [2.4, 4]", ringed.Ring.InnerRadius, ringed.Ring.OuterRadius)
	}
	if ringed.Clouds != nil {
		t.Fatalf("unexpected clouds on ringed body")
	}

	cloudy := states[1]
	if cloudy.Clouds == nil || cloudy.Clouds.Parent() != cloudy.Body {
		t.Fatalf("cloud shell not attached to the body node")
	}
	if cloudy.Clouds.Radius <= cloudy.Body.Radius || cloudy.Clouds.Opacity >= 1 {
		t.Fatalf("cloud shell radius %v opacity %v", cloudy.Clouds.Radius, cloudy.Clouds.Opacity)
	}

	bare := states[2]
	if bare.Ring != nil || bare.Clouds != nil || len(bare.Group.ChildrenOf(NodeRing)) != 0 {
		t.Fatalf("bare body got decorative sub-nodes")
	}
}

func TestBuildSatellites(t *testing.T) {
	states := buildStates(t, 9, []model.BodyDescriptor{
		{Name: "host", Size: 3, OrbitRadius: 45, Satellites: []model.SatelliteSpec{
			{Name: "small", Size: 0.28, OrbitRadius: 4},
			{Name: "large", Size: 0.41, OrbitRadius: 6},
		}},
		{Name: "default", Size: 1, OrbitRadius: 20, SingleDefaultSatellite: true},
		{Name: "none", Size: 1, OrbitRadius: 25},
	})

	host := states[0]
	if len(host.Satellites) != 2 {
		t.Fatalf("host has %d satellites, want 2", len(host.Satellites))
	}
	if got := host.Group.ChildrenOf(NodeMoon); len(got) != 2 {
		t.Fatalf("host group has %d moon nodes, want 2", len(got))
	}
	for _, m := range host.Satellites {
		if want := DefaultRates().SatelliteSpinK / m.Spec.Size; m.SpinRate != want {
			t.Fatalf("%s spin rate %v, want %v", m.Spec.Name, m.SpinRate, want)
		}
		pos := m.Node.Transform.Position
		if !approxEqual(pos.Norm(), m.OrbitRadius, eps) {
			t.Fatalf("%s placed at distance %v, want %v", m.Spec.Name, pos.Norm(), m.OrbitRadius)
		}
	}
	if host.Satellites[0].SpinRate <= host.Satellites[1].SpinRate {
		t.Fatalf("smaller satellite should spin faster: %v <= %v", host.Satellites[0].SpinRate, host.Satellites[1].SpinRate)
	}
	if host.Satellites[0].OrbitAngle == host.Satellites[1].OrbitAngle {
		t.Fatalf("satellite phases should be drawn independently")
	}

	def := states[1]
	if len(def.Satellites) != 1 || def.Satellites[0].Spec != model.DefaultSatellite(1) {
		t.Fatalf("default satellite = %+v", def.Satellites)
	}

	if len(states[2].Satellites) != 0 {
		t.Fatalf("body without satellites got %d", len(states[2].Satellites))
	}
}

func TestBuildResolvesTexturesWithFallback(t *testing.T) {
	resolver := &recordingResolver{available: map[string]bool{
		"earth_day.jpg": true,
		"clouds.png":    true,
	}}
	descriptors := []model.BodyDescriptor{
		{
			Name: "Earth", Size: 1, OrbitRadius: 20,
			IsPrimaryWithDayNight: true, HasClouds: true,
			Texture: "earth_day.jpg", NightTexture: "missing_night.jpg", CloudTexture: "clouds.png",
			Color: 0x2e86ab,
		},
		{Name: "Plain", Size: 1, OrbitRadius: 30, Color: 0x112233},
	}

	b := NewBuilder(seededRand(1), resolver, DefaultRates(), nil)
	states := b.Build(context.Background(), descriptors)

	earth := states[0]
	if !earth.Surface.Day.Resolved() || earth.Surface.Day.Texture.Path != "earth_day.jpg" {
		t.Fatalf("day texture not resolved: %+v", earth.Surface.Day)
	}
	if earth.Surface.Night.Resolved() {
		t.Fatalf("missing night texture should fall back to colour")
	}
	if earth.Surface.Night.Color == 0 {
		t.Fatalf("night fallback colour not set")
	}
	if !earth.Clouds.Surface.Day.Resolved() {
		t.Fatalf("cloud texture not resolved")
	}

	plain := states[1]
	if plain.Surface.Day.Resolved() || plain.Surface.Day.Color != 0x112233 {
		t.Fatalf("plain body surface = %+v, want fallback colour", plain.Surface.Day)
	}

	resolver.mu.Lock()
	defer resolver.mu.Unlock()
	if len(resolver.requests) != 3 {
		t.Fatalf("resolver saw %d requests, want 3 (empty paths skip resolution): %v", len(resolver.requests), resolver.requests)
	}
}

func TestBuildDoesNotValidateSizes(t *testing.T) {
	states := buildStates(t, 1, []model.BodyDescriptor{{Name: "degenerate", Size: 0, OrbitRadius: 5}})
	if len(states) != 1 {
		t.Fatalf("degenerate descriptor should still produce a state")
	}
}
