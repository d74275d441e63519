package core

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/signalsfoundry/orrery-sim/model"
	"github.com/signalsfoundry/orrery-sim/params"
)

const eps = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// eightPlanets is the reference scenario: eight bodies on orbits
// 10,15,20,25,45,60,75,90.
func eightPlanets() []model.BodyDescriptor {
	radii := []float64{10, 15, 20, 25, 45, 60, 75, 90}
	out := make([]model.BodyDescriptor, 0, len(radii))
	for i, r := range radii {
		out = append(out, model.BodyDescriptor{
			Name:        []string{"Mercury", "Venus", "Earth", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune"}[i],
			Size:        0.5 + float64(i)*0.25,
			OrbitRadius: r,
			Color:       0x808080,
		})
	}
	return out
}

func buildStates(t *testing.T, seed int64, descriptors []model.BodyDescriptor) []*BodyState {
	t.Helper()
	b := NewBuilder(seededRand(seed), nil, DefaultRates(), nil)
	return b.Build(context.Background(), descriptors)
}

func defaultParams() *params.GlobalParameters {
	p := params.Defaults()
	return &p
}

// recordingResolver resolves paths listed in available and records every
// request. It is safe for concurrent use.
type recordingResolver struct {
	mu        sync.Mutex
	available map[string]bool
	requests  []string
}

func (r *recordingResolver) Resolve(_ context.Context, path string, fallback model.Color) SurfaceInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, path)
	if r.available[path] {
		return SurfaceInput{Texture: &Texture{Path: path, Width: 64, Height: 32}}
	}
	return SurfaceInput{Color: fallback}
}
