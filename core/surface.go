package core

import (
	"context"

	"github.com/signalsfoundry/orrery-sim/model"
)

// Texture is a resolved image resource.
type Texture struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SurfaceInput is what asset resolution yields: a texture, or the fallback
// colour when the texture could not be loaded. Exactly one is meaningful.
type SurfaceInput struct {
	Texture *Texture
	Color   model.Color
}

// Resolved reports whether a texture, rather than the fallback colour, is
// available.
func (s SurfaceInput) Resolved() bool { return s.Texture != nil }

// AssetResolver turns a texture path into a drawable input. Implementations
// never fail outward: errors become the fallback colour.
type AssetResolver interface {
	Resolve(ctx context.Context, path string, fallback model.Color) SurfaceInput
}

// ColorResolver resolves every path to its fallback colour.
type ColorResolver struct{}

// Resolve implements AssetResolver.
func (ColorResolver) Resolve(_ context.Context, _ string, fallback model.Color) SurfaceInput {
	return SurfaceInput{Color: fallback}
}

// ShadingModel selects how a surface is lit.
type ShadingModel int

const (
	// ShadingStandard is a single texture (or colour) lit by the scene.
	ShadingStandard ShadingModel = iota
	// ShadingDayNight blends a day and a night texture across the
	// terminator defined by SunDirection.
	ShadingDayNight
	// ShadingEmissive is self-lit (the sun).
	ShadingEmissive
	// ShadingTranslucent is used for cloud shells and rings.
	ShadingTranslucent
)

// Surface is the material attached to a drawable node.
type Surface struct {
	Model ShadingModel
	Day   SurfaceInput
	Night SurfaceInput

	// SunDirection is a unit vector from the body toward the sun. It is
	// recomputed by the frame updater for ShadingDayNight surfaces.
	SunDirection Vec3
}
