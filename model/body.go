package model

import "fmt"

// Color is a packed 0xRRGGBB value used wherever a texture could not be
// resolved.
type Color uint32

// RGB returns the individual channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Hex renders the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// SatelliteSpec describes a moon. OrbitRadius is measured from the parent
// body's centre.
type SatelliteSpec struct {
	Name        string  `json:"name,omitempty" mapstructure:"name"`
	Size        float64 `json:"size" mapstructure:"size"`
	OrbitRadius float64 `json:"orbitRadius" mapstructure:"orbitRadius"`
}

// BodyDescriptor is the static, declarative input for one simulated body.
// Exactly one descriptor exists per body; the slice order is the identity
// callers rely on when they look bodies up by index.
type BodyDescriptor struct {
	Name        string          `json:"name" mapstructure:"name"`
	Size        float64         `json:"size" mapstructure:"size"`
	OrbitRadius float64         `json:"orbitRadius" mapstructure:"orbitRadius"`
	Satellites  []SatelliteSpec `json:"satellites,omitempty" mapstructure:"satellites"`

	// SingleDefaultSatellite materialises DefaultSatellite(Size) when
	// Satellites is empty.
	SingleDefaultSatellite bool `json:"singleDefaultSatellite,omitempty" mapstructure:"singleDefaultSatellite"`

	HasRings              bool `json:"hasRings,omitempty" mapstructure:"hasRings"`
	HasClouds             bool `json:"hasClouds,omitempty" mapstructure:"hasClouds"`
	IsPrimaryWithDayNight bool `json:"isPrimaryWithDayNight,omitempty" mapstructure:"isPrimaryWithDayNight"`
	Emissive              bool `json:"emissive,omitempty" mapstructure:"emissive"`

	Texture      string `json:"texture,omitempty" mapstructure:"texture"`
	NightTexture string `json:"nightTexture,omitempty" mapstructure:"nightTexture"`
	RingTexture  string `json:"ringTexture,omitempty" mapstructure:"ringTexture"`
	CloudTexture string `json:"cloudTexture,omitempty" mapstructure:"cloudTexture"`
	Color        Color  `json:"color" mapstructure:"color"`
}

// DefaultSatellite is the moon used for bodies flagged with
// SingleDefaultSatellite.
func DefaultSatellite(bodySize float64) SatelliteSpec {
	return SatelliteSpec{
		Name:        "moon",
		Size:        0.27 * bodySize,
		OrbitRadius: 2.5 * bodySize,
	}
}

// SatelliteSpecs returns the satellites that should be materialised for d.
func (d BodyDescriptor) SatelliteSpecs() []SatelliteSpec {
	if len(d.Satellites) > 0 {
		return d.Satellites
	}
	if d.SingleDefaultSatellite {
		return []SatelliteSpec{DefaultSatellite(d.Size)}
	}
	return nil
}
