package core

import "math"

// Rates are the fixed constants of the linear angular-rate model. Bodies
// share one orbital rate and differ only in orbit radius; spin rates are
// inversely proportional to size.
type Rates struct {
	// OrbitRate is the base angular rate, rad/s, shared by all bodies.
	OrbitRate float64 `mapstructure:"orbitRate"`
	// BodySpinK gives spinRateBase = BodySpinK / size.
	BodySpinK float64 `mapstructure:"bodySpinK"`
	// SatelliteSpinK gives a satellite's spinRate = SatelliteSpinK / size.
	SatelliteSpinK float64 `mapstructure:"satelliteSpinK"`
	// BeltRate is the rigid rotation rate of the asteroid field, rad/s.
	BeltRate float64 `mapstructure:"beltRate"`
}

// DefaultRates returns the stock animation constants.
func DefaultRates() Rates {
	return Rates{
		OrbitRate:      0.1,
		BodySpinK:      0.5,
		SatelliteSpinK: 0.2,
		BeltRate:       0.02,
	}
}

// SpinRate is k / size. A non-positive size is not validated here.
func SpinRate(k, size float64) float64 {
	return k / size
}

// CircularPosition places a point on a coplanar circle of the given radius.
func CircularPosition(angle, radius float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{X: cos * radius, Y: 0, Z: sin * radius}
}

// sunReference points from a body at orbit angle 0 toward the origin.
var sunReference = Vec3{X: -1, Y: 0, Z: 0}

// SunDirection derives the sun-facing unit vector from orbital phase alone.
// It is not true illumination geometry; it only has to turn the terminator
// as the body orbits.
func SunDirection(orbitAngle float64) Vec3 {
	return sunReference.RotateY(orbitAngle).Normalize()
}

// randomAngle draws a phase uniformly from [0, 2π).
func randomAngle(rng interface{ Float64() float64 }) float64 {
	return rng.Float64() * TwoPi
}
