// Package params holds the live, externally mutated configuration the frame
// loop reads on every tick.
package params

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxRotationSpeed bounds RotationSpeedMultiplier.
	MaxRotationSpeed = 10.0
	// MaxAsteroidCount bounds AsteroidCount; the belt is regenerated in full
	// on every change.
	MaxAsteroidCount = 100000
)

var (
	// ErrOutOfRange indicates a setter received a value outside its domain.
	ErrOutOfRange = errors.New("parameter out of range")
	// ErrUnknownField indicates a change was requested for a field that does not exist.
	ErrUnknownField = errors.New("unknown parameter field")
	// ErrWrongType indicates a value of the wrong kind for its field.
	ErrWrongType = errors.New("wrong parameter type")
)

// Field names a single GlobalParameters field. Each field has exactly one
// setter on Store.
type Field string

const (
	FieldRotationSpeed      Field = "rotationSpeedMultiplier"
	FieldSizeScale          Field = "sizeScale"
	FieldAsteroidCount      Field = "asteroidCount"
	FieldFlareSpawnInterval Field = "flareSpawnIntervalSeconds"
	FieldSelectedBody       Field = "selectedBody"
	FieldAsteroidRebuild    Field = "asteroidRebuildSeq"
)

// GlobalParameters is the explicit configuration object handed to the frame
// updater and the ephemeral generators. Fields carry no cross-field rules.
type GlobalParameters struct {
	RotationSpeedMultiplier   float64 `json:"rotationSpeedMultiplier" mapstructure:"rotationSpeedMultiplier"`
	SizeScale                 float64 `json:"sizeScale" mapstructure:"sizeScale"`
	AsteroidCount             int     `json:"asteroidCount" mapstructure:"asteroidCount"`
	FlareSpawnIntervalSeconds float64 `json:"flareSpawnIntervalSeconds" mapstructure:"flareSpawnIntervalSeconds"`
	SelectedBody              string  `json:"selectedBody,omitempty" mapstructure:"selectedBody"`

	// AsteroidRebuildSeq is bumped by explicit rebuild requests so the frame
	// loop can regenerate the belt without a count change.
	AsteroidRebuildSeq uint64 `json:"asteroidRebuildSeq" mapstructure:"-"`
}

// Defaults returns the startup parameters.
func Defaults() GlobalParameters {
	return GlobalParameters{
		RotationSpeedMultiplier:   1,
		SizeScale:                 1,
		AsteroidCount:             1000,
		FlareSpawnIntervalSeconds: 10,
	}
}

// HasSelection reports whether a body is currently selected.
func (p GlobalParameters) HasSelection() bool {
	return p.SelectedBody != ""
}

// Validate checks every field against its domain.
func (p GlobalParameters) Validate() error {
	if err := checkRotationSpeed(p.RotationSpeedMultiplier); err != nil {
		return err
	}
	if err := checkSizeScale(p.SizeScale); err != nil {
		return err
	}
	if err := checkAsteroidCount(p.AsteroidCount); err != nil {
		return err
	}
	return checkFlareInterval(p.FlareSpawnIntervalSeconds)
}

func checkRotationSpeed(v float64) error {
	if math.IsNaN(v) || v < 0 || v > MaxRotationSpeed {
		return fmt.Errorf("%w: %s=%v, want [0, %v]", ErrOutOfRange, FieldRotationSpeed, v, MaxRotationSpeed)
	}
	return nil
}

func checkSizeScale(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s=%v, want > 0", ErrOutOfRange, FieldSizeScale, v)
	}
	return nil
}

func checkAsteroidCount(v int) error {
	if v < 0 || v > MaxAsteroidCount {
		return fmt.Errorf("%w: %s=%d, want [0, %d]", ErrOutOfRange, FieldAsteroidCount, v, MaxAsteroidCount)
	}
	return nil
}

func checkFlareInterval(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s=%v, want > 0", ErrOutOfRange, FieldFlareSpawnInterval, v)
	}
	return nil
}
