package params

import (
	"fmt"
	"math"
	"sync"
)

// Change is emitted to subscribers after a setter succeeds.
type Change struct {
	Field  Field
	Params GlobalParameters
}

// Store is the process-wide live parameter store. Writers are the UI and
// control handlers (one handler per field); the frame loop reads a Snapshot
// once per tick.
type Store struct {
	mu sync.RWMutex

	current GlobalParameters

	subs   map[int]func(Change)
	nextID int
}

// NewStore constructs a store seeded with initial, which must validate.
func NewStore(initial GlobalParameters) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("initial parameters: %w", err)
	}
	return &Store{
		current: initial,
		subs:    make(map[int]func(Change)),
	}, nil
}

// Snapshot returns a copy of the current parameters.
func (s *Store) Snapshot() GlobalParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetRotationSpeed sets the global rotation-speed multiplier.
func (s *Store) SetRotationSpeed(v float64) error {
	if err := checkRotationSpeed(v); err != nil {
		return err
	}
	return s.update(FieldRotationSpeed, func(p *GlobalParameters) { p.RotationSpeedMultiplier = v })
}

// SetSizeScale sets the uniform scale applied to body meshes.
func (s *Store) SetSizeScale(v float64) error {
	if err := checkSizeScale(v); err != nil {
		return err
	}
	return s.update(FieldSizeScale, func(p *GlobalParameters) { p.SizeScale = v })
}

// SetAsteroidCount sets the belt population. The frame loop rebuilds the
// belt when it observes a new count.
func (s *Store) SetAsteroidCount(v int) error {
	if err := checkAsteroidCount(v); err != nil {
		return err
	}
	return s.update(FieldAsteroidCount, func(p *GlobalParameters) { p.AsteroidCount = v })
}

// SetFlareSpawnInterval sets the mean seconds between flare spawns.
func (s *Store) SetFlareSpawnInterval(v float64) error {
	if err := checkFlareInterval(v); err != nil {
		return err
	}
	return s.update(FieldFlareSpawnInterval, func(p *GlobalParameters) { p.FlareSpawnIntervalSeconds = v })
}

// SelectBody records the body driving the close-up view. Name validation is
// the caller's job; the store does not know the scene.
func (s *Store) SelectBody(name string) error {
	return s.update(FieldSelectedBody, func(p *GlobalParameters) { p.SelectedBody = name })
}

// ClearSelection drops the selected body.
func (s *Store) ClearSelection() error {
	return s.SelectBody("")
}

// RequestAsteroidRebuild asks the frame loop to regenerate the belt at the
// current count.
func (s *Store) RequestAsteroidRebuild() error {
	return s.update(FieldAsteroidRebuild, func(p *GlobalParameters) { p.AsteroidRebuildSeq++ })
}

// Set applies value to the named field. Numeric fields accept any Go number;
// JSON decoding yields float64.
func (s *Store) Set(field Field, value any) error {
	switch field {
	case FieldRotationSpeed:
		v, err := toFloat(field, value)
		if err != nil {
			return err
		}
		return s.SetRotationSpeed(v)
	case FieldSizeScale:
		v, err := toFloat(field, value)
		if err != nil {
			return err
		}
		return s.SetSizeScale(v)
	case FieldAsteroidCount:
		v, err := toFloat(field, value)
		if err != nil {
			return err
		}
		if v != math.Trunc(v) || v > math.MaxInt32 {
			return fmt.Errorf("%w: %s=%v, want a whole number", ErrOutOfRange, field, v)
		}
		return s.SetAsteroidCount(int(v))
	case FieldFlareSpawnInterval:
		v, err := toFloat(field, value)
		if err != nil {
			return err
		}
		return s.SetFlareSpawnInterval(v)
	case FieldSelectedBody:
		name, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants a string, got %T", ErrWrongType, field, value)
		}
		return s.SelectBody(name)
	case FieldAsteroidRebuild:
		return s.RequestAsteroidRebuild()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func toFloat(field Field, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s wants a number, got %T", ErrWrongType, field, value)
	}
}

func (s *Store) update(field Field, mutate func(*GlobalParameters)) error {
	s.mu.Lock()
	mutate(&s.current)
	change := Change{Field: field, Params: s.current}
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so subscribers may read the store.
	for _, fn := range subs {
		fn(change)
	}
	return nil
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
