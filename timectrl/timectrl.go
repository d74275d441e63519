package timectrl

import (
	"context"
	"sync"
	"time"
)

// TimeSource reports wall-clock time. Tests substitute a manual source so
// real-time deltas are deterministic.
type TimeSource interface {
	Now() time.Time
}

type systemSource struct{}

func (systemSource) Now() time.Time { return time.Now() }

// SystemSource is the process wall clock.
var SystemSource TimeSource = systemSource{}

// Mode describes how the FrameClock measures frame deltas.
type Mode int

const (
	// RealTime measures each delta from the TimeSource.
	RealTime Mode = iota
	// Fixed uses Interval as every delta regardless of wall time.
	Fixed
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// ParseMode accepts "realtime" and "fixed".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "realtime", "real-time", "":
		return RealTime, true
	case "fixed":
		return Fixed, true
	default:
		return RealTime, false
	}
}

// Frame is delivered to listeners once per tick.
type Frame struct {
	Index uint64
	// Delta is the animation time, in seconds, covered by this frame.
	Delta float64
	// Elapsed is the sum of all deltas so far.
	Elapsed float64
	// Wall is continuous wall-clock seconds since the clock started. It
	// drives effects that must not depend on the simulated delta.
	Wall float64
}

// FrameClock drives the animation loop and notifies registered listeners.
type FrameClock struct {
	mu       sync.RWMutex
	Interval time.Duration
	Mode     Mode
	// MaxDelta clamps each frame delta in seconds. Zero disables the clamp,
	// so a long pause is replayed as one large jump.
	MaxDelta float64

	source    TimeSource
	started   time.Time
	last      time.Time
	index     uint64
	elapsed   float64
	wall      float64
	listeners []func(Frame)
}

// Option customises a FrameClock.
type Option func(*FrameClock)

// WithTimeSource replaces the wall clock.
func WithTimeSource(src TimeSource) Option {
	return func(c *FrameClock) { c.source = src }
}

// WithMaxDelta enables the per-frame clamp.
func WithMaxDelta(seconds float64) Option {
	return func(c *FrameClock) { c.MaxDelta = seconds }
}

// NewFrameClock constructs a clock ticking every interval.
func NewFrameClock(interval time.Duration, mode Mode, opts ...Option) *FrameClock {
	c := &FrameClock{
		Interval: interval,
		Mode:     mode,
		source:   SystemSource,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.started = c.source.Now()
	c.last = c.started
	return c
}

// AddListener registers a callback invoked on every frame, in registration
// order, from the goroutine calling Step.
func (c *FrameClock) AddListener(fn func(Frame)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Elapsed returns the accumulated animation time in seconds.
func (c *FrameClock) Elapsed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// Index returns the number of frames produced so far.
func (c *FrameClock) Index() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Reset restarts wall and delta measurement from now without touching the
// accumulated elapsed time. Use it after a deliberate pause.
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.source.Now()
}

// Step produces one frame and notifies listeners synchronously.
func (c *FrameClock) Step() Frame {
	c.mu.Lock()
	now := c.source.Now()

	var delta float64
	switch c.Mode {
	case Fixed:
		delta = c.Interval.Seconds()
		c.wall += delta
	default:
		delta = now.Sub(c.last).Seconds()
		if delta < 0 {
			delta = 0
		}
		c.wall = now.Sub(c.started).Seconds()
	}
	c.last = now

	if c.MaxDelta > 0 && delta > c.MaxDelta {
		delta = c.MaxDelta
	}

	c.index++
	c.elapsed += delta
	frame := Frame{Index: c.index, Delta: delta, Elapsed: c.elapsed, Wall: c.wall}
	listeners := append([]func(Frame){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(frame)
	}
	return frame
}

// Start runs the clock in a separate goroutine until ctx is cancelled or,
// when duration is positive, until that much animation time has elapsed.
// It returns a channel that is closed when the clock stops.
func (c *FrameClock) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		c.Reset()
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()

		// Summed float deltas drift below exact multiples of Interval.
		limit := duration.Seconds() - 1e-9
		for {
			if duration > 0 && c.Elapsed() >= limit {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Step()
			}
		}
	}()
	return done
}
