package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/signalsfoundry/orrery-sim/core"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
)

// SnapshotSource yields the latest published scene snapshot.
type SnapshotSource interface {
	Latest() *core.SceneSnapshot
}

// UI runs the terminal front-end: it redraws the latest snapshot at a fixed
// rate and forwards key presses to the Controller. It never touches the
// scene directly.
type UI struct {
	screen     tcell.Screen
	renderer   *Renderer
	controller *Controller
	snapshots  SnapshotSource
	interval   time.Duration
	log        logging.Logger
}

// NewUI wires a UI. screen must already be initialised.
func NewUI(screen tcell.Screen, snapshots SnapshotSource, controller *Controller, interval time.Duration, log logging.Logger) *UI {
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &UI{
		screen:     screen,
		renderer:   NewRenderer(screen),
		controller: controller,
		snapshots:  snapshots,
		interval:   interval,
		log:        logging.OrNoop(log),
	}
}

// Renderer exposes the renderer for tuning.
func (u *UI) Renderer() *Renderer { return u.renderer }

// Run blocks until ctx is cancelled or the user quits. It does not call
// Fini on the screen.
func (u *UI) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.renderer.Draw(u.snapshots.Latest())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if u.controller.HandleKey(ctx, ev) == ActionQuit {
					u.log.Info(ctx, "quit requested from terminal")
					return nil
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
		case <-ticker.C:
			u.renderer.Draw(u.snapshots.Latest())
		}
	}
}
