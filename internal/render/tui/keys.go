package tui

import (
	"context"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/signalsfoundry/orrery-sim/internal/logging"
	"github.com/signalsfoundry/orrery-sim/params"
)

// Step sizes for keyboard adjustments.
const (
	SpeedStep         = 0.25
	ScaleStep         = 0.1
	MinScale          = 0.1
	AsteroidStep      = 250
	FlareIntervalStep = 1.0
	MinFlareInterval  = 0.5
)

// Action is the outcome of a key press.
type Action int

const (
	ActionNone Action = iota
	ActionChanged
	ActionQuit
)

// Controller turns key presses into parameter store writes. It is the
// keyboard counterpart of the HTTP control surface.
type Controller struct {
	store  *params.Store
	bodies []string
	log    logging.Logger
}

// NewController binds keys to store for the given body names, in cycling
// order.
func NewController(store *params.Store, bodies []string, log logging.Logger) *Controller {
	return &Controller{store: store, bodies: bodies, log: logging.OrNoop(log)}
}

// HandleKey applies the binding for ev, if any.
func (c *Controller) HandleKey(ctx context.Context, ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyEscape:
		return c.apply(ctx, params.FieldSelectedBody, c.store.ClearSelection())
	case tcell.KeyTab:
		return c.apply(ctx, params.FieldSelectedBody, c.store.SelectBody(c.nextBody()))
	case tcell.KeyBacktab:
		return c.apply(ctx, params.FieldSelectedBody, c.store.SelectBody(c.prevBody()))
	case tcell.KeyRune:
	default:
		return ActionNone
	}

	p := c.store.Snapshot()
	switch ev.Rune() {
	case 'q':
		return ActionQuit
	case '+', '=':
		v := math.Min(p.RotationSpeedMultiplier+SpeedStep, params.MaxRotationSpeed)
		return c.apply(ctx, params.FieldRotationSpeed, c.store.SetRotationSpeed(v))
	case '-', '_':
		v := math.Max(p.RotationSpeedMultiplier-SpeedStep, 0)
		return c.apply(ctx, params.FieldRotationSpeed, c.store.SetRotationSpeed(v))
	case ']':
		return c.apply(ctx, params.FieldSizeScale, c.store.SetSizeScale(p.SizeScale+ScaleStep))
	case '[':
		v := math.Max(p.SizeScale-ScaleStep, MinScale)
		return c.apply(ctx, params.FieldSizeScale, c.store.SetSizeScale(v))
	case 'A':
		return c.apply(ctx, params.FieldAsteroidCount, c.store.SetAsteroidCount(p.AsteroidCount+AsteroidStep))
	case 'a':
		v := max(p.AsteroidCount-AsteroidStep, 0)
		return c.apply(ctx, params.FieldAsteroidCount, c.store.SetAsteroidCount(v))
	case 'r':
		return c.apply(ctx, params.FieldAsteroidRebuild, c.store.RequestAsteroidRebuild())
	case 'f':
		v := math.Max(p.FlareSpawnIntervalSeconds-FlareIntervalStep, MinFlareInterval)
		return c.apply(ctx, params.FieldFlareSpawnInterval, c.store.SetFlareSpawnInterval(v))
	case 'F':
		return c.apply(ctx, params.FieldFlareSpawnInterval, c.store.SetFlareSpawnInterval(p.FlareSpawnIntervalSeconds+FlareIntervalStep))
	}
	return ActionNone
}

func (c *Controller) apply(ctx context.Context, field params.Field, err error) Action {
	if err != nil {
		c.log.Warn(ctx, "key binding rejected", logging.String("field", string(field)), logging.Err(err))
		return ActionNone
	}
	return ActionChanged
}

func (c *Controller) indexOfSelection() int {
	sel := c.store.Snapshot().SelectedBody
	for i, name := range c.bodies {
		if name == sel {
			return i
		}
	}
	return -1
}

func (c *Controller) nextBody() string {
	if len(c.bodies) == 0 {
		return ""
	}
	return c.bodies[(c.indexOfSelection()+1)%len(c.bodies)]
}

func (c *Controller) prevBody() string {
	if len(c.bodies) == 0 {
		return ""
	}
	i := c.indexOfSelection()
	if i <= 0 {
		return c.bodies[len(c.bodies)-1]
	}
	return c.bodies[i-1]
}
