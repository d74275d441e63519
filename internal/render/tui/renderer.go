// Package tui renders scene snapshots to a terminal as a top-down view and
// binds keys to the live parameter store.
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/signalsfoundry/orrery-sim/core"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2.0

const (
	glyphSun      = '@'
	glyphMoon     = 'o'
	glyphRing     = '-'
	glyphAsteroid = '.'
	glyphFlare    = '*'
	glyphOrbit    = '·'
)

var (
	styleDefault  = tcell.StyleDefault
	styleOrbit    = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleAsteroid = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	stylePanel    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
)

// Renderer draws snapshots onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
	// Extent is the world radius mapped to the shorter screen half-axis.
	// Zero fits the outermost orbit.
	Extent float64
	// ShowOrbits draws each body's orbit path.
	ShowOrbits bool
}

// NewRenderer returns a renderer for screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen, ShowOrbits: true}
}

// projection maps world x/z onto screen cells.
type projection struct {
	cx, cy float64
	scale  float64
	w, h   int
}

func (p projection) cell(v core.Vec3) (int, int, bool) {
	x := int(math.Round(p.cx + v.X*p.scale*cellAspect))
	y := int(math.Round(p.cy + v.Z*p.scale))
	return x, y, x >= 0 && y >= 0 && x < p.w && y < p.h
}

func (r *Renderer) project(snap *core.SceneSnapshot, w, h int) projection {
	extent := r.Extent
	if extent <= 0 {
		for _, b := range snap.Bodies {
			extent = math.Max(extent, b.OrbitRadius+b.Radius)
		}
		extent = math.Max(extent, snap.Belt.OuterRadius)
		extent *= 1.05
	}
	if extent <= 0 {
		extent = 1
	}
	// Leave the last row for the status bar.
	usableH := float64(h-1) / 2
	usableW := float64(w) / 2 / cellAspect
	return projection{
		cx:    float64(w) / 2,
		cy:    float64(h-1) / 2,
		scale: math.Min(usableH, usableW) / extent,
		w:     w,
		h:     h - 1,
	}
}

// Draw renders snap and shows the frame. A nil snapshot draws only the
// status bar.
func (r *Renderer) Draw(snap *core.SceneSnapshot) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w <= 0 || h <= 1 {
		return
	}
	if snap == nil {
		r.text(0, h-1, w, "waiting for first frame", styleStatus)
		r.screen.Show()
		return
	}

	proj := r.project(snap, w, h)
	if r.ShowOrbits {
		for _, b := range snap.Bodies {
			r.circle(proj, b.OrbitRadius, glyphOrbit, styleOrbit)
		}
	}
	r.drawBelt(proj, snap.Belt)
	for _, b := range snap.Bodies {
		r.drawBody(proj, b)
	}
	for _, f := range snap.Flares {
		r.drawFlare(proj, f)
	}
	if snap.Selected != nil {
		r.drawPanel(snap, w, h)
	}
	r.drawStatus(snap, w, h)
	r.screen.Show()
}

func (r *Renderer) circle(proj projection, radius float64, glyph rune, style tcell.Style) {
	if radius <= 0 {
		return
	}
	steps := int(math.Max(16, radius*proj.scale*cellAspect*4))
	for i := range steps {
		a := core.TwoPi * float64(i) / float64(steps)
		if x, y, ok := proj.cell(core.CircularPosition(a, radius)); ok {
			r.screen.SetContent(x, y, glyph, nil, style)
		}
	}
}

func (r *Renderer) drawBelt(proj projection, belt core.BeltSnapshot) {
	if belt.Count == 0 {
		return
	}
	if len(belt.Positions) > 0 {
		for _, p := range belt.Positions {
			if x, y, ok := proj.cell(p); ok {
				r.screen.SetContent(x, y, glyphAsteroid, nil, styleAsteroid)
			}
		}
		return
	}
	// Without positions, shade the band uniformly; density follows count.
	bands := min(1+belt.Count/500, 4)
	for i := range bands {
		t := (float64(i) + 0.5) / float64(bands)
		r.circle(proj, belt.InnerRadius+t*(belt.OuterRadius-belt.InnerRadius), glyphAsteroid, styleAsteroid)
	}
}

func (r *Renderer) drawBody(proj projection, b core.BodySnapshot) {
	style := styleDefault.Foreground(hexColor(b.Color))
	if b.Ring != nil {
		for _, rad := range []float64{b.Ring.Inner, b.Ring.Outer} {
			for _, dx := range []float64{-rad, rad} {
				if x, y, ok := proj.cell(b.Position.Add(core.Vec3{X: dx})); ok {
					r.screen.SetContent(x, y, glyphRing, nil, style)
				}
			}
		}
	}
	for _, m := range b.Satellites {
		if x, y, ok := proj.cell(m.Position); ok {
			r.screen.SetContent(x, y, glyphMoon, nil, styleDefault.Foreground(tcell.ColorLightGray))
		}
	}
	x, y, ok := proj.cell(b.Position)
	if !ok {
		return
	}
	glyph := glyphSun
	if !b.Emissive && b.Name != "" {
		glyph = []rune(b.Name)[0]
	}
	if b.Emissive {
		style = style.Bold(true)
	}
	r.screen.SetContent(x, y, glyph, nil, style)
}

func (r *Renderer) drawFlare(proj projection, f core.FlareSnapshot) {
	x, y, ok := proj.cell(f.Tip)
	if !ok {
		return
	}
	level := int32(80 + 175*math.Max(0, math.Min(1, f.Opacity/0.8)))
	style := styleDefault.Foreground(tcell.NewRGBColor(level, level*3/5, 0))
	r.screen.SetContent(x, y, glyphFlare, nil, style)
}

func (r *Renderer) drawPanel(snap *core.SceneSnapshot, w, h int) {
	sel := snap.Selected
	var body *core.BodySnapshot
	for i := range snap.Bodies {
		if snap.Bodies[i].Name == sel.Body {
			body = &snap.Bodies[i]
			break
		}
	}
	if body == nil {
		return
	}

	lines := []string{
		" " + body.Name,
		fmt.Sprintf(" orbit  r=%.1f  a=%.2f", body.OrbitRadius, math.Mod(body.OrbitAngle, core.TwoPi)),
		fmt.Sprintf(" radius %.2f", body.Radius),
		fmt.Sprintf(" at (%.1f, %.1f)", sel.Target.X, sel.Target.Z),
		fmt.Sprintf(" view   %.1f", sel.Distance),
		fmt.Sprintf(" moons  %d", len(body.Satellites)),
	}
	if body.Ring != nil {
		lines = append(lines, fmt.Sprintf(" ring   %.1f-%.1f", body.Ring.Inner, body.Ring.Outer))
	}
	if body.SunDirection != nil {
		lines = append(lines, " day/night")
	}

	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l))+1)
	}
	x0 := max(w-width, 0)
	for i, l := range lines {
		if i >= h-1 {
			break
		}
		r.text(x0, i, width, l, stylePanel)
	}
}

func (r *Renderer) drawStatus(snap *core.SceneSnapshot, w, h int) {
	p := snap.Params
	line := fmt.Sprintf(" speed %.2fx  scale %.1f  asteroids %d  flares %d (every %.1fs)  frame %d  |  +/- [/] a/A r f/F Tab Esc q",
		p.RotationSpeedMultiplier, p.SizeScale, snap.Belt.Count, len(snap.Flares), p.FlareSpawnIntervalSeconds, snap.Frame)
	r.text(0, h-1, w, line, styleStatus)
}

// text writes s at (x, y), padding with spaces to width cells.
func (r *Renderer) text(x, y, width int, s string, style tcell.Style) {
	i := 0
	for _, ch := range s {
		if i >= width {
			return
		}
		r.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
	for ; i < width; i++ {
		r.screen.SetContent(x+i, y, ' ', nil, style)
	}
}

func hexColor(s string) tcell.Color {
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return tcell.ColorWhite
	}
	return tcell.NewHexColor(int32(v))
}
