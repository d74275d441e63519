package core

import "github.com/signalsfoundry/orrery-sim/params"

// Updater advances body state once per rendered frame.
type Updater struct {
	Rates Rates
}

// NewUpdater returns an updater using rates.
func NewUpdater(rates Rates) *Updater {
	return &Updater{Rates: rates}
}

// Advance mutates every body by deltaSeconds of animation time. It
// accumulates: calling it twice with the same delta advances twice. A zero
// delta leaves angles and positions untouched. deltaSeconds is not clamped
// here; see timectrl for the optional clamp.
//
// Per body the order is fixed: orbit angle, group position, spin, then
// satellites, then the day/night sun direction.
func (u *Updater) Advance(states []*BodyState, p *params.GlobalParameters, deltaSeconds float64) {
	mult := p.RotationSpeedMultiplier
	orbitStep := u.Rates.OrbitRate * mult * deltaSeconds

	for _, s := range states {
		s.OrbitAngle += orbitStep
		s.Group.Transform.Position = CircularPosition(s.OrbitAngle, s.Descriptor.OrbitRadius)

		s.SpinAngle += s.SpinRateBase * mult * deltaSeconds
		s.Body.Transform.Rotation.Y = s.SpinAngle
		s.Body.Transform.Scale = p.SizeScale
		if s.Ring != nil {
			s.Ring.Transform.Scale = p.SizeScale
		}

		for _, m := range s.Satellites {
			step := m.SpinRate * mult * deltaSeconds
			m.OrbitAngle += step
			m.Node.Transform.Position = CircularPosition(m.OrbitAngle, m.OrbitRadius)
			m.SpinAngle += step
			m.Node.Transform.Rotation.Y = m.SpinAngle
			m.Node.Transform.Scale = p.SizeScale
		}

		if s.HasDayNight() {
			s.Surface.SunDirection = SunDirection(s.OrbitAngle)
		}
	}
}
