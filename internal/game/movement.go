package game

import (
	"github.com/partyhost/partyhost/internal/geom"
)

const (
	safeBonus = 200
)

func (e *Engine) movePlayers(dt float64) {
	for i := range e.state.Players {
		p := &e.state.Players[i]
		if p.Status.Frozen() {
			p.freeze()
			continue
		}

		p.Position = e.constrain(p.Position.Add(p.Velocity.Scale(dt)), p.Velocity)
	}
}

// constrain clamps pos to the arena and pushes it out of any obstacle it
// penetrates so it rests exactly on the obstacle's rim.
func (e *Engine) constrain(pos, velocity geom.Point) geom.Point {
	s := &e.state.Settings
	hw := s.PlayerHalfWidth
	pos = geom.ClampPoint(pos, geom.Pt(hw, hw), geom.Pt(s.Arena.Width-hw, s.Arena.Height-hw))

	for _, o := range s.Obstacles {
		minDist := o.Radius + hw
		offset := pos.Sub(o.Position)
		if offset.Len() >= minDist {
			continue
		}

		axis := offset.Normalize()
		if axis.IsZero() {
			axis = velocity.Scale(-1).Normalize()
		}
		if axis.IsZero() {
			axis = geom.Pt(1, 0)
		}
		pos = o.Position.Add(axis.Scale(minDist))
	}

	return pos
}

// checkSafeZone freezes every boat that has entered the safe zone.
func (e *Engine) checkSafeZone() {
	zone := e.state.Settings.SafeZone
	if zone == nil {
		return
	}

	for i := range e.state.Players {
		p := &e.state.Players[i]
		if p.Type != PlayerTypeBoat || !p.Status.Catchable() {
			continue
		}
		if geom.Distance(p.Position, zone.Center) > zone.Radius {
			continue
		}

		p.Status = PlayerSafe
		p.Score += safeBonus
		p.freeze()
		e.reachedSafe = true
	}
}
