package game

import (
	"fmt"
	"math"
	"time"

	"github.com/partyhost/partyhost/internal/geom"
)

// SpawnWave adds the next, larger and faster, AI wave. It reports false when
// the mode has no waves or the game is already over.
func (e *Engine) SpawnWave(now time.Time) bool {
	if e.state.Mode != ModeSwanSwarm || e.state.Status != StatusActive || e.state.WinConditionMet {
		return false
	}
	e.spawnWave()
	return true
}

func (e *Engine) spawnWave() {
	s := &e.state
	s.CurrentWave++
	wave := s.CurrentWave

	count := s.Settings.WaveBaseCount + wave
	speed := math.Min(e.tuning.AIBaseSpeed+e.tuning.AISpeedPerWave*float64(wave-1), e.tuning.AIMaxSpeed)
	s.Settings.Speeds.AI = speed

	for i := 0; i < count; i++ {
		pos := e.edgePoint()
		s.AISwans = append(s.AISwans, AISwan{
			ID:       fmt.Sprintf("swan-%d-%d", wave, i+1),
			Position: pos,
			Rotation: geom.Pt(s.Settings.Arena.Width/2, s.Settings.Arena.Height/2).Sub(pos).Angle(),
			Speed:    speed,
		})
	}
}

// edgePoint picks a random spawn point on one of the four arena edges.
func (e *Engine) edgePoint() geom.Point {
	arena := e.state.Settings.Arena
	hw := e.state.Settings.PlayerHalfWidth
	x := hw + randFloat(e.rng)*(arena.Width-2*hw)
	y := hw + randFloat(e.rng)*(arena.Height-2*hw)

	switch e.rng.Uint32n(4) {
	case 0:
		return geom.Pt(x, hw)
	case 1:
		return geom.Pt(x, arena.Height-hw)
	case 2:
		return geom.Pt(hw, y)
	default:
		return geom.Pt(arena.Width-hw, y)
	}
}

// advanceAI steers every AI swan toward its nearest catchable player.
func (e *Engine) advanceAI(dt float64) {
	for i := range e.state.AISwans {
		swan := &e.state.AISwans[i]
		target := e.nearestCatchable(swan.Position)
		if target == nil {
			swan.TargetPlayerID = ""
			swan.Velocity = geom.Point{}
			continue
		}

		dir := target.Position.Sub(swan.Position).Normalize()
		swan.TargetPlayerID = target.ID
		swan.Velocity = dir.Scale(swan.Speed)
		if !dir.IsZero() {
			swan.Rotation = dir.Angle()
		}
		swan.Position = e.constrain(swan.Position.Add(swan.Velocity.Scale(dt)), swan.Velocity)
	}
}

func (e *Engine) nearestCatchable(from geom.Point) *Player {
	var (
		best     *Player
		bestDist = math.Inf(1)
	)
	for i := range e.state.Players {
		p := &e.state.Players[i]
		if !p.Status.Catchable() {
			continue
		}
		if d := geom.Distance(from, p.Position); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}
