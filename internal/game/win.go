package game

import (
	"time"

	"github.com/partyhost/partyhost/internal/geom"
)

const (
	boatsWinBonus = 50
	survivorBonus = 250
)

// evaluateWin checks the mode's end conditions and ends the game when one
// holds. It reports whether the game ended.
func (e *Engine) evaluateWin(now time.Time, remaining time.Duration) bool {
	s := &e.state
	if s.WinConditionMet {
		return false
	}

	switch {
	case s.Mode.TeamBased():
		return e.evaluateTeams(now, remaining)
	case s.Mode == ModeKingOfLake:
		return e.evaluateKing(now, remaining)
	case s.Mode == ModeSwanSwarm:
		return e.evaluateSwarm(now, remaining)
	}
	return false
}

func (e *Engine) evaluateTeams(now time.Time, remaining time.Duration) bool {
	activeBoats := 0
	for i := range e.state.Players {
		p := &e.state.Players[i]
		if p.Type == PlayerTypeBoat && p.Status.Catchable() {
			activeBoats++
		}
	}

	switch {
	case e.reachedSafe:
		e.rewardBoats()
		e.end(now, WinnerBoats, "", ReasonReachedSafeZone)
	case activeBoats == 0:
		e.end(now, WinnerSwans, "", ReasonAllBoatsTagged)
	case remaining <= 0:
		e.rewardBoats()
		e.end(now, WinnerBoats, "", ReasonBoatsSurvived)
	default:
		return false
	}
	return true
}

func (e *Engine) rewardBoats() {
	for i := range e.state.Players {
		p := &e.state.Players[i]
		if p.Type == PlayerTypeBoat && (p.Status == PlayerActive || p.Status == PlayerSafe) {
			p.Score += boatsWinBonus
		}
	}
}

func (e *Engine) evaluateKing(now time.Time, remaining time.Duration) bool {
	var (
		standing int
		last     string
	)
	for i := range e.state.Players {
		if e.state.Players[i].Status != PlayerEliminated {
			standing++
			last = e.state.Players[i].ID
		}
	}

	switch {
	case standing == 0:
		e.end(now, WinnerNone, "", ReasonNoPlayersLeft)
	case standing == 1:
		e.end(now, WinnerPlayer, last, ReasonLastPlayer)
	case remaining <= 0:
		e.end(now, WinnerPlayer, e.state.CurrentKingID, ReasonKingSurvived)
	default:
		return false
	}
	return true
}

func (e *Engine) evaluateSwarm(now time.Time, remaining time.Duration) bool {
	switch {
	case e.state.PlayersAlive == 0:
		e.end(now, WinnerAI, "", ReasonAllPlayersTagged)
	case remaining <= 0:
		for i := range e.state.Players {
			p := &e.state.Players[i]
			if p.Status.Catchable() {
				p.Score += survivorBonus
			}
		}
		e.end(now, WinnerCoop, "", ReasonCoopSurvived)
	default:
		return false
	}
	return true
}

// Abort ends the game without a winner. It is a no-op once the game ended.
func (e *Engine) Abort(now time.Time) {
	if e.state.WinConditionMet {
		return
	}
	e.end(now, WinnerNone, "", ReasonAborted)
}

// Halt ends a game stopped from outside without a winner. It is a no-op once
// the game ended.
func (e *Engine) Halt(now time.Time) {
	if e.state.WinConditionMet {
		return
	}
	e.end(now, WinnerNone, "", ReasonStopped)
}

func (e *Engine) end(now time.Time, winner Winner, winnerID string, reason WinReason) {
	s := &e.state
	s.Status = StatusEnded
	s.WinConditionMet = true
	s.Winner = winner
	s.WinnerID = winnerID
	s.WinReason = reason
	s.EndedAt = now

	for i := range s.Players {
		s.Players[i].freeze()
		if s.Players[i].Abilities.Sprint != nil {
			s.Players[i].Abilities.Sprint.Active = false
		}
		if s.Players[i].Abilities.Dash != nil {
			s.Players[i].Abilities.Dash.Active = false
		}
	}
	for i := range s.AISwans {
		s.AISwans[i].Velocity = geom.Point{}
	}
}
