package game

import (
	"time"

	"github.com/partyhost/partyhost/internal/geom"
)

const (
	tagScore   = 100
	stealScore = 150
)

func (e *Engine) evaluateTags(now time.Time) {
	switch {
	case e.state.Mode.TeamBased():
		e.tagBoats()
	case e.state.Mode == ModeKingOfLake:
		if !e.stealCrown(now) {
			e.eliminateByKing()
		}
	case e.state.Mode == ModeSwanSwarm:
		e.tagByAI()
	}
}

func (e *Engine) tagBoats() {
	players := e.state.Players
	for i := range players {
		swan := &players[i]
		if swan.Type != PlayerTypeSwan || (swan.Status != PlayerHunting && swan.Status != PlayerDashing) {
			continue
		}

		for j := range players {
			boat := &players[j]
			if boat.Type != PlayerTypeBoat || !boat.Status.Catchable() {
				continue
			}
			if geom.Distance(swan.Position, boat.Position) > e.state.Settings.TagRange {
				continue
			}

			boat.Status = PlayerTagged
			boat.freeze()
			swan.TagsCount++
			swan.Score += tagScore
		}
	}
}

// stealCrown lets at most one dashing challenger take the crown once the
// king's invulnerability has run out. It reports whether the crown moved.
func (e *Engine) stealCrown(now time.Time) bool {
	s := &e.state
	if now.Before(s.KingInvulnerableUntil) {
		return false
	}

	king, ok := s.Player(s.CurrentKingID)
	if !ok {
		return false
	}

	for i := range s.Players {
		challenger := &s.Players[i]
		if challenger.ID == king.ID || challenger.Status != PlayerDashing {
			continue
		}
		if geom.Distance(challenger.Position, king.Position) > s.Settings.StealRange {
			continue
		}

		king.Type = PlayerTypeBoat
		king.Status = PlayerActive

		e.crown(challenger)
		challenger.Score += stealScore
		s.KingInvulnerableUntil = now.Add(s.Settings.KingInvulnerability)
		return true
	}

	return false
}

func (e *Engine) eliminateByKing() {
	s := &e.state
	king, ok := s.Player(s.CurrentKingID)
	if !ok {
		return
	}

	for i := range s.Players {
		p := &s.Players[i]
		if p.ID == king.ID || !p.Status.Catchable() {
			continue
		}
		if geom.Distance(p.Position, king.Position) > s.Settings.TagRange {
			continue
		}

		p.Status = PlayerEliminated
		p.freeze()
		king.TagsCount++
		king.Score += tagScore
	}
}

func (e *Engine) tagByAI() {
	s := &e.state
	for i := range s.AISwans {
		swan := &s.AISwans[i]
		for j := range s.Players {
			p := &s.Players[j]
			if !p.Status.Catchable() {
				continue
			}
			if geom.Distance(swan.Position, p.Position) > s.Settings.TagRange {
				continue
			}

			p.Status = PlayerTagged
			p.freeze()
		}
	}

	s.PlayersAlive = e.countCatchable()
}

func (e *Engine) countCatchable() int {
	n := 0
	for i := range e.state.Players {
		if e.state.Players[i].Status.Catchable() {
			n++
		}
	}
	return n
}
