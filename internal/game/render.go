package game

import (
	"sort"
	"strconv"

	"github.com/enescakir/emoji"
	"github.com/partyhost/partyhost/internal/strpool"
)

// Banner renders the human-readable result line published with game:ended.
func Banner(s GameState) string {
	buf := strpool.Get()
	defer func() {
		buf.Reset()
		strpool.Put(buf)
	}()

	switch s.Winner {
	case WinnerBoats:
		buf.WriteString(emoji.Sailboat.String())
		buf.WriteString(" Boats win")
	case WinnerSwans:
		buf.WriteString(emoji.Swan.String())
		buf.WriteString(" Swans win")
	case WinnerPlayer:
		buf.WriteString(emoji.Crown.String())
		buf.WriteString(" ")
		buf.WriteString(playerName(s, s.WinnerID))
		buf.WriteString(" wins")
	case WinnerAI:
		buf.WriteString(emoji.Swan.String())
		buf.WriteString(" The swarm wins")
	case WinnerCoop:
		buf.WriteString(emoji.Star.String())
		buf.WriteString(" Survivors win")
	default:
		buf.WriteString(emoji.Warning.String())
		buf.WriteString(" No winner")
	}

	if s.WinReason != "" {
		buf.WriteString(" (")
		buf.WriteString(string(s.WinReason))
		buf.WriteString(")")
	}

	if top, ok := topScorer(s); ok {
		buf.WriteString(" ")
		buf.WriteString(emoji.Trophy.String())
		buf.WriteString(" ")
		buf.WriteString(top.Name)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(top.Score))
	}

	return buf.String()
}

func playerName(s GameState, id string) string {
	for _, p := range s.Players {
		if p.ID == id {
			if p.Name != "" {
				return p.Name
			}
			return p.ID
		}
	}
	return id
}

func topScorer(s GameState) (Player, bool) {
	if len(s.Players) == 0 {
		return Player{}, false
	}
	ranked := Ranked(s.Players)
	return ranked[0], ranked[0].Score > 0
}

// Ranked returns a copy of players ordered by score, highest first.
func Ranked(players []Player) []Player {
	ranked := make([]Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
