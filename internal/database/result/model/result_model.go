package model

import "time"

type PlayerScore struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Team      string `json:"team"`
	Status    string `json:"status"`
	Score     int    `json:"score"`
	TagsCount int    `json:"tagsCount"`
}

// Result summarizes one finished round of a mini-game.
type Result struct {
	SessionCode string        `json:"sessionCode"`
	Mode        string        `json:"mode"`
	Round       int           `json:"round"`
	Winner      string        `json:"winner"`
	WinnerID    string        `json:"winnerId,omitempty"`
	Reason      string        `json:"reason"`
	Duration    time.Duration `json:"duration"`
	Scores      []PlayerScore `json:"scores"`
	EndedAt     time.Time     `json:"endedAt"`
}
