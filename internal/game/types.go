package game

import (
	"fmt"
	"time"

	"github.com/partyhost/partyhost/internal/geom"
)

type Mode string

const (
	ModeClassic    Mode = "CLASSIC"
	ModeRounds     Mode = "ROUNDS"
	ModeKingOfLake Mode = "KING_OF_LAKE"
	ModeSwanSwarm  Mode = "SWAN_SWARM"
	// ModeRace is reserved for the race mini-game; its rules are not settled yet.
	ModeRace Mode = "RACE"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeClassic, ModeRounds, ModeKingOfLake, ModeSwanSwarm, ModeRace:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// TeamBased reports whether boats race swans for a safe zone.
func (m Mode) TeamBased() bool {
	return m == ModeClassic || m == ModeRounds
}

type Status string

const (
	StatusCountdown Status = "COUNTDOWN"
	StatusActive    Status = "ACTIVE"
	StatusEnded     Status = "ENDED"
)

type Team string

const (
	TeamBoats Team = "BOATS"
	TeamSwans Team = "SWANS"
	TeamSolo  Team = "SOLO"
	TeamCoop  Team = "COOP"
)

type PlayerType string

const (
	PlayerTypeBoat PlayerType = "BOAT"
	PlayerTypeSwan PlayerType = "SWAN"
)

type PlayerStatus string

const (
	PlayerActive     PlayerStatus = "ACTIVE"
	PlayerHunting    PlayerStatus = "HUNTING"
	PlayerDashing    PlayerStatus = "DASHING"
	PlayerTagged     PlayerStatus = "TAGGED"
	PlayerSafe       PlayerStatus = "SAFE"
	PlayerEliminated PlayerStatus = "ELIMINATED"
)

// Frozen statuses ignore input and never move again.
func (s PlayerStatus) Frozen() bool {
	return s == PlayerTagged || s == PlayerSafe || s == PlayerEliminated
}

// Catchable statuses can be tagged or eliminated.
func (s PlayerStatus) Catchable() bool {
	return s == PlayerActive || s == PlayerDashing
}

type Winner string

const (
	WinnerNone   Winner = "NONE"
	WinnerBoats  Winner = "BOATS"
	WinnerSwans  Winner = "SWANS"
	WinnerPlayer Winner = "PLAYER"
	WinnerAI     Winner = "AI"
	WinnerCoop   Winner = "COOP"
)

type WinReason string

const (
	ReasonReachedSafeZone  WinReason = "REACHED_SAFE_ZONE"
	ReasonAllBoatsTagged   WinReason = "ALL_BOATS_TAGGED"
	ReasonBoatsSurvived    WinReason = "TIME_UP_BOATS_SURVIVED"
	ReasonLastPlayer       WinReason = "LAST_PLAYER_STANDING"
	ReasonNoPlayersLeft    WinReason = "NO_PLAYERS_LEFT"
	ReasonKingSurvived     WinReason = "TIME_UP_KING"
	ReasonAllPlayersTagged WinReason = "ALL_PLAYERS_TAGGED"
	ReasonCoopSurvived     WinReason = "TIME_UP_SURVIVED"
	ReasonAborted          WinReason = "ABORTED"
	ReasonStopped          WinReason = "STOPPED"
)

type Ability struct {
	Charges       int       `json:"charges"`
	Active        bool      `json:"active"`
	CooldownUntil time.Time `json:"cooldownUntil"`

	activeUntil time.Time
}

func (a *Ability) ready(now time.Time) bool {
	return a != nil && a.Charges > 0 && !a.Active && !now.Before(a.CooldownUntil)
}

func (a *Ability) trigger(now time.Time, t AbilityTuning) {
	a.Charges--
	a.Active = true
	a.activeUntil = now.Add(t.Duration)
	a.CooldownUntil = now.Add(t.Cooldown)
}

// expire ends the boost once its duration has passed and reports whether it did.
func (a *Ability) expire(now time.Time) bool {
	if a == nil || !a.Active || now.Before(a.activeUntil) {
		return false
	}
	a.Active = false
	return true
}

type Abilities struct {
	Sprint *Ability `json:"sprint"`
	Dash   *Ability `json:"dash,omitempty"`
}

type Player struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Avatar    string       `json:"avatar,omitempty"`
	Team      Team         `json:"team"`
	Type      PlayerType   `json:"type"`
	Status    PlayerStatus `json:"status"`
	Position  geom.Point   `json:"position"`
	Velocity  geom.Point   `json:"velocity"`
	Rotation  float64      `json:"rotation"`
	Score     int          `json:"score"`
	TagsCount int          `json:"tagsCount,omitempty"`
	Abilities Abilities    `json:"abilities"`

	direction geom.Point
}

func (p *Player) clone() Player {
	c := *p
	if p.Abilities.Sprint != nil {
		sprint := *p.Abilities.Sprint
		c.Abilities.Sprint = &sprint
	}
	if p.Abilities.Dash != nil {
		dash := *p.Abilities.Dash
		c.Abilities.Dash = &dash
	}
	return c
}

func (p *Player) freeze() {
	p.Velocity = geom.Point{}
	p.direction = geom.Point{}
}

type AISwan struct {
	ID             string     `json:"id"`
	Position       geom.Point `json:"position"`
	Velocity       geom.Point `json:"velocity"`
	Rotation       float64    `json:"rotation"`
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
	Speed          float64    `json:"speed"`
}

// Input is one movement/ability intent from a client.
type Input struct {
	Direction geom.Point `json:"direction"`
	Sprint    bool       `json:"sprint,omitempty"`
	Dash      bool       `json:"dash,omitempty"`
}

// GameState is the full authoritative state of one mini-game instance and the
// shape of every published snapshot.
type GameState struct {
	SessionCode string    `json:"sessionCode"`
	Mode        Mode      `json:"mode"`
	Round       int       `json:"round"`
	Status      Status    `json:"status"`
	StartTime   time.Time `json:"startTime"`
	// milliseconds
	TimeRemaining int64    `json:"timeRemaining"`
	TickRate      int      `json:"tickRate"`
	Settings      Settings `json:"settings"`
	Players       []Player `json:"players"`
	AISwans       []AISwan `json:"aiSwans,omitempty"`

	CurrentKingID         string    `json:"currentKingId,omitempty"`
	KingInvulnerableUntil time.Time `json:"kingInvulnerableUntil,omitempty"`
	CurrentWave           int       `json:"currentWave,omitempty"`
	PlayersAlive          int       `json:"playersAlive,omitempty"`

	Winner          Winner    `json:"winner,omitempty"`
	WinnerID        string    `json:"winnerId,omitempty"`
	WinReason       WinReason `json:"winReason,omitempty"`
	WinConditionMet bool      `json:"winConditionMet"`
	EndedAt         time.Time `json:"endedAt,omitempty"`
}

// Player returns a pointer into the state for id.
func (s *GameState) Player(id string) (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

func (s *GameState) clone() GameState {
	c := *s
	c.Players = make([]Player, len(s.Players))
	for i := range s.Players {
		c.Players[i] = s.Players[i].clone()
	}
	if s.AISwans != nil {
		c.AISwans = make([]AISwan, len(s.AISwans))
		copy(c.AISwans, s.AISwans)
	}
	c.Settings = s.Settings.clone()
	return c
}
