package game

import (
	"fmt"
	"math"
	"time"

	"github.com/partyhost/partyhost/internal/geom"
	"github.com/valyala/fastrand"
)

const (
	boatLaneX      = 100.0
	kingRingRadius = 250.0
	swarmCluster   = 80.0
	// a stalled tick never integrates more than this
	maxStep = 0.25
)

type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type EngineConfig struct {
	SessionCode  string
	Mode         Mode
	Participants []Participant
	// optional, zero keeps the derived duration
	Duration time.Duration
	// optional host mapping of player id to BOATS/SWANS in team modes
	Teams  map[string]Team
	Round  int
	Scores map[string]int
	// zero seeds from the runtime
	Seed   uint32
	Tuning Tuning
}

// Engine owns one GameState. It is not safe for concurrent use; Session
// serializes every call.
type Engine struct {
	state  GameState
	tuning Tuning
	rng    *fastrand.RNG

	lastTick    time.Time
	reachedSafe bool
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	switch cfg.Mode {
	case ModeClassic, ModeRounds, ModeKingOfLake, ModeSwanSwarm:
	case ModeRace:
		return nil, fmt.Errorf("%w: %s", ErrModeNotImplemented, cfg.Mode)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	n := len(cfg.Participants)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	seen := make(map[string]struct{}, n)
	for _, p := range cfg.Participants {
		if _, ok := seen[p.ID]; ok || p.ID == "" {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	tuning := cfg.Tuning.normalized()
	rng := &fastrand.RNG{}
	rng.Seed(cfg.Seed)

	settings := DeriveSettings(cfg.Mode, n, tuning)
	settings.overrideDuration(cfg.Duration)

	round := cfg.Round
	if round <= 0 {
		round = 1
	}

	e := &Engine{
		tuning: tuning,
		rng:    rng,
		state: GameState{
			SessionCode:   cfg.SessionCode,
			Mode:          cfg.Mode,
			Round:         round,
			Status:        StatusCountdown,
			TickRate:      tuning.TickRate,
			TimeRemaining: settings.Duration.Milliseconds(),
			Players:       make([]Player, 0, n),
		},
	}

	if err := e.assignTeams(cfg.Participants, cfg.Teams, &settings); err != nil {
		return nil, err
	}

	e.placePlayers(settings)
	e.grantAbilities()
	for i := range e.state.Players {
		e.state.Players[i].Score = cfg.Scores[e.state.Players[i].ID]
	}

	spawns := make([]geom.Point, 0, n)
	for _, p := range e.state.Players {
		spawns = append(spawns, p.Position)
	}
	settings.Obstacles = generateObstacles(rng, settings, spawns)
	e.state.Settings = settings

	switch cfg.Mode {
	case ModeSwanSwarm:
		e.state.PlayersAlive = n
		e.spawnWave()
	case ModeKingOfLake:
		e.crownRandomKing()
	}

	return e, nil
}

func (e *Engine) assignTeams(participants []Participant, teams map[string]Team, settings *Settings) error {
	n := len(participants)
	add := func(p Participant, team Team, typ PlayerType, status PlayerStatus) {
		e.state.Players = append(e.state.Players, Player{
			ID:       p.ID,
			Name:     p.Name,
			Avatar:   p.Avatar,
			Team:     team,
			Type:     typ,
			Status:   status,
			Rotation: 0,
		})
	}

	switch e.state.Mode {
	case ModeKingOfLake:
		for _, p := range participants {
			add(p, TeamSolo, PlayerTypeBoat, PlayerActive)
		}
		return nil
	case ModeSwanSwarm:
		for _, p := range participants {
			add(p, TeamCoop, PlayerTypeBoat, PlayerActive)
		}
		return nil
	}

	assigned := make(map[string]Team, n)
	if len(teams) > 0 {
		var boats, swans int
		for _, p := range participants {
			team, ok := teams[p.ID]
			if !ok || (team != TeamBoats && team != TeamSwans) {
				return fmt.Errorf("%w: player %q", ErrInvalidTeam, p.ID)
			}
			assigned[p.ID] = team
			if team == TeamBoats {
				boats++
			} else {
				swans++
			}
		}
		if boats == 0 || swans == 0 {
			return fmt.Errorf("%w: both teams need a player", ErrInvalidTeam)
		}
		settings.BoatsCount, settings.SwansCount = boats, swans
	} else {
		order := e.shuffledIndexes(n)
		for i, idx := range order {
			team := TeamSwans
			if i < settings.BoatsCount {
				team = TeamBoats
			}
			assigned[participants[idx].ID] = team
		}
	}

	for _, p := range participants {
		if assigned[p.ID] == TeamBoats {
			add(p, TeamBoats, PlayerTypeBoat, PlayerActive)
		} else {
			add(p, TeamSwans, PlayerTypeSwan, PlayerHunting)
		}
	}

	return nil
}

func (e *Engine) shuffledIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(e.rng.Uint32n(uint32(i + 1)))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx
}

func (e *Engine) placePlayers(s Settings) {
	players := e.state.Players
	center := geom.Pt(s.Arena.Width/2, s.Arena.Height/2)

	switch {
	case e.state.Mode.TeamBased():
		var boats, swans []*Player
		for i := range players {
			if players[i].Team == TeamBoats {
				boats = append(boats, &players[i])
			} else {
				swans = append(swans, &players[i])
			}
		}
		placeLane(boats, boatLaneX, s.Arena.Height)
		placeLane(swans, center.X, s.Arena.Height)
		for _, p := range boats {
			p.Rotation = 0
		}
		for _, p := range swans {
			p.Rotation = math.Pi
		}
	case e.state.Mode == ModeKingOfLake:
		for i := range players {
			angle := 2 * math.Pi * float64(i) / float64(len(players))
			players[i].Position = center.Add(geom.Pt(math.Cos(angle), math.Sin(angle)).Scale(kingRingRadius))
			players[i].Rotation = angle + math.Pi
		}
	case e.state.Mode == ModeSwanSwarm:
		for i := range players {
			angle := 2 * math.Pi * float64(i) / float64(len(players))
			players[i].Position = center.Add(geom.Pt(math.Cos(angle), math.Sin(angle)).Scale(swarmCluster))
			players[i].Rotation = angle
		}
	}
}

func placeLane(players []*Player, x, height float64) {
	step := height / float64(len(players)+1)
	for i, p := range players {
		p.Position = geom.Pt(x, step*float64(i+1))
	}
}

func (e *Engine) grantAbilities() {
	sprint, dash := e.tuning.Sprint, e.tuning.Dash
	for i := range e.state.Players {
		p := &e.state.Players[i]
		p.Abilities.Sprint = &Ability{Charges: sprint.Charges}
		switch {
		case e.state.Mode.TeamBased() && p.Team == TeamSwans:
			p.Abilities.Dash = &Ability{Charges: dash.Charges}
		case e.state.Mode == ModeKingOfLake:
			p.Abilities.Dash = &Ability{Charges: dash.Charges}
		}
	}
}

func (e *Engine) crownRandomKing() {
	idx := int(e.rng.Uint32n(uint32(len(e.state.Players))))
	e.crown(&e.state.Players[idx])
}

// crown makes p the king; the invulnerability window opens at Start and on every steal.
func (e *Engine) crown(p *Player) {
	p.Type = PlayerTypeSwan
	p.Status = PlayerHunting
	if p.Abilities.Dash != nil {
		p.Abilities.Dash.Active = false
	}
	e.state.CurrentKingID = p.ID
}

// Start enters the countdown; the round goes ACTIVE once it elapses.
func (e *Engine) Start(now time.Time) {
	e.state.Status = StatusCountdown
	e.state.StartTime = now.Add(e.tuning.Countdown)
	if e.state.Mode == ModeKingOfLake {
		e.state.KingInvulnerableUntil = e.state.StartTime.Add(e.state.Settings.KingInvulnerability)
	}
}

func (e *Engine) Status() Status {
	return e.state.Status
}

func (e *Engine) Mode() Mode {
	return e.state.Mode
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (e *Engine) Snapshot() GameState {
	return e.state.clone()
}

// HandleInput applies a movement/ability intent. It reports false when the
// input was ignored.
func (e *Engine) HandleInput(playerID string, in Input, now time.Time) bool {
	if e.state.Status != StatusActive {
		return false
	}

	p, ok := e.state.Player(playerID)
	if !ok || p.Status.Frozen() {
		return false
	}

	dir := in.Direction.Normalize()
	p.direction = dir
	if !dir.IsZero() {
		p.Rotation = dir.Angle()
	}

	if in.Sprint && p.Abilities.Sprint.ready(now) {
		p.Abilities.Sprint.trigger(now, e.tuning.Sprint)
	}

	if in.Dash && p.Abilities.Dash.ready(now) {
		p.Abilities.Dash.trigger(now, e.tuning.Dash)
		if p.ID != e.state.CurrentKingID {
			p.Status = PlayerDashing
		}
	}

	p.Velocity = dir.Scale(e.speed(p))
	return true
}

func (e *Engine) speed(p *Player) float64 {
	base := e.state.Settings.Speeds.Boat
	if p.Type == PlayerTypeSwan {
		base = e.state.Settings.Speeds.Swan
	}

	switch {
	case p.Abilities.Dash != nil && p.Abilities.Dash.Active:
		return base * e.tuning.Dash.Multiplier
	case p.Abilities.Sprint != nil && p.Abilities.Sprint.Active:
		return base * e.tuning.Sprint.Multiplier
	}
	return base
}

// Tick advances the simulation to now and reports whether the game ended on
// this tick.
func (e *Engine) Tick(now time.Time) bool {
	s := &e.state
	if s.WinConditionMet || s.Status == StatusEnded {
		return false
	}

	if s.Status == StatusCountdown {
		if now.Before(s.StartTime) {
			return false
		}
		s.Status = StatusActive
		e.lastTick = now
	}

	remaining := s.Settings.Duration - now.Sub(s.StartTime)
	if remaining < 0 {
		remaining = 0
	}
	s.TimeRemaining = remaining.Milliseconds()

	dt := now.Sub(e.lastTick).Seconds()
	if dt <= 0 {
		dt = 1 / float64(e.tuning.TickRate)
	}
	if dt > maxStep {
		dt = maxStep
	}
	e.lastTick = now

	e.expireAbilities(now)
	e.movePlayers(dt)
	if s.Mode.TeamBased() {
		e.checkSafeZone()
	}
	if s.Mode == ModeSwanSwarm {
		e.advanceAI(dt)
	}
	e.evaluateTags(now)

	return e.evaluateWin(now, remaining)
}

func (e *Engine) expireAbilities(now time.Time) {
	for i := range e.state.Players {
		p := &e.state.Players[i]
		if p.Status.Frozen() {
			continue
		}

		p.Abilities.Sprint.expire(now)
		if p.Abilities.Dash.expire(now) && p.Status == PlayerDashing {
			p.Status = e.baseStatus(p)
		}
		p.Velocity = p.direction.Scale(e.speed(p))
	}
}

func (e *Engine) baseStatus(p *Player) PlayerStatus {
	if p.Type == PlayerTypeSwan {
		return PlayerHunting
	}
	return PlayerActive
}
