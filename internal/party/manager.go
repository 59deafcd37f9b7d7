// Package party owns the live sessions of the server: one game actor and one
// audio target per session code, fed by the websocket hub.
package party

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/partyhost/partyhost/internal/audio"
	resultDb "github.com/partyhost/partyhost/internal/database/result/database"
	"github.com/partyhost/partyhost/internal/database/result/model"
	"github.com/partyhost/partyhost/internal/game"
	"github.com/partyhost/partyhost/internal/logging"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotHost      = errors.New("only the host may do this")
	ErrGameRunning  = errors.New("a game is already running")
	ErrNoGame       = errors.New("no game in this session")
	ErrNotRounds    = errors.New("next round needs a finished ROUNDS game")
	ErrUnknownParty = errors.New("unknown session")
)

// Expirer sweeps audio target states whose TTL elapsed.
type Expirer interface {
	Expire() ([]string, error)
}

type party struct {
	code   string
	hostID string
	game   *game.Session
	// the request that started round 1, replayed by next rounds
	start   StartRequest
	touched time.Time
}

func (p *party) running() bool {
	if p.game == nil {
		return false
	}
	select {
	case <-p.game.Done():
		return false
	default:
		return true
	}
}

func NewManager(config *Config, transport audio.Transport, orchestrator *audio.Orchestrator, results *resultDb.DB, targets Expirer) *Manager {
	return &Manager{
		ctx:       context.Background(),
		config:    config,
		transport: transport,
		audio:     orchestrator,
		results:   results,
		targets:   targets,
		parties:   map[string]*party{},
		now:       time.Now,
	}
}

type Manager struct {
	mtx sync.RWMutex

	ctx       context.Context
	config    *Config
	transport audio.Transport
	audio     *audio.Orchestrator
	results   *resultDb.DB
	targets   Expirer
	// key: session code
	parties map[string]*party
	now     func() time.Time
}

// Run keeps the cleaning loop going until ctx is done, then stops every game.
func (m *Manager) Run(ctx context.Context) error {
	m.mtx.Lock()
	m.ctx = ctx
	m.mtx.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.cleaning(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		m.stopAll()
		return nil
	})

	return g.Wait()
}

func (m *Manager) baseCtx() context.Context {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.ctx
}

func (m *Manager) cleaning(ctx context.Context) {
	ticker := time.NewTicker(m.config.CleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.clean(ctx)
		}
	}
}

// clean ends sessions idle past the timeout and forgets expired audio targets.
func (m *Manager) clean(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("party.Manager.clean")
	now := m.now()

	m.mtx.RLock()
	var idle []string
	for code, p := range m.parties {
		if now.Sub(p.touched) > m.config.SessionTimeout {
			idle = append(idle, code)
		}
	}
	m.mtx.RUnlock()

	for _, code := range idle {
		logger.Infof("session %s idle, ending", code)
		m.end(ctx, code)
	}

	if m.targets == nil {
		return
	}
	expired, err := m.targets.Expire()
	if err != nil {
		logger.Errorf("expire audio targets: %v", err)
		return
	}
	for _, code := range expired {
		if err := m.audio.Forget(code); err != nil {
			logger.Errorf("forget %s: %v", code, err)
		}
	}
}

func (m *Manager) stopAll() {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	for _, p := range m.parties {
		if p.game != nil {
			p.game.Stop()
		}
	}
}

// touch returns the session's party, creating it, and marks it active.
func (m *Manager) touch(code string) *party {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.touchLocked(code)
}

func (m *Manager) touchLocked(code string) *party {
	p, ok := m.parties[code]
	if !ok {
		p = &party{code: code}
		m.parties[code] = p
	}
	p.touched = m.now()
	return p
}

// Start begins round 1 of a mini-game. The first client to start a game in a
// session becomes its host.
func (m *Manager) Start(ctx context.Context, code, clientID string, req StartRequest) (game.GameState, error) {
	logger := logging.FromContext(ctx).Named("party.Manager.Start")

	mode, err := game.ParseMode(req.Mode)
	if err != nil {
		return game.GameState{}, err
	}

	m.mtx.Lock()
	p := m.touchLocked(code)
	if p.hostID != "" && p.hostID != clientID {
		m.mtx.Unlock()
		return game.GameState{}, ErrNotHost
	}
	if p.running() {
		m.mtx.Unlock()
		return game.GameState{}, ErrGameRunning
	}

	session, err := m.newSession(code, mode, req, 1, req.Teams, nil)
	if err != nil {
		m.mtx.Unlock()
		return game.GameState{}, err
	}
	p.hostID = clientID
	p.start = req
	p.game = session
	m.mtx.Unlock()

	session.Run(m.baseCtx())
	state := session.Snapshot()
	logger.Infof("session %s: %s started by %s with %d players", code, mode, clientID, len(state.Players))

	return state, nil
}

// NextRound continues a finished ROUNDS game with the same participants,
// carrying every score over. Teams are drawn again unless teams maps them.
func (m *Manager) NextRound(ctx context.Context, code, clientID string, teams map[string]game.Team) (game.GameState, error) {
	logger := logging.FromContext(ctx).Named("party.Manager.NextRound")

	m.mtx.Lock()
	p, ok := m.parties[code]
	if !ok || p.game == nil {
		m.mtx.Unlock()
		return game.GameState{}, ErrNoGame
	}
	p.touched = m.now()
	if p.hostID != clientID {
		m.mtx.Unlock()
		return game.GameState{}, ErrNotHost
	}
	if p.running() {
		m.mtx.Unlock()
		return game.GameState{}, ErrGameRunning
	}

	prev := p.game.Snapshot()
	if prev.Mode != game.ModeRounds || prev.Status != game.StatusEnded {
		m.mtx.Unlock()
		return game.GameState{}, ErrNotRounds
	}

	scores := make(map[string]int, len(prev.Players))
	for _, pl := range prev.Players {
		scores[pl.ID] = pl.Score
	}

	session, err := m.newSession(code, game.ModeRounds, p.start, prev.Round+1, teams, scores)
	if err != nil {
		m.mtx.Unlock()
		return game.GameState{}, err
	}
	p.game = session
	m.mtx.Unlock()

	session.Run(m.baseCtx())
	state := session.Snapshot()
	logger.Infof("session %s: round %d started", code, state.Round)

	return state, nil
}

func (m *Manager) newSession(code string, mode game.Mode, req StartRequest, round int, teams map[string]game.Team, scores map[string]int) (*game.Session, error) {
	engine, err := game.NewEngine(game.EngineConfig{
		SessionCode:  code,
		Mode:         mode,
		Participants: req.Participants,
		Duration:     time.Duration(req.DurationSec) * time.Second,
		Teams:        teams,
		Round:        round,
		Scores:       scores,
		Tuning:       m.config.Game.Tuning(),
	})
	if err != nil {
		return nil, err
	}

	return game.NewSession(engine, game.SessionConfig{
		Broadcaster: m.transport,
		OnEnd:       m.saveResult,
		OnAbort: func(state game.GameState, err error) {
			m.saveResult(state)
		},
	}), nil
}

// StopGame stops the running game of the session.
func (m *Manager) StopGame(ctx context.Context, code, clientID string) error {
	m.mtx.Lock()
	p, ok := m.parties[code]
	if !ok || !p.running() {
		m.mtx.Unlock()
		return ErrNoGame
	}
	p.touched = m.now()
	if p.hostID != clientID {
		m.mtx.Unlock()
		return ErrNotHost
	}
	session := p.game
	m.mtx.Unlock()

	session.Stop()
	logging.FromContext(ctx).Named("party.Manager.StopGame").Infof("session %s: game stopped by host", code)
	return nil
}

// Input forwards a player's intent to the running game. Inputs for sessions
// without a running game are dropped.
func (m *Manager) Input(code, playerID string, in game.Input) error {
	m.mtx.Lock()
	p, ok := m.parties[code]
	var session *game.Session
	if ok {
		p.touched = m.now()
		session = p.game
	}
	m.mtx.Unlock()

	if session == nil {
		return ErrNoGame
	}
	return session.HandleInput(playerID, in)
}

// Snapshot returns the last published state of the session's game.
func (m *Manager) Snapshot(code string) (game.GameState, bool) {
	m.mtx.RLock()
	p, ok := m.parties[code]
	m.mtx.RUnlock()
	if !ok || p.game == nil {
		return game.GameState{}, false
	}
	return p.game.Snapshot(), true
}

// End stops the session's game, drops its audio target and forgets it.
func (m *Manager) End(ctx context.Context, code, clientID string) error {
	m.mtx.RLock()
	p, ok := m.parties[code]
	host := ""
	if ok {
		host = p.hostID
	}
	m.mtx.RUnlock()

	if !ok {
		return ErrUnknownParty
	}
	if host != "" && host != clientID {
		return ErrNotHost
	}

	m.end(ctx, code)
	return nil
}

func (m *Manager) end(ctx context.Context, code string) {
	logger := logging.FromContext(ctx).Named("party.Manager.end")

	m.mtx.Lock()
	p, ok := m.parties[code]
	delete(m.parties, code)
	m.mtx.Unlock()
	if !ok {
		return
	}

	if p.game != nil {
		p.game.Stop()
	}
	if err := m.audio.Forget(code); err != nil {
		logger.Errorf("session %s: %v", code, err)
	}
	m.transport.Broadcast(code, EventSessionEnded, SessionEndedEvent{SessionCode: code})
}

func (m *Manager) saveResult(state game.GameState) {
	logger := logging.FromContext(m.baseCtx()).Named("party.Manager.saveResult")
	if m.results == nil {
		return
	}

	if err := m.results.Add(resultOf(state)); err != nil {
		logger.Errorf("session %s round %d: %v", state.SessionCode, state.Round, err)
	}
}

func resultOf(state game.GameState) model.Result {
	r := model.Result{
		SessionCode: state.SessionCode,
		Mode:        string(state.Mode),
		Round:       state.Round,
		Winner:      string(state.Winner),
		WinnerID:    state.WinnerID,
		Reason:      string(state.WinReason),
		Duration:    state.Settings.Duration,
		EndedAt:     state.EndedAt,
	}
	for _, p := range game.Ranked(state.Players) {
		r.Scores = append(r.Scores, model.PlayerScore{
			PlayerID:  p.ID,
			Name:      p.Name,
			Team:      string(p.Team),
			Status:    string(p.Status),
			Score:     p.Score,
			TagsCount: p.TagsCount,
		})
	}
	return r
}

// Results returns the stored summaries of the session's rounds.
func (m *Manager) Results(code string) ([]model.Result, error) {
	list, err := m.results.FetchBySession(code)
	if err != nil {
		return nil, fmt.Errorf("fetch results of %s: %w", code, err)
	}
	return list, nil
}
