package game

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/partyhost/partyhost/internal/logging"
	"go.uber.org/zap"
)

const (
	EventSnapshot = "game:snapshot"
	EventEnded    = "game:ended"
	EventAborted  = "game:aborted"
	EventStopped  = "game:stopped"
)

const defaultInputBuffer = 256

var (
	ErrSessionStopped = errors.New("game session stopped")
	ErrInputQueueFull = errors.New("game input queue is full")
)

type Broadcaster interface {
	Broadcast(code, event string, payload interface{})
}

// EndedEvent is the final snapshot published exactly once per game.
type EndedEvent struct {
	GameState
	Banner string `json:"banner"`
}

type AbortedEvent struct {
	SessionCode string `json:"sessionCode"`
	Round       int    `json:"round"`
	Reason      string `json:"reason"`
}

type SessionConfig struct {
	Broadcaster Broadcaster
	// OnEnd receives the final state of a game that ended by its own rules.
	OnEnd func(GameState)
	// OnAbort receives the state of a game whose tick failed.
	OnAbort     func(GameState, error)
	InputBuffer int
}

type input struct {
	playerID string
	input    Input
}

func NewSession(engine *Engine, config SessionConfig) *Session {
	buffer := config.InputBuffer
	if buffer <= 0 {
		buffer = defaultInputBuffer
	}

	return &Session{
		engine:   engine,
		config:   config,
		code:     engine.state.SessionCode,
		inputCh:  make(chan input, buffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		snapshot: engine.Snapshot(),
	}
}

// Session runs one Engine on its own goroutine. Every engine mutation happens
// inside loop.
type Session struct {
	mtx sync.RWMutex

	engine   *Engine
	config   SessionConfig
	code     string
	inputCh  chan input
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	sema     sync.Once
	snapshot GameState
}

func (r *Session) Code() string {
	return r.code
}

func (r *Session) Mode() Mode {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.snapshot.Mode
}

// Snapshot returns the last published state.
func (r *Session) Snapshot() GameState {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.snapshot.clone()
}

func (r *Session) Done() <-chan struct{} {
	return r.done
}

func (r *Session) Run(ctx context.Context) {
	r.sema.Do(func() {
		r.engine.Start(time.Now())
		r.publish(r.engine.Snapshot())
		go r.loop(ctx)
	})
}

// Stop cancels the tick and wave timers together. A game that has not ended
// is announced as stopped. Stop may come before Run, which then returns at once.
func (r *Session) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

// HandleInput queues an intent for the next loop iteration.
func (r *Session) HandleInput(playerID string, in Input) error {
	select {
	case <-r.done:
		return ErrSessionStopped
	default:
	}

	select {
	case r.inputCh <- input{playerID: playerID, input: in}:
		return nil
	default:
		return ErrInputQueueFull
	}
}

func (r *Session) loop(ctx context.Context) {
	logger := logging.FromContext(ctx).Named("game.Session.loop")
	defer close(r.done)

	select {
	case <-r.stop:
		r.halt()
		return
	default:
	}

	ticker := time.NewTicker(time.Second / time.Duration(r.engine.tuning.TickRate))
	defer ticker.Stop()

	var (
		waveTicker *time.Ticker
		waveCh     <-chan time.Time
	)
	defer func() {
		if waveTicker != nil {
			waveTicker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.halt()
			return
		case <-r.stop:
			r.halt()
			return
		case msg := <-r.inputCh:
			if err := r.guard(func() {
				r.engine.HandleInput(msg.playerID, msg.input, time.Now())
			}); err != nil {
				r.abort(logger, err)
				return
			}
		case now := <-waveCh:
			if err := r.guard(func() {
				r.engine.SpawnWave(now)
			}); err != nil {
				r.abort(logger, err)
				return
			}
		case now := <-ticker.C:
			var ended bool
			if err := r.guard(func() {
				ended = r.engine.Tick(now)
			}); err != nil {
				r.abort(logger, err)
				return
			}

			state := r.engine.Snapshot()
			if waveTicker == nil && state.Mode == ModeSwanSwarm && state.Status == StatusActive {
				waveTicker = time.NewTicker(state.Settings.WaveInterval)
				waveCh = waveTicker.C
			}

			if ended {
				r.finish(logger, state)
				return
			}

			r.publish(state)
			r.broadcast(EventSnapshot, state)
		}
	}
}

// guard runs fn and turns a panic into ErrTickPanic.
func (r *Session) guard(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrTickPanic, rec, debug.Stack())
		}
	}()
	fn()
	return nil
}

func (r *Session) finish(logger *zap.SugaredLogger, state GameState) {
	r.publish(state)
	logger.Infof("session %s round %d ended: winner %s reason %s", r.code, state.Round, state.Winner, state.WinReason)
	r.broadcast(EventEnded, EndedEvent{GameState: state, Banner: Banner(state)})
	if r.config.OnEnd != nil {
		r.config.OnEnd(state)
	}
}

// halt ends a game that is still running as STOPPED and announces it.
func (r *Session) halt() {
	if r.engine.Status() == StatusEnded {
		return
	}

	_ = r.guard(func() {
		r.engine.Halt(time.Now())
	})
	state := r.engine.Snapshot()
	r.publish(state)
	r.broadcast(EventStopped, state)
}

func (r *Session) abort(logger *zap.SugaredLogger, err error) {
	logger.Errorf("session %s aborted: %v", r.code, err)

	// the engine may be half-updated; only the end markers are touched
	_ = r.guard(func() {
		r.engine.Abort(time.Now())
	})
	state := r.engine.Snapshot()
	r.publish(state)

	r.broadcast(EventAborted, AbortedEvent{
		SessionCode: r.code,
		Round:       state.Round,
		Reason:      ErrTickPanic.Error(),
	})
	if r.config.OnAbort != nil {
		r.config.OnAbort(state, err)
	}
}

func (r *Session) publish(state GameState) {
	r.mtx.Lock()
	r.snapshot = state
	r.mtx.Unlock()
}

func (r *Session) broadcast(event string, payload interface{}) {
	if r.config.Broadcaster == nil {
		return
	}
	r.config.Broadcaster.Broadcast(r.code, event, payload)
}
