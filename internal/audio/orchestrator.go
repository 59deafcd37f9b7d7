// Package audio decides which client produces sound for a session and routes
// playback commands to it.
package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	"github.com/partyhost/partyhost/internal/logging"
)

const autoPauseReason = "auto-pause"

type Config struct {
	AckTimeout          time.Duration `envconfig:"AUDIO_ACK_TIMEOUT" default:"30s"`
	AckRetries          int           `envconfig:"AUDIO_ACK_RETRIES" default:"1"`
	HeartbeatStaleAfter time.Duration `envconfig:"AUDIO_HEARTBEAT_STALE_AFTER" default:"15s"`
	TTL                 time.Duration `envconfig:"AUDIO_TTL" default:"24h"`
}

func NewOrchestrator(config Config, store Store, transport Transport, provider Provider) *Orchestrator {
	acks := NewAcks()
	o := &Orchestrator{
		config:    config,
		transport: transport,
		acks:      acks,
		queues:    newQueues(),
		timers:    newAutoPauses(),
	}

	local := &localExecutor{transport: transport, acks: acks, timeout: config.AckTimeout, retries: config.AckRetries}
	o.executors = map[model.Kind]Executor{
		model.KindHost:          local,
		model.KindDisplay:       local,
		model.KindConnectDevice: &remoteExecutor{provider: provider},
	}
	o.registry = newRegistry(store, transport, config.HeartbeatStaleAfter, o)

	return o
}

// Orchestrator runs each session's commands one at a time against its
// registered target.
type Orchestrator struct {
	config    Config
	transport Transport
	registry  *Registry
	acks      *Acks
	queues    *queues
	timers    *autoPauses
	executors map[model.Kind]Executor
}

type result struct {
	state model.AudioTargetState
	err   error
}

func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

func (o *Orchestrator) Play(ctx context.Context, code string, cmd Command) (model.AudioTargetState, error) {
	cmd.Action = ActionPlay
	return o.Execute(ctx, code, cmd)
}

func (o *Orchestrator) Pause(ctx context.Context, code string) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionPause})
}

func (o *Orchestrator) Resume(ctx context.Context, code string) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionResume})
}

func (o *Orchestrator) Stop(ctx context.Context, code string) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionStop})
}

func (o *Orchestrator) RestartLast(ctx context.Context, code string) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionRestartLast})
}

func (o *Orchestrator) Seek(ctx context.Context, code string, positionMs int64) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionSeek, PositionMs: positionMs})
}

func (o *Orchestrator) Volume(ctx context.Context, code string, percent int) (model.AudioTargetState, error) {
	return o.Execute(ctx, code, Command{Action: ActionVolume, Volume: &percent})
}

// Execute queues cmd behind the session's earlier commands and waits for its
// outcome.
func (o *Orchestrator) Execute(ctx context.Context, code string, cmd Command) (model.AudioTargetState, error) {
	done := make(chan result, 1)
	if err := o.Submit(ctx, code, cmd, func(state model.AudioTargetState, err error) {
		done <- result{state: state, err: err}
	}); err != nil {
		return model.AudioTargetState{}, err
	}

	select {
	case res := <-done:
		return res.state, res.err
	case <-ctx.Done():
		return model.AudioTargetState{}, ctx.Err()
	}
}

// Submit validates cmd and queues it without waiting. A play, stop or restart
// first clears everything still pending. Failures other than ErrCleared and
// input errors are broadcast to the session; callback, when set, receives the
// outcome and must not block.
func (o *Orchestrator) Submit(ctx context.Context, code string, cmd Command, callback func(model.AudioTargetState, error)) error {
	logger := logging.FromContext(ctx).Named("audio.Orchestrator.Submit")

	if err := cmd.validate(); err != nil {
		return err
	}
	if callback == nil {
		callback = func(model.AudioTargetState, error) {}
	}

	preempt := cmd.Action.preempts()
	if preempt {
		o.timers.cancel(code)
		if n := o.acks.Clear(code); n > 0 {
			logger.Infof("session %s: %s cleared %d pending commands", code, cmd.Action, n)
		}
	}

	o.queues.get(code).push(&job{
		ctx: ctx,
		run: func(ctx context.Context, gen uint64) {
			state, err := o.run(ctx, code, gen, cmd)
			if err != nil {
				o.report(ctx, code, cmd, err)
			}
			callback(state, err)
		},
		drop: func() {
			callback(model.AudioTargetState{}, ErrCleared)
		},
	}, preempt)

	return nil
}

func (o *Orchestrator) run(ctx context.Context, code string, gen uint64, cmd Command) (model.AudioTargetState, error) {
	q := o.queues.get(code)
	if q.generation() != gen {
		return model.AudioTargetState{}, ErrCleared
	}

	target, err := o.registry.State(code)
	if err != nil {
		return model.AudioTargetState{}, err
	}
	if target.Kind == model.KindNone {
		return model.AudioTargetState{}, commandError(CodeNoTarget, true, "session %s has no audio target", code)
	}

	if cmd.Action == ActionRestartLast {
		if target.LastPlayable == nil {
			return model.AudioTargetState{}, commandError(CodeNoLastPlayable, false, "nothing was played yet")
		}
		cmd = playFrom(*target.LastPlayable, cmd.Reason)
	}

	if target.Kind.Local() && !o.transport.IsConnected(code, target.ClientID) {
		return model.AudioTargetState{}, commandError(CodeNoClient, true, "target client %s is not connected", target.ClientID)
	}

	ack, err := o.executors[target.Kind].Execute(ctx, target, cmd)
	if err != nil {
		if q.generation() != gen {
			return model.AudioTargetState{}, ErrCleared
		}
		return model.AudioTargetState{}, err
	}

	if cmd.Action == ActionSeek || cmd.Action == ActionVolume {
		return target, nil
	}

	state, err := o.registry.update(code, func(s *model.AudioTargetState) error {
		if q.generation() != gen || s.Kind != target.Kind || s.ClientID != target.ClientID {
			return ErrCleared
		}
		apply(s, cmd, ack)
		return nil
	})
	if err != nil {
		return model.AudioTargetState{}, err
	}

	o.transport.Broadcast(code, EventStatus, statusOf(state))

	if cmd.Action == ActionPlay && cmd.DurationMs > 0 {
		pauseCtx := context.WithoutCancel(ctx)
		o.timers.arm(code, time.Duration(cmd.DurationMs)*time.Millisecond, func() bool {
			return q.generation() == gen
		}, func() {
			o.autoPause(pauseCtx, code)
		})
	}

	return state, nil
}

func apply(s *model.AudioTargetState, cmd Command, ack Ack) {
	switch cmd.Action {
	case ActionPlay:
		s.Status = model.PlaybackPlaying
		s.CurrentTrackURI = cmd.trackURI()
		if ack.TrackURI != "" {
			s.CurrentTrackURI = ack.TrackURI
		}
		s.CurrentPositionMs = cmd.PositionMs
		if ack.PositionMs > 0 {
			s.CurrentPositionMs = ack.PositionMs
		}
		s.LastPlayable = &model.LastPlayable{
			TrackURI:   cmd.TrackURI,
			TrackID:    cmd.TrackID,
			PositionMs: cmd.PositionMs,
			DurationMs: cmd.DurationMs,
		}
	case ActionPause:
		s.Status = model.PlaybackPaused
		if ack.PositionMs > 0 {
			s.CurrentPositionMs = ack.PositionMs
		}
	case ActionResume:
		s.Status = model.PlaybackPlaying
	case ActionStop:
		s.Status = model.PlaybackStopped
		s.CurrentTrackURI = ""
		s.CurrentPositionMs = 0
	}
	s.Version++
}

func (o *Orchestrator) autoPause(ctx context.Context, code string) {
	logger := logging.FromContext(ctx).Named("audio.Orchestrator.autoPause")
	if _, err := o.Execute(ctx, code, Command{Action: ActionPause, Reason: autoPauseReason}); err != nil && !errors.Is(err, ErrCleared) {
		logger.Warnf("session %s auto-pause: %v", code, err)
	}
}

func (o *Orchestrator) report(ctx context.Context, code string, cmd Command, err error) {
	logger := logging.FromContext(ctx).Named("audio.Orchestrator.report")
	if errors.Is(err, ErrCleared) {
		return
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		logger.Errorf("session %s %s: %v", code, cmd.Action, err)
		cmdErr = &CommandError{Code: CodeInternal, Err: err}
	}
	if cmdErr.Local() {
		return
	}

	logger.Warnf("session %s %s failed: %v", code, cmd.Action, cmdErr)
	o.transport.Broadcast(code, EventError, ErrorEvent{
		Code:            cmdErr.Code,
		Message:         cmdErr.Error(),
		NeedsActivation: cmdErr.NeedsActivation,
		Action:          cmd.Action,
	})
}

// HandleAck resolves a pending command. Stale or foreign ACKs are ignored.
func (o *Orchestrator) HandleAck(code, clientID string, ack Ack) bool {
	return o.acks.Resolve(code, clientID, ack)
}

// Clear rejects every pending command of the session with ErrCleared, drops
// queued commands and disarms the auto-pause.
func (o *Orchestrator) Clear(code string) {
	o.acks.Clear(code)
	o.queues.get(code).clear()
	o.timers.cancel(code)
}

// ClientDisconnected fails the in-flight commands of a target whose socket
// went away instead of letting them time out.
func (o *Orchestrator) ClientDisconnected(ctx context.Context, code, clientID string) {
	logger := logging.FromContext(ctx).Named("audio.Orchestrator.ClientDisconnected")

	target, err := o.registry.State(code)
	if err != nil {
		logger.Errorf("session %s: %v", code, err)
		return
	}
	if target.ClientID != clientID || !target.Kind.Local() {
		return
	}

	failed := o.acks.Fail(code, clientID, commandError(CodeNoClient, true, "target client %s disconnected", clientID))
	if failed > 0 {
		logger.Infof("session %s: failed %d commands of disconnected target %s", code, failed, clientID)
	}
}

// Forget clears and deletes everything held for the session.
func (o *Orchestrator) Forget(code string) error {
	o.Clear(code)
	o.queues.forget(code)
	if err := o.registry.Forget(code); err != nil {
		return fmt.Errorf("forget %s: %w", code, err)
	}
	return nil
}
