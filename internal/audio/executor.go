package audio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	"github.com/partyhost/partyhost/internal/logging"
	"github.com/partyhost/partyhost/internal/streaming"
)

// Executor carries out one command on a target of a given kind.
type Executor interface {
	Execute(ctx context.Context, target model.AudioTargetState, cmd Command) (Ack, error)
}

// Provider is the remote streaming API used by CONNECT_DEVICE targets.
type Provider interface {
	Play(ctx context.Context, deviceID string, req streaming.PlayRequest) error
	Pause(ctx context.Context, deviceID string) error
	Resume(ctx context.Context, deviceID string) error
	Seek(ctx context.Context, deviceID string, positionMs int64) error
	SetVolume(ctx context.Context, deviceID string, percent int) error
}

// localExecutor sends the command to the target's browser and waits for its
// ACK, retrying with identical parameters on timeout.
type localExecutor struct {
	transport Transport
	acks      *Acks
	timeout   time.Duration
	retries   int
}

func (x *localExecutor) Execute(ctx context.Context, target model.AudioTargetState, cmd Command) (Ack, error) {
	logger := logging.FromContext(ctx).Named("audio.localExecutor.Execute")
	code := target.SessionCode

	envelope := CommandEnvelope{
		CommandID: uuid.New().String(),
		Seq:       x.acks.NextSeq(code),
		Command:   cmd,
	}
	p := x.acks.register(code, target.ClientID, envelope.CommandID)

	attempts := 1 + x.retries
	for attempt := 1; attempt <= attempts; attempt++ {
		envelope.Attempt = attempt
		if err := x.transport.SendTo(code, target.ClientID, EventCommand, envelope); err != nil {
			x.acks.forget(envelope.CommandID)
			return Ack{}, &CommandError{Code: CodeNoClient, NeedsActivation: true, Err: err}
		}

		ack, err := x.acks.wait(ctx, p, x.timeout)
		switch {
		case err == nil:
			if ack.Status != AckOK {
				return ack, &CommandError{
					Code:            CodeClientFailed,
					NeedsActivation: ack.NeedsActivation,
					Err:             fmt.Errorf("client rejected %s: %s", cmd.Action, ack.Error),
				}
			}
			return ack, nil
		case errors.Is(err, errAckTimeout):
			logger.Warnf("session %s command %s seq %d attempt %d: no ACK", code, cmd.Action, envelope.Seq, attempt)
			continue
		default:
			return Ack{}, err
		}
	}

	x.acks.forget(envelope.CommandID)
	return Ack{}, commandError(CodeAckTimeout, false, "no ACK after %d attempts", attempts)
}

// remoteExecutor drives a provider device directly; there is no confirmation
// step on this path.
type remoteExecutor struct {
	provider Provider
}

func (x *remoteExecutor) Execute(ctx context.Context, target model.AudioTargetState, cmd Command) (Ack, error) {
	if x.provider == nil {
		return Ack{}, commandError(CodeRemoteAPI, false, "streaming provider is not configured")
	}

	var err error
	device := target.DeviceID
	switch cmd.Action {
	case ActionPlay:
		err = x.provider.Play(ctx, device, streaming.PlayRequest{
			URIs:       []string{cmd.trackURI()},
			PositionMs: cmd.PositionMs,
		})
	case ActionPause, ActionStop:
		err = x.provider.Pause(ctx, device)
	case ActionResume:
		err = x.provider.Resume(ctx, device)
	case ActionSeek:
		err = x.provider.Seek(ctx, device, cmd.PositionMs)
	case ActionVolume:
		err = x.provider.SetVolume(ctx, device, *cmd.Volume)
	default:
		return Ack{}, commandError(CodeInvalidCommand, false, "unsupported action %q", cmd.Action)
	}
	if err != nil {
		return Ack{}, &CommandError{Code: CodeRemoteAPI, Err: err}
	}

	return Ack{Status: AckOK, TrackURI: cmd.trackURI(), PositionMs: cmd.PositionMs}, nil
}
