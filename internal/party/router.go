package party

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/partyhost/partyhost/internal/audio"
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	"github.com/partyhost/partyhost/internal/game"
	"github.com/partyhost/partyhost/internal/hub"
	"github.com/partyhost/partyhost/internal/logging"
)

var _ hub.Router = (*Manager)(nil)

// Route dispatches one client frame. Rejections go back to the sender only.
// Audio commands are queued here and complete asynchronously, since their ACK
// arrives through this same read loop.
func (m *Manager) Route(ctx context.Context, msg hub.Message) {
	logger := logging.FromContext(ctx).Named("party.Manager.Route")
	code, clientID := msg.SessionCode, msg.ClientID

	var err error
	switch msg.Type {
	case EventGameStart:
		var req StartRequest
		if err = decode(msg, &req); err == nil {
			_, err = m.Start(ctx, code, clientID, req)
		}
	case EventGameInput:
		var in game.Input
		if err = decode(msg, &in); err == nil {
			if err := m.Input(code, clientID, in); err != nil {
				logger.Debugf("session %s input of %s dropped: %v", code, clientID, err)
			}
		}
	case EventGameStop:
		err = m.StopGame(ctx, code, clientID)
	case EventGameNextRound:
		var req NextRoundRequest
		if err = decode(msg, &req); err == nil {
			_, err = m.NextRound(ctx, code, clientID, req.Teams)
		}
	case EventSessionEnd:
		err = m.End(ctx, code, clientID)
	case EventAudioRegister:
		var req RegisterRequest
		if err = decode(msg, &req); err == nil {
			m.touch(code)
			_, err = m.audio.Registry().Register(ctx, code, audio.RegisterRequest{
				Kind:       req.Kind,
				ClientID:   clientID,
				DeviceID:   req.DeviceID,
				DeviceName: req.DeviceName,
				Force:      req.Force,
			})
		}
	case EventAudioHeartbeat:
		m.touch(code)
		err = m.audio.Registry().Heartbeat(ctx, code, clientID)
	case EventAudioUnregister:
		_, err = m.audio.Registry().Unregister(ctx, code, clientID)
	case EventAudioDisable:
		_, err = m.audio.Registry().Disable(ctx, code)
	case EventAudioCommand:
		var cmd audio.Command
		if err = decode(msg, &cmd); err == nil {
			m.touch(code)
			err = m.audio.Submit(context.WithoutCancel(ctx), code, cmd, func(_ model.AudioTargetState, err error) {
				var cmdErr *audio.CommandError
				if errors.As(err, &cmdErr) && cmdErr.Local() {
					m.reject(ctx, msg, err)
				}
			})
		}
	case EventAudioAck:
		var ack audio.Ack
		if err = decode(msg, &ack); err == nil {
			if !m.audio.HandleAck(code, clientID, ack) {
				logger.Debugf("session %s: stale ack %s from %s", code, ack.CommandID, clientID)
			}
		}
	default:
		err = errUnknownEvent
	}

	if err != nil {
		m.reject(ctx, msg, err)
	}
}

// Disconnected fails the in-flight audio commands of a target that went away.
func (m *Manager) Disconnected(ctx context.Context, code, clientID string) {
	m.audio.ClientDisconnected(ctx, code, clientID)
}

var (
	errUnknownEvent = errors.New("unknown event")
	errBadPayload   = errors.New("malformed payload")
)

func decode(msg hub.Message, v interface{}) error {
	if len(msg.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return errBadPayload
	}
	return nil
}

func (m *Manager) reject(ctx context.Context, msg hub.Message, err error) {
	logger := logging.FromContext(ctx).Named("party.Manager.reject")

	event := hub.ErrorEvent{Code: rejectCode(err), Message: err.Error(), Type: msg.Type}
	if sendErr := m.transport.SendTo(msg.SessionCode, msg.ClientID, hub.EventError, event); sendErr != nil {
		logger.Debugf("session %s: reject %s to %s: %v", msg.SessionCode, msg.Type, msg.ClientID, sendErr)
	}
}

func rejectCode(err error) string {
	var cmdErr *audio.CommandError
	switch {
	case errors.As(err, &cmdErr):
		return string(cmdErr.Code)
	case errors.Is(err, errBadPayload):
		return CodeBadPayload
	case errors.Is(err, errUnknownEvent):
		return CodeUnknownEvent
	case errors.Is(err, ErrNotHost):
		return CodeNotHost
	case errors.Is(err, ErrGameRunning):
		return CodeGameRunning
	case errors.Is(err, ErrNoGame), errors.Is(err, ErrUnknownParty):
		return CodeNoGame
	case errors.Is(err, ErrNotRounds),
		errors.Is(err, game.ErrUnknownMode),
		errors.Is(err, game.ErrModeNotImplemented),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrDuplicatePlayer),
		errors.Is(err, game.ErrInvalidTeam):
		return CodeInvalidGame
	case errors.Is(err, audio.ErrTargetBusy):
		return CodeTargetBusy
	case errors.Is(err, audio.ErrNotTarget):
		return CodeNotTarget
	case errors.Is(err, audio.ErrInvalidKind):
		return CodeInvalidKind
	default:
		return CodeInternal
	}
}
