package audio

import (
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
)

const (
	EventTargetChanged = "audio:target-changed"
	EventStatus        = "audio:status"
	EventError         = "audio:error"
	EventCommand       = "audio:command"
)

type Action string

const (
	ActionPlay        Action = "play"
	ActionPause       Action = "pause"
	ActionResume      Action = "resume"
	ActionStop        Action = "stop"
	ActionRestartLast Action = "restartLast"
	ActionSeek        Action = "seek"
	ActionVolume      Action = "volume"
)

// preempts reports whether the action clears everything queued before it.
func (a Action) preempts() bool {
	return a == ActionPlay || a == ActionStop || a == ActionRestartLast
}

// Command is one playback intent as sent by a client and forwarded to the
// target.
type Command struct {
	Action     Action `json:"action"`
	TrackURI   string `json:"trackUri,omitempty"`
	TrackID    string `json:"trackId,omitempty"`
	PositionMs int64  `json:"positionMs,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Volume     *int   `json:"volume,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (c Command) validate() error {
	switch c.Action {
	case ActionPlay:
		if c.TrackURI == "" && c.TrackID == "" {
			return commandError(CodeInvalidCommand, false, "play needs trackUri or trackId")
		}
		if c.PositionMs < 0 || c.DurationMs < 0 {
			return commandError(CodeInvalidCommand, false, "negative position or duration")
		}
	case ActionSeek:
		if c.PositionMs < 0 {
			return commandError(CodeInvalidCommand, false, "negative position")
		}
	case ActionVolume:
		if c.Volume == nil || *c.Volume < 0 || *c.Volume > 100 {
			return commandError(CodeInvalidCommand, false, "volume must be within 0..100")
		}
	case ActionPause, ActionResume, ActionStop, ActionRestartLast:
	default:
		return commandError(CodeInvalidCommand, false, "unknown action %q", c.Action)
	}
	return nil
}

// trackURI resolves the playable uri, turning a bare track id into a provider uri.
func (c Command) trackURI() string {
	if c.TrackURI != "" {
		return c.TrackURI
	}
	if c.TrackID != "" {
		return "spotify:track:" + c.TrackID
	}
	return ""
}

func playFrom(last model.LastPlayable, reason string) Command {
	return Command{
		Action:     ActionPlay,
		TrackURI:   last.TrackURI,
		TrackID:    last.TrackID,
		PositionMs: last.PositionMs,
		DurationMs: last.DurationMs,
		Reason:     reason,
	}
}

// CommandEnvelope is the audio:command payload sent to a local target.
type CommandEnvelope struct {
	CommandID string  `json:"commandId"`
	Seq       int64   `json:"seq"`
	Attempt   int     `json:"attempt"`
	Command   Command `json:"command"`
}

type AckStatus string

const (
	AckOK   AckStatus = "ok"
	AckFail AckStatus = "fail"
)

// Ack is a target's confirmation for a dispatched command.
type Ack struct {
	CommandID       string    `json:"commandId"`
	Status          AckStatus `json:"status"`
	PositionMs      int64     `json:"positionMs,omitempty"`
	DurationMs      int64     `json:"durationMs,omitempty"`
	TrackURI        string    `json:"trackUri,omitempty"`
	Error           string    `json:"error,omitempty"`
	NeedsActivation bool      `json:"needsActivation,omitempty"`
}

type TargetChangedEvent struct {
	Kind       model.Kind `json:"kind"`
	ClientID   string     `json:"clientId,omitempty"`
	DeviceID   string     `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName,omitempty"`
	Version    int64      `json:"version"`
}

type StatusEvent struct {
	Playing    bool                 `json:"playing"`
	Status     model.PlaybackStatus `json:"status"`
	TrackURI   string               `json:"trackUri,omitempty"`
	PositionMs int64                `json:"positionMs"`
	DurationMs int64                `json:"durationMs,omitempty"`
	Version    int64                `json:"version"`
}

type ErrorEvent struct {
	Code            Code   `json:"code"`
	Message         string `json:"message"`
	NeedsActivation bool   `json:"needsActivation"`
	Action          Action `json:"action,omitempty"`
}

func targetChanged(s model.AudioTargetState) TargetChangedEvent {
	return TargetChangedEvent{
		Kind:       s.Kind,
		ClientID:   s.ClientID,
		DeviceID:   s.DeviceID,
		DeviceName: s.DeviceName,
		Version:    s.Version,
	}
}

func statusOf(s model.AudioTargetState) StatusEvent {
	ev := StatusEvent{
		Playing:    s.Status == model.PlaybackPlaying,
		Status:     s.Status,
		TrackURI:   s.CurrentTrackURI,
		PositionMs: s.CurrentPositionMs,
		Version:    s.Version,
	}
	if s.LastPlayable != nil && s.CurrentTrackURI != "" {
		ev.DurationMs = s.LastPlayable.DurationMs
	}
	return ev
}
