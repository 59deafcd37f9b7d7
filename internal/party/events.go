package party

import (
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	"github.com/partyhost/partyhost/internal/game"
)

// inbound
const (
	EventGameStart       = "game:start"
	EventGameInput       = "game:input"
	EventGameStop        = "game:stop"
	EventGameNextRound   = "game:next-round"
	EventSessionEnd      = "session:end"
	EventAudioRegister   = "audio:register"
	EventAudioHeartbeat  = "audio:heartbeat"
	EventAudioUnregister = "audio:unregister"
	EventAudioDisable    = "audio:disable"
	EventAudioCommand    = "audio:command"
	EventAudioAck        = "audio:ack"
)

// outbound
const (
	EventSessionEnded = "session:ended"
)

// rejection codes sent to the caller only
const (
	CodeBadPayload   = "BAD_PAYLOAD"
	CodeUnknownEvent = "UNKNOWN_EVENT"
	CodeNotHost      = "NOT_HOST"
	CodeGameRunning  = "GAME_RUNNING"
	CodeNoGame       = "NO_GAME"
	CodeInvalidGame  = "INVALID_GAME"
	CodeTargetBusy   = "TARGET_BUSY"
	CodeNotTarget    = "NOT_TARGET"
	CodeInvalidKind  = "INVALID_KIND"
	CodeInternal     = "INTERNAL"
)

type StartRequest struct {
	Mode         string               `json:"mode"`
	Participants []game.Participant   `json:"participants"`
	DurationSec  int                  `json:"durationSec,omitempty"`
	Teams        map[string]game.Team `json:"teams,omitempty"`
}

type NextRoundRequest struct {
	Teams map[string]game.Team `json:"teams,omitempty"`
}

type RegisterRequest struct {
	Kind       model.Kind `json:"kind"`
	DeviceID   string     `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName,omitempty"`
	Force      bool       `json:"force,omitempty"`
}

type SessionEndedEvent struct {
	SessionCode string `json:"sessionCode"`
}
