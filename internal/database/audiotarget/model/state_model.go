package model

import "time"

type Kind string

const (
	KindNone          Kind = "NONE"
	KindHost          Kind = "HOST"
	KindDisplay       Kind = "DISPLAY"
	KindConnectDevice Kind = "CONNECT_DEVICE"
)

// Local reports whether the target executes commands in a connected browser.
func (k Kind) Local() bool {
	return k == KindHost || k == KindDisplay
}

type PlaybackStatus string

const (
	PlaybackStopped PlaybackStatus = "STOPPED"
	PlaybackPlaying PlaybackStatus = "PLAYING"
	PlaybackPaused  PlaybackStatus = "PAUSED"
)

// LastPlayable is the most recent play intent, replayed by a restart.
type LastPlayable struct {
	TrackURI   string `json:"trackUri,omitempty"`
	TrackID    string `json:"trackId,omitempty"`
	PositionMs int64  `json:"positionMs"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// AudioTargetState records which client produces sound for a session.
type AudioTargetState struct {
	SessionCode   string         `json:"sessionCode"`
	Kind          Kind           `json:"kind"`
	ClientID      string         `json:"clientId,omitempty"`
	DeviceID      string         `json:"deviceId,omitempty"`
	DeviceName    string         `json:"deviceName,omitempty"`
	LastHeartbeat time.Time      `json:"lastHeartbeat"`
	Version       int64          `json:"version"`
	Status        PlaybackStatus `json:"status"`

	CurrentTrackURI   string        `json:"currentTrackUri,omitempty"`
	CurrentPositionMs int64         `json:"currentPositionMs"`
	LastPlayable      *LastPlayable `json:"lastPlayable,omitempty"`
}

// NewState returns the initial NONE target for a session.
func NewState(code string) AudioTargetState {
	return AudioTargetState{
		SessionCode: code,
		Kind:        KindNone,
		Status:      PlaybackStopped,
	}
}

// Reset drops the target and bumps the version. The last playable survives so
// a later target can restart it.
func (s *AudioTargetState) Reset() {
	s.Kind = KindNone
	s.ClientID = ""
	s.DeviceID = ""
	s.DeviceName = ""
	s.LastHeartbeat = time.Time{}
	s.Status = PlaybackStopped
	s.CurrentTrackURI = ""
	s.CurrentPositionMs = 0
	s.Version++
}

// Alive reports whether the holder heartbeated within staleAfter.
func (s *AudioTargetState) Alive(now time.Time, staleAfter time.Duration) bool {
	if s.Kind == KindNone {
		return false
	}

	return now.Sub(s.LastHeartbeat) <= staleAfter
}
