package audio

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNoTarget       Code = "NO_TARGET"
	CodeNoClient       Code = "NO_CLIENT"
	CodeAckTimeout     Code = "ACK_TIMEOUT"
	CodeRemoteAPI      Code = "REMOTE_API"
	CodeNoLastPlayable Code = "NO_LAST_PLAYABLE"
	CodeInvalidCommand Code = "INVALID_COMMAND"
	CodeClientFailed   Code = "CLIENT_FAILED"
	// CodeInternal covers store and other server-side failures.
	CodeInternal Code = "INTERNAL"
)

var (
	// ErrCleared rejects a command superseded by a newer play/stop or a
	// target change. It is not a failure and is never broadcast.
	ErrCleared = errors.New("command cleared")

	ErrTargetBusy  = errors.New("audio target is held by another live client")
	ErrNotTarget   = errors.New("client is not the audio target")
	ErrInvalidKind = errors.New("invalid audio target kind")
)

// CommandError is a typed dispatch failure.
type CommandError struct {
	Code            Code
	NeedsActivation bool
	Err             error
}

func (e *CommandError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Local reports whether only the caller should hear about the failure.
func (e *CommandError) Local() bool {
	return e.Code == CodeInvalidCommand || e.Code == CodeNoLastPlayable
}

func commandError(code Code, activation bool, format string, args ...interface{}) *CommandError {
	return &CommandError{Code: code, NeedsActivation: activation, Err: fmt.Errorf(format, args...)}
}
