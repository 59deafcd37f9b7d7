package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	targetDb "github.com/partyhost/partyhost/internal/database/audiotarget/database"
	"github.com/partyhost/partyhost/internal/database/audiotarget/model"
	"github.com/partyhost/partyhost/internal/logging"
)

// Store persists one AudioTargetState per session.
type Store interface {
	Fetch(code string) (model.AudioTargetState, error)
	Store(state model.AudioTargetState) error
	Delete(code string) error
}

// Transport addresses the connected clients of a session.
type Transport interface {
	Broadcast(code, event string, payload interface{})
	SendTo(code, clientID, event string, payload interface{}) error
	IsConnected(code, clientID string) bool
}

type clearer interface {
	Clear(code string)
}

type RegisterRequest struct {
	Kind       model.Kind `json:"kind"`
	ClientID   string     `json:"clientId"`
	DeviceID   string     `json:"deviceId,omitempty"`
	DeviceName string     `json:"deviceName,omitempty"`
	Force      bool       `json:"force,omitempty"`
}

func newRegistry(store Store, transport Transport, staleAfter time.Duration, clr clearer) *Registry {
	return &Registry{
		store:      store,
		transport:  transport,
		staleAfter: staleAfter,
		clearer:    clr,
		locks:      map[string]*sessionLock{},
		now:        time.Now,
	}
}

// Registry decides which client is the authoritative sound producer of a
// session. Every read-modify-write of a session's state holds its lock.
type Registry struct {
	store      Store
	transport  Transport
	staleAfter time.Duration
	clearer    clearer

	mtx   sync.Mutex
	locks map[string]*sessionLock
	now   func() time.Time
}

// sessionLock serializes writers of one session. It is dropped from the map
// once nobody holds or waits on it.
type sessionLock struct {
	sync.Mutex
	refs int
}

func (r *Registry) lock(code string) func() {
	r.mtx.Lock()
	l, ok := r.locks[code]
	if !ok {
		l = &sessionLock{}
		r.locks[code] = l
	}
	l.refs++
	r.mtx.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		r.mtx.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, code)
		}
		r.mtx.Unlock()
	}
}

// State returns the current target, NONE when nothing is stored.
func (r *Registry) State(code string) (model.AudioTargetState, error) {
	unlock := r.lock(code)
	defer unlock()
	return r.load(code)
}

func (r *Registry) load(code string) (model.AudioTargetState, error) {
	state, err := r.store.Fetch(code)
	if errors.Is(err, targetDb.ErrNotFound) {
		return model.NewState(code), nil
	}
	if err != nil {
		return model.AudioTargetState{}, fmt.Errorf("fetch audio target: %w", err)
	}
	return state, nil
}

// update applies fn to the session's state under its lock and stores the
// result unless fn fails.
func (r *Registry) update(code string, fn func(*model.AudioTargetState) error) (model.AudioTargetState, error) {
	unlock := r.lock(code)
	defer unlock()

	state, err := r.load(code)
	if err != nil {
		return model.AudioTargetState{}, err
	}

	if err := fn(&state); err != nil {
		return model.AudioTargetState{}, err
	}

	if err := r.store.Store(state); err != nil {
		return model.AudioTargetState{}, fmt.Errorf("store audio target: %w", err)
	}

	return state, nil
}

// Register installs a client as the session's target. The holder is replaced
// when it is absent, has the same role (a reconnect), stopped heartbeating or
// the request forces a takeover.
func (r *Registry) Register(ctx context.Context, code string, req RegisterRequest) (model.AudioTargetState, error) {
	logger := logging.FromContext(ctx).Named("audio.Registry.Register")

	switch req.Kind {
	case model.KindHost, model.KindDisplay:
	case model.KindConnectDevice:
		if req.DeviceID == "" {
			return model.AudioTargetState{}, fmt.Errorf("%w: connect device needs a device id", ErrInvalidKind)
		}
	default:
		return model.AudioTargetState{}, fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	if req.ClientID == "" {
		return model.AudioTargetState{}, fmt.Errorf("%w: empty client id", ErrInvalidKind)
	}

	var replaced bool
	state, err := r.update(code, func(s *model.AudioTargetState) error {
		now := r.now()
		if s.Kind != model.KindNone && s.Kind != req.Kind && s.Alive(now, r.staleAfter) && !req.Force {
			return fmt.Errorf("%w: %s %s", ErrTargetBusy, s.Kind, s.ClientID)
		}

		replaced = s.Kind != model.KindNone
		sameClient := s.ClientID == req.ClientID && s.Kind == req.Kind
		if replaced && r.clearer != nil {
			r.clearer.Clear(code)
		}

		if !sameClient {
			s.Status = model.PlaybackStopped
			s.CurrentTrackURI = ""
			s.CurrentPositionMs = 0
		}
		s.Kind = req.Kind
		s.ClientID = req.ClientID
		s.DeviceID = req.DeviceID
		s.DeviceName = req.DeviceName
		s.LastHeartbeat = now
		s.Version++
		return nil
	})
	if err != nil {
		return model.AudioTargetState{}, err
	}

	logger.Infof("session %s audio target %s client %s version %d (replaced %t)", code, state.Kind, state.ClientID, state.Version, replaced)
	r.transport.Broadcast(code, EventTargetChanged, targetChanged(state))
	return state, nil
}

// RegisterConnectDevice installs a remote provider device, driven through the
// streaming API, on behalf of clientID.
func (r *Registry) RegisterConnectDevice(ctx context.Context, code, clientID, deviceID, deviceName string, force bool) (model.AudioTargetState, error) {
	return r.Register(ctx, code, RegisterRequest{
		Kind:       model.KindConnectDevice,
		ClientID:   clientID,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		Force:      force,
	})
}

// Heartbeat refreshes the holder's liveness. It does not bump the version.
func (r *Registry) Heartbeat(ctx context.Context, code, clientID string) error {
	_, err := r.update(code, func(s *model.AudioTargetState) error {
		if s.Kind == model.KindNone || s.ClientID != clientID {
			return ErrNotTarget
		}
		s.LastHeartbeat = r.now()
		return nil
	})
	return err
}

// Unregister drops the target when clientID holds it.
func (r *Registry) Unregister(ctx context.Context, code, clientID string) (model.AudioTargetState, error) {
	return r.reset(ctx, code, func(s *model.AudioTargetState) error {
		if s.Kind == model.KindNone || s.ClientID != clientID {
			return ErrNotTarget
		}
		return nil
	})
}

// Disable drops whatever target the session has.
func (r *Registry) Disable(ctx context.Context, code string) (model.AudioTargetState, error) {
	return r.reset(ctx, code, func(*model.AudioTargetState) error { return nil })
}

func (r *Registry) reset(ctx context.Context, code string, check func(*model.AudioTargetState) error) (model.AudioTargetState, error) {
	logger := logging.FromContext(ctx).Named("audio.Registry.reset")

	state, err := r.update(code, func(s *model.AudioTargetState) error {
		if err := check(s); err != nil {
			return err
		}
		if r.clearer != nil {
			r.clearer.Clear(code)
		}
		s.Reset()
		return nil
	})
	if err != nil {
		return model.AudioTargetState{}, err
	}

	logger.Infof("session %s audio target reset, version %d", code, state.Version)
	r.transport.Broadcast(code, EventTargetChanged, targetChanged(state))
	return state, nil
}

// Forget deletes the session's state.
func (r *Registry) Forget(code string) error {
	unlock := r.lock(code)
	err := r.store.Delete(code)
	unlock()

	if err != nil {
		return fmt.Errorf("delete audio target: %w", err)
	}
	return nil
}
