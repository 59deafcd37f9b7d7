package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/partyhost/partyhost/internal/cache"
	targetDb "github.com/partyhost/partyhost/internal/database/audiotarget/database"
	"github.com/partyhost/partyhost/internal/database/databasetest"
	"github.com/stretchr/testify/require"
)

const testCode = "QUIZ"

var errGone = errors.New("client gone")

type sent struct {
	code     string
	clientID string
	event    string
	payload  interface{}
}

// fakeTransport records traffic; onCommand, when set, answers audio:command
// envelopes asynchronously the way a browser target would.
type fakeTransport struct {
	mtx        sync.Mutex
	connected  map[string]bool
	sent       []sent
	broadcasts []sent
	onCommand  func(clientID string, env CommandEnvelope)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{connected: map[string]bool{}}
}

func (f *fakeTransport) connect(clientID string) {
	f.mtx.Lock()
	f.connected[clientID] = true
	f.mtx.Unlock()
}

func (f *fakeTransport) setOnCommand(fn func(clientID string, env CommandEnvelope)) {
	f.mtx.Lock()
	f.onCommand = fn
	f.mtx.Unlock()
}

func (f *fakeTransport) Broadcast(code, event string, payload interface{}) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.broadcasts = append(f.broadcasts, sent{code: code, event: event, payload: payload})
}

func (f *fakeTransport) SendTo(code, clientID, event string, payload interface{}) error {
	f.mtx.Lock()
	if !f.connected[clientID] {
		f.mtx.Unlock()
		return errGone
	}
	f.sent = append(f.sent, sent{code: code, clientID: clientID, event: event, payload: payload})
	onCommand := f.onCommand
	f.mtx.Unlock()

	if env, ok := payload.(CommandEnvelope); ok && onCommand != nil {
		go onCommand(clientID, env)
	}
	return nil
}

func (f *fakeTransport) IsConnected(code, clientID string) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.connected[clientID]
}

func (f *fakeTransport) commands() []CommandEnvelope {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	var out []CommandEnvelope
	for _, s := range f.sent {
		if env, ok := s.payload.(CommandEnvelope); ok {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeTransport) events(event string) []interface{} {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	var out []interface{}
	for _, b := range f.broadcasts {
		if b.event == event {
			out = append(out, b.payload)
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		AckTimeout:          50 * time.Millisecond,
		AckRetries:          1,
		HeartbeatStaleAfter: 15 * time.Second,
		TTL:                 time.Hour,
	}
}

func newTestOrchestrator(t *testing.T, provider Provider) (*Orchestrator, *fakeTransport) {
	t.Helper()

	lru, err := cache.NewLRU[targetDb.Entry](16)
	require.NoError(t, err)
	store := targetDb.New(databasetest.New(t), lru, time.Hour)

	transport := newFakeTransport()
	return NewOrchestrator(testConfig(), store, transport, provider), transport
}

// autoAck confirms every command with ok.
func autoAck(o *Orchestrator) func(string, CommandEnvelope) {
	return func(clientID string, env CommandEnvelope) {
		o.HandleAck(testCode, clientID, Ack{CommandID: env.CommandID, Status: AckOK})
	}
}
