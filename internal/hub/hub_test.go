package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type disconnect struct {
	code     string
	clientID string
}

type fakeRouter struct {
	messages     chan Message
	disconnected chan disconnect
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		messages:     make(chan Message, 16),
		disconnected: make(chan disconnect, 4),
	}
}

func (r *fakeRouter) Route(_ context.Context, msg Message) {
	r.messages <- msg
}

func (r *fakeRouter) Disconnected(_ context.Context, code, clientID string) {
	r.disconnected <- disconnect{code: code, clientID: clientID}
}

func newTestHub(t *testing.T, config Config) (*Hub, *fakeRouter, string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := New(config)
	router := newFakeRouter()
	srv := httptest.NewServer(h.Handler(ctx, router))
	t.Cleanup(srv.Close)

	return h, router, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, query string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url+"/ws?"+query, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func readHello(t *testing.T, conn *websocket.Conn) HelloEvent {
	t.Helper()

	f := readFrame(t, conn)
	require.Equal(t, EventHello, f.Type)

	var hello HelloEvent
	require.NoError(t, json.Unmarshal(f.Payload, &hello))
	return hello
}

func TestHelloAndGeneratedClientID(t *testing.T) {
	t.Parallel()

	h, _, url := newTestHub(t, Config{})

	hello := readHello(t, dial(t, url, "session=QUIZ&client=host"))
	assert.Equal(t, HelloEvent{SessionCode: "QUIZ", ClientID: "host"}, hello)
	assert.True(t, h.IsConnected("QUIZ", "host"))

	hello = readHello(t, dial(t, url, "session=QUIZ"))
	assert.NotEmpty(t, hello.ClientID)
	assert.True(t, h.IsConnected("QUIZ", hello.ClientID))
	assert.Len(t, h.Clients("QUIZ"), 2)
}

func TestMissingSession(t *testing.T) {
	t.Parallel()

	_, _, url := newTestHub(t, Config{})

	_, resp, err := websocket.DefaultDialer.Dial(url+"/ws?client=host", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

func TestBroadcastAndSendTo(t *testing.T) {
	t.Parallel()

	h, _, url := newTestHub(t, Config{})

	host := dial(t, url, "session=QUIZ&client=host")
	readHello(t, host)
	tv := dial(t, url, "session=QUIZ&client=tv")
	readHello(t, tv)
	other := dial(t, url, "session=OTHER&client=host")
	readHello(t, other)

	h.Broadcast("QUIZ", "game:snapshot", map[string]int{"round": 1})
	for _, conn := range []*websocket.Conn{host, tv} {
		f := readFrame(t, conn)
		assert.Equal(t, "game:snapshot", f.Type)
		assert.JSONEq(t, `{"round":1}`, string(f.Payload))
	}

	require.NoError(t, h.SendTo("QUIZ", "tv", "audio:command", map[string]string{"commandId": "c1"}))
	f := readFrame(t, tv)
	assert.Equal(t, "audio:command", f.Type)

	err := h.SendTo("QUIZ", "nobody", "audio:command", nil)
	assert.True(t, errors.Is(err, ErrClientNotConnected))

	// the other session saw nothing but its hello
	require.NoError(t, other.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}

func TestRouteAndDisconnect(t *testing.T) {
	t.Parallel()

	h, router, url := newTestHub(t, Config{})

	conn := dial(t, url, "session=QUIZ&client=host")
	readHello(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"game:input","payload":{"direction":{"x":1,"y":0}}}`)))
	select {
	case msg := <-router.messages:
		assert.Equal(t, "QUIZ", msg.SessionCode)
		assert.Equal(t, "host", msg.ClientID)
		assert.Equal(t, "game:input", msg.Type)
		assert.JSONEq(t, `{"direction":{"x":1,"y":0}}`, string(msg.Payload))
	case <-time.After(2 * time.Second):
		require.Fail(t, "message not routed")
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	f := readFrame(t, conn)
	assert.Equal(t, EventError, f.Type)
	assert.Contains(t, string(f.Payload), "BAD_MESSAGE")

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	select {
	case d := <-router.disconnected:
		assert.Equal(t, disconnect{code: "QUIZ", clientID: "host"}, d)
	case <-time.After(2 * time.Second):
		require.Fail(t, "disconnect not reported")
	}
	assert.False(t, h.IsConnected("QUIZ", "host"))
}

func TestReconnectReplacesClient(t *testing.T) {
	t.Parallel()

	h, router, url := newTestHub(t, Config{})

	first := dial(t, url, "session=QUIZ&client=host")
	readHello(t, first)
	second := dial(t, url, "session=QUIZ&client=host")
	readHello(t, second)

	// the first socket is closed by the server
	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)

	assert.True(t, h.IsConnected("QUIZ", "host"))
	select {
	case d := <-router.disconnected:
		assert.Fail(t, "replaced connection reported as disconnect", "%+v", d)
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, h.SendTo("QUIZ", "host", "ping", nil))
	assert.Equal(t, "ping", readFrame(t, second).Type)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	_, router, url := newTestHub(t, Config{RateLimit: 0.001, RateBurst: 2})

	conn := dial(t, url, "session=QUIZ&client=host")
	readHello(t, conn)

	for i := 0; i < 4; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"game:input"}`)))
	}

	for i := 0; i < 2; i++ {
		f := readFrame(t, conn)
		assert.Equal(t, EventError, f.Type)
		assert.Contains(t, string(f.Payload), "RATE_LIMITED")
	}
	assert.Len(t, router.messages, 2)
}
