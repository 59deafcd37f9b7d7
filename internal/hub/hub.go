// Package hub is the websocket transport: it keeps the connected clients of
// every session, fans events out to them and feeds their messages to a Router.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/partyhost/partyhost/internal/bytespool"
	"github.com/partyhost/partyhost/internal/logging"
)

const (
	EventHello = "session:hello"
	EventError = "error"
)

var (
	ErrClientNotConnected = errors.New("client is not connected")
	ErrSlowClient         = errors.New("client send buffer is full")
)

type Config struct {
	WriteTimeout time.Duration `envconfig:"HUB_WRITE_TIMEOUT" default:"10s"`
	PingInterval time.Duration `envconfig:"HUB_PING_INTERVAL" default:"25s"`
	PongTimeout  time.Duration `envconfig:"HUB_PONG_TIMEOUT" default:"60s"`
	SendBuffer   int           `envconfig:"HUB_SEND_BUFFER" default:"64"`
	MaxMessage   int64         `envconfig:"HUB_MAX_MESSAGE" default:"65536"`
	// inbound messages per second and burst, per connection
	RateLimit float64 `envconfig:"HUB_RATE_LIMIT" default:"40"`
	RateBurst int     `envconfig:"HUB_RATE_BURST" default:"80"`
}

// Message is one inbound client frame.
type Message struct {
	SessionCode string
	ClientID    string
	Type        string
	Payload     json.RawMessage
}

// Router receives what clients send. Route runs on the client's read loop and
// must not block on anything that waits for the same client.
type Router interface {
	Route(ctx context.Context, msg Message)
	Disconnected(ctx context.Context, code, clientID string)
}

type HelloEvent struct {
	SessionCode string `json:"sessionCode"`
	ClientID    string `json:"clientId"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// withDefaults fills zero fields with the envconfig defaults.
func (c Config) withDefaults() Config {
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = 64 << 10
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 40
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 80
	}
	return c
}

func New(config Config) *Hub {
	return &Hub{
		config:   config.withDefaults(),
		sessions: map[string]map[string]*client{},
	}
}

// Hub addresses connected clients by session code and client id.
type Hub struct {
	config Config

	mtx      sync.RWMutex
	sessions map[string]map[string]*client
}

// Broadcast sends event to every client of the session. Clients that cannot
// keep up are disconnected.
func (h *Hub) Broadcast(code, event string, payload interface{}) {
	logger := logging.DefaultLogger().Named("hub.Hub.Broadcast")

	data, err := encode(event, payload)
	if err != nil {
		logger.Errorf("session %s event %s: %v", code, event, err)
		return
	}

	h.mtx.RLock()
	clients := make([]*client, 0, len(h.sessions[code]))
	for _, c := range h.sessions[code] {
		clients = append(clients, c)
	}
	h.mtx.RUnlock()

	for _, c := range clients {
		if !c.enqueue(data) {
			logger.Warnf("session %s client %s is too slow, dropping", code, c.id)
			c.close()
		}
	}
}

// SendTo sends event to one client of the session.
func (h *Hub) SendTo(code, clientID, event string, payload interface{}) error {
	h.mtx.RLock()
	c, ok := h.sessions[code][clientID]
	h.mtx.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrClientNotConnected, code, clientID)
	}

	data, err := encode(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	if !c.enqueue(data) {
		c.close()
		return fmt.Errorf("%w: %s/%s", ErrSlowClient, code, clientID)
	}
	return nil
}

func (h *Hub) IsConnected(code, clientID string) bool {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	_, ok := h.sessions[code][clientID]
	return ok
}

// Clients returns the ids connected to the session.
func (h *Hub) Clients(code string) []string {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	ids := make([]string, 0, len(h.sessions[code]))
	for id := range h.sessions[code] {
		ids = append(ids, id)
	}
	return ids
}

// add registers c, closing a previous connection that used the same id.
func (h *Hub) add(c *client) {
	h.mtx.Lock()
	clients, ok := h.sessions[c.code]
	if !ok {
		clients = map[string]*client{}
		h.sessions[c.code] = clients
	}
	prev := clients[c.id]
	clients[c.id] = c
	h.mtx.Unlock()

	if prev != nil {
		prev.close()
	}
}

// remove unregisters c unless a newer connection took its id. It reports
// whether c was the registered one.
func (h *Hub) remove(c *client) bool {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	clients := h.sessions[c.code]
	if clients[c.id] != c {
		return false
	}
	delete(clients, c.id)
	if len(clients) == 0 {
		delete(h.sessions, c.code)
	}
	return true
}

func encode(event string, payload interface{}) ([]byte, error) {
	buf := bytespool.Get()
	defer bytespool.Put(buf)

	if err := json.NewEncoder(buf).Encode(outbound{Type: event, Payload: payload}); err != nil {
		return nil, err
	}

	return append([]byte(nil), bytes.TrimSuffix(buf.Bytes(), []byte("\n"))...), nil
}
