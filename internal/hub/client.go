package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/partyhost/partyhost/internal/logging"
	"golang.org/x/time/rate"
)

type client struct {
	code    string
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

// enqueue hands data to the write pump. It reports false when the buffer is
// full; frames for a closed client are dropped.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *client) emit(event string, payload interface{}) error {
	data, err := encode(event, payload)
	if err != nil {
		return err
	}
	if !c.enqueue(data) {
		return ErrSlowClient
	}
	return nil
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Handler upgrades GET /ws?session=CODE&client=ID. A missing client id is
// generated and announced in the hello event. ctx bounds every connection.
func (h *Hub) Handler(ctx context.Context, router Router) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(ctx).Named("hub.Hub.Handler")

		code := r.URL.Query().Get("session")
		if code == "" {
			http.Error(w, "missing session", http.StatusBadRequest)
			return
		}
		clientID := r.URL.Query().Get("client")
		if clientID == "" {
			clientID = uuid.New().String()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warnf("session %s client %s: upgrade: %v", code, clientID, err)
			return
		}

		c := &client{
			code:    code,
			id:      clientID,
			conn:    conn,
			send:    make(chan []byte, h.config.SendBuffer),
			limiter: rate.NewLimiter(rate.Limit(h.config.RateLimit), h.config.RateBurst),
			done:    make(chan struct{}),
		}
		h.add(c)
		logger.Infof("session %s client %s connected", code, clientID)

		h.serve(ctx, c, router)
		logger.Infof("session %s client %s disconnected", code, clientID)
	})
}

func (h *Hub) serve(ctx context.Context, c *client, router Router) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-connCtx.Done()
		c.close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(c)
	}()

	_ = c.emit(EventHello, HelloEvent{SessionCode: c.code, ClientID: c.id})
	h.readPump(connCtx, c, router)

	c.close()
	wg.Wait()

	if h.remove(c) {
		router.Disconnected(ctx, c.code, c.id)
	}
}

func (h *Hub) readPump(ctx context.Context, c *client, router Router) {
	logger := logging.FromContext(ctx).Named("hub.Hub.readPump")

	c.conn.SetReadLimit(h.config.MaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Infof("session %s client %s: %v", c.code, c.id, err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))

		if !c.limiter.Allow() {
			_ = c.emit(EventError, ErrorEvent{Code: "RATE_LIMITED", Message: "too many messages"})
			continue
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			_ = c.emit(EventError, ErrorEvent{Code: "BAD_MESSAGE", Message: "expected {type, payload}"})
			continue
		}

		router.Route(ctx, Message{
			SessionCode: c.code,
			ClientID:    c.id,
			Type:        env.Type,
			Payload:     env.Payload,
		})
	}
}

// writePump owns every write on the connection and closes it on exit.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.config.WriteTimeout)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.config.WriteTimeout))
			return
		}
	}
}
