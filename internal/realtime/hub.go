package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"bantayani/internal/event"
	"bantayani/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans change events out to websocket clients. Client registration is
// owned by the Run goroutine.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	connected  atomic.Int64
	metrics    *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks are applied by the CORS layer in front of the engine
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		metrics:    m,
	}
}

// Run relays events from feed until ctx is cancelled or feed closes, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context, feed <-chan event.ChangeEvent) error {
	defer close(h.done)
	clients := make(map[*client]struct{})
	defer func() {
		for c := range clients {
			h.drop(clients, c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.register:
			clients[c] = struct{}{}
			h.connected.Add(1)
			h.metrics.RealtimeClientDelta(1)
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				h.drop(clients, c)
			}
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("failed to encode change event", "error", err)
				continue
			}
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// slow reader; it will refetch on reconnect
					h.drop(clients, c)
				}
			}
		}
	}
}

func (h *Hub) drop(clients map[*client]struct{}, c *client) {
	delete(clients, c)
	close(c.send)
	h.connected.Add(-1)
	h.metrics.RealtimeClientDelta(-1)
}

// Clients reports how many websocket clients are attached.
func (h *Hub) Clients() int {
	return int(h.connected.Load())
}

// Handler upgrades the request and attaches the connection to the hub.
func (h *Hub) Handler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- cl:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(cl)
	go h.readPump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		select {
		case h.unregister <- cl:
		case <-h.done:
		}
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
