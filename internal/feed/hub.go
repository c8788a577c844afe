// Package feed streams engine events to websocket clients.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/metric"

	"github.com/jensholdgaard/auctiond/internal/event"
)

const (
	instrumentationName = "github.com/jensholdgaard/auctiond/internal/feed"

	clientBuffer = 64
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	send   chan event.Event
	prefix string
}

// Hub fans events out to every connected websocket client. A client that
// cannot keep up loses events rather than stalling the publisher.
type Hub struct {
	logger  *slog.Logger
	clients metric.Int64UpDownCounter
	dropped metric.Int64Counter

	mu    sync.RWMutex
	conns map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger, mp metric.MeterProvider) (*Hub, error) {
	meter := mp.Meter(instrumentationName)
	clients, err := meter.Int64UpDownCounter("feed.clients",
		metric.WithDescription("Connected feed clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clients gauge: %w", err)
	}
	dropped, err := meter.Int64Counter("feed.dropped",
		metric.WithDescription("Events dropped for slow feed clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return &Hub{
		logger:  logger,
		clients: clients,
		dropped: dropped,
		conns:   make(map[*client]struct{}),
	}, nil
}

// Publish queues e for every client whose type filter matches. It never blocks.
func (h *Hub) Publish(e event.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if !strings.HasPrefix(string(e.Type), c.prefix) {
			continue
		}
		select {
		case c.send <- e:
		default:
			h.dropped.Add(context.Background(), 1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) add(ctx context.Context, c *client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.clients.Add(ctx, 1)
}

func (h *Hub) remove(ctx context.Context, c *client) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.clients.Add(ctx, -1)
}

// ServeHTTP upgrades the request and streams events until the client leaves.
// The optional "type" query parameter restricts the stream to event types
// starting with it, e.g. "auction." or "wallet.".
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "feed upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	c := &client{send: make(chan event.Event, clientBuffer), prefix: r.URL.Query().Get("type")}
	h.add(ctx, c)
	defer h.remove(ctx, c)

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.write(ctx, conn, c)
	}()

	// Clients only send control frames; reading drives the pong handler
	// and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-done
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case e := <-c.send:
			data, _ := json.Marshal(e)
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.DebugContext(ctx, "feed write failed", slog.String("error", err.Error()))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
