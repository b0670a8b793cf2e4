// Package stream pushes graph snapshot events to WebSocket subscribers.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/poigraph/internal/graph"
)

// EventSnapshotUpdated is sent whenever a new snapshot becomes current.
const EventSnapshotUpdated = "snapshot.updated"

const (
	sendBuffer = 8
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is the JSON message sent to subscribers.
type Event struct {
	Type       string      `json:"type"`
	SnapshotID string      `json:"snapshot_id"`
	CreatedAt  time.Time   `json:"created_at"`
	Stats      graph.Stats `json:"stats"`
}

// SnapshotEvent builds the update event for s.
func SnapshotEvent(s *graph.Snapshot) Event {
	return Event{
		Type:       EventSnapshotUpdated,
		SnapshotID: s.ID,
		CreatedAt:  s.CreatedAt,
		Stats:      s.Stats(),
	}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans events out to connected WebSocket clients. Each client
// has its own writer goroutine; a client that can't keep up is disconnected.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[*subscriber]struct{}
	upgrader websocket.Upgrader
	metrics  *Metrics
	logger   *slog.Logger
}

// NewBroadcaster creates a broadcaster. allowedOrigins restricts which
// browser origins may connect; "*" or an empty list allows any.
func NewBroadcaster(allowedOrigins []string, metrics *Metrics, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broadcaster{
		subs:    make(map[*subscriber]struct{}),
		metrics: metrics,
		logger:  logger,
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return b
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	b.add(sub)

	go b.writeLoop(sub)
	b.readLoop(sub)
}

// Publish sends ev to every subscriber without blocking.
func (b *Broadcaster) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("failed to marshal stream event", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.send <- data:
			if b.metrics != nil {
				b.metrics.IncEventsSent()
			}
		default:
			b.logger.Warn("dropping slow websocket subscriber",
				"remote_addr", sub.conn.RemoteAddr().String())
			b.removeLocked(sub)
			if b.metrics != nil {
				b.metrics.IncDropped()
			}
		}
	}
}

// Count returns the number of connected subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close disconnects every subscriber.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		b.removeLocked(sub)
	}
}

func (b *Broadcaster) add(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub] = struct{}{}
	if b.metrics != nil {
		b.metrics.SetSubscribers(len(b.subs))
	}
}

func (b *Broadcaster) remove(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

// removeLocked closes the send channel, which stops the writer. Callers
// must hold b.mu.
func (b *Broadcaster) removeLocked(sub *subscriber) {
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.send)
	if b.metrics != nil {
		b.metrics.SetSubscribers(len(b.subs))
	}
}

// readLoop discards client messages and returns once the connection fails.
func (b *Broadcaster) readLoop(sub *subscriber) {
	defer func() {
		b.remove(sub)
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case data, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
