package admin

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bodash/internal/dashboard"
)

const (
	progressWriteTimeout = 5 * time.Second
	subscriberBuffer     = 32
)

var progressUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// feedEvents are the controller events forwarded to websocket clients.
var feedEvents = map[string]bool{
	dashboard.EventControls: true,
	dashboard.EventNotice:   true,
	dashboard.EventProgress: true,
	dashboard.EventComplete: true,
	dashboard.EventEditor:   true,
}

type subscriber struct {
	send chan []byte
}

// Hub fans controller events out to websocket clients. Slow clients drop
// messages rather than stalling the publisher.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
	log    *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{subs: make(map[*subscriber]struct{}), log: log}
}

// Publish forwards ev to every client. It never blocks.
func (h *Hub) Publish(ev dashboard.Event) {
	if !feedEvents[ev.Type] {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("encode progress event failed", "type", ev.Type, "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.log.Debug("progress client lagging, message dropped")
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		close(sub.send)
		delete(h.subs, sub)
	}
}

func (h *Hub) add() (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	sub := &subscriber{send: make(chan []byte, subscriberBuffer)}
	h.subs[sub] = struct{}{}
	return sub, true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// snapshot is sent once when a client connects.
type snapshot struct {
	Type     string             `json:"type"`
	Controls dashboard.Controls `json:"controls"`
	Progress any                `json:"progress,omitempty"`
	Fitness  []float64          `json:"fitness"`
}

func (s *Server) handleProgressWS(w http.ResponseWriter, r *http.Request) {
	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub, ok := s.hub.add()
	if !ok {
		return
	}
	defer s.hub.remove(sub)

	p, fitness := s.Dash.Progress()
	snap := snapshot{Type: "snapshot", Controls: s.Dash.Controls(), Fitness: fitness}
	if p != nil {
		snap.Progress = p
	}
	if snap.Fitness == nil {
		snap.Fitness = []float64{}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(progressWriteTimeout))
	if err := conn.WriteJSON(snap); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-sub.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(progressWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
