// Package stream publishes simulation frames to websocket observers.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lightning/internal/core"
	"lightning/internal/sim"
)

// Message types sent to observers.
const (
	TypeFrame = "FRAME"
	TypeDone  = "DONE"
)

// FrameMsg is one tick as seen by an observer. States is base64 in JSON.
type FrameMsg struct {
	Type      string       `json:"type"`
	Tick      int          `json:"tick"`
	Dims      [3]int       `json:"dims"`
	Potential []float64    `json:"potential"`
	States    []uint8      `json:"states"`
	Grown     []core.Coord `json:"grown,omitempty"`
	Landed    bool         `json:"landed"`
	Reason    sim.Reason   `json:"reason,omitempty"`
}

// DoneMsg closes a run.
type DoneMsg struct {
	Type    string      `json:"type"`
	Outcome sim.Outcome `json:"outcome"`
}

// Hub fans messages out to every connected observer. Slow observers miss
// messages rather than stall the run.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Subscribers returns the number of connected observers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish encodes v once and queues it for every observer.
func (h *Hub) Publish(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- b:
		default:
			h.log.Debug("observer behind, dropping message", "observer", id)
		}
	}
	return nil
}

func (h *Hub) subscribe() (uint64, chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan []byte, 64)
	h.subs[h.nextID] = ch
	return h.nextID, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

// Handler upgrades loopback clients to a websocket and streams messages
// until the client goes away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, out := h.subscribe()
		defer h.unsubscribe(id)
		h.log.Debug("observer connected", "observer", id, "remote", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Observers only listen; reading detects the close.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		cancel()
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		h.log.Debug("observer left", "observer", id)
	}
}

// ConfigHandler serves the run configuration as JSON.
func ConfigHandler(cfg sim.Config) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			Config     sim.Config             `json:"config"`
			Parameters core.ParameterSnapshot `json:"parameters"`
		}{cfg, cfg.Parameters()})
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
