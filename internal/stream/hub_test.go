package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"lightning/internal/logging"
	"lightning/internal/sim"
)

func dial(t *testing.T, srv *httptest.Server, hub *Hub) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestRunStreamsFramesUntilDone(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Width, cfg.Height = 12, 12
	s, err := sim.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	hub := NewHub(logging.Discard())
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv, hub)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan sim.Outcome, 1)
	go func() {
		out, _ := Run(ctx, s, hub, 1000)
		done <- out
	}()

	frames := 0
	lastTick := -1
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var head struct{ Type string }
		if err := json.Unmarshal(msg, &head); err != nil {
			t.Fatal(err)
		}
		if head.Type == TypeDone {
			var dm DoneMsg
			if err := json.Unmarshal(msg, &dm); err != nil {
				t.Fatal(err)
			}
			if !dm.Outcome.Landed {
				t.Fatalf("expected a landed outcome, got %+v", dm.Outcome)
			}
			break
		}
		var fm FrameMsg
		if err := json.Unmarshal(msg, &fm); err != nil {
			t.Fatal(err)
		}
		if fm.Tick <= lastTick {
			t.Fatalf("frames out of order: %d after %d", fm.Tick, lastTick)
		}
		if len(fm.States) != 144 || len(fm.Potential) != 144 || fm.Dims != [3]int{12, 12, 1} {
			t.Fatalf("unexpected frame shape: %d states, dims %v", len(fm.States), fm.Dims)
		}
		lastTick = fm.Tick
		frames++
	}
	out := <-done
	if frames != out.Rounds+1 {
		t.Fatalf("received %d frames for %d rounds", frames, out.Rounds)
	}
}

func TestConfigHandler(t *testing.T) {
	cfg := sim.DefaultConfig()
	rec := httptest.NewRecorder()
	ConfigHandler(cfg)(rec, httptest.NewRequest(http.MethodGet, "/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body struct {
		Config sim.Config `json:"config"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Config.Width != cfg.Width || body.Config.Growth.Eta != cfg.Growth.Eta {
		t.Fatalf("config mismatch: %+v", body.Config)
	}

	rec = httptest.NewRecorder()
	ConfigHandler(cfg)(rec, httptest.NewRequest(http.MethodPost, "/config", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status %d", rec.Code)
	}
}

func TestHandlerRejectsRemoteClients(t *testing.T) {
	hub := NewHub(logging.Discard())
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	hub.Handler()(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d, expected 403", rec.Code)
	}
}
