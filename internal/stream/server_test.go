package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tubone24/monte-carlo-3d-app/internal/collision"
	"github.com/tubone24/monte-carlo-3d-app/internal/config"
	"github.com/tubone24/monte-carlo-3d-app/internal/montecarlo"
)

func sampleFrame() Frame {
	return makeFrame(1234,
		montecarlo.Stats{TotalBalls: 100, InsideBalls: 79, PiEstimate: 3.16, Live: 12},
		collision.Stats{State: collision.Running, MassRatio: 100, Count: 17, Expected: 31},
	)
}

func TestFrameWireFormat(t *testing.T) {
	data, err := json.Marshal(sampleFrame())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"time_ms":1234`,
		`"total_balls":100`,
		`"pi_estimate":3.16`,
		`"state":"running"`,
		`"expected":31`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("frame JSON missing %s:\n%s", want, s)
		}
	}
}

func TestHubAddRemove(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1)}

	h.add(c)
	if h.Count() != 1 {
		t.Fatalf("Count = %d after add", h.Count())
	}
	h.remove(c)
	if h.Count() != 0 {
		t.Fatalf("Count = %d after remove", h.Count())
	}
	// Removing twice must not close the channel twice.
	h.remove(c)
}

func TestBroadcastDropsWhenSlow(t *testing.T) {
	h := NewHub()
	c := &client{send: make(chan []byte, 1)}
	h.add(c)

	h.Broadcast(sampleFrame())
	h.Broadcast(sampleFrame())

	if len(c.send) != 1 {
		t.Errorf("queued = %d, want 1", len(c.send))
	}
	if h.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", h.Dropped())
	}
}

func TestWatcherReceivesBroadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The handler registers the watcher just after the handshake.
	deadline := time.Now().Add(2 * time.Second)
	for h.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := sampleFrame()
	h.Broadcast(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got Frame
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TimeMs != want.TimeMs || got.Blocks.Count != want.Blocks.Count {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("watcher still registered after close: %d", h.Count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := NewServer(config.DefaultConfig())
	s.last = sampleFrame()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.handleStats(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got Frame
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Scene.TotalBalls != 100 {
		t.Errorf("TotalBalls = %d, want 100", got.Scene.TotalBalls)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(config.DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %v", got["status"])
	}
}
