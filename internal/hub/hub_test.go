package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/yosagi/osctap/internal/matchlog"
)

func TestFeedMessageMarshal(t *testing.T) {
	msg := FeedMessage{Type: "match", TS: "2026-03-01T12:00:00+09:00", Matcher: "TITLE", Value: "hello"}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{`"ts"`, `"matcher"`, `"string"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("marshaled message missing %s field: %s", field, data)
		}
	}
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	h := New()
	// No Run loop draining the queue; fill it beyond capacity.
	for i := 0; i < 1000; i++ {
		h.Broadcast(FeedMessage{Type: "match", Matcher: "M", Value: "v"})
	}
}

func TestBroadcastFanOut(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			t.Fatalf("dial client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		conns = append(conns, conn)
	}

	// Wait for all registrations to land.
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("clients registered: %d, want 3", h.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := h.Sink().Log(matchlog.NewRecord("TITLE", "hello")); err != nil {
		t.Fatalf("Sink.Log: %v", err)
	}

	for i, conn := range conns {
		readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
		_, data, err := conn.Read(readCtx)
		readCancel()
		if err != nil {
			t.Fatalf("client %d read: %v", i, err)
		}
		var msg FeedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("client %d got invalid JSON: %v", i, err)
		}
		if msg.Matcher != "TITLE" || msg.Value != "hello" {
			t.Errorf("client %d got %+v", i, msg)
		}
	}
}
