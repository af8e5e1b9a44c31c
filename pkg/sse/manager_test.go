package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
)

func testManager() *Manager {
	return NewManager(logging.NewLogger(logging.ERROR, false))
}

func TestBroadcastReachesStoreClients(t *testing.T) {
	m := testManager()

	c1 := m.subscribe("store-1")
	defer m.unsubscribe(c1)
	c2 := m.subscribe("store-2")
	defer m.unsubscribe(c2)

	m.Broadcast("store-1", Event{Type: "space_updated", Data: map[string]string{"id": "sp-1"}})

	select {
	case event := <-c1.events:
		if event.Type != "space_updated" {
			t.Errorf("Unexpected event type: %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected event for store-1 client")
	}

	select {
	case event := <-c2.events:
		t.Errorf("Client for store-2 must not receive store-1 events, got %s", event.Type)
	default:
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	m := testManager()

	c := m.subscribe("store-1")
	defer m.unsubscribe(c)

	// Overfill the buffer; Broadcast must not block
	finished := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer+5; i++ {
			m.Broadcast("store-1", Event{Type: "noise"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a slow client")
	}
	if len(c.events) != clientBuffer {
		t.Errorf("Expected full buffer of %d, got %d", clientBuffer, len(c.events))
	}

	// Overflow disconnects the client instead of silently losing events
	select {
	case <-c.done:
	default:
		t.Error("Expected slow client to be disconnected")
	}
}

func TestDroppedClientStreamCloses(t *testing.T) {
	m := testManager()
	srv := httptest.NewServer(m)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events?store_id=store-1")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("Failed to read connected frame: %v", err)
	}

	m.mu.RLock()
	var c *client
	for _, cl := range m.clients["store-1"] {
		c = cl
	}
	m.mu.RUnlock()
	if c == nil {
		t.Fatal("Expected a registered client")
	}

	c.drop()

	// The serving goroutine must end the stream and unsubscribe
	readDone := make(chan struct{})
	go func() {
		for {
			if _, err := reader.ReadString('\n'); err != nil {
				close(readDone)
				return
			}
		}
	}()
	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not close after the client was dropped")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.ClientCount("store-1") > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if m.ClientCount("store-1") != 0 {
		t.Error("Expected dropped client to be unsubscribed")
	}
}

func TestClientCount(t *testing.T) {
	m := testManager()

	connects, disconnects := 0, 0
	m.SetConnectionHooks(
		func(storeID string) { connects++ },
		func(storeID string) { disconnects++ },
	)

	c1 := m.subscribe("store-1")
	c2 := m.subscribe("store-1")
	if m.ClientCount("store-1") != 2 {
		t.Errorf("Expected 2 clients, got %d", m.ClientCount("store-1"))
	}

	m.unsubscribe(c1)
	m.unsubscribe(c2)
	if m.ClientCount("store-1") != 0 {
		t.Errorf("Expected 0 clients after unsubscribe, got %d", m.ClientCount("store-1"))
	}
	if connects != 2 || disconnects != 2 {
		t.Errorf("Hook counts: connects=%d disconnects=%d", connects, disconnects)
	}
}

func TestServeHTTPRequiresStoreID(t *testing.T) {
	m := testManager()

	req := httptest.NewRequest("GET", "/events", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without store_id, got %d", rec.Code)
	}
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	m := testManager()
	srv := httptest.NewServer(m)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?store_id=store-1", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type: %s", ct)
	}

	reader := bufio.NewReader(resp.Body)

	// First frame announces the connection
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read connected frame: %v", err)
	}
	if !strings.HasPrefix(line, "event: connected") {
		t.Errorf("Expected connected frame, got %q", line)
	}

	// The subscription is registered before the connected frame is
	// written, so the broadcast below cannot race it.
	m.Broadcast("store-1", Event{Type: "sync_status", Data: map[string]string{"item_id": "i-1"}})

	deadline := time.Now().Add(2 * time.Second)
	var sawEvent bool
	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, "event: sync_status") {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, "i-1") {
				t.Errorf("Unexpected event payload: %q", line)
			}
			return
		}
	}
	t.Fatal("Never received the broadcast event")
}
