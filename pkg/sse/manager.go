package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AvivElectis/electisSpace-sub010/pkg/logging"
)

const (
	// Buffered events per client. A client that falls this far behind
	// gets dropped rather than blocking the broadcaster.
	clientBuffer = 16

	heartbeatInterval = 25 * time.Second
)

// Event is one server-sent event
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type client struct {
	id      string
	storeID string
	events  chan Event
	done    chan struct{}
	once    sync.Once
}

// drop signals the serving goroutine to close the stream. Safe to call
// from concurrent broadcasts.
func (c *client) drop() {
	c.once.Do(func() { close(c.done) })
}

// Manager fans events out to SSE clients, grouped by store
type Manager struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[string]map[string]*client // storeID -> clientID -> client

	onConnect    func(storeID string)
	onDisconnect func(storeID string)
}

// NewManager creates an SSE manager
func NewManager(logger *logging.Logger) *Manager {
	return &Manager{
		logger:  logger.WithField("component", "sse"),
		clients: make(map[string]map[string]*client),
	}
}

// SetConnectionHooks registers callbacks fired on client connect and
// disconnect, used to keep the client gauge current.
func (m *Manager) SetConnectionHooks(onConnect, onDisconnect func(storeID string)) {
	m.onConnect = onConnect
	m.onDisconnect = onDisconnect
}

func (m *Manager) subscribe(storeID string) *client {
	c := &client{
		id:      uuid.New().String(),
		storeID: storeID,
		events:  make(chan Event, clientBuffer),
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	if m.clients[storeID] == nil {
		m.clients[storeID] = make(map[string]*client)
	}
	m.clients[storeID][c.id] = c
	m.mu.Unlock()

	if m.onConnect != nil {
		m.onConnect(storeID)
	}
	m.logger.Debug("sse client connected", map[string]interface{}{"store": storeID, "client": c.id})
	return c
}

func (m *Manager) unsubscribe(c *client) {
	m.mu.Lock()
	if clients, ok := m.clients[c.storeID]; ok {
		delete(clients, c.id)
		if len(clients) == 0 {
			delete(m.clients, c.storeID)
		}
	}
	m.mu.Unlock()

	if m.onDisconnect != nil {
		m.onDisconnect(c.storeID)
	}
	m.logger.Debug("sse client disconnected", map[string]interface{}{"store": c.storeID, "client": c.id})
}

// Broadcast delivers an event to every client watching a store. A client
// whose buffer is full is disconnected, so one slow consumer never
// blocks the broadcaster or the other clients.
func (m *Manager) Broadcast(storeID string, event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients[storeID] {
		select {
		case c.events <- event:
		default:
			m.logger.Warn("sse client too slow, disconnecting", map[string]interface{}{
				"store": storeID, "client": c.id, "event": event.Type,
			})
			c.drop()
		}
	}
}

// ClientCount returns the number of connected clients for a store
func (m *Manager) ClientCount(storeID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[storeID])
}

// ServeHTTP streams events for one store. The store is taken from the
// store_id query parameter.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	storeID := r.URL.Query().Get("store_id")
	if storeID == "" {
		http.Error(w, `{"error":"store_id query parameter is required"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	c := m.subscribe(storeID)
	defer m.unsubscribe(c)

	// Tell the client it is connected before the first real event
	fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", c.id)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			// Dropped by a broadcast for falling behind
			return
		case <-heartbeat.C:
			// Comment line keeps proxies from closing idle streams
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case event := <-c.events:
			data, err := json.Marshal(event.Data)
			if err != nil {
				m.logger.Error("failed to marshal sse event", map[string]interface{}{"error": err.Error()})
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
