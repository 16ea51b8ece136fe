package delivery

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
)

// ConnectionManager owns the mapping from connection id to outbound sink.
// It is written only by the CommandLoop; no other goroutine touches it
// directly, but its methods are safe for concurrent use in case that
// changes (e.g. metrics scraping a connection count).
type ConnectionManager struct {
	mu    sync.RWMutex
	sinks map[ids.ConnectionID]Sink
}

// NewConnectionManager constructs an empty ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{sinks: make(map[ids.ConnectionID]Sink)}
}

// Add registers sink as the outbound write path for connID.
func (m *ConnectionManager) Add(connID ids.ConnectionID, sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks[connID] = sink
}

// Remove deregisters connID.
func (m *ConnectionManager) Remove(connID ids.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, connID)
}

// Count returns the number of currently registered sinks.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sinks)
}

// SendToOne writes payload to connID's sink. A write error implicitly
// removes the faulty connection, matching the source's policy of dropping
// rather than buffering against a broken sink.
func (m *ConnectionManager) SendToOne(connID ids.ConnectionID, payload []byte) {
	m.mu.RLock()
	sink, ok := m.sinks[connID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if err := sink.Send(payload); err != nil {
		logging.Warn(nil, "dropping connection after failed write",
			zap.String("connection_id", string(connID)), zap.Error(err))
		m.Remove(connID)
	}
}

// SendToMany writes payload to every connection id in conns.
func (m *ConnectionManager) SendToMany(conns []ids.ConnectionID, payload []byte) {
	for _, connID := range conns {
		m.SendToOne(connID, payload)
	}
}

// SendToAll writes payload to every currently registered connection.
func (m *ConnectionManager) SendToAll(payload []byte) {
	m.mu.RLock()
	targets := make([]ids.ConnectionID, 0, len(m.sinks))
	for connID := range m.sinks {
		targets = append(targets, connID)
	}
	m.mu.RUnlock()

	m.SendToMany(targets, payload)
}
