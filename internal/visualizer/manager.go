package visualizer

import (
	"log/slog"
	"sort"
	"sync"
)

// ConnectionManager tracks the live panel connections.
type ConnectionManager struct {
	clients map[string]*Connection
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewConnectionManager(logger *slog.Logger) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionManager{
		clients: make(map[string]*Connection),
		logger:  logger,
	}
}

func (m *ConnectionManager) AddConnection(client *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	m.logger.Info("panel_added",
		"client_id", client.ID,
	)
}

func (m *ConnectionManager) RemoveConnection(client *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, client.ID)
	m.logger.Info("panel_removed",
		"client_id", client.ID,
	)
}

func (m *ConnectionManager) CloseAllConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, client := range m.clients {
		client.Close()
		m.logger.Info("panel_connection_closed",
			"client_id", id,
		)
	}
	m.clients = make(map[string]*Connection)
}

func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Snapshot lists the live connections, oldest first.
func (m *ConnectionManager) Snapshot() []ConnectionInfo {
	m.mu.RLock()
	infos := make([]ConnectionInfo, 0, len(m.clients))
	for _, c := range m.clients {
		infos = append(infos, c.Info())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}
