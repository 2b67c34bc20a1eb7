package database

import (
	"context"
	"sync"
	"time"

	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectionManager caches Mongo clients per connection URI so that
// requests carrying their own connection string reuse a pooled client
// instead of dialing per call.
type ConnectionManager struct {
	defaultURI string
	clients    map[string]*mongo.Client
	mu         sync.RWMutex
}

func NewConnectionManager(defaultURI string) *ConnectionManager {
	return &ConnectionManager{
		defaultURI: defaultURI,
		clients:    make(map[string]*mongo.Client),
	}
}

// Client returns a connected client for the given URI, falling back to
// the configured default when uri is empty.
func (m *ConnectionManager) Client(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		uri = m.defaultURI
	}
	if uri == "" {
		return nil, &models.ConfigurationError{Field: "connection_uri", Reason: "no connection string configured"}
	}

	m.mu.RLock()
	if client, exists := m.clients[uri]; exists {
		m.mu.RUnlock()
		return client, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := m.clients[uri]; exists {
		return client, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &models.ConfigurationError{Field: "connection_uri", Reason: err.Error()}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &models.ConfigurationError{Field: "connection_uri", Reason: err.Error()}
	}

	m.clients[uri] = client
	return client, nil
}

// Close disconnects every cached client.
func (m *ConnectionManager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for uri, client := range m.clients {
		_ = client.Disconnect(ctx)
		delete(m.clients, uri)
	}
}
