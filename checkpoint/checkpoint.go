// Package checkpoint persists turn state snapshots by conversation id so a
// conversation can resume across process restarts. The engine is agnostic to
// the backing store; this package ships an in-memory saver for tests and a
// SQLite saver for durable storage. Snapshots are opaque JSON blobs, not a
// stable interchange format.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// ErrNotFound is returned when no snapshot exists for a conversation.
var ErrNotFound = errors.New("checkpoint not found")

// Saver persists and restores turn state snapshots.
type Saver interface {
	// Save stores the state under its conversation id, replacing any
	// previous snapshot.
	Save(state *core.AgentState) error

	// Load restores the most recent snapshot for the conversation, or
	// ErrNotFound.
	Load(conversationID string) (*core.AgentState, error)
}

// InMemorySaver keeps snapshots in process memory. Safe for concurrent use.
type InMemorySaver struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewInMemorySaver creates an empty in-memory saver.
func NewInMemorySaver() *InMemorySaver {
	return &InMemorySaver{snapshots: make(map[string][]byte)}
}

// Save implements Saver.
func (s *InMemorySaver) Save(state *core.AgentState) error {
	if state == nil || state.ConversationID == "" {
		return fmt.Errorf("save checkpoint: missing conversation id")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[state.ConversationID] = data

	return nil
}

// Load implements Saver.
func (s *InMemorySaver) Load(conversationID string) (*core.AgentState, error) {
	s.mu.RLock()
	data, ok := s.snapshots[conversationID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("load checkpoint %q: %w", conversationID, ErrNotFound)
	}

	var state core.AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}

	return &state, nil
}
