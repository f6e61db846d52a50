// Package memory provides cross-turn conversational memory: snippets stored
// per conversation and retrieved by search so they can be surfaced to the
// model at turn start.
package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned when a memory id does not resolve.
var ErrNotFound = errors.New("memory not found")

// SearchResult is one retrieved memory snippet with a relevance score.
type SearchResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store defines persistence and retrieval of memory snippets, scoped by
// conversation id. Implementations can back Search with embeddings, keyword
// indexes or any heuristic.
type Store interface {
	Store(conversationID, content string, metadata map[string]any) error
	Search(conversationID, query string, limit int) ([]SearchResult, error)
	Delete(conversationID, memoryID string) error
}

type snippet struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemoryStore is a naive process-local Store: append-only snippets per
// conversation with case-insensitive term matching in Search, returning hits
// in insertion order, each scored 1.0. Suitable for tests and demos; swap for
// a vector or keyword index for production retrieval.
type InMemoryStore struct {
	mu       sync.RWMutex
	snippets map[string][]snippet
	next     int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snippets: make(map[string][]snippet)}
}

// Store appends a snippet for the conversation. Ids are unique across the
// store's lifetime, so deletion never causes reuse.
func (m *InMemoryStore) Store(conversationID, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("mem_%d", m.next)
	m.next++

	m.snippets[conversationID] = append(m.snippets[conversationID], snippet{
		id:       id,
		content:  content,
		metadata: metadata,
	})

	return nil
}

// Search returns up to limit snippets, in insertion order, whose content
// contains at least one query term, ignoring case. Queries are whole user
// requests, so matching is per term, not per phrase. An empty query matches
// everything.
func (m *InMemoryStore) Search(conversationID, query string, limit int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	results := []SearchResult{}

	for _, s := range m.snippets[conversationID] {
		if len(results) >= limit {
			break
		}

		if !matchesAny(strings.ToLower(s.content), terms) {
			continue
		}

		md := make(map[string]any, len(s.metadata))
		for k, v := range s.metadata {
			md[k] = v
		}

		results = append(results, SearchResult{ID: s.id, Content: s.content, Score: 1.0, Metadata: md})
	}

	return results, nil
}

func matchesAny(content string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	for _, t := range terms {
		if strings.Contains(content, t) {
			return true
		}
	}
	return false
}

// Delete removes a snippet by id.
func (m *InMemoryStore) Delete(conversationID, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.snippets[conversationID]
	for i, s := range stored {
		if s.id == memoryID {
			m.snippets[conversationID] = append(stored[:i], stored[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}
