// Package session manages process-wide keyed interactive resources addressed
// by tools, such as long-lived shell sessions. Distinct turns may address the
// same key concurrently, so access is serialized per key with striped locks:
// keys hash onto a fixed set of stripes, each guarding its own slice of the
// resource map. Two turns on the same key block each other; turns on
// different stripes proceed in parallel.
package session

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/hupe1980/agentgraph/logging"
)

// Resource is one keyed interactive resource. Close releases whatever the
// resource holds; it is called exactly once by the store.
type Resource interface {
	Close() error
}

// Factory creates the resource for a key on first use.
type Factory func(key string) (Resource, error)

const stripeCount = 16

type stripe struct {
	mu        sync.Mutex
	resources map[string]Resource
}

// StoreOptions configure a Store.
type StoreOptions struct {
	Logger logging.Logger
}

// Store is a striped-lock registry of keyed resources. It is safe for
// concurrent use by multiple turns.
type Store struct {
	stripes [stripeCount]*stripe
	factory Factory
	logger  logging.Logger
}

// NewStore creates a store with the given factory.
func NewStore(factory Factory, optFns ...func(o *StoreOptions)) *Store {
	opts := StoreOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Store{factory: factory, logger: opts.Logger}
	for i := range s.stripes {
		s.stripes[i] = &stripe{resources: make(map[string]Resource)}
	}

	return s
}

func (s *Store) stripeFor(key string) *stripe {
	h := fnv.New32a()
	h.Write([]byte(key))

	return s.stripes[h.Sum32()%stripeCount]
}

// With runs fn while holding the key's stripe lock, creating the resource on
// first use. The resource must not escape fn.
func (s *Store) With(key string, fn func(Resource) error) error {
	st := s.stripeFor(key)

	st.mu.Lock()
	defer st.mu.Unlock()

	res, ok := st.resources[key]
	if !ok {
		created, err := s.factory(key)
		if err != nil {
			return fmt.Errorf("create session %q: %w", key, err)
		}

		s.logger.Debug("session.created", "key", key)

		st.resources[key] = created
		res = created
	}

	return fn(res)
}

// Close releases the resource for a key, if present.
func (s *Store) Close(key string) error {
	st := s.stripeFor(key)

	st.mu.Lock()
	defer st.mu.Unlock()

	res, ok := st.resources[key]
	if !ok {
		return nil
	}

	delete(st.resources, key)

	if err := res.Close(); err != nil {
		return fmt.Errorf("close session %q: %w", key, err)
	}

	return nil
}

// CloseAll releases every resource, returning the first error encountered.
func (s *Store) CloseAll() error {
	var firstErr error

	for _, st := range s.stripes {
		st.mu.Lock()

		for key, res := range st.resources {
			if err := res.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close session %q: %w", key, err)
			}

			delete(st.resources, key)
		}

		st.mu.Unlock()
	}

	return firstErr
}

// Len returns the number of live resources, for observability.
func (s *Store) Len() int {
	total := 0

	for _, st := range s.stripes {
		st.mu.Lock()
		total += len(st.resources)
		st.mu.Unlock()
	}

	return total
}
