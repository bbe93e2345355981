/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package resourcestore

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/suparena/resourcestore/datastore"
	"github.com/suparena/resourcestore/errors"
)

// Storage holds the store and querier of every resource by name. It is safe for concurrent use.
type Storage struct {
	mu       sync.RWMutex
	stores   map[string]datastore.Store
	queriers map[string]datastore.Querier
	closers  []io.Closer
	backend  string
}

// NewStorage creates an empty Storage.
func NewStorage() *Storage {
	return &Storage{
		stores:   make(map[string]datastore.Store),
		queriers: make(map[string]datastore.Querier),
	}
}

// Register adds the store of a resource. The querier may be nil when the backend cannot
// render queries.
func (s *Storage) Register(name string, store datastore.Store, querier datastore.Querier) error {
	if store == nil {
		return errors.NewValidationError("store", fmt.Sprintf("no store given for %q", name))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stores[name]; exists {
		return fmt.Errorf("store for resource %q already registered", name)
	}
	s.stores[name] = store
	if querier != nil {
		s.queriers[name] = querier
	}
	return nil
}

// Store returns the store serving the named resource.
func (s *Storage) Store(name string) (datastore.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	store, exists := s.stores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", errors.ErrNoDefinition, name)
	}
	return store, nil
}

// Querier returns the query renderer of the named resource.
func (s *Storage) Querier(name string) (datastore.Querier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.stores[name]; !exists {
		return nil, fmt.Errorf("%w: %q", errors.ErrNoDefinition, name)
	}
	q, exists := s.queriers[name]
	if !exists {
		return nil, errors.NewNotSupportedError(s.backend, "query rendering")
	}
	return q, nil
}

// Names lists the registered resources in sorted order.
func (s *Storage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.stores))
	for name := range s.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Backend names the backend the stores were opened on, empty when they were registered by hand.
func (s *Storage) Backend() string {
	return s.backend
}

// Close releases connections held on behalf of the stores.
func (s *Storage) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
