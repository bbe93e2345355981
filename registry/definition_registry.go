/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/resourcestore/errors"
)

var (
	definitions = make(map[string]Definition)
	mu          sync.RWMutex
)

// Register normalizes def and stores it under its name, replacing any previous definition.
func Register(def Definition) (Definition, error) {
	normalized, err := def.Normalize()
	if err != nil {
		return Definition{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	definitions[normalized.Name] = normalized
	return normalized, nil
}

// Get retrieves the definition registered under name, if any.
func Get(name string) (Definition, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := definitions[name]
	return d, ok
}

// Lookup is Get returning errors.ErrNoDefinition for unknown names.
func Lookup(name string) (Definition, error) {
	d, ok := Get(name)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", errors.ErrNoDefinition, name)
	}
	return d, nil
}

// Unregister removes a definition. Unknown names are ignored.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(definitions, name)
}

// Names lists registered resource names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(definitions))
	for n := range definitions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
