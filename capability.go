/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package resourcestore

import (
	"fmt"

	"github.com/suparena/resourcestore/errors"
)

// Capability returns the named resource's store as the capability C, for callers that only
// need one contract:
//
//	replacer, err := resourcestore.Capability[rest.Replacer](storage, "todos")
//	ids, err := replacer.Replace(ctx, items, nil)
func Capability[C any](s *Storage, name string) (C, error) {
	var zero C
	store, err := s.Store(name)
	if err != nil {
		return zero, err
	}
	c, ok := store.(C)
	if !ok {
		return zero, errors.NewNotSupportedError(s.backend, fmt.Sprintf("%T", (*C)(nil)))
	}
	return c, nil
}

// QueryCapability is Capability for query renderers:
//
//	q, err := resourcestore.QueryCapability[rest.ReplaceQuerier](storage, "todos")
//	text, err := q.Replace(items, nil)
func QueryCapability[C any](s *Storage, name string) (C, error) {
	var zero C
	querier, err := s.Querier(name)
	if err != nil {
		return zero, err
	}
	c, ok := querier.(C)
	if !ok {
		return zero, errors.NewNotSupportedError(s.backend, fmt.Sprintf("%T", (*C)(nil)))
	}
	return c, nil
}
