/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/oklog/ulid"

	"github.com/suparena/resourcestore/errors"
	"github.com/suparena/resourcestore/rest"
)

// Built-in identifier strategies.
const (
	// StrategySequence assigns increasing int64 identifiers; the backend owns the counter.
	StrategySequence = "sequence"
	// StrategyNatural requires callers to supply every identifier.
	StrategyNatural = "natural"
	// StrategyUUID generates RFC 4122 identifiers on the client.
	StrategyUUID = "uuid"
	// StrategyULID generates lexically sortable identifiers on the client.
	StrategyULID = "ulid"
)

// IDStrategy decides how identifiers are produced and which ones are acceptable.
type IDStrategy struct {
	Name string
	// Sequential strategies leave allocation to the backend's counter.
	Sequential bool
	// Generate produces a fresh identifier client side. Nil when the strategy cannot.
	Generate func() (rest.ID, error)
	// Validate rejects identifiers the strategy would never produce. Nil accepts anything.
	Validate func(rest.ID) error
}

var (
	strategies  = make(map[string]IDStrategy)
	strategiesM sync.RWMutex
)

func init() {
	RegisterIDStrategy(IDStrategy{
		Name:       StrategySequence,
		Sequential: true,
		Validate: func(id rest.ID) error {
			n, ok := id.(int64)
			if !ok || n <= 0 {
				return errors.NewValidationError("id", fmt.Sprintf("sequence identifiers are positive integers, got %v", id))
			}
			return nil
		},
	})
	RegisterIDStrategy(IDStrategy{Name: StrategyNatural})
	RegisterIDStrategy(IDStrategy{
		Name: StrategyUUID,
		Generate: func() (rest.ID, error) {
			return uuid.NewString(), nil
		},
		Validate: func(id rest.ID) error {
			s, ok := id.(string)
			if !ok || !strfmt.IsUUID(s) {
				return errors.NewValidationError("id", fmt.Sprintf("%v is not a uuid", id))
			}
			return nil
		},
	})
	RegisterIDStrategy(IDStrategy{
		Name: StrategyULID,
		Generate: func() (rest.ID, error) {
			id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to generate ulid: %w", err)
			}
			return id.String(), nil
		},
		Validate: func(id rest.ID) error {
			s, ok := id.(string)
			if !ok {
				return errors.NewValidationError("id", fmt.Sprintf("%v is not a ulid", id))
			}
			if _, err := ulid.Parse(s); err != nil {
				return errors.NewValidationError("id", fmt.Sprintf("%q is not a ulid: %v", s, err))
			}
			return nil
		},
	})
}

// RegisterIDStrategy adds a strategy by name.
// It panics if the name is taken, to prevent accidental overrides.
func RegisterIDStrategy(s IDStrategy) {
	strategiesM.Lock()
	defer strategiesM.Unlock()
	if _, exists := strategies[s.Name]; exists {
		panic(fmt.Sprintf("id strategy registry: strategy %q already registered", s.Name))
	}
	strategies[s.Name] = s
}

// GetIDStrategy returns the strategy registered under name.
func GetIDStrategy(name string) (IDStrategy, error) {
	strategiesM.RLock()
	defer strategiesM.RUnlock()
	s, ok := strategies[name]
	if !ok {
		return IDStrategy{}, errors.NewValidationError("idStrategy", fmt.Sprintf("no strategy registered as %q", name))
	}
	return s, nil
}
