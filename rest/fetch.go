/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Fetcher lists the resources matching criteria, projected to fields, ordered by identifier.
// With OptionCount only the number of matches is returned.
type Fetcher interface {
	Fetch(ctx context.Context, criteria []Criterion, fields []string, opts Options) (FetchResult, error)
}

// FetchQuerier renders the query a Fetcher would run.
type FetchQuerier interface {
	Fetch(criteria []Criterion, fields []string, opts Options) (string, error)
}
