/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rest

import "context"

// Deleter removes resources.
//
// When ids is non-empty only those resources are deleted and criteria is ignored. With no ids,
// every resource matching criteria is deleted; with neither, every resource of the type is.
// The identifiers actually deleted are returned; unknown ids are skipped.
//
// With OptionSoftDelete the resources are stamped as deleted instead of removed.
type Deleter interface {
	Delete(ctx context.Context, ids []ID, criteria []Criterion, opts Options) ([]ID, error)
}

// DeleteQuerier renders the query a Deleter would run.
type DeleteQuerier interface {
	Delete(ids []ID, criteria []Criterion, opts Options) (string, error)
}
