/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import "github.com/suparena/resourcestore/rest"

// Store runs every operational capability against one resource type.
type Store interface {
	rest.Replacer
	rest.Retriever
	rest.Updater
	rest.Creator
	rest.Deleter
	rest.Fetcher
}

// Querier renders the query of every capability for one resource type.
type Querier interface {
	rest.ReplaceQuerier
	rest.RetrieveQuerier
	rest.UpdateQuerier
	rest.CreateQuerier
	rest.DeleteQuerier
	rest.FetchQuerier
}

// Operation names a capability, used for logging, metrics and tracing.
type Operation string

const (
	OpReplace  Operation = "replace"
	OpRetrieve Operation = "retrieve"
	OpUpdate   Operation = "update"
	OpCreate   Operation = "create"
	OpDelete   Operation = "delete"
	OpFetch    Operation = "fetch"
)
