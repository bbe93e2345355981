/*
Package datastore defines the interfaces every resourcestore backend satisfies.

Store bundles the operational capabilities of package rest for one resource type;
Querier bundles their query counterparts:

	type Store interface {
	    rest.Replacer   // Replace(ctx, items, opts) ([]rest.ID, error)
	    rest.Retriever  // Retrieve(ctx, id, fields, opts) (rest.Item, error)
	    rest.Updater    // Update(ctx, id, patches, opts) (rest.Item, error)
	    rest.Creator
	    rest.Deleter
	    rest.Fetcher
	}

Implementations:
  - memory: in-memory reference store, with error injection for tests
  - ddb: DynamoDB store and PartiQL querier for single-table designs
  - sqlstore: SQL store and querier for sqlite, postgres and mysql
  - middleware: logging, metrics and tracing decorators around any Store
*/
package datastore
