/*
Package ddb provides a DynamoDB implementation of datastore.Store and a PartiQL
implementation of datastore.Querier.

Every resource type lives in a single table. Keys are derived from the definition's
index map, whose templates are filled with item fields:

	indexMap := map[string]string{
	    "PK":     "TODO#{id}",      // Becomes "TODO#10"
	    "SK":     "TODO",           // Static value
	    "GSI1PK": "EMAIL#{email}",  // Written only when the item has an email
	}

PK and SK may only reference the identifier field. Other templates describe secondary index
attributes; they are written on Replace and Create and refreshed after Update. An
EntityType attribute is injected into every item so Fetch can tell resource types apart.

Sequence identifiers are kept in a counter item per resource type ("SEQUENCE#<NAME>").
Writes are conditional: Create fails on an existing key and Update, Delete fail on a missing
or soft deleted one. Throttling errors are retried with a linear backoff configured through
storagemodels.RetryOptions:

	store, err := ddb.New(client, "app-table", def,
	    storagemodels.WithMaxRetries(5),
	    storagemodels.WithPageSize(50),
	)

The Querier renders the same operations as PartiQL. Statements that need a value only
known at execution time, such as a sequence identifier, carry "?" parameters. Deleting
by criteria and counting cannot be expressed and return errors.ErrNotSupported.
*/
package ddb
