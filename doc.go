/*
Package resourcestore implements REST-style capability contracts over pluggable storage
backends.

Each capability comes as an operational contract, which runs against a store, and a query
contract, which renders the backend query that would run, without side effects:

	Replace / ReplaceQuery    upsert a batch, return identifiers in input order
	Retrieve / RetrieveQuery  read one resource, optionally projected
	Update / UpdateQuery      apply ordered partial patches
	Create, Delete, Fetch     and their query counterparts

The contracts live in package rest. Backends live under datastore: memory, sqlstore (SQLite,
PostgreSQL, MySQL) and ddb (DynamoDB with PartiQL rendering).

Basic Usage:

	cfg, err := config.Load(".env")
	defs, err := processor.LoadFile(cfg.Resources)
	storage, err := resourcestore.Open(ctx, cfg, defs)
	defer storage.Close()

	replacer, err := resourcestore.Capability[rest.Replacer](storage, "todos")
	ids, err := replacer.Replace(ctx, []rest.Item{
		{"id": 10, "text": "I really have to iron"},
		{"text": "Do laundry"},
	}, nil)
	// ids == [10, <new id>]

	q, err := resourcestore.QueryCapability[rest.ReplaceQuerier](storage, "todos")
	text, err := q.Replace(items, nil)
*/
package resourcestore
