/*
Package registry manages resource definitions and identifier strategies.

A Definition tells every backend how a resource is laid out: its table, identifier field,
identifier strategy, declared fields, soft-delete marker and DynamoDB key templates:

	def, err := registry.Register(registry.Definition{
	    Name:       "todos",
	    Fields:     []string{"text", "done"},
	    SoftDelete: "deleted_at",
	    IndexMap: map[string]string{
	        "PK": "TODO#{id}",
	        "SK": "TODO",
	    },
	})

Identifier strategies are registered by name. "sequence" leaves allocation to the backend,
"natural" requires callers to supply identifiers, "uuid" and "ulid" generate them client side.
Custom strategies can be added with RegisterIDStrategy, typically from init().

PrepareBatch and PreparePatches hold the validation shared by all backends so that
Replace, Create and Update reject the same inputs everywhere.

The registry is thread-safe and should be populated during initialization, either directly
or from a YAML file through the processor package.
*/
package registry
