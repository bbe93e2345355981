/*
Package processor loads resource definitions from YAML.

A plain list is the simplest form:

	resources:
	  - name: todos
	    idStrategy: sequence
	    fields: [id, text, done]
	    types: {done: boolean}
	    softDelete: deleted_at
	    x-dynamodb-indexmap:
	      PK: "TODO#{id}"
	      SK: "TODO"

OpenAPI documents work too. Every schema carrying the x-dynamodb-indexmap vendor extension
becomes a resource named after the schema, with its properties as fields:

	components:
	  schemas:
	    UserProfile:
	      type: object
	      x-resourcestore-id-strategy: uuid
	      x-dynamodb-indexmap:
	        PK: "USER#{id}"
	        SK: "PROFILE"
	        GSI1PK: "EMAIL#{email}"
	        GSI1SK: "USER"
	      properties:
	        id:
	          type: string
	        email:
	          type: string

Property types are mapped to the column types used by the SQL backends: integer, number,
boolean, string as text, and object or array as json.
*/
package processor
