/*
Package storagemodels defines the data structures shared by resourcestore backends.

Key Types:

Statement and Script:
A compiled backend statement and an ordered list of them. Query capabilities render
scripts with literals inlined; stores execute the same scripts with placeholders:

	script := storagemodels.Script{
	    {Text: `INSERT INTO "todos" ("id", "text") VALUES (10, 'iron')`},
	    {Text: `INSERT INTO "todos" ("text") VALUES ('laundry') RETURNING "id"`},
	}
	fmt.Println(script.String())

RetryOptions:
Configuration for retrying transient backend failures:

	opts := []RetryOption{
	    WithMaxRetries(5),
	    WithRetryBackoff(200 * time.Millisecond),
	    WithPageSize(25),
	}

These types keep the stores and queriers of one backend in agreement.
*/
package storagemodels
