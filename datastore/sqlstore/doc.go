/*
Package sqlstore stores resources in SQL tables through database/sql.

Three dialects are registered: "sqlite" (modernc.org/sqlite), "postgres" (pgx) and
"mysql" (go-sql-driver/mysql). Every operation is compiled into statements by one compiler;
the Store binds values and executes them in a transaction, the Querier inlines values and
returns the text:

	db, err := sqlstore.Open(ctx, sqlstore.SQLite{}, "file:todos.db")
	store, err := sqlstore.New(db, sqlstore.SQLite{}, def)
	err = store.EnsureTable(ctx)

	q, err := sqlstore.NewQuerier(sqlstore.SQLite{}, def)
	text, err := q.Replace(items, nil)

Resources must declare their fields; each field is a column and Types maps fields to
the logical types integer, number, text, boolean and json. Columns are listed in sorted order,
so rendering is deterministic. NULL columns are left out of returned items.
*/
package sqlstore
