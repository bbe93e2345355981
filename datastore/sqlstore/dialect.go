/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlstore

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect interface {
	// Name returns the dialect's unique identifier.
	Name() string
	// DriverName is the database/sql driver the dialect is served by.
	DriverName() string
	// Placeholder returns the bind marker for the n-th argument, starting at 1.
	Placeholder(n int) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// Literal renders a bound value inline.
	Literal(v any) string
	// LikeOperator returns the case-insensitive pattern match operator.
	LikeOperator() string
	// Upsert returns the clause turning an INSERT into an overwrite on identifier conflict.
	Upsert(idColumn string, columns []string) string
	// DefaultValues returns the INSERT tail used when no column is given.
	DefaultValues() string
	// Returning reports whether INSERT ... RETURNING is available.
	Returning() bool
	// SyncSequence returns a statement moving the identifier sequence past explicit
	// identifiers, or "" when the database does this itself.
	SyncSequence(table, idColumn string) string
	// ColumnType maps a logical field type to a column type. Sequential identifier
	// columns use IdentityColumn instead.
	ColumnType(logical string) string
	IdentityColumn() string
	// IsUniqueViolation classifies duplicate key errors.
	IsUniqueViolation(err error) bool
}

// Logical field types accepted in a definition's Types.
const (
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeText    = "text"
	TypeBoolean = "boolean"
	TypeJSON    = "json"
)

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

func init() {
	RegisterDialect(SQLite{}, "sqlite3")
	RegisterDialect(Postgres{}, "postgresql", "pgx")
	RegisterDialect(MySQL{}, "mariadb")
}

// RegisterDialect makes a dialect available under its name and the given aliases.
func RegisterDialect(d Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name()] = d
	for _, a := range aliases {
		dialects[a] = d
	}
}

// DialectFor retrieves a dialect by name or alias.
func DialectFor(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("dialect '%s' not found", name)
	}
	return d, nil
}

// Dialects lists every registered name and alias.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SQLite is served by the pure Go modernc.org/sqlite driver.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) QuoteIdent(name string) string { return doubleQuote(name) }

func (SQLite) Literal(v any) string { return literal(v, false) }

func (d SQLite) Upsert(idColumn string, columns []string) string {
	return conflictUpsert(d, idColumn, columns, "excluded")
}

func (SQLite) LikeOperator() string { return "LIKE" }

func (SQLite) DefaultValues() string { return "DEFAULT VALUES" }

func (SQLite) Returning() bool { return true }

func (SQLite) SyncSequence(string, string) string { return "" }

func (SQLite) ColumnType(logical string) string {
	switch logical {
	case TypeInteger:
		return "INTEGER"
	case TypeNumber:
		return "REAL"
	case TypeText, TypeJSON:
		return "TEXT"
	case TypeBoolean:
		return "BOOLEAN"
	}
	// no declared type keeps values as given
	return ""
}

func (SQLite) IdentityColumn() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

// IsUniqueViolation checks for SQLITE_CONSTRAINT_PRIMARYKEY and SQLITE_CONSTRAINT_UNIQUE.
func (SQLite) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == 1555 || se.Code() == 2067
	}
	return false
}

// Postgres is served by the pgx stdlib driver.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) QuoteIdent(name string) string { return doubleQuote(name) }

func (Postgres) Literal(v any) string { return literal(v, false) }

func (d Postgres) Upsert(idColumn string, columns []string) string {
	return conflictUpsert(d, idColumn, columns, "EXCLUDED")
}

func (Postgres) LikeOperator() string { return "ILIKE" }

func (Postgres) DefaultValues() string { return "DEFAULT VALUES" }

func (Postgres) Returning() bool { return true }

func (d Postgres) SyncSequence(table, idColumn string) string {
	seq := fmt.Sprintf("pg_get_serial_sequence(%s, %s)", literal(table, false), literal(idColumn, false))
	return fmt.Sprintf("SELECT setval(%s, GREATEST((SELECT MAX(%s) FROM %s), nextval(%s) - 1))",
		seq, d.QuoteIdent(idColumn), d.QuoteIdent(table), seq)
}

func (Postgres) ColumnType(logical string) string {
	switch logical {
	case TypeInteger:
		return "BIGINT"
	case TypeNumber:
		return "DOUBLE PRECISION"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeJSON:
		return "JSONB"
	}
	return "TEXT"
}

func (Postgres) IdentityColumn() string { return "BIGSERIAL PRIMARY KEY" }

// IsUniqueViolation checks for SQLSTATE 23505.
func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// MySQL is served by go-sql-driver/mysql.
type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) Placeholder(int) string { return "?" }

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Literal(v any) string { return literal(v, true) }

func (d MySQL) Upsert(idColumn string, columns []string) string {
	var sets []string
	for _, c := range columns {
		if c == idColumn {
			continue
		}
		q := d.QuoteIdent(c)
		sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
	}
	if len(sets) == 0 {
		q := d.QuoteIdent(idColumn)
		sets = append(sets, fmt.Sprintf("%s = %s", q, q))
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func (MySQL) LikeOperator() string { return "LIKE" }

func (MySQL) DefaultValues() string { return "() VALUES ()" }

func (MySQL) Returning() bool { return false }

func (MySQL) SyncSequence(string, string) string { return "" }

func (MySQL) ColumnType(logical string) string {
	switch logical {
	case TypeInteger:
		return "BIGINT"
	case TypeNumber:
		return "DOUBLE"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeJSON:
		return "JSON"
	}
	return "TEXT"
}

func (MySQL) IdentityColumn() string { return "BIGINT AUTO_INCREMENT PRIMARY KEY" }

// IsUniqueViolation checks for ER_DUP_ENTRY.
func (MySQL) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// conflictUpsert renders ON CONFLICT for the dialects supporting it.
func conflictUpsert(d Dialect, idColumn string, columns []string, excluded string) string {
	var sets []string
	for _, c := range columns {
		if c == idColumn {
			continue
		}
		q := d.QuoteIdent(c)
		sets = append(sets, fmt.Sprintf("%s = %s.%s", q, excluded, q))
	}
	if len(sets) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", d.QuoteIdent(idColumn))
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", d.QuoteIdent(idColumn), strings.Join(sets, ", "))
}

// literal renders an encoded value. MySQL additionally treats backslashes as escapes.
func literal(v any, escapeBackslash bool) string {
	switch tv := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if tv {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'g', -1, 64)
	case time.Time:
		return "'" + tv.UTC().Format(time.RFC3339Nano) + "'"
	case string:
		s := tv
		if escapeBackslash {
			s = strings.ReplaceAll(s, `\`, `\\`)
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return literal(fmt.Sprint(v), escapeBackslash)
}
