package safesql

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Result is the outcome of executing one statement.
type Result struct {
	Rows []Row
	// RowsAffected is -1 when the driver cannot report it.
	RowsAffected int64
}

// Driver executes a finished SQL statement. Implementations must honour ctx
// cancellation and must not retry.
type Driver interface {
	Execute(ctx context.Context, sql string) (*Result, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, sql string) (*Result, error)

// Execute calls f.
func (f DriverFunc) Execute(ctx context.Context, sql string) (*Result, error) {
	return f(ctx, sql)
}

// PgxQuerier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxDriver runs statements through pgx.
type PgxDriver struct {
	q PgxQuerier
}

// NewPgxDriver returns a Driver backed by a pgx pool, connection or
// transaction.
func NewPgxDriver(q PgxQuerier) *PgxDriver {
	return &PgxDriver{q: q}
}

// Execute implements Driver.
func (d *PgxDriver) Execute(ctx context.Context, sql string) (*Result, error) {
	rows, err := d.q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Rows:         make([]Row, len(maps)),
		RowsAffected: rows.CommandTag().RowsAffected(),
	}
	for i, m := range maps {
		res.Rows[i] = Row(m)
	}
	return res, nil
}

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLDriver runs statements through database/sql. It works with any
// registered Postgres driver ("pgx" or "postgres"). database/sql does not
// report affected rows for queries, so RowsAffected is always -1.
type SQLDriver struct {
	q Querier
}

// NewSQLDriver returns a Driver backed by a database/sql handle.
func NewSQLDriver(q Querier) *SQLDriver {
	return &SQLDriver{q: q}
}

// Execute implements Driver.
func (d *SQLDriver) Execute(ctx context.Context, query string) (*Result, error) {
	rows, err := d.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{Rows: []Row{}, RowsAffected: -1}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			// lib/pq returns text columns as []byte
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

var (
	_ Driver = (*PgxDriver)(nil)
	_ Driver = (*SQLDriver)(nil)
	_ Driver = DriverFunc(nil)
)
