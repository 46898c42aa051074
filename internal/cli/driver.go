package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"              // registers the "postgres" database/sql driver

	"github.com/pthm/safesql"
)

// Connection is an open database handle wrapped as a safesql.Driver.
type Connection struct {
	Driver safesql.Driver
	// DB is set for the database/sql drivers and nil for the pgx pool.
	DB    *sql.DB
	close func()
}

// Close releases the underlying pool.
func (c *Connection) Close() {
	if c.close != nil {
		c.close()
	}
}

// Open connects using the configured driver and verifies the connection.
func Open(ctx context.Context, cfg *Config) (*Connection, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, ConfigError("invalid database configuration", err)
	}

	switch cfg.Driver {
	case DriverPgx:
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, DBConnectError("connecting to database", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, DBConnectError("connecting to database", err)
		}
		return &Connection{Driver: safesql.NewPgxDriver(pool), close: pool.Close}, nil

	case DriverPgxStdlib, DriverPostgres:
		name := "pgx"
		if cfg.Driver == DriverPostgres {
			name = "postgres"
		}
		db, err := sql.Open(name, dsn)
		if err != nil {
			return nil, DBConnectError("connecting to database", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, DBConnectError("connecting to database", err)
		}
		return &Connection{
			Driver: safesql.NewSQLDriver(db),
			DB:     db,
			close:  func() { _ = db.Close() },
		}, nil

	default:
		return nil, ConfigError("invalid driver", fmt.Errorf("unknown driver %q", cfg.Driver))
	}
}
