// Package testutil provides a shared PostgreSQL container for integration
// tests. Each test gets its own database copied from a template that holds
// the fixtures in testdata/fixtures.sql.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed testdata/fixtures.sql
var fixturesSQL string

const templateName = "safesql_template"

// Singleton container state
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error

	templateOnce sync.Once
	templateErr  error
)

// ensureSingleton lazily starts the PostgreSQL container.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_INITDB_ARGS": "--auth-host=trust",
			}),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		singletonDSN = dsn
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// ensureTemplate creates the fixture template database once.
func ensureTemplate(adminDSN string) error {
	templateOnce.Do(func() {
		if err := exec(adminDSN, "CREATE DATABASE "+pq.QuoteIdentifier(templateName)); err != nil {
			templateErr = fmt.Errorf("failed to create template database: %w", err)
			return
		}

		templateDSN, err := replaceDBName(adminDSN, templateName)
		if err != nil {
			templateErr = err
			return
		}
		if err := exec(templateDSN, fixturesSQL); err != nil {
			templateErr = fmt.Errorf("failed to load fixtures: %w", err)
			return
		}

		// Non-fatal: copying still works without the template flag
		_ = exec(adminDSN, fmt.Sprintf("ALTER DATABASE %s WITH is_template = true", pq.QuoteIdentifier(templateName)))
	})

	return templateErr
}

// DSN returns the connection string of a fresh database loaded with the
// fixtures. The test is skipped in -short mode or when no container runtime
// is available. The database is dropped when the test completes.
func DSN(tb testing.TB) string {
	tb.Helper()

	if testing.Short() {
		tb.Skip("skipping integration test in short mode")
	}

	adminDSN, err := ensureSingleton()
	if err != nil {
		tb.Skipf("PostgreSQL container unavailable: %v", err)
	}

	require.NoError(tb, ensureTemplate(adminDSN), "failed to create template database")

	dbName := uniqueDBName("test")
	err = exec(adminDSN, fmt.Sprintf("CREATE DATABASE %s WITH TEMPLATE %s",
		pq.QuoteIdentifier(dbName), pq.QuoteIdentifier(templateName)))
	require.NoError(tb, err, "failed to create test database from template")

	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dropDatabase(ctx, adminDSN, dbName)
	})

	dsn, err := replaceDBName(adminDSN, dbName)
	require.NoError(tb, err)
	return dsn
}

// DB returns a database/sql handle opened with the named driver ("pgx" or
// "postgres") on a fresh fixture database.
func DB(tb testing.TB, driverName string) *sql.DB {
	tb.Helper()

	dsn := DSN(tb)
	db, err := sql.Open(driverName, dsn)
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping(), "failed to ping test database")

	// Registered after DSN's cleanup, so it runs before the drop.
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

func uniqueDBName(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

func exec(dsn, stmt string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.Exec(stmt)
	return err
}

func dropDatabase(ctx context.Context, adminDSN, name string) error {
	db, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", pq.QuoteIdentifier(name)))
	return err
}

// replaceDBName swaps the database in a postgres:// URL.
func replaceDBName(dsn, name string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing DSN: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}
