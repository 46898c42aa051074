package safesql_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/safesql"
	"github.com/pthm/safesql/internal/testutil"
	"github.com/pthm/safesql/pkg/query"
)

type driverCase struct {
	name string
	open func(t *testing.T) safesql.Driver
	// affected is whether the driver reports rows affected for edits.
	affected bool
}

var driverCases = []driverCase{
	{
		name: "pgxpool",
		open: func(t *testing.T) safesql.Driver {
			pool, err := pgxpool.New(context.Background(), testutil.DSN(t))
			require.NoError(t, err)
			t.Cleanup(pool.Close)
			return safesql.NewPgxDriver(pool)
		},
		affected: true,
	},
	{
		name: "pgx stdlib",
		open: func(t *testing.T) safesql.Driver {
			return safesql.NewSQLDriver(testutil.DB(t, "pgx"))
		},
	},
	{
		name: "lib/pq",
		open: func(t *testing.T) safesql.Driver {
			return safesql.NewSQLDriver(testutil.DB(t, "postgres"))
		},
	},
}

func TestIntegration_ReadWrite(t *testing.T) {
	for _, dc := range driverCases {
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			c := safesql.New(dc.open(t), safesql.WithDatabase("test"))

			require.True(t, c.IsOK(ctx))

			rows, err := c.Select(ctx, query.SelectQuery{
				Columns: query.Cols("id", "name"),
				From:    query.Tables("users"),
				Where:   query.Conditions{query.Where("active", query.OpEq, "true")},
				Order:   query.OrderList{{Column: query.Col("id"), Direction: query.Asc}},
			})
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "ada", rows[0]["name"])
			assert.Equal(t, "grace", rows[1]["name"])

			// A quote inside a value is escaped, not interpreted.
			rows, err = c.Select(ctx, query.SelectQuery{
				Columns: query.Cols("name"),
				From:    query.Tables("users"),
				Where:   query.Conditions{query.Where("name", query.OpEq, "o'brien")},
			})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "o'brien", rows[0]["name"])

			n, err := c.Count(ctx, query.CountQuery{From: query.Tables("users")})
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			res, err := c.Insert(ctx, query.InsertQuery{
				Table: query.TableName("users"),
				Values: query.Records{
					{{Column: "id", Value: "4"}, {Column: "name", Value: "lin"}},
					{{Column: "id", Value: "5"}, {Column: "name", Value: "mae"}},
				},
			})
			require.NoError(t, err)
			assert.Equal(t, safesql.StatusOK, res.Status)
			if dc.affected {
				assert.Equal(t, int64(2), res.RowsAffected)
			} else {
				assert.Equal(t, int64(-1), res.RowsAffected)
			}

			res, err = c.Update(ctx, query.UpdateQuery{
				Table:  query.TableSpec{Table: "users", Alias: "u"},
				Values: query.Record{{Column: "email", Value: "lin@example.com"}},
				Where:  query.Conditions{query.Where("u.id", query.OpEq, "4")},
			})
			require.NoError(t, err)
			assert.Equal(t, safesql.StatusOK, res.Status)

			rows, err = c.Select(ctx, query.SelectQuery{
				Columns: query.Cols("email"),
				From:    query.Tables("users"),
				Where:   query.Conditions{query.Where("id", query.OpEq, "4")},
			})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "lin@example.com", rows[0]["email"])

			_, err = c.Delete(ctx, query.DeleteQuery{
				Table: query.TableName("users"),
				Where: query.Conditions{query.Where("id", query.OpIn, "4,5")},
			})
			require.NoError(t, err)

			n, err = c.Count(ctx, query.CountQuery{From: query.Tables("users")})
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})
	}
}

func TestIntegration_Join(t *testing.T) {
	for _, dc := range driverCases {
		t.Run(dc.name, func(t *testing.T) {
			c := safesql.New(dc.open(t))
			rows, err := c.Select(context.Background(), query.SelectQuery{
				Columns: query.Cols("u.name"),
				From: query.TableList{
					query.TableSpec{Table: "users", Alias: "u"},
					query.TableSpec{
						Table:       "orders",
						Alias:       "o",
						JoinType:    query.JoinInner,
						JoinColumn1: query.ColAs("u", "id"),
						JoinColumn2: query.ColAs("o", "user_id"),
					},
				},
				Where: query.Conditions{query.Where("o.total", query.OpGt, "10")},
				Order: query.OrderList{{Column: query.Col("u.name"), Direction: query.Asc}},
			})
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "ada", rows[0]["name"])
			assert.Equal(t, "grace", rows[1]["name"])
		})
	}
}

func TestIntegration_DriverErrors(t *testing.T) {
	for _, dc := range driverCases {
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			c := safesql.New(dc.open(t), safesql.WithAllowList(safesql.ParseAllowList(safesql.AllowAll, "")))

			_, err := c.Select(ctx, query.SelectQuery{
				Columns: query.Cols("*"),
				From:    query.Tables("missing_table"),
			})
			require.Error(t, err)
			assert.True(t, safesql.IsDriverErr(err))

			e, ok := safesql.AsError(err)
			require.True(t, ok)
			assert.Equal(t, 400, e.Code)
			assert.Equal(t, safesql.ClientError, e.Kind)
			assert.Equal(t, "Select", e.Source)

			// Duplicate primary key: class 23.
			_, err = c.Insert(ctx, query.InsertQuery{
				Table:  query.TableName("users"),
				Values: query.Records{{{Column: "id", Value: "1"}, {Column: "name", Value: "dup"}}},
			})
			require.Error(t, err)
			e, ok = safesql.AsError(err)
			require.True(t, ok)
			assert.Equal(t, 400, e.Code)
		})
	}
}

func TestIntegration_Raw(t *testing.T) {
	const stmt = "SELECT count(*) AS n FROM orders"

	for _, dc := range driverCases {
		t.Run(dc.name, func(t *testing.T) {
			ctx := context.Background()
			c := safesql.New(dc.open(t),
				safesql.WithAllowList(safesql.ParseAllowList(safesql.AllowPublic, stmt)),
				safesql.WithRawAccess(safesql.RawAccessAllow),
			)

			rows, err := c.Raw(ctx, stmt)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.EqualValues(t, 3, rows[0]["n"])

			_, err = c.Raw(ctx, "SELECT * FROM orders")
			assert.True(t, safesql.IsQueryNotAllowedErr(err))
		})
	}
}

type user struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

func TestIntegration_SelectAs(t *testing.T) {
	for _, dc := range driverCases {
		t.Run(dc.name, func(t *testing.T) {
			c := safesql.New(dc.open(t))
			users, err := safesql.SelectAs[user](context.Background(), c, query.SelectQuery{
				Columns: query.Cols("id", "name", "active", "created_at"),
				From:    query.Tables("users"),
				Order:   query.OrderList{{Column: query.Col("id"), Direction: query.Asc}},
			})
			require.NoError(t, err)
			require.Len(t, users, 3)
			assert.Equal(t, int64(1), users[0].ID)
			assert.Equal(t, "ada", users[0].Name)
			assert.True(t, users[0].Active)
			assert.True(t, users[0].CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), "created_at = %v", users[0].CreatedAt)
			assert.False(t, users[2].Active)
		})
	}
}
