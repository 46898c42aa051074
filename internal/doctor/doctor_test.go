package doctor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/safesql"
)

// fakeDB answers the health check and the table listing.
func fakeDB(tables ...[2]string) safesql.Driver {
	return safesql.DriverFunc(func(_ context.Context, sql string) (*safesql.Result, error) {
		switch sql {
		case safesql.HealthCheckSQL:
			return &safesql.Result{Rows: []safesql.Row{{"status": true}}, RowsAffected: 1}, nil
		case userTablesSQL:
			res := &safesql.Result{RowsAffected: int64(len(tables))}
			for _, t := range tables {
				res.Rows = append(res.Rows, safesql.Row{"table_schema": t[0], "table_name": t[1]})
			}
			return res, nil
		}
		return nil, errors.New("unexpected statement: " + sql)
	})
}

func TestDoctor_NoDriver(t *testing.T) {
	report, err := New(nil, safesql.ParseAllowList("posts", ""), false).Run(context.Background())
	require.NoError(t, err)

	probe, ok := report.Find(categoryConnection, "probe")
	require.True(t, ok)
	assert.Equal(t, StatusFail, probe.Status)
	assert.True(t, report.HasErrors())

	_, ok = report.Find(categoryAllowList, "tables_exist")
	assert.False(t, ok, "table check needs a connection")
}

func TestDoctor_ConnectionFailure(t *testing.T) {
	down := safesql.DriverFunc(func(context.Context, string) (*safesql.Result, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	report, err := New(down, safesql.ParseAllowList("PUBLIC", ""), false).Run(context.Background())
	require.NoError(t, err)

	probe, _ := report.Find(categoryConnection, "probe")
	assert.Equal(t, StatusFail, probe.Status)
	assert.Contains(t, probe.Details, "connection refused")
}

func TestDoctor_TableChecks(t *testing.T) {
	tests := []struct {
		name      string
		tables    string
		checkName string
		want      Status
	}{
		{name: "public mode", tables: "PUBLIC", checkName: "mode", want: StatusPass},
		{name: "legacy public mode", tables: "NEON_PUBLIC", checkName: "mode", want: StatusPass},
		{name: "all mode", tables: "ALL", checkName: "mode", want: StatusWarn},
		{name: "empty list", tables: "", checkName: "mode", want: StatusWarn},
		{name: "explicit list", tables: "posts,blog.comments", checkName: "mode", want: StatusPass},
		{name: "listed tables exist", tables: "posts,blog.comments", checkName: "tables_exist", want: StatusPass},
		{name: "listed table missing", tables: "posts,drafts", checkName: "tables_exist", want: StatusWarn},
		{name: "system table listed", tables: "PUBLIC,pg_catalog.pg_user", checkName: "system_tables", want: StatusWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := fakeDB([2]string{"public", "posts"}, [2]string{"blog", "comments"})
			report, err := New(db, safesql.ParseAllowList(tt.tables, ""), false).Run(context.Background())
			require.NoError(t, err)

			check, ok := report.Find(categoryAllowList, tt.checkName)
			require.True(t, ok, "missing check %s", tt.checkName)
			assert.Equal(t, tt.want, check.Status, check.Message)
		})
	}
}

func TestDoctor_MissingTableDetails(t *testing.T) {
	db := fakeDB([2]string{"public", "posts"})
	report, err := New(db, safesql.ParseAllowList("posts,zeta,alpha", ""), false).Run(context.Background())
	require.NoError(t, err)

	check, _ := report.Find(categoryAllowList, "tables_exist")
	assert.Equal(t, "alpha\nzeta", check.Details)
	assert.Equal(t, "2 allowed tables do not exist", check.Message)
}

func TestDoctor_RawChecks(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		report, err := New(fakeDB(), safesql.ParseAllowList("PUBLIC", ""), false).Run(context.Background())
		require.NoError(t, err)
		check, _ := report.Find(categoryRaw, "exposure")
		assert.Equal(t, StatusPass, check.Status)
		_, ok := report.Find(categoryRaw, "queries_parse")
		assert.False(t, ok)
	})

	t.Run("any statement allowed", func(t *testing.T) {
		report, err := New(fakeDB(), safesql.ParseAllowList("PUBLIC", "ALL"), true).Run(context.Background())
		require.NoError(t, err)
		check, _ := report.Find(categoryRaw, "exposure")
		assert.Equal(t, StatusFail, check.Status)
	})

	t.Run("listed statements are vetted", func(t *testing.T) {
		queries := "SELECT id FROM posts; SELECT id FROM posts WHERE id = 1; SELECT id FROM posts WHERE id = 2; DELETE FROM posts; SELEC oops"
		report, err := New(fakeDB(), safesql.ParseAllowList("PUBLIC", queries), true).Run(context.Background())
		require.NoError(t, err)

		exposure, _ := report.Find(categoryRaw, "exposure")
		assert.Equal(t, StatusWarn, exposure.Status)

		parse, _ := report.Find(categoryRaw, "queries_parse")
		assert.Equal(t, StatusFail, parse.Status)
		assert.Contains(t, parse.Details, "SELEC oops")

		writes, ok := report.Find(categoryRaw, "queries_readonly")
		require.True(t, ok)
		assert.Contains(t, writes.Details, "DELETE FROM posts (DELETE)")

		dup, ok := report.Find(categoryRaw, "queries_duplicate")
		require.True(t, ok)
		assert.Equal(t, "SELECT id FROM posts WHERE id = 2 ~ SELECT id FROM posts WHERE id = 1", dup.Details)
	})
}

func TestReport_Print(t *testing.T) {
	r := &Report{}
	r.AddCheck(CheckResult{Category: "Connection", Name: "probe", Status: StatusPass, Message: "ok"})
	r.AddCheck(CheckResult{Category: "Raw Access", Name: "exposure", Status: StatusWarn, Message: "careful", Details: "a\nb", FixHint: "fix it"})

	var quiet bytes.Buffer
	r.Print(&quiet, false)
	assert.Equal(t, "\nConnection\n  ✓ ok\n\nRaw Access\n  ⚠ careful\n      Fix: fix it\n\nSummary: 1 passed, 1 warnings, 0 errors\n", quiet.String())

	var verbose bytes.Buffer
	r.Print(&verbose, true)
	assert.Contains(t, verbose.String(), "      a\n      b\n")
	assert.False(t, r.HasErrors())
}
