package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/safesql/pkg/query"
)

func TestParseAllowList(t *testing.T) {
	list := ParseAllowList("posts, neon.users,,comments ", "SELECT 1; SELECT now() ;")
	assert.Equal(t, []string{"posts", "neon.users", "comments"}, list.Tables)
	assert.Equal(t, []string{"SELECT 1", "SELECT now()"}, list.Queries)

	empty := ParseAllowList("", "")
	assert.Empty(t, empty.Tables)
	assert.Empty(t, empty.Queries)
}

func TestAssertAllowedTable(t *testing.T) {
	tests := []struct {
		name    string
		table   query.TableRef
		tables  []string
		allowed bool
	}{
		{name: "listed", table: query.TableName("posts"), tables: []string{"posts"}, allowed: true},
		{name: "not listed", table: query.TableName("users"), tables: []string{"posts"}},
		{name: "empty list", table: query.TableName("posts"), tables: nil},
		{name: "all", table: query.TableName("pg_database"), tables: []string{"ALL"}, allowed: true},
		{name: "legacy all", table: query.TableName("anything"), tables: []string{"NEON_ALL"}, allowed: true},
		{name: "public", table: query.TableName("posts"), tables: []string{"PUBLIC"}, allowed: true},
		{name: "public rejects catalog", table: query.TableName("pg_database"), tables: []string{"PUBLIC"}},
		{name: "legacy public rejects catalog", table: query.TableName("pg_database"), tables: []string{"NEON_PUBLIC"}},
		{name: "public rejects information schema", table: query.TableSpec{Schema: "information_schema", Table: "tables"}, tables: []string{"PUBLIC"}},
		{name: "public allows upper-case PG prefix", table: query.TableName("PG_stats"), tables: []string{"PUBLIC"}, allowed: true},
		{name: "public with explicit catalog", table: query.TableName("pg_database"), tables: []string{"PUBLIC", "pg_database"}, allowed: true},
		{name: "explicit catalog", table: query.TableName("pg_database"), tables: []string{"pg_database"}, allowed: true},
		{name: "schema qualified", table: query.TableSpec{Schema: "neon", Table: "posts"}, tables: []string{"neon.posts"}, allowed: true},
		{name: "schema qualified mismatch", table: query.TableSpec{Schema: "neon", Table: "posts"}, tables: []string{"posts"}},
		{name: "alias does not matter", table: query.TableSpec{Table: "posts", Alias: "p"}, tables: []string{"posts"}, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AssertAllowedTable(tt.table, AllowList{Tables: tt.tables})
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrTableNotAllowed)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAssertAllowedTable_Monotonic(t *testing.T) {
	for _, name := range []string{"posts", "pg_class", "information_schema.columns", "a.b", "x"} {
		assert.NoError(t, AssertAllowedTable(query.TableName(name), AllowList{Tables: []string{"ALL"}}), name)
		assert.Error(t, AssertAllowedTable(query.TableName(name), AllowList{}), name)
	}
}

func TestAssertAllowedTables(t *testing.T) {
	list := AllowList{Tables: []string{"posts", "users"}}
	assert.NoError(t, AssertAllowedTables(query.Tables("posts", "users"), list))
	assert.ErrorIs(t, AssertAllowedTables(query.Tables("posts", "secrets"), list), ErrTableNotAllowed)
}

func TestAssertAllowedQuery(t *testing.T) {
	list := ParseAllowList("", "SELECT count(*) FROM posts")
	assert.NoError(t, AssertAllowedQuery("SELECT count(*) FROM posts", list))
	assert.ErrorIs(t, AssertAllowedQuery("SELECT count(*) FROM posts ", list), ErrQueryNotAllowed)
	assert.ErrorIs(t, AssertAllowedQuery("DROP TABLE posts", list), ErrQueryNotAllowed)
	assert.NoError(t, AssertAllowedQuery("DROP TABLE posts", AllowList{Queries: []string{"ALL"}}))
	assert.ErrorIs(t, AssertAllowedQuery("SELECT 1", AllowList{}), ErrQueryNotAllowed)
}

func TestIsSystemTable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "pg_class", want: true},
		{name: "pg_catalog.pg_user", want: true},
		{name: "information_schema.tables", want: true},
		{name: "PG_stats"},
		{name: "INFORMATION_SCHEMA.tables"},
		{name: "posts"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSystemTable(tt.name), tt.name)
	}
}
