package guard

import (
	"slices"
	"strings"

	"github.com/pthm/safesql/pkg/query"
)

// Allow-list sentinels.
const (
	// All permits every table, or every raw statement.
	All = "ALL"
	// Public permits every table outside the system catalogs.
	Public = "PUBLIC"

	legacyAll    = "NEON_ALL"
	legacyPublic = "NEON_PUBLIC"
)

// AllowList holds the tables and raw statements a client may use. It is
// built once and never modified.
type AllowList struct {
	Tables  []string
	Queries []string
}

// ParseAllowList parses a comma-separated table list and a semicolon-separated
// list of raw statements. Entries are trimmed and empty entries dropped.
func ParseAllowList(tables, queries string) AllowList {
	return AllowList{
		Tables:  splitList(tables, ","),
		Queries: splitList(queries, ";"),
	}
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AllTables reports whether every table is permitted.
func (a AllowList) AllTables() bool {
	return slices.Contains(a.Tables, All) || slices.Contains(a.Tables, legacyAll)
}

// PublicTables reports whether non-system tables are permitted.
func (a AllowList) PublicTables() bool {
	return slices.Contains(a.Tables, Public) || slices.Contains(a.Tables, legacyPublic)
}

// AllQueries reports whether every raw statement is permitted.
func (a AllowList) AllQueries() bool {
	return slices.Contains(a.Queries, All) || slices.Contains(a.Queries, legacyAll)
}

// IsSystemTable reports whether name refers to pg_catalog objects or the
// information schema. The match is case-sensitive: a quoted "PG_stats" is a
// user table.
func IsSystemTable(name string) bool {
	return strings.Contains(name, "pg_") || strings.Contains(name, "information_schema.")
}

// AssertAllowedTable checks the schema-qualified name of t against list.
func AssertAllowedTable(t query.TableRef, list AllowList) error {
	name := query.SpecOf(t).QualifiedName()
	switch {
	case list.AllTables():
		return nil
	case slices.Contains(list.Tables, name):
		return nil
	case list.PublicTables() && !IsSystemTable(name):
		return nil
	}
	return newValidationError(name, "table", "is not in the allowed tables", ErrTableNotAllowed)
}

// AssertAllowedTables checks every table of a FROM list.
func AssertAllowedTables(tables query.TableList, list AllowList) error {
	for _, t := range tables {
		if err := AssertAllowedTable(t, list); err != nil {
			return err
		}
	}
	return nil
}

// AssertAllowedQuery checks a raw statement against list. Only exact matches
// are accepted.
func AssertAllowedQuery(sql string, list AllowList) error {
	if list.AllQueries() || slices.Contains(list.Queries, sql) {
		return nil
	}
	return newValidationError(sql, "query", "is not in the allowed queries", ErrQueryNotAllowed)
}

// IsSentinel reports whether entry is one of the allow-list sentinels rather
// than a table name or statement.
func IsSentinel(entry string) bool {
	switch entry {
	case All, Public, legacyAll, legacyPublic:
		return true
	}
	return false
}
