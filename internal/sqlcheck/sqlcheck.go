// Package sqlcheck verifies SQL text with the PostgreSQL parser.
//
// It is used to vet allow-listed raw statements and to prove that generated
// statements are syntactically valid; it never rewrites SQL.
package sqlcheck

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmpty              = errors.New("sqlcheck: empty statement")
	ErrMultipleStatements = errors.New("sqlcheck: multiple statements")
	ErrParse              = errors.New("sqlcheck: parse failed")
)

// Kind classifies a parsed statement.
type Kind string

const (
	KindSelect  Kind = "SELECT"
	KindInsert  Kind = "INSERT"
	KindUpdate  Kind = "UPDATE"
	KindDelete  Kind = "DELETE"
	KindExplain Kind = "EXPLAIN"
	KindOther   Kind = "OTHER"
)

// ReadOnly reports whether statements of this kind never modify data.
func (k Kind) ReadOnly() bool {
	return k == KindSelect || k == KindExplain
}

// Statement parses sql, requires exactly one statement and returns its kind.
func Statement(sql string) (Kind, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "", ErrEmpty
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(tree.Stmts) == 0 {
		return "", ErrEmpty
	}
	if len(tree.Stmts) > 1 {
		return "", ErrMultipleStatements
	}

	stmt := tree.Stmts[0].Stmt
	if stmt == nil {
		return "", ErrEmpty
	}
	switch stmt.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return KindSelect, nil
	case *pg_query.Node_InsertStmt:
		return KindInsert, nil
	case *pg_query.Node_UpdateStmt:
		return KindUpdate, nil
	case *pg_query.Node_DeleteStmt:
		return KindDelete, nil
	case *pg_query.Node_ExplainStmt:
		return KindExplain, nil
	default:
		return KindOther, nil
	}
}

// Fingerprint returns the parser fingerprint of sql. Statements that differ
// only in literal values or whitespace share a fingerprint.
func Fingerprint(sql string) (string, error) {
	fp, err := pg_query.Fingerprint(sql)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrParse, err)
	}
	return fp, nil
}
