// Package sqldsl provides typed building blocks for rendering PostgreSQL
// statements.
//
// # Overview
//
// Nodes hold fragments that have already been quoted by the guard package and
// know only how to lay themselves out. Every node implements Expr, whose SQL
// method renders it:
//
//	Raw(`"p"."id"`)                                   // "p"."id"
//	Cmp{Left: col, Op: "=", Right: Raw(`'1'`)}         // "p"."id" = '1'
//	In{Expr: col, Values: vals}                       // "p"."id" IN ('1', '2')
//	Between{Expr: col, Low: lo, High: hi}             // "p"."id" BETWEEN '1' AND '3'
//	Chain{{Expr: a}, {Relation: "OR", Expr: b}}        // a OR b
//
// # Statements
//
// SelectStmt, InsertStmt, UpdateStmt and DeleteStmt render complete
// statements. Optional clauses render with a leading space and collapse to
// the empty string when unset, so a statement is a plain concatenation:
//
//	stmt := SelectStmt{
//	    Columns: []Expr{Raw(`"id"`)},
//	    From:    FromClause{Items: []FromItem{{Table: TableRef{Name: `"t"`}}}},
//	    Limit:   10,
//	}
//	stmt.SQL() // SELECT "id" FROM "t" LIMIT 10
//
// Clause helpers (WhereSQL, GroupBySQL, HavingSQL, OrderBySQL, LimitSQL) are
// exported so callers can render a single clause on its own.
package sqldsl
