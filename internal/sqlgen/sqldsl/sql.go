package sqldsl

import (
	"fmt"
	"strings"
)

// Optf returns formatted string if condition is true, empty string otherwise.
// Useful for optional SQL clauses.
func Optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// JoinClause represents a SQL JOIN clause. An empty Type renders as INNER.
type JoinClause struct {
	Type      string
	TableExpr TableExpr
	On        Expr
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	joinType := j.Type
	if joinType == "" {
		joinType = "INNER"
	}
	if j.On == nil {
		return joinType + " JOIN " + j.TableExpr.TableSQL()
	}
	return joinType + " JOIN " + j.TableExpr.TableSQL() + " ON " + j.On.SQL()
}

// FromItem is one entry of a FROM list: either a table joined by comma, or
// an explicit join.
type FromItem struct {
	Table TableExpr
	Join  *JoinClause
}

// FromClause is a FROM list. The first item's Join is ignored.
type FromClause struct {
	Items []FromItem
}

// SQL renders " FROM ..." or the empty string for an empty list.
func (f FromClause) SQL() string {
	if len(f.Items) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(" FROM ")
	for i, item := range f.Items {
		switch {
		case i == 0:
			sb.WriteString(firstTable(item).TableSQL())
		case item.Join != nil:
			sb.WriteString(" ")
			sb.WriteString(item.Join.SQL())
		default:
			sb.WriteString(", ")
			sb.WriteString(item.Table.TableSQL())
		}
	}
	return sb.String()
}

func firstTable(item FromItem) TableExpr {
	if item.Table == nil && item.Join != nil {
		return item.Join.TableExpr
	}
	return item.Table
}

// OrderItem is one sort key.
type OrderItem struct {
	Expr      Expr
	Direction string
}

// SQL renders the sort key.
func (o OrderItem) SQL() string {
	if o.Direction == "" {
		return o.Expr.SQL()
	}
	return o.Expr.SQL() + " " + o.Direction
}

// Assignment is a SET entry of an UPDATE.
type Assignment struct {
	Column Expr
	Value  Expr
}

// SQL renders col = value.
func (a Assignment) SQL() string {
	return a.Column.SQL() + " = " + a.Value.SQL()
}

// WhereSQL renders " WHERE ..." or the empty string.
func WhereSQL(c Chain) string {
	return Optf(len(c) > 0, " WHERE %s", c.SQL())
}

// HavingSQL renders " HAVING ..." or the empty string.
func HavingSQL(c Chain) string {
	return Optf(len(c) > 0, " HAVING %s", c.SQL())
}

// GroupBySQL renders " GROUP BY ..." or the empty string.
func GroupBySQL(cols []Expr) string {
	return Optf(len(cols) > 0, " GROUP BY %s", List(cols).SQL())
}

// OrderBySQL renders " ORDER BY ..." or the empty string.
func OrderBySQL(items []OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.SQL()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// LimitSQL renders " LIMIT n" for positive n, else the empty string.
func LimitSQL(n int) string {
	return Optf(n > 0, " LIMIT %d", n)
}

// SelectStmt represents a SELECT query. Clauses render in the order
// PostgreSQL requires: WHERE, GROUP BY, HAVING, ORDER BY, LIMIT.
type SelectStmt struct {
	Columns []Expr
	From    FromClause
	Where   Chain
	GroupBy []Expr
	Having  Chain
	OrderBy []OrderItem
	Limit   int
}

// SQL renders the SELECT statement.
func (s SelectStmt) SQL() string {
	return "SELECT " + s.columnsSQL() +
		s.From.SQL() +
		WhereSQL(s.Where) +
		GroupBySQL(s.GroupBy) +
		HavingSQL(s.Having) +
		OrderBySQL(s.OrderBy) +
		LimitSQL(s.Limit)
}

func (s SelectStmt) columnsSQL() string {
	if len(s.Columns) == 0 {
		return "*"
	}
	return List(s.Columns).SQL()
}

// InsertStmt represents a multi-row INSERT.
type InsertStmt struct {
	Table   TableExpr
	Columns []Expr
	Rows    [][]Expr
}

// SQL renders the INSERT statement.
func (s InsertStmt) SQL() string {
	tuples := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		tuples[i] = Paren{Expr: List(row)}.SQL()
	}
	return "INSERT INTO " + s.Table.TableSQL() +
		" " + Paren{Expr: List(s.Columns)}.SQL() +
		" VALUES " + strings.Join(tuples, ", ")
}

// UpdateStmt represents an UPDATE.
type UpdateStmt struct {
	Table TableRef
	Set   []Assignment
	Where Chain
}

// SQL renders the UPDATE statement.
func (s UpdateStmt) SQL() string {
	parts := make([]string, len(s.Set))
	for i, a := range s.Set {
		parts[i] = a.SQL()
	}
	return "UPDATE " + s.Table.AliasedSQL() +
		" SET " + strings.Join(parts, ", ") +
		WhereSQL(s.Where)
}

// DeleteStmt represents a DELETE.
type DeleteStmt struct {
	Table TableExpr
	Where Chain
}

// SQL renders the DELETE statement.
func (s DeleteStmt) SQL() string {
	return "DELETE FROM " + s.Table.TableSQL() + WhereSQL(s.Where)
}
