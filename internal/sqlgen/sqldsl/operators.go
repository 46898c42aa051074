package sqldsl

import "strings"

// Cmp is a binary comparison such as a = b or a LIKE b.
type Cmp struct {
	Left  Expr
	Op    string
	Right Expr
}

func (c Cmp) SQL() string { return c.Left.SQL() + " " + c.Op + " " + c.Right.SQL() }

// In is an IN or, when Negate is set, NOT IN membership test.
type In struct {
	Expr   Expr
	Values []Expr
	Negate bool
}

func (i In) SQL() string {
	op := " IN "
	if i.Negate {
		op = " NOT IN "
	}
	return i.Expr.SQL() + op + Paren{Expr: List(i.Values)}.SQL()
}

// Between is a range test with inclusive bounds.
type Between struct {
	Expr Expr
	Low  Expr
	High Expr
}

func (b Between) SQL() string {
	return b.Expr.SQL() + " BETWEEN " + b.Low.SQL() + " AND " + b.High.SQL()
}

// Cond is a condition joined to the one before it by Relation.
type Cond struct {
	Relation string
	Expr     Expr
}

// Chain is a flat sequence of conditions evaluated with ordinary AND/OR
// precedence. The relation of the first condition is not rendered.
type Chain []Cond

func (c Chain) SQL() string {
	var sb strings.Builder
	for i, cond := range c {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(cond.Relation)
			sb.WriteString(" ")
		}
		sb.WriteString(cond.Expr.SQL())
	}
	return sb.String()
}
