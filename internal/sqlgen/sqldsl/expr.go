package sqldsl

import (
	"strings"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Raw is SQL text that is already quoted and safe to emit as-is.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Star is the * wildcard.
type Star struct{}

// SQL renders *.
func (Star) SQL() string {
	return "*"
}

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	return f.Name + "(" + List(f.Args).SQL() + ")"
}

// Count returns count(expr).
func Count(expr Expr) Func {
	return Func{Name: "count", Args: []Expr{expr}}
}

// List renders expressions separated by commas.
type List []Expr

// SQL renders the list.
func (l List) SQL() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.SQL()
	}
	return strings.Join(parts, ", ")
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}
