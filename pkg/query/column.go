package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Column identifies a column in a select list, a condition, a grouping or an
// ordering. The implementations are ColumnName, Star, CountOf and
// AliasedColumn.
type Column interface {
	Operand
	isColumn()
}

// ColumnName is a bare column name. Dots separate qualifiers, so "p.id"
// refers to column id of the relation aliased p.
type ColumnName string

// Star is the * wildcard.
type Star struct{}

// CountOf is the count aggregate. An empty Column or "*" counts rows.
type CountOf struct {
	Column string
}

// AliasedColumn is a column qualified by a table alias.
type AliasedColumn struct {
	Alias string `json:"alias,omitempty"`
	Name  string `json:"name"`
}

func (ColumnName) isColumn()    {}
func (Star) isColumn()          {}
func (CountOf) isColumn()       {}
func (AliasedColumn) isColumn() {}

func (ColumnName) isOperand()    {}
func (Star) isOperand()          {}
func (CountOf) isOperand()       {}
func (AliasedColumn) isOperand() {}

var countPattern = regexp.MustCompile(`^count\((\*|[A-Za-z_][A-Za-z0-9_]*)\)$`)

// ParseColumn classifies a column written as a plain string: "*" is Star,
// "count(*)" and "count(col)" are CountOf, anything else is a ColumnName.
func ParseColumn(s string) Column {
	if s == "*" {
		return Star{}
	}
	if m := countPattern.FindStringSubmatch(s); m != nil {
		if m[1] == "*" {
			return CountOf{}
		}
		return CountOf{Column: m[1]}
	}
	return ColumnName(s)
}

// Col is shorthand for ParseColumn.
func Col(name string) Column {
	return ParseColumn(name)
}

// ColAs returns name qualified by alias.
func ColAs(alias, name string) AliasedColumn {
	return AliasedColumn{Alias: alias, Name: name}
}

// ColumnList is an ordered list of columns. In JSON it is a string, an
// {alias, name} object, or an array of either.
type ColumnList []Column

// Cols parses each name with ParseColumn.
func Cols(names ...string) ColumnList {
	cols := make(ColumnList, len(names))
	for i, n := range names {
		cols[i] = ParseColumn(n)
	}
	return cols
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ColumnList) UnmarshalJSON(data []byte) error {
	items, err := oneOrMany(data)
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	cols := make(ColumnList, 0, len(items))
	for i, raw := range items {
		col, err := decodeColumn(raw)
		if err != nil {
			return fmt.Errorf("columns[%d]: %w", i, err)
		}
		cols = append(cols, col)
	}
	*l = cols
	return nil
}

var errEmptyColumnName = errors.New("column object requires a name")

func decodeColumn(raw json.RawMessage) (Column, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseColumn(s), nil
	}
	var ac AliasedColumn
	if err := json.Unmarshal(raw, &ac); err != nil {
		return nil, fmt.Errorf("column must be a string or an object: %w", err)
	}
	if ac.Name == "" {
		return nil, errEmptyColumnName
	}
	return ac, nil
}
