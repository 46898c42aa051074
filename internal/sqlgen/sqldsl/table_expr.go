package sqldsl

// TableExpr is the interface for table expressions in FROM and JOIN clauses.
type TableExpr interface {
	// TableSQL returns the SQL for use in FROM/JOIN clauses.
	TableSQL() string
}

// TableRef is a quoted table name with an optional quoted alias.
type TableRef struct {
	Name  string
	Alias string
}

// TableSQL implements TableExpr. The alias follows the name without AS.
func (t TableRef) TableSQL() string {
	if t.Alias != "" {
		return t.Name + " " + t.Alias
	}
	return t.Name
}

// AliasedSQL renders the reference with an explicit AS, the form UPDATE
// requires.
func (t TableRef) AliasedSQL() string {
	if t.Alias != "" {
		return t.Name + " AS " + t.Alias
	}
	return t.Name
}

// TableAs creates a table reference with an alias.
func TableAs(name, alias string) TableRef {
	return TableRef{Name: name, Alias: alias}
}
