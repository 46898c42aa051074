package sqlgen

import (
	"fmt"

	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/internal/sqlgen/sqldsl"
	"github.com/pthm/safesql/pkg/query"
)

// BuildSelect renders a SELECT statement.
func BuildSelect(q query.SelectQuery) (string, error) {
	stmt, err := selectStmt(q)
	if err != nil {
		return "", err
	}
	return stmt.SQL(), nil
}

// BuildCount renders SELECT count(*) over the query's tables and conditions.
func BuildCount(q query.CountQuery) (string, error) {
	return BuildSelect(query.SelectQuery{
		Columns: query.ColumnList{query.CountOf{}},
		From:    q.From,
		Where:   q.Where,
	})
}

func selectStmt(q query.SelectQuery) (sqldsl.SelectStmt, error) {
	if len(q.Columns) == 0 {
		return sqldsl.SelectStmt{}, structural("SELECT", "at least one column is required")
	}
	columns, err := columnExprs(q.Columns)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	from, err := fromClause(q.From)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	where, err := conditionChain(q.Where)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	group, err := columnExprs(q.Group)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	having, err := conditionChain(q.Having)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	order, err := orderItems(q.Order)
	if err != nil {
		return sqldsl.SelectStmt{}, err
	}
	return sqldsl.SelectStmt{
		Columns: columns,
		From:    from,
		Where:   where,
		GroupBy: group,
		Having:  having,
		OrderBy: order,
		Limit:   q.Limit,
	}, nil
}

// BuildInsert renders a multi-row INSERT. The first record's columns define
// the column list and every other record must assign exactly those columns.
func BuildInsert(q query.InsertQuery) (string, error) {
	if query.SpecOf(q.Table).Alias != "" {
		return "", structural("INSERT", "table alias is not allowed")
	}
	table, err := tableRef(q.Table)
	if err != nil {
		return "", err
	}
	if len(q.Values) == 0 || len(q.Values[0]) == 0 {
		return "", structural("INSERT", "at least one row with one column is required")
	}

	names := q.Values[0].Columns()
	columns := make([]sqldsl.Expr, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		if seen[name] {
			return "", structural("INSERT", fmt.Sprintf("column %q is assigned twice", name))
		}
		seen[name] = true
		quoted, err := guard.SanitizeName(name)
		if err != nil {
			return "", err
		}
		columns[i] = sqldsl.Raw(quoted)
	}

	rows := make([][]sqldsl.Expr, len(q.Values))
	for r, rec := range q.Values {
		if len(rec) != len(names) {
			return "", structural("INSERT", fmt.Sprintf("row %d has %d columns, expected %d", r, len(rec), len(names)))
		}
		row := make([]sqldsl.Expr, len(names))
		for i, name := range names {
			val, ok := rec.Get(name)
			if !ok {
				return "", structural("INSERT", fmt.Sprintf("row %d is missing column %q", r, name))
			}
			lit, err := guard.SanitizeLiteral(val)
			if err != nil {
				return "", err
			}
			row[i] = sqldsl.Raw(lit)
		}
		rows[r] = row
	}

	return sqldsl.InsertStmt{Table: table, Columns: columns, Rows: rows}.SQL(), nil
}

// BuildUpdate renders an UPDATE. An aliased target is rendered with AS.
func BuildUpdate(q query.UpdateQuery) (string, error) {
	table, err := tableRef(q.Table)
	if err != nil {
		return "", err
	}
	if len(q.Values) == 0 {
		return "", structural("UPDATE", "at least one column must be set")
	}
	set := make([]sqldsl.Assignment, len(q.Values))
	seen := make(map[string]bool, len(q.Values))
	for i, f := range q.Values {
		if seen[f.Column] {
			return "", structural("UPDATE", fmt.Sprintf("column %q is assigned twice", f.Column))
		}
		seen[f.Column] = true
		col, err := guard.SanitizeName(f.Column)
		if err != nil {
			return "", err
		}
		val, err := guard.SanitizeLiteral(f.Value)
		if err != nil {
			return "", err
		}
		set[i] = sqldsl.Assignment{Column: sqldsl.Raw(col), Value: sqldsl.Raw(val)}
	}
	where, err := conditionChain(q.Where)
	if err != nil {
		return "", err
	}
	return sqldsl.UpdateStmt{Table: table, Set: set, Where: where}.SQL(), nil
}

// BuildDelete renders a DELETE.
func BuildDelete(q query.DeleteQuery) (string, error) {
	table, err := tableRef(q.Table)
	if err != nil {
		return "", err
	}
	where, err := conditionChain(q.Where)
	if err != nil {
		return "", err
	}
	return sqldsl.DeleteStmt{Table: table, Where: where}.SQL(), nil
}
