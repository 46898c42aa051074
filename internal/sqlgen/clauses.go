package sqlgen

import (
	"fmt"
	"strings"

	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/internal/sqlgen/sqldsl"
	"github.com/pthm/safesql/pkg/query"
)

// ColumnsClause renders a comma-separated column list.
func ColumnsClause(columns query.ColumnList) (string, error) {
	exprs, err := columnExprs(columns)
	if err != nil {
		return "", err
	}
	return sqldsl.List(exprs).SQL(), nil
}

// TableClause renders " FROM ..." for a FROM list. Later tables with join
// columns are attached with JOIN ... ON, the rest are comma-joined.
func TableClause(from query.TableList) (string, error) {
	clause, err := fromClause(from)
	if err != nil {
		return "", err
	}
	return clause.SQL(), nil
}

// WhereClause renders " WHERE ..." or the empty string for no conditions.
func WhereClause(where query.Conditions) (string, error) {
	chain, err := conditionChain(where)
	if err != nil {
		return "", err
	}
	return sqldsl.WhereSQL(chain), nil
}

// HavingClause renders " HAVING ..." or the empty string for no conditions.
func HavingClause(having query.Conditions) (string, error) {
	chain, err := conditionChain(having)
	if err != nil {
		return "", err
	}
	return sqldsl.HavingSQL(chain), nil
}

// GroupByClause renders " GROUP BY ..." or the empty string.
func GroupByClause(group query.ColumnList) (string, error) {
	exprs, err := columnExprs(group)
	if err != nil {
		return "", err
	}
	return sqldsl.GroupBySQL(exprs), nil
}

// OrderClause renders " ORDER BY ..." or the empty string. Directions are
// upper-cased and default to ASC.
func OrderClause(order query.OrderList) (string, error) {
	items, err := orderItems(order)
	if err != nil {
		return "", err
	}
	return sqldsl.OrderBySQL(items), nil
}

// LimitClause renders " LIMIT n" for positive n, else the empty string.
func LimitClause(limit int) string {
	return sqldsl.LimitSQL(limit)
}

func columnExprs(columns query.ColumnList) ([]sqldsl.Expr, error) {
	exprs := make([]sqldsl.Expr, 0, len(columns))
	for _, c := range columns {
		e, err := columnExpr(c)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func columnExpr(c query.Column) (sqldsl.Expr, error) {
	switch v := c.(type) {
	case query.Star:
		return sqldsl.Star{}, nil
	case query.CountOf:
		if v.Column == "" || v.Column == "*" {
			return sqldsl.Count(sqldsl.Star{}), nil
		}
		id, err := guard.SanitizeIdentifier(v.Column)
		if err != nil {
			return nil, err
		}
		return sqldsl.Count(sqldsl.Raw(id)), nil
	case query.ColumnName:
		// "*" and count(...) written as plain names keep their meaning.
		parsed := query.ParseColumn(string(v))
		if _, plain := parsed.(query.ColumnName); !plain {
			return columnExpr(parsed)
		}
		id, err := guard.SanitizeIdentifier(string(v))
		if err != nil {
			return nil, err
		}
		return sqldsl.Raw(id), nil
	case query.AliasedColumn:
		return aliasedColumnExpr(v)
	case nil:
		return nil, structural("", "column is required")
	default:
		return nil, structural("", fmt.Sprintf("unsupported column type %T", c))
	}
}

func aliasedColumnExpr(c query.AliasedColumn) (sqldsl.Expr, error) {
	if c.Alias == "" {
		id, err := guard.SanitizeIdentifier(c.Name)
		if err != nil {
			return nil, err
		}
		return sqldsl.Raw(id), nil
	}
	alias, err := guard.SanitizeName(c.Alias)
	if err != nil {
		return nil, err
	}
	if c.Name == "*" {
		return sqldsl.Raw(alias + ".*"), nil
	}
	name, err := guard.SanitizeName(c.Name)
	if err != nil {
		return nil, err
	}
	return sqldsl.Raw(alias + "." + name), nil
}

// tableRef renders a table name with its optional alias. Join metadata is
// not consulted.
func tableRef(t query.TableRef) (sqldsl.TableRef, error) {
	spec := query.SpecOf(t)
	if spec.Table == "" {
		return sqldsl.TableRef{}, structural("", "table name is required")
	}
	name, err := guard.SanitizeIdentifier(spec.QualifiedName())
	if err != nil {
		return sqldsl.TableRef{}, err
	}
	ref := sqldsl.TableRef{Name: name}
	if spec.Alias != "" {
		if ref.Alias, err = guard.SanitizeName(spec.Alias); err != nil {
			return sqldsl.TableRef{}, err
		}
	}
	return ref, nil
}

func fromClause(from query.TableList) (sqldsl.FromClause, error) {
	if len(from) == 0 {
		return sqldsl.FromClause{}, structural("SELECT", "at least one table is required")
	}
	items := make([]sqldsl.FromItem, 0, len(from))
	for i, t := range from {
		ref, err := tableRef(t)
		if err != nil {
			return sqldsl.FromClause{}, err
		}
		spec := query.SpecOf(t)
		if i == 0 || !spec.HasJoin() {
			if i > 0 && spec.JoinType != "" {
				return sqldsl.FromClause{}, structural("SELECT", fmt.Sprintf("join type %s on %s requires join columns", spec.JoinType, spec.Table))
			}
			items = append(items, sqldsl.FromItem{Table: ref})
			continue
		}
		join, err := joinClause(spec, ref)
		if err != nil {
			return sqldsl.FromClause{}, err
		}
		items = append(items, sqldsl.FromItem{Join: join})
	}
	return sqldsl.FromClause{Items: items}, nil
}

func joinClause(spec query.TableSpec, ref sqldsl.TableRef) (*sqldsl.JoinClause, error) {
	if spec.JoinColumn1 == nil || spec.JoinColumn2 == nil {
		return nil, structural("SELECT", "joining "+spec.Table+" requires both join columns")
	}
	if err := guard.AssertJoinType(spec.JoinType); err != nil {
		return nil, err
	}
	left, err := columnExpr(spec.JoinColumn1)
	if err != nil {
		return nil, err
	}
	right, err := columnExpr(spec.JoinColumn2)
	if err != nil {
		return nil, err
	}
	return &sqldsl.JoinClause{
		Type:      string(spec.JoinType),
		TableExpr: ref,
		On:        sqldsl.Cmp{Left: left, Op: "=", Right: right},
	}, nil
}

func conditionChain(conds query.Conditions) (sqldsl.Chain, error) {
	chain := make(sqldsl.Chain, 0, len(conds))
	for i, c := range conds {
		expr, err := conditionExpr(c)
		if err != nil {
			return nil, err
		}
		cond := sqldsl.Cond{Expr: expr}
		if i > 0 {
			if c.Relation == "" {
				return nil, structural("", fmt.Sprintf("condition %d requires a relation (AND or OR)", i))
			}
			if err := guard.AssertRelation(c.Relation); err != nil {
				return nil, err
			}
			cond.Relation = string(c.Relation)
		}
		chain = append(chain, cond)
	}
	return chain, nil
}

func conditionExpr(c query.Condition) (sqldsl.Expr, error) {
	op := query.DecodeOperator(c.Operator)
	if op == "" {
		return nil, structural("", "condition requires an operator")
	}
	if err := guard.AssertOperator(op); err != nil {
		return nil, err
	}
	left, err := columnExpr(c.Column)
	if err != nil {
		return nil, err
	}

	switch op {
	case query.OpIn, query.OpNotIn:
		values, err := literalList(c.Value, op)
		if err != nil {
			return nil, err
		}
		return sqldsl.In{Expr: left, Values: values, Negate: op == query.OpNotIn}, nil
	case query.OpBetween:
		values, err := literalList(c.Value, op)
		if err != nil {
			return nil, err
		}
		if len(values) != 2 {
			return nil, structural("", "BETWEEN requires exactly two comma-separated values")
		}
		return sqldsl.Between{Expr: left, Low: values[0], High: values[1]}, nil
	default:
		right, err := operandExpr(c.Value)
		if err != nil {
			return nil, err
		}
		return sqldsl.Cmp{Left: left, Op: string(op), Right: right}, nil
	}
}

func literalList(v query.Operand, op query.Operator) ([]sqldsl.Expr, error) {
	lit, ok := v.(query.Literal)
	if !ok {
		return nil, structural("", string(op)+" requires a comma-separated list of values")
	}
	parts := strings.Split(string(lit), ",")
	values := make([]sqldsl.Expr, len(parts))
	for i, p := range parts {
		e, err := literalExpr(p)
		if err != nil {
			return nil, err
		}
		values[i] = e
	}
	return values, nil
}

func operandExpr(v query.Operand) (sqldsl.Expr, error) {
	switch o := v.(type) {
	case query.Literal:
		return literalExpr(string(o))
	case query.Column:
		return columnExpr(o)
	case nil:
		return nil, structural("", "condition requires a value")
	default:
		return nil, structural("", fmt.Sprintf("unsupported value type %T", v))
	}
}

// literalExpr sanitizes a value. Surrounding single quotes are removed first
// so that pre-quoted values are not escaped twice.
func literalExpr(s string) (sqldsl.Expr, error) {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	lit, err := guard.SanitizeLiteral(s)
	if err != nil {
		return nil, err
	}
	return sqldsl.Raw(lit), nil
}

func orderItems(order query.OrderList) ([]sqldsl.OrderItem, error) {
	items := make([]sqldsl.OrderItem, 0, len(order))
	for _, o := range order {
		if err := guard.AssertSortDirection(o.Direction); err != nil {
			return nil, err
		}
		e, err := columnExpr(o.Column)
		if err != nil {
			return nil, err
		}
		dir := strings.ToUpper(string(o.Direction))
		if dir == "" {
			dir = string(query.Asc)
		}
		items = append(items, sqldsl.OrderItem{Expr: e, Direction: dir})
	}
	return items, nil
}
