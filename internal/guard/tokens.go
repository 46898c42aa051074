package guard

import (
	"slices"
	"strings"

	"github.com/pthm/safesql/pkg/query"
)

var (
	operators = []query.Operator{
		query.OpEq, query.OpNe,
		query.OpGt, query.OpGte, query.OpLt, query.OpLte,
		query.OpLike, query.OpIn, query.OpNotIn, query.OpBetween,
	}
	relations  = []query.Relation{query.RelAnd, query.RelOr}
	joinTypes  = []query.JoinType{query.JoinInner, query.JoinLeft, query.JoinRight, query.JoinFull}
	directions = []query.Direction{query.Asc, "asc", query.Desc, "desc"}
)

// AssertOperator accepts an empty operator or one of
// = != > >= < <= LIKE IN NOT IN BETWEEN.
func AssertOperator(op query.Operator) error {
	return assertToken(op, operators, "operator")
}

// AssertRelation accepts an empty relation, AND or OR.
func AssertRelation(rel query.Relation) error {
	return assertToken(rel, relations, "relation")
}

// AssertJoinType accepts an empty join type, INNER, LEFT, RIGHT or FULL.
func AssertJoinType(jt query.JoinType) error {
	return assertToken(jt, joinTypes, "join type")
}

// AssertSortDirection accepts an empty direction, ASC or DESC in upper or
// lower case.
func AssertSortDirection(dir query.Direction) error {
	return assertToken(dir, directions, "sort direction")
}

func assertToken[T ~string](tok T, allowed []T, context string) error {
	if tok == "" || slices.Contains(allowed, tok) {
		return nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return newValidationError(string(tok), context, "must be one of "+strings.Join(names, ", "), ErrInvalidToken)
}
