package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operator is a comparison operator in a WHERE or HAVING condition.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpGt      Operator = ">"
	OpGte     Operator = ">="
	OpLt      Operator = "<"
	OpLte     Operator = "<="
	OpLike    Operator = "LIKE"
	OpIn      Operator = "IN"
	OpNotIn   Operator = "NOT IN"
	OpBetween Operator = "BETWEEN"
)

// Transport spellings of the angle-bracket operators. Some transports mangle
// '<' and '>' in query strings, so clients may send these instead.
const (
	OpGtEncoded  Operator = "GT"
	OpGteEncoded Operator = "GTE"
	OpLtEncoded  Operator = "LT"
	OpLteEncoded Operator = "LTE"
)

var (
	operatorEncoding = map[Operator]Operator{
		OpGt:  OpGtEncoded,
		OpGte: OpGteEncoded,
		OpLt:  OpLtEncoded,
		OpLte: OpLteEncoded,
	}
	operatorDecoding = map[Operator]Operator{
		OpGtEncoded:  OpGt,
		OpGteEncoded: OpGte,
		OpLtEncoded:  OpLt,
		OpLteEncoded: OpLte,
	}
)

// EncodeOperator returns the transport spelling of op. Operators without one
// are returned unchanged.
func EncodeOperator(op Operator) Operator {
	if enc, ok := operatorEncoding[op]; ok {
		return enc
	}
	return op
}

// DecodeOperator reverses EncodeOperator.
func DecodeOperator(op Operator) Operator {
	if dec, ok := operatorDecoding[op]; ok {
		return dec
	}
	return op
}

// Relation joins a condition to the one before it.
type Relation string

const (
	RelAnd Relation = "AND"
	RelOr  Relation = "OR"
)

// Operand is the right-hand side of a condition: a Literal or a Column.
type Operand interface {
	isOperand()
}

// Literal is a value compared against a column. For IN and NOT IN it holds a
// comma-separated list; for BETWEEN exactly two comma-separated bounds.
type Literal string

func (Literal) isOperand() {}

// Condition is a single comparison. Relation is ignored on the first
// condition of a list and required on every later one.
type Condition struct {
	Column   Column
	Operator Operator
	Value    Operand
	Relation Relation
}

// Where builds a condition comparing column to a literal value.
func Where(column string, op Operator, value string) Condition {
	return Condition{Column: ParseColumn(column), Operator: op, Value: Literal(value)}
}

// And returns c joined to its predecessor with AND.
func (c Condition) And() Condition {
	c.Relation = RelAnd
	return c
}

// Or returns c joined to its predecessor with OR.
func (c Condition) Or() Condition {
	c.Relation = RelOr
	return c
}

type conditionJSON struct {
	Column   json.RawMessage `json:"column"`
	Operator Operator        `json:"operator"`
	Value    json.RawMessage `json:"value"`
	Relation Relation        `json:"relation"`
}

var errMissingColumn = errors.New("condition requires a column")

// UnmarshalJSON implements json.Unmarshaler. A string, number or boolean
// value is a Literal; an object value is an AliasedColumn.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var aux conditionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Column) == 0 {
		return errMissingColumn
	}
	col, err := decodeColumn(aux.Column)
	if err != nil {
		return fmt.Errorf("column: %w", err)
	}
	cond := Condition{Column: col, Operator: aux.Operator, Relation: aux.Relation}
	switch {
	case len(aux.Value) == 0:
		cond.Value = Literal("")
	case isJSONObject(aux.Value):
		ref, err := decodeColumn(aux.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		cond.Value = ref
	default:
		text, err := scalarText(aux.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		cond.Value = Literal(text)
	}
	*c = cond
	return nil
}

// Conditions is an ordered list of conditions. In JSON it is a single
// condition object or an array of them.
type Conditions []Condition

// UnmarshalJSON implements json.Unmarshaler.
func (cs *Conditions) UnmarshalJSON(data []byte) error {
	items, err := oneOrMany(data)
	if err != nil {
		return err
	}
	out := make(Conditions, 0, len(items))
	for i, raw := range items {
		var c Condition
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, c)
	}
	*cs = out
	return nil
}

// Encode returns a copy of cs with every operator in its transport spelling.
func (cs Conditions) Encode() Conditions {
	return cs.mapOperators(EncodeOperator)
}

// Decode returns a copy of cs with transport spellings replaced by the
// operators they stand for.
func (cs Conditions) Decode() Conditions {
	return cs.mapOperators(DecodeOperator)
}

func (cs Conditions) mapOperators(fn func(Operator) Operator) Conditions {
	if cs == nil {
		return nil
	}
	out := make(Conditions, len(cs))
	for i, c := range cs {
		c.Operator = fn(c.Operator)
		out[i] = c
	}
	return out
}
