package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CountQuery counts the rows matched by From and Where.
type CountQuery struct {
	From  TableList  `json:"from"`
	Where Conditions `json:"where,omitempty"`
}

// SelectQuery describes a SELECT statement. Limit is applied only when
// positive.
type SelectQuery struct {
	Columns ColumnList `json:"columns"`
	From    TableList  `json:"from"`
	Where   Conditions `json:"where,omitempty"`
	Order   OrderList  `json:"order,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Group   ColumnList `json:"group,omitempty"`
	Having  Conditions `json:"having,omitempty"`
}

// InsertQuery inserts Values into Table. The table may not carry an alias.
type InsertQuery struct {
	Table  TableRef
	Values Records
}

// UpdateQuery sets Values on the rows of Table matched by Where.
type UpdateQuery struct {
	Table  TableRef
	Values Record
	Where  Conditions
}

// DeleteQuery deletes the rows of Table matched by Where.
type DeleteQuery struct {
	Table TableRef
	Where Conditions
}

var errMissingTable = errors.New("table is required")

func decodeTarget(raw json.RawMessage) (TableRef, error) {
	if len(raw) == 0 {
		return nil, errMissingTable
	}
	ref, err := decodeTableRef(raw)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return ref, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *InsertQuery) UnmarshalJSON(data []byte) error {
	var aux struct {
		Table  json.RawMessage `json:"table"`
		Values Records         `json:"values"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	table, err := decodeTarget(aux.Table)
	if err != nil {
		return err
	}
	*q = InsertQuery{Table: table, Values: aux.Values}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *UpdateQuery) UnmarshalJSON(data []byte) error {
	var aux struct {
		Table  json.RawMessage `json:"table"`
		Values Record          `json:"values"`
		Where  Conditions      `json:"where"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	table, err := decodeTarget(aux.Table)
	if err != nil {
		return err
	}
	*q = UpdateQuery{Table: table, Values: aux.Values, Where: aux.Where}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *DeleteQuery) UnmarshalJSON(data []byte) error {
	var aux struct {
		Table json.RawMessage `json:"table"`
		Where Conditions      `json:"where"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	table, err := decodeTarget(aux.Table)
	if err != nil {
		return err
	}
	*q = DeleteQuery{Table: table, Where: aux.Where}
	return nil
}
