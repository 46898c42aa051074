package query

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TableRef identifies a table. The implementations are TableName and
// TableSpec.
type TableRef interface {
	isTableRef()
}

// TableName is a bare table name, optionally schema qualified ("neon.posts").
type TableName string

// JoinType selects the kind of JOIN used to attach a table to a FROM list.
type JoinType string

const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
)

// TableSpec is the structured form of a table reference.
//
// JoinColumn1, JoinColumn2 and JoinType only apply to the second and later
// entries of a FROM list; they are ignored on the first entry and on the
// target of INSERT, UPDATE and DELETE.
type TableSpec struct {
	Schema      string
	Table       string
	Alias       string
	JoinColumn1 Column
	JoinColumn2 Column
	JoinType    JoinType
}

func (TableName) isTableRef() {}
func (TableSpec) isTableRef() {}

// SpecOf returns t in its structured form.
func SpecOf(t TableRef) TableSpec {
	switch v := t.(type) {
	case TableName:
		return TableSpec{Table: string(v)}
	case TableSpec:
		return v
	case *TableSpec:
		if v != nil {
			return *v
		}
	}
	return TableSpec{}
}

// QualifiedName returns schema.table, or the table alone without a schema.
func (t TableSpec) QualifiedName() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// HasJoin reports whether the table declares join columns.
func (t TableSpec) HasJoin() bool {
	return t.JoinColumn1 != nil || t.JoinColumn2 != nil
}

type tableSpecJSON struct {
	Schema      string          `json:"schema"`
	Table       string          `json:"table"`
	Alias       string          `json:"alias"`
	JoinColumn1 json.RawMessage `json:"joinColumn1"`
	JoinColumn2 json.RawMessage `json:"joinColumn2"`
	JoinType    JoinType        `json:"joinType"`
}

var errEmptyTableName = errors.New("table object requires a table name")

// UnmarshalJSON implements json.Unmarshaler.
func (t *TableSpec) UnmarshalJSON(data []byte) error {
	var aux tableSpecJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Table == "" {
		return errEmptyTableName
	}
	spec := TableSpec{
		Schema:   aux.Schema,
		Table:    aux.Table,
		Alias:    aux.Alias,
		JoinType: aux.JoinType,
	}
	var err error
	if spec.JoinColumn1, err = decodeOptionalColumn(aux.JoinColumn1); err != nil {
		return fmt.Errorf("joinColumn1: %w", err)
	}
	if spec.JoinColumn2, err = decodeOptionalColumn(aux.JoinColumn2); err != nil {
		return fmt.Errorf("joinColumn2: %w", err)
	}
	*t = spec
	return nil
}

func decodeOptionalColumn(raw json.RawMessage) (Column, error) {
	items, err := oneOrMany(raw)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return decodeColumn(raw)
}

// TableList is a FROM list. In JSON it is a string, a table object, or an
// array of either.
type TableList []TableRef

// Tables returns a TableList of bare names.
func Tables(names ...string) TableList {
	list := make(TableList, len(names))
	for i, n := range names {
		list[i] = TableName(n)
	}
	return list
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *TableList) UnmarshalJSON(data []byte) error {
	items, err := oneOrMany(data)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	list := make(TableList, 0, len(items))
	for i, raw := range items {
		ref, err := decodeTableRef(raw)
		if err != nil {
			return fmt.Errorf("from[%d]: %w", i, err)
		}
		list = append(list, ref)
	}
	*l = list
	return nil
}

func decodeTableRef(raw json.RawMessage) (TableRef, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return TableName(name), nil
	}
	var spec TableSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("table must be a string or an object: %w", err)
	}
	return spec, nil
}
