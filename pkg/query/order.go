package query

import (
	"encoding/json"
	"fmt"
)

// Direction is a sort direction. Lower-case spellings are accepted and
// rendered upper-case.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// OrderSpec orders results by one column. An empty Direction sorts ascending.
type OrderSpec struct {
	Column    Column
	Direction Direction
}

type orderSpecJSON struct {
	Column    json.RawMessage `json:"column"`
	Direction Direction       `json:"direction"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrderSpec) UnmarshalJSON(data []byte) error {
	var aux orderSpecJSON
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
	*o = OrderSpec{Column: col, Direction: aux.Direction}
	return nil
}

// OrderList is an ordered list of sort keys. In JSON it is a single order
// object or an array of them.
type OrderList []OrderSpec

// UnmarshalJSON implements json.Unmarshaler.
func (l *OrderList) UnmarshalJSON(data []byte) error {
	items, err := oneOrMany(data)
	if err != nil {
		return err
	}
	out := make(OrderList, 0, len(items))
	for i, raw := range items {
		var o OrderSpec
		if err := json.Unmarshal(raw, &o); err != nil {
			return fmt.Errorf("order %d: %w", i, err)
		}
		out = append(out, o)
	}
	*l = out
	return nil
}
