package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one column assignment of a Record.
type Field struct {
	Column string
	Value  string
}

// Record is an ordered set of column values: one row of an INSERT or the SET
// list of an UPDATE. In JSON it is an object; key order is preserved.
type Record []Field

// Columns returns the record's column names in order.
func (r Record) Columns() []string {
	cols := make([]string, len(r))
	for i, f := range r {
		cols[i] = f.Column
	}
	return cols
}

// Get returns the value assigned to column.
func (r Record) Get(column string) (string, bool) {
	for _, f := range r {
		if f.Column == column {
			return f.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be an object, got %v", tok)
	}

	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string, got %v", keyTok)
		}
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		val, err := tokenText(valTok)
		if err != nil {
			return fmt.Errorf("record value for %q: %w", key, err)
		}
		rec = append(rec, Field{Column: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = rec
	return nil
}

// Records is a list of rows for INSERT. In JSON it is a single object or an
// array of objects.
type Records []Record

// UnmarshalJSON implements json.Unmarshaler.
func (rs *Records) UnmarshalJSON(data []byte) error {
	items, err := oneOrMany(data)
	if err != nil {
		return err
	}
	out := make(Records, 0, len(items))
	for i, raw := range items {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	*rs = out
	return nil
}
