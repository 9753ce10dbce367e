package snapshot

import "encoding/json"

// Record is a single raw snapshot row: a flat mapping of field name to
// scalar, null, or nested value. JSON numbers arrive as float64.
type Record map[string]any

// ID returns the record's source-local integer identifier.
func (r Record) ID() int {
	return r.Int("id")
}

// Has reports whether a field is present and non-null.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Int returns an integer field, or zero when the field is absent, null,
// or not numeric. Foreign keys use zero as the "no reference" value.
func (r Record) Int(field string) int {
	switch v := r[field].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}

// Str returns a string field, or the empty string when absent or not a
// string.
func (r Record) Str(field string) string {
	s, _ := r[field].(string)
	return s
}

// Bool returns a boolean field and whether it was present.
func (r Record) Bool(field string) (bool, bool) {
	b, ok := r[field].(bool)
	return b, ok
}

// List returns a nested list-of-objects field, such as the termination
// lists on a cable record.
func (r Record) List(field string) []Record {
	raw, ok := r[field].([]any)
	if !ok {
		return nil
	}
	var out []Record
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}
