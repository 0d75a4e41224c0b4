// Package value defines the tagged-union field value used by documents.
package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
	KindObject
	KindBool
)

// Value is a tagged union over the leaf/branch kinds a document field can
// hold: Text, Number, Date (ISO-8601 "YYYY-MM-DD"), nested Object, or Bool.
// Bool is never indexed by any derived index; it only participates in
// document validation.
type Value struct {
	kind   Kind
	text   string
	number float64
	date   string
	object map[string]Value
	bval   bool
}

func Text(s string) Value   { return Value{kind: KindText, text: s} }
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }
func Date(s string) Value   { return Value{kind: KindDate, date: s} }
func Bool(b bool) Value     { return Value{kind: KindBool, bval: b} }
func Object(m map[string]Value) Value {
	return Value{kind: KindObject, object: m}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsText() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.number, true
}

func (v Value) AsDate() (string, bool) {
	if v.kind != KindDate {
		return "", false
	}
	return v.date, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.bval, true
}

func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.object, true
}

// Normalize applies the top-down normalization rule: text is lowercased and
// trimmed, date is trimmed, number and bool are unchanged, and object
// recurses. Nodes beyond maxDepth are returned unchanged.
func (v Value) Normalize(depth, maxDepth int) Value {
	if depth > maxDepth {
		return v
	}
	switch v.kind {
	case KindText:
		return Text(strings.ToLower(strings.TrimSpace(v.text)))
	case KindDate:
		return Date(strings.TrimSpace(v.date))
	case KindObject:
		out := make(map[string]Value, len(v.object))
		for k, child := range v.object {
			out[k] = child.Normalize(depth+1, maxDepth)
		}
		return Object(out)
	default:
		return v
	}
}

// jsonValue is the tagged wire form: {"Text":...} | {"Number":...} |
// {"Date":...} | {"Object":...} | {"Bool":...}.
type jsonValue struct {
	Text   *string          `json:"Text,omitempty"`
	Number *float64         `json:"Number,omitempty"`
	Date   *string          `json:"Date,omitempty"`
	Bool   *bool            `json:"Bool,omitempty"`
	Object map[string]Value `json:"Object,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(jsonValue{Text: &v.text})
	case KindNumber:
		return json.Marshal(jsonValue{Number: &v.number})
	case KindDate:
		return json.Marshal(jsonValue{Date: &v.date})
	case KindBool:
		return json.Marshal(jsonValue{Bool: &v.bval})
	case KindObject:
		return json.Marshal(jsonValue{Object: v.object})
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch {
	case jv.Text != nil:
		*v = Text(*jv.Text)
	case jv.Number != nil:
		*v = Number(*jv.Number)
	case jv.Date != nil:
		*v = Date(*jv.Date)
	case jv.Bool != nil:
		*v = Bool(*jv.Bool)
	case jv.Object != nil:
		*v = Object(jv.Object)
	default:
		// An empty object ({}) round-trips as an empty Object, not an error.
		*v = Object(map[string]Value{})
	}
	return nil
}
