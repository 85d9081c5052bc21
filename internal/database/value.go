package database

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTimestamp
	KindBinary
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindBinary:
		return "binary"
	default:
		return "other"
	}
}

// Timestamp layouts. Fractional seconds are only printed when non-zero.
const (
	LayoutDate        = "2006-01-02"
	LayoutTimestamp   = "2006-01-02T15:04:05.999999"
	LayoutTimestampTZ = "2006-01-02T15:04:05.999999Z07:00"
)

// Value is a normalized result cell.
type Value struct {
	kind   Kind
	v      any
	layout string
}

func NullValue() Value           { return Value{kind: KindNull} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, v: b} }
func IntValue(i int64) Value     { return Value{kind: KindInt, v: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, v: f} }
func TextValue(s string) Value   { return Value{kind: KindText, v: s} }
func BinaryValue(b []byte) Value { return Value{kind: KindBinary, v: b} }

// TimeValue wraps a timestamp rendered with layout (one of the Layout* constants).
func TimeValue(t time.Time, layout string) Value {
	return Value{kind: KindTimestamp, v: t, layout: layout}
}

// OtherValue wraps an engine value with no dedicated variant. It is
// emitted natively in JSON when encodable and as text otherwise.
func OtherValue(v any) Value {
	if v == nil {
		return NullValue()
	}
	return Value{kind: KindOther, v: v}
}

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Raw returns the wrapped Go value.
func (v Value) Raw() any { return v.v }

// String renders the value for tabular display. NULL is spelled out.
func (v Value) String() string {
	if v.kind == KindNull {
		return "NULL"
	}
	return v.Text()
}

// Text renders the value as plain text; NULL becomes the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.v.(bool))
	case KindInt:
		return strconv.FormatInt(v.v.(int64), 10)
	case KindFloat:
		return strconv.FormatFloat(v.v.(float64), 'g', -1, 64)
	case KindText:
		return v.v.(string)
	case KindTimestamp:
		return v.v.(time.Time).Format(v.layout)
	case KindBinary:
		return `\x` + hex.EncodeToString(v.v.([]byte))
	default:
		return otherText(v.v)
	}
}

// MarshalJSON emits null, booleans and numbers natively, timestamps as
// ISO-8601 strings and everything else as a string fallback.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindFloat:
		f := v.v.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return json.Marshal(v.Text())
		}
		return json.Marshal(f)
	case KindBool, KindInt, KindText:
		return json.Marshal(v.v)
	case KindOther:
		if b, err := json.Marshal(v.v); err == nil {
			return b, nil
		}
		return json.Marshal(otherText(v.v))
	default:
		return json.Marshal(v.Text())
	}
}

func otherText(v any) string {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case driver.Valuer:
		if dv, err := x.Value(); err == nil && dv != nil {
			if s, ok := dv.(string); ok {
				return s
			}
			return fmt.Sprint(dv)
		}
	case json.Marshaler:
		if b, err := x.MarshalJSON(); err == nil {
			return string(b)
		}
	case map[string]any, []any:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}
