// AngelaMos | 2026
// value.go

package cms

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var ErrInvalidValue = errors.New("invalid value")

type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindRecord  Kind = "object"
)

func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindRecord:
		return true
	}
	return false
}

// Value is an editable site value: a string, a number, a boolean, or a
// record of named Values. The zero Value is invalid.
type Value struct {
	kind   Kind
	str    string
	num    float64
	boolean bool
	record map[string]Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Bool(b bool) Value { return Value{kind: KindBoolean, boolean: b} }

func Record(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindRecord, record: maps.Clone(fields)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind.Valid() }

func (v Value) IsPrimitive() bool { return v.kind != KindRecord && v.IsValid() }

func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Any returns the natural Go form used by the document store.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.boolean
	case KindRecord:
		out := make(map[string]any, len(v.record))
		for k, f := range v.record {
			out[k] = f.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts a decoded document value into a Value.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return Number(n), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			fv, err := FromAny(f)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			fields[k] = fv
		}
		return Value{kind: KindRecord, record: fields}, nil
	case nil:
		return Value{}, fmt.Errorf("%w: null", ErrInvalidValue)
	default:
		return Value{}, fmt.Errorf("%w: unsupported %T", ErrInvalidValue, raw)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Any())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	if n, ok := parsed.Num(); ok && (math.IsInf(n, 0) || math.IsNaN(n)) {
		return fmt.Errorf("%w: non-finite number", ErrInvalidValue)
	}
	*v = parsed
	return nil
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.boolean == o.boolean
	case KindRecord:
		if len(v.record) != len(o.record) {
			return false
		}
		for _, k := range slices.Collect(maps.Keys(v.record)) {
			of, ok := o.record[k]
			if !ok || !v.record[k].Equal(of) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
