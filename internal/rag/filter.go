package rag

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// FilterOp enumerates the supported metadata filter operators.
type FilterOp int

const (
	// OpEq matches when the metadata value equals the operand.
	OpEq FilterOp = iota
	// OpContains matches when an array-valued metadata field contains the
	// operand as an element.
	OpContains
	// OpGTE matches when a numeric metadata field is >= the operand.
	OpGTE
	// OpLTE matches when a numeric metadata field is <= the operand.
	OpLTE
)

// Cond is one filter condition: an operator and its operand.
type Cond struct {
	Op    FilterOp
	Value any
}

// Eq builds an equality condition.
func Eq(v any) Cond { return Cond{Op: OpEq, Value: v} }

// Contains builds an array-membership condition.
func Contains(v any) Cond { return Cond{Op: OpContains, Value: v} }

// GTE builds a numeric lower-bound condition.
func GTE(v float64) Cond { return Cond{Op: OpGTE, Value: v} }

// LTE builds a numeric upper-bound condition.
func LTE(v float64) Cond { return Cond{Op: OpLTE, Value: v} }

// Filter maps metadata field names to conditions. All conditions must hold
// for a document to match. A nil or empty Filter matches everything.
type Filter map[string]Cond

// UnmarshalJSON accepts the wire form of a filter: a JSON object whose
// values are either plain values (equality) or a single-operator object
// like {"$contains": "Go"}, {"$gte": 3} or {"$lte": 5}.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Filter, len(raw))
	for field, rawVal := range raw {
		var obj map[string]any
		if err := json.Unmarshal(rawVal, &obj); err == nil {
			if cond, ok, condErr := condFromObject(obj); condErr != nil {
				return fmt.Errorf("filter field %q: %w", field, condErr)
			} else if ok {
				out[field] = cond
				continue
			}
		}

		var val any
		if err := json.Unmarshal(rawVal, &val); err != nil {
			return fmt.Errorf("filter field %q: %w", field, err)
		}
		out[field] = Eq(val)
	}

	*f = out
	return nil
}

// condFromObject recognizes the single-operator object form. Objects that
// carry none of the known operators are treated as plain equality operands
// by the caller.
func condFromObject(obj map[string]any) (Cond, bool, error) {
	if v, ok := obj["$contains"]; ok {
		return Contains(v), true, nil
	}
	if v, ok := obj["$gte"]; ok {
		n, ok := toFloat(v)
		if !ok {
			return Cond{}, false, fmt.Errorf("$gte operand %v is not numeric", v)
		}
		return GTE(n), true, nil
	}
	if v, ok := obj["$lte"]; ok {
		n, ok := toFloat(v)
		if !ok {
			return Cond{}, false, fmt.Errorf("$lte operand %v is not numeric", v)
		}
		return LTE(n), true, nil
	}
	return Cond{}, false, nil
}

// Matches reports whether metadata satisfies every condition in the filter.
// A missing field never matches its condition.
func (f Filter) Matches(metadata map[string]any) bool {
	for field, cond := range f {
		val, ok := metadata[field]
		if !ok {
			return false
		}
		if !cond.matches(val) {
			return false
		}
	}
	return true
}

func (c Cond) matches(val any) bool {
	switch c.Op {
	case OpEq:
		return valuesEqual(val, c.Value)
	case OpContains:
		return arrayContains(val, c.Value)
	case OpGTE:
		v, ok1 := toFloat(val)
		w, ok2 := toFloat(c.Value)
		return ok1 && ok2 && v >= w
	case OpLTE:
		v, ok1 := toFloat(val)
		w, ok2 := toFloat(c.Value)
		return ok1 && ok2 && v <= w
	default:
		return false
	}
}

// valuesEqual compares with numeric widening so that a JSON-decoded float64
// equals an int operand of the same magnitude. JSON-decoded operands can be
// []any or map[string]any, which == would panic on, so uncomparable types go
// through reflect.DeepEqual.
func valuesEqual(a, b any) bool {
	if av, ok := toFloat(a); ok {
		if bv, ok := toFloat(b); ok {
			return av == bv
		}
		return false
	}
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

func arrayContains(val, want any) bool {
	switch arr := val.(type) {
	case []any:
		for _, el := range arr {
			if valuesEqual(el, want) {
				return true
			}
		}
	case []string:
		for _, el := range arr {
			if valuesEqual(el, want) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
