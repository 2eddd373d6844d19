package kg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ValueKind tags the variants of Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a tagged attribute value: a scalar (string, number, bool), a
// list of values, or a string-keyed map of values. The closed variant set
// keeps JSON round-tripping and GraphML flattening total functions instead
// of open-ended type switches.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

func String(s string) Value        { return Value{kind: KindString, str: s} }
func Number(f float64) Value       { return Value{kind: KindNumber, num: f} }
func Int(i int) Value              { return Value{kind: KindNumber, num: float64(i)} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func List(vs ...Value) Value       { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Strings builds a list value from plain strings.
func Strings(ss ...string) Value {
	vs := make([]Value, len(ss))
	for i, s := range ss {
		vs[i] = String(s)
	}
	return List(vs...)
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) AsString() (string, bool)  { return v.str, v.kind == KindString }
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }

func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Scalar reports whether v flattens to a single GraphML attribute.
func (v Value) Scalar() bool {
	return v.kind == KindString || v.kind == KindNumber || v.kind == KindBool
}

// ScalarString renders a scalar value the way the GraphML writer emits it.
// Numbers use the shortest representation that round-trips.
func (v Value) ScalarString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, vv := range v.m {
			ov, ok := o.m[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON emits the plain JSON form: scalars as JSON scalars, lists and
// maps as JSON arrays and objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("kg: invalid value kind %d", v.kind)
}

// UnmarshalJSON rebuilds the tagged form from plain JSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := fromJSONValue(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func fromJSONValue(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case string:
		return String(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case bool:
		return Bool(x), nil
	case []interface{}:
		vs := make([]Value, len(x))
		for i, e := range x {
			v, err := fromJSONValue(e)
			if err != nil {
				return Value{}, err
			}
			vs[i] = v
		}
		return List(vs...), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := fromJSONValue(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	case nil:
		// Null attributes degrade to an empty string rather than a distinct
		// variant; the source system never emits them intentionally.
		return String(""), nil
	}
	return Value{}, fmt.Errorf("kg: unsupported JSON value %T", raw)
}

// Attrs is an open string-keyed attribute mapping.
type Attrs map[string]Value

// Clone returns a shallow copy; nested lists and maps are shared, matching
// the source system's copy semantics during merge.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// SortedKeys returns attribute keys in lexical order for deterministic
// serialization.
func (a Attrs) SortedKeys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
