package jwt

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// EncodeHeader returns base64url encoded JSON of the header.
// Extra headers are written first in key order, followed by "alg" and "typ".
func EncodeHeader(h Header) (string, error) {
	if !h.Algorithm.IsValid() {
		return "", mark(errors.Errorf("unsupported algorithm: %q", h.Algorithm), ErrInvalidHeader, "unable to encode header")
	}

	obj := make(object, 0, len(h.Extra)+2)
	keys := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		if k != "alg" && k != "typ" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		obj = append(obj, field{name: k, value: h.Extra[k]})
	}
	obj = append(obj,
		field{name: "alg", value: h.Algorithm.String()},
		field{name: "typ", value: h.typ()},
	)

	js, err := json.Marshal(obj)
	if err != nil {
		return "", mark(err, ErrInvalidHeader, "unable to encode header")
	}
	return EncodeSegment(js), nil
}

// EncodePayload returns base64url encoded JSON of the claims.
// time.Time values are encoded as seconds since epoch.
func EncodePayload(payload any) (string, error) {
	js, err := marshalClaims(payload)
	if err != nil {
		return "", mark(err, ErrInvalidPayload, "unable to encode payload")
	}
	return EncodeSegment(js), nil
}

func marshalClaims(payload any) ([]byte, error) {
	v, err := normalize(reflect.ValueOf(payload))
	if err != nil {
		return nil, err
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return js, nil
}

type field struct {
	name  string
	value any
}

// object is JSON object that keeps the order of its fields
type object []field

// MarshalJSON implements json.Marshaler
func (o object) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(f.name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

var (
	timeType          = reflect.TypeFor[time.Time]()
	marshalerType     = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// isMarshaler returns true if encoding/json uses the type's own encoding
func isMarshaler(t reflect.Type) bool {
	return t.Implements(marshalerType) || t.Implements(textMarshalerType)
}

// normalizer converts claims into a JSON ready value where every time.Time
// is replaced by Unix seconds, and struct fields keep their declaration order.
type normalizer struct {
	// visited maps, slices and pointers on the current path
	visited map[visit]struct{}
}

type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

func normalize(v reflect.Value) (any, error) {
	n := &normalizer{visited: map[visit]struct{}{}}
	return n.value(v)
}

// enter marks v as visited and fails if v is already on the current path
func (n *normalizer) enter(v reflect.Value) (visit, error) {
	key := visit{typ: v.Type(), ptr: v.Pointer()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if _, ok := n.visited[key]; ok {
		return key, errors.Errorf("encountered a cycle via %s", v.Type())
	}
	n.visited[key] = struct{}{}
	return key, nil
}

func (n *normalizer) value(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	t := v.Type()
	if t == timeType {
		return v.Interface().(time.Time).Unix(), nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return n.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem() != timeType && isMarshaler(t) {
			return v.Interface(), nil
		}
		key, err := n.enter(v)
		if err != nil {
			return nil, err
		}
		defer delete(n.visited, key)
		return n.value(v.Elem())
	}

	if isMarshaler(t) {
		return v.Interface(), nil
	}
	if v.CanAddr() && isMarshaler(reflect.PointerTo(t)) {
		return v.Addr().Interface(), nil
	}

	switch t.Kind() {
	case reflect.Struct:
		return n.object(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		if t.Key().Kind() != reflect.String {
			return v.Interface(), nil
		}
		key, err := n.enter(v)
		if err != nil {
			return nil, err
		}
		defer delete(n.visited, key)

		m := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := n.value(iter.Value())
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = val
		}
		return m, nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if t.Elem().Kind() == reflect.Uint8 {
			// []byte is encoded as base64 string
			return v.Interface(), nil
		}
		key, err := n.enter(v)
		if err != nil {
			return nil, err
		}
		defer delete(n.visited, key)
		return n.list(v)
	case reflect.Array:
		return n.list(v)
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil, errors.Errorf("unsupported type: %s", t)
	}
	return v.Interface(), nil
}

func (n *normalizer) list(v reflect.Value) (any, error) {
	list := make([]any, v.Len())
	for i := range list {
		val, err := n.value(v.Index(i))
		if err != nil {
			return nil, err
		}
		list[i] = val
	}
	return list, nil
}

func (n *normalizer) object(v reflect.Value) (any, error) {
	var fields []structField
	collectFields(&fields, v, 0)

	// a shallower field shadows promoted fields of the same name
	depth := map[string]int{}
	for _, f := range fields {
		if d, ok := depth[f.name]; !ok || f.depth < d {
			depth[f.name] = f.depth
		}
	}

	obj := object{}
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f.name] || f.depth != depth[f.name] {
			continue
		}
		seen[f.name] = true

		if hasOption(f.opts, "omitempty") && isEmptyValue(f.value) {
			continue
		}
		if hasOption(f.opts, "omitzero") && f.value.IsZero() {
			continue
		}
		val, err := n.value(f.value)
		if err != nil {
			return nil, errors.WithMessagef(err, "field %s", f.name)
		}
		obj = append(obj, field{name: f.name, value: val})
	}
	return obj, nil
}

type structField struct {
	name  string
	opts  string
	depth int
	value reflect.Value
}

// collectFields lists struct fields in declaration order following
// encoding/json tag rules, fields of embedded structs are promoted in place
func collectFields(fields *[]structField, v reflect.Value, depth int) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		// only exported embedded structs are promoted
		if sf.Anonymous && name == "" && sf.IsExported() {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType && !isMarshaler(ft) {
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						continue
					}
					fv = fv.Elem()
				}
				collectFields(fields, fv, depth+1)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		*fields = append(*fields, structField{name: name, opts: opts, depth: depth, value: fv})
	}
}

func hasOption(opts, name string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == name {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
