package kofi

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindBool
	KindChar
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindArray
	KindObject
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable KoFi value.
type Value interface {
	// Kind reports the variant.
	Kind() Kind
	// String renders the value as KoFi text.
	String() string
	// Equal reports structural equality. Floats compare NaN equal to NaN.
	Equal(other Value) bool
	// Hash is consistent with Equal.
	Hash() uint64
	// Interface returns the plain Go value: nil, string, bool, rune, int32,
	// int64, float32, float64, []any or map[string]any.
	Interface() any
}

// Scalar values. A String is text and must hold valid UTF-8: invalid bytes
// render as they are and read back as U+FFFD.
type (
	Null    struct{}
	String  string
	Bool    bool
	Char    rune
	Int32   int32
	Int64   int64
	Float32 float32
	Float64 float64
)

func (Null) Kind() Kind    { return KindNull }
func (String) Kind() Kind  { return KindString }
func (Bool) Kind() Kind    { return KindBool }
func (Char) Kind() Kind    { return KindChar }
func (Int32) Kind() Kind   { return KindInt32 }
func (Int64) Kind() Kind   { return KindInt64 }
func (Float32) Kind() Kind { return KindFloat32 }
func (Float64) Kind() Kind { return KindFloat64 }

func (Null) Interface() any      { return nil }
func (v String) Interface() any  { return string(v) }
func (v Bool) Interface() any    { return bool(v) }
func (v Char) Interface() any    { return rune(v) }
func (v Int32) Interface() any   { return int32(v) }
func (v Int64) Interface() any   { return int64(v) }
func (v Float32) Interface() any { return float32(v) }
func (v Float64) Interface() any { return float64(v) }

func (Null) Equal(o Value) bool {
	_, ok := o.(Null)
	return ok
}

func (v String) Equal(o Value) bool {
	w, ok := o.(String)
	return ok && v == w
}

func (v Bool) Equal(o Value) bool {
	w, ok := o.(Bool)
	return ok && v == w
}

func (v Char) Equal(o Value) bool {
	w, ok := o.(Char)
	return ok && v == w
}

func (v Int32) Equal(o Value) bool {
	w, ok := o.(Int32)
	return ok && v == w
}

func (v Int64) Equal(o Value) bool {
	w, ok := o.(Int64)
	return ok && v == w
}

func (v Float32) Equal(o Value) bool {
	w, ok := o.(Float32)
	if !ok {
		return false
	}
	a, b := float32(v), float32(w)
	if a != a && b != b {
		return true
	}
	return math.Float32bits(a) == math.Float32bits(b)
}

func (v Float64) Equal(o Value) bool {
	w, ok := o.(Float64)
	if !ok {
		return false
	}
	a, b := float64(v), float64(w)
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Float64bits(a) == math.Float64bits(b)
}

func (Null) Hash() uint64     { return hashOf(KindNull) }
func (v String) Hash() uint64 { return hashOf(KindString, []byte(v)...) }
func (v Bool) Hash() uint64 {
	if v {
		return hashOf(KindBool, 1)
	}
	return hashOf(KindBool, 0)
}
func (v Char) Hash() uint64  { return hashOf(KindChar, binary.LittleEndian.AppendUint32(nil, uint32(v))...) }
func (v Int32) Hash() uint64 { return hashOf(KindInt32, binary.LittleEndian.AppendUint32(nil, uint32(v))...) }
func (v Int64) Hash() uint64 { return hashOf(KindInt64, binary.LittleEndian.AppendUint64(nil, uint64(v))...) }

func (v Float32) Hash() uint64 {
	bits := math.Float32bits(float32(v))
	if v != v {
		bits = 0x7fc00000
	}
	return hashOf(KindFloat32, binary.LittleEndian.AppendUint32(nil, bits)...)
}

func (v Float64) Hash() uint64 {
	bits := math.Float64bits(float64(v))
	if math.IsNaN(float64(v)) {
		bits = 0x7ff8000000000001
	}
	return hashOf(KindFloat64, binary.LittleEndian.AppendUint64(nil, bits)...)
}

func hashOf(kind Kind, payload ...byte) uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(kind)})
	h.Write(payload)
	return h.Sum64()
}

// Array is an ordered list of values.
type Array struct {
	values []Value
	source reflect.Type
	hash   uint64
}

// NewArray builds an array from values. Nil entries become Null.
func NewArray(values ...Value) *Array {
	return newArray(append([]Value(nil), values...), nil)
}

// newArray takes ownership of values.
func newArray(values []Value, source reflect.Type) *Array {
	h := fnv.New64a()
	h.Write([]byte{byte(KindArray)})
	var buf [8]byte
	for i, v := range values {
		if v == nil {
			v = Null{}
			values[i] = v
		}
		binary.LittleEndian.PutUint64(buf[:], v.Hash())
		h.Write(buf[:])
	}
	return &Array{values: values, source: source, hash: h.Sum64()}
}

func (a *Array) Kind() Kind   { return KindArray }
func (a *Array) Hash() uint64 { return a.hash }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.values) }

// At returns the i-th element.
func (a *Array) At(i int) Value { return a.values[i] }

// Values returns a copy of the elements.
func (a *Array) Values() []Value { return append([]Value(nil), a.values...) }

// Source is the Go type the array was reflected from, if any.
func (a *Array) Source() reflect.Type { return a.source }

func (a *Array) Equal(o Value) bool {
	b, ok := o.(*Array)
	if !ok || len(a.values) != len(b.values) || a.hash != b.hash {
		return false
	}
	for i := range a.values {
		if !a.values[i].Equal(b.values[i]) {
			return false
		}
	}
	return true
}

func (a *Array) Interface() any {
	out := make([]any, len(a.values))
	for i, v := range a.values {
		out[i] = v.Interface()
	}
	return out
}

// Entry is a named object member. Names compare case-insensitively.
type Entry struct {
	Name  string
	Value Value
}

// Equal reports whether both entries have the same name, ignoring case,
// and equal values.
func (e Entry) Equal(o Entry) bool {
	return foldName(e.Name) == foldName(o.Name) && e.Value.Equal(o.Value)
}

// Object is a set of entries kept sorted by name.
type Object struct {
	entries []Entry
	source  reflect.Type
	hash    uint64
}

// NewObject builds an object from entries. When two names are equal
// ignoring case the later entry wins.
func NewObject(entries ...Entry) *Object {
	return newObject(append([]Entry(nil), entries...), nil)
}

// newObject takes ownership of entries.
func newObject(entries []Entry, source reflect.Type) *Object {
	sort.SliceStable(entries, func(i, j int) bool {
		return foldName(entries[i].Name) < foldName(entries[j].Name)
	})
	out := entries[:0]
	for i, e := range entries {
		if e.Value == nil {
			e.Value = Null{}
		}
		if i+1 < len(entries) && foldName(e.Name) == foldName(entries[i+1].Name) {
			continue
		}
		out = append(out, e)
	}

	h := fnv.New64a()
	h.Write([]byte{byte(KindObject)})
	var buf [8]byte
	for _, e := range out {
		h.Write([]byte(foldName(e.Name)))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], e.Value.Hash())
		h.Write(buf[:])
	}
	return &Object{entries: out, source: source, hash: h.Sum64()}
}

// foldName maps every case variant of a name to one key, so that "ſ", "S"
// and "s" all fold together.
func foldName(s string) string { return strings.ToLower(strings.ToUpper(s)) }

func (o *Object) Kind() Kind   { return KindObject }
func (o *Object) Hash() uint64 { return o.hash }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.entries) }

// Entries returns a copy of the entries in name order.
func (o *Object) Entries() []Entry { return append([]Entry(nil), o.entries...) }

// Source is the Go type the object was reflected from, if any.
func (o *Object) Source() reflect.Type { return o.source }

// Get looks up an entry by name, ignoring case.
func (o *Object) Get(name string) (Value, bool) {
	key := foldName(name)
	i := sort.Search(len(o.entries), func(i int) bool {
		return foldName(o.entries[i].Name) >= key
	})
	if i < len(o.entries) && foldName(o.entries[i].Name) == key {
		return o.entries[i].Value, true
	}
	return nil, false
}

func (o *Object) Equal(v Value) bool {
	p, ok := v.(*Object)
	if !ok || len(o.entries) != len(p.entries) || o.hash != p.hash {
		return false
	}
	for i := range o.entries {
		if !o.entries[i].Equal(p.entries[i]) {
			return false
		}
	}
	return true
}

func (o *Object) Interface() any {
	out := make(map[string]any, len(o.entries))
	for _, e := range o.entries {
		out[e.Name] = e.Value.Interface()
	}
	return out
}
