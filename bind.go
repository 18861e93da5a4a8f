package kofi

import (
	"math"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Marshaler is implemented by types that convert themselves to a Value.
type Marshaler interface {
	MarshalKofi() (Value, error)
}

// Unmarshaler is implemented by types that bind themselves from a Value.
type Unmarshaler interface {
	UnmarshalKofi(Value) error
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	valueType       = reflect.TypeFor[Value]()
)

// parallelConvert is the element count from which container conversion
// fans out over goroutines.
const parallelConvert = 64

// ValueOf converts a Go value to a Value.
//
// Defined types map directly: nil, string, bool, Char, integers (int32 when
// the value fits, int64 otherwise), float32, float64 and any Value.
// Marshaler implementations convert themselves. Slices and arrays become an
// *Array; structs and maps with string keys become an *Object. Both record
// the Go type they came from.
//
// Struct fields use the `kofi` tag:
//   - `kofi:"name"` - stores the field under "name"
//   - `kofi:"name,omitempty"` - omits the field when it is the zero value
//   - `kofi:"-"` - ignores the field
func ValueOf(v any) (Value, error) {
	if v == nil {
		return Null{}, nil
	}
	if val, ok := definedValue(v); ok {
		return val, nil
	}
	return reflectValue(reflect.ValueOf(v))
}

func definedValue(v any) (Value, bool) {
	switch x := v.(type) {
	case Value:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, true
		}
		return x, true
	case string:
		return String(x), true
	case bool:
		return Bool(x), true
	case int:
		return intValue(int64(x)), true
	case int8:
		return Int32(x), true
	case int16:
		return Int32(x), true
	case int32:
		return Int32(x), true
	case int64:
		return Int64(x), true
	case uint8:
		return Int32(x), true
	case uint16:
		return Int32(x), true
	case float32:
		return Float32(x), true
	case float64:
		return Float64(x), true
	}
	return nil, false
}

func intValue(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int32(int32(n))
	}
	return Int64(n)
}

func reflectValue(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	t := rv.Type()
	if t.Implements(valueType) {
		if isNilRef(rv) {
			return Null{}, nil
		}
		return rv.Interface().(Value), nil
	}
	if t.Implements(marshalerType) {
		if isNilRef(rv) {
			return Null{}, nil
		}
		v, err := rv.Interface().(Marshaler).MarshalKofi()
		if err != nil {
			return nil, errors.Wrapf(err, "marshal %s", t)
		}
		return v, nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return reflectValue(rv.Elem())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return intValue(rv.Int()), nil
	case reflect.Int64:
		return Int64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, errors.Errorf("%s value %d overflows int64", t, u)
		}
		return intValue(int64(u)), nil
	case reflect.Float32:
		return Float32(rv.Float()), nil
	case reflect.Float64:
		return Float64(rv.Float()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}, nil
		}
		return reflectArray(rv)
	case reflect.Array:
		return reflectArray(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}, nil
		}
		return reflectMap(rv)
	case reflect.Struct:
		return reflectStruct(rv)
	default:
		return nil, errors.Errorf("unsupported type %s", t)
	}
}

func isNilRef(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// convertAll converts n values into pre-sized slots, in parallel for large n.
func convertAll(n int, at func(i int) (Value, error)) ([]Value, error) {
	out := make([]Value, n)
	if n < parallelConvert {
		for i := 0; i < n; i++ {
			v, err := at(i)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, err := at(i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func reflectArray(rv reflect.Value) (Value, error) {
	values, err := convertAll(rv.Len(), func(i int) (Value, error) {
		v, err := reflectValue(rv.Index(i))
		return v, errors.Wrapf(err, "index %d", i)
	})
	if err != nil {
		return nil, err
	}
	return newArray(values, rv.Type()), nil
}

func reflectMap(rv reflect.Value) (Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, errors.Errorf("map key type %s is not a string", rv.Type().Key())
	}
	keys := rv.MapKeys()
	values, err := convertAll(len(keys), func(i int) (Value, error) {
		v, err := reflectValue(rv.MapIndex(keys[i]))
		return v, errors.Wrapf(err, "key %s", keys[i].String())
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(keys))
	for i, k := range keys {
		entries[i] = Entry{Name: k.String(), Value: values[i]}
	}
	return newObject(entries, rv.Type()), nil
}

// structField is an exported field with its resolved KoFi name.
type structField struct {
	index     int
	name      string
	omitEmpty bool
}

func structFields(t reflect.Type) []structField {
	var fields []structField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("kofi")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		fields = append(fields, structField{index: i, name: name, omitEmpty: hasOption(opts, "omitempty")})
	}
	return fields
}

func reflectStruct(rv reflect.Value) (Value, error) {
	fields := structFields(rv.Type())
	values, err := convertAll(len(fields), func(i int) (Value, error) {
		fv := rv.Field(fields[i].index)
		if fields[i].omitEmpty && fv.IsZero() {
			return nil, nil
		}
		v, err := reflectValue(fv)
		return v, errors.Wrapf(err, "field %s", fields[i].name)
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(fields))
	for i, f := range fields {
		if values[i] == nil {
			continue
		}
		entries = append(entries, Entry{Name: f.name, Value: values[i]})
	}
	return newObject(entries, rv.Type()), nil
}

// ArrayOf converts items into an array, reflecting any that are not
// defined types.
func ArrayOf(items ...any) (*Array, error) {
	values, err := convertAll(len(items), func(i int) (Value, error) {
		v, err := ValueOf(items[i])
		return v, errors.Wrapf(err, "index %d", i)
	})
	if err != nil {
		return nil, err
	}
	return newArray(values, nil), nil
}

// Construct binds v into the value pointed to by target. Object entries are
// matched to struct fields by their `kofi` tag name, or by field name
// ignoring case. Unmarshaler implementations bind themselves.
func Construct(v Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &ConstructionError{Type: reflect.TypeOf(target), Err: errors.New("target must be a non-nil pointer")}
	}
	return construct(v, rv.Elem(), "")
}

func constructErr(dst reflect.Value, path string, err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConstructionError{Type: dst.Type(), Field: path, Err: err}
}

func construct(v Value, dst reflect.Value, path string) error {
	if v == nil {
		v = Null{}
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(unmarshalerType) {
		if err := dst.Addr().Interface().(Unmarshaler).UnmarshalKofi(v); err != nil {
			return constructErr(dst, path, errors.Wrap(err, "unmarshal"))
		}
		return nil
	}
	if dst.Type().Implements(valueType) {
		if _, isNull := v.(Null); isNull && dst.Kind() != reflect.Interface {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if !reflect.TypeOf(v).AssignableTo(dst.Type()) {
			return constructErr(dst, path, errors.Errorf("cannot assign %s to %s", v.Kind(), dst.Type()))
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	if _, isNull := v.(Null); isNull {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	var err error
	switch dst.Kind() {
	case reflect.String:
		err = setString(dst, v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		err = setInt(dst, v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		err = setUint(dst, v)
	case reflect.Float32, reflect.Float64:
		err = setFloat(dst, v)
	case reflect.Bool:
		err = setBool(dst, v)
	case reflect.Slice:
		return setSlice(dst, v, path)
	case reflect.Array:
		return setArray(dst, v, path)
	case reflect.Map:
		return setMap(dst, v, path)
	case reflect.Struct:
		return setStruct(dst, v, path)
	case reflect.Pointer:
		return setPointer(dst, v, path)
	case reflect.Interface:
		if dst.NumMethod() != 0 {
			err = errors.Errorf("cannot bind to non-empty interface %s", dst.Type())
			break
		}
		if iv := v.Interface(); iv != nil {
			dst.Set(reflect.ValueOf(iv))
		}
	default:
		err = errors.Errorf("unsupported field type %s", dst.Kind())
	}
	if err != nil {
		return constructErr(dst, path, err)
	}
	return nil
}

func mismatch(v Value, dst reflect.Value) error {
	return errors.Errorf("cannot convert %s to %s", v.Kind(), dst.Type())
}

func setString(dst reflect.Value, v Value) error {
	switch x := v.(type) {
	case String:
		dst.SetString(string(x))
	case Char:
		dst.SetString(string(rune(x)))
	default:
		return mismatch(v, dst)
	}
	return nil
}

func integerOf(v Value) (int64, bool) {
	switch x := v.(type) {
	case Int32:
		return int64(x), true
	case Int64:
		return int64(x), true
	case Char:
		return int64(x), true
	}
	return 0, false
}

func setInt(dst reflect.Value, v Value) error {
	n, ok := integerOf(v)
	if !ok {
		return mismatch(v, dst)
	}
	if dst.OverflowInt(n) {
		return errors.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func setUint(dst reflect.Value, v Value) error {
	n, ok := integerOf(v)
	if !ok {
		return mismatch(v, dst)
	}
	if n < 0 || dst.OverflowUint(uint64(n)) {
		return errors.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetUint(uint64(n))
	return nil
}

func setFloat(dst reflect.Value, v Value) error {
	switch x := v.(type) {
	case Float32:
		dst.SetFloat(float64(x))
	case Float64:
		dst.SetFloat(float64(x))
	case Int32:
		dst.SetFloat(float64(x))
	case Int64:
		dst.SetFloat(float64(x))
	default:
		return mismatch(v, dst)
	}
	return nil
}

func setBool(dst reflect.Value, v Value) error {
	b, ok := v.(Bool)
	if !ok {
		return mismatch(v, dst)
	}
	dst.SetBool(bool(b))
	return nil
}

func setSlice(dst reflect.Value, v Value, path string) error {
	arr, ok := v.(*Array)
	if !ok {
		return constructErr(dst, path, mismatch(v, dst))
	}
	slice := reflect.MakeSlice(dst.Type(), arr.Len(), arr.Len())
	for i, item := range arr.values {
		if err := construct(item, slice.Index(i), indexPath(path, i)); err != nil {
			return err
		}
	}
	dst.Set(slice)
	return nil
}

func setArray(dst reflect.Value, v Value, path string) error {
	arr, ok := v.(*Array)
	if !ok {
		return constructErr(dst, path, mismatch(v, dst))
	}
	if arr.Len() != dst.Len() {
		return constructErr(dst, path, errors.Errorf("array has %d elements, %s needs %d", arr.Len(), dst.Type(), dst.Len()))
	}
	for i, item := range arr.values {
		if err := construct(item, dst.Index(i), indexPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

func setMap(dst reflect.Value, v Value, path string) error {
	obj, ok := v.(*Object)
	if !ok {
		return constructErr(dst, path, mismatch(v, dst))
	}
	if dst.Type().Key().Kind() != reflect.String {
		return constructErr(dst, path, errors.Errorf("map key type %s is not a string", dst.Type().Key()))
	}
	m := reflect.MakeMapWithSize(dst.Type(), obj.Len())
	for _, e := range obj.entries {
		elem := reflect.New(dst.Type().Elem()).Elem()
		if err := construct(e.Value, elem, fieldPath(path, e.Name)); err != nil {
			return err
		}
		m.SetMapIndex(reflect.ValueOf(e.Name).Convert(dst.Type().Key()), elem)
	}
	dst.Set(m)
	return nil
}

func setStruct(dst reflect.Value, v Value, path string) error {
	obj, ok := v.(*Object)
	if !ok {
		return constructErr(dst, path, mismatch(v, dst))
	}
	for _, f := range structFields(dst.Type()) {
		val, ok := obj.Get(f.name)
		if !ok {
			continue
		}
		if err := construct(val, dst.Field(f.index), fieldPath(path, f.name)); err != nil {
			return err
		}
	}
	return nil
}

func setPointer(dst reflect.Value, v Value, path string) error {
	ptr := reflect.New(dst.Type().Elem())
	if err := construct(v, ptr.Elem(), path); err != nil {
		return err
	}
	dst.Set(ptr)
	return nil
}

func fieldPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}
