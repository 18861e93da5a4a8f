package kofi

import (
	"math"
	"reflect"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{Null{}, "null"},
		{String("plain"), `"plain"`},
		{String("a\"b\n"), `"a\"b\n"`},
		{Bool(true), "true"},
		{Char('x'), "'x'"},
		{Char('\t'), `'\t'`},
		{Char('\''), `'\''`},
		{Char(0x01), `'\u0001'`},
		{Char(0xD800), `'\ud800'`},
		{Int32(-5), "-5"},
		{Int64(5), "5L"},
		{Float32(1.5), "1.5F"},
		{Float32(5), "5.0F"},
		{Float32(1e10), "1e+10F"},
		{Float64(1.5), "1.5d"},
		{Float32(float32(math.NaN())), "NaN"},
		{Float64(math.Inf(1)), "Infinity"},
		{Float32(float32(math.Inf(-1))), "-Infinity"},
		{NewArray(), "[]"},
		{NewArray(Int32(1), String("x")), `[ 1, "x" ]`},
		{NewObject(), "{}"},
		{NewObject(Entry{Name: "b", Value: Int32(1)}, Entry{Name: "a", Value: Bool(true)}), `{ "a": true, "b": 1 }`},
	}

	for _, test := range tests {
		if got := test.value.String(); got != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, got)
		}
	}
}

func TestValueStringReparses(t *testing.T) {
	values := []Value{
		Null{},
		String("quote \" backslash \\ newline \n"),
		Char('\\'),
		Char('é'),
		Char(0xD800),
		Char(0xDFFF),
		Int32(math.MinInt32),
		Int64(math.MaxInt64),
		Float32(0.1),
		Float32(3),
		Float64(12.75),
		Float64(-2.5e-3),
		Float32(float32(math.Inf(1))),
		NewArray(NewArray(), NewObject(), Int64(1)),
		NewObject(Entry{Name: "nested", Value: NewObject(Entry{Name: "k", Value: String("}")})}),
	}

	for _, v := range values {
		got, err := ParseValue(v.String())
		if err != nil {
			t.Errorf("ParseValue(%q): unexpected error: %v", v.String(), err)
			continue
		}
		if !got.Equal(v) {
			t.Errorf("Round trip of %q: expected %s, got %s %v", v.String(), v.Kind(), got.Kind(), got)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b     Value
		expected bool
	}{
		{Int32(1), Int32(1), true},
		{Int32(1), Int64(1), false},
		{Float32(1), Float64(1), false},
		{Float32(float32(math.NaN())), Float32(float32(math.NaN())), true},
		{Float64(math.NaN()), Float64(1), false},
		{String("a"), String("A"), false},
		{Char('a'), String("a"), false},
		{Null{}, Null{}, true},
		{NewArray(Int32(1), Int32(2)), NewArray(Int32(1), Int32(2)), true},
		{NewArray(Int32(1), Int32(2)), NewArray(Int32(2), Int32(1)), false},
		{NewObject(Entry{Name: "Key", Value: Int32(1)}), NewObject(Entry{Name: "key", Value: Int32(1)}), true},
		{NewObject(Entry{Name: "key", Value: Int32(1)}), NewObject(Entry{Name: "key", Value: Int32(2)}), false},
	}

	for _, test := range tests {
		if got := test.a.Equal(test.b); got != test.expected {
			t.Errorf("%v.Equal(%v): expected %v, got %v", test.a, test.b, test.expected, got)
		}
		if test.expected && test.a.Hash() != test.b.Hash() {
			t.Errorf("Expected equal values %v and %v to hash equally", test.a, test.b)
		}
	}
}

func TestObjectDuplicateNames(t *testing.T) {
	obj := NewObject(
		Entry{Name: "A", Value: Int32(1)},
		Entry{Name: "b", Value: Int32(2)},
		Entry{Name: "a", Value: Int32(3)},
	)

	if obj.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", obj.Len())
	}
	v, ok := obj.Get("A")
	if !ok || !v.Equal(Int32(3)) {
		t.Errorf("Expected the later entry to win, got %v", v)
	}
	if _, ok := obj.Get("missing"); ok {
		t.Error("Expected missing key lookup to fail")
	}
}

func TestNilValuesBecomeNull(t *testing.T) {
	arr := NewArray(nil, Int32(1))
	if arr.At(0).Kind() != KindNull {
		t.Errorf("Expected null, got %v", arr.At(0))
	}

	obj := NewObject(Entry{Name: "k"})
	v, _ := obj.Get("k")
	if v.Kind() != KindNull {
		t.Errorf("Expected null, got %v", v)
	}
}

func TestValueInterface(t *testing.T) {
	v := NewObject(
		Entry{Name: "list", Value: NewArray(Int32(1), String("x"))},
		Entry{Name: "flag", Value: Bool(true)},
		Entry{Name: "none", Value: Null{}},
	)

	expected := map[string]any{
		"list": []any{int32(1), "x"},
		"flag": true,
		"none": nil,
	}
	if got := v.Interface(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestKindString(t *testing.T) {
	if KindInt64.String() != "int64" || KindObject.String() != "object" {
		t.Errorf("Unexpected kind names %q and %q", KindInt64, KindObject)
	}
}

func TestObjectFoldedNames(t *testing.T) {
	tests := []struct {
		stored, lookup string
	}{
		{"ſ", "S"},
		{"s", "ſ"},
		{"\u212a", "k"},
		{"Key", "KEY"},
	}

	for _, test := range tests {
		a := NewObject(Entry{Name: test.stored, Value: Int32(1)})
		b := NewObject(Entry{Name: test.lookup, Value: Int32(1)})

		if _, ok := a.Get(test.lookup); !ok {
			t.Errorf("Get(%q) on %q: expected a match", test.lookup, test.stored)
		}
		if !(Entry{Name: test.stored, Value: Null{}}).Equal(Entry{Name: test.lookup, Value: Null{}}) {
			t.Errorf("Expected entries %q and %q to be equal", test.stored, test.lookup)
		}
		if !a.Equal(b) || a.Hash() != b.Hash() {
			t.Errorf("Expected objects keyed %q and %q to be equal", test.stored, test.lookup)
		}
		if merged := NewObject(a.Entries()[0], b.Entries()[0]); merged.Len() != 1 {
			t.Errorf("Expected %q and %q to collapse to one entry, got %d", test.stored, test.lookup, merged.Len())
		}
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	got, err := ParseValue(String("a\xffb").String())
	if err != nil {
		t.Fatalf("ParseValue failed: %v", err)
	}
	if !got.Equal(String("a\ufffdb")) {
		t.Errorf("Expected invalid bytes to read back as U+FFFD, got %q", got)
	}
}
