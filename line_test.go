package kofi

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		input    string
		expected Element
	}{
		{"", Whitespace{}},
		{"   \t", Whitespace{}},
		{"; hello world", Comment{Text: "hello world"}},
		{";", Comment{}},
		{`;tab\tinside`, Comment{Text: "tab\tinside"}},
		{"[server]", Section{Name: "server"}},
		{"  [with space]  ", Section{Name: "with space"}},
		{"count = 42L", Property{Key: "count", Value: Int64(42)}},
		{"name=\"svc\"", Property{Key: "name", Value: String("svc")}},
		{`a\=b = 2`, Property{Key: "a=b", Value: Int32(2)}},
		{`a\\= 1`, Property{Key: `a\`, Value: Int32(1)}},
		{`url = "http://x/?a=b;c"`, Property{Key: "url", Value: String("http://x/?a=b;c")}},
		{"list = [ 1, 2 ]", Property{Key: "list", Value: NewArray(Int32(1), Int32(2))}},
	}

	for _, test := range tests {
		got, err := parseLine(test.input, 1, nil)
		if err != nil {
			t.Errorf("parseLine(%q): unexpected error: %v", test.input, err)
			continue
		}
		if !got.Equal(test.expected) {
			t.Errorf("parseLine(%q): expected %#v, got %#v", test.input, test.expected, got)
		}
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		input  string
		column int
		msg    string
	}{
		{"[section", 1, "section missing closing bracket"},
		{"  [", 3, "section missing closing bracket"},
		{"novalue", 1, "invalid element: expected a comment, section or property"},
		{`a\=b`, 1, "invalid element: expected a comment, section or property"},
		{"key =", 5, "property value is empty"},
		{"key = 1 2", 9, "trailing data after value"},
		{"key = @", 7, "invalid value"},
	}

	for _, test := range tests {
		_, err := parseLine(test.input, 3, nil)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("parseLine(%q): expected *ParseError, got %v", test.input, err)
			continue
		}
		if perr.Line != 3 {
			t.Errorf("parseLine(%q): expected line 3, got %d", test.input, perr.Line)
		}
		if perr.Column != test.column {
			t.Errorf("parseLine(%q): expected column %d, got %d", test.input, test.column, perr.Column)
		}
		if perr.Msg != test.msg {
			t.Errorf("parseLine(%q): expected message %q, got %q", test.input, test.msg, perr.Msg)
		}
	}
}

func TestElementString(t *testing.T) {
	tests := []struct {
		element  Element
		expected string
	}{
		{Whitespace{}, ""},
		{Comment{}, ";"},
		{Comment{Text: "note"}, "; note"},
		{Comment{Text: "line\nbreak"}, `; line\nbreak`},
		{Section{Name: "db"}, "[db]"},
		{Property{Key: "count", Value: Int64(42)}, "count = 42L"},
		{Property{Key: "a=b;[", Value: Int32(1)}, `a\=b\;\[ = 1`},
		{Property{Key: "empty"}, "empty = null"},
	}

	for _, test := range tests {
		if got := test.element.String(); got != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, got)
		}
	}
}

func TestElementRoundTrip(t *testing.T) {
	elements := []Element{
		Comment{Text: "a comment; with [brackets]"},
		Section{Name: "section.name"},
		Property{Key: "a=b;[c", Value: String("x = y")},
		Property{Key: `back\slash`, Value: Char('\\')},
		Property{Key: "obj", Value: NewObject(Entry{Name: "k", Value: NewArray(Float64(2.5), Null{})})},
	}

	for _, el := range elements {
		got, err := parseLine(el.String(), 1, nil)
		if err != nil {
			t.Errorf("parseLine(%q): unexpected error: %v", el.String(), err)
			continue
		}
		if !got.Equal(el) {
			t.Errorf("Round trip of %q: expected %#v, got %#v", el.String(), el, got)
		}
	}
}

func TestParseLineWarnsOnUnknownEscape(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	el, err := parseLine(`key = "\q"`, 7, log)
	if err != nil {
		t.Fatalf("parseLine failed: %v", err)
	}
	if !el.Equal(Property{Key: "key", Value: String("q")}) {
		t.Errorf("Expected key = \"q\", got %v", el)
	}
	if !strings.Contains(buf.String(), "line=7") {
		t.Errorf("Expected a warning for line 7, got %q", buf.String())
	}
}

func TestValueAs(t *testing.T) {
	p := Property{Key: "port", Value: Int32(8080)}

	port, ok := ValueAs[Int32](p)
	if !ok || port != 8080 {
		t.Errorf("Expected 8080, got %v", port)
	}
	if _, ok := ValueAs[String](p); ok {
		t.Error("Expected ValueAs[String] to fail for an Int32")
	}
}

func TestEdgeWhitespaceRoundTrip(t *testing.T) {
	tests := []struct {
		element  Element
		expected string
	}{
		{Comment{Text: "  indented"}, `; \  indented`},
		{Comment{Text: "trailing  "}, `; trailing \ `},
		{Comment{Text: " "}, `; \ `},
		{Property{Key: " k ", Value: Int32(1)}, `\ k\  = 1`},
		{Property{Key: "\u00a0k", Value: Int32(2)}, "\\\u00a0k = 2"},
		{Property{Key: "plain", Value: Int32(3)}, "plain = 3"},
	}

	for _, test := range tests {
		text := test.element.String()
		if text != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, text)
		}
		got, err := parseLine(text, 1, nil)
		if err != nil {
			t.Errorf("parseLine(%q): unexpected error: %v", text, err)
			continue
		}
		if !got.Equal(test.element) {
			t.Errorf("Round trip of %q: expected %#v, got %#v", text, test.element, got)
		}
	}
}
