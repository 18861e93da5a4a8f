package kofi

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewParser(t *testing.T) {
	p := NewParser()
	if p == nil {
		t.Fatal("NewParser() returned nil")
	}
}

func TestParseDocument_Simple(t *testing.T) {
	input := `name = "John Doe"
age = 30
active = true`

	p := NewParser()
	doc, err := p.ParseDocument(strings.NewReader(input))

	if err != nil {
		t.Fatalf("ParseDocument() failed: %v", err)
	}

	if doc.Len() != 3 {
		t.Fatalf("Expected 3 elements, got %d", doc.Len())
	}

	// Check first property
	first, ok := doc.At(0).(Property)
	if !ok {
		t.Fatalf("Expected a Property, got %T", doc.At(0))
	}
	if first.Key != "name" {
		t.Errorf("Expected key 'name', got '%s'", first.Key)
	}
	if !first.Value.Equal(String("John Doe")) {
		t.Errorf("Expected value 'John Doe', got '%s'", first.Value)
	}

	// Check the typed values
	age, _ := doc.Get("", "age")
	if !age.Equal(Int32(30)) {
		t.Errorf("Expected age 30, got %v", age)
	}
	active, _ := doc.Get("", "active")
	if !active.Equal(Bool(true)) {
		t.Errorf("Expected active true, got %v", active)
	}
}

func TestParseDocument_Sections(t *testing.T) {
	input := `[server]
host = "localhost"
port = 8080`

	doc, err := NewParser().ParseString(input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	section, ok := doc.At(0).(Section)
	if !ok || section.Name != "server" {
		t.Fatalf("Expected section 'server', got %v", doc.At(0))
	}

	port, ok := doc.Get("server", "port")
	if !ok || !port.Equal(Int32(8080)) {
		t.Errorf("Expected port 8080, got %v", port)
	}
}

func TestParseDocument_EmptyLinesAndComments(t *testing.T) {
	input := "; comment\r\n\r\nkey = 'v'\r\n   \r\n"

	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	expected := []Element{
		Comment{Text: "comment"},
		Whitespace{},
		Property{Key: "key", Value: Char('v')},
		Whitespace{},
	}
	if doc.Len() != len(expected) {
		t.Fatalf("Expected %d elements, got %d", len(expected), doc.Len())
	}
	for i, el := range expected {
		if !doc.At(i).Equal(el) {
			t.Errorf("Element %d: expected %#v, got %#v", i, el, doc.At(i))
		}
	}
}

func TestParseDocument_Empty(t *testing.T) {
	doc, err := ParseString("")
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("Expected no elements, got %d", doc.Len())
	}
}

func TestParseDocument_ErrorLine(t *testing.T) {
	input := "a = 1\n; fine\nb = [1, 2\nc = 3"

	_, err := Parse(strings.NewReader(input))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ParseError, got %v", err)
	}
	if perr.Line != 3 {
		t.Errorf("Expected line 3, got %d", perr.Line)
	}
	if perr.Msg != "unterminated array" {
		t.Errorf("Expected 'unterminated array', got '%s'", perr.Msg)
	}
}

func TestParseDocument_LongLine(t *testing.T) {
	value := strings.Repeat("x", 200_000)
	doc, err := ParseString(fmt.Sprintf("big = %q", value))
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	got, _ := doc.Get("", "big")
	if !got.Equal(String(value)) {
		t.Error("Expected the long value to survive parsing")
	}
}

func generateDocument(lines int) string {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		switch i % 5 {
		case 0:
			fmt.Fprintf(&sb, "[section%d]\n", i)
		case 1:
			fmt.Fprintf(&sb, "; comment %d\n", i)
		case 2:
			sb.WriteString("\n")
		case 3:
			fmt.Fprintf(&sb, "list%d = [ %d, \"%d\", { \"n\": %dL } ]\n", i, i, i, i)
		default:
			fmt.Fprintf(&sb, "key%d = %d\n", i, i)
		}
	}
	return sb.String()
}

func TestParseParallelMatchesSequential(t *testing.T) {
	input := generateDocument(2000)

	sequential, err := NewParser().WithWorkers(1).ParseString(input)
	if err != nil {
		t.Fatalf("sequential parse failed: %v", err)
	}
	parallel, err := NewParser().WithWorkers(4).WithSequentialThreshold(1).ParseString(input)
	if err != nil {
		t.Fatalf("parallel parse failed: %v", err)
	}

	if !parallel.Equal(sequential) {
		t.Error("Expected parallel and sequential parses to agree")
	}
	if parallel.String() != input {
		t.Error("Expected the parallel parse to render back to its input")
	}
}

func TestParseParallelReportsFirstError(t *testing.T) {
	lines := strings.Split(generateDocument(1000), "\n")
	lines[900] = "broken"
	lines[300] = "also broken"
	lines[600] = "[unclosed"
	input := strings.Join(lines, "\n")

	for run := 0; run < 10; run++ {
		_, err := NewParser().WithWorkers(8).WithSequentialThreshold(1).ParseString(input)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Expected *ParseError, got %v", err)
		}
		if perr.Line != 301 {
			t.Fatalf("Expected the error on line 301, got line %d", perr.Line)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	doc := NewDocument(
		Comment{Text: "every kind of value"},
		Property{Key: "null", Value: Null{}},
		Property{Key: "string", Value: String("tab\t\"quote\" \\ ; [x] = y")},
		Property{Key: "bool", Value: Bool(false)},
		Property{Key: "char", Value: Char('\n')},
		Property{Key: "int32", Value: Int32(-12)},
		Property{Key: "int64", Value: Int64(1 << 40)},
		Property{Key: "float32", Value: Float32(0.25)},
		Property{Key: "float64", Value: Float64(2.5e10)},
		Property{Key: "nan", Value: Float32(float32(math.NaN()))},
		Whitespace{},
		Section{Name: "nested"},
		Property{Key: "array", Value: NewArray(Int32(1), NewArray(String("]")), NewObject())},
		Property{Key: "object", Value: NewObject(
			Entry{Name: "b", Value: Char('}')},
			Entry{Name: "a", Value: NewArray()},
		)},
	)

	parsed, err := ParseString(doc.String())
	if err != nil {
		t.Fatalf("ParseString() failed: %v\n%s", err, doc.String())
	}
	if !parsed.Equal(doc) {
		t.Errorf("Round trip mismatch:\nExpected:\n%s\nGot:\n%s", doc, parsed)
	}
	if parsed.String() != doc.String() {
		t.Errorf("Expected identical rendering, got:\n%s", parsed)
	}
}
