package kofi

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

func (Null) String() string { return "null" }

func (v String) String() string {
	return `"` + Escape(string(v), '"') + `"`
}

func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v Char) String() string {
	// Surrogate halves have no UTF-8 form.
	if r := rune(v); !utf8.ValidRune(r) {
		return fmt.Sprintf("'\\u%04x'", uint32(r)&0xffff)
	}
	return "'" + Escape(string(rune(v)), '\'') + "'"
}

func (v Int32) String() string { return strconv.FormatInt(int64(v), 10) }

func (v Int64) String() string { return strconv.FormatInt(int64(v), 10) + "L" }

func (v Float32) String() string {
	if s, ok := specialFloat(float64(v)); ok {
		return s
	}
	return formatFloat(float64(v), 32) + "F"
}

func (v Float64) String() string {
	if s, ok := specialFloat(float64(v)); ok {
		return s
	}
	return formatFloat(float64(v), 64) + "d"
}

// specialFloat renders the values without a numeric literal form.
func specialFloat(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}

// formatFloat produces the shortest round-tripping form, always carrying a
// fraction or an exponent so the literal re-parses as a float.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}

func (a *Array) String() string {
	if len(a.values) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteString("[ ")
	for i, v := range a.values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString(" ]")
	return sb.String()
}

func (o *Object) String() string {
	if len(o.entries) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, e := range o.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(String(e.Name).String())
		sb.WriteString(": ")
		sb.WriteString(e.Value.String())
	}
	sb.WriteString(" }")
	return sb.String()
}
