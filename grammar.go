package kofi

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson/fastfloat"
)

// span is one recognized value. The literal occupies [start, stop) and
// trailing whitespace extends to next.
type span struct {
	value Value
	start int
	stop  int
	next  int
}

// recognizer scans values out of one line.
type recognizer struct {
	src []rune
	w   warner
}

// parseValue recognizes exactly one value in src[start:end]. It returns a
// nil span and a nil error when the range is empty or all whitespace.
func parseValue(src []rune, start, end int, w warner) (*span, error) {
	p := &recognizer{src: src, w: w}
	return p.value(start, end)
}

func (p *recognizer) errorf(i int, format string, args ...any) error {
	return parseErrorf(p.w.line, i+1, format, args...)
}

func (p *recognizer) value(start, end int) (*span, error) {
	i := skipWhitespace(p.src, start, end)
	if i >= end {
		return nil, nil
	}

	var (
		v    Value
		stop int
		err  error
	)
	switch c := p.src[i]; {
	case c == 'n' || c == 'N':
		v, stop, err = p.nullOrNaN(i, end)
	case c == '"':
		v, stop, err = p.str(i, end)
	case c == '\'':
		v, stop, err = p.char(i, end)
	case c == 't' || c == 'T' || c == 'f' || c == 'F':
		v, stop, err = p.boolean(i, end)
	case c == 'i' || c == 'I':
		v, stop, err = p.infinity(i, end)
	case isDigit(c) || c == '-' || c == '+' || c == '.':
		v, stop, err = p.number(i, end)
	case c == '[':
		v, stop, err = p.array(i, end)
	case c == '{':
		v, stop, err = p.object(i, end)
	default:
		err = p.errorf(i, "invalid value")
	}
	if err != nil {
		return nil, err
	}
	return &span{value: v, start: i, stop: stop, next: skipWhitespace(p.src, stop, end)}, nil
}

// matchFold reports whether src[i:] starts with word, ignoring ASCII case.
func (p *recognizer) matchFold(i, end int, word string) bool {
	if i+len(word) > end {
		return false
	}
	for k := 0; k < len(word); k++ {
		c := p.src[i+k]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != rune(word[k]) {
			return false
		}
	}
	return true
}

func (p *recognizer) nullOrNaN(i, end int) (Value, int, error) {
	switch {
	case p.matchFold(i, end, "null"):
		return Null{}, i + 4, nil
	case p.matchFold(i, end, "nan"):
		return Float32(float32(math.NaN())), i + 3, nil
	}
	return nil, 0, p.errorf(i, "invalid value")
}

func (p *recognizer) boolean(i, end int) (Value, int, error) {
	switch {
	case p.matchFold(i, end, "true"):
		return Bool(true), i + 4, nil
	case p.matchFold(i, end, "false"):
		return Bool(false), i + 5, nil
	}
	return nil, 0, p.errorf(i, "invalid value")
}

func (p *recognizer) infinity(i, end int) (Value, int, error) {
	if p.matchFold(i, end, "infinity") {
		return Float32(float32(math.Inf(1))), i + 8, nil
	}
	return nil, 0, p.errorf(i, "invalid value")
}

func (p *recognizer) str(i, end int) (Value, int, error) {
	q := indexUnescaped(p.src, '"', i+1, end)
	if q < 0 {
		return nil, 0, p.errorf(i, "unterminated string")
	}
	return String(unescapeRunes(p.src, i+1, q, p.w)), q + 1, nil
}

// charLen returns the length of the character literal starting at i:
// 3 for 'c', 4 for '\x' and 8 for '\uXXXX'. It returns 0 when no form fits.
func (p *recognizer) charLen(i, end int) int {
	at := func(k int) rune {
		if k < end {
			return p.src[k]
		}
		return -1
	}
	if at(i+1) == '\\' {
		if at(i+2) == 'u' && at(i+7) == '\'' {
			if _, ok := hex4(p.src, i+3, end); ok {
				return 8
			}
		}
		if at(i+2) != -1 && at(i+3) == '\'' {
			return 4
		}
		return 0
	}
	if at(i+1) != -1 && at(i+2) == '\'' {
		return 3
	}
	return 0
}

func (p *recognizer) char(i, end int) (Value, int, error) {
	switch p.charLen(i, end) {
	case 3:
		return Char(p.src[i+1]), i + 3, nil
	case 4:
		esc := p.src[i+2]
		if c, ok := shortUnescapes[esc]; ok {
			return Char(c), i + 4, nil
		}
		return Char(esc), i + 4, nil
	case 8:
		cp, _ := hex4(p.src, i+3, end)
		return Char(cp), i + 8, nil
	}
	return nil, 0, p.errorf(i, "invalid character literal")
}

// Numeric scanner states.
const (
	fracNone = iota
	fracSeparator
	fracDigit
)

const (
	expNone = iota
	expPrefix
	expSign
	expDigit
)

const (
	precNone = iota
	prec32
	prec64
)

func (p *recognizer) number(i, end int) (Value, int, error) {
	var (
		hasDigits bool
		frac      = fracNone
		exp       = expNone
		prec      = precNone
		suffixed  bool
	)

	k := i
scan:
	for ; k < end; k++ {
		c := p.src[k]
		switch {
		case isDigit(c):
			if suffixed {
				break scan
			}
			hasDigits = true
			switch {
			case exp == expPrefix || exp == expSign:
				exp = expDigit
			case exp == expNone && frac == fracSeparator:
				frac = fracDigit
			}
		case c == '-' || c == '+':
			switch {
			case k == i:
			case exp == expPrefix:
				exp = expSign
			default:
				break scan
			}
		case c == '.':
			if frac != fracNone || exp != expNone || suffixed {
				break scan
			}
			frac = fracSeparator
		case c == 'e' || c == 'E':
			if !hasDigits || exp != expNone || suffixed {
				break scan
			}
			exp = expPrefix
		case c == 'i' || c == 'I':
			if k > i && !hasDigits && frac == fracNone && p.matchFold(k, end, "infinity") {
				inf := math.Inf(1)
				if p.src[i] == '-' {
					inf = math.Inf(-1)
				}
				return Float32(float32(inf)), k + 8, nil
			}
			break scan
		case c == 'L' || c == 'l' || c == 'D' || c == 'd':
			if !hasDigits || prec != precNone {
				break scan
			}
			prec, suffixed = prec64, true
		case c == 'F' || c == 'f':
			if !hasDigits || prec != precNone {
				break scan
			}
			prec, suffixed = prec32, true
		default:
			break scan
		}
	}

	if !hasDigits {
		return nil, 0, p.errorf(i, "invalid number")
	}
	if exp == expPrefix || exp == expSign {
		return nil, 0, p.errorf(i, "invalid number: missing exponent digits")
	}

	stop := k
	if suffixed {
		k--
	}
	text := string(p.src[i:k])

	if frac != fracNone || exp != expNone {
		if prec == prec64 {
			f, err := parseFloat64(text)
			if err != nil {
				return nil, 0, p.errorf(i, "invalid number %q", text)
			}
			return Float64(f), stop, nil
		}
		f, err := parseFloat(text, 32)
		if err != nil {
			return nil, 0, p.errorf(i, "invalid number %q", text)
		}
		return Float32(float32(f)), stop, nil
	}

	if prec == prec64 {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, 0, p.errorf(i, "integer %q out of range", text)
		}
		return Int64(n), stop, nil
	}
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return nil, 0, p.errorf(i, "integer %q out of range", text)
	}
	return Int32(int32(n)), stop, nil
}

// parseFloat accepts out-of-range literals, which round to an infinity.
func parseFloat(text string, bits int) (float64, error) {
	f, err := strconv.ParseFloat(text, bits)
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		return f, nil
	}
	return f, err
}

func parseFloat64(text string) (float64, error) {
	if f, err := fastfloat.Parse(strings.TrimPrefix(text, "+")); err == nil {
		return f, nil
	}
	return parseFloat(text, 64)
}

// closing finds the bracket matching the opener at i. Brackets inside
// string and character literals are ignored.
func (p *recognizer) closing(i, end int, open, shut rune) (int, error) {
	depth := 0
	inString := false
	for k := i; k < end; k++ {
		c := p.src[k]
		if inString {
			if c == '"' && !isEscaped(p.src, i, k) {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '\'':
			if n := p.charLen(k, end); n > 0 {
				k += n - 1
			}
		case open:
			depth++
		case shut:
			depth--
			if depth == 0 {
				return k, nil
			}
		}
	}
	if open == '[' {
		return -1, p.errorf(i, "unterminated array")
	}
	return -1, p.errorf(i, "unterminated object")
}

func (p *recognizer) array(i, end int) (Value, int, error) {
	last, err := p.closing(i, end, '[', ']')
	if err != nil {
		return nil, 0, err
	}

	var values []Value
	k := i + 1
	for {
		sp, err := p.value(k, last)
		if err != nil {
			return nil, 0, err
		}
		if sp == nil {
			if len(values) == 0 {
				break
			}
			return nil, 0, p.errorf(k, "empty array element")
		}
		values = append(values, sp.value)
		if sp.next == last {
			break
		}
		if p.src[sp.next] != ',' {
			return nil, 0, p.errorf(sp.next, "expected ',' or ']' in array")
		}
		k = sp.next + 1
	}
	return newArray(values, nil), last + 1, nil
}

func (p *recognizer) object(i, end int) (Value, int, error) {
	last, err := p.closing(i, end, '{', '}')
	if err != nil {
		return nil, 0, err
	}

	var entries []Entry
	k := i + 1
	for {
		key, err := p.value(k, last)
		if err != nil {
			return nil, 0, err
		}
		if key == nil {
			if len(entries) == 0 {
				break
			}
			return nil, 0, p.errorf(k, "empty object entry")
		}
		name, ok := key.value.(String)
		if !ok {
			return nil, 0, p.errorf(key.start, "object key must be a string, got %s", key.value.Kind())
		}
		if key.next >= last || p.src[key.next] != ':' {
			return nil, 0, p.errorf(key.next, "missing ':' after object key %q", string(name))
		}
		val, err := p.value(key.next+1, last)
		if err != nil {
			return nil, 0, err
		}
		if val == nil {
			return nil, 0, p.errorf(key.next+1, "missing value for object key %q", string(name))
		}
		entries = append(entries, Entry{Name: string(name), Value: val.value})
		if val.next == last {
			break
		}
		if p.src[val.next] != ',' {
			return nil, 0, p.errorf(val.next, "expected ',' or '}' in object")
		}
		k = val.next + 1
	}
	return newObject(entries, nil), last + 1, nil
}
