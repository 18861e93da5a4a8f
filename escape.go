package kofi

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Escape converts s to its KoFi text form. Control characters use the two
// character escapes where one exists and \uXXXX otherwise, a backslash is
// doubled and every rune in extra is preceded by a backslash.
//
// When no rune needs escaping, s itself is returned. Unescape reverses
// Escape for valid UTF-8; invalid bytes pass through unchanged.
func Escape(s string, extra ...rune) string {
	first := -1
	for i, r := range s {
		if needsEscape(r, extra) {
			first = i
			break
		}
	}
	if first < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	sb.WriteString(s[:first])
	last := first
	for i, r := range s[first:] {
		i += first
		if !needsEscape(r, extra) {
			continue
		}
		sb.WriteString(s[last:i])
		writeEscape(&sb, r)
		last = i + utf8.RuneLen(r)
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// escapeEdges is Escape for text the line parser trims: a leading or
// trailing whitespace rune is preceded by a backslash so it survives.
func escapeEdges(s string, extra ...rune) string {
	out := Escape(s, extra...)
	if out == "" {
		return out
	}
	first, _ := utf8.DecodeRuneInString(out)
	last, n := utf8.DecodeLastRuneInString(out)
	lead := isWhitespace(first)
	trail := isWhitespace(last) && !(lead && n == len(out))
	if !lead && !trail {
		return out
	}

	var sb strings.Builder
	sb.Grow(len(out) + 2)
	if lead {
		sb.WriteByte('\\')
	}
	if trail {
		sb.WriteString(out[:len(out)-n])
		sb.WriteByte('\\')
		sb.WriteString(out[len(out)-n:])
	} else {
		sb.WriteString(out)
	}
	return sb.String()
}

// trimEscaped is trimRange that keeps a trailing whitespace rune escaped by
// a backslash.
func trimEscaped(src []rune, start, end int) (int, int) {
	s, e := trimRange(src, start, end)
	if e < end && isEscaped(src, s, e) {
		e++
	}
	return s, e
}

func needsEscape(r rune, extra []rune) bool {
	if r < 0x20 || r == '\\' {
		return true
	}
	for _, e := range extra {
		if r == e {
			return true
		}
	}
	return false
}

func writeEscape(sb *strings.Builder, r rune) {
	sb.WriteByte('\\')
	if r >= 0x20 {
		sb.WriteRune(r)
		return
	}
	if c, ok := shortEscapes[r]; ok {
		sb.WriteRune(c)
		return
	}
	sb.WriteString("u00")
	sb.WriteByte(hexDigits[r>>4])
	sb.WriteByte(hexDigits[r&0xf])
}

// Unescape reverses Escape. Unknown escapes resolve to the escaped rune and
// truncated ones are kept literally; neither is an error.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	src := []rune(s)
	return unescapeRunes(src, 0, len(src), warner{})
}

// warner carries the logger and line used for lenient-escape diagnostics.
type warner struct {
	log  *slog.Logger
	line int
}

func (w warner) warn(msg string, args ...any) {
	if w.log == nil {
		return
	}
	if w.line > 0 {
		args = append(args, "line", w.line)
	}
	w.log.Warn(msg, args...)
}

func unescapeRunes(src []rune, start, end int, w warner) string {
	i := start
	for i < end && src[i] != '\\' {
		i++
	}
	if i == end {
		return string(src[start:end])
	}

	var sb strings.Builder
	sb.Grow(end - start)
	sb.WriteString(string(src[start:i]))
	for i < end {
		r := src[i]
		if r != '\\' {
			sb.WriteRune(r)
			i++
			continue
		}
		if i+1 >= end {
			w.warn("truncated escape sequence", "column", i+1)
			sb.WriteRune('\\')
			i++
			continue
		}

		next := src[i+1]
		if c, ok := shortUnescapes[next]; ok {
			sb.WriteRune(c)
			i += 2
			continue
		}
		if next == 'u' {
			cp, ok := hex4(src, i+2, end)
			if !ok {
				w.warn("malformed unicode escape", "column", i+1)
				sb.WriteRune('u')
				i += 2
				continue
			}
			i += 6
			if utf16.IsSurrogate(cp) && i+1 < end && src[i] == '\\' && src[i+1] == 'u' {
				if lo, ok := hex4(src, i+2, end); ok {
					if dec := utf16.DecodeRune(cp, lo); dec != unicode.ReplacementChar {
						sb.WriteRune(dec)
						i += 6
						continue
					}
				}
			}
			sb.WriteRune(cp)
			continue
		}
		if isDigit(next) || unicode.IsLetter(next) {
			w.warn("unknown escape sequence", "sequence", fmt.Sprintf("\\%c", next), "column", i+1)
		}
		sb.WriteRune(next)
		i += 2
	}
	return sb.String()
}

// hex4 decodes exactly four hex digits starting at i.
func hex4(src []rune, i, end int) (rune, bool) {
	if i+4 > end {
		return 0, false
	}
	var cp rune
	for k := i; k < i+4; k++ {
		v := hexValue(src[k])
		if v < 0 {
			return 0, false
		}
		cp = cp<<4 | rune(v)
	}
	return cp, true
}

// backslashRun counts the consecutive backslashes immediately before i,
// looking no further back than start.
func backslashRun(src []rune, start, i int) int {
	n := 0
	for k := i - 1; k >= start && src[k] == '\\'; k-- {
		n++
	}
	return n
}

// isEscaped reports whether the rune at i is preceded by an odd backslash run.
func isEscaped(src []rune, start, i int) bool {
	return backslashRun(src, start, i)%2 == 1
}

// indexUnescaped returns the first index in [start, end) holding delim that
// is not escaped, or -1.
func indexUnescaped(src []rune, delim rune, start, end int) int {
	for i := start; i < end; i++ {
		if src[i] == delim && !isEscaped(src, start, i) {
			return i
		}
	}
	return -1
}
