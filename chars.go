package kofi

import "unicode"

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// hexValue returns the value of a hex digit, or -1.
func hexValue(r rune) int {
	switch {
	case isDigit(r):
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return r > 0x7f && unicode.IsSpace(r)
}

// shortEscapes maps the controls with a two character form to their letter.
var shortEscapes = map[rune]rune{
	0x00: '0',
	'\b': 'b',
	'\t': 't',
	'\n': 'n',
	'\f': 'f',
	'\r': 'r',
}

// shortUnescapes is the inverse of shortEscapes.
var shortUnescapes = map[rune]rune{
	'0': 0x00,
	'b': '\b',
	't': '\t',
	'n': '\n',
	'f': '\f',
	'r': '\r',
}

// trimRange narrows [start, end) past leading and trailing whitespace.
func trimRange(src []rune, start, end int) (int, int) {
	for start < end && isWhitespace(src[start]) {
		start++
	}
	for end > start && isWhitespace(src[end-1]) {
		end--
	}
	return start, end
}

// skipWhitespace returns the first non-whitespace index at or after i.
func skipWhitespace(src []rune, i, end int) int {
	for i < end && isWhitespace(src[i]) {
		i++
	}
	return i
}
