package kofi

import "log/slog"

// parseLine classifies one raw line and parses it into an element.
func parseLine(raw string, line int, log *slog.Logger) (Element, error) {
	src := []rune(raw)
	w := warner{log: log, line: line}
	start, end := trimEscaped(src, 0, len(src))
	if start == end {
		return Whitespace{}, nil
	}

	switch src[start] {
	case ';':
		s, e := trimEscaped(src, start+1, end)
		return Comment{Text: unescapeRunes(src, s, e, w)}, nil
	case '[':
		if end-start < 2 || src[end-1] != ']' {
			return nil, parseErrorf(line, start+1, "section missing closing bracket")
		}
		return Section{Name: string(src[start+1 : end-1])}, nil
	}

	eq := indexUnescaped(src, '=', start, end)
	if eq < 0 {
		return nil, parseErrorf(line, start+1, "invalid element: expected a comment, section or property")
	}
	ks, ke := trimEscaped(src, start, eq)
	key := unescapeRunes(src, ks, ke, w)

	sp, err := parseValue(src, eq+1, end, w)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, parseErrorf(line, eq+1, "property value is empty")
	}
	if sp.next != end {
		return nil, parseErrorf(line, sp.next+1, "trailing data after value")
	}
	return Property{Key: key, Value: sp.value}, nil
}

// ParseValue parses a single KoFi value literal such as `42L` or
// `[ "a", 'b' ]`.
func ParseValue(text string) (Value, error) {
	src := []rune(text)
	sp, err := parseValue(src, 0, len(src), warner{line: 1})
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, parseErrorf(1, 1, "value is empty")
	}
	if sp.next != len(src) {
		return nil, parseErrorf(1, sp.next+1, "trailing data after value")
	}
	return sp.value, nil
}
