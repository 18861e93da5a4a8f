package kofi

// Element is one line of a document.
type Element interface {
	// String renders the element as a single line of KoFi text.
	String() string
	// Equal reports structural equality with another element.
	Equal(other Element) bool
	isElement()
}

// Comment is a line starting with ';'.
type Comment struct {
	Text string
}

// Section opens a named section. Properties up to the next Section belong
// to it.
type Section struct {
	Name string
}

// Property binds a key to a value within its section.
type Property struct {
	Key   string
	Value Value
}

// Whitespace is a blank line.
type Whitespace struct{}

func (Comment) isElement()    {}
func (Section) isElement()    {}
func (Property) isElement()   {}
func (Whitespace) isElement() {}

// Keys escape these in addition to controls and backslashes, so a key can
// never open a comment or section or end early.
var keyEscapes = []rune{';', '[', '='}

func (c Comment) String() string {
	if c.Text == "" {
		return ";"
	}
	return "; " + escapeEdges(c.Text)
}

func (s Section) String() string {
	return "[" + s.Name + "]"
}

func (p Property) String() string {
	v := p.Value
	if v == nil {
		v = Null{}
	}
	return escapeEdges(p.Key, keyEscapes...) + " = " + v.String()
}

func (Whitespace) String() string { return "" }

func (c Comment) Equal(o Element) bool {
	d, ok := o.(Comment)
	return ok && c.Text == d.Text
}

func (s Section) Equal(o Element) bool {
	t, ok := o.(Section)
	return ok && s.Name == t.Name
}

func (p Property) Equal(o Element) bool {
	q, ok := o.(Property)
	if !ok || p.Key != q.Key {
		return false
	}
	if p.Value == nil || q.Value == nil {
		return p.Value == nil && q.Value == nil
	}
	return p.Value.Equal(q.Value)
}

func (Whitespace) Equal(o Element) bool {
	_, ok := o.(Whitespace)
	return ok
}

// ValueAs returns the property's value as the concrete type V.
func ValueAs[V Value](p Property) (V, bool) {
	v, ok := p.Value.(V)
	return v, ok
}
