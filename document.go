package kofi

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a section or property does not exist.
var ErrNotFound = errors.New("kofi: not found")

// Document is an ordered sequence of elements. A property belongs to the
// nearest preceding Section, or to the global section (named "") when no
// Section precedes it. Section names and property keys compare
// case-insensitively.
//
// A Document is not safe for concurrent mutation.
type Document struct {
	elements []Element
}

// NewDocument creates a document holding elems in order.
func NewDocument(elems ...Element) *Document {
	return &Document{elements: append([]Element(nil), elems...)}
}

// Elements returns a copy of the element sequence.
func (d *Document) Elements() []Element {
	return append([]Element(nil), d.elements...)
}

// Len returns the number of elements.
func (d *Document) Len() int { return len(d.elements) }

// At returns the i-th element.
func (d *Document) At(i int) Element { return d.elements[i] }

// Append adds elements at the end without any key checks.
func (d *Document) Append(elems ...Element) {
	d.elements = append(d.elements, elems...)
}

// Insert places elements before index i.
func (d *Document) Insert(i int, elems ...Element) {
	d.elements = append(d.elements[:i], append(append([]Element(nil), elems...), d.elements[i:]...)...)
}

func (d *Document) removeRange(from, to int) {
	d.elements = append(d.elements[:from], d.elements[to:]...)
}

// sectionRange returns the bounds of a section's body: head is the index of
// the Section element (-1 for the global section) and [head+1, end) holds
// its members.
func (d *Document) sectionRange(name string) (head, end int, ok bool) {
	head = -1
	if name != "" {
		head = d.indexSection(name)
		if head < 0 {
			return 0, 0, false
		}
	}
	end = len(d.elements)
	for i := head + 1; i < len(d.elements); i++ {
		if _, isSection := d.elements[i].(Section); isSection {
			end = i
			break
		}
	}
	return head, end, true
}

func (d *Document) indexSection(name string) int {
	for i, el := range d.elements {
		if s, ok := el.(Section); ok && strings.EqualFold(s.Name, name) {
			return i
		}
	}
	return -1
}

func (d *Document) indexProperty(section, key string) int {
	head, end, ok := d.sectionRange(section)
	if !ok {
		return -1
	}
	for i := head + 1; i < end; i++ {
		if p, isProp := d.elements[i].(Property); isProp && strings.EqualFold(p.Key, key) {
			return i
		}
	}
	return -1
}

// attached returns the start of the contiguous comment run before i.
func (d *Document) attached(i int) int {
	for i > 0 {
		if _, ok := d.elements[i-1].(Comment); !ok {
			break
		}
		i--
	}
	return i
}

// Sections returns the explicit section names in document order.
func (d *Document) Sections() []string {
	var names []string
	for _, el := range d.elements {
		if s, ok := el.(Section); ok {
			names = append(names, s.Name)
		}
	}
	return names
}

// HasSection reports whether the section exists. The global section always
// exists.
func (d *Document) HasSection(name string) bool {
	return name == "" || d.indexSection(name) >= 0
}

// AddSection appends a section header unless it already exists. It reports
// whether a header was added.
func (d *Document) AddSection(name string) bool {
	if d.HasSection(name) {
		return false
	}
	if n := len(d.elements); n > 0 {
		if _, blank := d.elements[n-1].(Whitespace); !blank {
			d.elements = append(d.elements, Whitespace{})
		}
	}
	d.elements = append(d.elements, Section{Name: name})
	return true
}

// RemoveSection deletes a section header, its members and the comments
// attached to the header.
func (d *Document) RemoveSection(name string) bool {
	if name == "" {
		return false
	}
	head, end, ok := d.sectionRange(name)
	if !ok {
		return false
	}
	d.removeRange(d.attached(head), end)
	return true
}

// Property returns the property stored under key in section.
func (d *Document) Property(section, key string) (Property, bool) {
	i := d.indexProperty(section, key)
	if i < 0 {
		return Property{}, false
	}
	return d.elements[i].(Property), true
}

// Get returns the value stored under key in section.
func (d *Document) Get(section, key string) (Value, bool) {
	p, ok := d.Property(section, key)
	if !ok {
		return nil, false
	}
	return p.Value, true
}

// Set stores value under key in section. An existing property with the same
// key is replaced in place; otherwise the property is inserted after the
// last property of the section, creating the section when needed.
func (d *Document) Set(section, key string, value Value) {
	if value == nil {
		value = Null{}
	}
	prop := Property{Key: key, Value: value}
	if i := d.indexProperty(section, key); i >= 0 {
		d.elements[i] = prop
		return
	}
	d.AddSection(section)
	head, end, _ := d.sectionRange(section)
	at := head + 1
	for i := head + 1; i < end; i++ {
		if _, ok := d.elements[i].(Property); ok {
			at = i + 1
		}
	}
	d.Insert(at, prop)
}

// Remove deletes a property and its attached comments.
func (d *Document) Remove(section, key string) bool {
	i := d.indexProperty(section, key)
	if i < 0 {
		return false
	}
	d.removeRange(d.attached(i), i+1)
	return true
}

// Keys returns the property keys of a section in document order.
func (d *Document) Keys(section string) []string {
	head, end, ok := d.sectionRange(section)
	if !ok {
		return nil
	}
	var keys []string
	for i := head + 1; i < end; i++ {
		if p, isProp := d.elements[i].(Property); isProp {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Comments returns the comment lines attached to a property, or to the
// section header when key is empty.
func (d *Document) Comments(section, key string) []string {
	var i int
	if key == "" {
		i = d.indexSection(section)
	} else {
		i = d.indexProperty(section, key)
	}
	if i < 0 {
		return nil
	}
	var out []string
	for k := d.attached(i); k < i; k++ {
		out = append(out, d.elements[k].(Comment).Text)
	}
	return out
}

// Equal reports whether both documents hold equal elements in the same order.
func (d *Document) Equal(o *Document) bool {
	if len(d.elements) != len(o.elements) {
		return false
	}
	for i := range d.elements {
		if !d.elements[i].Equal(o.elements[i]) {
			return false
		}
	}
	return true
}
