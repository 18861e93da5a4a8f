package kofi

import (
	"fmt"
	"reflect"
)

// Unmarshal parses a KoFi document and stores the result in the value
// pointed to by v, which must be a pointer to a struct or a map.
//
// Properties of the global section bind to top-level fields. A section binds
// to the field of the same name, which is typically a nested struct:
//
//	type Config struct {
//	    Name     string   `kofi:"name"`
//	    Tags     []string `kofi:"tags"`
//	    Database struct {
//	        Host string `kofi:"host"`
//	        Port int    `kofi:"port"`
//	    } `kofi:"database"`
//	}
//
// matches
//
//	name = "service"
//	tags = [ "a", "b" ]
//
//	[database]
//	host = "localhost"
//	port = 5432
func Unmarshal(data []byte, v any) error {
	doc, err := NewParser().ParseBytes(data)
	if err != nil {
		return err
	}
	return UnmarshalDocument(doc, v)
}

// UnmarshalDocument unmarshals a parsed Document into v.
func UnmarshalDocument(doc *Document, v any) error {
	return Construct(doc.Object(), v)
}

// Object folds the document into a single object: global properties become
// entries, and every section becomes an object entry holding its
// properties. A global property shadows a section of the same name.
func (d *Document) Object() *Object {
	var entries []Entry
	for _, name := range d.Sections() {
		entries = append(entries, Entry{Name: name, Value: d.sectionObject(name)})
	}
	entries = append(entries, d.sectionObject("").entries...)
	return newObject(entries, nil)
}

func (d *Document) sectionObject(section string) *Object {
	head, end, ok := d.sectionRange(section)
	if !ok {
		return newObject(nil, nil)
	}
	var entries []Entry
	for i := head + 1; i < end; i++ {
		if p, isProp := d.elements[i].(Property); isProp {
			entries = append(entries, Entry{Name: p.Key, Value: p.Value})
		}
	}
	return newObject(entries, nil)
}

// Decode binds the properties of one section into v.
func (d *Document) Decode(section string, v any) error {
	if !d.HasSection(section) {
		return fmt.Errorf("section %q: %w", section, ErrNotFound)
	}
	return Construct(d.sectionObject(section), v)
}

// Encode stores every field of v as a property of section. v must convert
// to an object.
func (d *Document) Encode(section string, v any) error {
	val, err := ValueOf(v)
	if err != nil {
		return err
	}
	obj, ok := val.(*Object)
	if !ok {
		return fmt.Errorf("encode %T: want an object, got %s", v, val.Kind())
	}
	for _, e := range obj.entries {
		d.Set(section, e.Name, e.Value)
	}
	return nil
}

// Marshal returns the KoFi document for v. Struct-typed fields of v become
// sections; every other field becomes a global property.
func Marshal(v any) ([]byte, error) {
	doc, err := MarshalDocument(v)
	if err != nil {
		return nil, err
	}
	return []byte(doc.String()), nil
}

// MarshalDocument is Marshal returning the Document.
func MarshalDocument(v any) (*Document, error) {
	val, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(*Object)
	if !ok {
		return nil, fmt.Errorf("marshal %T: want an object, got %s", v, val.Kind())
	}

	doc := NewDocument()
	var sections []Entry
	for _, e := range obj.entries {
		if sub, isObj := e.Value.(*Object); isObj && isStructType(sub.source) {
			sections = append(sections, e)
			continue
		}
		doc.Append(Property{Key: e.Name, Value: e.Value})
	}
	for _, s := range sections {
		doc.AddSection(s.Name)
		for _, e := range s.Value.(*Object).entries {
			doc.Append(Property{Key: e.Name, Value: e.Value})
		}
	}
	return doc, nil
}

func isStructType(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}

// GetAs looks up a property and binds its value to a T.
func GetAs[T any](d *Document, section, key string) (T, error) {
	var out T
	v, ok := d.Get(section, key)
	if !ok {
		return out, fmt.Errorf("property %q in section %q: %w", key, section, ErrNotFound)
	}
	if err := Construct(v, &out); err != nil {
		return out, err
	}
	return out, nil
}
