package kofi

import "reflect"

// MergeStrategy controls how two object values combine.
type MergeStrategy string

const (
	// MergeDeep merges object entries recursively.
	MergeDeep MergeStrategy = "deep"
	// MergeReplace lets the overlay value replace the base value.
	MergeReplace MergeStrategy = "replace"
)

// ListStrategy controls how two array values combine under MergeDeep.
type ListStrategy string

const (
	ListAppend  ListStrategy = "append"
	ListUnique  ListStrategy = "unique"
	ListReplace ListStrategy = "replace"
)

// MergeOptions configures Overlay.
type MergeOptions struct {
	Strategy MergeStrategy
	Lists    ListStrategy
}

// DefaultMergeOptions returns deep merging with appended arrays.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{
		Strategy: MergeDeep,
		Lists:    ListAppend,
	}
}

// Overlay layers top over base and returns the result; neither input is
// modified. Properties of top replace or merge into the property with the
// same key in the same section of base, new properties are added to their
// section, and sections missing from base are appended together with
// their attached comments.
func Overlay(base, top *Document, opts MergeOptions) *Document {
	result := NewDocument(base.elements...)

	section := ""
	var pending []Element
	for _, el := range top.elements {
		switch e := el.(type) {
		case Comment:
			pending = append(pending, e)
			continue
		case Section:
			section = e.Name
			if !result.HasSection(section) {
				result.AddSection(section)
				head := result.indexSection(section)
				result.Insert(head, pending...)
			}
		case Property:
			if old, ok := result.Get(section, e.Key); ok {
				result.Set(section, e.Key, mergeValues(old, e.Value, opts))
			} else {
				result.Set(section, e.Key, e.Value)
			}
		}
		pending = nil
	}
	return result
}

// mergeValues merges two values according to the options.
func mergeValues(base, overlay Value, opts MergeOptions) Value {
	if opts.Strategy != MergeDeep {
		return overlay
	}

	baseObj, baseIsObj := base.(*Object)
	overlayObj, overlayIsObj := overlay.(*Object)
	if baseIsObj && overlayIsObj {
		entries := baseObj.Entries()
		for _, e := range overlayObj.entries {
			if existing, ok := baseObj.Get(e.Name); ok {
				e.Value = mergeValues(existing, e.Value, opts)
			}
			entries = append(entries, e)
		}
		return newObject(entries, baseObj.source)
	}

	baseArr, baseIsArr := base.(*Array)
	overlayArr, overlayIsArr := overlay.(*Array)
	if baseIsArr && overlayIsArr {
		switch opts.Lists {
		case ListAppend:
			return newArray(append(baseArr.Values(), overlayArr.values...), baseArr.source)
		case ListUnique:
			return uniqueArray(append(baseArr.Values(), overlayArr.values...), baseArr.source)
		}
	}

	return overlay
}

// uniqueArray keeps the first occurrence of every value.
func uniqueArray(values []Value, source reflect.Type) *Array {
	seen := make(map[uint64][]Value)
	out := values[:0]
	for _, v := range values {
		dup := false
		for _, s := range seen[v.Hash()] {
			if s.Equal(v) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[v.Hash()] = append(seen[v.Hash()], v)
		out = append(out, v)
	}
	return newArray(out, source)
}
