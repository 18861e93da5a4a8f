package kofi

import (
	"fmt"
	"path/filepath"
)

// IncludeKey is the global property naming the files a document is layered
// over. Its value is a string or an array of strings.
const IncludeKey = "include"

// Loader reads documents and resolves their includes.
//
//	; service.kofi
//	include = [ "defaults.kofi", "region.kofi.gz" ]
//
//	[server]
//	port = 9090
//
// Included files are layered in order, each one over the previous, and the
// including document goes on top. Relative paths resolve against the
// directory of the including file.
type Loader struct {
	registry *Registry
	options  MergeOptions
	visited  map[string]bool
}

// NewLoader creates a Loader reading files through reg.
func NewLoader(reg *Registry) *Loader {
	return &Loader{
		registry: reg,
		options:  DefaultMergeOptions(),
		visited:  make(map[string]bool),
	}
}

// WithOptions sets how layers merge.
func (l *Loader) WithOptions(opts MergeOptions) *Loader {
	l.options = opts
	return l
}

// Load reads path and resolves its includes recursively.
func (l *Loader) Load(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, Error.Errorf("invalid path %q: %w", path, err)
	}
	if l.visited[absPath] {
		return nil, Error.Errorf("include cycle at %s", path)
	}
	l.visited[absPath] = true
	defer delete(l.visited, absPath)

	doc, err := l.registry.ReadFile(absPath)
	if err != nil {
		return nil, err
	}
	return l.Resolve(doc, filepath.Dir(absPath))
}

// Resolve layers doc over its includes, resolving relative paths against
// dir. A document without includes is returned as is.
func (l *Loader) Resolve(doc *Document, dir string) (*Document, error) {
	paths, err := includePaths(doc)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return doc, nil
	}

	var result *Document
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		layer, err := l.Load(p)
		if err != nil {
			return nil, fmt.Errorf("include %s: %w", p, err)
		}
		if result == nil {
			result = layer
			continue
		}
		result = Overlay(result, layer, l.options)
	}

	own := NewDocument(doc.elements...)
	own.Remove("", IncludeKey)
	return Overlay(result, own, l.options), nil
}

func includePaths(doc *Document) ([]string, error) {
	v, ok := doc.Get("", IncludeKey)
	if !ok {
		return nil, nil
	}
	switch x := v.(type) {
	case Null:
		return nil, nil
	case String:
		return []string{string(x)}, nil
	case *Array:
		paths := make([]string, 0, x.Len())
		for i, item := range x.values {
			s, ok := item.(String)
			if !ok {
				return nil, Error.Errorf("%s[%d]: want a string, got %s", IncludeKey, i, item.Kind())
			}
			paths = append(paths, string(s))
		}
		return paths, nil
	}
	return nil, Error.Errorf("%s: want a string or an array of strings, got %s", IncludeKey, v.Kind())
}
