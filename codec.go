package kofi

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/errs/v2"
)

// Error is the class of file codec errors.
var Error = errs.Tag("kofi")

// Codec reads and writes documents in one file encoding.
type Codec interface {
	Read(r io.Reader) (*Document, error)
	Write(w io.Writer, d *Document) error
}

// TextCodec is plain KoFi text.
type TextCodec struct {
	Parser *Parser
}

func (c TextCodec) parser() *Parser {
	if c.Parser == nil {
		return NewParser()
	}
	return c.Parser
}

func (c TextCodec) Read(r io.Reader) (*Document, error) {
	return c.parser().ParseDocument(r)
}

func (c TextCodec) Write(w io.Writer, d *Document) error {
	return NewWriter(w).WriteDocument(d)
}

// GzipCodec is gzip-compressed KoFi text.
type GzipCodec struct {
	Text TextCodec
}

func (c GzipCodec) Read(r io.Reader) (*Document, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, Error.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	return c.Text.Read(zr)
}

func (c GzipCodec) Write(w io.Writer, d *Document) error {
	zw := gzip.NewWriter(w)
	if err := c.Text.Write(zw, d); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ZstdCodec is zstd-compressed KoFi text.
type ZstdCodec struct {
	Text TextCodec
}

func (c ZstdCodec) Read(r io.Reader) (*Document, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, Error.Errorf("open zstd stream: %w", err)
	}
	defer zr.Close()
	return c.Text.Read(zr)
}

func (c ZstdCodec) Write(w io.Writer, d *Document) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return Error.Errorf("open zstd writer: %w", err)
	}
	if err := c.Text.Write(zw, d); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Registry maps file name suffixes to codecs. The longest matching suffix
// wins, so ".kofi.gz" takes precedence over ".gz".
type Registry struct {
	codecs   map[string]Codec
	suffixes []string
}

// NewRegistry returns a registry with the built-in codecs for ".kofi",
// ".kofi.gz" and ".kofi.zst", all parsing with p.
func NewRegistry(p *Parser) *Registry {
	text := TextCodec{Parser: p}
	r := &Registry{codecs: make(map[string]Codec)}
	r.Register(".kofi", text)
	r.Register(".kofi.gz", GzipCodec{Text: text})
	r.Register(".kofi.zst", ZstdCodec{Text: text})
	return r
}

// Register adds or replaces the codec for a suffix.
func (r *Registry) Register(suffix string, c Codec) {
	suffix = strings.ToLower(suffix)
	if _, exists := r.codecs[suffix]; !exists {
		r.suffixes = append(r.suffixes, suffix)
		sort.Slice(r.suffixes, func(i, j int) bool {
			return len(r.suffixes[i]) > len(r.suffixes[j])
		})
	}
	r.codecs[suffix] = c
}

// Lookup returns the codec for a file name.
func (r *Registry) Lookup(path string) (Codec, error) {
	lower := strings.ToLower(path)
	for _, s := range r.suffixes {
		if strings.HasSuffix(lower, s) {
			return r.codecs[s], nil
		}
	}
	return nil, Error.Errorf("no codec registered for %q", path)
}

// ReadFile reads and parses the document stored at path.
func (r *Registry) ReadFile(path string) (*Document, error) {
	c, err := r.Lookup(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer f.Close()

	doc, err := c.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile renders d to path, replacing any existing file.
func (r *Registry) WriteFile(path string, d *Document) (err error) {
	c, err := r.Lookup(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = Error.Wrap(cerr)
		}
	}()
	if err := c.Write(f, d); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
