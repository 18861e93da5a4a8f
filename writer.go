package kofi

import (
	"bufio"
	"io"
	"strings"
)

// Writer renders elements as KoFi text, one element per line.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteElement writes one element followed by a newline.
func (w *Writer) WriteElement(e Element) error {
	if _, err := w.w.WriteString(e.String()); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// WriteDocument writes every element of d and flushes.
func (w *Writer) WriteDocument(d *Document) error {
	for _, e := range d.elements {
		if err := w.WriteElement(e); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Render returns the text of elems, each line terminated by a newline.
func Render(elems ...Element) string {
	var sb strings.Builder
	for _, e := range elems {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the whole document.
func (d *Document) String() string {
	return Render(d.elements...)
}

// WriteTo implements io.WriterTo.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}
