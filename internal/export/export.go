// Package export provides sinks for streamed message exports.
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hal9000y/gmail-reader/internal/gservice"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("export: writer closed")

// JSONArrayWriter streams values as one indented JSON array. Nothing but the
// current value is buffered beyond the underlying bufio.Writer.
type JSONArrayWriter[T any] struct {
	w      *bufio.Writer
	n      int
	closed bool
}

func NewJSONArrayWriter[T any](w io.Writer) *JSONArrayWriter[T] {
	return &JSONArrayWriter[T]{w: bufio.NewWriter(w)}
}

// Write appends v to the array.
func (a *JSONArrayWriter[T]) Write(v T) error {
	if a.closed {
		return ErrClosed
	}

	data, err := json.MarshalIndent(v, "  ", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent failed: %w", err)
	}

	sep := ",\n  "
	if a.n == 0 {
		sep = "[\n  "
	}
	if _, err := a.w.WriteString(sep); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if _, err := a.w.Write(data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	a.n++

	return nil
}

// Count returns the number of values written.
func (a *JSONArrayWriter[T]) Count() int { return a.n }

// Close terminates the array and flushes. An empty export yields "[]". Close
// does not close the underlying writer.
func (a *JSONArrayWriter[T]) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	tail := "\n]\n"
	if a.n == 0 {
		tail = "[]\n"
	}
	if _, err := a.w.WriteString(tail); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}

	return nil
}

// Collector keeps up to Max values in memory. Once full it asks the producer
// to stop by returning gservice.ErrStopPagination.
type Collector[T any] struct {
	Max       int
	Items     []T
	Truncated bool
}

func (c *Collector[T]) Write(v T) error {
	if c.Max > 0 && len(c.Items) >= c.Max {
		c.Truncated = true
		return gservice.ErrStopPagination
	}
	c.Items = append(c.Items, v)
	return nil
}
