// Package format renders search results as the line-oriented text records
// written by the query tool.
package format

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
)

// Options select the optional columns of a record.
type Options struct {
	// NumberQueries prefixes each record with q=N, N counting from 1.
	NumberQueries bool
	EchoQuery     bool
	EchoMatch     bool
}

// Score renders a score with fixed precision.
func Score(s float64) string {
	return strconv.FormatFloat(s, 'f', 6, 64)
}

// Record renders one tab-separated record without the trailing newline.
func Record(n int, query string, hits []executor.Hit, opts Options) string {
	fields := make([]string, 0, 2+3*len(hits))
	if opts.NumberQueries {
		fields = append(fields, "q="+strconv.Itoa(n))
	}
	if opts.EchoQuery {
		fields = append(fields, query)
	}
	for _, h := range hits {
		fields = append(fields, h.Store+":"+strconv.Itoa(h.Position)+":"+Score(h.Score))
		if opts.EchoMatch {
			fields = append(fields, h.Source, h.Target)
		}
	}
	return strings.Join(fields, "\t")
}

// Writer writes numbered records to an underlying writer.
type Writer struct {
	w    *bufio.Writer
	opts Options
	n    int
}

func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: bufio.NewWriter(w), opts: opts}
}

func (w *Writer) Write(query string, hits []executor.Hit) error {
	w.n++
	if _, err := w.w.WriteString(Record(w.n, query, hits, w.opts)); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.n
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}
