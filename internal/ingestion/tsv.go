package ingestion

import (
	"context"
	"io"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

const tsvFields = 2

// TabSeparated reads one "source<TAB>target" record per line. A line with a
// different field count is reported as an input format error carrying the
// line number and content; the following line can still be read.
type TabSeparated struct {
	name   string
	reader *lineReader
}

func OpenTabSeparated(name, path string) (*TabSeparated, error) {
	r, err := openLines(path)
	if err != nil {
		return nil, err
	}
	return &TabSeparated{name: name, reader: r}, nil
}

func (ts *TabSeparated) Next(ctx context.Context) (DocumentSpec, error) {
	if err := ctx.Err(); err != nil {
		return DocumentSpec{}, err
	}
	line, ok, err := ts.reader.next()
	if err != nil {
		return DocumentSpec{}, err
	}
	if !ok {
		return DocumentSpec{}, io.EOF
	}
	fields := strings.Split(line, "\t")
	if len(fields) != tsvFields {
		return DocumentSpec{}, apperrors.NewRecord(apperrors.ErrInputFormat, ts.reader.line, line,
			"%s: expected %d tab-separated fields, got %d", ts.reader.path, tsvFields, len(fields))
	}
	return DocumentSpec{
		Name:     ts.name,
		Source:   fields[0],
		Target:   fields[1],
		Position: ts.reader.line,
	}, nil
}

func (ts *TabSeparated) Close() error {
	return ts.reader.close()
}
