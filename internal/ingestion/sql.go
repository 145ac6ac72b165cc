package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// SQLRows streams documents from a query returning one to three columns:
// source, then optionally target and sub-corpus name. Positions follow row
// order, starting at 1.
type SQLRows struct {
	name string
	rows *sql.Rows
	cols int
	pos  int
}

func QueryRows(ctx context.Context, db *sql.DB, query string, name string) (*SQLRows, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "running ingestion query: %v", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading ingestion query columns: %w", err)
	}
	if len(cols) < 1 || len(cols) > 3 {
		rows.Close()
		return nil, apperrors.Newf(apperrors.ErrConfiguration,
			"ingestion query must return 1 to 3 columns (source[, target[, name]]), got %d", len(cols))
	}
	return &SQLRows{name: name, rows: rows, cols: len(cols)}, nil
}

func (s *SQLRows) Next(ctx context.Context) (DocumentSpec, error) {
	if err := ctx.Err(); err != nil {
		return DocumentSpec{}, err
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return DocumentSpec{}, apperrors.Newf(apperrors.ErrFileAccess, "reading row %d: %v", s.pos+1, err)
		}
		return DocumentSpec{}, io.EOF
	}
	var source, target, name sql.NullString
	dest := []any{&source, &target, &name}[:s.cols]
	if err := s.rows.Scan(dest...); err != nil {
		return DocumentSpec{}, fmt.Errorf("scanning row %d: %w", s.pos+1, err)
	}
	s.pos++
	if !source.Valid {
		return DocumentSpec{}, apperrors.NewRecord(apperrors.ErrInputFormat, s.pos, "",
			"source column is NULL")
	}
	doc := DocumentSpec{
		Name:     s.name,
		Source:   source.String,
		Target:   target.String,
		Position: s.pos,
	}
	if name.Valid && name.String != "" {
		doc.Name = name.String
	}
	return doc, nil
}

func (s *SQLRows) Close() error {
	return s.rows.Close()
}
