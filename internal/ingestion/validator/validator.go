// Package validator checks DocumentSpec records before they are indexed. It
// enforces the position ordering of one ingestion stream and rejects fields
// that cannot be represented in the line-oriented store format.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// ValidationError holds per-field validation failure messages for one
// record. It matches errors.ErrInputFormat.
type ValidationError struct {
	Position int
	Fields   map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return fmt.Sprintf("invalid document at position %d: %s", e.Position, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInputFormat
}

// Sequence validates the documents of one stream in order. The zero value
// is ready to use.
type Sequence struct {
	last int
}

// Validate checks doc against the stream seen so far.
func (s *Sequence) Validate(doc ingestion.DocumentSpec) error {
	errs := make(map[string]string)
	switch {
	case doc.Position < 1:
		errs["position"] = "position must be >= 1"
	case doc.Position <= s.last:
		errs["position"] = fmt.Sprintf("position %d does not follow %d", doc.Position, s.last)
	}
	if strings.ContainsAny(doc.Source, "\r\n") {
		errs["source"] = "source must be a single line"
	}
	if strings.ContainsAny(doc.Target, "\r\n") {
		errs["target"] = "target must be a single line"
	}
	if len(errs) > 0 {
		return &ValidationError{Position: doc.Position, Fields: errs}
	}
	s.last = doc.Position
	return nil
}

// Reset starts a new stream.
func (s *Sequence) Reset() {
	s.last = 0
}
