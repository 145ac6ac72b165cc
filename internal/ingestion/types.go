// Package ingestion turns translation-memory input files (and SQL rows) into
// a stream of DocumentSpec records. Every ingestion mode reduces to deciding
// the source text, the target text and an optional sub-corpus name; the
// indexer consumes the resulting stream uniformly.
package ingestion

import (
	"context"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// TargetSeparator joins parallel target fields into one stored string.
const TargetSeparator = "\t"

// DocumentSpec is one sentence record to index. Only Source is required.
type DocumentSpec struct {
	Name     string `json:"name,omitempty"`
	Source   string `json:"source"`
	Target   string `json:"target,omitempty"`
	Position int    `json:"position"`
}

// Source yields documents in input order. Next returns io.EOF once the
// input is exhausted; a record-level format error (wrapping
// errors.ErrInputFormat) leaves the source usable for the next record.
type Source interface {
	Next(ctx context.Context) (DocumentSpec, error)
	Close() error
}

// MultiSource concatenates several inputs. Input identifies the input the
// last document came from; position sequences restart when it changes.
type MultiSource interface {
	Source
	Input() int
}

// LineCountPolicy decides what happens when parallel files have different
// line counts.
type LineCountPolicy int

const (
	// StopAtShortest ends ingestion at the first exhausted file.
	StopAtShortest LineCountPolicy = iota
	// RequireEqual fails with a configuration error on unequal counts.
	RequireEqual
)

func (p LineCountPolicy) String() string {
	switch p {
	case RequireEqual:
		return "requireEqual"
	default:
		return "stopAtShortest"
	}
}

// ParsePolicy maps the configuration spelling of a policy to its value.
func ParsePolicy(s string) (LineCountPolicy, error) {
	switch s {
	case "", "stopAtShortest":
		return StopAtShortest, nil
	case "requireEqual":
		return RequireEqual, nil
	}
	return StopAtShortest, apperrors.Newf(apperrors.ErrConfiguration, "unknown line count policy %q", s)
}

// JoinTarget concatenates aligned target fields with TargetSeparator.
func JoinTarget(fields []string) string {
	return strings.Join(fields, TargetSeparator)
}
