package ingestion

import (
	"context"
	"errors"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// Skipping wraps a Source and drops records that fail with an input format
// error, reporting each one to OnSkip. Any other error is returned as is.
type Skipping struct {
	src     Source
	onSkip  func(error)
	skipped int
}

func SkipMalformed(src Source, onSkip func(error)) *Skipping {
	return &Skipping{src: src, onSkip: onSkip}
}

func (s *Skipping) Next(ctx context.Context) (DocumentSpec, error) {
	for {
		doc, err := s.src.Next(ctx)
		if err == nil || !errors.Is(err, apperrors.ErrInputFormat) {
			return doc, err
		}
		s.skipped++
		if s.onSkip != nil {
			s.onSkip(err)
		}
	}
}

// Skipped returns the number of records dropped so far.
func (s *Skipping) Skipped() int {
	return s.skipped
}

func (s *Skipping) Close() error {
	return s.src.Close()
}
