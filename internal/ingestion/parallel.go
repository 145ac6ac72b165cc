package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// ParallelFiles reads a source file and any number of aligned auxiliary
// files pairwise by line number. Line n of the source becomes the Source of
// the document at Position n; line n of every auxiliary file is joined into
// its Target.
type ParallelFiles struct {
	name    string
	readers []*lineReader
	policy  LineCountPolicy
	line    int
	done    bool
	logger  *slog.Logger
}

// OpenParallelFiles opens sourceFile and auxFiles. On error every file
// already opened is closed again.
func OpenParallelFiles(name, sourceFile string, auxFiles []string, policy LineCountPolicy) (*ParallelFiles, error) {
	pf := &ParallelFiles{
		name:   name,
		policy: policy,
		logger: slog.Default().With("component", "ingestion", "tm", name),
	}
	for _, path := range append([]string{sourceFile}, auxFiles...) {
		r, err := openLines(path)
		if err != nil {
			pf.Close()
			return nil, err
		}
		pf.readers = append(pf.readers, r)
	}
	return pf, nil
}

func (pf *ParallelFiles) Next(ctx context.Context) (DocumentSpec, error) {
	if pf.done {
		return DocumentSpec{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return DocumentSpec{}, err
	}
	lines := make([]string, len(pf.readers))
	var exhausted, available []string
	for i, r := range pf.readers {
		line, ok, err := r.next()
		if err != nil {
			pf.done = true
			return DocumentSpec{}, err
		}
		if !ok {
			exhausted = append(exhausted, r.path)
			continue
		}
		available = append(available, r.path)
		lines[i] = line
	}
	if len(exhausted) == 0 {
		pf.line++
		return DocumentSpec{
			Name:     pf.name,
			Source:   lines[0],
			Target:   JoinTarget(lines[1:]),
			Position: pf.line,
		}, nil
	}
	pf.done = true
	if len(available) == 0 {
		return DocumentSpec{}, io.EOF
	}
	if pf.policy == RequireEqual {
		return DocumentSpec{}, apperrors.Newf(apperrors.ErrConfiguration,
			"unequal line counts: %v ended after %d lines but %v continue", exhausted, pf.line, available)
	}
	pf.logger.Warn("parallel files have unequal line counts, stopping at shortest",
		"lines", pf.line,
		"exhausted", exhausted,
	)
	return DocumentSpec{}, io.EOF
}

// Lines returns the number of aligned lines read so far.
func (pf *ParallelFiles) Lines() int {
	return pf.line
}

func (pf *ParallelFiles) Close() error {
	var errs []error
	for _, r := range pf.readers {
		if err := r.close(); err != nil {
			errs = append(errs, err)
		}
	}
	pf.readers = nil
	return errors.Join(errs...)
}
