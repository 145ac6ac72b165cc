package ingestion

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// FileSpec names a sub-corpus, the file whose lines are indexed and any
// parallel files whose aligned lines are stored as the target.
type FileSpec struct {
	Name   string
	Source string
	Aux    []string
}

// ParseFileSpec parses "NAME,FILE0[,FILE1]*".
func ParseFileSpec(arg string) (FileSpec, error) {
	parts := strings.Split(arg, ",")
	if len(parts) < 2 {
		return FileSpec{}, apperrors.Newf(apperrors.ErrConfiguration,
			"bad file spec %q: use at least 2 fields NAME,FILE0[,FILE1]*", arg)
	}
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return FileSpec{}, apperrors.Newf(apperrors.ErrConfiguration,
				"bad file spec %q: field %d is empty", arg, i+1)
		}
	}
	return FileSpec{
		Name:   parts[0],
		Source: parts[1],
		Aux:    parts[2:],
	}, nil
}

// ParseTSVSpec parses "NAME,FILE" for single tab-separated file ingestion.
func ParseTSVSpec(arg string) (FileSpec, error) {
	spec, err := ParseFileSpec(arg)
	if err != nil {
		return FileSpec{}, err
	}
	if len(spec.Aux) != 0 {
		return FileSpec{}, apperrors.Newf(apperrors.ErrConfiguration,
			"bad tab-separated spec %q: use NAME,FILE", arg)
	}
	return spec, nil
}
