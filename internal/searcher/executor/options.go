package executor

import (
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// Options control one multi-store search.
type Options struct {
	TopK              int     `json:"topK"`
	MinScore          float64 `json:"minScore"`
	FuzzyRescore      bool    `json:"fuzzyRescore"`
	ExcludeExactMatch bool    `json:"excludeExactMatch"`
	// Normalize divides each lexical score by its store's MaxScore for the
	// query before stores are merged. Off by default; raw scores are
	// compared across stores otherwise.
	Normalize    bool   `json:"normalize"`
	RestrictName string `json:"restrictName,omitempty"`
}

func DefaultOptions() Options {
	return Options{TopK: 1}
}

// OptionsFromConfig returns the configured default options.
func OptionsFromConfig(cfg config.SearchConfig) Options {
	return Options{
		TopK:              cfg.TopK,
		MinScore:          cfg.MinScore,
		FuzzyRescore:      cfg.FuzzyRescore,
		ExcludeExactMatch: cfg.ExcludeExactMatch,
		Normalize:         cfg.NormalizeScores,
	}
}

func ParamsFromConfig(cfg config.SearchConfig) ranker.Params {
	return ranker.Params{K1: cfg.BM25K1, B: cfg.BM25B}
}

func (o Options) Validate() error {
	if o.TopK < 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "topK must be >= 1, got %d", o.TopK)
	}
	return nil
}
