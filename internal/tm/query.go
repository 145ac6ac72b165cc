package tm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/format"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
)

// StdinQueryFile makes Query read queries from standard input.
const StdinQueryFile = "-"

const maxQueryLine = 1024 * 1024

type QueryOptions struct {
	Search  executor.Options
	Format  format.Options
	Metrics *metrics.Metrics
}

// OpenSearcher loads the given stores with the configured scoring
// parameters.
func OpenSearcher(ctx context.Context, cfg *config.Config, storeDirs []string, m *metrics.Metrics) (*executor.Searcher, error) {
	if len(storeDirs) == 0 {
		return nil, apperrors.New(apperrors.ErrConfiguration, "no store directories given")
	}
	return executor.Open(ctx, storeDirs, executor.ParamsFromConfig(cfg.Search), m)
}

// Query answers every line of queryFile against the stores and writes one
// record per line to w. It returns the number of queries answered.
func Query(ctx context.Context, cfg *config.Config, storeDirs []string, queryFile string, opts QueryOptions, w io.Writer) (int, error) {
	if err := opts.Search.Validate(); err != nil {
		return 0, err
	}
	var r io.Reader = os.Stdin
	if queryFile != StdinQueryFile {
		f, err := os.Open(queryFile)
		if err != nil {
			return 0, apperrors.Newf(apperrors.ErrFileAccess, "opening query file: %v", err)
		}
		defer f.Close()
		r = f
	}

	searcher, err := OpenSearcher(ctx, cfg, storeDirs, opts.Metrics)
	if err != nil {
		return 0, err
	}
	defer searcher.Close()
	return QueryReader(ctx, searcher, r, opts, w)
}

// QueryReader answers every line read from r.
func QueryReader(ctx context.Context, searcher *executor.Searcher, r io.Reader, opts QueryOptions, w io.Writer) (int, error) {
	logger := slog.Default().With("component", "tm-query")
	start := time.Now()
	out := format.NewWriter(w, opts.Format)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxQueryLine)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		hits, err := searcher.Search(ctx, line, opts.Search)
		if err != nil {
			out.Flush()
			return out.Count(), fmt.Errorf("query %d: %w", out.Count()+1, err)
		}
		if err := out.Write(line, hits); err != nil {
			return out.Count(), apperrors.Newf(apperrors.ErrFileAccess, "writing results: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		out.Flush()
		return out.Count(), apperrors.Newf(apperrors.ErrFileAccess, "reading queries: %v", err)
	}
	if err := out.Flush(); err != nil {
		return out.Count(), apperrors.Newf(apperrors.ErrFileAccess, "writing results: %v", err)
	}
	logger.Info("queries answered",
		"queries", out.Count(),
		"stores", searcher.Stores(),
		"elapsed", time.Since(start),
	)
	return out.Count(), nil
}
