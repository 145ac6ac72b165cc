// Package indexer builds sealed translation-memory stores. A Builder drains
// an ingestion.Source into an in-memory index and seals it with the segment
// writer; independent stores can be built concurrently with BuildAll.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
)

const progressEvery = 100000

// Builder turns document streams into sealed stores.
type Builder struct {
	writer      *segment.Writer
	metrics     *metrics.Metrics
	parallelism int
	logger      *slog.Logger
}

// NewBuilder creates a Builder. A nil m records into unregistered collectors.
func NewBuilder(cfg config.IndexerConfig, m *metrics.Metrics) *Builder {
	if m == nil {
		m = metrics.New(nil)
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		writer:      segment.NewWriter(),
		metrics:     m,
		parallelism: parallelism,
		logger:      slog.Default().With("component", "indexer"),
	}
}

// Build reads src to the end and seals the result at storePath, replacing
// any store already there. Documents without a name are stored under name.
// Positions must increase within each run of documents sharing a name and,
// for an ingestion.MultiSource, within each of its inputs.
// The first error aborts the build and leaves the previous store untouched.
// Build does not close src.
func (b *Builder) Build(ctx context.Context, storePath, name string, src ingestion.Source) (int, error) {
	start := time.Now()
	manifest, err := b.build(ctx, storePath, name, src)
	b.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		b.metrics.StoresBuiltTotal.WithLabelValues("error").Inc()
		b.logger.Error("store build failed",
			"store", storePath,
			"name", name,
			"error", err,
		)
		return 0, err
	}
	b.metrics.StoresBuiltTotal.WithLabelValues("ok").Inc()
	b.logger.Info("store built",
		"store", storePath,
		"name", name,
		"docs", manifest.DocCount,
		"terms", manifest.TermCount,
		"elapsed", time.Since(start),
	)
	return manifest.DocCount, nil
}

func (b *Builder) build(ctx context.Context, storePath, name string, src ingestion.Source) (*segment.Manifest, error) {
	memIndex := index.NewMemoryIndex()
	var seq validator.Sequence
	multi, _ := src.(ingestion.MultiSource)
	lastName, lastInput := "", -1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading input for %s: %w", storePath, err)
		}
		input := lastInput
		if multi != nil {
			input = multi.Input()
		}
		if doc.Name != lastName || input != lastInput {
			seq.Reset()
			lastName, lastInput = doc.Name, input
		}
		if err := seq.Validate(doc); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", storePath, err)
		}
		if doc.Name == "" {
			doc.Name = name
		}
		memIndex.AddDocument(doc)
		b.metrics.DocsIndexedTotal.Inc()
		if n := memIndex.DocCount(); n%progressEvery == 0 {
			b.logger.Info("indexing progress",
				"store", storePath,
				"docs", n,
				"terms", memIndex.Terms(),
				"mem_size", memIndex.Size(),
			)
		}
	}

	manifest, err := b.writer.Write(storePath, memIndex.Snapshot(), memIndex.Documents(), segment.Meta{
		Name:        name,
		TotalTokens: memIndex.TotalTokens(),
	})
	if err != nil {
		return nil, fmt.Errorf("sealing %s: %w", storePath, err)
	}
	return manifest, nil
}

// Job describes one store to build. Open is called from the worker that
// builds the store, and the returned Source is closed when it finishes.
type Job struct {
	Path string
	Name string
	Open func() (ingestion.Source, error)
}

type Result struct {
	Path string
	Name string
	Docs int
}

// BuildAll builds every job with at most the configured number running at
// once. It stops launching new builds after the first failure and returns
// that error; stores that completed before it stay sealed.
func (b *Builder) BuildAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for i, job := range jobs {
		g.Go(func() error {
			src, err := job.Open()
			if err != nil {
				return fmt.Errorf("opening input for %s: %w", job.Path, err)
			}
			defer func() {
				if err := src.Close(); err != nil {
					b.logger.Warn("closing input", "store", job.Path, "error", err)
				}
			}()
			n, err := b.Build(gctx, job.Path, job.Name, src)
			if err != nil {
				return err
			}
			results[i] = Result{Path: job.Path, Name: job.Name, Docs: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
