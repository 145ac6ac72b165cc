// Package executor runs a query against a set of sealed stores: per-store
// retrieval and top-K collection in parallel, then merge, optional fuzzy
// rescoring and pruning.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/collector"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/fuzzy"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
)

// Store is a sealed store as seen by the searcher.
type Store interface {
	ranker.Store
	Name() string
	Close() error
}

// Hit is one search result. Store is the originating corpus name and
// Position the only identifier meant for callers. StoreIndex and DocID
// serve in-process ordering and are never serialized.
type Hit struct {
	Store      string  `json:"store"`
	StoreIndex int     `json:"-"`
	DocID      uint32  `json:"-"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	Target     string  `json:"target,omitempty"`
}

// Searcher is safe for concurrent use once constructed.
type Searcher struct {
	stores  []Store
	params  ranker.Params
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wraps already opened stores. Store order is the merge tie-breaker.
// A nil m records into unregistered collectors.
func New(stores []Store, params ranker.Params, m *metrics.Metrics) *Searcher {
	if m == nil {
		m = metrics.New(nil)
	}
	m.OpenStores.Add(float64(len(stores)))
	return &Searcher{
		stores:  stores,
		params:  params,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Open loads every store directory concurrently. If any store fails to
// open, the ones already loaded are closed and the first error returned.
func Open(ctx context.Context, dirs []string, params ranker.Params, m *metrics.Metrics) (*Searcher, error) {
	readers := make([]*segment.Reader, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := segment.Open(dir)
			if err != nil {
				return err
			}
			readers[i] = r
			return nil
		})
	}
	err := g.Wait()
	stores := make([]Store, 0, len(readers))
	for _, r := range readers {
		if r != nil {
			stores = append(stores, r)
		}
	}
	if err != nil {
		for _, s := range stores {
			s.Close()
		}
		return nil, err
	}
	return New(stores, params, m), nil
}

// Stores returns the store names in merge order.
func (s *Searcher) Stores() []string {
	names := make([]string, len(s.stores))
	for i, store := range s.stores {
		names[i] = store.Name()
	}
	return names
}

// ContentKey identifies the loaded stores and, where known, their
// content. It changes whenever a store is rebuilt from different input.
func (s *Searcher) ContentKey() string {
	parts := make([]string, len(s.stores))
	for i, store := range s.stores {
		parts[i] = store.Name()
		if f, ok := store.(interface{ Fingerprint() string }); ok {
			parts[i] += "@" + f.Fingerprint()
		}
	}
	return strings.Join(parts, ",")
}

func (s *Searcher) Close() error {
	var errs []error
	for _, store := range s.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store %s: %w", store.Name(), err))
		}
	}
	s.metrics.OpenStores.Sub(float64(len(s.stores)))
	s.stores = nil
	return errors.Join(errs...)
}

// Search answers one query line.
func (s *Searcher) Search(ctx context.Context, line string, opts Options) ([]Hit, error) {
	if err := opts.Validate(); err != nil {
		s.metrics.QueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	start := time.Now()
	plan := parser.Parse(line, opts.RestrictName)

	perStore := make([][]Hit, len(s.stores))
	if !plan.Empty() {
		g, gctx := errgroup.WithContext(ctx)
		for i, store := range s.stores {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				perStore[i] = s.searchStore(i, store, plan, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.metrics.QueriesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	var hits []Hit
	for _, storeHits := range perStore {
		hits = append(hits, storeHits...)
	}
	if opts.FuzzyRescore {
		fuzzy.Rerank(plan.Tokens, hits,
			func(h Hit) string { return h.Source },
			func(h *Hit, score float64) { h.Score = score },
		)
	}
	SortHits(hits)
	hits = Prune(hits, line, opts)

	s.metrics.QueryLatency.Observe(time.Since(start).Seconds())
	s.metrics.HitsReturned.Observe(float64(len(hits)))
	if len(hits) == 0 {
		s.metrics.QueriesTotal.WithLabelValues("zero_result").Inc()
	} else {
		s.metrics.QueriesTotal.WithLabelValues("hit").Inc()
	}
	logger.FromContext(ctx).With("component", "query-executor").Debug("query executed",
		"terms", plan.Terms,
		"stores", len(s.stores),
		"hits", len(hits),
		"elapsed", time.Since(start),
	)
	return hits, nil
}

// searchStore retrieves the top candidates of one store and resolves them
// to hits. Candidates that the final pruning would drop anyway are filtered
// before collection so they never take one of the TopK slots.
func (s *Searcher) searchStore(storeIndex int, store Store, plan *parser.QueryPlan, opts Options) []Hit {
	norm := 1.0
	if opts.Normalize {
		if maxScore := ranker.MaxScore(store, plan, s.params); maxScore > 0 {
			norm = maxScore
		}
	}

	top := collector.New(opts.TopK)
	ranker.Score(store, plan, s.params, func(d ranker.ScoredDoc) {
		if opts.ExcludeExactMatch {
			if doc, ok := store.Doc(d.DocID); ok && doc.Source == plan.RawQuery {
				return
			}
		}
		if !opts.FuzzyRescore && d.Score/norm < opts.MinScore {
			return
		}
		top.Collect(d)
	})
	docs := top.Results()
	if len(docs) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(docs))
	for _, d := range docs {
		doc, ok := store.Doc(d.DocID)
		if !ok {
			s.logger.Warn("posting references missing document", "store", store.Name(), "doc_id", d.DocID)
			continue
		}
		name := doc.Name
		if name == "" {
			name = store.Name()
		}
		hits = append(hits, Hit{
			Store:      name,
			StoreIndex: storeIndex,
			DocID:      d.DocID,
			Position:   doc.Position,
			Score:      d.Score / norm,
			Source:     doc.Source,
			Target:     doc.Target,
		})
	}
	return hits
}

// SortHits orders hits by score descending, then store order, then
// position, then doc id.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hitLess(hits[i], hits[j])
	})
}

func hitLess(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.StoreIndex != b.StoreIndex {
		return a.StoreIndex < b.StoreIndex
	}
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.DocID < b.DocID
}

// Prune applies, in order, exact-match exclusion, the score floor and the
// final truncation to TopK. hits must already be sorted.
func Prune(hits []Hit, line string, opts Options) []Hit {
	kept := hits[:0]
	for _, h := range hits {
		if opts.ExcludeExactMatch && h.Source == line {
			continue
		}
		if h.Score < opts.MinScore {
			continue
		}
		kept = append(kept, h)
	}
	if opts.TopK > 0 && len(kept) > opts.TopK {
		kept = kept[:opts.TopK]
	}
	return kept
}
