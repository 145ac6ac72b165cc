// Package worker answers translation-memory queries arriving on a Kafka
// topic and publishes the hits to a results topic.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/tracing"
)

// RequestIDHeader carries the request id on both topics.
const RequestIDHeader = "request_id"

// QueryRequest is the payload on the queries topic. Nil Options means the
// configured defaults.
type QueryRequest struct {
	ID      string            `json:"id,omitempty"`
	Line    string            `json:"line"`
	Options *executor.Options `json:"options,omitempty"`
}

// QueryResponse is the payload on the results topic. Exactly one of Hits
// and Error is meaningful.
type QueryResponse struct {
	ID     string         `json:"id"`
	Hits   []executor.Hit `json:"hits"`
	Cached bool           `json:"cached,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type Searcher interface {
	Search(ctx context.Context, line string, opts executor.Options) ([]executor.Hit, error)
	ContentKey() string
}

type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Worker struct {
	searcher  Searcher
	cache     *cache.QueryCache
	publisher Publisher
	defaults  executor.Options
	timeout   time.Duration
	retry     resilience.RetryConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
	newID     func() string
}

// New builds a worker. A nil qc answers every query from the stores.
func New(s Searcher, qc *cache.QueryCache, p Publisher, cfg *config.Config, m *metrics.Metrics) *Worker {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Worker{
		searcher:  s,
		cache:     qc,
		publisher: p,
		defaults:  executor.OptionsFromConfig(cfg.Search),
		timeout:   cfg.Worker.QueryTimeout,
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.Worker.PublishAttempts,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		metrics: m,
		logger:  slog.Default().With("component", "query-worker"),
		newID:   uuid.NewString,
	}
}

// Handle is a kafka.MessageHandler. Undecodable messages are dropped so
// they do not block the partition; a failed publish is returned so the
// offset stays uncommitted.
func (w *Worker) Handle(ctx context.Context, msg kafka.Message) error {
	req, err := kafka.DecodeJSON[QueryRequest](msg.Value)
	if err != nil {
		w.metrics.WorkerMessages.WithLabelValues("decode_error").Inc()
		w.logger.Warn("dropping undecodable query", "error", err, "size", len(msg.Value))
		return nil
	}
	if req.ID == "" {
		req.ID = msg.Headers[RequestIDHeader]
	}
	if req.ID == "" {
		req.ID = w.newID()
	}
	ctx = logger.WithRequestID(ctx, req.ID)
	ctx, span := tracing.StartSpan(ctx, "query", req.ID)
	defer func() {
		span.End()
		span.Log(logger.FromContext(ctx))
	}()

	resp := w.answer(ctx, req)
	status := "ok"
	if resp.Error != "" {
		status = "search_error"
	}
	span.SetAttr("hits", len(resp.Hits))
	span.SetAttr("cached", resp.Cached)

	err = tracing.Trace(ctx, "publish", func(ctx context.Context) error {
		return resilience.Retry(ctx, "publish-result", w.retry, func(ctx context.Context) error {
			return w.publisher.Publish(ctx, kafka.Event{
				Key:     req.ID,
				Value:   resp,
				Headers: map[string]string{RequestIDHeader: req.ID},
			})
		})
	})
	if err != nil {
		w.metrics.WorkerMessages.WithLabelValues("publish_error").Inc()
		return fmt.Errorf("publishing result for %s: %w", req.ID, err)
	}
	w.metrics.WorkerMessages.WithLabelValues(status).Inc()
	return nil
}

func (w *Worker) answer(ctx context.Context, req QueryRequest) QueryResponse {
	log := logger.FromContext(ctx)
	opts := w.defaults
	if req.Options != nil {
		opts = *req.Options
	}
	resp := QueryResponse{ID: req.ID, Hits: []executor.Hit{}}
	if err := opts.Validate(); err != nil {
		resp.Error = err.Error()
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	err := tracing.Trace(ctx, "search", func(ctx context.Context) error {
		search := func() ([]executor.Hit, error) {
			return w.searcher.Search(ctx, req.Line, opts)
		}
		if w.cache == nil {
			hits, err := search()
			if err == nil {
				resp.Hits = hits
			}
			return err
		}
		hits, cached, err := w.cache.GetOrCompute(ctx, w.searcher.ContentKey(), req.Line, opts, search)
		if err == nil {
			resp.Hits, resp.Cached = hits, cached
		}
		return err
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("query timed out after %v: %w", w.timeout, err)
		}
		log.Error("query failed", "error", err)
		resp.Hits = []executor.Hit{}
		resp.Error = err.Error()
		return resp
	}
	if resp.Hits == nil {
		resp.Hits = []executor.Hit{}
	}
	log.Debug("query answered", "hits", len(resp.Hits), "cached", resp.Cached)
	return resp
}
