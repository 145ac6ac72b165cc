// Command tmworker serves translation-memory queries from a Kafka topic and
// publishes the hits to a results topic, caching answers in Redis when it is
// reachable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/tm"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/worker"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Exit(os.Stderr, "tmworker", run(ctx, os.Args[1:]))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tmworker", flag.ContinueOnError)
	var stores cli.StringList
	configPath := fs.String("config", "", "path to YAML config file")
	fs.Var(&stores, "i", "store directory, or comma-separated list (repeatable); overrides worker.stores")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	dirs := cli.SplitDirs(stores)
	if len(dirs) == 0 {
		dirs = cli.SplitDirs(cfg.Worker.Stores)
	}
	if len(dirs) == 0 {
		return cli.Usage(fs, "no stores: pass -i or set worker.stores")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	searcher, err := tm.OpenSearcher(ctx, cfg, dirs, m)
	if err != nil {
		return err
	}
	defer searcher.Close()
	slog.Info("stores loaded", "stores", searcher.Stores())

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	checker := health.NewChecker()
	checker.Register("stores", func(context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d stores open", len(searcher.Stores()))}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		return health.Probe(redisClient.Ping, true)(ctx)
	})

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, map[string]http.Handler{
			"GET /health/live":  checker.LiveHandler(),
			"GET /health/ready": checker.ReadyHandler(),
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Results)
	defer producer.Close()
	w := worker.New(searcher, queryCache, producer, cfg, m)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Queries, w.Handle)
	defer consumer.Close()

	slog.Info("query worker ready",
		"queries_topic", cfg.Kafka.Topics.Queries,
		"results_topic", cfg.Kafka.Topics.Results,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	slog.Info("query worker stopped")
	return nil
}
