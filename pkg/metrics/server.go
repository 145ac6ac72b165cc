package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StartServer serves /metrics and any extra routes on port in the
// background. The returned function shuts the server down.
func StartServer(port int, g prometheus.Gatherer, routes map[string]http.Handler) (shutdown func(context.Context) error) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newMux(g, routes),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	logger := slog.Default().With("component", "metrics-server")
	go func() {
		logger.Info("metrics server listening", "addr", server.Addr, "extra_routes", len(routes))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return server.Shutdown
}

func newMux(g prometheus.Gatherer, routes map[string]http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler(g))
	for pattern, h := range routes {
		mux.Handle(pattern, h)
	}
	return mux
}
