package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DocsIndexedTotal.Add(3)
	m.QueriesTotal.WithLabelValues("hit").Inc()

	if got := testutil.ToFloat64(m.DocsIndexedTotal); got != 3 {
		t.Errorf("tm_docs_indexed_total = %g; want 3", got)
	}
	n, err := testutil.GatherAndCount(reg, "tm_queries_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("tm_queries_total series = %d; want 1", n)
	}
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.CacheHitsTotal.Inc()
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("unregistered counter = %g; want 1", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OpenStores.Set(2)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tm_open_stores 2") {
		t.Errorf("scrape output missing tm_open_stores:\n%s", body)
	}
}

func TestWorkerAndBreakerCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.WorkerMessages.WithLabelValues("ok").Add(2)
	m.WorkerMessages.WithLabelValues("decode_error").Inc()
	m.CacheCircuitOpen.Set(1)

	if got := testutil.ToFloat64(m.WorkerMessages.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok messages = %g; want 2", got)
	}
	n, err := testutil.GatherAndCount(reg, "tm_worker_messages_total", "tm_cache_circuit_open")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 3 {
		t.Errorf("series = %d; want 3", n)
	}
}

func TestMuxServesExtraRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).OpenStores.Set(2)
	mux := newMux(reg, map[string]http.Handler{
		"GET /health/live": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "alive")
		}),
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for path, want := range map[string]string{
		"/metrics":     "tm_open_stores 2",
		"/health/live": "alive",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if !strings.Contains(string(body), want) {
			t.Errorf("GET %s = %q; want it to contain %q", path, body, want)
		}
	}
}
