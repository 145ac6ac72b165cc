package tm

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/format"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildAndQueryParallelFiles(t *testing.T) {
	dir := t.TempDir()
	en := writeFile(t, dir, "en.txt", "hello world\nhello there\ngoodbye world\n")
	es := writeFile(t, dir, "es.txt", "hola mundo\nhola alla\nadios mundo\n")
	queries := writeFile(t, dir, "q.txt", "hello world\nnothing\n")
	store := filepath.Join(dir, "store")
	cfg := config.Default()

	n, err := BuildIndex(context.Background(), cfg, store, "tm", en, []string{es}, ingestion.StopAtShortest)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if n != 3 {
		t.Errorf("BuildIndex indexed %d; want 3", n)
	}

	var out bytes.Buffer
	opts := QueryOptions{
		Search: executor.Options{TopK: 2},
		Format: format.Options{EchoQuery: true, EchoMatch: true},
	}
	count, err := Query(context.Background(), cfg, []string{store}, queries, opts, &out)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if count != 2 {
		t.Errorf("Query answered %d; want 2", count)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("output lines = %q", lines)
	}
	fields := strings.Split(lines[0], "\t")
	if fields[0] != "hello world" || !strings.HasPrefix(fields[1], "tm:1:") || fields[3] != "hola mundo" || !strings.HasPrefix(fields[4], "tm:2:") {
		t.Errorf("first record = %q", lines[0])
	}
	if lines[1] != "nothing" {
		t.Errorf("second record = %q; want only the echoed query", lines[1])
	}
}

func TestBuildFromSpecsMultipleNames(t *testing.T) {
	dir := t.TempDir()
	legal := writeFile(t, dir, "legal.txt", "the contract\nthe court\n")
	medical := writeFile(t, dir, "medical.txt", "the patient\n")
	store := filepath.Join(dir, "store")
	inputs := []Input{
		{Spec: ingestion.FileSpec{Name: "legal", Source: legal}},
		{Spec: ingestion.FileSpec{Name: "medical", Source: medical}},
	}
	n, err := BuildFromSpecs(context.Background(), config.Default(), store, inputs, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildFromSpecs: %v", err)
	}
	if n != 3 {
		t.Errorf("indexed %d; want 3", n)
	}
	r, err := segment.Open(store)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "legal,medical" {
		t.Errorf("store name = %q", r.Name())
	}
	if doc, _ := r.Doc(2); doc.Name != "medical" || doc.Position != 1 {
		t.Errorf("third doc = %+v; want medical:1", doc)
	}
}

func TestBuildFromSpecsRepeatedName(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "hello world\nhello there\n")
	b := writeFile(t, dir, "b.txt", "goodbye world\n")
	store := filepath.Join(dir, "store")
	inputs := []Input{
		{Spec: ingestion.FileSpec{Name: "tm", Source: a}},
		{Spec: ingestion.FileSpec{Name: "tm", Source: b}},
	}
	n, err := BuildFromSpecs(context.Background(), config.Default(), store, inputs, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildFromSpecs: %v", err)
	}
	if n != 3 {
		t.Errorf("indexed %d; want 3", n)
	}
	r, err := segment.Open(store)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Name() != "tm" {
		t.Errorf("store name = %q; want tm", r.Name())
	}
	if doc, _ := r.Doc(2); doc.Position != 1 || doc.Source != "goodbye world" {
		t.Errorf("third doc = %+v; want b.txt line 1", doc)
	}
}

func TestBuildTSVSkipMalformed(t *testing.T) {
	dir := t.TempDir()
	tsv := writeFile(t, dir, "tm.tsv", "hello world\thola mundo\nbroken line\ngoodbye world\tadios mundo\n")
	store := filepath.Join(dir, "store")
	inputs := []Input{{Spec: ingestion.FileSpec{Name: "tm", Source: tsv}, TSV: true}}

	_, err := BuildFromSpecs(context.Background(), config.Default(), store, inputs, BuildOptions{})
	if !errors.Is(err, apperrors.ErrInputFormat) {
		t.Fatalf("strict TSV build = %v; want input format error", err)
	}
	if line, _, ok := apperrors.RecordOf(err); !ok || line != 2 {
		t.Errorf("error should name line 2, got %d (%v)", line, err)
	}
	if segment.IsSealed(store) {
		t.Error("failed build sealed a store")
	}

	n, err := BuildFromSpecs(context.Background(), config.Default(), store, inputs, BuildOptions{SkipMalformed: true})
	if err != nil {
		t.Fatalf("lenient TSV build: %v", err)
	}
	if n != 2 {
		t.Errorf("indexed %d; want 2", n)
	}
}

func TestBuildRequireEqualFails(t *testing.T) {
	dir := t.TempDir()
	en := writeFile(t, dir, "en.txt", "a\nb\n")
	fr := writeFile(t, dir, "fr.txt", "a\n")
	store := filepath.Join(dir, "store")
	_, err := BuildIndex(context.Background(), config.Default(), store, "tm", en, []string{fr}, ingestion.RequireEqual)
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Fatalf("BuildIndex = %v; want configuration error", err)
	}
	if segment.IsSealed(store) {
		t.Error("failed build sealed a store")
	}
}

func TestQueryErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	queries := writeFile(t, dir, "q.txt", "x\n")
	var out bytes.Buffer

	_, err := Query(context.Background(), cfg, []string{filepath.Join(dir, "absent")}, queries, QueryOptions{Search: executor.DefaultOptions()}, &out)
	if !errors.Is(err, apperrors.ErrFileAccess) {
		t.Errorf("missing store: %v; want file access error", err)
	}
	_, err = Query(context.Background(), cfg, []string{dir}, filepath.Join(dir, "none.txt"), QueryOptions{Search: executor.DefaultOptions()}, &out)
	if !errors.Is(err, apperrors.ErrFileAccess) {
		t.Errorf("missing query file: %v; want file access error", err)
	}
	_, err = Query(context.Background(), cfg, []string{dir}, queries, QueryOptions{Search: executor.Options{TopK: 0}}, &out)
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("topK 0: %v; want configuration error", err)
	}
	_, err = Query(context.Background(), cfg, nil, queries, QueryOptions{Search: executor.DefaultOptions()}, &out)
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("no stores: %v; want configuration error", err)
	}
}

func TestQueryUnsealedStore(t *testing.T) {
	dir := t.TempDir()
	queries := writeFile(t, dir, "q.txt", "x\n")
	unsealed := filepath.Join(dir, "partial")
	if err := os.MkdirAll(unsealed, 0o755); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	_, err := Query(context.Background(), config.Default(), []string{unsealed}, queries, QueryOptions{Search: executor.DefaultOptions()}, &out)
	if !errors.Is(err, apperrors.ErrIndexCorrupt) {
		t.Errorf("unsealed store: %v; want index corrupt error", err)
	}
}

func TestBuildSplit(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "hello world\n")
	b := writeFile(t, dir, "b.txt", "hola mundo\nadios mundo\n")
	cfg := config.Default()
	cfg.Indexer.Parallelism = 2
	parent := filepath.Join(dir, "stores")

	results, err := BuildSplit(context.Background(), cfg, parent, []Input{
		{Spec: ingestion.FileSpec{Name: "en", Source: a}},
		{Spec: ingestion.FileSpec{Name: "es", Source: b}},
	}, BuildOptions{})
	if err != nil {
		t.Fatalf("BuildSplit: %v", err)
	}
	if len(results) != 2 || results[0].Name != "en" || results[0].Docs != 1 || results[1].Docs != 2 {
		t.Fatalf("results = %+v", results)
	}
	if !segment.IsSealed(filepath.Join(parent, "es")) {
		t.Error("es store not sealed")
	}
}

func TestBuildSplitRejectsPathNames(t *testing.T) {
	for _, name := range []string{"..", "a/b", "."} {
		_, err := BuildSplit(context.Background(), config.Default(), t.TempDir(), []Input{
			{Spec: ingestion.FileSpec{Name: name, Source: "x.txt"}},
		}, BuildOptions{})
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("BuildSplit(%q) = %v; want configuration error", name, err)
		}
	}
}
