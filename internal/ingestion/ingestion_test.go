package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

func writeLines(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func drain(t *testing.T, src Source) ([]DocumentSpec, error) {
	t.Helper()
	var docs []DocumentSpec
	for {
		doc, err := src.Next(context.Background())
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}

func TestParallelFiles(t *testing.T) {
	dir := t.TempDir()
	en := writeLines(t, dir, "en.txt", "hello world", "goodbye world")
	fr := writeLines(t, dir, "fr.txt", "bonjour le monde", "au revoir le monde")
	es := writeLines(t, dir, "es.txt", "hola mundo", "adios mundo")

	pf, err := OpenParallelFiles("news", en, []string{fr, es}, RequireEqual)
	if err != nil {
		t.Fatalf("OpenParallelFiles: %v", err)
	}
	defer pf.Close()
	docs, err := drain(t, pf)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	want := []DocumentSpec{
		{Name: "news", Source: "hello world", Target: "bonjour le monde\thola mundo", Position: 1},
		{Name: "news", Source: "goodbye world", Target: "au revoir le monde\tadios mundo", Position: 2},
	}
	if !reflect.DeepEqual(docs, want) {
		t.Errorf("docs = %+v; want %+v", docs, want)
	}
	if pf.Lines() != 2 {
		t.Errorf("Lines() = %d; want 2", pf.Lines())
	}
}

func TestParallelFilesSourceOnly(t *testing.T) {
	dir := t.TempDir()
	en := writeLines(t, dir, "en.txt", "only source")
	pf, err := OpenParallelFiles("", en, nil, StopAtShortest)
	if err != nil {
		t.Fatalf("OpenParallelFiles: %v", err)
	}
	defer pf.Close()
	docs, err := drain(t, pf)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(docs) != 1 || docs[0].Target != "" || docs[0].Source != "only source" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestParallelFilesUnequalCounts(t *testing.T) {
	dir := t.TempDir()
	en := writeLines(t, dir, "en.txt", "a", "b", "c")
	fr := writeLines(t, dir, "fr.txt", "x", "y")

	t.Run("stop at shortest", func(t *testing.T) {
		pf, err := OpenParallelFiles("tm", en, []string{fr}, StopAtShortest)
		if err != nil {
			t.Fatalf("OpenParallelFiles: %v", err)
		}
		defer pf.Close()
		docs, err := drain(t, pf)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if len(docs) != 2 {
			t.Errorf("got %d docs; want 2", len(docs))
		}
	})

	t.Run("require equal", func(t *testing.T) {
		pf, err := OpenParallelFiles("tm", en, []string{fr}, RequireEqual)
		if err != nil {
			t.Fatalf("OpenParallelFiles: %v", err)
		}
		defer pf.Close()
		docs, err := drain(t, pf)
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Fatalf("drain error = %v; want configuration error", err)
		}
		if len(docs) != 2 {
			t.Errorf("got %d docs before the error; want 2", len(docs))
		}
	})
}

func TestParallelFilesMissingFile(t *testing.T) {
	dir := t.TempDir()
	en := writeLines(t, dir, "en.txt", "a")
	_, err := OpenParallelFiles("tm", en, []string{filepath.Join(dir, "missing.txt")}, StopAtShortest)
	if !errors.Is(err, apperrors.ErrFileAccess) {
		t.Fatalf("err = %v; want file access error", err)
	}
}

func TestParallelFilesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.txt")
	if err := os.WriteFile(path, []byte("first line\r\nsecond\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pf, err := OpenParallelFiles("tm", path, nil, StopAtShortest)
	if err != nil {
		t.Fatal(err)
	}
	defer pf.Close()
	docs, _ := drain(t, pf)
	if len(docs) != 2 || docs[0].Source != "first line" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestTabSeparated(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "tm.tsv",
		"hello world\thola mundo",
		"hello there\thola alla",
		"goodbye world\tadios mundo",
	)
	ts, err := OpenTabSeparated("tm", path)
	if err != nil {
		t.Fatalf("OpenTabSeparated: %v", err)
	}
	defer ts.Close()
	docs, err := drain(t, ts)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs; want 3", len(docs))
	}
	if docs[2] != (DocumentSpec{Name: "tm", Source: "goodbye world", Target: "adios mundo", Position: 3}) {
		t.Errorf("docs[2] = %+v", docs[2])
	}
}

func TestTabSeparatedFormatError(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "bad.tsv",
		"good\tbueno",
		"no tab here",
		"too\tmany\tfields",
		"fine\tbien",
	)

	t.Run("abort", func(t *testing.T) {
		ts, err := OpenTabSeparated("tm", path)
		if err != nil {
			t.Fatal(err)
		}
		defer ts.Close()
		_, err = drain(t, ts)
		if !errors.Is(err, apperrors.ErrInputFormat) {
			t.Fatalf("err = %v; want input format error", err)
		}
		line, content, ok := apperrors.RecordOf(err)
		if !ok || line != 2 || content != "no tab here" {
			t.Errorf("RecordOf = (%d, %q, %v); want (2, \"no tab here\", true)", line, content, ok)
		}
	})

	t.Run("skip", func(t *testing.T) {
		ts, err := OpenTabSeparated("tm", path)
		if err != nil {
			t.Fatal(err)
		}
		var skippedLines []int
		src := SkipMalformed(ts, func(err error) {
			line, _, _ := apperrors.RecordOf(err)
			skippedLines = append(skippedLines, line)
		})
		defer src.Close()
		docs, err := drain(t, src)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if len(docs) != 2 || docs[1].Position != 4 {
			t.Errorf("docs = %+v; want positions 1 and 4", docs)
		}
		if src.Skipped() != 2 || !reflect.DeepEqual(skippedLines, []int{2, 3}) {
			t.Errorf("skipped %d lines %v; want 2 lines [2 3]", src.Skipped(), skippedLines)
		}
	})
}

func TestParseFileSpec(t *testing.T) {
	spec, err := ParseFileSpec("europarl,en.txt,fr.txt,de.txt")
	if err != nil {
		t.Fatalf("ParseFileSpec: %v", err)
	}
	want := FileSpec{Name: "europarl", Source: "en.txt", Aux: []string{"fr.txt", "de.txt"}}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("spec = %+v; want %+v", spec, want)
	}
	for _, bad := range []string{"only-one", "", "name,"} {
		if _, err := ParseFileSpec(bad); !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("ParseFileSpec(%q) = %v; want configuration error", bad, err)
		}
	}
	if _, err := ParseTSVSpec("tm,a.tsv,b.tsv"); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("ParseTSVSpec with three fields = %v; want configuration error", err)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("requireEqual"); err != nil || p != RequireEqual {
		t.Errorf("ParsePolicy(requireEqual) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != StopAtShortest {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("whatever"); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("ParsePolicy(whatever) = %v; want configuration error", err)
	}
}

func TestQueryRowsSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "tm.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE pairs (id INTEGER PRIMARY KEY, src TEXT, tgt TEXT, corpus TEXT)`); err != nil {
		t.Fatalf("creating table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO pairs (src, tgt, corpus) VALUES
		('hello world', 'hola mundo', 'web'),
		('hello there', 'hola alla', NULL),
		(NULL, 'orphan', 'web')`); err != nil {
		t.Fatalf("inserting rows: %v", err)
	}

	ctx := context.Background()
	src, err := QueryRows(ctx, db, `SELECT src, tgt, corpus FROM pairs ORDER BY id`, "default")
	if err != nil {
		t.Fatalf("QueryRows: %v", err)
	}
	defer src.Close()

	first, err := src.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != (DocumentSpec{Name: "web", Source: "hello world", Target: "hola mundo", Position: 1}) {
		t.Errorf("first = %+v", first)
	}
	second, err := src.Next(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second.Name != "default" || second.Position != 2 {
		t.Errorf("second = %+v; want default name at position 2", second)
	}
	if _, err := src.Next(ctx); !errors.Is(err, apperrors.ErrInputFormat) {
		t.Errorf("NULL source error = %v; want input format error", err)
	}
	if _, err := src.Next(ctx); err != io.EOF {
		t.Errorf("final Next = %v; want io.EOF", err)
	}

	if _, err := QueryRows(ctx, db, `SELECT id, src, tgt, corpus FROM pairs`, "x"); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("four-column query error = %v; want configuration error", err)
	}
}
