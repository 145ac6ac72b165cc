// Package tm is the entry point used by the command-line tools: it wires
// ingestion, indexing and search together behind a few calls.
package tm

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
)

// Input is one named input file set. TSV inputs read source and target
// from the two columns of a single file.
type Input struct {
	Spec ingestion.FileSpec
	TSV  bool
}

type BuildOptions struct {
	Policy ingestion.LineCountPolicy
	// SkipMalformed drops malformed TSV records instead of failing.
	SkipMalformed bool
	Metrics       *metrics.Metrics
}

// BuildIndex builds the store at storePath from one source file and its
// aligned auxiliary files.
func BuildIndex(ctx context.Context, cfg *config.Config, storePath, name, sourceFile string, auxFiles []string, policy ingestion.LineCountPolicy) (int, error) {
	inputs := []Input{{Spec: ingestion.FileSpec{Name: name, Source: sourceFile, Aux: auxFiles}}}
	return BuildFromSpecs(ctx, cfg, storePath, inputs, BuildOptions{Policy: policy})
}

// BuildFromSpecs builds one store from several named inputs, appended in
// order. Positions restart at 1 for every input.
func BuildFromSpecs(ctx context.Context, cfg *config.Config, storePath string, inputs []Input, opts BuildOptions) (int, error) {
	if len(inputs) == 0 {
		return 0, apperrors.New(apperrors.ErrConfiguration, "no input files given")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	logger := slog.Default().With("component", "tm-build")

	openers := make([]ingestion.Opener, 0, len(inputs))
	for _, in := range inputs {
		openers = append(openers, inputOpener(in, opts, m, logger))
	}
	src := ingestion.NewChain(openers...)
	defer src.Close()

	return indexer.NewBuilder(cfg.Indexer, m).Build(ctx, storePath, storeName(inputs), src)
}

// BuildSplit builds one store per distinct input name under parentDir,
// each at parentDir/NAME, running up to indexer.parallelism builds at once.
// Inputs sharing a name are appended into that name's store in order.
func BuildSplit(ctx context.Context, cfg *config.Config, parentDir string, inputs []Input, opts BuildOptions) ([]indexer.Result, error) {
	if len(inputs) == 0 {
		return nil, apperrors.New(apperrors.ErrConfiguration, "no input files given")
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	logger := slog.Default().With("component", "tm-build")

	var order []string
	groups := make(map[string][]ingestion.Opener)
	for _, in := range inputs {
		name := in.Spec.Name
		if name == "." || name == ".." || filepath.Base(name) != name {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, "corpus name %q cannot be used as a store directory", name)
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], inputOpener(in, opts, m, logger))
	}
	jobs := make([]indexer.Job, 0, len(order))
	for _, name := range order {
		openers := groups[name]
		jobs = append(jobs, indexer.Job{
			Path: filepath.Join(parentDir, name),
			Name: name,
			Open: func() (ingestion.Source, error) { return ingestion.NewChain(openers...), nil },
		})
	}
	return indexer.NewBuilder(cfg.Indexer, m).BuildAll(ctx, jobs)
}

// BuildFromSQL builds a store from the rows returned by the configured
// database query.
func BuildFromSQL(ctx context.Context, cfg *config.Config, storePath, name string) (int, error) {
	if cfg.Database.Query == "" {
		return 0, apperrors.New(apperrors.ErrConfiguration, "database.query is empty")
	}
	client, err := database.New(ctx, cfg.Database)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	rows, err := ingestion.QueryRows(ctx, client.DB, cfg.Database.Query, name)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	return indexer.NewBuilder(cfg.Indexer, nil).Build(ctx, storePath, name, rows)
}

func inputOpener(in Input, opts BuildOptions, m *metrics.Metrics, logger *slog.Logger) ingestion.Opener {
	return func() (ingestion.Source, error) {
		if !in.TSV {
			pf, err := ingestion.OpenParallelFiles(in.Spec.Name, in.Spec.Source, in.Spec.Aux, opts.Policy)
			if err != nil {
				return nil, err
			}
			return pf, nil
		}
		ts, err := ingestion.OpenTabSeparated(in.Spec.Name, in.Spec.Source)
		if err != nil {
			return nil, err
		}
		if !opts.SkipMalformed {
			return ts, nil
		}
		return ingestion.SkipMalformed(ts, func(err error) {
			m.MalformedSkipped.Inc()
			line, content, _ := apperrors.RecordOf(err)
			logger.Warn("skipping malformed record",
				"file", in.Spec.Source,
				"line", line,
				"content", content,
			)
		}), nil
	}
}

// storeName lists the distinct input names in order.
func storeName(inputs []Input) string {
	seen := make(map[string]struct{}, len(inputs))
	var names []string
	for _, in := range inputs {
		if _, ok := seen[in.Spec.Name]; ok {
			continue
		}
		seen[in.Spec.Name] = struct{}{}
		names = append(names, in.Spec.Name)
	}
	return strings.Join(names, ",")
}

// BuildReport is a one-line summary for the index tool.
func BuildReport(storePath string, docs int) string {
	return fmt.Sprintf("indexed %d sentences into %s", docs, storePath)
}
