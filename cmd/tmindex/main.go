// Command tmindex builds a sealed translation-memory store from parallel
// text files, tab-separated files or a SQL query.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/tm"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Exit(os.Stderr, "tmindex", run(ctx, os.Args[1:], os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tmindex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		files, tsvFiles cli.StringList
		storeDir        = fs.String("i", "", "store directory to create or replace; with -split, the parent of one store per name")
		split           = fs.Bool("split", false, "build one store per corpus name under -i, in parallel")
		skipBad         = fs.Bool("skip-bad", false, "skip malformed tab-separated records")
		strict          = fs.Bool("strict", false, "fail when parallel files have different line counts")
		sqlDriver       = fs.String("sql-driver", "", "SQL source driver (postgres, sqlite3)")
		sqlDSN          = fs.String("sql-dsn", "", "SQL source DSN")
		sqlQuery        = fs.String("sql-query", "", "SQL query returning source[, target] rows")
		sqlName         = fs.String("sql-name", "sql", "corpus name for SQL rows")
		configPath      = fs.String("config", "", "path to YAML config file")
	)
	fs.Var(&files, "f", "NAME,FILE0[,FILE1]*: index FILE0, store aligned lines of FILE1.. as target (repeatable)")
	fs.Var(&tsvFiles, "tsv", "NAME,FILE: index a source<TAB>target file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return cli.Usage(fs, "unexpected arguments %q", fs.Args())
	}
	if *storeDir == "" {
		return cli.Usage(fs, "-i is required")
	}
	useSQL := *sqlDSN != "" || *sqlQuery != ""
	if useSQL && (len(files) > 0 || len(tsvFiles) > 0) {
		return cli.Usage(fs, "-sql-* flags cannot be combined with -f or -tsv")
	}
	if useSQL && *split {
		return cli.Usage(fs, "-split cannot be combined with a SQL source")
	}
	if !useSQL && len(files) == 0 && len(tsvFiles) == 0 {
		return cli.Usage(fs, "give at least one -f or -tsv input, or a SQL source")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("effective configuration", "config", cfg.Describe())

	policy, err := ingestion.ParsePolicy(cfg.Indexer.LineCountPolicy)
	if err != nil {
		return err
	}
	if *strict {
		policy = ingestion.RequireEqual
	}

	var docs int
	if useSQL {
		if *sqlDriver != "" {
			cfg.Database.Driver = *sqlDriver
		}
		if *sqlDSN != "" {
			cfg.Database.DSN = *sqlDSN
		}
		if *sqlQuery != "" {
			cfg.Database.Query = *sqlQuery
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		docs, err = tm.BuildFromSQL(ctx, cfg, *storeDir, *sqlName)
	} else {
		inputs, perr := parseInputs(files, tsvFiles)
		if perr != nil {
			return cli.Usage(fs, "%v", perr)
		}
		opts := tm.BuildOptions{
			Policy:        policy,
			SkipMalformed: *skipBad,
			Metrics:       metrics.New(nil),
		}
		if *split {
			results, err := tm.BuildSplit(ctx, cfg, *storeDir, inputs, opts)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintln(stdout, tm.BuildReport(r.Path, r.Docs))
			}
			return nil
		}
		docs, err = tm.BuildFromSpecs(ctx, cfg, *storeDir, inputs, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tm.BuildReport(*storeDir, docs))
	return nil
}

// parseInputs keeps the -f inputs ahead of the -tsv ones.
func parseInputs(files, tsvFiles []string) ([]tm.Input, error) {
	inputs := make([]tm.Input, 0, len(files)+len(tsvFiles))
	for _, arg := range files {
		spec, err := ingestion.ParseFileSpec(arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, tm.Input{Spec: spec})
	}
	for _, arg := range tsvFiles {
		spec, err := ingestion.ParseTSVSpec(arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, tm.Input{Spec: spec, TSV: true})
	}
	return inputs, nil
}
