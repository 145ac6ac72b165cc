// Command tmquery answers one query per input line against one or more
// sealed stores and writes one result record per query to stdout.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/format"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/tm"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Exit(os.Stderr, "tmquery", run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tmquery", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		stores     cli.StringList
		queryFile  = fs.String("f", tm.StdinQueryFile, "query file, one query per line; - reads stdin")
		topK       = fs.Int("n", 1, "maximum hits per query")
		minScore   = fs.Float64("mins", 0, "drop hits scoring below this")
		fuzzy      = fs.Bool("fuzzymatch", false, "rescore candidates by edit-distance similarity")
		noPerfect  = fs.Bool("noperfect", false, "skip hits whose source equals the query")
		name       = fs.String("name", "", "only return hits from this corpus name")
		echoQuery  = fs.Bool("query", false, "echo the query in each record")
		echoMatch  = fs.Bool("match", false, "print matched source and target text")
		normalize  = fs.Bool("normalize", false, "normalize scores per store before merging")
		number     = fs.Bool("qnum", false, "prefix each record with q=N")
		configPath = fs.String("config", "", "path to YAML config file")
	)
	fs.Var(&stores, "i", "store directory, or comma-separated list (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return cli.Usage(fs, "unexpected arguments %q", fs.Args())
	}
	dirs := cli.SplitDirs(stores)
	if len(dirs) == 0 {
		return cli.Usage(fs, "-i is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	opts := executor.OptionsFromConfig(cfg.Search)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "n":
			opts.TopK = *topK
		case "mins":
			opts.MinScore = *minScore
		case "fuzzymatch":
			opts.FuzzyRescore = *fuzzy
		case "noperfect":
			opts.ExcludeExactMatch = *noPerfect
		case "normalize":
			opts.Normalize = *normalize
		}
	})
	opts.RestrictName = *name
	if err := opts.Validate(); err != nil {
		return cli.Usage(fs, "%v", err)
	}

	qopts := tm.QueryOptions{
		Search: opts,
		Format: format.Options{
			NumberQueries: *number,
			EchoQuery:     *echoQuery,
			EchoMatch:     *echoMatch,
		},
	}
	if *queryFile == tm.StdinQueryFile {
		searcher, err := tm.OpenSearcher(ctx, cfg, dirs, nil)
		if err != nil {
			return err
		}
		defer searcher.Close()
		_, err = tm.QueryReader(ctx, searcher, stdin, qopts, stdout)
		return err
	}
	_, err = tm.Query(ctx, cfg, dirs, *queryFile, qopts, stdout)
	return err
}
