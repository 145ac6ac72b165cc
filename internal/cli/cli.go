// Package cli holds the flag types and error reporting shared by the
// command-line tools.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// StringList is a repeatable string flag.
type StringList []string

func (l *StringList) String() string {
	return strings.Join(*l, " ")
}

func (l *StringList) Set(v string) error {
	if v == "" {
		return errors.New("empty value")
	}
	*l = append(*l, v)
	return nil
}

// SplitDirs flattens repeated comma-separated directory lists, dropping
// empty entries.
func SplitDirs(values []string) []string {
	var dirs []string
	for _, v := range values {
		for _, d := range strings.Split(v, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// Usage reports a command-line mistake and prints the flag defaults.
func Usage(fs *flag.FlagSet, format string, args ...any) error {
	fmt.Fprintf(fs.Output(), "%s: %s\n", fs.Name(), fmt.Sprintf(format, args...))
	fs.Usage()
	return apperrors.Newf(apperrors.ErrConfiguration, format, args...)
}

// Exit logs err, prints it on stderr and returns the process exit code.
func Exit(stderr io.Writer, prog string, err error) int {
	if err == nil {
		return apperrors.ExitOK
	}
	if !errors.Is(err, flag.ErrHelp) {
		slog.Error("command failed", "command", prog, "error", err)
		fmt.Fprintf(stderr, "%s: %v\n", prog, err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}
