package cli

import (
	"bytes"
	"errors"
	"flag"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

func TestStringListRepeats(t *testing.T) {
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var l StringList
	fs.Var(&l, "f", "")
	if err := fs.Parse([]string{"-f", "en,a.txt,b.txt", "-f", "de,c.txt"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := StringList{"en,a.txt,b.txt", "de,c.txt"}
	if !reflect.DeepEqual(l, want) {
		t.Errorf("list = %v; want %v", l, want)
	}
}

func TestSplitDirs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{"a,b", "c"}, []string{"a", "b", "c"}},
		{[]string{"a,,b", " "}, []string{"a", "b"}},
	}
	for _, tc := range tests {
		if got := SplitDirs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitDirs(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, apperrors.ExitOK},
		{flag.ErrHelp, apperrors.ExitOK},
		{apperrors.New(apperrors.ErrConfiguration, "bad flag"), apperrors.ExitUsage},
		{apperrors.New(apperrors.ErrFileAccess, "missing"), apperrors.ExitNoInput},
		{errors.New("other"), apperrors.ExitFailure},
	}
	for _, tc := range tests {
		var stderr bytes.Buffer
		if got := Exit(&stderr, "tmquery", tc.err); got != tc.want {
			t.Errorf("Exit(%v) = %d; want %d", tc.err, got, tc.want)
		}
		if tc.want != apperrors.ExitOK && !strings.HasPrefix(stderr.String(), "tmquery: ") {
			t.Errorf("stderr = %q; want tmquery prefix", stderr.String())
		}
	}
}

func TestUsageIsConfigurationError(t *testing.T) {
	var out bytes.Buffer
	fs := flag.NewFlagSet("tmindex", flag.ContinueOnError)
	fs.SetOutput(&out)
	err := Usage(fs, "missing -i")
	if !errors.Is(err, apperrors.ErrConfiguration) {
		t.Errorf("Usage error = %v; want configuration error", err)
	}
	if !strings.Contains(out.String(), "tmindex: missing -i") {
		t.Errorf("usage output = %q", out.String())
	}
}
