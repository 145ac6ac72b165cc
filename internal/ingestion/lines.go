package ingestion

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

const maxLineBytes = 16 * 1024 * 1024

// lineReader reads a file line by line, stripping the line terminator.
type lineReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

func openLines(path string) (*lineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "opening %s: %v", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineReader{path: path, file: f, scanner: sc}, nil
}

// next returns the next line and false once the file is exhausted.
func (r *lineReader) next() (string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", false, apperrors.Newf(apperrors.ErrFileAccess, "reading %s after line %d: %v", r.path, r.line, err)
		}
		return "", false, nil
	}
	r.line++
	return strings.TrimSuffix(r.scanner.Text(), "\r"), true, nil
}

func (r *lineReader) close() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", r.path, err)
	}
	return nil
}
