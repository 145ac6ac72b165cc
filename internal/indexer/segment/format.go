// Package segment persists a built store as a sealed directory and loads it
// back for search. A store directory holds three files:
//
//	postings.spdx  binary header, per-term JSON posting blocks, JSON term
//	               dictionary and a checksum footer
//	docs.jsonl     stored fields, one JSON object per document in doc-id order
//	manifest.json  store metadata, written last
//
// A directory without a manifest is never treated as a usable store.
package segment

import (
	"os"
	"path/filepath"
	"time"
)

const (
	MagicBytes    uint32 = 0x53504458
	FormatVersion uint32 = 2
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

const (
	PostingsFile = "postings.spdx"
	DocsFile     = "docs.jsonl"
	ManifestFile = "manifest.json"
)

// SegmentHeader is the 64-byte header written at the start of postings.spdx.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
}

// DictEntry maps a term to its postings offset, length, and document
// frequency relative to the start of the postings region.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// Manifest describes a sealed store.
type Manifest struct {
	Name          string    `json:"name"`
	FormatVersion uint32    `json:"formatVersion"`
	DocCount      int       `json:"docCount"`
	TermCount     int       `json:"termCount"`
	TotalTokens   int64     `json:"totalTokens"`
	DocsChecksum  uint32    `json:"docsChecksum"`
	Fingerprint   string    `json:"fingerprint"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Meta carries the store-level values the writer cannot derive from the
// postings alone.
type Meta struct {
	Name        string
	TotalTokens int64
}

// IsSealed reports whether dir contains a manifest.
func IsSealed(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestFile))
	return err == nil && info.Mode().IsRegular()
}
