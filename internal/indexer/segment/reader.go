package segment

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/oarkflow/json"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// Reader is a fully loaded sealed store. It is immutable after Open and safe
// for any number of concurrent readers.
type Reader struct {
	dir      string
	manifest Manifest
	header   SegmentHeader
	dict     []DictEntry
	postings []index.PostingList
	docs     []index.StoredDoc
}

// Open validates and loads the store in dir.
func Open(dir string) (*Reader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "opening store %s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "opening store %s: not a directory", dir)
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	r := &Reader{dir: dir, manifest: manifest}
	if err := r.loadPostings(filepath.Join(dir, PostingsFile)); err != nil {
		return nil, err
	}
	if err := r.loadDocs(filepath.Join(dir, DocsFile)); err != nil {
		return nil, err
	}
	if len(r.docs) != manifest.DocCount || int(r.header.DocCount) != manifest.DocCount {
		return nil, corrupt(dir, "document count mismatch: manifest %d, header %d, docs %d",
			manifest.DocCount, r.header.DocCount, len(r.docs))
	}
	for i, postings := range r.postings {
		for _, p := range postings {
			if int(p.DocID) >= len(r.docs) {
				return nil, corrupt(dir, "term %q references unknown doc %d", r.dict[i].Term, p.DocID)
			}
		}
	}
	return r, nil
}

func readManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, corrupt(dir, "no manifest, store was never sealed")
	}
	if err != nil {
		return m, apperrors.Newf(apperrors.ErrFileAccess, "reading manifest in %s: %v", dir, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, corrupt(dir, "parsing manifest: %v", err)
	}
	if m.FormatVersion != FormatVersion {
		return m, corrupt(dir, "unsupported format version %d", m.FormatVersion)
	}
	return m, nil
}

func (r *Reader) loadPostings(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return corrupt(r.dir, "missing %s", PostingsFile)
	}
	if err != nil {
		return apperrors.Newf(apperrors.ErrFileAccess, "reading %s: %v", path, err)
	}
	if len(data) < HeaderSize+FooterSize {
		return corrupt(r.dir, "postings file truncated (%d bytes)", len(data))
	}

	header := decodeHeader(data[:HeaderSize])
	if header.Magic != MagicBytes {
		return corrupt(r.dir, "bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return corrupt(r.dir, "unsupported postings version %d", header.Version)
	}
	footer := data[len(data)-FooterSize:]
	dictCRC := binary.LittleEndian.Uint32(footer[0:4])
	postCRC := binary.LittleEndian.Uint32(footer[4:8])

	postEnd := header.PostOffset + header.PostSize
	dictEnd := header.DictOffset + header.DictSize
	if header.PostOffset != int64(HeaderSize) || postEnd != header.DictOffset || dictEnd != int64(len(data)-FooterSize) {
		return corrupt(r.dir, "inconsistent section offsets")
	}
	postRegion := data[header.PostOffset:postEnd]
	dictData := data[header.DictOffset:dictEnd]
	if crc32.ChecksumIEEE(dictData) != dictCRC {
		return corrupt(r.dir, "dictionary checksum mismatch")
	}
	if crc32.ChecksumIEEE(postRegion) != postCRC {
		return corrupt(r.dir, "postings checksum mismatch")
	}

	var dict []DictEntry
	if err := json.Unmarshal(dictData, &dict); err != nil {
		return corrupt(r.dir, "parsing dictionary: %v", err)
	}
	if len(dict) != int(header.TermCount) {
		return corrupt(r.dir, "term count mismatch: header %d, dictionary %d", header.TermCount, len(dict))
	}

	postings := make([]index.PostingList, len(dict))
	for i, entry := range dict {
		if i > 0 && dict[i-1].Term >= entry.Term {
			return corrupt(r.dir, "dictionary not sorted at %q", entry.Term)
		}
		end := entry.PostOffset + int64(entry.PostLen)
		if entry.PostOffset < 0 || end > int64(len(postRegion)) {
			return corrupt(r.dir, "postings for %q out of range", entry.Term)
		}
		if err := json.Unmarshal(postRegion[entry.PostOffset:end], &postings[i]); err != nil {
			return corrupt(r.dir, "parsing postings for %q: %v", entry.Term, err)
		}
	}

	r.header = header
	r.dict = dict
	r.postings = postings
	return nil
}

func (r *Reader) loadDocs(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return corrupt(r.dir, "missing %s", DocsFile)
	}
	if err != nil {
		return apperrors.Newf(apperrors.ErrFileAccess, "reading %s: %v", path, err)
	}
	if crc32.ChecksumIEEE(data) != r.manifest.DocsChecksum {
		return corrupt(r.dir, "docs checksum mismatch")
	}

	docs := make([]index.StoredDoc, 0, r.manifest.DocCount)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		var doc index.StoredDoc
		if err := json.Unmarshal(scanner.Bytes(), &doc); err != nil {
			return corrupt(r.dir, "parsing document %d: %v", len(docs), err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return corrupt(r.dir, "scanning documents: %v", err)
	}
	r.docs = docs
	return nil
}

func corrupt(dir, format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrIndexCorrupt, "store %s: "+format, append([]any{dir}, args...)...)
}

func (r *Reader) Dir() string {
	return r.dir
}

func (r *Reader) Name() string {
	return r.manifest.Name
}

func (r *Reader) Manifest() Manifest {
	return r.manifest
}

// Fingerprint is a content hash of the store, stable across rebuilds from
// identical input.
func (r *Reader) Fingerprint() string {
	return r.manifest.Fingerprint
}

func (r *Reader) lookup(term string) int {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if idx >= len(r.dict) || r.dict[idx].Term != term {
		return -1
	}
	return idx
}

// Postings returns the posting list for term, or nil. The slice is shared
// and must not be modified.
func (r *Reader) Postings(term string) index.PostingList {
	if idx := r.lookup(term); idx >= 0 {
		return r.postings[idx]
	}
	return nil
}

func (r *Reader) DocFreq(term string) int {
	if idx := r.lookup(term); idx >= 0 {
		return r.dict[idx].DocFreq
	}
	return 0
}

// Doc returns the stored fields of a document.
func (r *Reader) Doc(id uint32) (index.StoredDoc, bool) {
	if int(id) >= len(r.docs) {
		return index.StoredDoc{}, false
	}
	return r.docs[id], true
}

func (r *Reader) DocLength(id uint32) int {
	if int(id) >= len(r.docs) {
		return 0
	}
	return r.docs[id].Length
}

func (r *Reader) DocCount() int {
	return len(r.docs)
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) TotalTokens() int64 {
	return r.manifest.TotalTokens
}

func (r *Reader) AvgDocLength() float64 {
	if len(r.docs) == 0 {
		return 0
	}
	return float64(r.manifest.TotalTokens) / float64(len(r.docs))
}

// Close releases the loaded data. The Reader must not be used afterwards.
func (r *Reader) Close() error {
	r.dict = nil
	r.postings = nil
	r.docs = nil
	return nil
}
