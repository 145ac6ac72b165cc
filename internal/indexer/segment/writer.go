package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oarkflow/json"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/pkg/errors"
)

// Writer seals in-memory stores into store directories.
type Writer struct {
	logger *slog.Logger
}

func NewWriter() *Writer {
	return &Writer{
		logger: slog.Default().With("component", "segment-writer"),
	}
}

// Write builds the store in a temporary sibling of dir and swaps it into
// place once every file is synced. Whatever was at dir before is removed only
// after the new store is complete.
func (w *Writer) Write(dir string, entries []index.TermEntry, docs []index.StoredDoc, meta Meta) (*Manifest, error) {
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "creating store parent %s: %v", parent, err)
	}
	tmpDir, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-")
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrFileAccess, "creating temp store directory: %v", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmpDir)
		}
	}()

	now := time.Now().UTC()
	digest := xxhash.New()

	if err := writePostings(filepath.Join(tmpDir, PostingsFile), entries, uint32(len(docs)), now, digest); err != nil {
		return nil, err
	}
	docsChecksum, err := writeDocs(filepath.Join(tmpDir, DocsFile), docs, digest)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Name:          meta.Name,
		FormatVersion: FormatVersion,
		DocCount:      len(docs),
		TermCount:     len(entries),
		TotalTokens:   meta.TotalTokens,
		DocsChecksum:  docsChecksum,
		Fingerprint:   strconv.FormatUint(digest.Sum64(), 16),
		CreatedAt:     now,
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := writeSynced(filepath.Join(tmpDir, ManifestFile), manifestData); err != nil {
		return nil, err
	}

	if err := replaceDir(tmpDir, dir); err != nil {
		return nil, err
	}
	committed = true
	w.logger.Debug("store sealed",
		"dir", dir,
		"docs", manifest.DocCount,
		"terms", manifest.TermCount,
		"fingerprint", manifest.Fingerprint,
	)
	return manifest, nil
}

func writePostings(path string, entries []index.TermEntry, docCount uint32, createdAt time.Time, digest *xxhash.Digest) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Newf(apperrors.ErrFileAccess, "creating postings file: %v", err)
	}
	defer f.Close()

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.Write(headerBytes); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	postingsStart := int64(HeaderSize)
	offset := int64(0)
	dict := make([]DictEntry, 0, len(entries))
	postCRC := crc32.NewIEEE()
	bw := bufio.NewWriter(f)
	for _, entry := range entries {
		postingsData, err := json.Marshal(entry.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		if _, err := bw.Write(postingsData); err != nil {
			return fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		postCRC.Write(postingsData)
		digest.WriteString(entry.Term)
		digest.Write(postingsData)
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: offset,
			PostLen:    len(postingsData),
			DocFreq:    len(entry.Postings),
		})
		offset += int64(len(postingsData))
	}

	postingsSize := offset
	dictStart := postingsStart + postingsSize
	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := bw.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], postCRC.Sum32())
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(len(dictData)))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(postingsSize))
	if _, err := bw.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing postings: %w", err)
	}

	header := SegmentHeader{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  uint32(len(entries)),
		DocCount:   docCount,
		CreatedAt:  createdAt.Unix(),
		DictOffset: dictStart,
		DictSize:   int64(len(dictData)),
		PostOffset: postingsStart,
		PostSize:   postingsSize,
	}
	encodeHeader(headerBytes, header)
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing postings file: %w", err)
	}
	return f.Close()
}

func writeDocs(path string, docs []index.StoredDoc, digest *xxhash.Digest) (uint32, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrFileAccess, "creating docs file: %v", err)
	}
	defer f.Close()

	checksum := crc32.NewIEEE()
	bw := bufio.NewWriter(f)
	for i, doc := range docs {
		line, err := json.Marshal(doc)
		if err != nil {
			return 0, fmt.Errorf("marshaling document %d: %w", i, err)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return 0, fmt.Errorf("writing document %d: %w", i, err)
		}
		checksum.Write(line)
		digest.Write(line)
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing docs: %w", err)
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("syncing docs file: %w", err)
	}
	return checksum.Sum32(), f.Close()
}

func writeSynced(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Newf(apperrors.ErrFileAccess, "creating %s: %v", filepath.Base(path), err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// replaceDir moves src to dst. An existing dst is first moved aside and
// removed once src is in place.
func replaceDir(src, dst string) error {
	var old string
	if _, err := os.Stat(dst); err == nil {
		old = fmt.Sprintf("%s.old-%d", dst, time.Now().UnixNano())
		if err := os.Rename(dst, old); err != nil {
			return apperrors.Newf(apperrors.ErrFileAccess, "moving previous store aside: %v", err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		if old != "" {
			os.Rename(old, dst)
		}
		return apperrors.Newf(apperrors.ErrFileAccess, "installing store %s: %v", dst, err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			slog.Warn("removing previous store", "path", old, "error", err)
		}
	}
	return nil
}

func encodeHeader(b []byte, h SegmentHeader) {
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.DictSize))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.PostOffset))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.PostSize))
}

func decodeHeader(b []byte) SegmentHeader {
	return SegmentHeader{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint32(b[4:8]),
		TermCount:  binary.LittleEndian.Uint32(b[8:12]),
		DocCount:   binary.LittleEndian.Uint32(b[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(b[16:24])),
		DictOffset: int64(binary.LittleEndian.Uint64(b[24:32])),
		DictSize:   int64(binary.LittleEndian.Uint64(b[32:40])),
		PostOffset: int64(binary.LittleEndian.Uint64(b[40:48])),
		PostSize:   int64(binary.LittleEndian.Uint64(b[48:56])),
	}
}
