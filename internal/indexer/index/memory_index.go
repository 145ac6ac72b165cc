// Package index accumulates the inverted structure of one store while it is
// being built. Documents are added sequentially by a single writer; doc ids
// are dense and follow insertion order, so posting lists stay sorted by doc
// id without a final sort.
package index

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
)

// MemoryIndex is not safe for concurrent use.
type MemoryIndex struct {
	index       map[string]PostingList
	docs        []StoredDoc
	totalTokens int64
	size        int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		index: make(map[string]PostingList),
	}
}

// AddDocument tokenizes doc.Source, appends one posting per distinct term
// and stores the raw fields. It returns the internal doc id.
func (m *MemoryIndex) AddDocument(doc ingestion.DocumentSpec) uint32 {
	docID := uint32(len(m.docs))
	tokens := tokenizer.Tokenize(doc.Source)

	termFreq := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, seen := termFreq[token.Term]; !seen {
			order = append(order, token.Term)
		}
		termFreq[token.Term]++
	}
	for _, term := range order {
		m.index[term] = append(m.index[term], Posting{
			DocID:     docID,
			Frequency: termFreq[term],
		})
		m.size += int64(len(term) + 16)
	}

	m.docs = append(m.docs, StoredDoc{
		Name:     doc.Name,
		Source:   doc.Source,
		Target:   doc.Target,
		Position: doc.Position,
		Length:   len(tokens),
	})
	m.totalTokens += int64(len(tokens))
	m.size += int64(len(doc.Name) + len(doc.Source) + len(doc.Target) + 32)
	return docID
}

// Snapshot returns every term with its postings, sorted by term.
func (m *MemoryIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(m.index))
	for term, postings := range m.index {
		copied := make(PostingList, len(postings))
		copy(copied, postings)
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: copied,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// Documents returns the stored fields indexed by doc id.
func (m *MemoryIndex) Documents() []StoredDoc {
	docs := make([]StoredDoc, len(m.docs))
	copy(docs, m.docs)
	return docs
}

func (m *MemoryIndex) Terms() int {
	return len(m.index)
}

func (m *MemoryIndex) Size() int64 {
	return m.size
}

func (m *MemoryIndex) DocCount() int {
	return len(m.docs)
}

func (m *MemoryIndex) TotalTokens() int64 {
	return m.totalTokens
}
