// Package ranker scores the documents of one store against a query plan
// with BM25 term weighting.
package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/parser"
)

// Params are the BM25 constants. B = 0 disables length normalization, which
// keeps scores monotone in term frequency.
type Params struct {
	K1 float64
	B  float64
}

func DefaultParams() Params {
	return Params{K1: 1.2, B: 0}
}

// Store is the read side of a sealed store needed for scoring.
type Store interface {
	Postings(term string) index.PostingList
	DocFreq(term string) int
	Doc(id uint32) (index.StoredDoc, bool)
	DocCount() int
	AvgDocLength() float64
	DocLength(id uint32) int
}

type ScoredDoc struct {
	DocID uint32  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Less orders by score descending, then doc id ascending.
func (d ScoredDoc) Less(other ScoredDoc) bool {
	if d.Score != other.Score {
		return d.Score > other.Score
	}
	return d.DocID < other.DocID
}

type accumulator struct {
	score   float64
	matched int
}

// Score calls visit for every document that satisfies plan, in no
// particular order. A document qualifies when it holds the name clause (if
// any) and matches at least MinShouldMatch clauses.
func Score(store Store, plan *parser.QueryPlan, params Params, visit func(ScoredDoc)) {
	if plan.Empty() || store.DocCount() == 0 {
		return
	}
	totalDocs := int64(store.DocCount())
	avgDocLength := store.AvgDocLength()

	accs := make(map[uint32]*accumulator)
	for _, term := range plan.Terms {
		postings := store.Postings(term)
		if len(postings) == 0 {
			continue
		}
		idf := computeIDF(totalDocs, int64(len(postings)))
		for _, posting := range postings {
			acc, ok := accs[posting.DocID]
			if !ok {
				acc = &accumulator{}
				accs[posting.DocID] = acc
			}
			tfNorm := computeTFNorm(
				float64(posting.Frequency),
				float64(store.DocLength(posting.DocID)),
				avgDocLength,
				params,
			)
			acc.score += idf * tfNorm
			acc.matched++
		}
	}

	for docID, acc := range accs {
		matched := acc.matched
		if plan.Name != "" {
			doc, ok := store.Doc(docID)
			if !ok || doc.Name != plan.Name {
				continue
			}
			matched++
		}
		if matched < plan.MinShouldMatch {
			continue
		}
		visit(ScoredDoc{DocID: docID, Score: acc.score})
	}
}

// MaxScore is the score a document would get with every query term at
// saturating frequency. It bounds any Score result for the same plan.
func MaxScore(store Store, plan *parser.QueryPlan, params Params) float64 {
	totalDocs := int64(store.DocCount())
	var total float64
	for _, term := range plan.Terms {
		df := int64(store.DocFreq(term))
		if df == 0 {
			continue
		}
		total += computeIDF(totalDocs, df) * (params.K1 + 1)
	}
	return total
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(1 + numerator/denominator)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64, params Params) float64 {
	lengthRatio := 1.0
	if avgDocLength > 0 {
		lengthRatio = docLength / avgDocLength
	}
	denominator := termFreq + params.K1*(1-params.B+params.B*lengthRatio)
	if denominator == 0 {
		return 0
	}
	return (termFreq * (params.K1 + 1)) / denominator
}
