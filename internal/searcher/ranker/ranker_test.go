package ranker

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/parser"
)

type memStore struct {
	mi       *index.MemoryIndex
	docs     []index.StoredDoc
	postings map[string]index.PostingList
}

func newStore(docs ...ingestion.DocumentSpec) *memStore {
	mi := index.NewMemoryIndex()
	for i, d := range docs {
		if d.Position == 0 {
			d.Position = i + 1
		}
		mi.AddDocument(d)
	}
	postings := make(map[string]index.PostingList)
	for _, e := range mi.Snapshot() {
		postings[e.Term] = e.Postings
	}
	return &memStore{mi: mi, docs: mi.Documents(), postings: postings}
}

func sources(lines ...string) *memStore {
	docs := make([]ingestion.DocumentSpec, len(lines))
	for i, l := range lines {
		docs[i] = ingestion.DocumentSpec{Source: l}
	}
	return newStore(docs...)
}

func (s *memStore) Postings(term string) index.PostingList { return s.postings[term] }
func (s *memStore) DocFreq(term string) int                { return len(s.postings[term]) }
func (s *memStore) DocCount() int                          { return s.mi.DocCount() }
func (s *memStore) DocLength(id uint32) int                { return s.docs[id].Length }
func (s *memStore) Doc(id uint32) (index.StoredDoc, bool) {
	if int(id) >= len(s.docs) {
		return index.StoredDoc{}, false
	}
	return s.docs[id], true
}
func (s *memStore) AvgDocLength() float64 {
	return float64(s.mi.TotalTokens()) / float64(s.mi.DocCount())
}

func scores(store Store, query, name string, params Params) map[uint32]float64 {
	out := make(map[uint32]float64)
	Score(store, parser.Parse(query, name), params, func(d ScoredDoc) {
		out[d.DocID] = d.Score
	})
	return out
}

func TestScoreMatchesAnyTerm(t *testing.T) {
	store := sources("hello world", "goodbye world", "nothing here")
	got := scores(store, "hello world", "", DefaultParams())
	if len(got) != 2 {
		t.Fatalf("matched %d docs; want 2 (%v)", len(got), got)
	}
	if got[0] <= got[1] {
		t.Errorf("doc matching both terms scored %g, doc matching one scored %g", got[0], got[1])
	}
	if _, ok := got[2]; ok {
		t.Error("doc without query terms matched")
	}
}

func TestScoreEmptyQuery(t *testing.T) {
	store := sources("hello world")
	if got := scores(store, "!!!", "", DefaultParams()); len(got) != 0 {
		t.Errorf("empty query matched %v", got)
	}
}

func TestScoreMonotoneInFrequency(t *testing.T) {
	store := sources("cat sat", "cat cat sat", "cat cat cat sat", "dog")
	got := scores(store, "cat", "", DefaultParams())
	if !(got[0] < got[1] && got[1] < got[2]) {
		t.Errorf("scores not increasing with tf: %v", got)
	}
}

func TestScoreMonotoneInRarity(t *testing.T) {
	store := sources("common rare", "common", "common", "common other")
	got := scores(store, "common rare", "", DefaultParams())
	rareOnly := scores(store, "rare", "", DefaultParams())[0]
	commonOnly := scores(store, "common", "", DefaultParams())[1]
	if rareOnly <= commonOnly {
		t.Errorf("rare term weight %g not above common term weight %g", rareOnly, commonOnly)
	}
	if got[0] <= got[1] {
		t.Errorf("doc with rare term %g not above doc without %g", got[0], got[1])
	}
}

func TestScoreTermInEveryDocIsPositive(t *testing.T) {
	store := sources("hello")
	if got := scores(store, "hello", "", DefaultParams()); got[0] <= 0 {
		t.Errorf("single-doc store score = %g; want > 0", got[0])
	}
}

func TestScoreNameClause(t *testing.T) {
	store := newStore(
		ingestion.DocumentSpec{Name: "legal", Source: "the contract"},
		ingestion.DocumentSpec{Name: "medical", Source: "the contract"},
		ingestion.DocumentSpec{Name: "legal", Source: "unrelated"},
	)
	restricted := scores(store, "contract", "legal", DefaultParams())
	if len(restricted) != 1 {
		t.Fatalf("restricted matches = %v; want only doc 0", restricted)
	}
	open := scores(store, "contract", "", DefaultParams())
	if restricted[0] != open[0] {
		t.Errorf("name clause changed score: %g vs %g", restricted[0], open[0])
	}
	if got := scores(store, "contract", "finance", DefaultParams()); len(got) != 0 {
		t.Errorf("unknown name matched %v", got)
	}
}

func TestMaxScoreBoundsScores(t *testing.T) {
	store := sources("a a a a a a b", "a b c", "c", "b b")
	for _, params := range []Params{DefaultParams(), {K1: 1.2, B: 0.75}, {K1: 0, B: 0}} {
		plan := parser.Parse("a b c", "")
		bound := MaxScore(store, plan, params)
		Score(store, plan, params, func(d ScoredDoc) {
			if d.Score > bound+1e-12 {
				t.Errorf("params %+v: doc %d score %g exceeds MaxScore %g", params, d.DocID, d.Score, bound)
			}
		})
	}
}

func TestComputeIDF(t *testing.T) {
	if got := computeIDF(10, 10); got <= 0 {
		t.Errorf("idf with df=N = %g; want > 0", got)
	}
	if computeIDF(10, 1) <= computeIDF(10, 2) {
		t.Error("idf not decreasing in document frequency")
	}
	want := math.Log(1 + (10-1+0.5)/(1+0.5))
	if got := computeIDF(10, 1); math.Abs(got-want) > 1e-12 {
		t.Errorf("computeIDF(10,1) = %g; want %g", got, want)
	}
}

func TestScoredDocLess(t *testing.T) {
	a := ScoredDoc{DocID: 1, Score: 2}
	b := ScoredDoc{DocID: 0, Score: 1}
	c := ScoredDoc{DocID: 3, Score: 2}
	if !a.Less(b) || b.Less(a) {
		t.Error("higher score must come first")
	}
	if !a.Less(c) || c.Less(a) {
		t.Error("equal scores must order by doc id")
	}
}

// Self-match is maximal only among documents that do not repeat the query
// terms: saturation still rewards a higher term frequency.
func TestRepeatedTermsOutscoreSelfMatch(t *testing.T) {
	store := sources("the cat sat", "the the cat cat sat sat", "a dog ran")
	got := scores(store, "the cat sat", "", DefaultParams())
	if got[1] <= got[0] {
		t.Errorf("repeated-terms doc = %g, self match = %g; want repeated-terms higher", got[1], got[0])
	}
	if bound := MaxScore(store, parser.Parse("the cat sat", ""), DefaultParams()); got[1] > bound {
		t.Errorf("score %g exceeds MaxScore %g", got[1], bound)
	}
}
