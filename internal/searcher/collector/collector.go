// Package collector keeps the best K scored documents seen so far in O(K)
// memory.
package collector

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/searcher/ranker"
)

// TopK is a bounded collector. Its ordering is ranker.ScoredDoc.Less, so
// ties on score keep the lower doc id.
type TopK struct {
	k int
	h scoredDocHeap
}

// New returns a collector for the k best documents. k < 1 is treated as 1.
func New(k int) *TopK {
	if k < 1 {
		k = 1
	}
	return &TopK{
		k: k,
		h: make(scoredDocHeap, 0, k),
	}
}

func (c *TopK) Collect(doc ranker.ScoredDoc) {
	if c.h.Len() < c.k {
		heap.Push(&c.h, doc)
		return
	}
	if doc.Less(c.h[0]) {
		c.h[0] = doc
		heap.Fix(&c.h, 0)
	}
}

func (c *TopK) Len() int {
	return c.h.Len()
}

// Results drains the collector and returns its documents best first.
func (c *TopK) Results() []ranker.ScoredDoc {
	result := make([]ranker.ScoredDoc, c.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&c.h).(ranker.ScoredDoc)
	}
	return result
}

// scoredDocHeap keeps the worst retained document at the root.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return h[j].Less(h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
