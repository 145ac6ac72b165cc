// Package fuzzy implements the token-level edit-distance similarity used to
// rescore lexical candidates. Unlike the lexical score it is sensitive to
// word order.
package fuzzy

import (
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/tokenizer"
)

// Distance is the Levenshtein distance between two token sequences, with
// unit cost for insertion, deletion and substitution.
func Distance(a, b []string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Score maps Distance into [0,1] as 1 - d/max(|a|,|b|). Two empty
// sequences are identical and score 1.
func Score(a, b []string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// Rerank replaces the score of every candidate with the similarity between
// query and the tokenized text of the candidate. Order is left unchanged.
func Rerank[T any](query []string, candidates []T, text func(T) string, setScore func(*T, float64)) {
	for i := range candidates {
		setScore(&candidates[i], Score(query, tokenizer.Terms(text(candidates[i]))))
	}
}
