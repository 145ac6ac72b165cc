// Package parser turns a raw query line into a retrieval plan: an OR group
// over the distinct query terms, optionally combined with a mandatory
// sub-corpus name clause.
package parser

import (
	"github.com/Adithya-Monish-Kumar-K/Translation-Memory-Search/internal/indexer/tokenizer"
)

type QueryPlan struct {
	RawQuery string
	// Tokens is the full ordered token sequence, used for fuzzy rescoring.
	Tokens []string
	// Terms holds the distinct tokens in first-occurrence order.
	Terms []string
	// Name, when set, must equal the document's stored name.
	Name string
	// MinShouldMatch counts the name clause as one matched clause.
	MinShouldMatch int
}

func Parse(query string, restrictName string) *QueryPlan {
	plan := &QueryPlan{
		RawQuery: query,
		Tokens:   tokenizer.Terms(query),
		Name:     restrictName,
	}
	seen := make(map[string]struct{}, len(plan.Tokens))
	for _, term := range plan.Tokens {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		plan.Terms = append(plan.Terms, term)
	}
	plan.MinShouldMatch = max(1, min(1, len(plan.Terms)))
	if restrictName != "" {
		plan.MinShouldMatch++
	}
	return plan
}

// Empty reports whether the plan can match nothing.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}
