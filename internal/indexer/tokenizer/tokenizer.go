// Package tokenizer provides text tokenisation for translation-memory
// stores. It lower-cases input and splits on non-alphanumeric boundaries,
// keeping token order. The same function is used when indexing and when
// querying; any divergence between the two silently breaks matching.
package tokenizer

import (
	"strings"
	"unicode"
)

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lowercased Tokens in left-to-right order. Empty
// or all-punctuation input yields no tokens.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), isSeparator)
	if len(words) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(words))
	for _, word := range words {
		tokens = append(tokens, Token{
			Term:     word,
			Position: len(tokens),
		})
	}
	return tokens
}

// Terms returns only the term strings of Tokenize(text), in order.
func Terms(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Reconstruct joins token terms back into a single space-separated string.
// Tokenize(Reconstruct(Tokenize(s))) equals Tokenize(s).
func Reconstruct(tokens []Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Term)
	}
	return sb.String()
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
