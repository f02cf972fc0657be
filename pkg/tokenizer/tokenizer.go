// Package tokenizer sizes production summaries against a model's context
// budget. Counts are estimates; no real tokenizer is consulted.
package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// Separator is written between the blocks joined by FormatWithBudget.
const Separator = "\n---\n"

// separatorTokens is what Separator costs against a budget.
const separatorTokens = 2

// EstimateTokens blends a per-word and a per-character estimate
// (~1.3 tokens per word, ~4 characters per token). Characters are counted
// as runes, so accented titles and names are not overcounted.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := utf8.RuneCountInString(text)

	wordEstimate := int(float64(words) * 1.3)
	charEstimate := chars / 4

	return (wordEstimate + charEstimate) / 2
}

// TruncateToTokenBudget shortens text to roughly budget tokens, cutting at
// a word boundary when one falls in the second half and appending "...".
// The cut never splits a rune.
func TruncateToTokenBudget(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if EstimateTokens(text) <= budget {
		return text
	}

	runes := []rune(text)
	maxRunes := budget * 4
	if maxRunes >= len(runes) {
		return text
	}

	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;") + "..."
}

// FormatWithBudget joins whole blocks, in order, with Separator until the
// next one would exceed budget. A block is never cut, so XML-delimited
// blocks stay well formed. Returns the text and how many blocks fit.
func FormatWithBudget(blocks []string, budget int) (string, int) {
	if budget <= 0 || len(blocks) == 0 {
		return "", 0
	}

	var b strings.Builder
	count, used := 0, 0
	for _, block := range blocks {
		cost := EstimateTokens(block) + separatorTokens
		if used+cost > budget {
			break
		}
		if count > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(block)
		used += cost
		count++
	}
	return b.String(), count
}
