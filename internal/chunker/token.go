package chunker

import "unicode/utf8"

// CharsPerToken approximates how many characters one model token covers
// for Dutch prose.
const CharsPerToken = 3.5

// EstimateTokens gives a rough token count from the character count.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	tokens := int(float64(n) / CharsPerToken)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// CharsForTokens converts a token budget to a character budget.
func CharsForTokens(tokens int) int {
	return int(float64(tokens) * CharsPerToken)
}
