package model

// EstimateTokens approximates the token cost of a text without a tokenizer
// round-trip. Uses the conventional ~4 characters per token heuristic, with
// a floor of 1 for non-empty text so that no rendering is ever free.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	n := (len(s) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}
