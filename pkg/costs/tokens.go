package costs

// EstimateTokens approximates the token count of a text using the rough
// 4-characters-per-token rule. It is used for pre-call cost ranking and for
// charging embedding calls; actual billing uses the token counts reported by
// the backend.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		return 1
	}
	return n
}
