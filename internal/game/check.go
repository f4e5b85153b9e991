package game

// Check reports whether selected matches correct token for token.
// Comparison is exact: ordered, case-sensitive, no trimming.
func Check(selected, correct []string) bool {
	if len(selected) != len(correct) {
		return false
	}
	for i := range selected {
		if selected[i] != correct[i] {
			return false
		}
	}
	return true
}
