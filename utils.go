package cellchar

// getResultString returns a string representing an arc outcome
func getResultString(ok bool) string {
	if ok {
		return "✓ pass"
	}
	return "✗ fail"
}
