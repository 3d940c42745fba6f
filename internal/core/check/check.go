// Package check resolves roll totals against an optional difficulty.
package check

// Result is a resolved difficulty check.
type Result struct {
	// Checked is false when no difficulty applied.
	Checked bool
	Success bool
	// Margin is total minus difficulty, zero when unchecked.
	Margin int
}

// Against checks total against difficulty. A nil difficulty always
// succeeds unchecked.
func Against(total int, difficulty *int) Result {
	if difficulty == nil {
		return Result{Success: true}
	}
	margin := total - *difficulty
	return Result{Checked: true, Success: margin >= 0, Margin: margin}
}
