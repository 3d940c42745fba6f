// Package damage classifies damage against thresholds and mitigates it
// with armor slots.
package damage

// Severity is the tier a damage amount falls into. Each tier marks a
// number of hit points equal to its ordinal.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityMajor
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	case SeveritySevere:
		return "severe"
	default:
		return "none"
	}
}

// Marks returns the hit points the tier marks before armor.
func (s Severity) Marks() int {
	if s < SeverityNone || s > SeveritySevere {
		return 0
	}
	return int(s)
}

// Thresholds are a target's damage breakpoints. A zero value means the
// tier floor is not configured and is treated as already met.
type Thresholds struct {
	Major  int
	Severe int
}

// ArmorState counts marked armor slots against capacity.
type ArmorState struct {
	Current int
	Max     int
}

// Available returns the slots left to mark, never negative.
func (a ArmorState) Available() int {
	return max(0, a.Max-a.Current)
}

// Classify maps a damage amount to a severity tier.
//
// Severe is checked before Major, so a severe threshold configured below
// the major one still wins for amounts that reach it.
func Classify(amount int, thresholds Thresholds) Severity {
	if amount <= 0 {
		return SeverityNone
	}
	if thresholds.Severe == 0 || amount >= thresholds.Severe {
		return SeveritySevere
	}
	if thresholds.Major == 0 || amount >= thresholds.Major {
		return SeverityMajor
	}
	return SeverityMinor
}

// Mitigate spends up to requestedSlots armor slots, bounded by remaining
// capacity, reducing tierDelta by one per slot.
func Mitigate(tierDelta, requestedSlots int, armor ArmorState) (finalDelta, appliedSlots int) {
	appliedSlots = max(0, min(requestedSlots, armor.Available()))
	finalDelta = max(0, tierDelta-appliedSlots)
	return finalDelta, appliedSlots
}

// Evaluation is a classified and mitigated damage amount.
type Evaluation struct {
	Amount       int
	Severity     Severity
	Marks        int
	ArmorApplied int
	FinalMarks   int
}

// Evaluate classifies amount and then mitigates the resulting marks.
func Evaluate(amount int, thresholds Thresholds, requestedSlots int, armor ArmorState) Evaluation {
	severity := Classify(amount, thresholds)
	final, applied := Mitigate(severity.Marks(), requestedSlots, armor)
	return Evaluation{
		Amount:       amount,
		Severity:     severity,
		Marks:        severity.Marks(),
		ArmorApplied: applied,
		FinalMarks:   final,
	}
}
