package service

import "unicode/utf8"

// QualityGate holds the minimum-effort thresholds a completion must meet to
// mint rewards. Both values are configuration, not fixed law; the mood value
// is stored but never gates.
type QualityGate struct {
	MinEngagementSeconds int32
	MinReflectionChars   int32
}

// Qualifies reports whether a completion attempt clears both thresholds.
func (g QualityGate) Qualifies(engagementSeconds int32, reflectionText string) bool {
	if engagementSeconds < g.MinEngagementSeconds {
		return false
	}
	return int32(utf8.RuneCountInString(reflectionText)) >= g.MinReflectionChars
}
