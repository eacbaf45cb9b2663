package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserProgression is the per-user progression record: currency totals,
// streak state and the eligibility inputs (tier, archetype, enrollment
// date). It is exclusively owned by the ritual engine.
type UserProgression struct {
	UserID uuid.UUID

	XPTotal  int64
	GemTotal int64

	CurrentStreak      int32
	LongestStreak      int32
	LastCompletionDate *time.Time // date-truncated UTC; nil before first completion

	Tier       Tier
	Archetype  Archetype
	EnrolledAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DaysSinceEnrollment returns the number of whole days between enrollment
// and now, starting at 1 on the enrollment day itself.
func (p *UserProgression) DaysSinceEnrollment(now time.Time) int {
	enrolled := truncateToDay(p.EnrolledAt)
	today := truncateToDay(now)
	return int(today.Sub(enrolled).Hours()/24) + 1
}

// ApplyCompletion applies the daily streak rule for a completion on the
// given day and returns true when the streak was credited. Streak credit is
// per calendar day: a second completion on the same day is a no-op.
//
//	gap == 0: already credited today, unchanged
//	gap == 1: consecutive day, streak extends
//	gap  > 1: continuity broken, streak restarts at 1
//	no previous completion: streak starts at 1
func (p *UserProgression) ApplyCompletion(day time.Time) bool {
	today := truncateToDay(day)

	if p.LastCompletionDate != nil {
		last := truncateToDay(*p.LastCompletionDate)
		gap := int(today.Sub(last).Hours() / 24)

		switch {
		case gap <= 0:
			return false
		case gap == 1:
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	} else {
		p.CurrentStreak = 1
	}

	p.LastCompletionDate = &today
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	return true
}

// EffectiveStreak returns the streak as it should be displayed today: a
// streak whose last completion is more than one day old has lapsed and
// reads as zero, even though the stored counter is only rewritten on the
// next completion.
func (p *UserProgression) EffectiveStreak(now time.Time) int32 {
	if p.LastCompletionDate == nil {
		return 0
	}
	gap := int(truncateToDay(now).Sub(truncateToDay(*p.LastCompletionDate)).Hours() / 24)
	if gap > 1 {
		return 0
	}
	return p.CurrentStreak
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
