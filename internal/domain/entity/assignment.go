package entity

import (
	"time"

	"github.com/google/uuid"
)

// DayFormat is the calendar-date key format used for assignments,
// completions and journal entries ("YYYY-MM-DD", UTC).
const DayFormat = "2006-01-02"

// DayKey returns the calendar-date key for a point in time.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// ParseDay parses a calendar-date key back into a UTC midnight time.
func ParseDay(day string) (time.Time, error) {
	return time.Parse(DayFormat, day)
}

// DailyAssignment is the per-user, per-calendar-day activity selection.
// Exactly zero or one record exists per (UserID, Date); once created it is
// immutable except for the reroll, which may happen at most once and
// replaces the activity set while flipping RerollUsed false->true.
type DailyAssignment struct {
	UserID uuid.UUID
	Date   string // DayFormat, UTC

	ActivityIDs []string
	RerollUsed  bool

	CreatedAt time.Time
}

// Includes reports whether the assignment contains the given activity.
func (a *DailyAssignment) Includes(activityID string) bool {
	for _, id := range a.ActivityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}
