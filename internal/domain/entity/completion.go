package entity

import (
	"time"

	"github.com/google/uuid"
)

// CompletionRecord is a single completion attempt for an assigned activity.
// At most one record exists per (UserID, Date, ActivityID); a second attempt
// for the same key is rejected and never re-grants rewards.
type CompletionRecord struct {
	UserID     uuid.UUID
	Date       string // DayFormat, UTC; the assignment date
	ActivityID string

	EngagementSeconds int32
	ReflectionChars   int32
	Mood              int32

	Qualifies   bool
	XPGranted   int64
	GemsGranted int64

	CompletedAt time.Time
}
