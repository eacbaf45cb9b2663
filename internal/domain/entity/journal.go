package entity

import (
	"time"

	"github.com/google/uuid"
)

// JournalSource distinguishes how a reflection was produced.
type JournalSource string

const (
	JournalSourceTyped    JournalSource = "typed"
	JournalSourceDictated JournalSource = "dictated"
)

// JournalEntry is the free-text reflection tied to an assigned activity.
// One entry exists per (UserID, Date, ActivityID); a later submission for
// the same key overwrites the previous content. Its lifecycle is independent
// of reward qualification.
type JournalEntry struct {
	UserID     uuid.UUID
	Date       string // DayFormat, UTC; the assignment date
	ActivityID string

	Text   string
	Mood   int32
	Tags   []string // tier-gated; empty for free-tier users
	Source JournalSource

	CreatedAt time.Time
	UpdatedAt time.Time
}
