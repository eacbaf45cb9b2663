package entity

import "errors"

// Sentinel errors shared across the engine. Handlers translate these to
// client-facing status codes; everything else is treated as transient.
var (
	// ErrRerollAlreadyUsed: the single daily reroll was already spent.
	ErrRerollAlreadyUsed = errors.New("reroll already used for this day")

	// ErrAlreadyCompleted: a completion record already exists for the
	// (user, date, activity) key; rewards are never granted twice.
	ErrAlreadyCompleted = errors.New("activity already completed")

	// ErrNoEligibleActivity: the catalog has no entry at or below the
	// user's tier. Unreachable with a sane catalog; treated as a fatal
	// configuration error, not a per-request failure.
	ErrNoEligibleActivity = errors.New("no eligible activity in catalog")

	// ErrAssignmentNotFound: reroll or completion attempted before
	// today's assignment was created.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrActivityNotAssigned: the completed activity is not part of
	// today's assignment.
	ErrActivityNotAssigned = errors.New("activity is not part of today's assignment")

	// ErrProgressionNotFound: no progression record exists for the user.
	ErrProgressionNotFound = errors.New("progression not found")

	// ErrJournalNotFound: no journal entry exists for the key.
	ErrJournalNotFound = errors.New("journal entry not found")
)
