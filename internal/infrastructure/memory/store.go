// Package memory provides an in-process implementation of the engine's
// repositories with the same atomicity contract as the postgres ones. It
// backs unit tests and local development without a database.
package memory

import (
	"context"
	"ritual-service/internal/domain/entity"
	"ritual-service/internal/domain/repository"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type assignmentKey struct {
	userID uuid.UUID
	date   string
}

type recordKey struct {
	userID     uuid.UUID
	date       string
	activityID string
}

// Store holds all engine state behind one mutex, which gives every
// operation the single-atomic-step semantics the engine relies on. The
// repository views share the same lock.
type Store struct {
	mu           sync.Mutex
	assignments  map[assignmentKey]*entity.DailyAssignment
	completions  map[recordKey]*entity.CompletionRecord
	journals     map[recordKey]*entity.JournalEntry
	progressions map[uuid.UUID]*entity.UserProgression
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		assignments:  make(map[assignmentKey]*entity.DailyAssignment),
		completions:  make(map[recordKey]*entity.CompletionRecord),
		journals:     make(map[recordKey]*entity.JournalEntry),
		progressions: make(map[uuid.UUID]*entity.UserProgression),
	}
}

// Assignments returns the assignment repository view.
func (s *Store) Assignments() repository.AssignmentRepository { return assignmentStore{s} }

// Completions returns the completion repository view.
func (s *Store) Completions() repository.CompletionRepository { return completionStore{s} }

// Journals returns the journal repository view.
func (s *Store) Journals() repository.JournalRepository { return journalStore{s} }

// Progressions returns the progression repository view.
func (s *Store) Progressions() repository.ProgressionRepository { return progressionStore{s} }

// SetProfile overrides tier, archetype and enrollment time for a user.
// Used by tests and local seeding.
func (s *Store) SetProfile(userID uuid.UUID, tier entity.Tier, archetype entity.Archetype, enrolledAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progression, ok := s.progressions[userID]
	if !ok {
		now := time.Now().UTC()
		progression = &entity.UserProgression{UserID: userID, CreatedAt: now, UpdatedAt: now}
		s.progressions[userID] = progression
	}
	progression.Tier = tier
	progression.Archetype = archetype
	progression.EnrolledAt = enrolledAt
}

type assignmentStore struct{ s *Store }

func (v assignmentStore) CreateIfAbsent(ctx context.Context, assignment *entity.DailyAssignment) (*entity.DailyAssignment, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	key := assignmentKey{assignment.UserID, assignment.Date}
	if existing, ok := v.s.assignments[key]; ok {
		return copyAssignment(existing), false, nil
	}
	v.s.assignments[key] = copyAssignment(assignment)
	return copyAssignment(assignment), true, nil
}

func (v assignmentStore) Get(ctx context.Context, userID uuid.UUID, date string) (*entity.DailyAssignment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	assignment, ok := v.s.assignments[assignmentKey{userID, date}]
	if !ok {
		return nil, entity.ErrAssignmentNotFound
	}
	return copyAssignment(assignment), nil
}

func (v assignmentStore) MarkRerolled(ctx context.Context, userID uuid.UUID, date string, activityIDs []string) (*entity.DailyAssignment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	assignment, ok := v.s.assignments[assignmentKey{userID, date}]
	if !ok {
		return nil, entity.ErrAssignmentNotFound
	}
	if assignment.RerollUsed {
		return nil, entity.ErrRerollAlreadyUsed
	}
	assignment.ActivityIDs = append([]string(nil), activityIDs...)
	assignment.RerollUsed = true
	return copyAssignment(assignment), nil
}

type completionStore struct{ s *Store }

func (v completionStore) CreateIfAbsent(ctx context.Context, record *entity.CompletionRecord) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	key := recordKey{record.UserID, record.Date, record.ActivityID}
	if _, ok := v.s.completions[key]; ok {
		return false, nil
	}
	copied := *record
	v.s.completions[key] = &copied
	return true, nil
}

func (v completionStore) GetByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*entity.CompletionRecord, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if limit <= 0 {
		limit = 30
	}

	var records []*entity.CompletionRecord
	for key, record := range v.s.completions {
		if key.userID == userID {
			copied := *record
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})

	if int(offset) >= len(records) {
		return nil, nil
	}
	records = records[offset:]
	if int(limit) < len(records) {
		records = records[:limit]
	}
	return records, nil
}

func (v completionStore) CountByUser(ctx context.Context, userID uuid.UUID) (int32, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var count int32
	for key := range v.s.completions {
		if key.userID == userID {
			count++
		}
	}
	return count, nil
}

type journalStore struct{ s *Store }

func (v journalStore) Upsert(ctx context.Context, entry *entity.JournalEntry) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	key := recordKey{entry.UserID, entry.Date, entry.ActivityID}
	copied := *entry
	copied.Tags = append([]string(nil), entry.Tags...)
	if existing, ok := v.s.journals[key]; ok {
		copied.CreatedAt = existing.CreatedAt
	}
	v.s.journals[key] = &copied
	return nil
}

func (v journalStore) Get(ctx context.Context, userID uuid.UUID, date, activityID string) (*entity.JournalEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	entry, ok := v.s.journals[recordKey{userID, date, activityID}]
	if !ok {
		return nil, entity.ErrJournalNotFound
	}
	copied := *entry
	copied.Tags = append([]string(nil), entry.Tags...)
	return &copied, nil
}

type progressionStore struct{ s *Store }

func (v progressionStore) Get(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	progression, ok := v.s.progressions[userID]
	if !ok {
		return nil, entity.ErrProgressionNotFound
	}
	return copyProgression(progression), nil
}

func (v progressionStore) GetOrEnroll(ctx context.Context, userID uuid.UUID) (*entity.UserProgression, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	if progression, ok := v.s.progressions[userID]; ok {
		return copyProgression(progression), nil
	}
	now := time.Now().UTC()
	progression := &entity.UserProgression{
		UserID:     userID,
		Tier:       entity.TierFree,
		Archetype:  entity.ArchetypeUnspecified,
		EnrolledAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	v.s.progressions[userID] = progression
	return copyProgression(progression), nil
}

func (v progressionStore) ApplyCompletionCredit(ctx context.Context, userID uuid.UUID, completionDay time.Time, xp, gems int64) (*entity.UserProgression, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	progression, ok := v.s.progressions[userID]
	if !ok {
		return nil, entity.ErrProgressionNotFound
	}
	progression.XPTotal += xp
	progression.GemTotal += gems
	progression.ApplyCompletion(completionDay)
	progression.UpdatedAt = time.Now().UTC()
	return copyProgression(progression), nil
}

func (v progressionStore) ZeroLapsedStreaks(ctx context.Context, before time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	cutoff, err := entity.ParseDay(entity.DayKey(before))
	if err != nil {
		return 0, err
	}

	var reset int64
	for _, progression := range v.s.progressions {
		if progression.CurrentStreak == 0 {
			continue
		}
		if progression.LastCompletionDate == nil || progression.LastCompletionDate.Before(cutoff) {
			progression.CurrentStreak = 0
			reset++
		}
	}
	return reset, nil
}

func copyAssignment(a *entity.DailyAssignment) *entity.DailyAssignment {
	copied := *a
	copied.ActivityIDs = append([]string(nil), a.ActivityIDs...)
	return &copied
}

func copyProgression(p *entity.UserProgression) *entity.UserProgression {
	copied := *p
	if p.LastCompletionDate != nil {
		last := *p.LastCompletionDate
		copied.LastCompletionDate = &last
	}
	return &copied
}
