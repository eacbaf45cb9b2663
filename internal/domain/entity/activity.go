package entity

import "fmt"

// Tier represents the subscription level of a user. Tiers are totally
// ordered: TierFree < TierPlus < TierPremium.
type Tier int

const (
	TierFree Tier = iota
	TierPlus
	TierPremium
)

// ParseTier parses a tier name as stored in the database or catalog file.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "free":
		return TierFree, nil
	case "plus":
		return TierPlus, nil
	case "premium":
		return TierPremium, nil
	default:
		return TierFree, fmt.Errorf("unknown tier %q", s)
	}
}

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPlus:
		return "plus"
	case TierPremium:
		return "premium"
	default:
		return "free"
	}
}

// AllowsJournalTags reports whether the tier unlocks journal tagging.
func (t Tier) AllowsJournalTags() bool {
	return t >= TierPlus
}

// DailyActivityCount returns how many activities the tier is assigned per day.
func (t Tier) DailyActivityCount(premiumCount int) int {
	if t == TierPremium && premiumCount > 1 {
		return premiumCount
	}
	return 1
}

// Difficulty is the ordinal effort level of an activity.
type Difficulty int

const (
	DifficultyLow Difficulty = iota
	DifficultyMedium
	DifficultyHigh
)

// ParseDifficulty parses a difficulty name as stored in the catalog file.
func ParseDifficulty(s string) (Difficulty, error) {
	switch s {
	case "low":
		return DifficultyLow, nil
	case "medium":
		return DifficultyMedium, nil
	case "high":
		return DifficultyHigh, nil
	default:
		return DifficultyLow, fmt.Errorf("unknown difficulty %q", s)
	}
}

func (d Difficulty) String() string {
	switch d {
	case DifficultyLow:
		return "low"
	case DifficultyMedium:
		return "medium"
	case DifficultyHigh:
		return "high"
	default:
		return "low"
	}
}

// Archetype is the behavioral classification assigned during onboarding.
// It is a closed enumeration; callers must go through ParseArchetype so a
// value that is not listed here can never reach the eligibility filter.
type Archetype int

const (
	ArchetypeUnspecified Archetype = iota
	ArchetypeExplorer
	ArchetypeNurturer
	ArchetypeWarrior
	ArchetypeSage
)

// ParseArchetype parses an archetype name. Unknown names map to
// ArchetypeUnspecified and an error, so new classifications surface loudly
// instead of silently matching nothing.
func ParseArchetype(s string) (Archetype, error) {
	switch s {
	case "", "unspecified":
		return ArchetypeUnspecified, nil
	case "explorer":
		return ArchetypeExplorer, nil
	case "nurturer":
		return ArchetypeNurturer, nil
	case "warrior":
		return ArchetypeWarrior, nil
	case "sage":
		return ArchetypeSage, nil
	default:
		return ArchetypeUnspecified, fmt.Errorf("unknown archetype %q", s)
	}
}

func (a Archetype) String() string {
	switch a {
	case ArchetypeExplorer:
		return "explorer"
	case ArchetypeNurturer:
		return "nurturer"
	case ArchetypeWarrior:
		return "warrior"
	case ArchetypeSage:
		return "sage"
	default:
		return "unspecified"
	}
}

// Known reports whether the archetype is one of the enumerated values.
func (a Archetype) Known() bool {
	switch a {
	case ArchetypeUnspecified, ArchetypeExplorer, ArchetypeNurturer, ArchetypeWarrior, ArchetypeSage:
		return true
	default:
		return false
	}
}

// DayRange restricts an activity to a window of days since enrollment,
// inclusive on both ends.
type DayRange struct {
	MinDay int
	MaxDay int
}

// Contains reports whether day falls inside the range.
func (r DayRange) Contains(day int) bool {
	return day >= r.MinDay && day <= r.MaxDay
}

// ActivityDefinition is one entry of the activity catalog. The catalog is
// authored out-of-band and immutable at runtime; reward weights are part of
// the catalog data so content authors control the balance.
type ActivityDefinition struct {
	ID          string
	Title       string
	Description string
	Category    string

	Difficulty      Difficulty
	DurationMinutes int32

	// Eligibility constraints
	MinTier  Tier
	Affinity []Archetype // empty means no archetype preference
	DayRange *DayRange   // nil means valid on any day

	// Reward weights minted on a qualifying completion
	XPReward  int64
	GemReward int64
}

// HasAffinity reports whether the activity names the given archetype in its
// affinity list. An empty list never matches; the eligibility filter treats
// that case separately.
func (a *ActivityDefinition) HasAffinity(arch Archetype) bool {
	for _, aa := range a.Affinity {
		if aa == arch {
			return true
		}
	}
	return false
}
