package service

import (
	"ritual-service/internal/domain/entity"
	"ritual-service/internal/infrastructure/catalog"

	"github.com/sirupsen/logrus"
)

// EligibilityFilter narrows the catalog to the activities a user may be
// assigned today. Filters relax progressively so the candidate set is never
// empty as long as the catalog has any entry at or below the user's tier.
type EligibilityFilter struct {
	catalog *catalog.Catalog
}

// NewEligibilityFilter creates an eligibility filter over a catalog.
func NewEligibilityFilter(cat *catalog.Catalog) *EligibilityFilter {
	return &EligibilityFilter{catalog: cat}
}

// Candidates returns the ordered candidate set for a user.
//
//  1. Keep activities whose minimum tier is at or below the user's tier.
//  2. Keep activities whose day-range contains daysSinceEnrollment; if that
//     empties the set, fall back to step 1's result.
//  3. Prefer activities whose affinity list names the user's archetype; if
//     none do, fall back to the archetype-unfiltered set.
//  4. If the set is still empty, return the tier's hard-coded fallback so
//     the resolver never fails to produce an assignment.
func (f *EligibilityFilter) Candidates(tier entity.Tier, archetype entity.Archetype, daysSinceEnrollment int) []*entity.ActivityDefinition {
	if !archetype.Known() {
		// ParseArchetype guards every entry point, so an unknown value here
		// means a code path skipped it. Treat as no-affinity rather than
		// letting it silently match nothing.
		logrus.WithField("archetype", int(archetype)).Warn("unknown archetype reached eligibility filter")
		archetype = entity.ArchetypeUnspecified
	}

	var byTier []*entity.ActivityDefinition
	for _, act := range f.catalog.All() {
		if act.MinTier <= tier {
			byTier = append(byTier, act)
		}
	}

	candidates := byTier
	var byDay []*entity.ActivityDefinition
	for _, act := range candidates {
		if act.DayRange == nil || act.DayRange.Contains(daysSinceEnrollment) {
			byDay = append(byDay, act)
		}
	}
	if len(byDay) > 0 {
		candidates = byDay
	}

	if archetype != entity.ArchetypeUnspecified {
		var byAffinity []*entity.ActivityDefinition
		for _, act := range candidates {
			if act.HasAffinity(archetype) {
				byAffinity = append(byAffinity, act)
			}
		}
		if len(byAffinity) > 0 {
			candidates = byAffinity
		}
	}

	if len(candidates) == 0 {
		return []*entity.ActivityDefinition{f.catalog.DefaultForTier(tier)}
	}
	return candidates
}
