package catalog

import "ritual-service/internal/domain/entity"

// defaultActivities is the compiled-in catalog. It mirrors the shape of the
// deployed catalog file and keeps the service usable when none is mounted.
func defaultActivities() []*entity.ActivityDefinition {
	return []*entity.ActivityDefinition{
		{
			ID:              "breath-anchor",
			Title:           "Anchored Breathing",
			Description:     "Three minutes of slow breathing, counting four in and six out.",
			Category:        "grounding",
			Difficulty:      entity.DifficultyLow,
			DurationMinutes: 3,
			MinTier:         entity.TierFree,
			XPReward:        10,
			GemReward:       1,
		},
		{
			ID:              "gratitude-three",
			Title:           "Three Good Things",
			Description:     "Write down three things that went well today and why.",
			Category:        "reflection",
			Difficulty:      entity.DifficultyLow,
			DurationMinutes: 5,
			MinTier:         entity.TierFree,
			Affinity:        []entity.Archetype{entity.ArchetypeNurturer, entity.ArchetypeSage},
			XPReward:        10,
			GemReward:       1,
		},
		{
			ID:              "first-steps-walk",
			Title:           "First Steps Walk",
			Description:     "A short mindful walk to mark the start of your practice.",
			Category:        "movement",
			Difficulty:      entity.DifficultyLow,
			DurationMinutes: 10,
			MinTier:         entity.TierFree,
			DayRange:        &entity.DayRange{MinDay: 1, MaxDay: 14},
			Affinity:        []entity.Archetype{entity.ArchetypeExplorer},
			XPReward:        12,
			GemReward:       1,
		},
		{
			ID:              "body-scan",
			Title:           "Evening Body Scan",
			Description:     "Move attention slowly from head to toe, noticing without fixing.",
			Category:        "grounding",
			Difficulty:      entity.DifficultyMedium,
			DurationMinutes: 12,
			MinTier:         entity.TierPlus,
			Affinity:        []entity.Archetype{entity.ArchetypeSage},
			XPReward:        20,
			GemReward:       2,
		},
		{
			ID:              "cold-morning",
			Title:           "Cold Morning Reset",
			Description:     "Thirty seconds of cold water to close, then note how it felt.",
			Category:        "resilience",
			Difficulty:      entity.DifficultyHigh,
			DurationMinutes: 5,
			MinTier:         entity.TierPlus,
			Affinity:        []entity.Archetype{entity.ArchetypeWarrior},
			XPReward:        35,
			GemReward:       4,
		},
		{
			ID:              "letter-unsent",
			Title:           "The Unsent Letter",
			Description:     "Write a letter you will never send to someone on your mind.",
			Category:        "reflection",
			Difficulty:      entity.DifficultyHigh,
			DurationMinutes: 20,
			MinTier:         entity.TierPremium,
			Affinity:        []entity.Archetype{entity.ArchetypeNurturer, entity.ArchetypeSage},
			XPReward:        40,
			GemReward:       5,
		},
	}
}
