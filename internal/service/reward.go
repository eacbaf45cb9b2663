package service

import "ritual-service/internal/domain/entity"

// RewardFor maps (activity, qualification) to the currency amounts minted.
// It is a lookup, not arithmetic: the weights live in the catalog so content
// authors control the balance, and a non-qualifying completion mints nothing
// while still counting as completed and journaled.
func RewardFor(activity *entity.ActivityDefinition, qualifies bool) (xp, gems int64) {
	if !qualifies {
		return 0, 0
	}
	return activity.XPReward, activity.GemReward
}
