package catalog

import (
	"fmt"
	"os"
	"ritual-service/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Catalog is the immutable, in-memory activity catalog. It is loaded once at
// startup; user actions never mutate it.
type Catalog struct {
	activities []*entity.ActivityDefinition
	byID       map[string]*entity.ActivityDefinition
	defaults   map[entity.Tier]*entity.ActivityDefinition
}

type activityFile struct {
	Activities []activityYAML `yaml:"activities"`
}

type activityYAML struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Category        string   `yaml:"category"`
	Difficulty      string   `yaml:"difficulty"`
	DurationMinutes int32    `yaml:"duration_minutes"`
	MinTier         string   `yaml:"min_tier"`
	Affinity        []string `yaml:"affinity"`
	MinDay          *int     `yaml:"min_day"`
	MaxDay          *int     `yaml:"max_day"`
	XPReward        int64    `yaml:"xp_reward"`
	GemReward       int64    `yaml:"gem_reward"`
}

// Load reads the catalog from a YAML file and validates it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file activityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	if len(file.Activities) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no activities", path)
	}

	activities := make([]*entity.ActivityDefinition, 0, len(file.Activities))
	for i, raw := range file.Activities {
		act, err := raw.toEntity()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		activities = append(activities, act)
	}

	return New(activities)
}

// New builds a catalog from already-parsed definitions.
func New(activities []*entity.ActivityDefinition) (*Catalog, error) {
	c := &Catalog{
		activities: activities,
		byID:       make(map[string]*entity.ActivityDefinition, len(activities)),
		defaults:   make(map[entity.Tier]*entity.ActivityDefinition),
	}

	for _, act := range activities {
		if act.ID == "" {
			return nil, fmt.Errorf("activity with empty id")
		}
		if _, dup := c.byID[act.ID]; dup {
			return nil, fmt.Errorf("duplicate activity id %q", act.ID)
		}
		if act.XPReward < 0 || act.GemReward < 0 {
			return nil, fmt.Errorf("activity %q has negative reward", act.ID)
		}
		c.byID[act.ID] = act
	}

	// The per-tier fallback is the first unrestricted activity at or below
	// the tier; it guarantees the resolver can always produce an assignment.
	for _, tier := range []entity.Tier{entity.TierFree, entity.TierPlus, entity.TierPremium} {
		for _, act := range activities {
			if act.MinTier <= tier && act.DayRange == nil {
				c.defaults[tier] = act
				break
			}
		}
	}
	if c.defaults[entity.TierFree] == nil {
		return nil, fmt.Errorf("catalog has no unrestricted free-tier activity to fall back to")
	}

	return c, nil
}

// Default returns the compiled-in catalog used when no catalog file is
// configured.
func Default() *Catalog {
	c, err := New(defaultActivities())
	if err != nil {
		// defaultActivities is static data; this cannot fail at runtime.
		panic(err)
	}
	return c
}

// All returns every activity definition.
func (c *Catalog) All() []*entity.ActivityDefinition {
	return c.activities
}

// Get resolves an activity by id.
func (c *Catalog) Get(id string) (*entity.ActivityDefinition, bool) {
	act, ok := c.byID[id]
	return act, ok
}

// DefaultForTier returns the guaranteed fallback activity for a tier.
func (c *Catalog) DefaultForTier(tier entity.Tier) *entity.ActivityDefinition {
	if act, ok := c.defaults[tier]; ok {
		return act
	}
	return c.defaults[entity.TierFree]
}

// Len returns the number of activities in the catalog.
func (c *Catalog) Len() int {
	return len(c.activities)
}

func (raw activityYAML) toEntity() (*entity.ActivityDefinition, error) {
	difficulty, err := entity.ParseDifficulty(raw.Difficulty)
	if err != nil {
		return nil, err
	}

	minTier := entity.TierFree
	if raw.MinTier != "" {
		minTier, err = entity.ParseTier(raw.MinTier)
		if err != nil {
			return nil, err
		}
	}

	var affinity []entity.Archetype
	for _, name := range raw.Affinity {
		arch, err := entity.ParseArchetype(name)
		if err != nil {
			return nil, err
		}
		affinity = append(affinity, arch)
	}

	var dayRange *entity.DayRange
	if raw.MinDay != nil || raw.MaxDay != nil {
		if raw.MinDay == nil || raw.MaxDay == nil {
			return nil, fmt.Errorf("activity %q: min_day and max_day must be set together", raw.ID)
		}
		if *raw.MinDay > *raw.MaxDay {
			return nil, fmt.Errorf("activity %q: min_day > max_day", raw.ID)
		}
		dayRange = &entity.DayRange{MinDay: *raw.MinDay, MaxDay: *raw.MaxDay}
	}

	return &entity.ActivityDefinition{
		ID:              raw.ID,
		Title:           raw.Title,
		Description:     raw.Description,
		Category:        raw.Category,
		Difficulty:      difficulty,
		DurationMinutes: raw.DurationMinutes,
		MinTier:         minTier,
		Affinity:        affinity,
		DayRange:        dayRange,
		XPReward:        raw.XPReward,
		GemReward:       raw.GemReward,
	}, nil
}
