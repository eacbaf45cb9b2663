package cron

import (
	"context"
	"fmt"
	"ritual-service/internal/domain/repository"
	"ritual-service/internal/infrastructure/metrics"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StreakLapseChecker periodically zeroes the stored current-streak counter
// for users whose last completion is more than one day old. Purely
// cosmetic hygiene: summaries already compute lapses at read time, and the
// next completion applies the streak rule regardless, so running this late
// or not at all never changes engine semantics.
type StreakLapseChecker struct {
	progressions repository.ProgressionRepository
	cron         *cron.Cron
	interval     time.Duration
}

// NewStreakLapseChecker creates a new lapse checker.
func NewStreakLapseChecker(progressions repository.ProgressionRepository, checkInterval time.Duration) *StreakLapseChecker {
	return &StreakLapseChecker{
		progressions: progressions,
		cron:         cron.New(),
		interval:     checkInterval,
	}
}

// Start starts the lapse checker.
func (c *StreakLapseChecker) Start() error {
	cronExpr := fmt.Sprintf("@every %s", c.interval.String())

	logrus.Infof("starting streak lapse checker with interval %s", c.interval)

	_, err := c.cron.AddFunc(cronExpr, func() {
		c.checkLapses()
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	c.cron.Start()
	return nil
}

// Stop stops the lapse checker.
func (c *StreakLapseChecker) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	logrus.Info("streak lapse checker stopped")
}

func (c *StreakLapseChecker) checkLapses() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A streak survives a gap of exactly one day (the completion may still
	// come later today), so the cutoff is yesterday.
	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	reset, err := c.progressions.ZeroLapsedStreaks(ctx, yesterday)
	if err != nil {
		logrus.WithError(err).Error("failed to zero lapsed streaks")
		return
	}
	if reset > 0 {
		metrics.LapsedStreaksReset.Add(float64(reset))
		logrus.Infof("zeroed %d lapsed streaks", reset)
	}
}
