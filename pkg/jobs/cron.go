package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepMetrics counts sweep runs
type SweepMetrics interface {
	RecordPendingSweepRun()
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron    *cron.Cron
	sweeper *PendingSweeper
	logger  *log.Logger
	metrics SweepMetrics
}

// NewCronManager creates a new cron manager
func NewCronManager(sweeper *PendingSweeper, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}

	return &CronManager{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
	}
}

// SetMetrics sets the metrics recorder.
func (cm *CronManager) SetMetrics(m SweepMetrics) {
	cm.metrics = m
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs(sweepSchedule string) error {
	cm.logger.Println("Setting up cron jobs...")

	_, err := cm.cron.AddFunc(sweepSchedule, func() {
		cm.logger.Println("🕐 Running pending-order sweep...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if cm.metrics != nil {
			cm.metrics.RecordPendingSweepRun()
		}

		recovered, err := cm.sweeper.Run(ctx)
		if err != nil {
			cm.logger.Printf("❌ Pending-order sweep failed: %v", err)
			return
		}

		if recovered > 0 {
			cm.logger.Printf("✅ Pending-order sweep settled %d orders", recovered)
		} else {
			cm.logger.Println("✅ Pending-order sweep found nothing to settle")
		}
	})

	if err != nil {
		return err
	}

	cm.logger.Println("✅ Cron jobs configured successfully")
	cm.logger.Printf("  - %s: Pending-order sweep", sweepSchedule)

	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("🛑 Stopping cron scheduler...")
	cm.cron.Stop()
}
