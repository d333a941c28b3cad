// File: internal/jobs/feed_retention.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/shuvam-shrestha/famnotify/internal/config"
	"github.com/shuvam-shrestha/famnotify/internal/feed"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// FeedRetentionJob periodically enforces the store-level "keep latest N"
// retention policy on the remote feed store. Items are never deleted
// individually by the rest of the system.
type FeedRetentionJob struct {
	store         feed.Store
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
}

// NewFeedRetentionJob creates a new FeedRetentionJob.
func NewFeedRetentionJob(
	store feed.Store,
	logger *zap.Logger,
	cfg *config.Config,
) *FeedRetentionJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &FeedRetentionJob{
		store:         store,
		logger:        logger.Named("FeedRetentionJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *FeedRetentionJob) SetupAndStart() error {
	jobSpec := j.cfg.FeedRetentionSchedule // e.g., "@hourly", "0 3 * * *"
	if jobSpec == "" {
		j.logger.Warn("Feed retention job schedule not defined (FEED_RETENTION_JOB_SCHEDULE). Job will not run.")
		return nil // Not a fatal error, just won't run
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule feed retention job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Feed retention job scheduled",
		zap.String("spec", jobSpec),
		zap.Int("keep", j.cfg.FeedRetentionKeep),
		zap.Any("jobID", jobID),
	)
	j.cronScheduler.Start()
	return nil
}

// runJob is the actual work performed by the cron job.
func (j *FeedRetentionJob) runJob() {
	j.logger.Info("Starting feed retention job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := j.store.TrimToLatest(ctx, j.cfg.FeedRetentionKeep)
	if err != nil {
		j.logger.Error("Feed retention job run failed", zap.Error(err))
	} else {
		j.logger.Info("Feed retention job run completed", zap.Int64("records_removed", removed))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *FeedRetentionJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping feed retention job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Feed retention job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Feed retention job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	cl.zl.Info(msg, fields...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
