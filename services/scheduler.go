package services

import (
	"context"
	"fmt"
	"time"

	"pilot-progress-system/logger"

	"github.com/go-co-op/gocron/v2"
)

// Job is a periodic background task.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// StartScheduler runs every job once right away and then on its interval. A
// job still running when its next tick fires is rescheduled rather than
// stacked.
func StartScheduler(ctx context.Context, log *logger.Logger, jobs ...Job) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	for _, job := range jobs {
		job := job
		_, err := sched.NewJob(
			gocron.DurationJob(job.Every),
			gocron.NewTask(func() {
				if err := job.Run(ctx); err != nil {
					log.Warn("[Scheduler] job failed", "job", job.Name, "error", err)
				}
			}),
			gocron.WithName(job.Name),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return nil, fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		log.Info("⏱️ job scheduled", "job", job.Name, "every", job.Every.String())
	}

	sched.Start()
	return sched, nil
}

// CatalogRefreshJob reloads the catalog so admin edits made by other
// instances become visible.
func CatalogRefreshJob(catalog *CatalogService, every time.Duration) Job {
	return Job{Name: "catalog-refresh", Every: every, Run: catalog.Refresh}
}
