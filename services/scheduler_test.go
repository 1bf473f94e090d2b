package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pilot-progress-system/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSchedulerRunsJobs(t *testing.T) {
	var ok, failing atomic.Int32
	sched, err := StartScheduler(context.Background(), logger.Nop(),
		Job{Name: "ok", Every: 20 * time.Millisecond, Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
		Job{Name: "failing", Every: 20 * time.Millisecond, Run: func(context.Context) error {
			failing.Add(1)
			return errors.New("nope")
		}},
	)
	require.NoError(t, err)
	defer func() { _ = sched.Shutdown() }()

	assert.Eventually(t, func() bool {
		return ok.Load() >= 2 && failing.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCatalogRefreshJob(t *testing.T) {
	env := newTestEnv(t)
	job := CatalogRefreshJob(env.catalog, time.Minute)
	assert.Equal(t, "catalog-refresh", job.Name)

	require.NoError(t, env.db.Exec("UPDATE ranks SET name = ? WHERE id = ?", "Ensign", 1).Error)
	require.NoError(t, job.Run(context.Background()))

	cat, err := env.catalog.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ensign", cat.Ranks[0].Name)
}
