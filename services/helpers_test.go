package services

import (
	"context"
	"fmt"
	"testing"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testCatalogYAML = `
competencies:
  - id: 1
    name: Communication
    max_level: 5
    skills:
      - id: 11
        name: Public speaking
        max_level: 3
artifacts:
  - id: 1
    title: Golden Compass
    rarity: rare
ranks:
  - id: 1
    name: Cadet
    required_xp: 0
  - id: 2
    name: Navigator
    required_xp: 100
  - id: 3
    name: Captain
    required_xp: 300
missions:
  - id: 1
    title: Meet the team
    reward_xp: 60
    reward_mana: 10
    rank: 1
    tasks:
      - id: 101
        title: Say hello
      - id: 102
        title: Book a coffee
    reward_artifacts: [1]
    reward_competencies:
      - competency: 1
        level_increase: 2
    reward_skills:
      - skill: 11
        level_increase: 1
  - id: 2
    title: Read the handbook
    reward_xp: 50
    rank: 1
    tasks:
      - id: 201
        title: Read it
  - id: 3
    title: Lead a standup
    reward_xp: 100
    rank: 2
chains:
  - id: 1
    name: First week
    reward_xp: 40
    reward_mana: 5
    missions:
      - mission: 1
        order: 1
      - mission: 2
        order: 2
        requires: [1]
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

type testEnv struct {
	db       *gorm.DB
	catalog  *CatalogService
	events   *ProgressEventService
	progress *ProgressionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := logger.Nop()
	catalog := NewCatalogService(db, log)

	seed, err := ParseSeed([]byte(testCatalogYAML))
	require.NoError(t, err)
	require.NoError(t, catalog.Seed(context.Background(), seed))

	events := NewProgressEventService(db, log)
	return &testEnv{
		db:       db,
		catalog:  catalog,
		events:   events,
		progress: NewProgressionService(db, catalog, events, log),
	}
}

// finishTasks ticks every task of a mission.
func (e *testEnv) finishTasks(t *testing.T, login string, missionID uint, taskIDs ...uint) {
	t.Helper()
	for _, id := range taskIDs {
		_, err := e.progress.ToggleTask(context.Background(), login, missionID, id, true)
		require.NoError(t, err)
	}
}

func (e *testEnv) outbox(t *testing.T) []models.RewardSync {
	t.Helper()
	var rows []models.RewardSync
	require.NoError(t, e.db.Order("seq ASC").Find(&rows).Error)
	return rows
}
