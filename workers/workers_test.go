package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

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

func queueRow(t *testing.T, db *gorm.DB, login, payload string, created time.Time) models.RewardSync {
	t.Helper()
	row := models.RewardSync{
		ID:         uuid.NewString(),
		PilotLogin: login,
		Operation:  services.SyncCompleteMission,
		Payload:    payload,
		Status:     models.RewardSyncPending,
		CreatedAt:  created,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestRewardSyncWorkerDeliversPending(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	first := queueRow(t, db, "alice", `{"operation":"complete_mission","login":"alice"}`, now.Add(-2*time.Minute))
	second := queueRow(t, db, "bob", `{"operation":"complete_mission","login":"bob"}`, now.Add(-time.Minute))

	var mu sync.Mutex
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/progress/events", r.URL.Path)
		assert.Equal(t, "svc", r.Header.Get("X-Service-Token"))
		body, _ := io.ReadAll(r.Body)
		assert.True(t, json.Valid(body))

		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()

		if r.Header.Get("Idempotency-Key") == second.ID {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	w := NewRewardSyncWorker(services.NewRewardSyncStore(db), srv.URL, "svc", srv.Client(), logger.Nop())
	synced, failed, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{first.ID, second.ID}, keys, "oldest first")

	var got models.RewardSync
	require.NoError(t, db.First(&got, "id = ?", first.ID).Error)
	assert.Equal(t, models.RewardSyncSynced, got.Status)
	assert.NotNil(t, got.SyncedAt)

	require.NoError(t, db.First(&got, "id = ?", second.ID).Error)
	assert.Equal(t, models.RewardSyncPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "503")
}

func TestRewardSyncWorkerNothingPending(t *testing.T) {
	db := newTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	w := NewRewardSyncWorker(services.NewRewardSyncStore(db), srv.URL, "svc", srv.Client(), logger.Nop())
	synced, failed, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, synced)
	assert.Zero(t, failed)
}

func TestRewardSyncWorkerUnreachable(t *testing.T) {
	db := newTestDB(t)
	row := queueRow(t, db, "alice", `{}`, time.Now())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	w := NewRewardSyncWorker(services.NewRewardSyncStore(db), url, "svc", &http.Client{Timeout: time.Second}, logger.Nop())
	_, failed, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	var got models.RewardSync
	require.NoError(t, db.First(&got, "id = ?", row.ID).Error)
	assert.Equal(t, 1, got.Attempts)
	assert.NotEmpty(t, got.LastError)
}

func TestRewardSyncWorkerKeepsPilotOrder(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	first := queueRow(t, db, "alice", `{"login":"alice","xp":60}`, now.Add(-3*time.Minute))
	queueRow(t, db, "alice", `{"login":"alice","xp":110}`, now.Add(-2*time.Minute))
	queueRow(t, db, "bob", `{"login":"bob","xp":50}`, now.Add(-time.Minute))

	var mu sync.Mutex
	var delivered []string
	outage := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Login string `json:"login"`
			XP    int64  `json:"xp"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		defer mu.Unlock()
		if outage && r.Header.Get("Idempotency-Key") == first.ID {
			outage = false
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		delivered = append(delivered, fmt.Sprintf("%s:%d", body.Login, body.XP))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewRewardSyncWorker(services.NewRewardSyncStore(db), srv.URL, "svc", srv.Client(), logger.Nop())
	synced, failed, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, synced, "only bob goes through")
	assert.Equal(t, 1, failed)

	synced, failed, err = w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Zero(t, failed)

	assert.Equal(t, []string{"bob:50", "alice:60", "alice:110"}, delivered)
}

type recordingUpdater struct {
	profiles []services.Profile
	failFor  string
}

func (r *recordingUpdater) UpdateProfile(_ context.Context, p services.Profile) error {
	if p.Login == r.failFor {
		return errors.New("db down")
	}
	r.profiles = append(r.profiles, p)
	return nil
}

func TestProfileSyncWorkerAdvancesCursor(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var sinces []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/public/profiles", r.URL.Path)
		assert.Equal(t, "svc", r.Header.Get("X-Service-Token"))
		sinces = append(sinces, r.URL.Query().Get("since"))
		if len(sinces) > 1 {
			_ = json.NewEncoder(w).Encode(profileChangesResponse{})
			return
		}
		_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: []RemoteProfile{
			{Login: "alice", FirstName: "Alice", LastName: "Liddell", Role: "engineer", UpdatedAt: updated},
			{Login: "", FirstName: "Nobody"},
		}})
	}))
	defer srv.Close()

	pilots := &recordingUpdater{}
	w := NewProfileSyncWorker(pilots, srv.URL, "svc", srv.Client(), logger.Nop())

	n, err := w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pilots.profiles, 1)
	assert.Equal(t, services.Profile{Login: "alice", FirstName: "Alice", LastName: "Liddell", Role: "engineer"}, pilots.profiles[0])

	n, err = w.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, sinces, 2)
	assert.Equal(t, time.Time{}.Format(time.RFC3339), sinces[0])
	assert.Equal(t, updated.Format(time.RFC3339), sinces[1])
}

func TestProfileSyncWorkerKeepsCursorOnFailure(t *testing.T) {
	var sinces []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sinces = append(sinces, r.URL.Query().Get("since"))
		_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: []RemoteProfile{
			{Login: "alice", UpdatedAt: time.Now()},
			{Login: "bob", UpdatedAt: time.Now()},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(&recordingUpdater{failFor: "bob"}, srv.URL, "svc", srv.Client(), logger.Nop())
	_, err := w.SyncOnce(context.Background())
	assert.Error(t, err)
	_, err = w.SyncOnce(context.Background())
	assert.Error(t, err)

	require.Len(t, sinces, 2)
	assert.Equal(t, sinces[0], sinces[1])
}

func TestProfileSyncWorkerUpdatesPilots(t *testing.T) {
	db := newTestDB(t)
	log := logger.Nop()
	catalog := services.NewCatalogService(db, log)
	seed, err := services.ParseSeed([]byte("ranks: [{id: 1, name: Cadet}]"))
	require.NoError(t, err)
	require.NoError(t, catalog.Seed(context.Background(), seed))
	progress := services.NewProgressionService(db, catalog, services.NewProgressEventService(db, log), log)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: []RemoteProfile{
			{Login: "carol", FirstName: "Carol", LastName: "Danvers", Role: "pilot", UpdatedAt: time.Now()},
		}})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(progress, srv.URL, "svc", srv.Client(), log)
	_, err = w.SyncOnce(context.Background())
	require.NoError(t, err)

	var pilot models.Pilot
	require.NoError(t, db.First(&pilot, "login = ?", "carol").Error)
	assert.Equal(t, "Carol", pilot.FirstName)
	assert.Equal(t, "pilot", pilot.Role)
	assert.Equal(t, uint(1), pilot.RankID)
}
