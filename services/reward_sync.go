package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Operations reported to the remote progression server.
const (
	SyncCompleteMission   = "complete_mission"
	SyncUncompleteMission = "uncomplete_mission"
	SyncApproveMission    = "approve_mission"
	SyncClaimChain        = "claim_chain"
	SyncGrantXP           = "grant_xp"
)

// MaxSyncAttempts is how many deliveries are tried before a row is marked failed.
const MaxSyncAttempts = 10

// syncRecord is the payload stored in the outbox and posted as-is.
type syncRecord struct {
	Operation string                     `json:"operation"`
	Login     string                     `json:"login"`
	MissionID uint                       `json:"mission_id,omitempty"`
	ChainID   uint                       `json:"chain_id,omitempty"`
	Reason    string                     `json:"reason,omitempty"`
	XP        int64                      `json:"xp"`
	Mana      int64                      `json:"mana"`
	RankID    uint                       `json:"rank_id"`
	Outcome   *progression.Outcome       `json:"-"`
	Summary   *progression.RewardSummary `json:"summary,omitempty"`
}

// enqueueSync stores rec with the pilot's post-transition totals.
func enqueueSync(tx *gorm.DB, u progression.User, rec syncRecord) error {
	login := u.Login
	rec.Login = login
	rec.XP = u.XP
	rec.Mana = u.Mana
	rec.RankID = u.RankID
	if rec.Outcome != nil {
		summary := rec.Outcome.Summary
		rec.Summary = &summary
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode sync payload: %w", err)
	}
	row := models.RewardSync{
		ID:         uuid.NewString(),
		PilotLogin: login,
		Operation:  rec.Operation,
		Payload:    string(raw),
		Status:     models.RewardSyncPending,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("queue reward sync: %w", err)
	}
	return nil
}

// RewardSyncStore is the outbox side the sync worker drains.
type RewardSyncStore struct {
	DB *gorm.DB
}

func NewRewardSyncStore(db *gorm.DB) *RewardSyncStore {
	return &RewardSyncStore{DB: db}
}

// Pending returns undelivered rows in the order they were queued.
func (s *RewardSyncStore) Pending(ctx context.Context, limit int) ([]models.RewardSync, error) {
	var rows []models.RewardSync
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.RewardSyncPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *RewardSyncStore) MarkSynced(ctx context.Context, id string, at time.Time) error {
	return s.DB.WithContext(ctx).
		Model(&models.RewardSync{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.RewardSyncSynced,
			"synced_at":  at,
			"last_error": "",
		}).Error
}

// MarkAttemptFailed records a failed delivery. The row stays pending until it
// runs out of attempts.
func (s *RewardSyncStore) MarkAttemptFailed(ctx context.Context, row models.RewardSync, cause error) error {
	attempts := row.Attempts + 1
	status := models.RewardSyncPending
	if attempts >= MaxSyncAttempts {
		status = models.RewardSyncFailed
	}
	return s.DB.WithContext(ctx).
		Model(&models.RewardSync{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"attempts":   attempts,
			"status":     status,
			"last_error": cause.Error(),
		}).Error
}

// Counts reports the outbox size per status.
func (s *RewardSyncStore) Counts(ctx context.Context) (map[models.RewardSyncStatus]int64, error) {
	var rows []struct {
		Status models.RewardSyncStatus
		Total  int64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.RewardSync{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.RewardSyncStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}
