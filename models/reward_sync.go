package models

import "time"

type RewardSyncStatus string

const (
	RewardSyncPending RewardSyncStatus = "pending"
	RewardSyncSynced  RewardSyncStatus = "synced"
	RewardSyncFailed  RewardSyncStatus = "failed"
)

// RewardSync is an outbox row: a transition already applied locally that
// still has to be reported to the remote progression server.
type RewardSync struct {
	Seq        uint64           `gorm:"primaryKey;autoIncrement" json:"seq"` // delivery order
	ID         string           `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	PilotLogin string           `gorm:"type:varchar(128);index;not null" json:"pilot_login"`
	Operation  string           `gorm:"type:varchar(32);not null" json:"operation"` // complete_mission, uncomplete_mission, ...
	Payload    string           `gorm:"type:text;not null" json:"payload"`
	Status     RewardSyncStatus `gorm:"type:varchar(16);index;not null;default:'pending'" json:"status"`
	Attempts   int              `gorm:"not null;default:0" json:"attempts"`
	LastError  string           `gorm:"type:text" json:"last_error,omitempty"`
	SyncedAt   *time.Time       `json:"synced_at,omitempty"`
	CreatedAt  time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}
