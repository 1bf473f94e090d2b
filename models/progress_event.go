package models

import "time"

// ProgressEventKind tells the UI which notice to present.
type ProgressEventKind string

const (
	EventMissionCompleted ProgressEventKind = "mission_completed"
	EventMissionApproved  ProgressEventKind = "mission_approved"
	EventRankUp           ProgressEventKind = "rank_up"
	EventArtifactGranted  ProgressEventKind = "artifact_granted"
	EventChainClaimed     ProgressEventKind = "chain_claimed"
	EventXPGranted        ProgressEventKind = "xp_granted"
)

// ProgressEvent is a notice produced by a progression transition. The engine
// only returns values; the service stores them here for the UI to list or stream.
// Seq orders events for the stream cursor; ID is the public handle.
type ProgressEvent struct {
	Seq        uint64            `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID         string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"id"`
	PilotLogin string            `gorm:"type:varchar(128);index;not null" json:"pilot_login"`
	Kind       ProgressEventKind `gorm:"type:varchar(32);not null" json:"kind"`
	Title      string            `gorm:"not null" json:"title"`
	Payload    string            `gorm:"type:text" json:"payload"` // JSON document, shape depends on Kind
	Viewed     bool              `gorm:"default:false;index" json:"viewed"`
	CreatedAt  time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}
