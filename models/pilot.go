package models

import (
	"time"

	"gorm.io/gorm"
)

// Pilot is the progression record of one platform user (denormalized for reads).
type Pilot struct {
	Login     string `gorm:"primaryKey;type:varchar(128)" json:"login"` // identity from the HR profile service
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `gorm:"type:varchar(64)" json:"role"`

	// Core progression
	RankID uint  `gorm:"index" json:"rank_id"`
	XP     int64 `gorm:"not null;default:0" json:"xp"`
	Mana   int64 `gorm:"not null;default:0" json:"mana"`

	// Milestones
	LastRankUpAt *time.Time `json:"last_rank_up_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PilotMission is created lazily the first time a pilot touches a mission.
type PilotMission struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	PilotLogin  string      `gorm:"type:varchar(128);uniqueIndex:idx_pilot_mission;not null" json:"pilot_login"`
	MissionID   uint        `gorm:"uniqueIndex:idx_pilot_mission;not null" json:"mission_id"`
	IsCompleted bool        `gorm:"not null;default:false" json:"is_completed"`
	IsApproved  bool        `gorm:"not null;default:false" json:"is_approved"` // set by moderation
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time  `json:"approved_at,omitempty"`
	Tasks       []PilotTask `gorm:"foreignKey:PilotMissionID" json:"tasks"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

type PilotTask struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	PilotMissionID uint `gorm:"uniqueIndex:idx_pilot_task;not null" json:"pilot_mission_id"`
	TaskID         uint `gorm:"uniqueIndex:idx_pilot_task;not null" json:"task_id"`
	IsCompleted    bool `gorm:"not null;default:false" json:"is_completed"`
}

type PilotCompetency struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	PilotLogin   string `gorm:"type:varchar(128);uniqueIndex:idx_pilot_competency;not null" json:"pilot_login"`
	CompetencyID uint   `gorm:"uniqueIndex:idx_pilot_competency;not null" json:"competency_id"`
	Level        int    `gorm:"not null;default:0" json:"level"`
}

// PilotSkill is a skill level held under one of the pilot's competencies.
type PilotSkill struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	PilotLogin   string `gorm:"type:varchar(128);uniqueIndex:idx_pilot_skill;not null" json:"pilot_login"`
	CompetencyID uint   `gorm:"uniqueIndex:idx_pilot_skill;not null" json:"competency_id"`
	SkillID      uint   `gorm:"uniqueIndex:idx_pilot_skill;not null" json:"skill_id"`
	Level        int    `gorm:"not null;default:0" json:"level"`
}

// PilotArtifact: awarded instance, one per pilot and artifact.
type PilotArtifact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PilotLogin string    `gorm:"type:varchar(128);uniqueIndex:idx_pilot_artifact;not null" json:"pilot_login"`
	ArtifactID uint      `gorm:"uniqueIndex:idx_pilot_artifact;not null" json:"artifact_id"`
	AwardedAt  time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

type PilotChainClaim struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PilotLogin string    `gorm:"type:varchar(128);uniqueIndex:idx_pilot_chain;not null" json:"pilot_login"`
	ChainID    uint      `gorm:"uniqueIndex:idx_pilot_chain;not null" json:"chain_id"`
	ClaimedAt  time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
