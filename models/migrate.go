package models

import "gorm.io/gorm"

// All lists every table owned by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&Competency{},
		&Skill{},
		&Artifact{},
		&Mission{},
		&Task{},
		&MissionArtifactReward{},
		&MissionCompetencyReward{},
		&MissionSkillReward{},
		&Rank{},
		&RankMissionRequirement{},
		&RankCompetencyRequirement{},
		&MissionChain{},
		&MissionChainEntry{},
		&MissionChainDependency{},
		&Pilot{},
		&PilotMission{},
		&PilotTask{},
		&PilotCompetency{},
		&PilotSkill{},
		&PilotArtifact{},
		&PilotChainClaim{},
		&ProgressEvent{},
		&RewardSync{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
