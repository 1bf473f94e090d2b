package models

// Catalog rows are edited by administrators and read by the progression engine.

type Competency struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	MaxLevel int     `gorm:"not null;default:1" json:"max_level"`
	Skills   []Skill `gorm:"foreignKey:CompetencyID" json:"skills,omitempty"`
	Timestamps
}

type Skill struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CompetencyID uint   `gorm:"index;not null" json:"competency_id"`
	Name         string `gorm:"not null" json:"name"`
	MaxLevel     int    `gorm:"not null;default:1" json:"max_level"`
	Timestamps
}

// Artifact is a collectible granted by missions.
type Artifact struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Rarity      string `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, uncommon, rare, epic, legendary
	ImageURL    string `gorm:"type:text" json:"image_url"`
	Timestamps
}

type Rank struct {
	ID                   uint                        `gorm:"primaryKey" json:"id"`
	Name                 string                      `gorm:"not null" json:"name"`
	RequiredXP           int64                       `gorm:"not null;default:0;index" json:"required_xp"`
	RequiredMissions     []RankMissionRequirement    `gorm:"foreignKey:RankID" json:"required_missions,omitempty"`
	RequiredCompetencies []RankCompetencyRequirement `gorm:"foreignKey:RankID" json:"required_competencies,omitempty"`
	Timestamps
}

type RankMissionRequirement struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	RankID    uint `gorm:"uniqueIndex:idx_rank_mission;not null" json:"rank_id"`
	MissionID uint `gorm:"uniqueIndex:idx_rank_mission;not null" json:"mission_id"`
}

type RankCompetencyRequirement struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RankID       uint `gorm:"uniqueIndex:idx_rank_competency;not null" json:"rank_id"`
	CompetencyID uint `gorm:"uniqueIndex:idx_rank_competency;not null" json:"competency_id"`
	MinLevel     int  `gorm:"not null;default:1" json:"min_level"`
}

type Mission struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	RewardXP        int64  `gorm:"not null;default:0" json:"reward_xp"`
	RewardMana      int64  `gorm:"not null;default:0" json:"reward_mana"`
	RankRequirement uint   `gorm:"index;not null" json:"rank_requirement"`
	SeasonID        uint   `gorm:"index" json:"season_id"`
	Category        string `gorm:"type:varchar(16);default:'Solo'" json:"category"` // Solo, Paired, Group

	Tasks              []Task                    `gorm:"foreignKey:MissionID" json:"tasks"`
	RewardArtifacts    []MissionArtifactReward   `gorm:"foreignKey:MissionID" json:"reward_artifacts,omitempty"`
	RewardCompetencies []MissionCompetencyReward `gorm:"foreignKey:MissionID" json:"reward_competencies,omitempty"`
	RewardSkills       []MissionSkillReward      `gorm:"foreignKey:MissionID" json:"reward_skills,omitempty"`

	Timestamps
}

type Task struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	MissionID   uint   `gorm:"index;not null" json:"mission_id"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Timestamps
}

type MissionArtifactReward struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	MissionID  uint `gorm:"uniqueIndex:idx_mission_artifact;not null" json:"mission_id"`
	ArtifactID uint `gorm:"uniqueIndex:idx_mission_artifact;not null" json:"artifact_id"`
	Position   int  `gorm:"not null;default:0" json:"position"`
}

type MissionCompetencyReward struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	MissionID     uint `gorm:"index;not null" json:"mission_id"`
	CompetencyID  uint `gorm:"not null" json:"competency_id"`
	LevelIncrease int  `gorm:"not null;default:1" json:"level_increase"`
	Position      int  `gorm:"not null;default:0" json:"position"`
}

type MissionSkillReward struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	MissionID     uint `gorm:"index;not null" json:"mission_id"`
	SkillID       uint `gorm:"not null" json:"skill_id"`
	LevelIncrease int  `gorm:"not null;default:1" json:"level_increase"`
	Position      int  `gorm:"not null;default:0" json:"position"`
}

// MissionChain is an ordered, dependency-linked branch of missions.
type MissionChain struct {
	ID           uint                     `gorm:"primaryKey" json:"id"`
	Name         string                   `gorm:"not null" json:"name"`
	Description  string                   `gorm:"type:text" json:"description"`
	RewardXP     int64                    `gorm:"not null;default:0" json:"reward_xp"`
	RewardMana   int64                    `gorm:"not null;default:0" json:"reward_mana"`
	Entries      []MissionChainEntry      `gorm:"foreignKey:ChainID" json:"entries"`
	Dependencies []MissionChainDependency `gorm:"foreignKey:ChainID" json:"dependencies"`
	Timestamps
}

type MissionChainEntry struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ChainID   uint `gorm:"uniqueIndex:idx_chain_mission;not null" json:"chain_id"`
	MissionID uint `gorm:"uniqueIndex:idx_chain_mission;not null" json:"mission_id"`
	Order     int  `gorm:"column:sort_order;not null;default:0" json:"order"`
}

type MissionChainDependency struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ChainID        uint `gorm:"index;not null" json:"chain_id"`
	MissionID      uint `gorm:"not null" json:"mission_id"`
	PrerequisiteID uint `gorm:"not null" json:"prerequisite_id"`
}
