package services

import (
	"context"
	"fmt"
	"os"

	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogSeed is the YAML document administrators use to bootstrap or
// replace the catalog. Ids are explicit so seeds are repeatable.
type CatalogSeed struct {
	Competencies []SeedCompetency `yaml:"competencies"`
	Artifacts    []SeedArtifact   `yaml:"artifacts"`
	Missions     []SeedMission    `yaml:"missions"`
	Ranks        []SeedRank       `yaml:"ranks"`
	Chains       []SeedChain      `yaml:"chains"`
}

type SeedCompetency struct {
	ID       uint        `yaml:"id"`
	Name     string      `yaml:"name"`
	MaxLevel int         `yaml:"max_level"`
	Skills   []SeedSkill `yaml:"skills"`
}

type SeedSkill struct {
	ID       uint   `yaml:"id"`
	Name     string `yaml:"name"`
	MaxLevel int    `yaml:"max_level"`
}

type SeedArtifact struct {
	ID          uint   `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Rarity      string `yaml:"rarity"`
	ImageURL    string `yaml:"image_url"`
}

type SeedTask struct {
	ID          uint   `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type SeedLevelReward struct {
	Competency    uint `yaml:"competency"`
	Skill         uint `yaml:"skill"`
	LevelIncrease int  `yaml:"level_increase"`
}

type SeedMission struct {
	ID                 uint              `yaml:"id"`
	Title              string            `yaml:"title"`
	Description        string            `yaml:"description"`
	RewardXP           int64             `yaml:"reward_xp"`
	RewardMana         int64             `yaml:"reward_mana"`
	Rank               uint              `yaml:"rank"`
	Season             uint              `yaml:"season"`
	Category           string            `yaml:"category"`
	Tasks              []SeedTask        `yaml:"tasks"`
	RewardArtifacts    []uint            `yaml:"reward_artifacts"`
	RewardCompetencies []SeedLevelReward `yaml:"reward_competencies"`
	RewardSkills       []SeedLevelReward `yaml:"reward_skills"`
}

type SeedCompetencyRequirement struct {
	Competency uint `yaml:"competency"`
	MinLevel   int  `yaml:"min_level"`
}

type SeedRank struct {
	ID                   uint                        `yaml:"id"`
	Name                 string                      `yaml:"name"`
	RequiredXP           int64                       `yaml:"required_xp"`
	RequiredMissions     []uint                      `yaml:"required_missions"`
	RequiredCompetencies []SeedCompetencyRequirement `yaml:"required_competencies"`
}

type SeedChainMission struct {
	Mission  uint   `yaml:"mission"`
	Order    int    `yaml:"order"`
	Requires []uint `yaml:"requires"`
}

type SeedChain struct {
	ID          uint               `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	RewardXP    int64              `yaml:"reward_xp"`
	RewardMana  int64              `yaml:"reward_mana"`
	Missions    []SeedChainMission `yaml:"missions"`
}

// LoadSeedFile reads and parses a catalog seed from disk.
func LoadSeedFile(path string) (*CatalogSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*CatalogSeed, error) {
	var seed CatalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed yaml: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks references between seed entries and the chain invariants.
func (seed *CatalogSeed) Validate() error {
	competencies := map[uint]bool{}
	skills := map[uint]bool{}
	for _, c := range seed.Competencies {
		if c.ID == 0 || c.MaxLevel < 1 {
			return fmt.Errorf("competency %q: id and max_level must be positive", c.Name)
		}
		competencies[c.ID] = true
		for _, s := range c.Skills {
			if s.ID == 0 || s.MaxLevel < 1 {
				return fmt.Errorf("skill %q: id and max_level must be positive", s.Name)
			}
			skills[s.ID] = true
		}
	}
	artifacts := map[uint]bool{}
	for _, a := range seed.Artifacts {
		if a.ID == 0 {
			return fmt.Errorf("artifact %q: id must be positive", a.Title)
		}
		if !progression.Rarity(a.Rarity).Valid() {
			return fmt.Errorf("artifact %d: unknown rarity %q", a.ID, a.Rarity)
		}
		artifacts[a.ID] = true
	}
	ranks := map[uint]bool{}
	for _, r := range seed.Ranks {
		if r.ID == 0 {
			return fmt.Errorf("rank %q: id must be positive", r.Name)
		}
		ranks[r.ID] = true
	}

	missions := map[uint]progression.Mission{}
	tasks := map[uint]uint{} // task id -> mission id
	for _, m := range seed.Missions {
		if m.ID == 0 {
			return fmt.Errorf("mission %q: id must be positive", m.Title)
		}
		// Pilot task progress is keyed by task id; ids must survive reseeds.
		for _, t := range m.Tasks {
			if t.ID == 0 {
				return fmt.Errorf("mission %d task %q: id must be positive", m.ID, t.Title)
			}
			if owner, dup := tasks[t.ID]; dup {
				return fmt.Errorf("mission %d: task id %d already used by mission %d", m.ID, t.ID, owner)
			}
			tasks[t.ID] = m.ID
		}
		if !ranks[m.Rank] {
			return fmt.Errorf("mission %d: unknown rank %d", m.ID, m.Rank)
		}
		switch progression.MissionCategory(m.Category) {
		case progression.CategorySolo, progression.CategoryPaired, progression.CategoryGroup, "":
		default:
			return fmt.Errorf("mission %d: unknown category %q", m.ID, m.Category)
		}
		for _, id := range m.RewardArtifacts {
			if !artifacts[id] {
				return fmt.Errorf("mission %d: unknown artifact %d", m.ID, id)
			}
		}
		for _, r := range m.RewardCompetencies {
			if !competencies[r.Competency] {
				return fmt.Errorf("mission %d: unknown competency %d", m.ID, r.Competency)
			}
		}
		for _, r := range m.RewardSkills {
			if !skills[r.Skill] {
				return fmt.Errorf("mission %d: unknown skill %d", m.ID, r.Skill)
			}
		}
		missions[m.ID] = progression.Mission{ID: m.ID, RankRequirement: m.Rank}
	}
	for _, r := range seed.Ranks {
		for _, id := range r.RequiredMissions {
			if _, ok := missions[id]; !ok {
				return fmt.Errorf("rank %d: unknown mission %d", r.ID, id)
			}
		}
		for _, req := range r.RequiredCompetencies {
			if !competencies[req.Competency] {
				return fmt.Errorf("rank %d: unknown competency %d", r.ID, req.Competency)
			}
		}
	}

	for _, c := range seed.Chains {
		chain := progression.MissionChain{ID: c.ID}
		for _, cm := range c.Missions {
			m, ok := missions[cm.Mission]
			if !ok {
				return fmt.Errorf("chain %d: unknown mission %d", c.ID, cm.Mission)
			}
			chain.Missions = append(chain.Missions, m)
			for _, pre := range cm.Requires {
				chain.Dependencies = append(chain.Dependencies, progression.MissionDependency{MissionID: cm.Mission, PrerequisiteID: pre})
			}
		}
		if err := progression.ValidateChain(chain); err != nil {
			return err
		}
	}
	return nil
}

// Seed writes the catalog in one transaction. Rows are upserted by id and
// their child rows (tasks, rewards, requirements, chain entries) replaced.
func (s *CatalogService) Seed(ctx context.Context, seed *CatalogSeed) error {
	if err := seed.Validate(); err != nil {
		return err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Session(&gorm.Session{})

		for _, c := range seed.Competencies {
			if err := upsert.Create(&models.Competency{ID: c.ID, Name: c.Name, MaxLevel: c.MaxLevel}).Error; err != nil {
				return fmt.Errorf("seed competency %d: %w", c.ID, err)
			}
			for _, sk := range c.Skills {
				row := models.Skill{ID: sk.ID, CompetencyID: c.ID, Name: sk.Name, MaxLevel: sk.MaxLevel}
				if err := upsert.Create(&row).Error; err != nil {
					return fmt.Errorf("seed skill %d: %w", sk.ID, err)
				}
			}
		}
		for _, a := range seed.Artifacts {
			row := models.Artifact{ID: a.ID, Title: a.Title, Description: a.Description, Rarity: a.Rarity, ImageURL: a.ImageURL}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("seed artifact %d: %w", a.ID, err)
			}
		}
		for _, m := range seed.Missions {
			if err := seedMission(tx, upsert, m); err != nil {
				return err
			}
		}
		for _, r := range seed.Ranks {
			if err := seedRank(tx, upsert, r); err != nil {
				return err
			}
		}
		for _, c := range seed.Chains {
			if err := seedChain(tx, upsert, c); err != nil {
				return err
			}
		}
		return resetSequences(tx)
	})
	if err != nil {
		return err
	}
	s.Invalidate()
	s.log.Info("🌱 catalog seeded",
		"missions", len(seed.Missions),
		"ranks", len(seed.Ranks),
		"chains", len(seed.Chains),
	)
	return nil
}

// resetSequences moves postgres id sequences past the explicit seed ids so
// rows created later through the API do not collide.
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"competencies", "skills", "artifacts", "missions", "tasks", "ranks", "mission_chains"} {
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1)) FROM %[1]s", table)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("reset %s id sequence: %w", table, err)
		}
	}
	return nil
}

func seedMission(tx, upsert *gorm.DB, m SeedMission) error {
	category := m.Category
	if category == "" {
		category = string(progression.CategorySolo)
	}
	row := models.Mission{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		RewardXP:        m.RewardXP,
		RewardMana:      m.RewardMana,
		RankRequirement: m.Rank,
		SeasonID:        m.Season,
		Category:        category,
	}
	if err := upsert.Create(&row).Error; err != nil {
		return fmt.Errorf("seed mission %d: %w", m.ID, err)
	}

	for _, child := range []interface{}{&models.MissionArtifactReward{}, &models.MissionCompetencyReward{}, &models.MissionSkillReward{}} {
		if err := tx.Where("mission_id = ?", m.ID).Delete(child).Error; err != nil {
			return fmt.Errorf("seed mission %d rewards: %w", m.ID, err)
		}
	}
	if err := tx.Unscoped().Where("mission_id = ?", m.ID).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("seed mission %d tasks: %w", m.ID, err)
	}

	for i, t := range m.Tasks {
		task := models.Task{ID: t.ID, MissionID: m.ID, Position: i, Title: t.Title, Description: t.Description}
		if err := upsert.Create(&task).Error; err != nil {
			return fmt.Errorf("seed task %d: %w", t.ID, err)
		}
	}
	for i, id := range m.RewardArtifacts {
		if err := tx.Create(&models.MissionArtifactReward{MissionID: m.ID, ArtifactID: id, Position: i}).Error; err != nil {
			return fmt.Errorf("seed mission %d artifact reward: %w", m.ID, err)
		}
	}
	for i, r := range m.RewardCompetencies {
		if err := tx.Create(&models.MissionCompetencyReward{MissionID: m.ID, CompetencyID: r.Competency, LevelIncrease: r.LevelIncrease, Position: i}).Error; err != nil {
			return fmt.Errorf("seed mission %d competency reward: %w", m.ID, err)
		}
	}
	for i, r := range m.RewardSkills {
		if err := tx.Create(&models.MissionSkillReward{MissionID: m.ID, SkillID: r.Skill, LevelIncrease: r.LevelIncrease, Position: i}).Error; err != nil {
			return fmt.Errorf("seed mission %d skill reward: %w", m.ID, err)
		}
	}
	return nil
}

func seedRank(tx, upsert *gorm.DB, r SeedRank) error {
	if err := upsert.Create(&models.Rank{ID: r.ID, Name: r.Name, RequiredXP: r.RequiredXP}).Error; err != nil {
		return fmt.Errorf("seed rank %d: %w", r.ID, err)
	}
	if err := tx.Where("rank_id = ?", r.ID).Delete(&models.RankMissionRequirement{}).Error; err != nil {
		return err
	}
	if err := tx.Where("rank_id = ?", r.ID).Delete(&models.RankCompetencyRequirement{}).Error; err != nil {
		return err
	}
	for _, id := range r.RequiredMissions {
		if err := tx.Create(&models.RankMissionRequirement{RankID: r.ID, MissionID: id}).Error; err != nil {
			return fmt.Errorf("seed rank %d mission requirement: %w", r.ID, err)
		}
	}
	for _, req := range r.RequiredCompetencies {
		if err := tx.Create(&models.RankCompetencyRequirement{RankID: r.ID, CompetencyID: req.Competency, MinLevel: req.MinLevel}).Error; err != nil {
			return fmt.Errorf("seed rank %d competency requirement: %w", r.ID, err)
		}
	}
	return nil
}

func seedChain(tx, upsert *gorm.DB, c SeedChain) error {
	row := models.MissionChain{ID: c.ID, Name: c.Name, Description: c.Description, RewardXP: c.RewardXP, RewardMana: c.RewardMana}
	if err := upsert.Create(&row).Error; err != nil {
		return fmt.Errorf("seed chain %d: %w", c.ID, err)
	}
	if err := tx.Where("chain_id = ?", c.ID).Delete(&models.MissionChainEntry{}).Error; err != nil {
		return err
	}
	if err := tx.Where("chain_id = ?", c.ID).Delete(&models.MissionChainDependency{}).Error; err != nil {
		return err
	}
	for _, cm := range c.Missions {
		if err := tx.Create(&models.MissionChainEntry{ChainID: c.ID, MissionID: cm.Mission, Order: cm.Order}).Error; err != nil {
			return fmt.Errorf("seed chain %d entry: %w", c.ID, err)
		}
		for _, pre := range cm.Requires {
			dep := models.MissionChainDependency{ChainID: c.ID, MissionID: cm.Mission, PrerequisiteID: pre}
			if err := tx.Create(&dep).Error; err != nil {
				return fmt.Errorf("seed chain %d dependency: %w", c.ID, err)
			}
		}
	}
	return nil
}
