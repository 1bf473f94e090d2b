package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"gorm.io/gorm"
)

var (
	ErrMissionNotFound    = errors.New("mission not found")
	ErrChainNotFound      = errors.New("mission chain not found")
	ErrCompetencyNotFound = errors.New("competency not found")
)

// CatalogProvider hands out the current catalog snapshot. It may be stale by
// up to one refresh interval.
type CatalogProvider interface {
	Catalog(ctx context.Context) (progression.Catalog, error)
}

// CatalogService loads the admin-managed catalog from the database and keeps
// a cached snapshot that is swapped whole on refresh.
type CatalogService struct {
	DB  *gorm.DB
	log *logger.Logger

	mu     sync.RWMutex
	cached *progression.Catalog
}

func NewCatalogService(db *gorm.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, log: log.With("component", "catalog")}
}

// Catalog returns the cached snapshot, loading it on first use.
func (s *CatalogService) Catalog(ctx context.Context) (progression.Catalog, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return progression.Catalog{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cached, nil
}

// Refresh reloads the catalog from the database.
func (s *CatalogService) Refresh(ctx context.Context) error {
	cat, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cached = &cat
	s.mu.Unlock()
	s.log.Debug("catalog refreshed",
		"missions", len(cat.Missions),
		"ranks", len(cat.Ranks),
		"chains", len(cat.Chains),
	)
	return nil
}

// Invalidate drops the cached snapshot so the next read reloads it.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (s *CatalogService) load(ctx context.Context) (progression.Catalog, error) {
	db := s.DB.WithContext(ctx)

	var competencies []models.Competency
	if err := db.Order("id ASC").Find(&competencies).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load competencies: %w", err)
	}
	var skills []models.Skill
	if err := db.Order("id ASC").Find(&skills).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load skills: %w", err)
	}
	var artifacts []models.Artifact
	if err := db.Order("id ASC").Find(&artifacts).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load artifacts: %w", err)
	}
	var missions []models.Mission
	if err := db.
		Preload("Tasks", byPosition).
		Preload("RewardArtifacts", byPosition).
		Preload("RewardCompetencies", byPosition).
		Preload("RewardSkills", byPosition).
		Order("id ASC").
		Find(&missions).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load missions: %w", err)
	}
	var ranks []models.Rank
	if err := db.
		Preload("RequiredMissions").
		Preload("RequiredCompetencies").
		Order("required_xp ASC, id ASC").
		Find(&ranks).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load ranks: %w", err)
	}
	var chains []models.MissionChain
	if err := db.
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, id ASC") }).
		Preload("Dependencies").
		Order("id ASC").
		Find(&chains).Error; err != nil {
		return progression.Catalog{}, fmt.Errorf("load chains: %w", err)
	}

	ix := &catalogIndex{
		competencies: make(map[uint]progression.Competency, len(competencies)),
		skills:       make(map[uint]progression.Skill, len(skills)),
		artifacts:    make(map[uint]progression.Artifact, len(artifacts)),
		missions:     make(map[uint]progression.Mission, len(missions)),
	}
	var cat progression.Catalog
	for _, c := range competencies {
		pc := toCompetency(c)
		ix.competencies[c.ID] = pc
		cat.Competencies = append(cat.Competencies, pc)
	}
	for _, sk := range skills {
		ps := toSkill(sk)
		ix.skills[sk.ID] = ps
		cat.Skills = append(cat.Skills, ps)
	}
	for _, a := range artifacts {
		pa := toArtifact(a)
		ix.artifacts[a.ID] = pa
		cat.Artifacts = append(cat.Artifacts, pa)
	}
	for _, m := range missions {
		pm := ix.toMission(m)
		ix.missions[m.ID] = pm
		cat.Missions = append(cat.Missions, pm)
	}
	for _, r := range ranks {
		cat.Ranks = append(cat.Ranks, ix.toRank(r))
	}
	for _, c := range chains {
		cat.Chains = append(cat.Chains, ix.toChain(c))
	}
	return cat, nil
}
