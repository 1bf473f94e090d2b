package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"pilot-progress-system/logger"
	"pilot-progress-system/models"
	"pilot-progress-system/progression"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPilotNotFound   = errors.New("pilot not found")
	ErrNoRanks         = errors.New("rank catalog is empty")
	ErrTasksIncomplete = errors.New("mission has unfinished tasks")
)

// ProgressionService owns the pilot aggregates. It loads a pilot, runs one
// engine operation, persists the resulting aggregate, records events and
// queues the change for the remote progression server, in that order.
// Writes for one login are serialized.
type ProgressionService struct {
	DB      *gorm.DB
	Catalog CatalogProvider
	Events  *ProgressEventService
	log     *logger.Logger

	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

func NewProgressionService(db *gorm.DB, catalog CatalogProvider, events *ProgressEventService, log *logger.Logger) *ProgressionService {
	return &ProgressionService{
		DB:      db,
		Catalog: catalog,
		Events:  events,
		log:     log.With("component", "progression"),
		now:     time.Now,
	}
}

// lockStripes bounds the write locks: logins hash onto a fixed set of
// mutexes, so two pilots may share one. No operation holds two stripes.
const lockStripes = 256

func lockStripe(login string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(login))
	return h.Sum32() % lockStripes
}

func (s *ProgressionService) lock(login string) func() {
	mu := &s.locks[lockStripe(login)]
	mu.Lock()
	return mu.Unlock
}

// EnsurePilot ensures a Pilot row exists (idempotent). New pilots start at
// the lowest rank of the catalog.
func (s *ProgressionService) EnsurePilot(ctx context.Context, login string) (*models.Pilot, error) {
	var pilot models.Pilot
	err := s.DB.WithContext(ctx).Where("login = ?", login).First(&pilot).Error
	if err == nil {
		return &pilot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	lowest, ok := progression.LowestRank(cat.Ranks)
	if !ok {
		return nil, ErrNoRanks
	}
	pilot = models.Pilot{Login: login, RankID: lowest.ID}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pilot).Error; err != nil {
		return nil, err
	}
	// Re-read in case a concurrent request created the row first.
	if err := s.DB.WithContext(ctx).Where("login = ?", login).First(&pilot).Error; err != nil {
		return nil, err
	}
	s.log.Info("🧑‍🚀 pilot record created", "login", login, "rank_id", pilot.RankID)
	return &pilot, nil
}

// LoadUser assembles the pilot aggregate from the database, creating the
// pilot on first contact.
func (s *ProgressionService) LoadUser(ctx context.Context, login string) (progression.User, error) {
	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return progression.User{}, err
	}
	if _, err := s.EnsurePilot(ctx, login); err != nil {
		return progression.User{}, err
	}
	return s.loadUser(s.DB.WithContext(ctx), login, cat)
}

func (s *ProgressionService) loadUser(db *gorm.DB, login string, cat progression.Catalog) (progression.User, error) {
	var pilot models.Pilot
	if err := db.Where("login = ?", login).First(&pilot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return progression.User{}, ErrPilotNotFound
		}
		return progression.User{}, err
	}
	u := progression.User{
		Login:     pilot.Login,
		FirstName: pilot.FirstName,
		LastName:  pilot.LastName,
		Role:      pilot.Role,
		RankID:    pilot.RankID,
		XP:        pilot.XP,
		Mana:      pilot.Mana,
	}

	var missions []models.PilotMission
	if err := db.Preload("Tasks").Where("pilot_login = ?", login).Order("id ASC").Find(&missions).Error; err != nil {
		return progression.User{}, fmt.Errorf("load pilot missions: %w", err)
	}
	for _, row := range missions {
		m, ok := cat.Mission(row.MissionID)
		if !ok {
			// Mission removed from the catalog; nothing to show.
			continue
		}
		um := progression.NewUserMission(m)
		um.IsCompleted = row.IsCompleted
		um.IsApproved = row.IsApproved
		done := make(map[uint]bool, len(row.Tasks))
		for _, t := range row.Tasks {
			done[t.TaskID] = t.IsCompleted
		}
		for i := range um.UserTasks {
			um.UserTasks[i].IsCompleted = done[um.UserTasks[i].ID]
		}
		u.Missions = append(u.Missions, um)
	}

	var competencies []models.PilotCompetency
	if err := db.Where("pilot_login = ?", login).Order("id ASC").Find(&competencies).Error; err != nil {
		return progression.User{}, fmt.Errorf("load pilot competencies: %w", err)
	}
	var skills []models.PilotSkill
	if err := db.Where("pilot_login = ?", login).Order("id ASC").Find(&skills).Error; err != nil {
		return progression.User{}, fmt.Errorf("load pilot skills: %w", err)
	}
	skillCatalog := make(map[uint]progression.Skill, len(cat.Skills))
	for _, sk := range cat.Skills {
		skillCatalog[sk.ID] = sk
	}
	for _, row := range competencies {
		c, ok := cat.Competency(row.CompetencyID)
		if !ok {
			continue
		}
		uc := progression.UserCompetency{Competency: c, UserLevel: row.Level}
		for _, sr := range skills {
			if sr.CompetencyID != row.CompetencyID {
				continue
			}
			if sk, ok := skillCatalog[sr.SkillID]; ok {
				uc.Skills = append(uc.Skills, progression.UserSkill{Skill: sk, UserLevel: sr.Level})
			}
		}
		u.Competencies = append(u.Competencies, uc)
	}

	var artifacts []models.PilotArtifact
	if err := db.Where("pilot_login = ?", login).Order("id ASC").Find(&artifacts).Error; err != nil {
		return progression.User{}, fmt.Errorf("load pilot artifacts: %w", err)
	}
	for _, row := range artifacts {
		if a, ok := cat.Artifact(row.ArtifactID); ok {
			u.Artifacts = append(u.Artifacts, a)
		}
	}

	var claims []models.PilotChainClaim
	if err := db.Where("pilot_login = ?", login).Order("id ASC").Find(&claims).Error; err != nil {
		return progression.User{}, fmt.Errorf("load pilot chain claims: %w", err)
	}
	for _, row := range claims {
		u.ClaimedChains = append(u.ClaimedChains, row.ChainID)
	}
	return u, nil
}

// change is what one engine operation produced.
type change struct {
	user    progression.User
	outcome *progression.Outcome
	events  []models.ProgressEvent
	sync    *syncRecord
}

type operation func(u progression.User, cat progression.Catalog) (change, error)

// apply runs op against the pilot's current aggregate under the pilot's
// write lock and persists the result. The remote sync is only queued here;
// the local state is authoritative until RewardSyncWorker delivers it.
func (s *ProgressionService) apply(ctx context.Context, login string, create bool, op operation) (change, error) {
	unlock := s.lock(login)
	defer unlock()

	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return change{}, err
	}
	if create {
		if _, err := s.EnsurePilot(ctx, login); err != nil {
			return change{}, err
		}
	}
	before, err := s.loadUser(s.DB.WithContext(ctx), login, cat)
	if err != nil {
		return change{}, err
	}
	ch, err := op(before, cat)
	if err != nil {
		return change{}, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.persist(tx, before, ch.user); err != nil {
			return err
		}
		if err := s.Events.record(tx, ch.events); err != nil {
			return err
		}
		if ch.sync != nil {
			return enqueueSync(tx, ch.user, *ch.sync)
		}
		return nil
	})
	if err != nil {
		return change{}, err
	}
	return ch, nil
}

// persist writes the difference between two aggregates of the same pilot.
func (s *ProgressionService) persist(tx *gorm.DB, before, after progression.User) error {
	login := after.Login
	now := s.now()

	pilotUpdates := map[string]interface{}{
		"xp":      after.XP,
		"mana":    after.Mana,
		"rank_id": after.RankID,
	}
	if after.RankID != before.RankID {
		pilotUpdates["last_rank_up_at"] = now
	}
	if err := tx.Model(&models.Pilot{}).Where("login = ?", login).Updates(pilotUpdates).Error; err != nil {
		return fmt.Errorf("save pilot: %w", err)
	}

	previous := before.MissionIndex()
	for _, um := range after.Missions {
		prev, existed := previous[um.ID]
		if existed && sameMissionState(prev, um) {
			continue
		}
		if err := persistMission(tx, login, prev, um, now); err != nil {
			return err
		}
	}

	for _, uc := range after.Competencies {
		row := models.PilotCompetency{PilotLogin: login, CompetencyID: uc.ID}
		if err := tx.Where("pilot_login = ? AND competency_id = ?", login, uc.ID).
			Assign(map[string]interface{}{"level": uc.UserLevel}).
			FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("save competency %d: %w", uc.ID, err)
		}
		for _, us := range uc.Skills {
			srow := models.PilotSkill{PilotLogin: login, CompetencyID: uc.ID, SkillID: us.ID}
			if err := tx.Where("pilot_login = ? AND competency_id = ? AND skill_id = ?", login, uc.ID, us.ID).
				Assign(map[string]interface{}{"level": us.UserLevel}).
				FirstOrCreate(&srow).Error; err != nil {
				return fmt.Errorf("save skill %d: %w", us.ID, err)
			}
		}
	}

	owned := make(map[uint]bool, len(before.Artifacts))
	for _, a := range before.Artifacts {
		owned[a.ID] = true
	}
	for _, a := range after.Artifacts {
		if owned[a.ID] {
			continue
		}
		row := models.PilotArtifact{PilotLogin: login, ArtifactID: a.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("save artifact %d: %w", a.ID, err)
		}
	}

	claimed := make(map[uint]bool, len(before.ClaimedChains))
	for _, id := range before.ClaimedChains {
		claimed[id] = true
	}
	for _, id := range after.ClaimedChains {
		if claimed[id] {
			continue
		}
		row := models.PilotChainClaim{PilotLogin: login, ChainID: id}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("save chain claim %d: %w", id, err)
		}
	}
	return nil
}

func sameMissionState(a, b progression.UserMission) bool {
	if a.IsCompleted != b.IsCompleted || a.IsApproved != b.IsApproved || len(a.UserTasks) != len(b.UserTasks) {
		return false
	}
	for i := range a.UserTasks {
		if a.UserTasks[i] != b.UserTasks[i] {
			return false
		}
	}
	return true
}

func persistMission(tx *gorm.DB, login string, prev, um progression.UserMission, now time.Time) error {
	updates := map[string]interface{}{
		"is_completed": um.IsCompleted,
		"is_approved":  um.IsApproved,
	}
	switch {
	case um.IsCompleted && !prev.IsCompleted:
		updates["completed_at"] = now
	case !um.IsCompleted && prev.IsCompleted:
		updates["completed_at"] = nil
	}
	switch {
	case um.IsApproved && !prev.IsApproved:
		updates["approved_at"] = now
	case !um.IsApproved && prev.IsApproved:
		updates["approved_at"] = nil
	}

	row := models.PilotMission{PilotLogin: login, MissionID: um.ID}
	if err := tx.Where("pilot_login = ? AND mission_id = ?", login, um.ID).
		Assign(updates).
		FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("save mission %d: %w", um.ID, err)
	}
	for _, t := range um.UserTasks {
		trow := models.PilotTask{PilotMissionID: row.ID, TaskID: t.ID}
		if err := tx.Where("pilot_mission_id = ? AND task_id = ?", row.ID, t.ID).
			Assign(map[string]interface{}{"is_completed": t.IsCompleted}).
			FirstOrCreate(&trow).Error; err != nil {
			return fmt.Errorf("save task %d: %w", t.ID, err)
		}
	}
	return nil
}

func findMission(cat progression.Catalog, missionID uint) (progression.Mission, error) {
	m, ok := cat.Mission(missionID)
	if !ok {
		return progression.Mission{}, fmt.Errorf("mission %d: %w", missionID, ErrMissionNotFound)
	}
	return m, nil
}

// visibleMission is findMission restricted to the pilot's rank window.
func visibleMission(cat progression.Catalog, u progression.User, missionID uint) (progression.Mission, error) {
	m, err := findMission(cat, missionID)
	if err != nil {
		return progression.Mission{}, err
	}
	if len(progression.VisibleMissions(cat.Ranks, u.RankID, []progression.Mission{m})) == 0 {
		return progression.Mission{}, fmt.Errorf("mission %d: %w", missionID, ErrMissionNotFound)
	}
	return m, nil
}

// tasksDone gates completion on every task being ticked. Already completed
// missions pass so the engine can reject the second completion.
func tasksDone(u progression.User, m progression.Mission) bool {
	um, ok := u.Mission(m.ID)
	if !ok {
		return len(m.Tasks) == 0
	}
	return um.IsCompleted || um.CompletedTasksCount() == um.TotalTasksCount()
}

// CompleteMission marks the mission completed and grants its rewards. All
// tasks must be done first. A second completion is rejected with
// progression.ErrMissionAlreadyCompleted.
func (s *ProgressionService) CompleteMission(ctx context.Context, login string, missionID uint) (progression.Outcome, error) {
	ch, err := s.apply(ctx, login, true, func(u progression.User, cat progression.Catalog) (change, error) {
		m, err := visibleMission(cat, u, missionID)
		if err != nil {
			return change{}, err
		}
		if !tasksDone(u, m) {
			return change{}, ErrTasksIncomplete
		}
		out, err := progression.CompleteMission(u, m, cat.Ranks)
		if err != nil {
			return change{}, err
		}
		events, err := outcomeEvents(login, models.EventMissionCompleted, m.Title, out)
		if err != nil {
			return change{}, err
		}
		return change{
			user:    out.User,
			outcome: &out,
			events:  events,
			sync:    &syncRecord{Operation: SyncCompleteMission, MissionID: m.ID, Outcome: &out},
		}, nil
	})
	if err != nil {
		return progression.Outcome{}, err
	}
	log := s.log.With("login", login, "mission_id", missionID)
	log.Info("🎯 mission completed", "xp", ch.user.XP, "mana", ch.user.Mana, "rank_id", ch.user.RankID)
	if ch.outcome.RankUp != nil {
		log.Info("🎖️ rank up", "from", ch.outcome.RankUp.From.ID, "to", ch.outcome.RankUp.To.ID)
	}
	return *ch.outcome, nil
}

// UncompleteMission reopens a mission. Rewards already granted are kept.
func (s *ProgressionService) UncompleteMission(ctx context.Context, login string, missionID uint) (progression.User, error) {
	ch, err := s.apply(ctx, login, true, func(u progression.User, cat progression.Catalog) (change, error) {
		if _, err := findMission(cat, missionID); err != nil {
			return change{}, err
		}
		ch := change{user: progression.UncompleteMission(u, missionID)}
		// Only a reopened mission is news for the remote server.
		if um, ok := u.Mission(missionID); ok && um.IsCompleted {
			ch.sync = &syncRecord{Operation: SyncUncompleteMission, MissionID: missionID}
		}
		return ch, nil
	})
	if err != nil {
		return progression.User{}, err
	}
	return ch.user, nil
}

// ToggleTask records a task as done or not done.
func (s *ProgressionService) ToggleTask(ctx context.Context, login string, missionID, taskID uint, done bool) (progression.User, error) {
	ch, err := s.apply(ctx, login, true, func(u progression.User, cat progression.Catalog) (change, error) {
		m, err := visibleMission(cat, u, missionID)
		if err != nil {
			return change{}, err
		}
		next, err := progression.ToggleTask(u, m, taskID, done)
		if err != nil {
			return change{}, err
		}
		return change{user: next}, nil
	})
	if err != nil {
		return progression.User{}, err
	}
	return ch.user, nil
}

// ApproveMission is the moderation action on a completed mission.
func (s *ProgressionService) ApproveMission(ctx context.Context, login string, missionID uint) (progression.User, error) {
	ch, err := s.apply(ctx, login, false, func(u progression.User, cat progression.Catalog) (change, error) {
		m, err := findMission(cat, missionID)
		if err != nil {
			return change{}, err
		}
		next, err := progression.ApproveMission(u, missionID)
		if err != nil {
			return change{}, err
		}
		ev, err := newEvent(login, models.EventMissionApproved, m.Title, map[string]uint{"mission_id": missionID})
		if err != nil {
			return change{}, err
		}
		return change{
			user:   next,
			events: []models.ProgressEvent{ev},
			sync:   &syncRecord{Operation: SyncApproveMission, MissionID: missionID},
		}, nil
	})
	if err != nil {
		return progression.User{}, err
	}
	return ch.user, nil
}

// ClaimChain pays out a fully completed chain's own reward.
func (s *ProgressionService) ClaimChain(ctx context.Context, login string, chainID uint) (progression.Outcome, error) {
	ch, err := s.apply(ctx, login, true, func(u progression.User, cat progression.Catalog) (change, error) {
		chain, ok := cat.Chain(chainID)
		if !ok {
			return change{}, fmt.Errorf("chain %d: %w", chainID, ErrChainNotFound)
		}
		out, err := progression.ClaimChainReward(u, chain, cat.Ranks)
		if err != nil {
			return change{}, err
		}
		events, err := outcomeEvents(login, models.EventChainClaimed, chain.Name, out)
		if err != nil {
			return change{}, err
		}
		return change{
			user:    out.User,
			outcome: &out,
			events:  events,
			sync:    &syncRecord{Operation: SyncClaimChain, ChainID: chainID, Outcome: &out},
		}, nil
	})
	if err != nil {
		return progression.Outcome{}, err
	}
	return *ch.outcome, nil
}

// GrantXP awards XP and mana outside of missions (admin bonus).
func (s *ProgressionService) GrantXP(ctx context.Context, login string, xp, mana int64, reason string) (progression.Outcome, error) {
	ch, err := s.apply(ctx, login, false, func(u progression.User, cat progression.Catalog) (change, error) {
		out := progression.GrantXP(u, xp, mana, cat.Ranks)
		events, err := outcomeEvents(login, models.EventXPGranted, reason, out)
		if err != nil {
			return change{}, err
		}
		return change{
			user:    out.User,
			outcome: &out,
			events:  events,
			sync:    &syncRecord{Operation: SyncGrantXP, Reason: reason, Outcome: &out},
		}, nil
	})
	if err != nil {
		return progression.Outcome{}, err
	}
	s.log.Info("🎮 XP awarded", "login", login, "xp", ch.user.XP, "rank_id", ch.user.RankID, "reason", reason)
	return *ch.outcome, nil
}

// GrantCompetency gives a pilot a competency with all of its catalog skills.
func (s *ProgressionService) GrantCompetency(ctx context.Context, login string, competencyID uint) (progression.User, error) {
	ch, err := s.apply(ctx, login, false, func(u progression.User, cat progression.Catalog) (change, error) {
		c, ok := cat.Competency(competencyID)
		if !ok {
			return change{}, fmt.Errorf("competency %d: %w", competencyID, ErrCompetencyNotFound)
		}
		return change{user: progression.GrantCompetency(u, c, cat.SkillsOf(competencyID))}, nil
	})
	if err != nil {
		return progression.User{}, err
	}
	return ch.user, nil
}
