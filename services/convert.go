package services

import (
	"pilot-progress-system/models"
	"pilot-progress-system/progression"
)

// catalogIndex converts catalog rows into engine values, resolving the
// foreign keys of reward and requirement rows.
type catalogIndex struct {
	competencies map[uint]progression.Competency
	skills       map[uint]progression.Skill
	artifacts    map[uint]progression.Artifact
	missions     map[uint]progression.Mission
}

func toCompetency(c models.Competency) progression.Competency {
	return progression.Competency{ID: c.ID, Name: c.Name, MaxLevel: c.MaxLevel}
}

func toSkill(s models.Skill) progression.Skill {
	return progression.Skill{ID: s.ID, CompetencyID: s.CompetencyID, Name: s.Name, MaxLevel: s.MaxLevel}
}

func toArtifact(a models.Artifact) progression.Artifact {
	return progression.Artifact{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Rarity:      progression.Rarity(a.Rarity),
		ImageURL:    a.ImageURL,
	}
}

func (ix *catalogIndex) toMission(m models.Mission) progression.Mission {
	out := progression.Mission{
		ID:              m.ID,
		Title:           m.Title,
		Description:     m.Description,
		RewardXP:        m.RewardXP,
		RewardMana:      m.RewardMana,
		RankRequirement: m.RankRequirement,
		SeasonID:        m.SeasonID,
		Category:        progression.MissionCategory(m.Category),
	}
	for _, t := range m.Tasks {
		out.Tasks = append(out.Tasks, progression.Task{ID: t.ID, Title: t.Title, Description: t.Description})
	}
	for _, r := range m.RewardArtifacts {
		if a, ok := ix.artifacts[r.ArtifactID]; ok {
			out.RewardArtifacts = append(out.RewardArtifacts, a)
		}
	}
	for _, r := range m.RewardCompetencies {
		if c, ok := ix.competencies[r.CompetencyID]; ok {
			out.RewardCompetencies = append(out.RewardCompetencies, progression.CompetencyReward{Competency: c, LevelIncrease: r.LevelIncrease})
		}
	}
	for _, r := range m.RewardSkills {
		if s, ok := ix.skills[r.SkillID]; ok {
			out.RewardSkills = append(out.RewardSkills, progression.SkillReward{Skill: s, LevelIncrease: r.LevelIncrease})
		}
	}
	return out
}

func (ix *catalogIndex) toRank(r models.Rank) progression.Rank {
	out := progression.Rank{ID: r.ID, Name: r.Name, RequiredXP: r.RequiredXP}
	for _, req := range r.RequiredMissions {
		if m, ok := ix.missions[req.MissionID]; ok {
			out.RequiredMissions = append(out.RequiredMissions, m)
		}
	}
	for _, req := range r.RequiredCompetencies {
		if c, ok := ix.competencies[req.CompetencyID]; ok {
			out.RequiredCompetencies = append(out.RequiredCompetencies, progression.CompetencyRequirement{Competency: c, MinLevel: req.MinLevel})
		}
	}
	return out
}

func (ix *catalogIndex) toChain(c models.MissionChain) progression.MissionChain {
	out := progression.MissionChain{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		RewardXP:    c.RewardXP,
		RewardMana:  c.RewardMana,
	}
	for _, e := range c.Entries {
		m, ok := ix.missions[e.MissionID]
		if !ok {
			continue
		}
		out.Missions = append(out.Missions, m)
		out.MissionOrders = append(out.MissionOrders, progression.MissionOrder{MissionID: e.MissionID, Order: e.Order})
	}
	for _, d := range c.Dependencies {
		out.Dependencies = append(out.Dependencies, progression.MissionDependency{MissionID: d.MissionID, PrerequisiteID: d.PrerequisiteID})
	}
	return out
}
