package progression

// LevelChange records a competency or skill level that moved.
type LevelChange struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// RewardSummary lists what a transition actually granted. Skipped rewards
// (competencies or skills the pilot does not own, artifacts already owned)
// do not appear.
type RewardSummary struct {
	XP           int64         `json:"xp"`
	Mana         int64         `json:"mana"`
	Artifacts    []Artifact    `json:"artifacts,omitempty"`
	Competencies []LevelChange `json:"competencies,omitempty"`
	Skills       []LevelChange `json:"skills,omitempty"`
}

// Outcome is the result of a rewarding transition.
type Outcome struct {
	User    User          `json:"user"`
	RankUp  *RankUp       `json:"rank_up,omitempty"`
	Summary RewardSummary `json:"summary"`
}

// missionSlot returns the index of the pilot's instance of m in u.Missions,
// appending a default instance when the pilot never touched the mission.
func missionSlot(u *User, m Mission) int {
	for i, um := range u.Missions {
		if um.ID == m.ID {
			return i
		}
	}
	u.Missions = append(u.Missions, NewUserMission(m))
	return len(u.Missions) - 1
}

// CompleteMission marks the pilot's instance of mission completed and grants
// its rewards. Task completion is not enforced here; callers gate the action
// on all tasks being done. A mission that is already completed is rejected
// with ErrMissionAlreadyCompleted and u is returned untouched.
func CompleteMission(u User, mission Mission, ranks []Rank) (Outcome, error) {
	if um, ok := u.Mission(mission.ID); ok && um.IsCompleted {
		return Outcome{User: u}, ErrMissionAlreadyCompleted
	}

	next := u.Clone()
	slot := missionSlot(&next, mission)
	next.Missions[slot].IsCompleted = true

	summary := RewardSummary{XP: mission.RewardXP, Mana: mission.RewardMana}
	next.XP += mission.RewardXP
	next.Mana += mission.RewardMana

	for _, reward := range mission.Rewards() {
		switch r := reward.(type) {
		case CompetencyReward:
			if change, ok := raiseCompetency(&next, r); ok {
				summary.Competencies = append(summary.Competencies, change)
			}
		case SkillReward:
			if change, ok := raiseSkill(&next, r); ok {
				summary.Skills = append(summary.Skills, change)
			}
		case ArtifactReward:
			var added bool
			next.Artifacts, added = GrantArtifact(next.Artifacts, r.Artifact)
			if added {
				summary.Artifacts = append(summary.Artifacts, r.Artifact)
			}
		}
	}

	return Outcome{User: next, RankUp: promote(&next, ranks), Summary: summary}, nil
}

// raiseCompetency applies a competency reward. Competencies the pilot does
// not own are skipped.
func raiseCompetency(u *User, r CompetencyReward) (LevelChange, bool) {
	for i := range u.Competencies {
		c := &u.Competencies[i]
		if c.ID != r.Competency.ID {
			continue
		}
		from := c.UserLevel
		c.UserLevel = RaiseLevel(from, r.LevelIncrease, c.MaxLevel)
		return LevelChange{ID: c.ID, Name: c.Name, From: from, To: c.UserLevel}, true
	}
	return LevelChange{}, false
}

// raiseSkill applies a skill reward to the first owned competency that holds
// the skill, regardless of which competency the reward was issued next to.
func raiseSkill(u *User, r SkillReward) (LevelChange, bool) {
	for i := range u.Competencies {
		skills := u.Competencies[i].Skills
		for j := range skills {
			s := &skills[j]
			if s.ID != r.Skill.ID {
				continue
			}
			from := s.UserLevel
			s.UserLevel = RaiseLevel(from, r.LevelIncrease, s.MaxLevel)
			return LevelChange{ID: s.ID, Name: s.Name, From: from, To: s.UserLevel}, true
		}
	}
	return LevelChange{}, false
}

// UncompleteMission reopens a mission: the completion and approval flags and
// every task are reset. Granted XP, mana, levels and artifacts are kept.
// Unknown missions leave the pilot unchanged.
func UncompleteMission(u User, missionID uint) User {
	next := u.Clone()
	for i := range next.Missions {
		um := &next.Missions[i]
		if um.ID != missionID {
			continue
		}
		um.IsCompleted = false
		um.IsApproved = false
		for j := range um.UserTasks {
			um.UserTasks[j].IsCompleted = false
		}
	}
	return next
}

// ToggleTask sets the completion state of one task. Tasks can only change
// while the mission is open.
func ToggleTask(u User, mission Mission, taskID uint, done bool) (User, error) {
	if um, ok := u.Mission(mission.ID); ok && um.IsCompleted {
		return u, ErrMissionAlreadyCompleted
	}
	next := u.Clone()
	um := &next.Missions[missionSlot(&next, mission)]
	for i := range um.UserTasks {
		if um.UserTasks[i].ID == taskID {
			um.UserTasks[i].IsCompleted = done
			return next, nil
		}
	}
	return u, ErrTaskNotFound
}

// ApproveMission sets the moderation flag on a completed mission.
func ApproveMission(u User, missionID uint) (User, error) {
	um, ok := u.Mission(missionID)
	if !ok || !um.IsCompleted {
		return u, ErrMissionNotCompleted
	}
	next := u.Clone()
	for i := range next.Missions {
		if next.Missions[i].ID == missionID {
			next.Missions[i].IsApproved = true
		}
	}
	return next, nil
}

// GrantXP adds XP and mana outside of a mission, e.g. an admin bonus.
// Negative amounts are ignored.
func GrantXP(u User, xp, mana int64, ranks []Rank) Outcome {
	next := u.Clone()
	var summary RewardSummary
	if xp > 0 {
		next.XP += xp
		summary.XP = xp
	}
	if mana > 0 {
		next.Mana += mana
		summary.Mana = mana
	}
	return Outcome{User: next, RankUp: promote(&next, ranks), Summary: summary}
}

// GrantCompetency gives the pilot a competency at level 0 together with the
// listed skills. Skills already held under that competency keep their level.
func GrantCompetency(u User, c Competency, skills []Skill) User {
	next := u.Clone()
	idx := -1
	for i := range next.Competencies {
		if next.Competencies[i].ID == c.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		next.Competencies = append(next.Competencies, UserCompetency{Competency: c})
		idx = len(next.Competencies) - 1
	}
	uc := &next.Competencies[idx]
	for _, s := range skills {
		held := false
		for _, have := range uc.Skills {
			if have.ID == s.ID {
				held = true
				break
			}
		}
		if !held {
			uc.Skills = append(uc.Skills, UserSkill{Skill: s})
		}
	}
	return next
}
