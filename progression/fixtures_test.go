package progression

func testRanks() []Rank {
	// Deliberately out of id and XP order.
	return []Rank{
		{ID: 3, Name: "Navigator", RequiredXP: 1000},
		{ID: 1, Name: "Cadet", RequiredXP: 0},
		{ID: 2, Name: "Pilot", RequiredXP: 500},
	}
}

func fiveRanks() []Rank {
	return []Rank{
		{ID: 10, Name: "Cadet", RequiredXP: 0},
		{ID: 20, Name: "Pilot", RequiredXP: 500},
		{ID: 30, Name: "Navigator", RequiredXP: 1000},
		{ID: 40, Name: "Captain", RequiredXP: 2000},
		{ID: 50, Name: "Admiral", RequiredXP: 4000},
	}
}

var (
	commOps  = Competency{ID: 1, Name: "Communication", MaxLevel: 5}
	techOps  = Competency{ID: 2, Name: "Engineering", MaxLevel: 3}
	speaking = Skill{ID: 11, CompetencyID: 1, Name: "Public speaking", MaxLevel: 4}
	golang   = Skill{ID: 21, CompetencyID: 2, Name: "Go", MaxLevel: 2}
	badge    = Artifact{ID: 7, Title: "First Flight", Rarity: RarityRare}
)

func testUser() User {
	return User{
		Login:  "pilot",
		RankID: 1,
		Competencies: []UserCompetency{
			{Competency: commOps, UserLevel: 1, Skills: []UserSkill{{Skill: speaking}}},
			{Competency: techOps, Skills: []UserSkill{{Skill: golang, UserLevel: 1}}},
		},
	}
}

func testMission(id uint, xp, mana int64) Mission {
	return Mission{
		ID:              id,
		Title:           "Onboarding",
		RewardXP:        xp,
		RewardMana:      mana,
		RankRequirement: 1,
		Category:        CategorySolo,
		Tasks: []Task{
			{ID: id*100 + 1, Title: "Read handbook"},
			{ID: id*100 + 2, Title: "Meet the team"},
		},
	}
}
