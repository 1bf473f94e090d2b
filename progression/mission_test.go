package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteMission_RankUpScenario(t *testing.T) {
	u := User{Login: "pilot", RankID: 1, XP: 0}
	m := testMission(1, 600, 50)

	out, err := CompleteMission(u, m, testRanks())
	require.NoError(t, err)

	assert.Equal(t, int64(600), out.User.XP)
	assert.Equal(t, int64(50), out.User.Mana)
	assert.Equal(t, uint(2), out.User.RankID)
	require.NotNil(t, out.RankUp)
	assert.Equal(t, uint(1), out.RankUp.From.ID)
	assert.Equal(t, uint(2), out.RankUp.To.ID)

	um, ok := out.User.Mission(1)
	require.True(t, ok, "user mission should be created lazily")
	assert.True(t, um.IsCompleted)
	assert.False(t, um.IsApproved)
	assert.Equal(t, 0, um.CompletedTasksCount(), "completion does not force task completion")
}

func TestCompleteMission_DoesNotMutateInput(t *testing.T) {
	u := testUser()
	m := testMission(1, 100, 10)
	m.RewardCompetencies = []CompetencyReward{{Competency: commOps, LevelIncrease: 2}}
	m.RewardArtifacts = []Artifact{badge}

	out, err := CompleteMission(u, m, testRanks())
	require.NoError(t, err)

	assert.Equal(t, int64(0), u.XP)
	assert.Empty(t, u.Missions)
	assert.Empty(t, u.Artifacts)
	assert.Equal(t, 1, u.Competencies[0].UserLevel)
	assert.Equal(t, 3, out.User.Competencies[0].UserLevel)
}

func TestCompleteMission_AppliesRewardManifest(t *testing.T) {
	u := testUser()
	m := testMission(1, 100, 10)
	m.RewardCompetencies = []CompetencyReward{
		{Competency: commOps, LevelIncrease: 10},
		{Competency: Competency{ID: 99, Name: "Not owned", MaxLevel: 3}, LevelIncrease: 1},
	}
	m.RewardSkills = []SkillReward{
		{Skill: golang, LevelIncrease: 5},
		{Skill: Skill{ID: 404, MaxLevel: 3}, LevelIncrease: 1},
	}
	m.RewardArtifacts = []Artifact{badge, badge}

	out, err := CompleteMission(u, m, testRanks())
	require.NoError(t, err)

	assert.Equal(t, 5, out.User.Competencies[0].UserLevel, "clamped to max level")
	assert.Equal(t, 2, out.User.Competencies[1].Skills[0].UserLevel, "skill clamped to its max level")
	assert.Len(t, out.User.Artifacts, 1)

	assert.Len(t, out.Summary.Competencies, 1, "non-owned competency is skipped")
	assert.Len(t, out.Summary.Skills, 1, "unknown skill is skipped")
	assert.Len(t, out.Summary.Artifacts, 1)
	assert.Equal(t, LevelChange{ID: 1, Name: "Communication", From: 1, To: 5}, out.Summary.Competencies[0])
}

func TestCompleteMission_SkillFoundUnderAnyCompetency(t *testing.T) {
	u := testUser()
	m := testMission(1, 0, 0)
	// The reward names the skill next to Communication, but the pilot holds
	// it under Engineering.
	m.RewardCompetencies = []CompetencyReward{{Competency: commOps, LevelIncrease: 1}}
	m.RewardSkills = []SkillReward{{Skill: Skill{ID: golang.ID, CompetencyID: commOps.ID}, LevelIncrease: 1}}

	out, err := CompleteMission(u, m, testRanks())
	require.NoError(t, err)
	assert.Equal(t, 2, out.User.Competencies[1].Skills[0].UserLevel)
}

func TestCompleteMission_RejectsSecondCompletion(t *testing.T) {
	m := testMission(1, 100, 10)
	first, err := CompleteMission(testUser(), m, testRanks())
	require.NoError(t, err)

	second, err := CompleteMission(first.User, m, testRanks())
	assert.ErrorIs(t, err, ErrMissionAlreadyCompleted)
	assert.Equal(t, first.User.XP, second.User.XP)
	assert.Equal(t, first.User.Mana, second.User.Mana)
	assert.Nil(t, second.RankUp)
}

func TestCompleteMission_MonotonicAcrossCalls(t *testing.T) {
	ranks := fiveRanks()
	u := User{Login: "pilot", RankID: 10}
	lastIdx := RankIndex(ranks, u.RankID)
	for i := uint(1); i <= 6; i++ {
		out, err := CompleteMission(u, testMission(i, 450, 5), ranks)
		require.NoError(t, err)
		assert.Greater(t, out.User.XP, u.XP)
		assert.Greater(t, out.User.Mana, u.Mana)
		idx := RankIndex(ranks, out.User.RankID)
		assert.GreaterOrEqual(t, idx, lastIdx)
		lastIdx = idx
		u = out.User
	}
	assert.Equal(t, uint(40), u.RankID)
}

func TestCompleteMission_KeepsHigherRankThanXPQualifies(t *testing.T) {
	u := User{Login: "pilot", RankID: 3, XP: 0}
	out, err := CompleteMission(u, testMission(1, 600, 0), testRanks())
	require.NoError(t, err)
	assert.Equal(t, uint(3), out.User.RankID)
	assert.Nil(t, out.RankUp)
}

func TestUncompleteMission_KeepsGrants(t *testing.T) {
	m := testMission(1, 100, 50)
	m.RewardArtifacts = []Artifact{badge}
	u, err := ToggleTask(testUser(), m, 101, true)
	require.NoError(t, err)

	done, err := CompleteMission(u, m, testRanks())
	require.NoError(t, err)
	require.Equal(t, int64(50), done.User.Mana)

	reopened := UncompleteMission(done.User, m.ID)
	assert.Equal(t, int64(50), reopened.Mana)
	assert.Equal(t, int64(100), reopened.XP)
	assert.Len(t, reopened.Artifacts, 1)

	um, ok := reopened.Mission(m.ID)
	require.True(t, ok)
	assert.False(t, um.IsCompleted)
	assert.Equal(t, 0, um.CompletedTasksCount())

	assert.True(t, done.User.Missions[0].IsCompleted, "previous aggregate untouched")
}

func TestUncompleteMission_UnknownMission(t *testing.T) {
	u := testUser()
	assert.Equal(t, u, UncompleteMission(u, 42))
}

func TestToggleTask(t *testing.T) {
	m := testMission(1, 0, 0)
	u, err := ToggleTask(testUser(), m, 102, true)
	require.NoError(t, err)

	um, _ := u.Mission(1)
	assert.Equal(t, 1, um.CompletedTasksCount())
	assert.Equal(t, 2, um.TotalTasksCount())
	assert.InDelta(t, 0.5, um.Progress(), 1e-9)

	u, err = ToggleTask(u, m, 102, false)
	require.NoError(t, err)
	um, _ = u.Mission(1)
	assert.Equal(t, 0, um.CompletedTasksCount())

	_, err = ToggleTask(u, m, 999, true)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestToggleTask_ClosedAfterCompletion(t *testing.T) {
	m := testMission(1, 0, 0)
	out, err := CompleteMission(testUser(), m, testRanks())
	require.NoError(t, err)

	_, err = ToggleTask(out.User, m, 101, true)
	assert.ErrorIs(t, err, ErrMissionAlreadyCompleted)
}

func TestApproveMission(t *testing.T) {
	m := testMission(1, 0, 0)
	_, err := ApproveMission(testUser(), m.ID)
	assert.ErrorIs(t, err, ErrMissionNotCompleted)

	out, err := CompleteMission(testUser(), m, testRanks())
	require.NoError(t, err)
	approved, err := ApproveMission(out.User, m.ID)
	require.NoError(t, err)
	um, _ := approved.Mission(m.ID)
	assert.True(t, um.IsApproved)
}

func TestGrantXP_IgnoresNegative(t *testing.T) {
	out := GrantXP(User{RankID: 1, XP: 100, Mana: 10}, -50, 5, testRanks())
	assert.Equal(t, int64(100), out.User.XP)
	assert.Equal(t, int64(15), out.User.Mana)
	assert.Nil(t, out.RankUp)
}

func TestGrantCompetency_Idempotent(t *testing.T) {
	u := GrantCompetency(User{}, techOps, []Skill{golang})
	u = GrantCompetency(u, techOps, []Skill{golang})
	require.Len(t, u.Competencies, 1)
	assert.Len(t, u.Competencies[0].Skills, 1)
	assert.Equal(t, 0, u.Competencies[0].UserLevel)
}

func TestMissionRewards_TaggedUnion(t *testing.T) {
	m := testMission(1, 0, 0)
	m.RewardCompetencies = []CompetencyReward{{Competency: commOps, LevelIncrease: 1}}
	m.RewardSkills = []SkillReward{{Skill: speaking, LevelIncrease: 1}}
	m.RewardArtifacts = []Artifact{badge}

	kinds := make([]string, 0, 3)
	for _, r := range m.Rewards() {
		kinds = append(kinds, r.rewardKind())
	}
	assert.Equal(t, []string{"competency", "skill", "artifact"}, kinds)
}
