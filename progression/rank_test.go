package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortRanks_ByRequiredXP(t *testing.T) {
	sorted := SortRanks(testRanks())
	require.Len(t, sorted, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{sorted[0].ID, sorted[1].ID, sorted[2].ID})
	assert.Equal(t, 2, RankIndex(testRanks(), 3))
	assert.Equal(t, -1, RankIndex(testRanks(), 99))
}

func TestResolveRank(t *testing.T) {
	ranks := testRanks()

	r, ok := ResolveRank(ranks, 0)
	require.True(t, ok)
	assert.Equal(t, uint(1), r.ID)

	r, ok = ResolveRank(ranks, 999)
	require.True(t, ok)
	assert.Equal(t, uint(2), r.ID)

	r, ok = ResolveRank(ranks, 1000)
	require.True(t, ok)
	assert.Equal(t, uint(3), r.ID)
}

func TestResolveRank_BelowEveryThreshold(t *testing.T) {
	_, ok := ResolveRank([]Rank{{ID: 1, RequiredXP: 100}}, 50)
	assert.False(t, ok)

	_, ok = ResolveRank(nil, 50)
	assert.False(t, ok)
}

func TestPromote_NeverRegresses(t *testing.T) {
	u := User{RankID: 3, XP: 10}
	assert.Nil(t, promote(&u, testRanks()))
	assert.Equal(t, uint(3), u.RankID)
}

func TestPromote_BelowThresholdKeepsRank(t *testing.T) {
	u := User{RankID: 1, XP: 5}
	ranks := []Rank{{ID: 1, RequiredXP: 100}, {ID: 2, RequiredXP: 200}}
	assert.Nil(t, promote(&u, ranks))
	assert.Equal(t, uint(1), u.RankID)
}

func TestNextRank_ReportsMissingRequirements(t *testing.T) {
	gate := testMission(5, 0, 0)
	ranks := []Rank{
		{ID: 1, RequiredXP: 0},
		{ID: 2, RequiredXP: 500,
			RequiredMissions:     []Mission{gate},
			RequiredCompetencies: []CompetencyRequirement{{Competency: commOps, MinLevel: 3}},
		},
	}
	u := testUser()
	u.XP = 200

	p := NextRank(u, ranks)
	require.NotNil(t, p.Next)
	assert.Equal(t, uint(1), p.Current.ID)
	assert.Equal(t, uint(2), p.Next.ID)
	assert.Equal(t, int64(300), p.XPRemaining)
	assert.Len(t, p.MissingMissions, 1)
	assert.Len(t, p.MissingCompetencies, 1)
	assert.False(t, p.RequirementsAchieved)
}

func TestNextRank_TopRank(t *testing.T) {
	p := NextRank(User{RankID: 3, XP: 5000}, testRanks())
	assert.Nil(t, p.Next)
	assert.True(t, p.RequirementsAchieved)
}
