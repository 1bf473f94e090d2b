package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleRankIDs_Window(t *testing.T) {
	ranks := fiveRanks()

	assert.Equal(t, []uint{10}, VisibleRankIDs(ranks, 10))
	assert.Equal(t, []uint{20}, VisibleRankIDs(ranks, 20))
	assert.Equal(t, []uint{30}, VisibleRankIDs(ranks, 30))
	assert.Equal(t, []uint{30, 40}, VisibleRankIDs(ranks, 40))
	assert.Equal(t, []uint{30, 40, 50}, VisibleRankIDs(ranks, 50))
	assert.Nil(t, VisibleRankIDs(ranks, 99))
}

func TestVisibleMissions(t *testing.T) {
	ranks := fiveRanks()
	var missions []Mission
	for i, rankID := range []uint{10, 20, 30, 40, 50} {
		m := testMission(uint(i+1), 0, 0)
		m.RankRequirement = rankID
		missions = append(missions, m)
	}

	ids := func(ms []Mission) []uint {
		var out []uint
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []uint{1}, ids(VisibleMissions(ranks, 10, missions)))
	assert.Equal(t, []uint{2}, ids(VisibleMissions(ranks, 20, missions)))
	assert.Equal(t, []uint{3, 4}, ids(VisibleMissions(ranks, 40, missions)))
}

func chainAtRank(id uint, rankIDs ...uint) MissionChain {
	c := MissionChain{ID: id}
	for i, r := range rankIDs {
		m := testMission(id*10+uint(i), 0, 0)
		m.RankRequirement = r
		c.Missions = append(c.Missions, m)
		c.MissionOrders = append(c.MissionOrders, MissionOrder{MissionID: m.ID, Order: i})
	}
	return c
}

func TestVisibleChains(t *testing.T) {
	ranks := fiveRanks()
	same := chainAtRank(1, 30, 30)
	mixed := chainAtRank(2, 30, 40)
	higher := chainAtRank(3, 50)
	finished := chainAtRank(4, 40)

	u := User{RankID: 40}
	for _, m := range finished.Missions {
		um := NewUserMission(m)
		um.IsCompleted, um.IsApproved = true, true
		u.Missions = append(u.Missions, um)
	}

	views := VisibleChains(ranks, u, []MissionChain{same, mixed, higher, finished})
	require.Len(t, views, 1)
	assert.Equal(t, uint(1), views[0].Chain.ID)
}

func TestVisibleChains_LowTierSeesOnlyOwnTier(t *testing.T) {
	ranks := fiveRanks()
	own := chainAtRank(1, 20)
	above := chainAtRank(2, 30)
	below := chainAtRank(3, 10)

	views := VisibleChains(ranks, User{RankID: 20}, []MissionChain{own, above, below})
	require.Len(t, views, 1)
	assert.Equal(t, uint(1), views[0].Chain.ID)
}
