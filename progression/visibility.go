package progression

// firstSharedTier is the index of the first rank whose pilots see missions
// of more than one tier.
const firstSharedTier = 2

// VisibleRankIDs lists the rank ids whose missions a pilot of userRankID may
// see. The two lowest ranks see only their own tier; from the third rank on
// a pilot sees every tier from the third up to their own. An unknown rank
// sees nothing.
func VisibleRankIDs(ranks []Rank, userRankID uint) []uint {
	sorted := SortRanks(ranks)
	idx := -1
	for i, r := range sorted {
		if r.ID == userRankID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return nil
	case idx < firstSharedTier:
		return []uint{sorted[idx].ID}
	}
	out := make([]uint, 0, idx-firstSharedTier+1)
	for _, r := range sorted[firstSharedTier : idx+1] {
		out = append(out, r.ID)
	}
	return out
}

func rankSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// VisibleMissions filters missions down to the pilot's visibility window,
// keeping catalog order.
func VisibleMissions(ranks []Rank, userRankID uint, missions []Mission) []Mission {
	window := rankSet(VisibleRankIDs(ranks, userRankID))
	var out []Mission
	for _, m := range missions {
		if _, ok := window[m.RankRequirement]; ok {
			out = append(out, m)
		}
	}
	return out
}

// VisibleChains resolves the chains a pilot may see. Chains mixing rank
// requirements, chains outside the window and chains the pilot already
// finished are left out.
func VisibleChains(ranks []Rank, u User, chains []MissionChain) []ChainView {
	window := rankSet(VisibleRankIDs(ranks, u.RankID))
	userMissions := u.MissionIndex()
	var out []ChainView
	for _, c := range chains {
		rankID, ok := ChainRankRequirement(c)
		if !ok {
			continue
		}
		if _, visible := window[rankID]; !visible {
			continue
		}
		view := ResolveChain(c, userMissions)
		if view.Resolved() {
			continue
		}
		out = append(out, view)
	}
	return out
}
