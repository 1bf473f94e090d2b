package progression

import "sort"

// RankUp is reported when a transition promotes the pilot.
type RankUp struct {
	From Rank `json:"from"`
	To   Rank `json:"to"`
}

// SortRanks returns a copy of ranks ordered by RequiredXP, ties by id.
func SortRanks(ranks []Rank) []Rank {
	out := append([]Rank(nil), ranks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RequiredXP != out[j].RequiredXP {
			return out[i].RequiredXP < out[j].RequiredXP
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RankIndex is the position of rankID in the XP-sorted rank list, or -1.
func RankIndex(ranks []Rank, rankID uint) int {
	for i, r := range SortRanks(ranks) {
		if r.ID == rankID {
			return i
		}
	}
	return -1
}

func findRank(ranks []Rank, rankID uint) (Rank, bool) {
	for _, r := range ranks {
		if r.ID == rankID {
			return r, true
		}
	}
	return Rank{}, false
}

// LowestRank is the entry rank for new pilots.
func LowestRank(ranks []Rank) (Rank, bool) {
	sorted := SortRanks(ranks)
	if len(sorted) == 0 {
		return Rank{}, false
	}
	return sorted[0], true
}

// ResolveRank picks the rank with the highest RequiredXP not above xp.
// ok is false when xp is below every threshold.
func ResolveRank(ranks []Rank, xp int64) (rank Rank, ok bool) {
	for _, r := range ranks {
		if r.RequiredXP > xp {
			continue
		}
		if !ok || r.RequiredXP > rank.RequiredXP {
			rank, ok = r, true
		}
	}
	return rank, ok
}

// promote moves u to the rank its XP qualifies for, but only upward in the
// XP order. u is modified; callers pass their own copy.
func promote(u *User, ranks []Rank) *RankUp {
	target, ok := ResolveRank(ranks, u.XP)
	if !ok || target.ID == u.RankID {
		return nil
	}
	current, known := findRank(ranks, u.RankID)
	if known && RankIndex(ranks, target.ID) <= RankIndex(ranks, current.ID) {
		return nil
	}
	u.RankID = target.ID
	return &RankUp{From: current, To: target}
}

// RankProgress describes how far a pilot is from the next rank.
type RankProgress struct {
	Current              Rank                    `json:"current"`
	Next                 *Rank                   `json:"next,omitempty"`
	XPRemaining          int64                   `json:"xp_remaining"`
	MissingMissions      []Mission               `json:"missing_missions,omitempty"`
	MissingCompetencies  []CompetencyRequirement `json:"missing_competencies,omitempty"`
	RequirementsAchieved bool                    `json:"requirements_achieved"`
}

// NextRank reports the pilot's current rank and what the following rank in
// XP order still asks for. It is informational only; ResolveRank is driven
// by XP alone.
func NextRank(u User, ranks []Rank) RankProgress {
	sorted := SortRanks(ranks)
	var progress RankProgress
	idx := -1
	for i, r := range sorted {
		if r.ID == u.RankID {
			idx = i
			progress.Current = r
			break
		}
	}
	if idx+1 >= len(sorted) {
		progress.RequirementsAchieved = true
		return progress
	}
	next := sorted[idx+1]
	progress.Next = &next
	if remaining := next.RequiredXP - u.XP; remaining > 0 {
		progress.XPRemaining = remaining
	}

	done := u.MissionIndex()
	for _, m := range next.RequiredMissions {
		if um, ok := done[m.ID]; !ok || !um.IsCompleted {
			progress.MissingMissions = append(progress.MissingMissions, m)
		}
	}
	levels := make(map[uint]int, len(u.Competencies))
	for _, c := range u.Competencies {
		levels[c.ID] = c.UserLevel
	}
	for _, req := range next.RequiredCompetencies {
		if lvl, ok := levels[req.Competency.ID]; !ok || lvl < req.MinLevel {
			progress.MissingCompetencies = append(progress.MissingCompetencies, req)
		}
	}
	progress.RequirementsAchieved = progress.XPRemaining == 0 &&
		len(progress.MissingMissions) == 0 &&
		len(progress.MissingCompetencies) == 0
	return progress
}
