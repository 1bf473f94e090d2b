package progression

import (
	"fmt"
	"sort"
)

// MissionStatus is the display state of a mission inside a chain.
type MissionStatus string

const (
	StatusLocked        MissionStatus = "locked"
	StatusTodo          MissionStatus = "todo"
	StatusInProgress    MissionStatus = "in_progress"
	StatusPendingReview MissionStatus = "pending_review"
	StatusCompleted     MissionStatus = "completed"
)

// Actionable reports whether the pilot can work on a mission in this state.
func (s MissionStatus) Actionable() bool {
	return s == StatusTodo || s == StatusInProgress
}

// chainGraph holds a chain's missions in explicit order and the
// prerequisite adjacency keyed by mission id.
type chainGraph struct {
	order         []uint
	missions      map[uint]Mission
	prerequisites map[uint][]uint
}

func newChainGraph(c MissionChain) chainGraph {
	g := chainGraph{
		missions:      make(map[uint]Mission, len(c.Missions)),
		prerequisites: make(map[uint][]uint),
	}
	for _, m := range c.Missions {
		if _, dup := g.missions[m.ID]; dup {
			continue
		}
		g.missions[m.ID] = m
		g.order = append(g.order, m.ID)
	}

	rank := make(map[uint]int, len(c.MissionOrders))
	for _, o := range c.MissionOrders {
		rank[o.MissionID] = o.Order
	}
	sort.SliceStable(g.order, func(i, j int) bool {
		a, b := g.order[i], g.order[j]
		ra, oka := rank[a]
		rb, okb := rank[b]
		switch {
		case oka && okb && ra != rb:
			return ra < rb
		case oka != okb:
			return oka
		default:
			return a < b
		}
	})

	for _, d := range c.Dependencies {
		g.prerequisites[d.MissionID] = append(g.prerequisites[d.MissionID], d.PrerequisiteID)
	}
	return g
}

// ClassifyMission computes the status of one mission given its declared
// prerequisites. Prerequisites only need to be completed, not approved.
func ClassifyMission(missionID uint, prerequisites []uint, userMissions map[uint]UserMission) MissionStatus {
	for _, pre := range prerequisites {
		if um, ok := userMissions[pre]; !ok || !um.IsCompleted {
			return StatusLocked
		}
	}
	um, ok := userMissions[missionID]
	switch {
	case !ok:
		return StatusTodo
	case um.IsCompleted && um.IsApproved:
		return StatusCompleted
	case um.IsCompleted:
		return StatusPendingReview
	case um.CompletedTasksCount() > 0:
		return StatusInProgress
	default:
		return StatusTodo
	}
}

type ChainMission struct {
	Mission       Mission       `json:"mission"`
	Order         int           `json:"order"`
	Prerequisites []uint        `json:"prerequisites,omitempty"`
	Status        MissionStatus `json:"status"`
}

// ChainView is the resolved display state of a chain for one pilot.
type ChainView struct {
	Chain     MissionChain   `json:"chain"`
	Missions  []ChainMission `json:"missions"`
	Completed int            `json:"completed"`
	Total     int            `json:"total"`
	Progress  float64        `json:"progress"`
	// NextMissionID is the earliest mission the pilot can act on; nil once
	// the chain has nothing actionable left.
	NextMissionID *uint `json:"next_mission_id,omitempty"`
}

// Resolved reports whether every mission in the chain is completed and approved.
func (v ChainView) Resolved() bool {
	return v.Total > 0 && v.Completed == v.Total
}

// ResolveChain classifies every mission of the chain for the pilot and
// derives chain progress and the next actionable mission.
func ResolveChain(c MissionChain, userMissions map[uint]UserMission) ChainView {
	g := newChainGraph(c)
	view := ChainView{Chain: c, Total: len(g.order)}
	for i, id := range g.order {
		status := ClassifyMission(id, g.prerequisites[id], userMissions)
		view.Missions = append(view.Missions, ChainMission{
			Mission:       g.missions[id],
			Order:         i,
			Prerequisites: g.prerequisites[id],
			Status:        status,
		})
		if status == StatusCompleted {
			view.Completed++
		}
		if view.NextMissionID == nil && status.Actionable() {
			next := id
			view.NextMissionID = &next
		}
	}
	if view.Total > 0 {
		view.Progress = float64(view.Completed) / float64(view.Total)
	}
	return view
}

// ChainRankRequirement returns the single rank all missions of the chain
// require. ok is false for empty chains and chains mixing requirements.
func ChainRankRequirement(c MissionChain) (rankID uint, ok bool) {
	for i, m := range c.Missions {
		if i == 0 {
			rankID = m.RankRequirement
			continue
		}
		if m.RankRequirement != rankID {
			return 0, false
		}
	}
	return rankID, len(c.Missions) > 0
}

// ValidateChain checks the structural invariants administrators must keep:
// prerequisites belong to the chain, the dependency relation is acyclic and
// all missions share one rank requirement.
func ValidateChain(c MissionChain) error {
	g := newChainGraph(c)
	for missionID, pres := range g.prerequisites {
		if _, ok := g.missions[missionID]; !ok {
			return fmt.Errorf("chain %d mission %d: %w", c.ID, missionID, ErrUnknownPrerequisite)
		}
		for _, pre := range pres {
			if _, ok := g.missions[pre]; !ok {
				return fmt.Errorf("chain %d mission %d requires %d: %w", c.ID, missionID, pre, ErrUnknownPrerequisite)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uint]int, len(g.order))
	var visit func(id uint) error
	visit = func(id uint) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("chain %d at mission %d: %w", c.ID, id, ErrChainCycle)
		case done:
			return nil
		}
		state[id] = visiting
		for _, pre := range g.prerequisites[id] {
			if err := visit(pre); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}

	if len(c.Missions) > 0 {
		if _, ok := ChainRankRequirement(c); !ok {
			return fmt.Errorf("chain %d: %w", c.ID, ErrMixedRankRequirement)
		}
	}
	return nil
}

// ClaimChainReward grants the chain's own reward once every mission in it is
// completed and approved. Each chain pays out at most once per pilot.
func ClaimChainReward(u User, c MissionChain, ranks []Rank) (Outcome, error) {
	if u.hasClaimed(c.ID) {
		return Outcome{User: u}, ErrChainAlreadyClaimed
	}
	if !ResolveChain(c, u.MissionIndex()).Resolved() {
		return Outcome{User: u}, ErrChainNotResolved
	}
	out := GrantXP(u, c.RewardXP, c.RewardMana, ranks)
	out.User.ClaimedChains = append(out.User.ClaimedChains, c.ID)
	return out, nil
}

// ClaimableChains lists the chains whose reward the pilot can collect:
// every mission completed and approved, reward not yet claimed. Rank windows
// do not apply; the chain's missions are already behind the pilot.
func ClaimableChains(u User, chains []MissionChain) []ChainView {
	userMissions := u.MissionIndex()
	var out []ChainView
	for _, c := range chains {
		if u.hasClaimed(c.ID) {
			continue
		}
		if view := ResolveChain(c, userMissions); view.Resolved() {
			out = append(out, view)
		}
	}
	return out
}
