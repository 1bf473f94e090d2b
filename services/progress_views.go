package services

import (
	"context"

	"pilot-progress-system/progression"
)

// Overview is the pilot's profile page: aggregate, current rank, what the
// next rank still asks for and chain rewards waiting to be claimed.
type Overview struct {
	User            progression.User         `json:"user"`
	Rank            progression.RankProgress `json:"rank"`
	ClaimableChains []progression.ChainView  `json:"claimable_chains"`
}

// MissionCard is a visible mission with the pilot's state on it. Missions the
// pilot never touched are shown as a fresh instance.
type MissionCard struct {
	progression.UserMission
	Status   progression.MissionStatus `json:"status"`
	Progress float64                   `json:"progress"`
}

func (s *ProgressionService) Overview(ctx context.Context, login string) (Overview, error) {
	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return Overview{}, err
	}
	u, err := s.LoadUser(ctx, login)
	if err != nil {
		return Overview{}, err
	}
	claimable := progression.ClaimableChains(u, cat.Chains)
	if claimable == nil {
		claimable = []progression.ChainView{}
	}
	return Overview{
		User:            u,
		Rank:            progression.NextRank(u, cat.Ranks),
		ClaimableChains: claimable,
	}, nil
}

func newMissionCard(m progression.Mission, userMissions map[uint]progression.UserMission) MissionCard {
	um, ok := userMissions[m.ID]
	if !ok {
		um = progression.NewUserMission(m)
	}
	return MissionCard{
		UserMission: um,
		Status:      progression.ClassifyMission(m.ID, nil, userMissions),
		Progress:    um.Progress(),
	}
}

// VisibleMissions lists the missions inside the pilot's rank window.
func (s *ProgressionService) VisibleMissions(ctx context.Context, login string) ([]MissionCard, error) {
	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.LoadUser(ctx, login)
	if err != nil {
		return nil, err
	}
	userMissions := u.MissionIndex()
	cards := []MissionCard{}
	for _, m := range progression.VisibleMissions(cat.Ranks, u.RankID, cat.Missions) {
		cards = append(cards, newMissionCard(m, userMissions))
	}
	return cards, nil
}

// MissionCard returns one mission as the pilot sees it, provided it is in
// the pilot's rank window.
func (s *ProgressionService) MissionCard(ctx context.Context, login string, missionID uint) (MissionCard, error) {
	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return MissionCard{}, err
	}
	m, err := findMission(cat, missionID)
	if err != nil {
		return MissionCard{}, err
	}
	u, err := s.LoadUser(ctx, login)
	if err != nil {
		return MissionCard{}, err
	}
	if len(progression.VisibleMissions(cat.Ranks, u.RankID, []progression.Mission{m})) == 0 {
		return MissionCard{}, ErrMissionNotFound
	}
	return newMissionCard(m, u.MissionIndex()), nil
}

// VisibleChains lists the unfinished chains inside the pilot's rank window.
func (s *ProgressionService) VisibleChains(ctx context.Context, login string) ([]progression.ChainView, error) {
	cat, err := s.Catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.LoadUser(ctx, login)
	if err != nil {
		return nil, err
	}
	views := progression.VisibleChains(cat.Ranks, u, cat.Chains)
	if views == nil {
		views = []progression.ChainView{}
	}
	return views, nil
}
