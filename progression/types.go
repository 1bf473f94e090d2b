package progression

// Rarity of a collectible artifact.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is one of the known rarities.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// MissionCategory tells how many pilots a mission is meant for.
type MissionCategory string

const (
	CategorySolo   MissionCategory = "Solo"
	CategoryPaired MissionCategory = "Paired"
	CategoryGroup  MissionCategory = "Group"
)

type Artifact struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      Rarity `json:"rarity"`
	ImageURL    string `json:"image_url"`
}

type Competency struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	MaxLevel int    `json:"max_level"`
}

// Skill is a catalog skill. CompetencyID is the competency the skill is
// filed under when it is granted to a pilot.
type Skill struct {
	ID           uint   `json:"id"`
	CompetencyID uint   `json:"competency_id"`
	Name         string `json:"name"`
	MaxLevel     int    `json:"max_level"`
}

type UserSkill struct {
	Skill
	UserLevel int `json:"user_level"`
}

type UserCompetency struct {
	Competency
	UserLevel int         `json:"user_level"`
	Skills    []UserSkill `json:"skills"`
}

func (c UserCompetency) clone() UserCompetency {
	c.Skills = append([]UserSkill(nil), c.Skills...)
	return c
}

type Task struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UserTask struct {
	Task
	IsCompleted bool `json:"is_completed"`
}

type CompetencyReward struct {
	Competency    Competency `json:"competency"`
	LevelIncrease int        `json:"level_increase"`
}

type SkillReward struct {
	Skill         Skill `json:"skill"`
	LevelIncrease int   `json:"level_increase"`
}

type ArtifactReward struct {
	Artifact Artifact `json:"artifact"`
}

// Reward is one entry of a mission's reward manifest. The concrete type is
// one of CompetencyReward, SkillReward or ArtifactReward.
type Reward interface {
	rewardKind() string
}

func (CompetencyReward) rewardKind() string { return "competency" }
func (SkillReward) rewardKind() string      { return "skill" }
func (ArtifactReward) rewardKind() string   { return "artifact" }

// Mission is a catalog mission definition.
type Mission struct {
	ID                 uint               `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	RewardXP           int64              `json:"reward_xp"`
	RewardMana         int64              `json:"reward_mana"`
	RankRequirement    uint               `json:"rank_requirement"`
	SeasonID           uint               `json:"season_id"`
	Category           MissionCategory    `json:"category"`
	Tasks              []Task             `json:"tasks"`
	RewardArtifacts    []Artifact         `json:"reward_artifacts"`
	RewardCompetencies []CompetencyReward `json:"reward_competencies"`
	RewardSkills       []SkillReward      `json:"reward_skills"`
}

// Rewards flattens the three reward lists into one manifest, competencies
// first, then skills, then artifacts.
func (m Mission) Rewards() []Reward {
	out := make([]Reward, 0, len(m.RewardCompetencies)+len(m.RewardSkills)+len(m.RewardArtifacts))
	for _, r := range m.RewardCompetencies {
		out = append(out, r)
	}
	for _, r := range m.RewardSkills {
		out = append(out, r)
	}
	for _, a := range m.RewardArtifacts {
		out = append(out, ArtifactReward{Artifact: a})
	}
	return out
}

// UserMission is a pilot's instance of a catalog mission.
type UserMission struct {
	Mission
	IsCompleted bool       `json:"is_completed"`
	IsApproved  bool       `json:"is_approved"`
	UserTasks   []UserTask `json:"user_tasks"`
}

// NewUserMission defaults a pilot's instance from the catalog with every task open.
func NewUserMission(m Mission) UserMission {
	tasks := make([]UserTask, len(m.Tasks))
	for i, t := range m.Tasks {
		tasks[i] = UserTask{Task: t}
	}
	return UserMission{Mission: m, UserTasks: tasks}
}

func (um UserMission) CompletedTasksCount() int {
	n := 0
	for _, t := range um.UserTasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}

func (um UserMission) TotalTasksCount() int {
	return len(um.UserTasks)
}

// Progress is completed/total tasks. A mission without tasks reports 0.
func (um UserMission) Progress() float64 {
	total := um.TotalTasksCount()
	if total == 0 {
		return 0
	}
	return float64(um.CompletedTasksCount()) / float64(total)
}

func (um UserMission) clone() UserMission {
	um.UserTasks = append([]UserTask(nil), um.UserTasks...)
	return um
}

type CompetencyRequirement struct {
	Competency Competency `json:"competency"`
	MinLevel   int        `json:"min_level"`
}

type Rank struct {
	ID                   uint                    `json:"id"`
	Name                 string                  `json:"name"`
	RequiredXP           int64                   `json:"required_xp"`
	RequiredMissions     []Mission               `json:"required_missions,omitempty"`
	RequiredCompetencies []CompetencyRequirement `json:"required_competencies,omitempty"`
}

type MissionOrder struct {
	MissionID uint `json:"mission_id"`
	Order     int  `json:"order"`
}

// MissionDependency declares that MissionID cannot start before PrerequisiteID is completed.
type MissionDependency struct {
	MissionID      uint `json:"mission_id"`
	PrerequisiteID uint `json:"prerequisite_id"`
}

type MissionChain struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	RewardXP      int64               `json:"reward_xp"`
	RewardMana    int64               `json:"reward_mana"`
	Missions      []Mission           `json:"missions"`
	MissionOrders []MissionOrder      `json:"mission_orders"`
	Dependencies  []MissionDependency `json:"dependencies"`
}

// User is the progression aggregate of one pilot. Engine operations never
// modify a User in place; they return a copy with fresh collections.
type User struct {
	Login         string           `json:"login"`
	FirstName     string           `json:"first_name"`
	LastName      string           `json:"last_name"`
	Role          string           `json:"role"`
	RankID        uint             `json:"rank_id"`
	XP            int64            `json:"xp"`
	Mana          int64            `json:"mana"`
	Missions      []UserMission    `json:"missions"`
	Artifacts     []Artifact       `json:"artifacts"`
	Competencies  []UserCompetency `json:"competencies"`
	ClaimedChains []uint           `json:"claimed_chains"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	out.Missions = nil
	for _, m := range u.Missions {
		out.Missions = append(out.Missions, m.clone())
	}
	out.Artifacts = append([]Artifact(nil), u.Artifacts...)
	out.Competencies = nil
	for _, c := range u.Competencies {
		out.Competencies = append(out.Competencies, c.clone())
	}
	out.ClaimedChains = append([]uint(nil), u.ClaimedChains...)
	return out
}

// Mission returns the pilot's instance of the mission, if one exists.
func (u User) Mission(missionID uint) (UserMission, bool) {
	for _, m := range u.Missions {
		if m.ID == missionID {
			return m, true
		}
	}
	return UserMission{}, false
}

// MissionIndex maps mission id to the pilot's instance.
func (u User) MissionIndex() map[uint]UserMission {
	out := make(map[uint]UserMission, len(u.Missions))
	for _, m := range u.Missions {
		out[m.ID] = m
	}
	return out
}

func (u User) hasClaimed(chainID uint) bool {
	for _, id := range u.ClaimedChains {
		if id == chainID {
			return true
		}
	}
	return false
}

// Catalog is a read-only snapshot of everything administrators define.
type Catalog struct {
	Missions     []Mission      `json:"missions"`
	Ranks        []Rank         `json:"ranks"`
	Competencies []Competency   `json:"competencies"`
	Skills       []Skill        `json:"skills"`
	Artifacts    []Artifact     `json:"artifacts"`
	Chains       []MissionChain `json:"chains"`
}

func (c Catalog) Mission(id uint) (Mission, bool) {
	for _, m := range c.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

func (c Catalog) Chain(id uint) (MissionChain, bool) {
	for _, ch := range c.Chains {
		if ch.ID == id {
			return ch, true
		}
	}
	return MissionChain{}, false
}

func (c Catalog) Competency(id uint) (Competency, bool) {
	for _, comp := range c.Competencies {
		if comp.ID == id {
			return comp, true
		}
	}
	return Competency{}, false
}

func (c Catalog) Artifact(id uint) (Artifact, bool) {
	for _, a := range c.Artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// SkillsOf lists the catalog skills filed under a competency.
func (c Catalog) SkillsOf(competencyID uint) []Skill {
	var out []Skill
	for _, s := range c.Skills {
		if s.CompetencyID == competencyID {
			out = append(out, s)
		}
	}
	return out
}
