package progression

import "errors"

var (
	ErrMissionAlreadyCompleted = errors.New("mission already completed")
	ErrMissionNotCompleted     = errors.New("mission not completed")
	ErrTaskNotFound            = errors.New("task not found in mission")
	ErrChainNotResolved        = errors.New("mission chain not fully completed")
	ErrChainAlreadyClaimed     = errors.New("mission chain reward already claimed")
	ErrChainCycle              = errors.New("mission chain dependencies contain a cycle")
	ErrUnknownPrerequisite     = errors.New("mission chain prerequisite is not part of the chain")
	ErrMixedRankRequirement    = errors.New("mission chain mixes rank requirements")
)
