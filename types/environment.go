package types

// Environment driven by the agent, one episode at a time
type Environment interface {
	// Reset called at the start of each episode
	Reset(*EpisodeContext) (State, error)
	// Step applies the action, the reward and termination of the step
	// are reported through the StepContext
	Step(Action, *StepContext) (State, error)
}

// State of the system that RL policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Actions possible from the state
	Actions() []Action
}

// And Action that RL policy can take
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

type StateAbstractor func(State) string

// DefaultAbstractor uses the hash of the state
func DefaultAbstractor() StateAbstractor {
	return func(s State) string {
		return s.Hash()
	}
}
