package types

import "fmt"

type AgentConfig struct {
	Episodes    int
	Horizon     int
	Policy      Policy
	Environment Environment
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config      *AgentConfig
	policy      Policy
	environment Environment
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	return &Agent{
		config:      config,
		policy:      config.Policy,
		environment: config.Environment,
	}
}

// RunEpisode runs a single episode up to the horizon or a terminal state,
// the trace and the outcome are stored in the episode context
func (a *Agent) RunEpisode(eCtx *EpisodeContext) {
	state, err := a.environment.Reset(eCtx)
	if err != nil {
		eCtx.SetError(fmt.Errorf("reset: %w", err))
		return
	}
	actions := state.Actions()

	for i := 0; i < a.config.Horizon; i++ {
		select {
		case <-eCtx.Context.Done():
			eCtx.TimedOut = true
			return
		default:
		}
		if len(actions) == 0 {
			break
		}
		nextAction, ok := a.policy.NextAction(i, state, actions)
		if !ok {
			break
		}
		sCtx := NewStepContext(eCtx, i)
		nextState, err := a.environment.Step(nextAction, sCtx)
		if err != nil {
			eCtx.SetError(fmt.Errorf("step %d: %w", i, err))
			return
		}
		a.policy.Update(i, state, nextAction, nextState)

		eCtx.Trace.Append(i, state, nextAction, nextState, sCtx.Reward)
		eCtx.Timesteps += 1
		eCtx.TotalReward += sCtx.Reward
		state = nextState
		actions = nextState.Actions()

		if sCtx.Done {
			eCtx.Terminal = true
			break
		}
	}
	if !eCtx.Terminal && eCtx.Timesteps >= a.config.Horizon {
		eCtx.HorizonEnd = true
	}
	a.policy.UpdateIteration(eCtx.Episode, eCtx.Trace)
}
