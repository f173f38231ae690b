package blocks

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// ActionSource produces the next action from an observation.
// Used to drive the agent from something other than the caller,
// a scripted demonstrator or an externally trained policy.
type ActionSource interface {
	NextAction(*Observation) (Action, error)
}

// ActionSourceFunc adapts a function to an ActionSource
type ActionSourceFunc func(*Observation) (Action, error)

func (f ActionSourceFunc) NextAction(obs *Observation) (Action, error) {
	return f(obs)
}

// ScriptedSource replays a fixed list of actions, then stays put
type ScriptedSource struct {
	actions []Action
	next    int
}

var _ ActionSource = &ScriptedSource{}

func NewScriptedSource(actions ...Action) *ScriptedSource {
	return &ScriptedSource{actions: actions}
}

func (s *ScriptedSource) NextAction(_ *Observation) (Action, error) {
	if s.next >= len(s.actions) {
		return None, nil
	}
	a := s.actions[s.next]
	s.next++
	return a, nil
}

// Remaining is the number of scripted actions not yet played
func (s *ScriptedSource) Remaining() int {
	return len(s.actions) - s.next
}

// RandomSource samples actions with fixed weights
type RandomSource struct {
	rng     *rand.Rand
	weights []float64
}

var _ ActionSource = &RandomSource{}

// NewRandomSource creates a seeded source, nil weights sample uniformly
func NewRandomSource(seed uint64, weights []float64) (*RandomSource, error) {
	if weights == nil {
		weights = make([]float64, NumActions)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != NumActions {
		return nil, fmt.Errorf("%w: need %d weights, got %d", ErrConfig, NumActions, len(weights))
	}
	return &RandomSource{
		rng:     rand.New(rand.NewSource(seed)),
		weights: weights,
	}, nil
}

func (r *RandomSource) NextAction(_ *Observation) (Action, error) {
	i, ok := sampleuv.NewWeighted(r.weights, r.rng).Take()
	if !ok {
		return None, fmt.Errorf("%w: all action weights are zero", ErrConfig)
	}
	return Action(i), nil
}

// OtherAgentEnv ignores the actions it is given and steps the environment
// with the actions of another agent instead. The caller only watches.
type OtherAgentEnv struct {
	*Env
	source ActionSource
}

func NewOtherAgentEnv(env *Env, source ActionSource) *OtherAgentEnv {
	return &OtherAgentEnv{Env: env, source: source}
}

// Step validates the requested action, then plays the source's action
func (o *OtherAgentEnv) Step(requested Action) (StepResult, error) {
	if !requested.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(requested))
	}
	action, err := o.source.NextAction(o.Env.Observe())
	if err != nil {
		return StepResult{}, fmt.Errorf("other agent: %w", err)
	}
	return o.Env.Step(action)
}
