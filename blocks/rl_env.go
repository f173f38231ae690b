package blocks

import (
	"fmt"
	"strings"

	"github.com/zeu5/miniblocks/grid"
	"github.com/zeu5/miniblocks/types"
)

// RLEnv drives an Env from the experiment harness
type RLEnv struct {
	env *Env
	// RandomStart is passed to every Reset
	RandomStart bool
}

var _ types.Environment = &RLEnv{}

func NewRLEnv(env *Env) *RLEnv {
	return &RLEnv{
		env:         env,
		RandomStart: env.Config().RandomStart,
	}
}

// Env returns the wrapped environment
func (r *RLEnv) Env() *Env {
	return r.env
}

func (r *RLEnv) Reset(_ *types.EpisodeContext) (types.State, error) {
	obs, err := r.env.Reset(r.RandomStart)
	if err != nil {
		return nil, err
	}
	return snapshot(r.env, obs), nil
}

func (r *RLEnv) Step(a types.Action, sCtx *types.StepContext) (types.State, error) {
	movement, ok := a.(*Movement)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a movement", ErrInvalidAction, a)
	}
	res, err := r.env.Step(movement.Action)
	if err != nil {
		return nil, err
	}
	sCtx.Reward = res.Reward
	sCtx.Done = res.Done
	for k, v := range res.Info {
		sCtx.Info[k] = v
	}
	return snapshot(r.env, res.Obs), nil
}

// State is the RL view of the environment after a step. The hash covers
// the agent pose and the movable objects, the step counter and the event are
// left out so that revisiting a configuration maps to the same state.
type State struct {
	Agent      grid.Point
	Dir        Action
	Blocks     []grid.Point
	BlockDoors []grid.Point
	Event      Event
	Terminal   bool
	ObsHash    string
}

var _ types.State = &State{}

func snapshot(env *Env, obs *Observation) *State {
	g := env.grid
	return &State{
		Agent:      env.AgentPos(),
		Dir:        env.AgentDir(),
		Blocks:     g.Find(grid.Block, grid.Other),
		BlockDoors: g.Find(grid.BlockDoor),
		Event:      env.LastEvent(),
		Terminal:   env.State() == Terminated,
		ObsHash:    obs.Hash(),
	}
}

func joinPoints(points []grid.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = p.String()
	}
	return strings.Join(parts, ",")
}

func (s *State) Hash() string {
	return fmt.Sprintf("agent=%s,%s blocks=[%s] blockdoors=[%s]",
		s.Agent, s.Dir, joinPoints(s.Blocks), joinPoints(s.BlockDoors))
}

// Actions of a terminated episode are empty
func (s *State) Actions() []types.Action {
	if s.Terminal {
		return []types.Action{}
	}
	return AllMovements
}

// PositionAbstractor keeps only the agent cell
func PositionAbstractor() types.StateAbstractor {
	return func(s types.State) string {
		bs, ok := s.(*State)
		if !ok {
			return s.Hash()
		}
		return bs.Agent.String()
	}
}

// ObservationAbstractor identifies states by what the agent observes
func ObservationAbstractor() types.StateAbstractor {
	return func(s types.State) string {
		bs, ok := s.(*State)
		if !ok {
			return s.Hash()
		}
		return bs.ObsHash
	}
}

// Movement wraps an Action for the harness
type Movement struct {
	Action Action
}

var _ types.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Action.String()
}

var (
	MovementRight = &Movement{Right}
	MovementDown  = &Movement{Down}
	MovementLeft  = &Movement{Left}
	MovementUp    = &Movement{Up}
	NoMovement    = &Movement{None}
	AllMovements  = []types.Action{
		MovementRight,
		MovementDown,
		MovementLeft,
		MovementUp,
		NoMovement,
	}
)
