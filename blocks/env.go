package blocks

import (
	"fmt"

	"github.com/zeu5/miniblocks/grid"
	"golang.org/x/exp/rand"
)

const (
	// BlockReward is given for pushing a block onto a goal
	BlockReward = 2.0
	// DoorReward is given for pushing a block into a door
	DoorReward = 1.0
)

// EpisodeState of the simulation
type EpisodeState int

const (
	Running EpisodeState = iota
	Terminated
)

func (s EpisodeState) String() string {
	if s == Running {
		return "running"
	}
	return "terminated"
}

// Event is the notable outcome of the last step
type Event int

const (
	EventNone Event = iota
	EventDoor
	EventGoal
	EventStepLimit
)

var eventNames = []string{"none", "door", "goal", "step_limit"}

func (e Event) String() string {
	if e >= EventNone && e <= EventStepLimit {
		return eventNames[e]
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// StepResult is what Step returns for a valid action
type StepResult struct {
	Obs    *Observation
	Reward float64
	Done   bool
	Info   map[string]any
}

// Env is the block pushing simulation.
// Not safe for concurrent use, every instance owns its grid and its PRNG.
type Env struct {
	config    Config
	generator LayoutGenerator
	rng       *rand.Rand
	maxSteps  int

	layout    *Layout
	grid      *grid.Grid
	agentPos  grid.Point
	agentDir  Action
	stepCount int
	state     EpisodeState
	lastEvent Event
	randStart bool
}

// NewEnv creates the environment named by the config and resets it
func NewEnv(config Config) (*Env, error) {
	return NewEnvWithGenerator(config, config.Generator())
}

// NewEnvWithGenerator creates an environment driven by a custom layout generator.
// The Layout field of the config is ignored.
func NewEnvWithGenerator(config Config, generator LayoutGenerator) (*Env, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: nil layout generator", ErrConfig)
	}
	e := &Env{
		config:    config,
		generator: generator,
		rng:       rand.New(rand.NewSource(config.Seed)),
		maxSteps:  config.MaxSteps(),
		state:     Terminated,
	}
	if _, err := e.Reset(config.RandomStart); err != nil {
		return nil, err
	}
	return e, nil
}

// Seed restarts the PRNG sequence, the next Reset draws from the new seed
func (e *Env) Seed(seed uint64) {
	e.rng.Seed(seed)
}

// Reset generates a new layout and places the agent.
// With randomizeStart the start cell is drawn uniformly among the empty
// cells of the viable rectangle.
func (e *Env) Reset(randomizeStart bool) (*Observation, error) {
	layout, err := e.generator.Generate(e.rng, e.config.Size, e.config.Size)
	if err != nil {
		return nil, fmt.Errorf("generating layout: %w", err)
	}
	if layout == nil || layout.Grid == nil {
		return nil, fmt.Errorf("%w: generator returned no grid", ErrContractViolation)
	}

	if randomizeStart {
		pos, err := e.randomStart(layout)
		if err != nil {
			return nil, err
		}
		layout.StartPos = &pos
	}

	if layout.StartPos == nil || layout.StartDir == nil {
		return nil, fmt.Errorf("%w: start position or direction not set", ErrContractViolation)
	}
	start, dir := *layout.StartPos, *layout.StartDir
	if !layout.Grid.InBounds(start.X, start.Y) {
		return nil, fmt.Errorf("%w: start %s outside the grid", ErrContractViolation, start)
	}
	if !dir.IsMove() {
		return nil, fmt.Errorf("%w: start direction %s", ErrContractViolation, dir)
	}
	if cell := layout.Grid.GetPoint(start); !cell.CanOverlap() {
		return nil, fmt.Errorf("%w: agent placed on %s at %s", ErrContractViolation, cell, start)
	}

	e.layout = layout
	e.grid = layout.Grid
	e.agentPos = start
	e.agentDir = dir
	e.stepCount = 0
	e.state = Running
	e.lastEvent = EventNone
	e.randStart = randomizeStart
	return e.Observe(), nil
}

// randomStart rejection samples an empty cell inside the rotated viable rectangle
func (e *Env) randomStart(layout *Layout) (grid.Point, error) {
	top := layout.ViableTopLeft()
	for try := 0; try < e.config.MaxPlacementTries; try++ {
		p := grid.Point{
			X: randInt(e.rng, top.X, top.X+layout.ViableWidth),
			Y: randInt(e.rng, top.Y, top.Y+layout.ViableHeight),
		}
		if !layout.Grid.InBounds(p.X, p.Y) {
			continue
		}
		if layout.Grid.GetPoint(p).IsEmpty() {
			return p, nil
		}
	}
	return grid.Point{}, fmt.Errorf("%w: no empty start cell after %d attempts", ErrGeneration, e.config.MaxPlacementTries)
}

// Step applies one action.
// Invalid actions fail with ErrInvalidAction and leave the state untouched.
func (e *Env) Step(action Action) (StepResult, error) {
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	if e.config.AutoReset {
		if e.stepCount > e.maxSteps {
			if _, err := e.Reset(e.randStart); err != nil {
				return StepResult{}, err
			}
		}
	} else if e.state == Terminated {
		return StepResult{}, ErrEpisodeTerminated
	}

	e.stepCount++
	reward := -1.0 / float64(e.maxSteps)
	done := false
	e.lastEvent = EventNone

	if action.IsMove() {
		e.agentDir = action
		fwd := e.agentPos.Add(action.Vec())
		fwdCell := e.cellAt(fwd)

		if fwdCell.CanOverlap() {
			e.agentPos = fwd
		}
		switch fwdCell.Kind {
		case grid.Block, grid.Other:
			if r, d, ok := e.pushBlock(fwd, fwdCell, action); ok {
				reward, done = r, d
			}
		case grid.BlockDoor:
			if r, d, ok := e.pushBlockDoor(fwd, fwdCell, action); ok {
				reward, done = r, d
			}
		case grid.Goal:
			done = true
			reward = e.goalReward()
			e.lastEvent = EventGoal
		}
	}

	if e.stepCount >= e.maxSteps {
		done = true
		if e.lastEvent == EventNone {
			e.lastEvent = EventStepLimit
		}
	}
	if done {
		e.state = Terminated
	}

	return StepResult{
		Obs:    e.Observe(),
		Reward: reward,
		Done:   done,
		Info:   map[string]any{},
	}, nil
}

// pushBlock moves the block at fwd one cell further along dir. Other is pushed
// the same way and keeps its kind, except into a door where both fuse into a BlockDoor.
// ok is false when the block does not move, the reward is then unchanged.
func (e *Env) pushBlock(fwd grid.Point, block grid.Object, dir Action) (reward float64, done bool, ok bool) {
	beyond := fwd.Add(dir.Vec())
	beyondCell := e.cellAt(beyond)
	reward = -1.0 / float64(e.maxSteps)

	switch {
	case beyondCell.IsEmpty():
		e.grid.SetPoint(beyond, block)
	case beyondCell.IsBlockGoal():
		e.grid.SetPoint(beyond, block)
		reward, done = BlockReward, true
		e.lastEvent = EventGoal
	case beyondCell.Kind == grid.Door:
		e.grid.SetPoint(beyond, grid.NewBlockDoor(beyondCell.Color))
		reward = DoorReward
		e.lastEvent = EventDoor
	default:
		return 0, false, false
	}
	e.grid.SetPoint(fwd, grid.Object{})
	e.agentPos = fwd
	return reward, done, true
}

// pushBlockDoor splits a block door: the block moves on and an open door
// is left behind
func (e *Env) pushBlockDoor(fwd grid.Point, blockDoor grid.Object, dir Action) (reward float64, done bool, ok bool) {
	beyond := fwd.Add(dir.Vec())
	beyondCell := e.cellAt(beyond)
	reward = -1.0 / float64(e.maxSteps)

	switch {
	case beyondCell.IsEmpty():
	case beyondCell.IsBlockGoal():
		reward, done = BlockReward, true
		e.lastEvent = EventGoal
	default:
		return 0, false, false
	}
	e.grid.SetPoint(beyond, grid.NewBlock())
	e.grid.SetPoint(fwd, grid.NewDoor(blockDoor.Color, true))
	e.agentPos = fwd
	return reward, done, true
}

// goalReward decays with the number of steps taken
func (e *Env) goalReward() float64 {
	return 1 - 0.9*(float64(e.stepCount)/float64(e.maxSteps))
}

// cellAt treats everything outside the grid as wall
func (e *Env) cellAt(p grid.Point) grid.Object {
	if !e.grid.InBounds(p.X, p.Y) {
		return grid.NewWall()
	}
	return e.grid.GetPoint(p)
}

func (e *Env) Config() Config {
	return e.config
}

func (e *Env) AgentPos() grid.Point {
	return e.agentPos
}

func (e *Env) AgentDir() Action {
	return e.agentDir
}

func (e *Env) StepCount() int {
	return e.stepCount
}

func (e *Env) MaxSteps() int {
	return e.maxSteps
}

func (e *Env) State() EpisodeState {
	return e.state
}

// LastEvent is the outcome of the last step
func (e *Env) LastEvent() Event {
	return e.lastEvent
}

// Grid returns a copy of the current grid
func (e *Env) Grid() *grid.Grid {
	return e.grid.Copy()
}

// Layout of the current episode. The grid it references is the one mutated by Step.
func (e *Env) Layout() *Layout {
	return e.layout
}

func (e *Env) Mission() string {
	return e.layout.Mission
}
