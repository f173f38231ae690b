package blocks

import (
	"fmt"
	"strings"

	"github.com/zeu5/miniblocks/grid"
)

// AgentMode selects how the agent token appears in its own observation
type AgentMode int

const (
	// AgentNormal draws the agent in its default color
	AgentNormal AgentMode = iota
	// AgentOther draws the agent in the color used for another agent
	AgentOther
	// AgentGhost leaves the agent out of the observation
	AgentGhost
)

var agentModeNames = []string{"normal", "other", "ghost"}

func (m AgentMode) String() string {
	if m >= AgentNormal && m <= AgentGhost {
		return agentModeNames[m]
	}
	return fmt.Sprintf("agentmode(%d)", int(m))
}

// ParseAgentMode maps "normal", "other" or "ghost" to the mode
func ParseAgentMode(s string) (AgentMode, error) {
	for i, n := range agentModeNames {
		if strings.EqualFold(s, n) {
			return AgentMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown agent mode %q", ErrConfig, s)
}

// token returns the agent color of the mode, false when the agent is not drawn
func (m AgentMode) token() (grid.Color, bool) {
	switch m {
	case AgentOther:
		return grid.Red, true
	case AgentGhost:
		return 0, false
	}
	return grid.Blue, true
}

// LayoutKind names a layout generator
type LayoutKind string

const (
	LayoutEmpty           LayoutKind = "empty"
	LayoutFamiliarization LayoutKind = "fam"
	LayoutMaze            LayoutKind = "maze"
)

const (
	// DefaultStepLimitFactor gives max steps = 4 * size * size
	DefaultStepLimitFactor = 4
	// DefaultMaxPlacementTries bounds the rejection sampling of random starts
	DefaultMaxPlacementTries = 10000

	minEmptySize = 6
	minMazeSize  = 2 * (mazeRoomMin + 1)
)

// Config of an environment, fixed for the lifetime of an Env
type Config struct {
	Size            int
	StepLimitFactor int
	// SeeThroughWalls disables the visibility mask
	SeeThroughWalls bool
	// ViewSize is the side of the observation window centred on the agent,
	// 0 observes the full grid
	ViewSize  int
	AgentMode AgentMode
	Layout    LayoutKind
	// Maze pins the random parameters of the maze layout
	Maze MazeParams
	Seed uint64
	// RandomStart is used by resets the caller does not issue directly:
	// construction, auto reset and every RLEnv episode. Off by default so the
	// layout start pose is reproduced, set it to sample the start cell each episode.
	RandomStart bool
	// AutoReset keeps the legacy behavior of silently resetting a step issued
	// past the step limit instead of failing with ErrEpisodeTerminated
	AutoReset         bool
	MaxPlacementTries int
}

// DefaultConfig is the 8x8 empty blocks room. The agent always starts on the
// layout start pose, (1,1) facing right, RandomStart turns on sampled starts.
func DefaultConfig() Config {
	return Config{
		Size:              8,
		StepLimitFactor:   DefaultStepLimitFactor,
		SeeThroughWalls:   true,
		ViewSize:          0,
		AgentMode:         AgentNormal,
		Layout:            LayoutEmpty,
		Seed:              1337,
		MaxPlacementTries: DefaultMaxPlacementTries,
	}
}

// MaxSteps is the step limit of an episode
func (c Config) MaxSteps() int {
	return c.StepLimitFactor * c.Size * c.Size
}

// Validate checks the config is usable
func (c Config) Validate() error {
	if c.StepLimitFactor < 1 {
		return fmt.Errorf("%w: step limit factor %d", ErrConfig, c.StepLimitFactor)
	}
	if c.MaxPlacementTries < 1 {
		return fmt.Errorf("%w: max placement tries %d", ErrConfig, c.MaxPlacementTries)
	}
	if c.ViewSize < 0 || (c.ViewSize > 0 && c.ViewSize%2 == 0) {
		return fmt.Errorf("%w: view size must be 0 or odd, got %d", ErrConfig, c.ViewSize)
	}
	if c.AgentMode < AgentNormal || c.AgentMode > AgentGhost {
		return fmt.Errorf("%w: agent mode %d", ErrConfig, c.AgentMode)
	}
	switch c.Layout {
	case LayoutEmpty, LayoutFamiliarization:
		if c.Size < minEmptySize {
			return fmt.Errorf("%w: %s layout needs size >= %d, got %d", ErrConfig, c.Layout, minEmptySize, c.Size)
		}
	case LayoutMaze:
		if c.Size < minMazeSize {
			return fmt.Errorf("%w: maze layout needs size >= %d, got %d", ErrConfig, minMazeSize, c.Size)
		}
		if err := c.Maze.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown layout %q", ErrConfig, c.Layout)
	}
	return nil
}

// Generator returns the layout generator named by the config
func (c Config) Generator() LayoutGenerator {
	switch c.Layout {
	case LayoutFamiliarization:
		return FamiliarizationLayout{}
	case LayoutMaze:
		return &MazeLayout{Params: c.Maze}
	}
	return EmptyLayout{}
}
