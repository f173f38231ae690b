package blocks

import (
	"fmt"

	"github.com/zeu5/miniblocks/grid"
	"golang.org/x/exp/rand"
)

const (
	// rooms are 5 or 6 cells wide, walls included
	mazeRoomMin   = 5
	mazeDoorColor = grid.Yellow
)

// MazeParams pins the random parameters of the maze, nil fields are sampled
type MazeParams struct {
	D1       *int `yaml:"d1,omitempty" json:"d1,omitempty"`
	D2       *int `yaml:"d2,omitempty" json:"d2,omitempty"`
	Offset   *int `yaml:"offset,omitempty" json:"offset,omitempty"`
	Rotation *int `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	// HiddenGoal places a BlockGoal instead of a VisibleBlockGoal
	HiddenGoal bool `yaml:"hidden_goal,omitempty" json:"hidden_goal,omitempty"`
}

// Validate checks pinned values are in range
func (p MazeParams) Validate() error {
	check := func(name string, v *int, lo, hi int) error {
		if v != nil && (*v < lo || *v > hi) {
			return fmt.Errorf("%w: maze %s must be in [%d, %d], got %d", ErrConfig, name, lo, hi, *v)
		}
		return nil
	}
	if err := check("d1", p.D1, mazeRoomMin, mazeRoomMin+1); err != nil {
		return err
	}
	if err := check("d2", p.D2, mazeRoomMin, mazeRoomMin+1); err != nil {
		return err
	}
	if err := check("offset", p.Offset, 0, 1); err != nil {
		return err
	}
	return check("rotation", p.Rotation, 0, 3)
}

func pick(pinned *int, sample func() int) int {
	if pinned != nil {
		return *pinned
	}
	return sample()
}

// MazeLayout generates three rooms inside a (d1+d2) square: room 1 in the
// top left corner, room 2 to its right shifted down by offset, and the
// L shaped remainder below them. Three doors connect the rooms. The whole
// grid is then rotated so absolute coordinates say nothing about topology.
type MazeLayout struct {
	Params MazeParams

	// filled in by the last Generate call
	D1, D2, Offset int
	Doors          []grid.Point
	BlockPos       grid.Point
	GoalPos        grid.Point
}

var _ LayoutGenerator = &MazeLayout{}

func (m *MazeLayout) Generate(rng *rand.Rand, width, height int) (*Layout, error) {
	d1 := pick(m.Params.D1, func() int { return mazeRoomMin + rng.Intn(2) })
	d2 := pick(m.Params.D2, func() int { return mazeRoomMin + rng.Intn(2) })
	offset := pick(m.Params.Offset, func() int { return rng.Intn(2) })
	rotation := pick(m.Params.Rotation, func() int { return rng.Intn(4) })

	viable := d1 + d2
	if width < viable || height < viable {
		return nil, fmt.Errorf("%w: maze of side %d does not fit a %dx%d grid", ErrGeneration, viable, width, height)
	}
	if rotation%2 == 1 && width != height {
		return nil, fmt.Errorf("%w: odd rotations need a square grid, got %dx%d", ErrGeneration, width, height)
	}

	// at least two cells away from the walls of their room
	block := grid.Point{X: randInt(rng, 2, d1-2), Y: randInt(rng, 2, d1-2)}
	goal := grid.Point{X: randInt(rng, d1+1, d1+d2-2), Y: randInt(rng, offset+2, offset+d2-2)}

	g := grid.New(width, height)
	g.WallRect(0, 0, width, height)
	g.WallRect(0, 0, viable, viable)
	g.WallRect(0, 0, d1, d1)
	g.WallRect(d1-1, offset, d2+1, d2)

	doors := []grid.Point{
		// shared wall, never below room 1's last interior row
		{X: d1 - 1, Y: min(offset+2, d1-2)},
		// room 1 to the lower room
		{X: 2, Y: d1 - 1},
		// room 2 to the lower room
		{X: d1 + 1, Y: offset + d2 - 1},
	}
	for _, d := range doors {
		g.SetPoint(d, grid.NewDoor(mazeDoorColor, true))
	}

	if m.Params.HiddenGoal {
		g.SetPoint(goal, grid.NewBlockGoal())
	} else {
		g.SetPoint(goal, grid.NewVisibleBlockGoal())
	}
	g.SetPoint(block, grid.NewBlock())

	start := grid.Point{X: 1, Y: 1}
	for i := 0; i < rotation; i++ {
		start = grid.RotatePointLeft(start, g.Width)
		block = grid.RotatePointLeft(block, g.Width)
		goal = grid.RotatePointLeft(goal, g.Width)
		for j, d := range doors {
			doors[j] = grid.RotatePointLeft(d, g.Width)
		}
		g = g.RotateLeft()
	}

	m.D1, m.D2, m.Offset = d1, d2, offset
	m.Doors = doors
	m.BlockPos = block
	m.GoalPos = goal

	dir := Right
	return &Layout{
		Grid:         g,
		StartPos:     &start,
		StartDir:     &dir,
		ViableWidth:  viable,
		ViableHeight: viable,
		Rotation:     rotation,
		Mission:      "push block through the doors to the goal square",
	}, nil
}
