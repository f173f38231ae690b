package blocks

import (
	"github.com/zeu5/miniblocks/grid"
	"golang.org/x/exp/rand"
)

// Layout is a freshly generated episode layout
type Layout struct {
	Grid *grid.Grid
	// StartPos and StartDir must be set by every generator
	StartPos *grid.Point
	StartDir *Action
	// ViableWidth x ViableHeight is the part of the grid actually used,
	// anchored at the top left corner before rotation
	ViableWidth  int
	ViableHeight int
	// Rotation is the number of 90 degree rotations applied to the grid
	Rotation int
	Mission  string
}

// ViableTopLeft is the top left corner of the viable rectangle once rotated
func (l *Layout) ViableTopLeft() grid.Point {
	w, h := l.Grid.Width, l.Grid.Height
	switch l.Rotation % 4 {
	case 1:
		return grid.Point{X: 0, Y: h - l.ViableHeight}
	case 2:
		return grid.Point{X: w - l.ViableWidth, Y: h - l.ViableHeight}
	case 3:
		return grid.Point{X: w - l.ViableWidth, Y: 0}
	}
	return grid.Point{X: 0, Y: 0}
}

// LayoutGenerator builds a new grid for every episode.
// All randomness must be drawn from rng.
type LayoutGenerator interface {
	Generate(rng *rand.Rand, width, height int) (*Layout, error)
}

func startAt(x, y int, dir Action) (*grid.Point, *Action) {
	return &grid.Point{X: x, Y: y}, &dir
}

// EmptyLayout is a walled room with a hidden goal in the bottom right
// corner and a block a little further in
type EmptyLayout struct{}

var _ LayoutGenerator = EmptyLayout{}

func (EmptyLayout) Generate(_ *rand.Rand, width, height int) (*Layout, error) {
	g := grid.New(width, height)
	g.WallRect(0, 0, width, height)
	g.Set(width-2, height-2, grid.NewBlockGoal())
	g.Set(width-4, height-4, grid.NewBlock())

	pos, dir := startAt(1, 1, Right)
	return &Layout{
		Grid:         g,
		StartPos:     pos,
		StartDir:     dir,
		ViableWidth:  width,
		ViableHeight: height,
		Mission:      "push block to goal square",
	}, nil
}

// FamiliarizationLayout is EmptyLayout without a goal, the block can be
// pushed around but no reward is ever given
type FamiliarizationLayout struct{}

var _ LayoutGenerator = FamiliarizationLayout{}

func (FamiliarizationLayout) Generate(_ *rand.Rand, width, height int) (*Layout, error) {
	g := grid.New(width, height)
	g.WallRect(0, 0, width, height)
	g.Set(width-4, height-4, grid.NewBlock())

	pos, dir := startAt(1, 1, Right)
	return &Layout{
		Grid:         g,
		StartPos:     pos,
		StartDir:     dir,
		ViableWidth:  width,
		ViableHeight: height,
		Mission:      "push block around",
	}, nil
}

// randInt draws uniformly from [low, high)
func randInt(rng *rand.Rand, low, high int) int {
	return low + rng.Intn(high-low)
}
