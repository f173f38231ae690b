package grid

import "fmt"

// Point is an (x, y) cell coordinate, x grows right and y grows down
type Point struct {
	X int
	Y int
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Grid is a bounded 2D array of cell contents stored row major
type Grid struct {
	Width  int
	Height int
	cells  []Object
}

// New creates an empty grid
func New(width, height int) *Grid {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("invalid grid dimensions %dx%d", width, height))
	}
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]Object, width*height),
	}
}

// InBounds checks that (x, y) is inside the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g *Grid) index(x, y int) int {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("cell (%d, %d) out of %dx%d grid", x, y, g.Width, g.Height))
	}
	return y*g.Width + x
}

// Get returns the content of (x, y)
func (g *Grid) Get(x, y int) Object {
	return g.cells[g.index(x, y)]
}

// GetPoint is Get on a Point
func (g *Grid) GetPoint(p Point) Object {
	return g.Get(p.X, p.Y)
}

// Set overwrites the content of (x, y)
func (g *Grid) Set(x, y int, o Object) {
	g.cells[g.index(x, y)] = o
}

// SetPoint is Set on a Point
func (g *Grid) SetPoint(p Point, o Object) {
	g.Set(p.X, p.Y, o)
}

// Clear empties (x, y)
func (g *Grid) Clear(x, y int) {
	g.Set(x, y, Object{})
}

// HorzWall stamps a horizontal wall of the given length starting at (x, y)
func (g *Grid) HorzWall(x, y, length int) {
	for i := 0; i < length; i++ {
		g.Set(x+i, y, NewWall())
	}
}

// VertWall stamps a vertical wall of the given length starting at (x, y)
func (g *Grid) VertWall(x, y, length int) {
	for j := 0; j < length; j++ {
		g.Set(x, y+j, NewWall())
	}
}

// WallRect stamps the boundary of the w x h rectangle with top left corner (x, y).
// The interior is left untouched.
func (g *Grid) WallRect(x, y, w, h int) {
	g.HorzWall(x, y, w)
	g.HorzWall(x, y+h-1, w)
	g.VertWall(x, y, h)
	g.VertWall(x+w-1, y, h)
}

// RotateLeft returns a copy of the grid rotated by 90 degrees,
// the cell (x, y) moves to (y, Width-1-x)
func (g *Grid) RotateLeft() *Grid {
	rotated := New(g.Height, g.Width)
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			rotated.Set(y, g.Width-1-x, g.Get(x, y))
		}
	}
	return rotated
}

// RotatePointLeft maps a point of a width-wide grid the same way RotateLeft maps cells
func RotatePointLeft(p Point, width int) Point {
	return Point{X: p.Y, Y: width - 1 - p.X}
}

// Copy returns a deep copy of the grid
func (g *Grid) Copy() *Grid {
	c := &Grid{
		Width:  g.Width,
		Height: g.Height,
		cells:  make([]Object, len(g.cells)),
	}
	copy(c.cells, g.cells)
	return c
}

// Equal compares dimensions and contents
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.Width != other.Width || g.Height != other.Height {
		return false
	}
	for i, o := range g.cells {
		if other.cells[i] != o {
			return false
		}
	}
	return true
}

// Find returns the coordinates of every cell whose kind is one of kinds,
// in row major order
func (g *Grid) Find(kinds ...Kind) []Point {
	points := make([]Point, 0)
	for i, o := range g.cells {
		for _, k := range kinds {
			if o.Kind == k {
				points = append(points, Point{X: i % g.Width, Y: i / g.Width})
				break
			}
		}
	}
	return points
}
