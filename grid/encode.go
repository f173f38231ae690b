package grid

// Channels per encoded cell: type id, color id, state flag
const Channels = 3

// Mask marks visible cells
type Mask struct {
	Width  int
	Height int
	bits   []bool
}

func NewMask(width, height int, visible bool) *Mask {
	m := &Mask{Width: width, Height: height, bits: make([]bool, width*height)}
	if visible {
		for i := range m.bits {
			m.bits[i] = true
		}
	}
	return m
}

func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.bits[y*m.Width+x]
}

func (m *Mask) set(x, y int) {
	m.bits[y*m.Width+x] = true
}

// Count is the number of visible cells
func (m *Mask) Count() int {
	c := 0
	for _, b := range m.bits {
		if b {
			c++
		}
	}
	return c
}

var neighbours = []Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// ProcessVis computes the cells visible from the given position.
// Vision spreads from the viewer through cells that can be seen behind,
// opaque cells bordering the visible area are visible themselves.
func (g *Grid) ProcessVis(from Point) *Mask {
	mask := NewMask(g.Width, g.Height, false)
	if !g.InBounds(from.X, from.Y) {
		return mask
	}
	mask.set(from.X, from.Y)
	queue := []Point{from}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p != from && !g.GetPoint(p).SeeBehind() {
			continue
		}
		for _, d := range neighbours {
			n := p.Add(d)
			if !g.InBounds(n.X, n.Y) || mask.At(n.X, n.Y) {
				continue
			}
			mask.set(n.X, n.Y)
			queue = append(queue, n)
		}
	}
	return mask
}

// Slice extracts the w x h sub grid with top left corner (x, y).
// Cells outside the grid are filled with walls.
func (g *Grid) Slice(x, y, w, h int) *Grid {
	s := New(w, h)
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			if g.InBounds(x+i, y+j) {
				s.Set(i, j, g.Get(x+i, y+j))
			} else {
				s.Set(i, j, NewWall())
			}
		}
	}
	return s
}

// AgentToken is the agent marker drawn over an encoding
type AgentToken struct {
	Pos   Point
	Color Color
	Dir   uint8
}

// EncodeOptions tune Encode
type EncodeOptions struct {
	// Agent is drawn on top of its cell when set
	Agent *AgentToken
	// RenderInvisible emits the true type of hidden objects
	RenderInvisible bool
	// Mask zeroes every cell it does not mark, nil means everything is visible
	Mask *Mask
}

// Encode produces Width*Height*Channels bytes,
// cell (x, y) starts at offset (x*Height+y)*Channels
func (g *Grid) Encode(opts EncodeOptions) []uint8 {
	out := make([]uint8, g.Width*g.Height*Channels)
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if opts.Mask != nil && !opts.Mask.At(x, y) {
				continue
			}
			off := (x*g.Height + y) * Channels
			if opts.Agent != nil && opts.Agent.Pos.X == x && opts.Agent.Pos.Y == y {
				out[off] = AgentID
				out[off+1] = uint8(opts.Agent.Color)
				out[off+2] = opts.Agent.Dir
				continue
			}
			o := g.Get(x, y)
			if o.IsEmpty() || (!o.Visible() && !opts.RenderInvisible) {
				continue
			}
			out[off] = o.TypeID()
			out[off+1] = uint8(o.Color)
			out[off+2] = o.State()
		}
	}
	return out
}
