package blocks

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeu5/miniblocks/grid"
)

// Observation is a Width x Height x 3 array of (type, color, state) triples,
// cell (x, y) starts at offset (x*Height+y)*3
type Observation struct {
	Width  int
	Height int
	Data   []uint8
}

// Shape is (width, height, channels)
func (o *Observation) Shape() [3]int {
	return [3]int{o.Width, o.Height, grid.Channels}
}

// At returns the triple of cell (x, y)
func (o *Observation) At(x, y int) (kind, color, state uint8) {
	off := (x*o.Height + y) * grid.Channels
	return o.Data[off], o.Data[off+1], o.Data[off+2]
}

func (o *Observation) Equal(other *Observation) bool {
	if other == nil {
		return false
	}
	return o.Width == other.Width && o.Height == other.Height && bytes.Equal(o.Data, other.Data)
}

// Hash is a hex digest of the encoding
func (o *Observation) Hash() string {
	sum := sha256.Sum256(o.Data)
	return hex.EncodeToString(sum[:])
}

// Ints copies the data into a slice of ints, convenient for JSON
func (o *Observation) Ints() []int {
	out := make([]int, len(o.Data))
	for i, v := range o.Data {
		out[i] = int(v)
	}
	return out
}

// Observe encodes the current state: the full grid, or a window centred on
// the agent when a view size is configured. Without see through walls the
// cells the agent cannot see are zeroed. Hidden goals are never revealed.
func (e *Env) Observe() *Observation {
	g := e.grid
	agent := e.agentPos
	if v := e.config.ViewSize; v > 0 {
		half := v / 2
		g = e.grid.Slice(e.agentPos.X-half, e.agentPos.Y-half, v, v)
		agent = grid.Point{X: half, Y: half}
	}

	opts := grid.EncodeOptions{}
	if !e.config.SeeThroughWalls {
		opts.Mask = g.ProcessVis(agent)
	}
	if color, ok := e.config.AgentMode.token(); ok {
		opts.Agent = &grid.AgentToken{Pos: agent, Color: color, Dir: uint8(e.agentDir)}
	}
	return &Observation{
		Width:  g.Width,
		Height: g.Height,
		Data:   g.Encode(opts),
	}
}

// ObservationShape is the shape of every observation of the env
func (e *Env) ObservationShape() [3]int {
	if v := e.config.ViewSize; v > 0 {
		return [3]int{v, v, grid.Channels}
	}
	return [3]int{e.config.Size, e.config.Size, grid.Channels}
}
