package blocks

import (
	"strings"

	"github.com/zeu5/miniblocks/grid"
)

var kindGlyphs = map[grid.Kind]string{
	grid.Empty:            " ",
	grid.Wall:             "W",
	grid.Door:             "D",
	grid.Goal:             "G",
	grid.Block:            "K",
	grid.BlockDoor:        "Q",
	grid.BlockGoal:        "T",
	grid.VisibleBlockGoal: "V",
	grid.Other:            "O",
}

var colorGlyphs = map[grid.Color]string{
	grid.Red:    "R",
	grid.Green:  "G",
	grid.Blue:   "B",
	grid.Purple: "P",
	grid.Yellow: "Y",
	grid.Grey:   "E",
}

var agentGlyphs = map[Action]string{
	Right: "⏩ ",
	Down:  "⏬ ",
	Left:  "⏪ ",
	Up:    "⏫ ",
}

func glyph(o grid.Object) string {
	if o.IsEmpty() {
		return "  "
	}
	object := kindGlyphs[o.Kind]
	if o.Kind == grid.Door {
		switch {
		case o.Open:
			object = "_"
		case o.Locked:
			object = "L"
		}
	}
	return object + colorGlyphs[o.Color]
}

// String draws the grid one row per line, two characters per cell: the
// object and its color. Hidden objects are drawn, the agent is an arrow
// pointing along its heading.
func (e *Env) String() string {
	var b strings.Builder
	for y := 0; y < e.grid.Height; y++ {
		cells := make([]string, e.grid.Width)
		for x := 0; x < e.grid.Width; x++ {
			if e.agentPos.X == x && e.agentPos.Y == y {
				cells[x] = agentGlyphs[e.agentDir]
				continue
			}
			cells[x] = glyph(e.grid.Get(x, y))
		}
		b.WriteString(strings.Join(cells, " "))
		if y < e.grid.Height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
