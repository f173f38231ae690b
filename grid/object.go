package grid

import "fmt"

// Kind tags the content of a cell.
// The set is closed, capabilities are derived from the tag alone.
type Kind uint8

const (
	Empty Kind = iota
	Wall
	Door
	Goal
	Block
	BlockDoor
	BlockGoal
	VisibleBlockGoal
	Other
)

// AgentID is the type id used when the agent token is overlaid on an encoding.
// Not a cell kind, the agent position is tracked outside the grid.
const AgentID uint8 = 9

var kindNames = map[Kind]string{
	Empty:            "empty",
	Wall:             "wall",
	Door:             "door",
	Goal:             "goal",
	Block:            "block",
	BlockDoor:        "blockdoor",
	BlockGoal:        "blockgoal",
	VisibleBlockGoal: "visibleblockgoal",
	Other:            "other",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Color of an object, ids match the encoding channel
type Color uint8

const (
	Red Color = iota
	Green
	Blue
	Purple
	Yellow
	Grey
)

var colorNames = []string{"red", "green", "blue", "purple", "yellow", "grey"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("color(%d)", uint8(c))
}

// ParseColor maps a color name to its Color
func ParseColor(name string) (Color, bool) {
	for i, n := range colorNames {
		if n == name {
			return Color(i), true
		}
	}
	return 0, false
}

// Object is the content of a single cell.
// The zero value is an empty cell.
type Object struct {
	Kind  Kind
	Color Color
	// Open and Locked are only meaningful for doors
	Open   bool
	Locked bool
}

func NewWall() Object {
	return Object{Kind: Wall, Color: Grey}
}

func NewDoor(c Color, open bool) Object {
	return Object{Kind: Door, Color: c, Open: open}
}

func NewLockedDoor(c Color) Object {
	return Object{Kind: Door, Color: c, Locked: true}
}

func NewGoal() Object {
	return Object{Kind: Goal, Color: Green}
}

func NewBlock() Object {
	return Object{Kind: Block, Color: Red}
}

func NewBlockDoor(c Color) Object {
	return Object{Kind: BlockDoor, Color: c}
}

func NewBlockGoal() Object {
	return Object{Kind: BlockGoal, Color: Green}
}

func NewVisibleBlockGoal() Object {
	return Object{Kind: VisibleBlockGoal, Color: Green}
}

func NewOther() Object {
	return Object{Kind: Other, Color: Purple}
}

// IsEmpty is true when the cell holds nothing
func (o Object) IsEmpty() bool {
	return o.Kind == Empty
}

// CanOverlap reports whether the agent may step onto the cell without pushing
func (o Object) CanOverlap() bool {
	switch o.Kind {
	case Empty, Goal, BlockGoal, VisibleBlockGoal:
		return true
	case Door:
		return o.Open
	}
	return false
}

// CanMove reports whether a push can relocate the object
func (o Object) CanMove() bool {
	switch o.Kind {
	case Block, BlockDoor, Other:
		return true
	}
	return false
}

// Visible reports whether the encoder emits the true type of the object
func (o Object) Visible() bool {
	return o.Kind != BlockGoal
}

// TypeID is the type channel of the encoding.
// Other shares the block id, the purple color tells them apart.
func (o Object) TypeID() uint8 {
	if o.Kind == Other {
		return uint8(Block)
	}
	return uint8(o.Kind)
}

// IsBlockGoal is true for both the hidden and the visible goal for blocks
func (o Object) IsBlockGoal() bool {
	return o.Kind == BlockGoal || o.Kind == VisibleBlockGoal
}

// SeeBehind reports whether vision passes through the cell
func (o Object) SeeBehind() bool {
	switch o.Kind {
	case Wall:
		return false
	case Door:
		return o.Open
	}
	return true
}

// State flag of the encoding: 1 open door, 2 locked door, 0 otherwise
func (o Object) State() uint8 {
	if o.Kind != Door {
		return 0
	}
	if o.Open {
		return 1
	}
	if o.Locked {
		return 2
	}
	return 0
}

func (o Object) String() string {
	if o.Kind == Empty {
		return "empty"
	}
	if o.Kind == Door {
		return fmt.Sprintf("%s(%s, open=%t)", o.Kind, o.Color, o.Open)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Color)
}
