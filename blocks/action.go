package blocks

import (
	"fmt"
	"strings"

	"github.com/zeu5/miniblocks/grid"
)

// Action of the agent. Movements are in cardinal directions,
// the value of a movement doubles as the heading it leaves the agent in.
type Action int

const (
	Right Action = iota
	Down
	Left
	Up
	None
)

// NumActions is the size of the action space
const NumActions = 5

var AllActions = []Action{Right, Down, Left, Up, None}

var actionNames = []string{"right", "down", "left", "up", "none"}

func (a Action) String() string {
	if a.Valid() {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Valid is true for the five defined actions
func (a Action) Valid() bool {
	return a >= Right && a <= None
}

// IsMove is true for the cardinal movements
func (a Action) IsMove() bool {
	return a >= Right && a <= Up
}

// Vec is the unit step of a heading
func (a Action) Vec() grid.Point {
	switch a {
	case Right:
		return grid.Point{X: 1, Y: 0}
	case Down:
		return grid.Point{X: 0, Y: 1}
	case Left:
		return grid.Point{X: -1, Y: 0}
	case Up:
		return grid.Point{X: 0, Y: -1}
	}
	return grid.Point{}
}

// ParseAction accepts full names ("right") or their first letter ("r")
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range actionNames {
		if s == name || (len(s) == 1 && s[0] == name[0]) {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// ParseActions parses a comma separated list of actions
func ParseActions(s string) ([]Action, error) {
	actions := make([]Action, 0)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := ParseAction(part)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
