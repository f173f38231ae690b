package blocks

import "github.com/zeu5/miniblocks/types"

// EventOccurred holds when the step ended with the event
func EventOccurred(ev Event) types.MonitorCondition {
	return func(_ types.State, _ types.Action, ns types.State) bool {
		s, ok := ns.(*State)
		if !ok {
			return false
		}
		return s.Event == ev
	}
}

// AgentAt holds when the step ends with the agent on the cell
func AgentAt(x, y int) types.MonitorCondition {
	return func(_ types.State, _ types.Action, ns types.State) bool {
		s, ok := ns.(*State)
		if !ok {
			return false
		}
		return s.Agent.X == x && s.Agent.Y == y
	}
}

// DoorReachedMonitor succeeds once a block is pushed into a door
func DoorReachedMonitor() *types.Monitor {
	monitor := types.NewMonitor()
	monitor.Build().On(EventOccurred(EventDoor), "DoorReached").MarkSuccess()
	return monitor
}

// GoalReachedMonitor succeeds once the goal is reached
func GoalReachedMonitor() *types.Monitor {
	monitor := types.NewMonitor()
	monitor.Build().On(EventOccurred(EventGoal), "GoalReached").MarkSuccess()
	return monitor
}

// DoorThenGoalMonitor succeeds when a door event is later followed by the goal
func DoorThenGoalMonitor() *types.Monitor {
	monitor := types.NewMonitor()
	monitor.Build().
		On(EventOccurred(EventDoor), "DoorReached").
		On(EventOccurred(EventGoal), "GoalReached").
		MarkSuccess()
	return monitor
}
