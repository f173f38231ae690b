package types

import "fmt"

const (
	InitState = "init"
)

// MonitorCondition labels a monitor transition,
// a predicate on the RL step (state, action, nextState)
type MonitorCondition func(State, Action, State) bool

// Not operator on the MonitorCondition
func (m MonitorCondition) Not() MonitorCondition {
	return func(s State, a Action, ns State) bool {
		return !m(s, a, ns)
	}
}

// Or operator between MonitorCondition's
func (m MonitorCondition) Or(other MonitorCondition) MonitorCondition {
	return func(s State, a Action, ns State) bool {
		return m(s, a, ns) || other(s, a, ns)
	}
}

// And operator between MonitorCondition's
func (m MonitorCondition) And(other MonitorCondition) MonitorCondition {
	return func(s State, a Action, ns State) bool {
		return m(s, a, ns) && other(s, a, ns)
	}
}

type monitorTransition struct {
	cond MonitorCondition
	next string
}

// MonitorState is a state of the Monitor
// Use MonitorBuilder to create monitor states (do not instantiate directly)
type MonitorState struct {
	Success     bool
	Name        string
	transitions []monitorTransition
}

// Monitor is a state machine over the steps of a trace,
// transitions are tried in the order they were added
type Monitor struct {
	states map[string]*MonitorState
}

// NewMonitor creates a monitor with only the initial state
func NewMonitor() *Monitor {
	m := &Monitor{
		states: make(map[string]*MonitorState),
	}
	m.states[InitState] = &MonitorState{Name: InitState}
	return m
}

// Check simulates the monitor on the trace and returns
// the prefix that ends with the transition into a success state
func (m *Monitor) Check(t *Trace) (*Trace, bool) {
	curState := m.states[InitState]
	if curState.Success {
		return NewTrace(), true
	}
	for i := 0; i < t.Len(); i++ {
		s, a, ns, _ := t.Get(i)
		for _, tr := range curState.transitions {
			if tr.cond(s, a, ns) {
				curState = m.states[tr.next]
				break
			}
		}
		if curState.Success {
			return t.GetPrefix(i + 1)
		}
	}
	return nil, false
}

// Build returns a MonitorBuilder indexed at the initial state
func (m *Monitor) Build() *MonitorBuilder {
	return &MonitorBuilder{
		monitor:  m,
		curState: m.states[InitState],
	}
}

// MonitorBuilder is indexed at a particular state of the Monitor
type MonitorBuilder struct {
	monitor  *Monitor
	curState *MonitorState
}

// On adds a transition from the current state to `next` and returns a builder
// indexed at `next`, creating the state when it does not exist yet
func (m *MonitorBuilder) On(cond MonitorCondition, next string) *MonitorBuilder {
	nextState, ok := m.monitor.states[next]
	if !ok {
		nextState = &MonitorState{Name: next}
		m.monitor.states[next] = nextState
	}
	m.curState.transitions = append(m.curState.transitions, monitorTransition{cond: cond, next: next})
	return &MonitorBuilder{
		monitor:  m.monitor,
		curState: nextState,
	}
}

// MarkSuccess marks the state indexed at this builder as a success state
func (m *MonitorBuilder) MarkSuccess() *MonitorBuilder {
	m.curState.Success = true
	return m
}

// MonitorDataSet counts, per episode, whether the monitor was satisfied
type MonitorDataSet struct {
	Satisfied []bool
	// step at which the monitor first succeeded, -1 when not satisfied
	Steps []int
}

// Count of satisfied episodes
func (d *MonitorDataSet) Count() int {
	c := 0
	for _, s := range d.Satisfied {
		if s {
			c++
		}
	}
	return c
}

type MonitorAnalyzer struct {
	monitor *Monitor
	data    *MonitorDataSet
}

var _ Analyzer = &MonitorAnalyzer{}

// NewMonitorAnalyzer checks every episode trace against the monitor
func NewMonitorAnalyzer(m *Monitor) *MonitorAnalyzer {
	return &MonitorAnalyzer{
		monitor: m,
		data:    &MonitorDataSet{},
	}
}

func (a *MonitorAnalyzer) Analyze(_ int, _ int, _ int, _ string, t *Trace) {
	prefix, ok := a.monitor.Check(t)
	a.data.Satisfied = append(a.data.Satisfied, ok)
	if ok {
		a.data.Steps = append(a.data.Steps, prefix.Len())
	} else {
		a.data.Steps = append(a.data.Steps, -1)
	}
}

func (a *MonitorAnalyzer) DataSet() DataSet {
	return a.data
}

func (a *MonitorAnalyzer) Reset() {
	a.data = &MonitorDataSet{}
}

// MonitorComparator prints how many episodes satisfied the monitor per experiment
func MonitorComparator(name string) Comparator {
	return func(run, episodes int, names []string, ds []DataSet) {
		for i, n := range names {
			d, ok := ds[i].(*MonitorDataSet)
			if !ok {
				continue
			}
			fmt.Printf("Run %d, %s: %s satisfied in %d/%d episodes\n", run, n, name, d.Count(), episodes)
		}
	}
}
