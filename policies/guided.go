package policies

import (
	"github.com/zeu5/miniblocks/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// GuidedPolicy cycles between plain exploration and following one of the monitors.
// Each monitor has its own table, updated backwards along the prefix of every trace
// that satisfied it. The exploration table penalizes every step.
type GuidedPolicy struct {
	monitors    []*types.Monitor
	expQTable   *QTable
	propQTables []*QTable
	alpha       float64
	gamma       float64
	// probability to still follow general exploration while following a monitor
	epsilon float64

	episodes        int
	monitorEpisodes []int
	// index of the monitor being followed, -1 => none
	current int
	rand    *rand.Rand
}

var _ types.Policy = &GuidedPolicy{}

func NewGuidedPolicy(monitors []*types.Monitor, alpha, gamma, epsilon float64, seed uint64) *GuidedPolicy {
	p := &GuidedPolicy{
		monitors:        monitors,
		expQTable:       NewQTable(),
		propQTables:     make([]*QTable, len(monitors)),
		alpha:           alpha,
		gamma:           gamma,
		epsilon:         epsilon,
		monitorEpisodes: make([]int, len(monitors)),
		current:         -1,
		rand:            rand.New(rand.NewSource(seed)),
	}
	for i := range monitors {
		p.propQTables[i] = NewQTable()
	}
	return p
}

// Satisfied returns, per monitor, the number of episodes that satisfied it
func (p *GuidedPolicy) Satisfied() []int {
	out := make([]int, len(p.monitorEpisodes))
	copy(out, p.monitorEpisodes)
	return out
}

func (p *GuidedPolicy) UpdateIteration(_ int, trace *types.Trace) {
	for i := range p.monitors {
		p.updateMonitor(i, trace)
	}
	if p.current == len(p.monitors)-1 {
		p.current = -1
	} else {
		p.current += 1
	}
	p.episodes += 1
}

func (p *GuidedPolicy) updateMonitor(index int, trace *types.Trace) {
	prefix, ok := p.monitors[index].Check(trace)
	if !ok {
		return
	}
	p.monitorEpisodes[index] += 1
	table := p.propQTables[index]
	for i := prefix.Len() - 1; i >= 0; i-- {
		state, action, nextState, _ := prefix.Get(i)
		stateHash := state.Hash()
		actionKey := action.Hash()
		curVal := table.Get(stateHash, actionKey, 0)
		_, nextMax := table.Max(nextState.Hash(), 0)

		reward := 0.0
		if i == prefix.Len()-1 {
			reward = 1
		}
		table.Set(stateHash, actionKey, (1-p.alpha)*curVal+p.alpha*(reward+p.gamma*nextMax))
	}
}

func (p *GuidedPolicy) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()
	if p.current == -1 {
		return p.nextActionExp(stateHash, actions)
	}
	table := p.propQTables[p.current]
	if !table.HasState(stateHash) || p.rand.Float64() < p.epsilon {
		return p.nextActionExp(stateHash, actions)
	}
	actionMap := make(map[string]types.Action)
	actionKeys := make([]string, len(actions))
	for i, a := range actions {
		actionKeys[i] = a.Hash()
		actionMap[a.Hash()] = a
	}
	maxAction, _ := table.MaxAmong(stateHash, actionKeys, 0)
	if maxAction == "" {
		return nil, false
	}
	return actionMap[maxAction], true
}

func (p *GuidedPolicy) nextActionExp(stateHash string, actions []types.Action) (types.Action, bool) {
	vals := make([]float64, len(actions))
	for i, action := range actions {
		vals[i] = p.expQTable.Get(stateHash, action.Hash(), 0)
	}
	i, ok := sampleuv.NewWeighted(softmax(vals), p.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}

func (p *GuidedPolicy) Update(_ int, state types.State, action types.Action, nextState types.State) {
	stateHash := state.Hash()
	actionKey := action.Hash()
	curVal := p.expQTable.Get(stateHash, actionKey, 0)
	_, nextMax := p.expQTable.Max(nextState.Hash(), 0)
	p.expQTable.Set(stateHash, actionKey, (1-p.alpha)*curVal+p.alpha*(-1+p.gamma*nextMax))
}

func (p *GuidedPolicy) Reset() {
	p.expQTable = NewQTable()
	for i := range p.propQTables {
		p.propQTables[i] = NewQTable()
	}
	p.monitorEpisodes = make([]int, len(p.monitors))
	p.episodes = 0
	p.current = -1
}

func (p *GuidedPolicy) Record(path string) {
	p.expQTable.Record(path + "_exploration")
}
