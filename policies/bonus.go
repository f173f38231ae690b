package policies

import (
	"math"

	"github.com/zeu5/miniblocks/types"
	"golang.org/x/exp/rand"
)

// initialValue is the optimistic value of a state action pair never backed up
const initialValue = 1.0

// BonusPolicyGreedy acts greedily on exploration values. When an episode ends a
// 1/visits bonus is backed up along its trace, last transition first.
//
// A transition into a terminal state (one that offers no actions) has no future
// value. A trace cut by the horizon bootstraps from the value of its last state.
type BonusPolicyGreedy struct {
	values   *QTable
	visits   *QTable
	alpha    float64
	discount float64
	epsilon  float64
	// combineMax backs up max(bonus, discounted future) instead of their sum
	combineMax bool
	rand       *rand.Rand
}

var _ types.Policy = &BonusPolicyGreedy{}

func NewBonusPolicyGreedy(alpha, discount, epsilon float64, combineMax bool, seed uint64) *BonusPolicyGreedy {
	return &BonusPolicyGreedy{
		values:     NewQTable(),
		visits:     NewQTable(),
		alpha:      alpha,
		discount:   discount,
		epsilon:    epsilon,
		combineMax: combineMax,
		rand:       rand.New(rand.NewSource(seed)),
	}
}

func (b *BonusPolicyGreedy) Record(path string) {
	b.values.Record(path)
}

func (b *BonusPolicyGreedy) Reset() {
	b.values = NewQTable()
	b.visits = NewQTable()
}

func hashes(actions []types.Action) ([]string, map[string]types.Action) {
	byHash := make(map[string]types.Action, len(actions))
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Hash()
		byHash[out[i]] = a
	}
	return out, byHash
}

func (b *BonusPolicyGreedy) NextAction(_ int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if b.rand.Float64() < b.epsilon {
		return actions[b.rand.Intn(len(actions))], true
	}
	available, byHash := hashes(actions)
	best, _ := b.values.MaxAmong(state.Hash(), available, initialValue)
	a, ok := byHash[best]
	return a, ok
}

// Values only change at the end of the episode
func (b *BonusPolicyGreedy) Update(_ int, _ types.State, _ types.Action, _ types.State) {}

// future is the discounted value reachable from the state, zero once the episode is over
func (b *BonusPolicyGreedy) future(next types.State) float64 {
	if len(next.Actions()) == 0 {
		return 0
	}
	available, _ := hashes(next.Actions())
	_, v := b.values.MaxAmong(next.Hash(), available, initialValue)
	return b.discount * v
}

func (b *BonusPolicyGreedy) backup(state types.State, action types.Action, next types.State) {
	s, a := state.Hash(), action.Hash()
	n := b.visits.Get(s, a, 0) + 1
	b.visits.Set(s, a, n)

	bonus, future := 1/n, b.future(next)
	target := bonus + future
	if b.combineMax {
		target = math.Max(bonus, future)
	}
	cur := b.values.Get(s, a, initialValue)
	b.values.Set(s, a, cur+b.alpha*(target-cur))
}

func (b *BonusPolicyGreedy) UpdateIteration(_ int, trace *types.Trace) {
	for i := trace.Len() - 1; i >= 0; i-- {
		if state, action, next, ok := trace.Get(i); ok {
			b.backup(state, action, next)
		}
	}
}

// Visits of the state action pair over the backed up episodes
func (b *BonusPolicyGreedy) Visits(state, action string) int {
	return int(b.visits.Get(state, action, 0))
}
