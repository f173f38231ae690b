package policies

import (
	"math"

	"github.com/zeu5/miniblocks/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// BonusPolicySoftMax samples from a softmax over the bonus values
type BonusPolicySoftMax struct {
	*BonusPolicyGreedy
	temperature float64
	rand        *rand.Rand
}

var _ types.Policy = &BonusPolicySoftMax{}

func NewBonusPolicySoftMax(alpha, discount, temperature float64, seed uint64) *BonusPolicySoftMax {
	return &BonusPolicySoftMax{
		BonusPolicyGreedy: NewBonusPolicyGreedy(alpha, discount, 0, false, seed),
		temperature:       temperature,
		rand:              rand.New(rand.NewSource(seed + 1)),
	}
}

func (b *BonusPolicySoftMax) NextAction(step int, state types.State, actions []types.Action) (types.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()
	vals := make([]float64, len(actions))
	for i, action := range actions {
		vals[i] = b.values.Get(stateHash, action.Hash(), initialValue) / b.temperature
	}
	i, ok := sampleuv.NewWeighted(softmax(vals), b.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}

// softmax normalized by the max value
func softmax(vals []float64) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range vals {
		maxVal = math.Max(maxVal, v)
	}
	sum := 0.0
	weights := make([]float64, len(vals))
	for i, v := range vals {
		weights[i] = math.Exp(v - maxVal)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}
