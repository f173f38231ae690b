package blocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/miniblocks/grid"
	"github.com/zeu5/miniblocks/types"
)

// scripted plays the actions in order, then gives up
type scripted struct {
	actions []Action
}

var _ types.Policy = &scripted{}

func (s *scripted) NextAction(step int, _ types.State, actions []types.Action) (types.Action, bool) {
	if step >= len(s.actions) {
		return nil, false
	}
	for _, a := range actions {
		if a.(*Movement).Action == s.actions[step] {
			return a, true
		}
	}
	return nil, false
}

func (s *scripted) UpdateIteration(int, *types.Trace) {}

func (s *scripted) Update(int, types.State, types.Action, types.State) {}

func (s *scripted) Reset() {}

func (s *scripted) Record(string) {}

type foreignAction struct{}

func (foreignAction) Hash() string {
	return "teleport"
}

var solution = []Action{Down, Down, Down, Right, Right, Right, Right, Up, Right, Down, Down}

func runEpisode(t *testing.T, env types.Environment, policy types.Policy, horizon int) *types.EpisodeContext {
	t.Helper()
	agent := types.NewAgent(&types.AgentConfig{
		Episodes:    1,
		Horizon:     horizon,
		Policy:      policy,
		Environment: env,
	})
	eCtx := types.NewEpisodeContext(context.Background(), 0, 0, "test", 0)
	defer eCtx.Cancel()
	agent.RunEpisode(eCtx)
	require.NoError(t, eCtx.Err)
	return eCtx
}

func TestRLEnvSolvesEmptyRoom(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)

	eCtx := runEpisode(t, NewRLEnv(env), &scripted{actions: solution}, 100)
	assert.True(t, eCtx.Terminal)
	assert.False(t, eCtx.HorizonEnd)
	assert.Equal(t, len(solution), eCtx.Timesteps)
	assert.Equal(t, len(solution), eCtx.Trace.Len())

	penalty := -1.0 / float64(env.MaxSteps())
	assert.InDelta(t, 10*penalty+BlockReward, eCtx.TotalReward, 1e-9)

	_, _, last, ok := eCtx.Trace.Last()
	require.True(t, ok)
	s := last.(*State)
	assert.Equal(t, EventGoal, s.Event)
	assert.True(t, s.Terminal)
	assert.Empty(t, s.Actions())
}

func TestRLEnvHorizon(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)

	eCtx := runEpisode(t, NewRLEnv(env), types.NewRandomPolicy(3), 20)
	assert.True(t, eCtx.HorizonEnd)
	assert.Equal(t, 20, eCtx.Trace.Len())
}

func TestRLEnvRejectsForeignAction(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)
	rl := NewRLEnv(env)
	eCtx := types.NewEpisodeContext(context.Background(), 0, 0, "test", 0)
	defer eCtx.Cancel()

	_, err = rl.Reset(eCtx)
	require.NoError(t, err)
	_, err = rl.Step(foreignAction{}, types.NewStepContext(eCtx, 0))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestStateHash(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)
	rl := NewRLEnv(env)
	eCtx := types.NewEpisodeContext(context.Background(), 0, 0, "test", 0)
	defer eCtx.Cancel()

	start, err := rl.Reset(eCtx)
	require.NoError(t, err)
	assert.Equal(t, "agent=(1, 1),right blocks=[(4, 4)] blockdoors=[]", start.Hash())

	// the step counter is not part of the state
	s1, err := rl.Step(NoMovement, types.NewStepContext(eCtx, 0))
	require.NoError(t, err)
	assert.Equal(t, start.Hash(), s1.Hash())
	assert.Equal(t, start.(*State).ObsHash, s1.(*State).ObsHash)

	s2, err := rl.Step(MovementDown, types.NewStepContext(eCtx, 1))
	require.NoError(t, err)
	assert.NotEqual(t, start.Hash(), s2.Hash())
	assert.Equal(t, "(1, 2)", PositionAbstractor()(s2))
	assert.Len(t, s2.Actions(), NumActions)
}

func TestGoalMonitor(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)
	eCtx := runEpisode(t, NewRLEnv(env), &scripted{actions: solution}, 100)

	prefix, ok := GoalReachedMonitor().Check(eCtx.Trace)
	require.True(t, ok)
	assert.Equal(t, len(solution), prefix.Len())

	_, ok = DoorReachedMonitor().Check(eCtx.Trace)
	assert.False(t, ok)
}

func TestDoorThenGoalMonitor(t *testing.T) {
	objects := map[grid.Point]grid.Object{
		{X: 2, Y: 1}: grid.NewBlock(),
		{X: 3, Y: 1}: grid.NewDoor(grid.Yellow, true),
		{X: 5, Y: 1}: grid.NewBlockGoal(),
	}
	env, err := NewEnvWithGenerator(testConfig(7), room(objects, grid.Point{X: 1, Y: 1}))
	require.NoError(t, err)

	eCtx := runEpisode(t, NewRLEnv(env), &scripted{actions: []Action{Right, Right, Right}}, 10)
	assert.True(t, eCtx.Terminal)

	prefix, ok := DoorReachedMonitor().Check(eCtx.Trace)
	require.True(t, ok)
	assert.Equal(t, 1, prefix.Len())

	prefix, ok = DoorThenGoalMonitor().Check(eCtx.Trace)
	require.True(t, ok)
	assert.Equal(t, 3, prefix.Len())
}

func TestVisitAnalyzer(t *testing.T) {
	env, err := NewEnv(DefaultConfig())
	require.NoError(t, err)
	eCtx := runEpisode(t, NewRLEnv(env), &scripted{actions: solution}, 100)

	a := NewVisitAnalyzer(8)
	a.Analyze(0, 0, 0, "test", eCtx.Trace)
	a.Analyze(0, 1, 11, "test", eCtx.Trace)
	data := a.DataSet().(*GridDataSet)

	assert.Equal(t, 2, data.Count(1, 2))
	assert.Equal(t, 2, data.Count(6, 4))
	assert.Equal(t, 0, data.Count(7, 7))
	assert.Equal(t, 2.0, data.Max())
	w, h := data.Dims()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)

	merged := MergeGridDatasets([]types.DataSet{data, data})
	assert.Equal(t, 4, merged.Count(1, 2))
	assert.Equal(t, data.Cells(), merged.Cells())

	a.Reset()
	assert.Equal(t, 0, a.DataSet().(*GridDataSet).Cells())
}

func TestRLEnvFollowsRandomStart(t *testing.T) {
	assert.False(t, DefaultConfig().RandomStart)

	fixed, err := NewEnv(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, NewRLEnv(fixed).RandomStart)

	cfg := DefaultConfig()
	cfg.RandomStart = true
	env, err := NewEnv(cfg)
	require.NoError(t, err)
	rl := NewRLEnv(env)
	require.True(t, rl.RandomStart)

	starts := map[grid.Point]bool{}
	for i := 0; i < 20; i++ {
		eCtx := types.NewEpisodeContext(context.Background(), 0, i, "test", 0)
		s, err := rl.Reset(eCtx)
		eCtx.Cancel()
		require.NoError(t, err)
		starts[s.(*State).Agent] = true
	}
	assert.Greater(t, len(starts), 1)
}
