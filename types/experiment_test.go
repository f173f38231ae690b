package types

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/miniblocks/util"
)

// chain is a line of cells, reaching the last one ends the episode
type chain struct {
	length int
	pos    int
	failAt int
}

type chainState struct {
	pos, length int
}

func (c *chainState) Hash() string {
	return strconv.Itoa(c.pos)
}

func (c *chainState) Actions() []Action {
	if c.pos == c.length {
		return []Action{}
	}
	return []Action{inc, stay}
}

type chainAction string

func (c chainAction) Hash() string {
	return string(c)
}

const (
	inc  chainAction = "inc"
	stay chainAction = "stay"
)

func (c *chain) Reset(_ *EpisodeContext) (State, error) {
	c.pos = 0
	return &chainState{pos: 0, length: c.length}, nil
}

func (c *chain) Step(a Action, sCtx *StepContext) (State, error) {
	if c.failAt > 0 && sCtx.Step == c.failAt {
		return nil, errors.New("boom")
	}
	if a == inc {
		c.pos++
	}
	sCtx.Reward = -0.1
	if c.pos == c.length {
		sCtx.Reward = 1
		sCtx.Done = true
	}
	return &chainState{pos: c.pos, length: c.length}, nil
}

// always takes the first available action
type firstPolicy struct {
	iterations int
}

func (f *firstPolicy) UpdateIteration(int, *Trace) { f.iterations++ }

func (f *firstPolicy) NextAction(_ int, _ State, actions []Action) (Action, bool) {
	return actions[0], true
}

func (f *firstPolicy) Update(int, State, Action, State) {}

func (f *firstPolicy) Reset() { f.iterations = 0 }

func (f *firstPolicy) Record(string) {}

type memRecorder struct {
	summaries []EpisodeSummary
}

func (m *memRecorder) RecordEpisode(_ context.Context, s EpisodeSummary) error {
	m.summaries = append(m.summaries, s)
	return nil
}

func TestAgentReachesTerminal(t *testing.T) {
	policy := &firstPolicy{}
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 10, Policy: policy, Environment: &chain{length: 3}})
	eCtx := NewEpisodeContext(context.Background(), 0, 0, "chain", 0)
	defer eCtx.Cancel()
	agent.RunEpisode(eCtx)

	assert.True(t, eCtx.Terminal)
	assert.False(t, eCtx.HorizonEnd)
	assert.True(t, eCtx.Valid())
	assert.Equal(t, 3, eCtx.Timesteps)
	assert.InDelta(t, 0.8, eCtx.TotalReward, 1e-9)
	assert.InDelta(t, 0.8, eCtx.Trace.TotalReward(), 1e-9)
	assert.Equal(t, 1, policy.iterations)
}

func TestAgentHorizon(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 2, Policy: &firstPolicy{}, Environment: &chain{length: 5}})
	eCtx := NewEpisodeContext(context.Background(), 0, 0, "chain", 0)
	defer eCtx.Cancel()
	agent.RunEpisode(eCtx)

	assert.False(t, eCtx.Terminal)
	assert.True(t, eCtx.HorizonEnd)
	assert.Equal(t, 2, eCtx.Trace.Len())
}

func TestAgentStepError(t *testing.T) {
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 5, Policy: &firstPolicy{}, Environment: &chain{length: 5, failAt: 2}})
	eCtx := NewEpisodeContext(context.Background(), 0, 0, "chain", 0)
	defer eCtx.Cancel()
	agent.RunEpisode(eCtx)

	require.Error(t, eCtx.Err)
	assert.False(t, eCtx.Valid())
	assert.Equal(t, 2, eCtx.Trace.Len())
}

func TestAgentCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agent := NewAgent(&AgentConfig{Episodes: 1, Horizon: 5, Policy: &firstPolicy{}, Environment: &chain{length: 5}})
	eCtx := NewEpisodeContext(ctx, 0, 0, "chain", 0)
	defer eCtx.Cancel()
	agent.RunEpisode(eCtx)

	assert.True(t, eCtx.TimedOut)
	assert.Equal(t, 0, eCtx.Trace.Len())
}

func TestTraceJSON(t *testing.T) {
	trace := NewTrace()
	trace.Append(0, &chainState{pos: 0}, inc, &chainState{pos: 1}, -0.1)
	trace.Append(1, &chainState{pos: 1}, stay, &chainState{pos: 1}, -0.1)

	bs, err := json.Marshal(trace)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"state":"0","action":"inc","next_state":"1","reward":-0.1},
		{"state":"1","action":"stay","next_state":"1","reward":-0.1}
	]`, string(bs))

	prefix, ok := trace.GetPrefix(1)
	require.True(t, ok)
	assert.Equal(t, 1, prefix.Len())
	assert.Equal(t, 1, trace.Slice(1, 2).Len())
	assert.Equal(t, -0.1, trace.Reward(1))
	assert.Equal(t, 0.0, trace.Reward(5))
}

func TestComparisonRun(t *testing.T) {
	dir := t.TempDir()
	recorder := &memRecorder{}
	comparison := NewComparison(&ComparisonConfig{
		Runs:         2,
		Episodes:     3,
		Horizon:      10,
		RecordPath:   dir,
		RecordTraces: true,
		Recorder:     recorder,
	})

	coverage := NewCoverageAnalyzer(nil)
	rewards := NewRewardAnalyzer()
	var coverageSets, rewardSets []DataSet
	comparison.AddAnalysis("coverage", coverage, func(_ int, _ int, _ []string, ds []DataSet) {
		coverageSets = append(coverageSets, ds...)
	})
	comparison.AddAnalysis("rewards", rewards, func(_ int, _ int, _ []string, ds []DataSet) {
		rewardSets = append(rewardSets, ds...)
	})
	comparison.AddExperiment(NewExperiment("first", &firstPolicy{}, &chain{length: 4}))
	comparison.Run(context.Background())

	require.Len(t, recorder.summaries, 6)
	for _, s := range recorder.summaries {
		assert.Equal(t, "first", s.Experiment)
		assert.Equal(t, 4, s.Steps)
		assert.True(t, s.Terminal)
		assert.NotEmpty(t, s.ID)
	}

	require.Len(t, coverageSets, 2)
	assert.Equal(t, []int{5, 5, 5}, coverageSets[0])

	require.Len(t, rewardSets, 2)
	mean, std := rewardSets[1].(*RewardDataSet).Stats()
	assert.InDelta(t, 0.7, mean, 1e-9)
	assert.InDelta(t, 0, std, 1e-9)

	_, err := os.Stat(filepath.Join(dir, "comparison_config.json"))
	assert.NoError(t, err)

	lines := 0
	err = util.ReadJSONLZstd(filepath.Join(dir, "traces", "first_1.jsonl.zst"), func(line []byte) error {
		var rec struct {
			Episode int               `json:"episode"`
			Steps   []json.RawMessage `json:"steps"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		assert.Equal(t, lines, rec.Episode)
		assert.Len(t, rec.Steps, 4)
		lines++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, lines)
}

func TestComparisonAbortsOnErrors(t *testing.T) {
	recorder := &memRecorder{}
	comparison := NewComparison(&ComparisonConfig{
		Runs:                   1,
		Episodes:               10,
		Horizon:                5,
		RecordPath:             t.TempDir(),
		ConsecutiveErrorsAbort: 2,
		Recorder:               recorder,
	})
	comparison.AddExperiment(NewExperiment("failing", &firstPolicy{}, &chain{length: 5, failAt: 1}))
	comparison.Run(context.Background())

	require.Len(t, recorder.summaries, 2)
	assert.Equal(t, "step 1: boom", recorder.summaries[0].Error)
}

func TestMonitorCheck(t *testing.T) {
	at := func(pos int) MonitorCondition {
		return func(_ State, _ Action, ns State) bool {
			return ns.(*chainState).pos == pos
		}
	}
	m := NewMonitor()
	m.Build().On(at(1), "one").On(at(3), "three").MarkSuccess()

	trace := NewTrace()
	for i := 0; i < 4; i++ {
		trace.Append(i, &chainState{pos: i}, inc, &chainState{pos: i + 1}, 0)
	}
	prefix, ok := m.Check(trace)
	require.True(t, ok)
	assert.Equal(t, 3, prefix.Len())

	never := NewMonitor()
	never.Build().On(at(1).And(at(2)), "impossible").MarkSuccess()
	_, ok = never.Check(trace)
	assert.False(t, ok)

	either := NewMonitor()
	either.Build().On(at(9).Or(at(2).Not().Not()), "two").MarkSuccess()
	prefix, ok = either.Check(trace)
	require.True(t, ok)
	assert.Equal(t, 2, prefix.Len())

	analyzer := NewMonitorAnalyzer(m)
	analyzer.Analyze(0, 0, 0, "chain", trace)
	analyzer.Analyze(0, 1, 4, "chain", NewTrace())
	data := analyzer.DataSet().(*MonitorDataSet)
	assert.Equal(t, 1, data.Count())
	assert.Equal(t, []int{3, -1}, data.Steps)
}

func TestVisitGraphAnalyzer(t *testing.T) {
	trace := NewTrace()
	trace.Append(0, &chainState{pos: 0}, inc, &chainState{pos: 1}, 0)
	trace.Append(1, &chainState{pos: 1}, stay, &chainState{pos: 1}, 0)
	trace.Append(2, &chainState{pos: 1}, inc, &chainState{pos: 2}, 0)

	a := NewVisitGraphAnalyzer(nil)
	a.Analyze(0, 0, 0, "chain", trace)
	g := a.DataSet().(*VisitGraph)

	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, 3, g.Edges())
	assert.Equal(t, map[string]int{"0": 1, "1": 2, "2": 0}, g.GetVisits())

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, g.Record(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
