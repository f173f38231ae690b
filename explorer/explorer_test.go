package explorer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/miniblocks/blocks"
	"github.com/zeu5/miniblocks/policies"
	"github.com/zeu5/miniblocks/types"
)

const startState = "agent=(1, 1),right blocks=[(4, 4)] blockdoors=[]"

// record runs a short experiment that leaves a q table and its traces in dir
func record(t *testing.T, dir string) (string, string) {
	t.Helper()
	env, err := blocks.NewEnv(blocks.DefaultConfig())
	require.NoError(t, err)

	c := types.NewComparison(&types.ComparisonConfig{
		Runs:         1,
		Episodes:     3,
		Horizon:      10,
		RecordPath:   dir,
		RecordTraces: true,
		RecordPolicy: true,
	})
	c.AddExperiment(types.NewExperiment("Bonus", policies.NewBonusPolicyGreedy(0.1, 0.99, 0.05, true, 3), blocks.NewRLEnv(env)))
	c.Run(context.Background())

	return filepath.Join(dir, "policies", "Bonus_0.json"), filepath.Join(dir, "traces", "Bonus_0.jsonl.zst")
}

func TestNewExplorer(t *testing.T) {
	policyFile, tracesFile := record(t, t.TempDir())
	e, err := NewExplorer(policyFile, tracesFile)
	require.NoError(t, err)

	require.Len(t, e.Traces, 3)
	for i, trace := range e.Traces {
		assert.Equal(t, i, trace.Episode)
		assert.Equal(t, 10, trace.Len())
	}
	assert.GreaterOrEqual(t, e.StateMap[startState], 3)
	assert.Contains(t, e.getInitialStates(), startState+": 3")
	assert.Contains(t, e.getQValues(startState), "Q values are:")
	assert.Equal(t, "No such state in the q table\n", e.getQValues("nowhere"))
	assert.Equal(t, "No such state\n", e.getFullState("nowhere"))
}

func TestInteract(t *testing.T) {
	policyFile, tracesFile := record(t, t.TempDir())
	e, err := NewExplorer(policyFile, tracesFile)
	require.NoError(t, err)

	input := strings.Join([]string{
		"1",
		"2", startState,
		"3", startState,
		"4", "9",
		"4", "1", "s", "d", "l", "s", "p", "x", "q",
		"seven",
		"5",
	}, "\n") + "\n"
	var out bytes.Buffer
	e.Interact(strings.NewReader(input), &out)

	text := out.String()
	assert.Contains(t, text, "Initial States are:")
	assert.Contains(t, text, "Q values are:")
	assert.Contains(t, text, "Occurrences:")
	assert.Contains(t, text, "Should be between (1-3)")
	assert.Contains(t, text, "For step 2")
	assert.Contains(t, text, "For step 10")
	assert.Contains(t, text, "No more steps!")
	assert.Contains(t, text, "Invalid option! Try again.")
	assert.Contains(t, text, "Invalid input! Try again")
	assert.Contains(t, text, "Quitting! Thank you")
}

func TestInteractStopsAtEndOfInput(t *testing.T) {
	e := &Explorer{Traces: []*Trace{{Steps: []Step{{State: "a", Action: "right", NextState: "b"}}}}}
	var out bytes.Buffer
	e.Interact(strings.NewReader("4\n1\ns"), &out)
	assert.Contains(t, out.String(), "No more steps!")
}

func TestReadPlainTraces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	content := `{"episode":0,"reward":-0.5,"steps":[{"state":"a","action":"right","next_state":"b","reward":-0.5}]}` + "\n\n" +
		`{"episode":1,"reward":0,"steps":[]}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	traces, err := readTraces(path)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	step, ok := traces[0].Get(0)
	require.True(t, ok)
	assert.Equal(t, "b", step.NextState)
	_, ok = traces[1].Get(0)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = readTraces(path)
	assert.Error(t, err)

	_, err = NewExplorer(filepath.Join(t.TempDir(), "missing.json"), path)
	assert.Error(t, err)
}
