package explorer

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/miniblocks/policies"
)

// Explorer browses a recorded q table together with the traces of the same experiment
type Explorer struct {
	PolicyFile string
	TracesFile string

	QTable *policies.QTable
	Traces []*Trace

	// occurrences of every state seen in the traces
	StateMap map[string]int
}

// Create an explorer of q tables and trace
func NewExplorer(policyFile string, tracesFile string) (*Explorer, error) {
	e := &Explorer{
		PolicyFile: policyFile,
		TracesFile: tracesFile,
		QTable:     policies.NewQTable(),
		Traces:     make([]*Trace, 0),
		StateMap:   make(map[string]int),
	}

	err := e.QTable.Read(policyFile)
	if err != nil {
		return nil, err
	}
	e.Traces, err = readTraces(e.TracesFile)
	if err != nil {
		return nil, err
	}

	for _, t := range e.Traces {
		for _, s := range t.Steps {
			e.StateMap[s.State]++
		}
		if last, ok := t.Get(t.Len() - 1); ok {
			e.StateMap[last.NextState]++
		}
	}

	return e, nil
}

// Example invocation - ./miniblocks explore results/policies/BonusMax_0.json results/traces/BonusMax_0.jsonl.zst
func ExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [policy_output] [trace_output]",
		Short: "Explore the choices of a q-table and the traces",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := NewExplorer(args[0], args[1])
			if err != nil {
				return err
			}

			exp.Interact(os.Stdin, os.Stdout)
			return nil
		},
	}
}
