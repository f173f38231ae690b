package explorer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zeu5/miniblocks/util"
)

// Step is one recorded transition, states and actions are hashes
type Step struct {
	State     string  `json:"state"`
	Action    string  `json:"action"`
	NextState string  `json:"next_state"`
	Reward    float64 `json:"reward"`
}

// Trace is one line of a recorded traces file
type Trace struct {
	Episode int     `json:"episode"`
	Reward  float64 `json:"reward"`
	Steps   []Step  `json:"steps"`
}

func (t *Trace) Len() int {
	return len(t.Steps)
}

func (t *Trace) Get(index int) (Step, bool) {
	if index < 0 || index >= len(t.Steps) {
		return Step{}, false
	}
	return t.Steps[index], true
}

// readableState puts each component of a state hash on its own line
func readableState(key string) string {
	parts := strings.Split(key, " ")
	return "  " + strings.Join(parts, "\n  ")
}

func parseTrace(bs []byte) (*Trace, error) {
	t := &Trace{}
	if err := json.Unmarshal(bs, t); err != nil {
		return nil, fmt.Errorf("error reading file contents: %w", err)
	}
	return t, nil
}

// readTraces accepts the zstd compressed traces of an experiment or plain jsonl
func readTraces(path string) ([]*Trace, error) {
	traces := make([]*Trace, 0)
	if strings.HasSuffix(path, ".zst") {
		err := util.ReadJSONLZstd(path, func(line []byte) error {
			t, err := parseTrace(line)
			if err != nil {
				return err
			}
			traces = append(traces, t)
			return nil
		})
		return traces, err
	}

	file, err := os.Open(path)
	if err != nil {
		return traces, fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	maxTraceSize := 5 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxTraceSize)
	for scanner.Scan() {
		bs := scanner.Bytes()
		if len(bs) == 0 {
			continue
		}
		t, err := parseTrace(bs)
		if err != nil {
			return traces, err
		}
		traces = append(traces, t)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return traces, errors.New("error trace too big")
		}
		return traces, fmt.Errorf("failed to read traces: %w", err)
	}
	return traces, nil
}
