package policies

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// QTable maps (state, action) keys to values
type QTable struct {
	table map[string]map[string]float64
}

func NewQTable() *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
	}
}

// Get returns the value, initializing it with def when absent
func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// GetAll returns a copy of the action values of the state
func (q *QTable) GetAll(state string) (map[string]float64, bool) {
	actions, ok := q.table[state]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(actions))
	for a, v := range actions {
		out[a] = v
	}
	return out, true
}

// Len is the number of states in the table
func (q *QTable) Len() int {
	return len(q.table)
}

// Max returns the best known action of the state, ties go to the smallest key
func (q *QTable) Max(state string, def float64) (string, float64) {
	actions, ok := q.table[state]
	if !ok || len(actions) == 0 {
		return "", def
	}
	keys := make([]string, 0, len(actions))
	for a := range actions {
		keys = append(keys, a)
	}
	sort.Strings(keys)
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range keys {
		if actions[a] > maxVal {
			maxAction = a
			maxVal = actions[a]
		}
	}
	return maxAction, maxVal
}

// MaxAmong returns the best of the given actions, in the given order on ties
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	maxAction := ""
	maxVal := math.Inf(-1)
	for _, a := range actions {
		val := q.Get(state, a, def)
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}
	return maxAction, maxVal
}

// Record writes the table as json
func (q *QTable) Record(path string) error {
	bs, err := json.Marshal(q.table)
	if err != nil {
		return err
	}
	return os.WriteFile(path+".json", bs, 0644)
}

// Read replaces the table with the contents of a file written by Record
func (q *QTable) Read(path string) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading q table: %w", err)
	}
	table := make(map[string]map[string]float64)
	if err := json.Unmarshal(bs, &table); err != nil {
		return fmt.Errorf("parsing q table %s: %w", path, err)
	}
	q.table = table
	return nil
}
