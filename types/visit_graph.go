package types

import (
	"encoding/json"
	"os"
	"path"
	"strconv"
)

// VisitGraph is the transition graph over abstract states
// built from the traces of all episodes of a run
type VisitGraph struct {
	Nodes map[string]*Node `json:"nodes"`
}

func NewVisitGraph() *VisitGraph {
	return &VisitGraph{
		Nodes: make(map[string]*Node),
	}
}

// Update adds the transition and reports whether `from` was new
func (v *VisitGraph) Update(from string, action string, to string) bool {
	isNew := false
	if _, ok := v.Nodes[from]; !ok {
		v.Nodes[from] = NewNode(from)
		isNew = true
	}
	if _, ok := v.Nodes[to]; !ok {
		v.Nodes[to] = NewNode(to)
	}
	v.Nodes[from].Visits += 1
	v.Nodes[from].AddNext(action, to)
	v.Nodes[to].AddPrev(action, from)
	return isNew
}

func (v *VisitGraph) GetVisits() map[string]int {
	results := make(map[string]int)
	for k, n := range v.Nodes {
		results[k] = n.Visits
	}
	return results
}

// Edges counts the distinct (from, action, to) transitions
func (v *VisitGraph) Edges() int {
	count := 0
	for _, n := range v.Nodes {
		for _, next := range n.Next {
			count += len(next)
		}
	}
	return count
}

func (v *VisitGraph) Record(filePath string) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, bs, 0644)
}

type Node struct {
	Key    string `json:"key"`
	Visits int    `json:"visits"`
	// Next, Prev: Each action can lead to many states
	Next map[string]map[string]bool `json:"next"`
	Prev map[string]map[string]bool `json:"prev"`
}

func NewNode(key string) *Node {
	return &Node{
		Key:    key,
		Visits: 0,
		Next:   make(map[string]map[string]bool),
		Prev:   make(map[string]map[string]bool),
	}
}

func (n *Node) AddPrev(a, prev string) {
	if _, ok := n.Prev[a]; !ok {
		n.Prev[a] = make(map[string]bool)
	}
	n.Prev[a][prev] = true
}

func (n *Node) AddNext(a, next string) {
	if _, ok := n.Next[a]; !ok {
		n.Next[a] = make(map[string]bool)
	}
	n.Next[a][next] = true
}

// VisitGraphAnalyzer builds a VisitGraph from every trace it is given
type VisitGraphAnalyzer struct {
	abstractor StateAbstractor
	graph      *VisitGraph
}

var _ Analyzer = &VisitGraphAnalyzer{}

func NewVisitGraphAnalyzer(abs StateAbstractor) *VisitGraphAnalyzer {
	if abs == nil {
		abs = DefaultAbstractor()
	}
	return &VisitGraphAnalyzer{
		abstractor: abs,
		graph:      NewVisitGraph(),
	}
}

func (v *VisitGraphAnalyzer) Analyze(_ int, _ int, _ int, _ string, t *Trace) {
	for i := 0; i < t.Len(); i++ {
		s, a, ns, _ := t.Get(i)
		v.graph.Update(v.abstractor(s), a.Hash(), v.abstractor(ns))
	}
}

func (v *VisitGraphAnalyzer) DataSet() DataSet {
	return v.graph
}

func (v *VisitGraphAnalyzer) Reset() {
	v.graph = NewVisitGraph()
}

// VisitGraphRecorder writes the graph of each experiment as json
func VisitGraphRecorder(savePath string) Comparator {
	if _, err := os.Stat(savePath); err != nil {
		os.MkdirAll(savePath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		for i, name := range names {
			g, ok := ds[i].(*VisitGraph)
			if !ok {
				continue
			}
			g.Record(path.Join(savePath, strconv.Itoa(run)+"_"+name+"_graph.json"))
		}
	}
}
