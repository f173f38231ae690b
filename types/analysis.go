package types

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CoverageAnalyzer tracks the number of distinct abstract states seen after each episode
type CoverageAnalyzer struct {
	abstractor   StateAbstractor
	uniqueStates map[string]bool
	coverage     []int
}

var _ Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer(abs StateAbstractor) *CoverageAnalyzer {
	if abs == nil {
		abs = DefaultAbstractor()
	}
	return &CoverageAnalyzer{
		abstractor:   abs,
		uniqueStates: make(map[string]bool),
		coverage:     make([]int, 0),
	}
}

func (c *CoverageAnalyzer) Analyze(_ int, _ int, _ int, _ string, t *Trace) {
	for j := 0; j < t.Len(); j++ {
		s, _, ns, _ := t.Get(j)
		c.uniqueStates[c.abstractor(s)] = true
		c.uniqueStates[c.abstractor(ns)] = true
	}
	c.coverage = append(c.coverage, len(c.uniqueStates))
}

func (c *CoverageAnalyzer) DataSet() DataSet {
	out := make([]int, len(c.coverage))
	copy(out, c.coverage)
	return out
}

func (c *CoverageAnalyzer) Reset() {
	c.uniqueStates = make(map[string]bool)
	c.coverage = make([]int, 0)
}

// CoveragePlotter plots the coverage of each experiment in one figure
func CoveragePlotter(plotPath string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "States covered"
		for i := 0; i < len(names); i++ {
			uniqueStates, ok := ds[i].([]int)
			if !ok || len(uniqueStates) == 0 {
				continue
			}
			points := make(plotter.XYs, len(uniqueStates))
			for j, v := range uniqueStates {
				points[j] = plotter.XY{
					X: float64(j),
					Y: float64(v),
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			fmt.Printf("Number of unique states: %d for experiment: %s\n", uniqueStates[len(uniqueStates)-1], names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_coverage.png"))
	}
}

// RewardDataSet holds the return and length of each episode
type RewardDataSet struct {
	Returns []float64
	Lengths []float64
}

// Stats returns the mean and standard deviation of the episode returns
func (r *RewardDataSet) Stats() (float64, float64) {
	if len(r.Returns) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(r.Returns, nil)
}

type RewardAnalyzer struct {
	data *RewardDataSet
}

var _ Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	return &RewardAnalyzer{data: &RewardDataSet{}}
}

func (r *RewardAnalyzer) Analyze(_ int, _ int, _ int, _ string, t *Trace) {
	r.data.Returns = append(r.data.Returns, t.TotalReward())
	r.data.Lengths = append(r.data.Lengths, float64(t.Len()))
}

func (r *RewardAnalyzer) DataSet() DataSet {
	return r.data
}

func (r *RewardAnalyzer) Reset() {
	r.data = &RewardDataSet{}
}

// RewardPlotter plots the per episode return of each experiment
// and prints the mean return
func RewardPlotter(plotPath string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Episode return"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = "Return"
		for i := 0; i < len(names); i++ {
			data, ok := ds[i].(*RewardDataSet)
			if !ok || len(data.Returns) == 0 {
				continue
			}
			points := make(plotter.XYs, len(data.Returns))
			for j, v := range data.Returns {
				points[j] = plotter.XY{X: float64(j), Y: v}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)

			mean, std := data.Stats()
			meanLen := stat.Mean(data.Lengths, nil)
			fmt.Printf("Return: %.3f (+/- %.3f), mean length: %.1f for experiment: %s\n", mean, std, meanLen, names[i])
		}
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_reward.png"))
	}
}
