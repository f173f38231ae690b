package blocks

import (
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/miniblocks/types"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// GridDataSet counts agent visits per cell, indexed by row then column
type GridDataSet struct {
	Visits map[int]map[int]int `json:"visits"`
	Height int                 `json:"height"`
	Width  int                 `json:"width"`
}

var _ plotter.GridXYZ = &GridDataSet{}

func NewGridDataSet(width, height int) *GridDataSet {
	return &GridDataSet{
		Visits: make(map[int]map[int]int),
		Height: height,
		Width:  width,
	}
}

// Visit counts one visit of the cell
func (g *GridDataSet) Visit(x, y int) {
	if _, ok := g.Visits[y]; !ok {
		g.Visits[y] = make(map[int]int)
	}
	g.Visits[y][x] += 1
	if y+1 > g.Height {
		g.Height = y + 1
	}
	if x+1 > g.Width {
		g.Width = x + 1
	}
}

// Count of visits of the cell
func (g *GridDataSet) Count(x, y int) int {
	return g.Visits[y][x]
}

// Cells is the number of distinct cells visited
func (g *GridDataSet) Cells() int {
	cells := 0
	for _, row := range g.Visits {
		cells += len(row)
	}
	return cells
}

func (g *GridDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *GridDataSet) Z(c, r int) float64 {
	return float64(g.Visits[r][c])
}

func (g *GridDataSet) X(c int) float64 {
	return float64(c)
}

// Y flips rows so that the top of the grid is drawn on top
func (g *GridDataSet) Y(r int) float64 {
	return float64(g.Height - 1 - r)
}

func (g *GridDataSet) Min() float64 {
	return 0.0
}

func (g *GridDataSet) Max() float64 {
	max := 0
	for _, vals := range g.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

// MergeGridDatasets sums the visits of the data sets
func MergeGridDatasets(dataSets []types.DataSet) *GridDataSet {
	merged := NewGridDataSet(0, 0)
	for _, d := range dataSets {
		dGrid, ok := d.(*GridDataSet)
		if !ok {
			continue
		}
		merged.Height = maxInt(merged.Height, dGrid.Height)
		merged.Width = maxInt(merged.Width, dGrid.Width)
		for y, vals := range dGrid.Visits {
			if _, ok := merged.Visits[y]; !ok {
				merged.Visits[y] = make(map[int]int)
			}
			for x, visits := range vals {
				merged.Visits[y][x] += visits
			}
		}
	}
	return merged
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// VisitAnalyzer accumulates the cells the agent visited over all episodes
type VisitAnalyzer struct {
	width, height int
	data          *GridDataSet
}

var _ types.Analyzer = &VisitAnalyzer{}

func NewVisitAnalyzer(size int) *VisitAnalyzer {
	return &VisitAnalyzer{
		width:  size,
		height: size,
		data:   NewGridDataSet(size, size),
	}
}

func (v *VisitAnalyzer) Analyze(_ int, _ int, _ int, _ string, t *types.Trace) {
	for i := 0; i < t.Len(); i++ {
		_, _, ns, _ := t.Get(i)
		s, ok := ns.(*State)
		if !ok {
			continue
		}
		v.data.Visit(s.Agent.X, s.Agent.Y)
	}
}

func (v *VisitAnalyzer) DataSet() types.DataSet {
	return v.data
}

func (v *VisitAnalyzer) Reset() {
	v.data = NewGridDataSet(v.width, v.height)
}

// GridPlotComparator saves the visits of each experiment as json and as a heatmap
func GridPlotComparator(figPath string) types.Comparator {
	if _, err := os.Stat(figPath); err != nil {
		os.MkdirAll(figPath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []types.DataSet) {
		for i := 0; i < len(names); i++ {
			name := names[i]
			dataSet, ok := ds[i].(*GridDataSet)
			if !ok {
				continue
			}
			prefix := path.Join(figPath, strconv.Itoa(run)+"_"+name)

			bs, err := json.Marshal(dataSet)
			if err == nil {
				os.WriteFile(prefix+"_visits.json", bs, 0644)
			}
			if dataSet.Max() == 0 {
				continue
			}

			p := plot.New()
			p.Title.Text = name
			p.Add(plotter.NewHeatMap(dataSet, palette.Heat(20, 1)))
			p.Save(4*vg.Inch, 4*vg.Inch, prefix+"_visits.png")
		}
	}
}
