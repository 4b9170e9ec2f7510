package grid

import (
	"fmt"
	"sync"

	"github.com/zeu5/rlpath/rl"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// VisitMap counts how often each cell of one grid was left during training.
// It observes epochs and plots as a heat map.
type VisitMap struct {
	Visits map[int]map[int]int
	Height int
	Width  int
	Grid   int

	mtx sync.Mutex
}

var _ plotter.GridXYZ = &VisitMap{}
var _ rl.EpochObserver = &VisitMap{}

func NewVisitMap(height, width, grid int) *VisitMap {
	return &VisitMap{
		Visits: make(map[int]map[int]int),
		Height: height,
		Width:  width,
		Grid:   grid,
	}
}

func (v *VisitMap) ObserveEpoch(e rl.EpochSummary) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	for i := 0; i < e.Trace.Len(); i++ {
		state, _, _, _ := e.Trace.Get(i)
		pos, ok := state.(*Position)
		if !ok || pos.K != v.Grid {
			continue
		}
		if _, ok := v.Visits[pos.I]; !ok {
			v.Visits[pos.I] = make(map[int]int)
		}
		v.Visits[pos.I][pos.J] += 1
	}
}

// Count is the number of visits of cell (i, j)
func (v *VisitMap) Count(i, j int) int {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.Visits[i][j]
}

func (v *VisitMap) Dims() (int, int) {
	return v.Width, v.Height
}

func (v *VisitMap) Z(j, i int) float64 {
	return float64(v.Visits[i][j])
}

func (v *VisitMap) X(j int) float64 {
	return float64(j)
}

func (v *VisitMap) Y(i int) float64 {
	return float64(i)
}

func (v *VisitMap) Max() float64 {
	max := 0
	for _, vals := range v.Visits {
		for _, count := range vals {
			if count > max {
				max = count
			}
		}
	}
	return float64(max)
}

// Save plots the heat map to the file, the format follows the extension
func (v *VisitMap) Save(name string) error {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Visits of grid %d", v.Grid)
	p.X.Label.Text = "J"
	p.Y.Label.Text = "I"
	p.Add(plotter.NewHeatMap(v, palette.Heat(20, 1)))
	return p.Save(6*vg.Inch, 6*vg.Inch, name)
}
