// Package analysis observes training runs: the learning curve of an
// experiment, the states it covered and summaries of its quality matrix.
package analysis

import (
	"fmt"
	"sync"

	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/types"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// LearningCurve records per epoch outcomes and state coverage
type LearningCurve struct {
	Name string

	mtx      sync.Mutex
	reached  []float64
	actions  []float64
	coverage []int
	seen     map[string]bool
}

var _ rl.EpochObserver = &LearningCurve{}

func NewLearningCurve(name string) *LearningCurve {
	return &LearningCurve{
		Name:     name,
		reached:  make([]float64, 0),
		actions:  make([]float64, 0),
		coverage: make([]int, 0),
		seen:     make(map[string]bool),
	}
}

func (l *LearningCurve) ObserveEpoch(e rl.EpochSummary) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	reached := 0.0
	if e.Reached {
		reached = 1
	}
	l.reached = append(l.reached, reached)
	l.actions = append(l.actions, float64(e.Report.TotalActionsRun))
	for i := 0; i < e.Trace.Len(); i++ {
		s, _, next, _ := e.Trace.Get(i)
		l.seen[s.Hash()] = true
		l.seen[next.Hash()] = true
	}
	l.coverage = append(l.coverage, len(l.seen))
}

// Epochs observed so far
func (l *LearningCurve) Epochs() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.reached)
}

// Coverage is the number of distinct states seen after each epoch
func (l *LearningCurve) Coverage() []int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]int(nil), l.coverage...)
}

// SuccessRate is the fraction of the last window epochs that reached the
// goal. A window <= 0 covers every epoch.
func (l *LearningCurve) SuccessRate(window int) float64 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return rate(l.reached, window)
}

func rate(reached []float64, window int) float64 {
	if len(reached) == 0 {
		return 0
	}
	if window <= 0 || window > len(reached) {
		window = len(reached)
	}
	return stat.Mean(reached[len(reached)-window:], nil)
}

// Summary of the actions spent per epoch
type Summary struct {
	Epochs      int     `json:"epochs"`
	SuccessRate float64 `json:"success_rate"`
	MeanActions float64 `json:"mean_actions"`
	StdActions  float64 `json:"std_actions"`
	MaxActions  float64 `json:"max_actions"`
	States      int     `json:"states"`
}

func (l *LearningCurve) Summary() Summary {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	s := Summary{Epochs: len(l.reached), States: len(l.seen)}
	if len(l.actions) == 0 {
		return s
	}
	s.SuccessRate = rate(l.reached, 0)
	s.MeanActions, s.StdActions = stat.MeanStdDev(l.actions, nil)
	if len(l.actions) == 1 {
		s.StdActions = 0
	}
	s.MaxActions = floats.Max(l.actions)
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("epochs=%d success=%.2f actions=%.1f±%.1f max=%.0f states=%d",
		s.Epochs, s.SuccessRate, s.MeanActions, s.StdActions, s.MaxActions, s.States)
}

// Save plots the moving success rate and the coverage of every curve
func Save(path string, window int, curves ...*LearningCurve) error {
	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Success rate / states covered (normalized)"

	for i, c := range curves {
		c.mtx.Lock()
		success := make(plotter.XYs, len(c.reached))
		coverage := make(plotter.XYs, len(c.coverage))
		maxCoverage := 1.0
		if n := len(c.coverage); n > 0 && c.coverage[n-1] > 0 {
			maxCoverage = float64(c.coverage[n-1])
		}
		for j := range c.reached {
			success[j] = plotter.XY{X: float64(j), Y: rate(c.reached[:j+1], window)}
			coverage[j] = plotter.XY{X: float64(j), Y: float64(c.coverage[j]) / maxCoverage}
		}
		c.mtx.Unlock()

		successLine, err := plotter.NewLine(success)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", c.Name, err)
		}
		successLine.Color = plotutil.Color(i)
		coverageLine, err := plotter.NewLine(coverage)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", c.Name, err)
		}
		coverageLine.Color = plotutil.Color(i)
		coverageLine.Dashes = plotutil.Dashes(1)

		p.Add(successLine, coverageLine)
		p.Legend.Add(c.Name+" success", successLine)
		p.Legend.Add(c.Name+" coverage", coverageLine)
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// QualityStats summarizes the values of a quality matrix
type QualityStats struct {
	States  int     `json:"states"`
	Entries int     `json:"entries"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	// Transitions is the number of entries with a recorded result state
	Transitions int `json:"transitions"`
}

func Quality(q *types.QualityMatrix) QualityStats {
	entries := q.Entries()
	s := QualityStats{States: q.NumStates(), Entries: len(entries)}
	if len(entries) == 0 {
		return s
	}
	values := make([]float64, len(entries))
	for i, e := range entries {
		values[i] = e.Value
		if e.Result != nil {
			s.Transitions += 1
		}
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean = stat.Mean(values, nil)
	return s
}
