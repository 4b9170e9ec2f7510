package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"
	"github.com/zeu5/rlpath/analysis"
	"github.com/zeu5/rlpath/config"
	"github.com/zeu5/rlpath/grid"
	"github.com/zeu5/rlpath/maze"
	"github.com/zeu5/rlpath/policies"
	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/types"
	"go.uber.org/zap"
)

// trainOptions are the flags shared by every train subcommand. Zero values
// keep the configured setting.
type trainOptions struct {
	name      string
	epochs    int
	actions   int
	policy    string
	seed      uint64
	runs      int
	resume    bool
	plotFile  string
	window    int
	graphFile string
	rules     []string
}

// runSetup builds a fresh environment and goal for one run
type runSetup func(run int) (types.Environment, types.TrainGoal, rl.EpochObserver)

func trainCommand(a *app) *cobra.Command {
	opts := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train experiments and save them to the store",
	}
	cmd.PersistentFlags().StringVarP(&opts.name, "name", "n", "", "Experiment name, defaults to the environment name")
	cmd.PersistentFlags().IntVarP(&opts.epochs, "epochs", "e", 0, "Number of epochs")
	cmd.PersistentFlags().IntVar(&opts.actions, "actions", 0, "Maximum actions per epoch")
	cmd.PersistentFlags().StringVarP(&opts.policy, "policy", "p", "", "Exploration policy: random, greedy, softmax, egreedy or strict")
	cmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "Seed of the first run, later runs add their index")
	cmd.PersistentFlags().IntVar(&opts.runs, "runs", 1, "Number of independent runs")
	cmd.PersistentFlags().BoolVar(&opts.resume, "resume", false, "Continue from the stored experiment of the same name")
	cmd.PersistentFlags().StringVar(&opts.plotFile, "plot", "", "Save the learning curves to this image")
	cmd.PersistentFlags().IntVar(&opts.window, "window", 10, "Moving window of the plotted success rate")
	cmd.PersistentFlags().StringVar(&opts.graphFile, "graph", "", "Record the transition graph of the first run as JSON")
	cmd.PersistentFlags().StringArrayVar(&opts.rules, "rule", nil, "Strict policy rule state=action label, an empty state matches all (repeatable)")

	cmd.AddCommand(trainMazeCommand(a, opts))
	cmd.AddCommand(trainGridCommand(a, opts))
	return cmd
}

func trainMazeCommand(a *app, opts *trainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maze",
		Short: "Train on the classic twelve room maze",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.train(cmd, opts, "maze", func(int) (types.Environment, types.TrainGoal, rl.EpochObserver) {
				m, g := maze.Classic12()
				return m, g, nil
			})
		},
	}
}

func trainGridCommand(a *app, opts *trainOptions) *cobra.Command {
	var height, width, grids, settle int
	var heatmap string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Train on stacked grids connected by doors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if height <= 0 || width <= 0 || grids <= 0 {
				return fmt.Errorf("height, width and grids must be positive")
			}
			var first *grid.VisitMap
			err := a.train(cmd, opts, "grid", func(run int) (types.Environment, types.TrainGoal, rl.EpochObserver) {
				// a door in the far corner of every grid leads to the next one
				doors := make([]grid.Door, 0, grids-1)
				for k := 0; k+1 < grids; k++ {
					doors = append(doors, grid.Door{
						From: grid.Position{I: height - 1, J: width - 1, K: k},
						To:   grid.Position{I: 0, J: 0, K: k + 1},
					})
				}
				env := grid.NewGridEnvironment(height, width, grids, doors...).WithSettle(settle)
				goal := grid.InGridPosition(height-1, width-1, grids-1)
				if run == 0 && heatmap != "" {
					first = grid.NewVisitMap(height, width, 0)
					return env, goal, first
				}
				return env, goal, nil
			})
			if err != nil {
				return err
			}
			if first != nil {
				if err := first.Save(heatmap); err != nil {
					return fmt.Errorf("saving heat map: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&height, "height", 6, "Height of each grid")
	cmd.Flags().IntVar(&width, "width", 6, "Width of each grid")
	cmd.Flags().IntVar(&grids, "grids", 2, "Number of grids")
	cmd.Flags().IntVar(&settle, "settle", 0, "Waits a door needs to settle")
	cmd.Flags().StringVar(&heatmap, "heatmap", "", "Save the visits of the first grid of the first run to this image")
	return cmd
}

func (o *trainOptions) apply(a *app) error {
	t := &a.cfg.Training
	if len(o.rules) > 0 {
		t.Rules = make([]config.StrictRule, 0, len(o.rules))
		for _, raw := range o.rules {
			state, action, ok := strings.Cut(raw, "=")
			if !ok {
				return fmt.Errorf("rule %q is not state=action", raw)
			}
			t.Rules = append(t.Rules, config.StrictRule{State: state, Action: action})
		}
	}
	if o.epochs > 0 {
		t.Epochs = o.epochs
	}
	if o.actions > 0 {
		t.MaximumActions = o.actions
	}
	if o.policy != "" {
		t.Policy = o.policy
	}
	if o.seed > 0 {
		t.Seed = o.seed
	}
	return nil
}

func strictRules(rules []config.StrictRule) []policies.Rule {
	out := make([]policies.Rule, len(rules))
	for i, r := range rules {
		out[i] = policies.Rule{State: r.State, Action: r.Action}
	}
	return out
}

func (a *app) train(cmd *cobra.Command, opts *trainOptions, defaultName string, newRun runSetup) error {
	if err := opts.apply(a); err != nil {
		return err
	}
	t := a.cfg.Training
	if err := t.Validate(); err != nil {
		return err
	}
	if opts.runs <= 0 {
		return fmt.Errorf("runs must be positive")
	}
	name := opts.name
	if name == "" {
		name = defaultName
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobs := make([]rl.Job, opts.runs)
	experiments := make([]*types.Experiment, opts.runs)
	curves := make([]*analysis.LearningCurve, opts.runs)
	var graph *analysis.VisitGraph
	for i := range jobs {
		runName := name
		if opts.runs > 1 {
			runName = fmt.Sprintf("%s-%d", name, i+1)
		}
		policy, err := policies.New(t.Policy, policies.Options{
			Seed:        t.Seed + uint64(i),
			Temperature: t.Temperature,
			Epsilon:     t.Epsilon,
			Fallback:    t.Fallback,
			Rules:       strictRules(t.Rules),
		})
		if err != nil {
			return err
		}
		env, goal, observer := newRun(i)
		exp := types.NewExperiment(runName, env, goal, nil)
		if opts.resume {
			resumed, err := a.experiments.Resume(ctx, exp)
			if err != nil {
				return fmt.Errorf("resuming %s: %w", runName, err)
			}
			a.logger.Info("experiment", zap.String("name", runName), zap.Bool("resumed", resumed))
		}

		curves[i] = analysis.NewLearningCurve(runName)
		trainerOpts := []rl.TrainerOption{
			rl.WithLearningRate(t.LearningRate),
			rl.WithDiscount(t.Discount),
			rl.WithEpochObserver(curves[i]),
			rl.WithLogger(a.logger),
		}
		if observer != nil {
			trainerOpts = append(trainerOpts, rl.WithEpochObserver(observer))
		}
		if i == 0 && opts.graphFile != "" {
			graph = analysis.NewVisitGraph()
			trainerOpts = append(trainerOpts, rl.WithEpochObserver(graph))
		}
		experiments[i] = exp
		jobs[i] = rl.Job{
			Name:           runName,
			Trainer:        rl.NewTrainer(exp, policy, trainerOpts...),
			Epochs:         t.Epochs,
			MaximumActions: t.MaximumActions,
		}
	}

	progress := uilive.New()
	progress.Out = cmd.ErrOrStderr()
	progress.Start()
	done := 0
	results, err := rl.RunParallel(ctx, jobs, t.Parallelism, func(r rl.JobResult) {
		done += 1
		fmt.Fprintf(progress, "runs finished: %d/%d\n", done, len(jobs))
	})
	progress.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, r := range results {
		if err := a.experiments.Save(ctx, experiments[i]); err != nil {
			return fmt.Errorf("saving %s: %w", r.Name, err)
		}
		fmt.Fprintf(out, "%s: %s\n", r.Name, r.Report)
		fmt.Fprintf(out, "%s: %s\n", r.Name, curves[i].Summary())
	}
	if opts.plotFile != "" {
		if err := analysis.Save(opts.plotFile, opts.window, curves...); err != nil {
			return fmt.Errorf("saving plot: %w", err)
		}
	}
	if graph != nil {
		if err := graph.Record(opts.graphFile); err != nil {
			return fmt.Errorf("recording graph: %w", err)
		}
	}
	return nil
}
