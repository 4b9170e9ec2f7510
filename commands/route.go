package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/rlpath/rl"
	"github.com/zeu5/rlpath/types"
)

func routeCommand(a *app) *cobra.Command {
	var maxSteps int
	var execute bool

	cmd := &cobra.Command{
		Use:   "route <experiment>",
		Short: "Replay the learned route of a stored experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxSteps <= 0 {
				maxSteps = a.cfg.Routing.MaxSteps
			}
			ctx := cmd.Context()
			exp, err := a.experiments.Load(ctx, args[0])
			if err != nil {
				return err
			}
			start, err := exp.Environment.InitialState(ctx)
			if err != nil {
				return fmt.Errorf("initial state: %w", err)
			}

			pf := rl.NewPathFinder(exp.Environment, exp.State, a.logger)
			var route *types.WalkResult
			if execute {
				if route, err = pf.FindRoute(ctx, start, exp.Goal, maxSteps); err != nil {
					return err
				}
			} else {
				if route, err = pf.FindRouteWithoutApplyingActions(ctx, start, exp.Goal, maxSteps); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "outcome: %s\n", route.Outcome)
			for i, step := range route.Steps {
				result := "?"
				if step.ResultState != nil {
					result = step.ResultState.Hash()
				}
				fmt.Fprintf(out, "%3d  %s --%s--> %s\n", i+1, step.State.Hash(), step.Action.String(), result)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Step budget, defaults to routing.max_steps")
	cmd.Flags().BoolVar(&execute, "execute", false, "Execute the actions instead of following recorded results")
	return cmd
}
