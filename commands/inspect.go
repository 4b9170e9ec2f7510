package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zeu5/rlpath/analysis"
)

func inspectCommand(a *app) *cobra.Command {
	var entries bool

	cmd := &cobra.Command{
		Use:   "inspect [experiment]",
		Short: "List stored experiments or summarize one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				names, err := a.experiments.List(ctx)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(out, n)
				}
				return nil
			}

			exp, err := a.experiments.Load(ctx, args[0])
			if err != nil {
				return err
			}
			q := analysis.Quality(exp.State.QualityMatrix)
			fmt.Fprintf(out, "name: %s\nid: %s\n", exp.Name, exp.State.ID)
			fmt.Fprintf(out, "states: %d\nentries: %d\ntransitions: %d\n", q.States, q.Entries, q.Transitions)
			fmt.Fprintf(out, "values: min=%.3f mean=%.3f max=%.3f\n", q.Min, q.Mean, q.Max)
			if !entries {
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATE\tACTION\tRESULT\tVALUE")
			for _, e := range exp.State.QualityMatrix.Entries() {
				result := "-"
				if e.Result != nil {
					result = e.Result.Hash()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\n", e.Pair.State.Hash(), e.Pair.Action.String(), result, e.Value)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&entries, "entries", false, "Print every quality matrix entry")
	return cmd
}
