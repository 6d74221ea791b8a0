package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/domain"
)

func newCompareCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank therapy regimens by projected 10-year risk",
		Long: `Rank therapy regimens by projected 10-year risk. Each --candidate names one regimen
as therapy IDs joined by "+". Without candidates every valid combination in the catalog is
ranked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			profile, err := patientFromFlags(cmd)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetStringArray("candidate")
			top, _ := cmd.Flags().GetInt("top")
			format, _ := cmd.Flags().GetString("format")

			var candidates []domain.TherapySelection
			for _, s := range raw {
				candidates = append(candidates, parseSelection(s))
			}

			engine, err := c.engine(ctx)
			if err != nil {
				return err
			}

			comparison, err := engine.Evaluator.CompareRegimens(ctx, profile, candidates)
			if err != nil {
				return err
			}
			if top > 0 && top < len(comparison.Outcomes) {
				comparison.Outcomes = comparison.Outcomes[:top]
			}

			if format == "json" {
				return writeJSON(cmd, comparison)
			}
			return writeComparison(cmd, comparison)
		},
	}

	addPatientFlags(cmd)
	f := cmd.Flags()
	f.StringArray("candidate", nil, `regimen to compare, e.g. "statin_high+ezetimibe"; repeatable`)
	f.Int("top", 10, "number of ranked regimens to show (0 = all)")
	f.String("format", "text", "output format: text or json")
	return cmd
}

func writeComparison(cmd *cobra.Command, comparison *domain.RegimenComparison) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tREGIMEN\tLDL-C\tRISK\tARR\tRRR")
	for _, outcome := range comparison.Outcomes {
		r := outcome.Result
		if !r.IsAvailable() {
			fmt.Fprintf(w, "%d\t%s\t-\tunavailable\t-\t-\n", outcome.Rank, outcome.Label)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.1f%%\t%.1f\t%.0f%%\n",
			outcome.Rank, outcome.Label, *r.AdjustedLDL, *r.AdjustedRisk,
			*r.AbsoluteReduction, 100**r.RelativeReduction)
	}
	return w.Flush()
}
