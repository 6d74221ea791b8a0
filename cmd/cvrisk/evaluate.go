package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/app"
	"github.com/prime-cvd-risk/internal/domain"
)

func newEvaluateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate baseline and treated 10-year risk for one patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := patientFromFlags(cmd)
			if err != nil {
				return err
			}
			therapies, _ := cmd.Flags().GetStringSlice("therapy")
			format, _ := cmd.Flags().GetString("format")

			engine, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}

			assessment, err := engine.Assess(profile, domain.NewTherapySelection(therapies...))
			if err != nil {
				return err
			}

			if format == "json" {
				return writeJSON(cmd, assessment)
			}
			writeAssessment(cmd.OutOrStdout(), assessment)
			return nil
		},
	}

	addPatientFlags(cmd)
	cmd.Flags().StringSlice("therapy", nil, "therapy class ID; repeat or comma-separate for combinations")
	cmd.Flags().String("format", "text", "output format: text or json")
	return cmd
}

func writeAssessment(w io.Writer, assessment *app.Assessment) {
	result := assessment.Result

	if result.IsAvailable() {
		fmt.Fprintf(w, "Therapy:        %s\n", result.Selection)
		fmt.Fprintf(w, "Baseline risk:  %.1f%% (%s)\n", *result.BaselineRisk, result.BaselineTier)
		fmt.Fprintf(w, "Treated risk:   %.1f%% (%s)\n", *result.AdjustedRisk, result.AdjustedTier)
		fmt.Fprintf(w, "Reduction:      %.1f points absolute, %.0f%% relative\n",
			*result.AbsoluteReduction, 100**result.RelativeReduction)
		fmt.Fprintf(w, "LDL-C:          %.2f -> %.2f mmol/L\n", result.BaselineLDL, *result.AdjustedLDL)
	} else {
		fmt.Fprintf(w, "Risk unavailable (%s)\n", result.Unavailable.Reason)
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))
	for i, rec := range assessment.Recommendations {
		fmt.Fprintf(w, "%d. %s\n", i+1, rec)
	}
}
