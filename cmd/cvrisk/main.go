package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/app"
	"github.com/prime-cvd-risk/internal/config"
)

// cli carries the state shared by every subcommand once the root pre-run has loaded it.
type cli struct {
	configFile string
	logLevel   string

	config *config.Manager
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "cvrisk",
		Short: "Post-MI recurrent cardiovascular risk under lipid-lowering therapy",
		Long: `Estimates the 10-year risk of recurrent atherosclerotic events after myocardial
infarction, projects LDL-C under a selection of lipid-lowering therapies and reports the
absolute and relative risk reduction with ranked recommendations.

Examples:
  # Evaluate a patient on a high-intensity statin and ezetimibe
  cvrisk evaluate --age 65 --sex male --sbp 140 --tc 5.0 --hdl 1.0 --ldl 3.5 \
    --egfr 80 --crp 2.0 --cad --therapy statin_high --therapy ezetimibe

  # Rank every valid regimen for a patient read from a file
  cvrisk compare --patient patient.json --top 5

  # Seed the configured catalog store and export it as YAML
  cvrisk catalog seed && cvrisk catalog export --output catalog.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManagerWithFile(c.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := manager.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			c.config = manager

			logging := manager.GetConfig().Logging
			if c.logLevel != "" {
				logging.Level = c.logLevel
			}
			c.logger = config.NewLogger(logging)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/prime-cvd-risk/config.yaml)")
	pf.StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newEvaluateCmd(c),
		newCompareCmd(c),
		newTherapiesCmd(c),
		newCatalogCmd(c),
		newMigrateCmd(c),
		newMCPCmd(c),
	)
	return root
}

func (c *cli) engine(ctx context.Context) (*app.Engine, error) {
	return app.Build(ctx, c.config.GetConfig(), c.logger)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
