package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prime-cvd-risk/internal/app"
	"github.com/prime-cvd-risk/internal/service"
	"github.com/prime-cvd-risk/internal/therapystore"
)

func newCatalogCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the therapy catalog store configured under database",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "seed",
			Short: "Store the built-in therapy classes missing from the catalog store",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withStore(cmd, func(store therapystore.Store) error {
					imported, skipped, err := therapystore.Seed(cmd.Context(), store, service.DefaultTherapyClasses())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "seeded %d therapy classes (%d already present)\n", imported, skipped)
					return nil
				})
			},
		},
		newCatalogExportCmd(c),
		&cobra.Command{
			Use:   "import FILE",
			Short: "Import therapy classes from a JSON or YAML catalog file",
			Long:  "Import therapy classes from a JSON or YAML catalog file. Classes whose ID is already stored are skipped.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				classes, err := therapystore.LoadFile(args[0])
				if err != nil {
					return err
				}
				return c.withStore(cmd, func(store therapystore.Store) error {
					imported, skipped, err := therapystore.Seed(cmd.Context(), store, classes)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "imported %d therapy classes (%d skipped)\n", imported, skipped)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Remove a therapy class from the catalog store",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withStore(cmd, func(store therapystore.Store) error {
					if err := store.Delete(cmd.Context(), args[0]); err != nil {
						return fmt.Errorf("delete %s: %w", args[0], err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				})
			},
		},
	)
	return cmd
}

func newCatalogExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog store as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			return c.withStore(cmd, func(store therapystore.Store) error {
				if output == "" {
					return store.ExportJSON(cmd.Context(), cmd.OutOrStdout())
				}
				classes, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if err := therapystore.WriteFile(output, classes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d therapy classes to %s\n", len(classes), output)
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "write to a .json, .yaml or .yml file instead of stdout")
	return cmd
}

func (c *cli) withStore(cmd *cobra.Command, fn func(therapystore.Store) error) error {
	store, err := app.OpenStore(cmd.Context(), c.config.GetConfig().Database, c.logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
