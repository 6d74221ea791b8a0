package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTherapiesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "therapies",
		Short: "List the therapy catalog in potency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tREDUCTION\tRULE\tGROUP")
			for _, class := range engine.Catalog.ListTherapies() {
				group := class.ExclusiveGroup
				if group == "" {
					group = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
					class.ID, class.Name, class.Category, 100*class.Reduction, class.Combination, group)
			}
			return w.Flush()
		},
	}
}
