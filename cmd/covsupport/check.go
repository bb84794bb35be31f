package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pbaille/covsupport/internal/linkcheck"
)

func (a *app) checkCmd() *cobra.Command {
	var websiteDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check links and figures of the generated lineage pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			broken, err := linkcheck.Check(websiteDir)
			if err != nil {
				return err
			}

			if len(broken) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No broken references.")
				return nil
			}
			for _, b := range broken {
				fmt.Fprintln(cmd.OutOrStdout(), b.String())
			}
			return fmt.Errorf("%d broken references", len(broken))
		},
	}

	cmd.Flags().StringVar(&websiteDir, "website-dir", "", "website root to check")
	cmd.MarkFlagRequired("website-dir")
	return cmd
}
