package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pbaille/covsupport/internal/domain"
)

func (a *app) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the lineage catalog",
	}

	cmd.AddCommand(a.catalogListCmd())
	cmd.AddCommand(a.catalogShowCmd())
	cmd.AddCommand(a.catalogSearchCmd())
	cmd.AddCommand(a.catalogRunsCmd())
	return cmd
}

func (a *app) catalogListCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalogued lineages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prefix != "" {
				if err := domain.ValidateName(prefix); err != nil {
					return err
				}
			}

			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			lineages, err := s.ListLineages(prefix)
			if err != nil {
				return err
			}

			if len(lineages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No lineages yet. Use 'covsupport pages' to build the catalog.")
				return nil
			}

			printLineages(cmd.OutOrStdout(), lineages)
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "only this lineage and its descendants")
	return cmd
}

func (a *app) catalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [lineage]",
		Short: "Show lineage details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.GetLineage(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Lineage:   %s\n", e.Name)
			if e.Parent != "" {
				fmt.Fprintf(out, "Parent:    %s\n", e.Parent)
			}
			fmt.Fprintf(out, "Retired:   %t\n", e.Retired)
			fmt.Fprintf(out, "Sequences: %d\n", e.SequenceCount)
			fmt.Fprintf(out, "Summaries: %d\n", e.SummaryCount)
			fmt.Fprintf(out, "Run:       %s (%s)\n", e.RunID[:8], e.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Description:\n%s\n", e.Description)

			if len(e.Children) > 0 {
				fmt.Fprintf(out, "\nChildren:\n")
				for _, c := range e.Children {
					fmt.Fprintf(out, "  - %s\n", c)
				}
			}

			return nil
		},
	}
}

func (a *app) catalogSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search lineage names and descriptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			lineages, err := s.SearchLineages(args[0])
			if err != nil {
				return err
			}

			if len(lineages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching lineages found.")
				return nil
			}

			printLineages(cmd.OutOrStdout(), lineages)
			return nil
		},
	}
}

func (a *app) catalogRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pages runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %4d lineages  %s\n",
					r.ID[:8], r.CreatedAt.Format("2006-01-02 15:04:05"), r.LineageCount, r.InputDigest[:min(12, len(r.InputDigest))])
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func printLineages(w io.Writer, lineages []domain.LineageEntry) {
	for _, e := range lineages {
		marker := " "
		if e.Retired {
			marker = domain.RetiredMarker
		}
		fmt.Fprintf(w, "%s%-16s %6d  %s\n", marker, e.Name, e.SequenceCount, truncate(e.Description, 60))
	}
}
