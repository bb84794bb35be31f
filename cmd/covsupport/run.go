package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbaille/covsupport/internal/pipeline"
)

func (a *app) runCmd() *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pangolin-prep or update-web snakemake workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workflow-dir") {
				opts.WorkflowDir = a.cfg.Workflow.Dir
			}
			if !cmd.Flags().Changed("threads") {
				opts.Threads = a.cfg.Workflow.Threads
			}
			opts.Engine = a.cfg.Workflow.Engine

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			opts.Cwd = cwd

			runner := pipeline.NewRunner(pipeline.ExecRunner{
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			}, a.log)
			plan, err := runner.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Finished %s (config %s)\n", plan.Mode, plan.ConfigFile)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.PangolinPrep, "pangolin-prep", false, "prepare pangolin package data")
	flags.BoolVar(&opts.UpdateWeb, "update-web", false, "update lineage website data")
	flags.StringVarP(&opts.DataDir, "data", "d", "", "data directory")
	flags.StringVarP(&opts.Outdir, "outdir", "o", "", "output directory (default: current directory)")
	flags.IntVar(&opts.NumTaxa, "num-taxa", 5, "representative taxa per lineage")
	flags.StringVar(&opts.AssignmentDir, "assignment-dir", "", "lineage assignment directory")
	flags.StringVar(&opts.WebsiteDir, "website-dir", "", "website root")
	flags.StringVar(&opts.Metadata, "updated-metadata", "", "updated metadata CSV")
	flags.StringVar(&opts.Descriptions, "lineage-descriptions", "", "lineage descriptions TSV")
	flags.StringVar(&opts.WorkflowDir, "workflow-dir", "", "directory holding the snakefiles")
	flags.BoolVarP(&opts.DryRun, "dry-run", "n", false, "show the jobs without running them")
	flags.IntVarP(&opts.Threads, "threads", "t", 1, "cores for snakemake")
	flags.BoolVar(&opts.Verbose, "verbose", false, "print snakemake output")

	return cmd
}
