package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbaille/covsupport/internal/domain"
	"github.com/pbaille/covsupport/internal/hierarchy"
	"github.com/pbaille/covsupport/internal/metrics"
	"github.com/pbaille/covsupport/internal/site"
	"github.com/pbaille/covsupport/internal/source"
)

type pagesFlags struct {
	assignmentDir  string
	websiteDir     string
	lineagesCSV    string
	notes          string
	summary        string
	summaryFigures string
	outfile        string
	html           bool
	noCatalog      bool
	metricsFile    string
}

func (a *app) pagesCmd() *cobra.Command {
	var f pagesFlags

	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Write lineage pages, metadata dumps and the descriptions index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPages(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.assignmentDir, "assignment-dir", "", "directory for per-lineage metadata dumps")
	flags.StringVar(&f.websiteDir, "website-dir", "", "website root (lineages/ and assets/images/)")
	flags.StringVarP(&f.lineagesCSV, "lineages-csv", "i", "", "taxon to lineage assignments (path or URL)")
	flags.StringVarP(&f.notes, "lineages-notes", "n", "", "lineage descriptions TSV (path or URL)")
	flags.StringVarP(&f.summary, "summary-file", "s", "", "lineage summary TSV (path or URL)")
	flags.StringVar(&f.summaryFigures, "summary-figures", "", "directory of <lineage>.svg figures")
	flags.StringVarP(&f.outfile, "outfile", "o", "", "descriptions index to write")
	flags.BoolVar(&f.html, "html", false, "also render HTML fragments")
	flags.BoolVar(&f.noCatalog, "no-catalog", false, "do not record the run in the catalog")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics in textfile format")

	for _, name := range []string{"assignment-dir", "website-dir", "lineages-csv", "lineages-notes", "summary-file", "summary-figures", "outfile"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) runPages(cmd *cobra.Command, f pagesFlags) error {
	ctx := cmd.Context()
	start := time.Now()

	in := hierarchy.Inputs{LineagesCSV: f.lineagesCSV, Notes: f.notes, Summary: f.summary}
	for _, loc := range []string{in.LineagesCSV, in.Notes, in.Summary, f.summaryFigures} {
		if !source.Exists(loc) {
			return &domain.PathError{Op: "find input", Path: loc, Err: os.ErrNotExist}
		}
	}

	tables, err := hierarchy.Load(ctx, in)
	if err != nil {
		return err
	}
	a.log.Debug().
		Int("sequences", len(tables.Sequences)).
		Int("notes", len(tables.Notes)).
		Int("summaries", len(tables.Summaries)).
		Str("digest", tables.Digest).
		Msg("inputs loaded")

	m := metrics.NewRun()
	m.RecordsParsed.WithLabelValues(metrics.InputSequences).Add(float64(len(tables.Sequences)))
	m.RecordsParsed.WithLabelValues(metrics.InputNotes).Add(float64(len(tables.Notes)))
	m.RecordsParsed.WithLabelValues(metrics.InputSummaries).Add(float64(len(tables.Summaries)))

	ix, xref := hierarchy.Aggregate(tables.Sequences, tables.Notes, tables.Summaries)
	emitter := site.New(ix, xref, site.Options{
		AssignmentDir:  f.assignmentDir,
		WebsiteDir:     f.websiteDir,
		SummaryFigures: f.summaryFigures,
		Outfile:        f.outfile,
		HTMLFragments:  f.html,
		Logger:         a.log,
	})
	report, err := emitter.Run(ctx)
	if err != nil {
		return err
	}

	m.LineagesEmitted.Add(float64(len(report.Lineages)))
	m.LineagesRetired.Add(float64(report.Retired))
	m.FilesWritten.Add(float64(report.Files))
	m.Finish(start, time.Now())
	if f.metricsFile != "" {
		if err := m.WriteFile(f.metricsFile); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d lineage pages (%d retired), %d files\n",
		len(report.Lineages), report.Retired, report.Files)

	if f.noCatalog {
		return nil
	}

	s, err := a.getStore()
	if err != nil {
		return err
	}
	defer s.Close()

	entries := make([]domain.LineageEntry, 0, len(report.Lineages))
	for _, name := range report.Lineages {
		entries = append(entries, ix.Entry(name))
	}
	run, err := s.RecordRun(domain.Run{
		LineagesCSV: in.LineagesCSV,
		NotesFile:   in.Notes,
		SummaryFile: in.Summary,
		InputDigest: tables.Digest,
	}, entries)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded run %s\n", run.ID[:8])
	return nil
}
