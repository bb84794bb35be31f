// Package site writes the lineage web pages, the per-lineage metadata
// dumps and the descriptions index from an aggregated hierarchy.
package site

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pbaille/covsupport/internal/domain"
	"github.com/pbaille/covsupport/internal/hierarchy"
)

// Options locates the inputs and outputs of a pages run.
type Options struct {
	AssignmentDir  string // metadata dumps, nested by lineage
	WebsiteDir     string // lineages/ and assets/images/ live here
	SummaryFigures string // <lineage>.svg sources
	Outfile        string // descriptions index
	HTMLFragments  bool
	Logger         zerolog.Logger
}

// Report summarises what a run wrote.
type Report struct {
	Lineages []string
	Retired  int
	Files    int
}

// Emitter writes pages for every active lineage of an Index.
type Emitter struct {
	opts Options
	ix   *hierarchy.Index
	xref *hierarchy.XRef
	log  zerolog.Logger
}

// New creates an Emitter over a fully aggregated index.
func New(ix *hierarchy.Index, xref *hierarchy.XRef, opts Options) *Emitter {
	return &Emitter{opts: opts, ix: ix, xref: xref, log: opts.Logger}
}

// LineagesDir is where lineage pages are written.
func LineagesDir(websiteDir string) string { return filepath.Join(websiteDir, "lineages") }

// ImagesDir is where summary figures are copied.
func ImagesDir(websiteDir string) string { return filepath.Join(websiteDir, "assets", "images") }

// FragmentsDir holds rendered HTML fragments. Jekyll skips underscore dirs.
func FragmentsDir(websiteDir string) string { return filepath.Join(websiteDir, "_fragments") }

// PagePath is the markdown page of a lineage.
func PagePath(websiteDir, name string) string {
	return filepath.Join(LineagesDir(websiteDir), "lineage_"+name+".md")
}

// MetadataPath places a lineage's dump under a directory per ancestor,
// e.g. B/B.1/B.1.1.7.metadata.csv.
func MetadataPath(assignmentDir, name string) string {
	chain := domain.Ancestors(name)
	parts := append([]string{assignmentDir}, chain[:len(chain)-1]...)
	parts = append(parts, name+".metadata.csv")
	return filepath.Join(parts...)
}

// Run emits every active lineage in sorted order, then the index. The
// first error stops the run; files already written stay in place.
func (e *Emitter) Run(ctx context.Context) (*Report, error) {
	for _, dir := range e.outputDirs() {
		if err := mkdirAll(dir); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	var entries []indexEntry
	for _, name := range e.ix.Active() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entry, files, err := e.emitLineage(name)
		if err != nil {
			return report, fmt.Errorf("lineage %s: %w", name, err)
		}
		entries = append(entries, entry)
		report.Lineages = append(report.Lineages, name)
		report.Files += files
		if entry.Retired {
			report.Retired++
		}
	}

	index, err := renderDescriptions(entries)
	if err != nil {
		return report, err
	}
	if err := writeFile(e.opts.Outfile, index); err != nil {
		return report, err
	}
	report.Files++

	e.log.Info().
		Int("lineages", len(report.Lineages)).
		Int("retired", report.Retired).
		Int("files", report.Files).
		Msg("pages written")
	return report, nil
}

func (e *Emitter) outputDirs() []string {
	dirs := []string{
		e.opts.AssignmentDir,
		LineagesDir(e.opts.WebsiteDir),
		ImagesDir(e.opts.WebsiteDir),
		filepath.Dir(e.opts.Outfile),
	}
	if e.opts.HTMLFragments {
		dirs = append(dirs, FragmentsDir(e.opts.WebsiteDir))
	}
	return dirs
}

func (e *Emitter) emitLineage(name string) (indexEntry, int, error) {
	e.log.Debug().Str("lineage", name).Msg("emitting")

	page, err := buildPage(name, e.ix, e.xref)
	if err != nil {
		return indexEntry{}, 0, err
	}
	link, err := e.xref.Link(name)
	if err != nil {
		return indexEntry{}, 0, err
	}
	own, _ := e.ix.Note(name)
	entry := indexEntry{Link: link, Description: own.Description, Retired: own.Retired}

	metaPath := MetadataPath(e.opts.AssignmentDir, name)
	if err := mkdirAll(filepath.Dir(metaPath)); err != nil {
		return indexEntry{}, 0, err
	}
	if err := writeFile(metaPath, e.metadataDump(name)); err != nil {
		return indexEntry{}, 0, err
	}

	src := filepath.Join(e.opts.SummaryFigures, name+".svg")
	dst := filepath.Join(ImagesDir(e.opts.WebsiteDir), name+".svg")
	if err := copyFile(src, dst); err != nil {
		return indexEntry{}, 0, err
	}

	body, err := page.render()
	if err != nil {
		return indexEntry{}, 0, err
	}
	if err := writeFile(PagePath(e.opts.WebsiteDir, name), body); err != nil {
		return indexEntry{}, 0, err
	}
	files := 3

	if e.opts.HTMLFragments {
		frag, err := RenderHTML(body)
		if err != nil {
			return indexEntry{}, 0, err
		}
		path := filepath.Join(FragmentsDir(e.opts.WebsiteDir), "lineage_"+name+".html")
		if err := writeFile(path, frag); err != nil {
			return indexEntry{}, 0, err
		}
		files++
	}
	return entry, files, nil
}

func (e *Emitter) metadataDump(name string) []byte {
	var sb strings.Builder
	sb.WriteString(hierarchy.MetadataHeader())
	sb.WriteByte('\n')
	for _, rec := range e.ix.Sequences(name) {
		sb.WriteString(rec.Raw)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
