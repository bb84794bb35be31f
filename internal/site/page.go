package site

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/pbaille/covsupport/internal/domain"
	"github.com/pbaille/covsupport/internal/hierarchy"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("site").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/*.tmpl"))

// frontMatter is the Jekyll header of a generated page.
type frontMatter struct {
	Layout string `yaml:"layout"`
	Title  string `yaml:"title"`
	Image  string `yaml:"image,omitempty"`
}

func (fm frontMatter) render() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode front matter: %w", err)
	}
	return "---\n" + buf.String() + "---", nil
}

type summaryRow struct {
	Link    string
	Columns []string
}

type noteRow struct {
	Link        string
	Description string
}

// lineagePage is everything a lineage page shows, with every link already
// resolved.
type lineagePage struct {
	FrontMatter  string
	Name         string
	Retired      bool
	Parent       string
	ParentTarget string
	Summaries    []summaryRow
	Notes        []noteRow
}

type indexEntry struct {
	Link        string
	Description string
	Retired     bool
}

type descriptionsPage struct {
	FrontMatter string
	Entries     []indexEntry
}

// buildPage resolves every cross-reference the page of name needs. It
// fails before anything is written when one is missing.
func buildPage(name string, ix *hierarchy.Index, xref *hierarchy.XRef) (*lineagePage, error) {
	own, ok := ix.Note(name)
	if !ok {
		return nil, &domain.MissingRecordError{Lineage: name, Context: "lineage page"}
	}

	fm, err := frontMatter{Layout: "page", Title: "Lineage " + name}.render()
	if err != nil {
		return nil, err
	}
	p := &lineagePage{FrontMatter: fm, Name: name, Retired: own.Retired}

	if parent := domain.Parent(name); parent != "" {
		target, err := xref.Target(parent)
		if err != nil {
			return nil, &domain.MissingRecordError{Lineage: parent, Context: "parent of " + name}
		}
		p.Parent, p.ParentTarget = parent, target
	}

	for _, s := range ix.Summaries(name) {
		link, err := xref.Link(s.Lineage)
		if err != nil {
			return nil, &domain.MissingRecordError{Lineage: s.Lineage, Context: "summary table of " + name}
		}
		p.Summaries = append(p.Summaries, summaryRow{Link: link, Columns: s.Columns()})
	}

	for _, n := range ix.Notes(name) {
		link, err := xref.Link(n.Lineage)
		if err != nil {
			return nil, &domain.MissingRecordError{Lineage: n.Lineage, Context: "descriptions table of " + name}
		}
		p.Notes = append(p.Notes, noteRow{Link: link, Description: n.Description})
	}
	return p, nil
}

func (p *lineagePage) render() ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "lineage.md.tmpl", p); err != nil {
		return nil, fmt.Errorf("render page %s: %w", p.Name, err)
	}
	return buf.Bytes(), nil
}

func renderDescriptions(entries []indexEntry) ([]byte, error) {
	fm, err := frontMatter{
		Layout: "page",
		Title:  "Lineage descriptions",
		Image:  "assets/images/global_lineages_tree.png",
	}.render()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	page := descriptionsPage{FrontMatter: fm, Entries: entries}
	if err := templates.ExecuteTemplate(&buf, "descriptions.md.tmpl", page); err != nil {
		return nil, fmt.Errorf("render descriptions: %w", err)
	}
	return buf.Bytes(), nil
}
