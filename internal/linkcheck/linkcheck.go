// Package linkcheck verifies that the cross-links and figures referenced by
// generated lineage pages exist on disk.
package linkcheck

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/pbaille/covsupport/internal/site"
)

// Broken is one unresolved reference.
type Broken struct {
	Page   string `json:"page"`
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

func (b Broken) String() string {
	return fmt.Sprintf("%s: %s (%s)", b.Page, b.Ref, b.Reason)
}

var lineageHref = regexp.MustCompile(`^/lineages/lineage_(.+)\.html$`)

const imagePrefix = "../assets/images/"

// Check renders every lineage page under websiteDir, plus any extra pages
// such as the descriptions index, and reports references that do not
// resolve. Results are sorted by page then reference.
func Check(websiteDir string, extra ...string) ([]Broken, error) {
	pages, err := filepath.Glob(filepath.Join(site.LineagesDir(websiteDir), "lineage_*.md"))
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	pages = append(pages, extra...)

	var broken []Broken
	for _, page := range pages {
		found, err := checkPage(websiteDir, page)
		if err != nil {
			return nil, err
		}
		broken = append(broken, found...)
	}

	slices.SortFunc(broken, func(a, b Broken) int {
		if c := strings.Compare(a.Page, b.Page); c != 0 {
			return c
		}
		return strings.Compare(a.Ref, b.Ref)
	})
	return broken, nil
}

func checkPage(websiteDir, page string) ([]Broken, error) {
	src, err := os.ReadFile(page)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	rendered, err := site.RenderHTML(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", page, err)
	}
	doc, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page, err)
	}

	name := filepath.Base(page)
	var broken []Broken
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if b, ok := checkLink(websiteDir, attr(n, "href")); !ok {
					b.Page = name
					broken = append(broken, b)
				}
			case "img":
				if b, ok := checkImage(websiteDir, attr(n, "src")); !ok {
					b.Page = name
					broken = append(broken, b)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return broken, nil
}

func checkLink(websiteDir, href string) (Broken, bool) {
	m := lineageHref.FindStringSubmatch(href)
	if m == nil {
		return Broken{}, true
	}
	if _, err := os.Stat(site.PagePath(websiteDir, m[1])); err != nil {
		return Broken{Ref: href, Reason: "no page for lineage " + m[1]}, false
	}
	return Broken{}, true
}

func checkImage(websiteDir, src string) (Broken, bool) {
	rel, ok := strings.CutPrefix(src, imagePrefix)
	if !ok {
		return Broken{}, true
	}
	if _, err := os.Stat(filepath.Join(site.ImagesDir(websiteDir), filepath.FromSlash(rel))); err != nil {
		return Broken{Ref: src, Reason: "missing figure"}, false
	}
	return Broken{}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
