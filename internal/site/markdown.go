package site

import (
	"bytes"
	"fmt"
	"regexp"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// The pages mix raw HTML with GFM tables, so raw HTML is passed through.
var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		)
	})
	return markdown
}

// StripFrontMatter returns the page body after a leading "---" block.
// Pages without front matter are returned unchanged.
func StripFrontMatter(page []byte) []byte {
	const fence = "---\n"
	if !bytes.HasPrefix(page, []byte(fence)) {
		return page
	}
	rest := page[len(fence):]
	end := bytes.Index(rest, []byte("\n"+fence))
	if end < 0 {
		if bytes.HasSuffix(rest, []byte("\n---")) {
			return nil
		}
		return page
	}
	return rest[end+len(fence)+1:]
}

var absoluteURL = regexp.MustCompile(`\{\{\s*'([^']*)'\s*\|\s*absolute_url\s*\}\}`)

// ExpandLinks replaces the liquid absolute_url tags of a page with
// root-relative paths, as Jekyll does before markdown conversion. The
// pipe inside the tag would otherwise split table cells.
func ExpandLinks(page []byte) []byte {
	return absoluteURL.ReplaceAll(page, []byte("/$1"))
}

// RenderHTML converts a generated page to an HTML fragment.
func RenderHTML(page []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := getMarkdown().Convert(ExpandLinks(StripFrontMatter(page)), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
