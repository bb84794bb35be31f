package hierarchy

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/covsupport/internal/domain"
)

// headerSentinel marks the header row of every input table. Summary files
// spell it "Lineage", the others "lineage".
const headerSentinel = "lineage"

const maxLineBytes = 1 << 20

// metadataColumns is the layout of the per-lineage metadata dump. The
// lineages CSV may use it in place of the two-column taxon,lineage form.
var metadataColumns = []string{
	"GISAID ID", "name", "country", "travel history",
	"sample date", "epiweek", "lineage", "representative",
}

const metadataLineageColumn = 6

func isHeader(name string) bool {
	return strings.EqualFold(name, headerSentinel)
}

// eachLine calls fn for every non-blank line with its 1-based number.
// Trailing CR and LF are removed.
func eachLine(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ParseSequences reads the lineages CSV. Rows are either taxon,lineage or
// the eight-column metadata layout.
func ParseSequences(r io.Reader, source string) ([]domain.SequenceRecord, error) {
	var out []domain.SequenceRecord
	err := eachLine(r, func(n int, line string) error {
		fields := strings.Split(line, ",")
		var taxon, lineage string
		switch len(fields) {
		case 2:
			taxon, lineage = fields[0], fields[1]
		case len(metadataColumns):
			taxon, lineage = fields[0], fields[metadataLineageColumn]
		default:
			return &domain.ParseError{Source: source, Line: n,
				Msg: fmt.Sprintf("expected 2 or %d comma-separated fields, got %d", len(metadataColumns), len(fields))}
		}
		if isHeader(lineage) {
			return nil
		}
		if err := domain.ValidateName(lineage); err != nil {
			return &domain.ParseError{Source: source, Line: n, Msg: err.Error()}
		}
		out = append(out, domain.SequenceRecord{
			Taxon:   taxon,
			Lineage: lineage,
			Fields:  fields,
			Raw:     line,
			Line:    n,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseNotes reads the lineage notes TSV. A leading '*' on the name marks
// a retired lineage and is removed.
func ParseNotes(r io.Reader, source string) ([]domain.Note, error) {
	var out []domain.Note
	err := eachLine(r, func(n int, line string) error {
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return &domain.ParseError{Source: source, Line: n,
				Msg: fmt.Sprintf("expected 2 tab-separated fields, got %d", len(fields))}
		}
		name, retired := domain.StripRetired(fields[0])
		if isHeader(name) {
			return nil
		}
		if err := domain.ValidateName(name); err != nil {
			return &domain.ParseError{Source: source, Line: n, Msg: err.Error()}
		}
		out = append(out, domain.Note{
			Lineage:     name,
			Description: fields[1],
			Retired:     retired,
			Line:        n,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseSummaries reads the lineage summary TSV whose first column is a
// bracketed name.
func ParseSummaries(r io.Reader, source string) ([]domain.Summary, error) {
	var out []domain.Summary
	err := eachLine(r, func(n int, line string) error {
		f := strings.Split(line, "\t")
		if len(f) != 7 {
			return &domain.ParseError{Source: source, Line: n,
				Msg: fmt.Sprintf("expected 7 tab-separated fields, got %d", len(f))}
		}
		name := domain.BracketName(f[0])
		if isHeader(name) {
			return nil
		}
		if err := domain.ValidateName(name); err != nil {
			return &domain.ParseError{Source: source, Line: n, Msg: err.Error()}
		}
		out = append(out, domain.Summary{
			Lineage:       name,
			Countries:     f[1],
			DateRange:     f[2],
			TaxaCount:     f[3],
			DaysSinceLast: f[4],
			KnownTravel:   f[5],
			Recall:        f[6],
			Line:          n,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MetadataHeader is the header row of every per-lineage metadata dump.
func MetadataHeader() string {
	return strings.Join(metadataColumns, ",")
}
