package hierarchy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/covsupport/internal/domain"
)

func taxa(recs []domain.SequenceRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Taxon
	}
	return out
}

func TestParseSequences_RollUp(t *testing.T) {
	in := "taxon,lineage\nseq1,A\nseq2,A.1\nseq3,A.1.2\n"
	seqs, err := ParseSequences(strings.NewReader(in), "lineages.csv")
	require.NoError(t, err)
	require.Len(t, seqs, 3)

	ix, _ := Aggregate(seqs, nil, nil)
	assert.Equal(t, []string{"seq1", "seq2", "seq3"}, taxa(ix.Sequences("A")))
	assert.Equal(t, []string{"seq2", "seq3"}, taxa(ix.Sequences("A.1")))
	assert.Equal(t, []string{"seq3"}, taxa(ix.Sequences("A.1.2")))
	assert.Empty(t, ix.Sequences("A.2"))
	assert.Equal(t, []string{"A", "A.1", "A.1.2"}, ix.Keys())
}

func TestAggregate_ExactlyAncestorKeys(t *testing.T) {
	rec := domain.SequenceRecord{Taxon: "s", Lineage: "B.1.1.7"}
	ix, _ := Aggregate([]domain.SequenceRecord{rec}, nil, nil)

	assert.Equal(t, []string{"B", "B.1", "B.1.1", "B.1.1.7"}, ix.Keys())
	for _, k := range ix.Keys() {
		assert.Len(t, ix.Sequences(k), 1, k)
	}
}

func TestAggregate_SortedLexicographically(t *testing.T) {
	seqs := []domain.SequenceRecord{
		{Taxon: "s1", Lineage: "B.2"},
		{Taxon: "s2", Lineage: "B.10"},
		{Taxon: "s3", Lineage: "B.2"},
		{Taxon: "s4", Lineage: "B"},
	}
	ix, _ := Aggregate(seqs, nil, nil)

	// B.10 sorts before B.2; equal names keep source order
	assert.Equal(t, []string{"s4", "s2", "s1", "s3"}, taxa(ix.Sequences("B")))
}

func TestParseSequences_MetadataLayout(t *testing.T) {
	in := "GISAID ID,name,country,travel history,sample date,epiweek,lineage,representative\n" +
		"EPI_1,England/X/2020,UK,,2020-03-01,9,B.1,1\n"
	seqs, err := ParseSequences(strings.NewReader(in), "meta.csv")
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "EPI_1", seqs[0].Taxon)
	assert.Equal(t, "B.1", seqs[0].Lineage)
	assert.Equal(t, "EPI_1,England/X/2020,UK,,2020-03-01,9,B.1,1", seqs[0].Raw)
	assert.Equal(t, 2, seqs[0].Line)
}

func TestParseSequences_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing delimiter", "taxon,lineage\nseq1\n", 2},
		{"wrong field count", "seq1,A,extra\n", 1},
		{"empty lineage", "seq1,A\nseq2,\n", 2},
		{"malformed lineage", "seq1,B..1\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSequences(strings.NewReader(tt.in), "lineages.csv")
			var pe *domain.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, "lineages.csv", pe.Source)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestParseNotes_Retired(t *testing.T) {
	in := "lineage\tdescription\nA\tRoot A\n*A.1\tReassigned, low support\n"
	notes, err := ParseNotes(strings.NewReader(in), "notes.tsv")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.False(t, notes[0].Retired)
	assert.Equal(t, "A.1", notes[1].Lineage)
	assert.True(t, notes[1].Retired)

	ix, xref := Aggregate(nil, notes, nil)
	assert.True(t, xref.Has("A.1"))
	assert.False(t, xref.Has("*A.1"))
	own, ok := ix.Note("A.1")
	require.True(t, ok)
	assert.True(t, own.Retired)
	assert.Equal(t, []string{"A", "A.1"}, ix.Active())
}

func TestParseNotes_CRLFAndBlankLines(t *testing.T) {
	in := "Lineage\tDescription\r\nB\tRoot B\r\n\r\nB.1\tEurope\r\n"
	notes, err := ParseNotes(strings.NewReader(in), "notes.tsv")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Europe", notes[1].Description)
	assert.Equal(t, 4, notes[1].Line)
}

func TestParseNotes_FieldCount(t *testing.T) {
	_, err := ParseNotes(strings.NewReader("A description without tab\n"), "notes.tsv")
	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, err.Error(), "notes.tsv:1:")
}

func TestAggregate_DuplicateNotes(t *testing.T) {
	notes := []domain.Note{
		{Lineage: "B.1", Description: "first"},
		{Lineage: "B.1", Description: "second", Retired: true},
	}
	ix, xref := Aggregate(nil, notes, nil)

	assert.Len(t, ix.Notes("B.1"), 2)
	assert.Len(t, ix.Notes("B"), 2)
	own, _ := ix.Note("B.1")
	assert.Equal(t, "second", own.Description)
	assert.True(t, own.Retired)
	assert.Equal(t, []string{"B.1"}, ix.Active())
	assert.Equal(t, 1, xref.Len())
}

func TestParseSummaries(t *testing.T) {
	in := "Lineage\tMost common countries\tDate range\tNumber of taxa\tDays since last sampling\tKnown travel\tRecall\n" +
		"[B.1.1.7](x)\tUK\t2020-09-20 to 2021-01-10\t1200\t3\tno\t0.98\n"
	sums, err := ParseSummaries(strings.NewReader(in), "summary.tsv")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "B.1.1.7", sums[0].Lineage)
	assert.Equal(t, []string{"UK", "2020-09-20 to 2021-01-10", "1200", "3", "no", "0.98"}, sums[0].Columns())

	ix, _ := Aggregate(nil, nil, sums)
	assert.Len(t, ix.Summaries("B"), 1)
	assert.Len(t, ix.Summaries("B.1.1"), 1)
	assert.Empty(t, ix.Summaries("B.1.1.7.1"))
}

func TestParseSummaries_FieldCount(t *testing.T) {
	_, err := ParseSummaries(strings.NewReader("[A]\tUK\n"), "summary.tsv")
	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestXRef(t *testing.T) {
	_, xref := Aggregate(nil, []domain.Note{{Lineage: "B.1"}}, nil)

	target, err := xref.Target("B.1")
	require.NoError(t, err)
	assert.Equal(t, "{{ 'lineages/lineage_B.1.html' | absolute_url }}", target)

	link, err := xref.Link("B.1")
	require.NoError(t, err)
	assert.Equal(t, `<a href="{{ 'lineages/lineage_B.1.html' | absolute_url }}">B.1</a>`, link)

	_, err = xref.Link("B.2")
	var missing *domain.MissingRecordError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "B.2", missing.Lineage)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}
	in := Inputs{
		LineagesCSV: write("lineages.csv", "taxon,lineage\nseq1,A\n"),
		Notes:       write("notes.tsv", "lineage\tdescription\nA\troot\n"),
		Summary:     write("summary.tsv", "[A]\tUK\td\t1\t2\tno\t1.0\n"),
	}

	tables, err := Load(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, tables.Sequences, 1)
	assert.Len(t, tables.Notes, 1)
	assert.Len(t, tables.Summaries, 1)
	assert.Len(t, tables.Digest, 64)

	again, err := Load(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, tables.Digest, again.Digest)

	in.Notes = write("notes2.tsv", "lineage\tdescription\nA\troot lineage\n")
	changed, err := Load(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, tables.Digest, changed.Digest)

	in.Summary = filepath.Join(dir, "absent.tsv")
	_, err = Load(context.Background(), in)
	var pathErr *domain.PathError
	assert.True(t, errors.As(err, &pathErr))

	in.Summary = write("bad.tsv", "[A]\tUK\n")
	_, err = Load(context.Background(), in)
	var pe *domain.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestIndex_Entry(t *testing.T) {
	seqs := []domain.SequenceRecord{{Taxon: "s1", Lineage: "B.1"}, {Taxon: "s2", Lineage: "B.1.7"}}
	notes := []domain.Note{{Lineage: "B.1", Description: "Europe", Retired: true}}
	sums := []domain.Summary{{Lineage: "B.1"}}
	ix, _ := Aggregate(seqs, notes, sums)

	e := ix.Entry("B.1")
	assert.Equal(t, "B", e.Parent)
	assert.Equal(t, 2, e.Depth)
	assert.True(t, e.Retired)
	assert.Equal(t, "Europe", e.Description)
	assert.Equal(t, 2, e.SequenceCount)
	assert.Equal(t, 1, e.SummaryCount)
}
