package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/covsupport/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entries(names ...string) []domain.LineageEntry {
	out := make([]domain.LineageEntry, len(names))
	for i, n := range names {
		out[i] = domain.LineageEntry{
			Name:        n,
			Parent:      domain.Parent(n),
			Depth:       domain.Depth(n),
			Description: "lineage " + n,
		}
	}
	return out
}

func TestRecordRun(t *testing.T) {
	s := newStore(t)

	run, err := s.RecordRun(domain.Run{LineagesCSV: "l.csv", NotesFile: "n.tsv", SummaryFile: "s.tsv", InputDigest: "abc"},
		entries("B", "B.1", "B.1_x"))
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, 3, run.LineageCount)

	latest, err := s.LatestRun()
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "abc", latest.InputDigest)

	// a second run replaces the lineage set
	second, err := s.RecordRun(domain.Run{InputDigest: "def"}, entries("A"))
	require.NoError(t, err)

	all, err := s.ListLineages("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Name)
	assert.Equal(t, second.ID, all[0].RunID)

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestLatestRun_Empty(t *testing.T) {
	_, err := newStore(t).LatestRun()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetLineage(t *testing.T) {
	s := newStore(t)
	in := entries("B", "B.1", "B.1.7", "B.10", "B.2")
	in[1].Retired = true
	in[1].SequenceCount = 4
	_, err := s.RecordRun(domain.Run{}, in)
	require.NoError(t, err)

	e, err := s.GetLineage("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"B.1", "B.10", "B.2"}, e.Children)
	assert.Equal(t, 1, e.Depth)
	assert.Empty(t, e.Parent)

	e, err = s.GetLineage("B.1")
	require.NoError(t, err)
	assert.True(t, e.Retired)
	assert.Equal(t, 4, e.SequenceCount)
	assert.Equal(t, "B", e.Parent)
	assert.Equal(t, []string{"B.1.7"}, e.Children)
	assert.False(t, e.UpdatedAt.IsZero())

	_, err = s.GetLineage("C")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListLineages_Prefix(t *testing.T) {
	s := newStore(t)
	_, err := s.RecordRun(domain.Run{}, entries("B", "B.1", "B.1.7", "B.10", "B1", "BX1"))
	require.NoError(t, err)

	got, err := s.ListLineages("B.1")
	require.NoError(t, err)
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"B.1", "B.1.7"}, names)
}

func TestSearchLineages(t *testing.T) {
	s := newStore(t)
	in := entries("A", "B.1.1.7")
	in[1].Description = "Alpha, UK origin"
	_, err := s.RecordRun(domain.Run{}, in)
	require.NoError(t, err)

	got, err := s.SearchLineages("uk")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B.1.1.7", got[0].Name)

	got, err = s.SearchLineages("1.1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
