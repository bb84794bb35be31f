// Package hierarchy rolls flat lineage tables up into every ancestor of
// each record's dotted lineage name.
package hierarchy

import (
	"slices"
	"strings"

	"github.com/pbaille/covsupport/internal/domain"
)

// Index maps every lineage key to the records of that lineage and all of
// its descendants. Lists are ordered by lineage name, ties in source order.
// An Index is read-only once Aggregate returns it.
type Index struct {
	sequences map[string][]domain.SequenceRecord
	notes     map[string][]domain.Note
	summaries map[string][]domain.Summary
	own       map[string]domain.Note
	active    []string
}

// Aggregate files every record under each ancestor prefix of its lineage
// and builds the cross-reference table from the notes.
func Aggregate(seqs []domain.SequenceRecord, notes []domain.Note, sums []domain.Summary) (*Index, *XRef) {
	ix := &Index{
		sequences: make(map[string][]domain.SequenceRecord),
		notes:     make(map[string][]domain.Note),
		summaries: make(map[string][]domain.Summary),
		own:       make(map[string]domain.Note),
	}
	xref := newXRef()

	for _, s := range seqs {
		for _, key := range domain.Ancestors(s.Lineage) {
			ix.sequences[key] = append(ix.sequences[key], s)
		}
	}
	for _, n := range notes {
		// last write wins for the single-entry maps
		ix.own[n.Lineage] = n
		xref.add(n.Lineage)
		for _, key := range domain.Ancestors(n.Lineage) {
			ix.notes[key] = append(ix.notes[key], n)
		}
	}
	for _, s := range sums {
		for _, key := range domain.Ancestors(s.Lineage) {
			ix.summaries[key] = append(ix.summaries[key], s)
		}
	}

	for _, list := range ix.sequences {
		slices.SortStableFunc(list, func(a, b domain.SequenceRecord) int { return strings.Compare(a.Lineage, b.Lineage) })
	}
	for _, list := range ix.notes {
		slices.SortStableFunc(list, func(a, b domain.Note) int { return strings.Compare(a.Lineage, b.Lineage) })
	}
	for _, list := range ix.summaries {
		slices.SortStableFunc(list, func(a, b domain.Summary) int { return strings.Compare(a.Lineage, b.Lineage) })
	}

	ix.active = make([]string, 0, len(ix.own))
	for name := range ix.own {
		ix.active = append(ix.active, name)
	}
	slices.Sort(ix.active)

	return ix, xref
}

// Sequences returns the sequence records rolled up under key.
func (ix *Index) Sequences(key string) []domain.SequenceRecord { return ix.sequences[key] }

// Notes returns the notes rolled up under key.
func (ix *Index) Notes(key string) []domain.Note { return ix.notes[key] }

// Summaries returns the summary rows rolled up under key.
func (ix *Index) Summaries(key string) []domain.Summary { return ix.summaries[key] }

// Note returns the lineage's own note, not its descendants'.
func (ix *Index) Note(name string) (domain.Note, bool) {
	n, ok := ix.own[name]
	return n, ok
}

// Active lists, sorted, every lineage that has a note and therefore a page.
func (ix *Index) Active() []string {
	return slices.Clone(ix.active)
}

// Entry summarises one lineage for the catalog.
func (ix *Index) Entry(name string) domain.LineageEntry {
	own := ix.own[name]
	return domain.LineageEntry{
		Name:          name,
		Parent:        domain.Parent(name),
		Depth:         domain.Depth(name),
		Retired:       own.Retired,
		Description:   own.Description,
		SequenceCount: len(ix.sequences[name]),
		SummaryCount:  len(ix.summaries[name]),
	}
}

// Keys returns every key that has at least one rolled-up sequence, sorted.
func (ix *Index) Keys() []string {
	keys := make([]string, 0, len(ix.sequences))
	for k := range ix.sequences {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
