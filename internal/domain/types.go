package domain

import "time"

// SequenceRecord is one genome sample read from the lineages CSV
type SequenceRecord struct {
	Taxon   string   `json:"taxon"`
	Lineage string   `json:"lineage"`
	Fields  []string `json:"fields"` // every column, in source order
	Raw     string   `json:"-"`      // source line, written back verbatim
	Line    int      `json:"line"`
}

// Note is a curated annotation for one lineage
type Note struct {
	Lineage     string `json:"lineage"`
	Description string `json:"description"`
	Retired     bool   `json:"retired"`
	Line        int    `json:"line"`
}

// Summary holds the computed statistics row for one lineage
type Summary struct {
	Lineage       string `json:"lineage"`
	Countries     string `json:"countries"`
	DateRange     string `json:"date_range"`
	TaxaCount     string `json:"taxa_count"`
	DaysSinceLast string `json:"days_since_last"`
	KnownTravel   string `json:"known_travel"`
	Recall        string `json:"recall"`
	Line          int    `json:"line"`
}

// Columns returns the six statistic fields in table order
func (s Summary) Columns() []string {
	return []string{s.Countries, s.DateRange, s.TaxaCount, s.DaysSinceLast, s.KnownTravel, s.Recall}
}

// LineageEntry is the catalog view of one emitted lineage
type LineageEntry struct {
	Name          string    `json:"name"`
	Parent        string    `json:"parent,omitempty"`
	Depth         int       `json:"depth"`
	Retired       bool      `json:"retired"`
	Description   string    `json:"description"`
	SequenceCount int       `json:"sequence_count"`
	SummaryCount  int       `json:"summary_count"`
	RunID         string    `json:"run_id"`
	Children      []string  `json:"children,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Run records one pages invocation
type Run struct {
	ID           string    `json:"id"`
	LineagesCSV  string    `json:"lineages_csv"`
	NotesFile    string    `json:"notes_file"`
	SummaryFile  string    `json:"summary_file"`
	InputDigest  string    `json:"input_digest"`
	LineageCount int       `json:"lineage_count"`
	CreatedAt    time.Time `json:"created_at"`
}
