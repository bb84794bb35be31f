// Package store keeps a SQLite catalog of the lineages emitted by each
// pages run.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pbaille/covsupport/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a lineage or run is not in the catalog.
var ErrNotFound = errors.New("not found")

const lineageColumns = "name, parent, depth, retired, description, sequence_count, summary_count, run_id, updated_at"

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New opens the catalog at dbPath, creating the schema if needed.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and replaces the lineage table with entries.
// The run gets a fresh ID and timestamp; the stored run is returned.
func (s *Store) RecordRun(run domain.Run, entries []domain.LineageEntry) (*domain.Run, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	run.LineageCount = len(entries)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, lineages_csv, notes_file, summary_file, input_digest, lineage_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.LineagesCSV, run.NotesFile, run.SummaryFile, run.InputDigest, run.LineageCount, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	// the catalog mirrors the site, so lineages dropped from the notes go too
	if _, err := tx.Exec("DELETE FROM lineages"); err != nil {
		return nil, fmt.Errorf("clear lineages: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO lineages (" + lineageColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("prepare lineage insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(e.Name, e.Parent, e.Depth, e.Retired, e.Description,
			e.SequenceCount, e.SummaryCount, run.ID, run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert lineage %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit run: %w", err)
	}
	return &run, nil
}

// LatestRun returns the most recent run, or ErrNotFound on an empty catalog.
func (s *Store) LatestRun() (*domain.Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

// ListRuns returns recent runs, newest first
func (s *Store) ListRuns(limit int) ([]domain.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, lineages_csv, notes_file, summary_file, input_digest, lineage_count, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var r domain.Run
		if err := rows.Scan(&r.ID, &r.LineagesCSV, &r.NotesFile, &r.SummaryFile,
			&r.InputDigest, &r.LineageCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetLineage returns one lineage with the names of its direct children.
func (s *Store) GetLineage(name string) (*domain.LineageEntry, error) {
	row := s.db.QueryRow("SELECT "+lineageColumns+" FROM lineages WHERE name = ?", name)
	e, err := scanLineage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lineage %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lineage: %w", err)
	}

	rows, err := s.db.Query("SELECT name FROM lineages WHERE parent = ? ORDER BY name", name)
	if err != nil {
		return nil, fmt.Errorf("get children: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var child string
		if err := rows.Scan(&child); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		e.Children = append(e.Children, child)
	}

	return &e, rows.Err()
}

// ListLineages returns the lineage named prefix and all its descendants,
// ordered by name. An empty prefix lists everything.
func (s *Store) ListLineages(prefix string) ([]domain.LineageEntry, error) {
	query := "SELECT " + lineageColumns + " FROM lineages"
	var args []any
	if prefix != "" {
		// substr rather than LIKE: '_' is legal in lineage names
		query += " WHERE name = ? OR substr(name, 1, ?) = ?"
		args = append(args, prefix, len(prefix)+1, prefix+".")
	}
	query += " ORDER BY name"

	return s.queryLineages("list lineages", query, args...)
}

// SearchLineages matches the query against lineage names and descriptions
func (s *Store) SearchLineages(query string) ([]domain.LineageEntry, error) {
	pattern := "%" + query + "%"
	return s.queryLineages("search lineages",
		"SELECT "+lineageColumns+" FROM lineages WHERE name LIKE ? OR description LIKE ? ORDER BY name",
		pattern, pattern,
	)
}

func (s *Store) queryLineages(op, query string, args ...any) ([]domain.LineageEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []domain.LineageEntry
	for rows.Next() {
		e, err := scanLineage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lineage: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLineage(row scanner) (domain.LineageEntry, error) {
	var e domain.LineageEntry
	err := row.Scan(&e.Name, &e.Parent, &e.Depth, &e.Retired, &e.Description,
		&e.SequenceCount, &e.SummaryCount, &e.RunID, &e.UpdatedAt)
	return e, err
}
