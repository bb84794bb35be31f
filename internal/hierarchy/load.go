package hierarchy

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/zeebo/blake3"

	"github.com/pbaille/covsupport/internal/domain"
	"github.com/pbaille/covsupport/internal/source"
)

// Inputs names the three tables a pages run reads. Each may be a local
// path or an http(s) URL.
type Inputs struct {
	LineagesCSV string
	Notes       string
	Summary     string
}

// Tables holds the parsed, not yet aggregated, input rows.
type Tables struct {
	Sequences []domain.SequenceRecord
	Notes     []domain.Note
	Summaries []domain.Summary
	Digest    string // blake3 over the three inputs, in order
}

// Load parses all three inputs. The first failure is returned.
func Load(ctx context.Context, in Inputs) (*Tables, error) {
	var t Tables
	var err error
	h := blake3.New()

	if t.Sequences, err = loadWith(ctx, h, in.LineagesCSV, ParseSequences); err != nil {
		return nil, err
	}
	if t.Notes, err = loadWith(ctx, h, in.Notes, ParseNotes); err != nil {
		return nil, err
	}
	if t.Summaries, err = loadWith(ctx, h, in.Summary, ParseSummaries); err != nil {
		return nil, err
	}
	t.Digest = hex.EncodeToString(h.Sum(nil))
	return &t, nil
}

func loadWith[T any](ctx context.Context, h hash.Hash, location string, parse func(io.Reader, string) ([]T, error)) ([]T, error) {
	rc, err := source.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// separate inputs so moving a line between files changes the digest
	defer h.Write([]byte{0})
	rows, err := parse(io.TeeReader(rc, h), location)
	if err != nil {
		var pe *domain.ParseError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return rows, nil
}
