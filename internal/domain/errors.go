package domain

import "fmt"

// ParseError reports a malformed line in one of the input tables.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
}

// MissingRecordError reports a lineage that a page needs to link to but
// that has no cross-reference entry.
type MissingRecordError struct {
	Lineage string
	Context string
}

func (e *MissingRecordError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("no cross-reference for lineage %s", e.Lineage)
	}
	return fmt.Sprintf("%s: no cross-reference for lineage %s", e.Context, e.Lineage)
}

// PathError reports a missing input or an output location that could not
// be created.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s", e.Op, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// AssetCopyError reports a summary figure that could not be copied into
// the site.
type AssetCopyError struct {
	Source string
	Dest   string
	Err    error
}

func (e *AssetCopyError) Error() string {
	return fmt.Sprintf("copy figure %s -> %s: %v", e.Source, e.Dest, e.Err)
}

func (e *AssetCopyError) Unwrap() error { return e.Err }
