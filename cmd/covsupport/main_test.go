package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/covsupport/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type workspace struct {
	dir string
	db  string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	write("lineages.csv", "taxon,lineage\nseq1,B\nseq2,B.1\nseq3,B.1.7\n")
	write("notes.tsv", "lineage\tdescription\nB\tRoot B\nB.1\tEurope\n*B.1.7\tmerged\n")
	write("summary.tsv", "[B]\tChina\td1\t3\t9\tno\t0.9\n[B.1]\tItaly\td2\t2\t4\tno\t0.8\n[B.1.7]\tUK\td3\t1\t2\tyes\t0.5\n")
	for _, name := range []string{"B", "B.1", "B.1.7"} {
		write(filepath.Join("figures", name+".svg"), "<svg/>")
	}
	return &workspace{dir: dir, db: filepath.Join(dir, "db", "catalog.db")}
}

func (w *workspace) path(name string) string { return filepath.Join(w.dir, name) }

func (w *workspace) pagesArgs(extra ...string) []string {
	args := []string{
		"pages",
		"--db", w.db,
		"--assignment-dir", w.path("assignment"),
		"--website-dir", w.path("website"),
		"-i", w.path("lineages.csv"),
		"-n", w.path("notes.tsv"),
		"-s", w.path("summary.tsv"),
		"--summary-figures", w.path("figures"),
		"-o", w.path("website/descriptions.md"),
	}
	return append(args, extra...)
}

func TestPagesCheckCatalog(t *testing.T) {
	w := newWorkspace(t)

	out, err := execute(t, w.pagesArgs("--metrics-file", w.path("pages.prom"))...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 lineage pages (1 retired)")
	assert.Contains(t, out, "Recorded run")
	assert.FileExists(t, w.path("assignment/B/B.1/B.1.7.metadata.csv"))
	assert.FileExists(t, w.path("website/assets/images/B.1.7.svg"))

	prom, err := os.ReadFile(w.path("pages.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "covsupport_lineages_emitted_total 3")

	out, err = execute(t, "check", "--website-dir", w.path("website"))
	require.NoError(t, err)
	assert.Contains(t, out, "No broken references.")

	out, err = execute(t, "catalog", "list", "--db", w.db, "--prefix", "B.1")
	require.NoError(t, err)
	assert.Contains(t, out, "B.1 ")
	assert.Contains(t, out, "*B.1.7")
	assert.NotContains(t, out, "Root B")

	out, err = execute(t, "catalog", "show", "B", "--db", w.db)
	require.NoError(t, err)
	assert.Contains(t, out, "Sequences: 3")
	assert.Contains(t, out, "  - B.1\n")

	out, err = execute(t, "catalog", "runs", "--db", w.db)
	require.NoError(t, err)
	assert.Contains(t, out, "3 lineages")
}

func TestPages_MissingInput(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, os.Remove(w.path("notes.tsv")))

	_, err := execute(t, w.pagesArgs()...)
	var pe *domain.PathError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, w.path("notes.tsv"), pe.Path)
	assert.NoDirExists(t, w.path("website"))
}

func TestPages_MissingFlag(t *testing.T) {
	_, err := execute(t, "pages", "--website-dir", t.TempDir())
	assert.Error(t, err)
}

func TestPages_NoCatalog(t *testing.T) {
	w := newWorkspace(t)
	out, err := execute(t, w.pagesArgs("--no-catalog")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "Recorded run")
	assert.NoFileExists(t, w.db)
}

func TestCheck_Broken(t *testing.T) {
	w := newWorkspace(t)
	_, err := execute(t, w.pagesArgs("--no-catalog")...)
	require.NoError(t, err)
	require.NoError(t, os.Remove(w.path("website/assets/images/B.1.svg")))

	out, err := execute(t, "check", "--website-dir", w.path("website"))
	assert.Error(t, err)
	assert.Contains(t, out, "B.1.svg")
}

func TestCatalogShow_Unknown(t *testing.T) {
	_, err := execute(t, "catalog", "show", "Z", "--db", filepath.Join(t.TempDir(), "c.db"))
	assert.Error(t, err)
}
