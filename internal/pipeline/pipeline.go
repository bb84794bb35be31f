// Package pipeline validates the inputs of the data-prep and web-update
// workflows and hands them to snakemake.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/covsupport/internal/domain"
)

// Mode selects which workflow runs.
type Mode string

const (
	ModePangolinPrep Mode = "pangolin-prep"
	ModeUpdateWeb    Mode = "update-web"
)

var snakefiles = map[Mode]string{
	ModePangolinPrep: "prepare_package_data.smk",
	ModeUpdateWeb:    "update_lineage_data.smk",
}

// Options mirrors the run command's flags. Relative paths are resolved
// against Cwd.
type Options struct {
	PangolinPrep bool
	UpdateWeb    bool

	WorkflowDir string
	Engine      string
	Outdir      string
	DataDir     string
	NumTaxa     int

	AssignmentDir string
	WebsiteDir    string
	Metadata      string
	Descriptions  string

	DryRun  bool
	Threads int
	Verbose bool
	Cwd     string
}

// Plan is a validated workflow invocation.
type Plan struct {
	Mode       Mode
	Engine     string
	Snakefile  string
	Outdir     string
	ConfigFile string
	Config     map[string]any
	Args       []string
}

// Executor runs an external program.
type Executor interface {
	Run(ctx context.Context, name string, args []string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name and waits for it.
func (e ExecRunner) Run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Runner plans and launches workflows.
type Runner struct {
	exec Executor
	log  zerolog.Logger
}

// NewRunner creates a Runner that launches through exec.
func NewRunner(exec Executor, log zerolog.Logger) *Runner {
	return &Runner{exec: exec, log: log}
}

// Run validates opts, writes the workflow config and invokes the engine.
func (r *Runner) Run(ctx context.Context, opts Options) (*Plan, error) {
	plan, err := Prepare(opts)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(plan.Config)
	if err != nil {
		return nil, fmt.Errorf("encode workflow config: %w", err)
	}
	if err := os.WriteFile(plan.ConfigFile, data, 0644); err != nil {
		return nil, fmt.Errorf("write workflow config: %w", err)
	}

	r.log.Info().
		Str("mode", string(plan.Mode)).
		Str("snakefile", plan.Snakefile).
		Int("threads", opts.Threads).
		Bool("dry_run", opts.DryRun).
		Msg("starting workflow")

	if err := r.exec.Run(ctx, plan.Engine, plan.Args); err != nil {
		return plan, fmt.Errorf("run workflow: %w", err)
	}
	return plan, nil
}

// Prepare checks every path the selected mode needs and builds the
// engine invocation. It creates the output and summary-figure
// directories but writes nothing else.
func Prepare(opts Options) (*Plan, error) {
	mode, err := selectMode(opts)
	if err != nil {
		return nil, err
	}
	if opts.Cwd == "" {
		if opts.Cwd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}
	if opts.Engine == "" {
		opts.Engine = "snakemake"
	}
	if opts.Threads <= 0 {
		opts.Threads = 1
	}

	snakefile := filepath.Join(resolve(opts.Cwd, opts.WorkflowDir), snakefiles[mode])
	if !exists(snakefile) {
		return nil, &domain.PathError{Op: "find snakefile", Path: snakefile}
	}

	outdir := opts.Cwd
	if opts.Outdir != "" {
		outdir = resolve(opts.Cwd, opts.Outdir)
		if err := os.MkdirAll(outdir, 0755); err != nil {
			return nil, &domain.PathError{Op: "create directory", Path: outdir, Err: err}
		}
	}

	config := map[string]any{"outdir": outdir}
	switch mode {
	case ModePangolinPrep:
		err = prepConfig(opts, config)
	case ModeUpdateWeb:
		err = webConfig(opts, config)
	}
	if err != nil {
		return nil, err
	}
	config["to_include"] = filepath.Join(resolve(opts.Cwd, opts.WorkflowDir), "data", "to_include.csv")

	plan := &Plan{
		Mode:       mode,
		Engine:     opts.Engine,
		Snakefile:  snakefile,
		Outdir:     outdir,
		ConfigFile: filepath.Join(outdir, "config.yaml"),
		Config:     config,
	}
	plan.Args = []string{
		"--snakefile", snakefile,
		"--configfile", plan.ConfigFile,
		"--cores", strconv.Itoa(opts.Threads),
		"--forceall",
		"--rerun-incomplete",
		"--nolock",
		"--printshellcmds",
	}
	if opts.DryRun {
		plan.Args = append(plan.Args, "--dryrun")
	}
	if !opts.Verbose {
		plan.Args = append(plan.Args, "--quiet")
	}
	return plan, nil
}

func selectMode(opts Options) (Mode, error) {
	switch {
	case opts.PangolinPrep && opts.UpdateWeb:
		return "", errors.New("please specify only one of --pangolin-prep or --update-web")
	case opts.PangolinPrep:
		return ModePangolinPrep, nil
	case opts.UpdateWeb:
		return ModeUpdateWeb, nil
	default:
		return "", errors.New("please specify either --pangolin-prep or --update-web")
	}
}

func prepConfig(opts Options, config map[string]any) error {
	if opts.DataDir == "" {
		return errors.New("please specify data directory")
	}
	dataDir := resolve(opts.Cwd, opts.DataDir)
	files := []struct{ key, name string }{
		{"metadata", "metadata.csv"},
		{"fasta", "alignment.fasta"},
		{"global_tree", "global.tree"},
		{"lineages", "lineages.csv"},
	}
	for _, f := range files {
		path := filepath.Join(dataDir, f.name)
		if !exists(path) {
			return &domain.PathError{Op: "missing data file", Path: path}
		}
		config[f.key] = path
	}
	numTaxa := opts.NumTaxa
	if numTaxa <= 0 {
		numTaxa = 5
	}
	config["num_taxa"] = numTaxa
	return nil
}

func webConfig(opts Options, config map[string]any) error {
	config["country_coordinates"] = filepath.Join(resolve(opts.Cwd, opts.WorkflowDir), "data", "country_coordinates.csv")

	required := []struct {
		key, value, what string
	}{
		{"assignment_dir", opts.AssignmentDir, "path to assignment repo"},
		{"website_dir", opts.WebsiteDir, "path to website repo"},
		{"metadata", opts.Metadata, "updated metadata"},
		{"descriptions", opts.Descriptions, "descriptions"},
		{"data_dir", opts.DataDir, "path to data repo"},
	}
	for _, req := range required {
		if req.value == "" {
			return fmt.Errorf("please provide %s", req.what)
		}
		path := resolve(opts.Cwd, req.value)
		if !exists(path) {
			return &domain.PathError{Op: "cannot find " + req.what, Path: path}
		}
		config[req.key] = path
	}

	dataDir := config["data_dir"].(string)
	figures := filepath.Join(dataDir, "summary_figures")
	if err := os.MkdirAll(figures, 0755); err != nil {
		return &domain.PathError{Op: "create directory", Path: figures, Err: err}
	}
	config["summary_figures_dir"] = figures

	lineages := filepath.Join(dataDir, "lineages.metadata.csv")
	recall := filepath.Join(dataDir, "lineage_recall_report.csv")
	for _, p := range []string{lineages, recall} {
		if !exists(p) {
			return &domain.PathError{Op: "missing data file", Path: p}
		}
	}
	config["lineages_metadata"] = lineages
	config["recall_file"] = recall
	return nil
}

func resolve(cwd, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
