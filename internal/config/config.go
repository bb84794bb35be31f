// Package config loads covsupport settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "covsupport.yaml"

// Config holds the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Server   ServerConfig   `yaml:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `yaml:"pretty"`
}

// CatalogConfig locates the SQLite lineage catalog.
type CatalogConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// WorkflowConfig configures the external workflow engine.
type WorkflowConfig struct {
	Dir     string `yaml:"dir" validate:"required"`    // snakefiles and data/
	Engine  string `yaml:"engine" validate:"required"` // snakemake binary
	Threads int    `yaml:"threads" validate:"gte=1"`
}

// ServerConfig holds catalog API settings.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Default returns the built-in settings.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Log:      LogConfig{Level: "info"},
		Catalog:  CatalogConfig{Path: filepath.Join(home, ".covsupport", "catalog.db")},
		Workflow: WorkflowConfig{Dir: "workflows", Engine: "snakemake", Threads: 1},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// Load builds the configuration with precedence environment > file >
// defaults. An empty path falls back to DefaultFile if it exists; an
// explicit path must exist. Flags are applied by the caller afterwards.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if getenv == nil {
		getenv = os.Getenv
	}
	applyEnv(cfg, getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("COVSUPPORT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := getenv("COVSUPPORT_DB"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := getenv("COVSUPPORT_WORKFLOW_DIR"); v != "" {
		cfg.Workflow.Dir = v
	}
	if v := getenv("COVSUPPORT_ENGINE"); v != "" {
		cfg.Workflow.Engine = v
	}
	if v := getenv("COVSUPPORT_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.Threads = n
		}
	}
}

var validate = validator.New()

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
