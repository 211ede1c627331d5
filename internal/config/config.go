// internal/config/config.go
//
// This package handles configuration and the .swarmcycle directory
// structure. Every project that runs swarmcycle gets a .swarmcycle/
// folder created in its root for config, logs, and run history.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// StateDirName is the name of the directory created in each project.
	StateDirName = ".swarmcycle"

	// DefaultCoordinatorURL matches the quickstart default when no
	// COORDINATOR_URL is configured.
	DefaultCoordinatorURL = "http://localhost:8787"

	// DefaultApprovalWait stands in for product-owner sign-off.
	DefaultApprovalWait = 3 * time.Second
	// DefaultTaskWait stands in for an agent working one task.
	DefaultTaskWait = 1 * time.Second
)

const defaultProjectConfigYAML = `# swarmcycle project configuration
version: 1

# Coordinator dashboard. Reporting is best-effort; a missing dashboard
# never fails a run. COORDINATOR_URL overrides the url at runtime.
coordinator:
  url: http://localhost:8787
  enabled: true

# Simulated work durations (Go duration strings).
iteration:
  approval_wait: 3s
  task_wait: 1s

# Optional file overrides, relative to the project directory.
# paths:
#   backlog: backlog.yaml
#   team: .swarmcycle/team.json
`

// CoordinatorConfig declares the dashboard section of config.yaml.
type CoordinatorConfig struct {
	URL     string `yaml:"url,omitempty"`
	Enabled *bool  `yaml:"enabled,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// IterationConfig declares the simulated work durations.
type IterationConfig struct {
	ApprovalWait string `yaml:"approval_wait,omitempty"`
	TaskWait     string `yaml:"task_wait,omitempty"`
}

// PathsConfig declares optional file location overrides.
type PathsConfig struct {
	Backlog string `yaml:"backlog,omitempty"`
	Team    string `yaml:"team,omitempty"`
	History string `yaml:"history,omitempty"`
}

// ProjectConfig models .swarmcycle/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Coordinator CoordinatorConfig `yaml:"coordinator,omitempty"`
	Iteration   IterationConfig   `yaml:"iteration,omitempty"`
	Paths       PathsConfig       `yaml:"paths,omitempty"`
}

// Config holds the resolved runtime configuration for swarmcycle.
type Config struct {
	// ProjectDir is the directory where the user ran `swarmcycle` from.
	ProjectDir string
	// StateDir is ProjectDir/.swarmcycle.
	StateDir string

	CoordinatorURL   string
	DashboardEnabled bool
	RequestTimeout   time.Duration
	ApprovalWait     time.Duration
	TaskWait         time.Duration
	BacklogPath      string
	TeamPath         string
	HistoryPath      string

	Project ProjectConfig
}

// InitStateDir creates the .swarmcycle directory structure in the given
// project directory, seeding a commented default config on first run.
func InitStateDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, StateDirName)
	dirs := []string{
		filepath.Join(stateDir, "logs"),
		filepath.Join(stateDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads configuration for the given project directory,
// applying defaults, the config file, and environment overrides in that
// order.
func NewConfig(projectDir string) (*Config, error) {
	stateDir := filepath.Join(projectDir, StateDirName)
	cfg := &Config{
		ProjectDir:       projectDir,
		StateDir:         stateDir,
		CoordinatorURL:   DefaultCoordinatorURL,
		DashboardEnabled: true,
		RequestTimeout:   0, // the dashboard client supplies its own default
		ApprovalWait:     DefaultApprovalWait,
		TaskWait:         DefaultTaskWait,
		TeamPath:         filepath.Join(stateDir, "team.json"),
		HistoryPath:      filepath.Join(stateDir, "state", "runs.db"),
		Project:          ProjectConfig{Version: 1},
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LogbookPath returns the file the run logbook appends to.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.StateDir, "logs", "swarmcycle.log")
}

// ConfigPath returns the on-disk location for the project config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

func (c *Config) loadProjectConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if parsed.Version == 0 {
		parsed.Version = 1
	}
	if parsed.Version < 1 {
		return fmt.Errorf("config: %s: version must be >= 1", path)
	}
	if err := c.apply(parsed); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.Project = parsed
	return nil
}

func (c *Config) apply(pc ProjectConfig) error {
	if url := strings.TrimSpace(pc.Coordinator.URL); url != "" {
		c.CoordinatorURL = strings.TrimRight(url, "/")
	}
	if pc.Coordinator.Enabled != nil {
		c.DashboardEnabled = *pc.Coordinator.Enabled
	}
	if raw := strings.TrimSpace(pc.Coordinator.Timeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("coordinator.timeout %q is not a positive duration", raw)
		}
		c.RequestTimeout = timeout
	}
	if raw := strings.TrimSpace(pc.Iteration.ApprovalWait); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			return fmt.Errorf("iteration.approval_wait %q is not a duration", raw)
		}
		c.ApprovalWait = wait
	}
	if raw := strings.TrimSpace(pc.Iteration.TaskWait); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			return fmt.Errorf("iteration.task_wait %q is not a duration", raw)
		}
		c.TaskWait = wait
	}
	c.BacklogPath = c.resolvePath(pc.Paths.Backlog)
	if path := c.resolvePath(pc.Paths.Team); path != "" {
		c.TeamPath = path
	}
	if path := c.resolvePath(pc.Paths.History); path != "" {
		c.HistoryPath = path
	}
	return nil
}

// applyEnvOverrides lets the environment win over the config file, which
// keeps the original COORDINATOR_URL contract intact.
func (c *Config) applyEnvOverrides() {
	if url := strings.TrimSpace(os.Getenv("COORDINATOR_URL")); url != "" {
		c.CoordinatorURL = strings.TrimRight(url, "/")
	}
	if raw := strings.TrimSpace(os.Getenv("SWARMCYCLE_DASHBOARD")); raw != "" {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			c.DashboardEnabled = enabled
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SWARMCYCLE_APPROVAL_WAIT")); raw != "" {
		if wait, err := time.ParseDuration(raw); err == nil && wait >= 0 {
			c.ApprovalWait = wait
		}
	}
	if raw := strings.TrimSpace(os.Getenv("SWARMCYCLE_TASK_WAIT")); raw != "" {
		if wait, err := time.ParseDuration(raw); err == nil && wait >= 0 {
			c.TaskWait = wait
		}
	}
}

func (c *Config) resolvePath(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(c.ProjectDir, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
