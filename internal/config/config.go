// internal/config/config.go
//
// This package handles configuration and the .selfassess directory structure.
// Every directory a return is prepared in gets a .selfassess/ folder holding
// saved answers, logs and the questionnaire settings.

package config

import (
	"bytes"
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
	// Dir is the name of the directory we create in each working directory
	Dir = ".selfassess"

	// PolicyFixed divides completed sections by a constant step count.
	PolicyFixed = "fixed"
	// PolicyActive divides completed active sections by the active step count.
	PolicyActive = "active"

	// MissingContractForce advances past steps that expose no submit contract.
	MissingContractForce = "force"
	// MissingContractBlock refuses to advance past such steps.
	MissingContractBlock = "block"

	// DefaultTotalSteps mirrors the size of the full step catalog.
	DefaultTotalSteps = 14
	// DefaultDoubleActivationWindow is the gap under which two Next presses count as one gesture.
	DefaultDoubleActivationWindow = 300 * time.Millisecond
)

const defaultProjectConfigYAML = `# selfassess configuration
version: 1

progress:
  # fixed: completed sections / total_steps (matches the paper return's section count)
  # active: completed sections / steps in the current flow
  policy: fixed
  total_steps: 14

navigation:
  # Two Next presses inside the window move on even when the step rejects its input.
  escape_hatch: true
  double_activation_window: 300ms
  # force: skip steps without a submit contract. block: stay on them.
  missing_contract: force
`

// ProgressConfig controls how completion percentages are computed.
type ProgressConfig struct {
	Policy     string `yaml:"policy"`
	TotalSteps int    `yaml:"total_steps"`
}

// NavigationConfig controls forced navigation behaviour.
type NavigationConfig struct {
	EscapeHatch            *bool          `yaml:"escape_hatch,omitempty"`
	DoubleActivationWindow *time.Duration `yaml:"double_activation_window,omitempty"`
	MissingContract        string         `yaml:"missing_contract"`
}

// ProjectConfig models .selfassess/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Progress   ProgressConfig   `yaml:"progress"`
	Navigation NavigationConfig `yaml:"navigation"`
}

// Config holds the runtime configuration for selfassess.
type Config struct {
	// ProjectDir is the directory where the user ran `selfassess` from
	ProjectDir string

	// AppDir is ProjectDir/.selfassess
	AppDir string

	Project ProjectConfig
}

// InitDir creates the .selfassess directory structure in the given directory.
//
// Structure created:
// .selfassess/
// ├── config.yaml
// ├── logs/    <- selfassess.log and journey.log
// └── state/   <- answers.json
func InitDir(projectDir string) error {
	appDir := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(appDir, "logs"),
		filepath.Join(appDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(appDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// Environment overrides are applied after the file is read.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		AppDir:     filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns an in-memory configuration rooted at projectDir without touching disk.
func Default(projectDir string) *Config {
	return &Config{
		ProjectDir: projectDir,
		AppDir:     filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.AppDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.AppDir, "state")
}

// JourneyLogPath returns the logbook path shown in the TUI.
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.AppDir, "config.yaml")
}

// ProgressPolicy returns the configured progress policy.
func (c *Config) ProgressPolicy() string {
	return c.Project.Progress.Policy
}

// TotalSteps returns the constant denominator used by the fixed policy.
func (c *Config) TotalSteps() int {
	return c.Project.Progress.TotalSteps
}

// EscapeHatchEnabled reports whether a double Next press forces navigation.
func (c *Config) EscapeHatchEnabled() bool {
	if c.Project.Navigation.EscapeHatch == nil {
		return true
	}
	return *c.Project.Navigation.EscapeHatch
}

// DoubleActivationWindow returns the double-press window.
func (c *Config) DoubleActivationWindow() time.Duration {
	if c.Project.Navigation.DoubleActivationWindow == nil {
		return DefaultDoubleActivationWindow
	}
	return *c.Project.Navigation.DoubleActivationWindow
}

// MissingContract returns how steps without a submit contract are handled.
func (c *Config) MissingContract() string {
	return c.Project.Navigation.MissingContract
}

// SetProgressPolicy updates the progress policy and persists the value back
// to .selfassess/config.yaml. Only that key changes on disk.
func (c *Config) SetProgressPolicy(policy string) error {
	policy = strings.ToLower(strings.TrimSpace(policy))
	switch policy {
	case PolicyFixed, PolicyActive:
	case "":
		return fmt.Errorf("config: progress policy is required")
	default:
		return fmt.Errorf("config: progress.policy must be '%s' or '%s'", PolicyFixed, PolicyActive)
	}
	if err := c.writeProjectValue(policy, "progress", "policy"); err != nil {
		return err
	}
	c.Project.Progress.Policy = policy
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
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

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if value := strings.TrimSpace(os.Getenv("SELFASSESS_PROGRESS_POLICY")); value != "" {
		c.Project.Progress.Policy = value
	}
	if value := strings.TrimSpace(os.Getenv("SELFASSESS_ESCAPE_HATCH")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.Project.Navigation.EscapeHatch = &enabled
		}
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	enabled := true
	window := DefaultDoubleActivationWindow
	return ProjectConfig{
		Version: 1,
		Progress: ProgressConfig{
			Policy:     PolicyFixed,
			TotalSteps: DefaultTotalSteps,
		},
		Navigation: NavigationConfig{
			EscapeHatch:            &enabled,
			DoubleActivationWindow: &window,
			MissingContract:        MissingContractForce,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Progress.TotalSteps == 0 {
		pc.Progress.TotalSteps = DefaultTotalSteps
	}
	if pc.Navigation.DoubleActivationWindow == nil {
		window := DefaultDoubleActivationWindow
		pc.Navigation.DoubleActivationWindow = &window
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Progress.Policy = strings.ToLower(strings.TrimSpace(pc.Progress.Policy))
	if pc.Progress.Policy == "" {
		pc.Progress.Policy = PolicyFixed
	}
	pc.Navigation.MissingContract = strings.ToLower(strings.TrimSpace(pc.Navigation.MissingContract))
	if pc.Navigation.MissingContract == "" {
		pc.Navigation.MissingContract = MissingContractForce
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Progress.Policy {
	case PolicyFixed, PolicyActive:
	default:
		return fmt.Errorf("progress.policy must be '%s' or '%s'", PolicyFixed, PolicyActive)
	}
	if pc.Progress.TotalSteps < 1 {
		return fmt.Errorf("progress.total_steps must be >= 1")
	}
	if w := pc.Navigation.DoubleActivationWindow; w != nil && *w <= 0 {
		return fmt.Errorf("navigation.double_activation_window must be > 0; set escape_hatch: false to turn double activation off")
	}
	switch pc.Navigation.MissingContract {
	case MissingContractForce, MissingContractBlock:
	default:
		return fmt.Errorf("navigation.missing_contract must be '%s' or '%s'", MissingContractForce, MissingContractBlock)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

// writeProjectValue edits a single scalar of config.yaml in place. The rest
// of the file, comments included, is written back as it was read, so
// environment overrides never reach disk.
func (c *Config) writeProjectValue(value string, path ...string) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	file := c.ProjectConfigPath()
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		data = []byte(defaultProjectConfigYAML)
	} else if err != nil {
		return fmt.Errorf("config: read %s: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", file, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("config: %s is not a mapping", file)
	}
	setScalar(doc.Content[0], value, path)

	var parsed ProjectConfig
	if err := doc.Decode(&parsed); err != nil {
		return fmt.Errorf("config: decode %s: %w", file, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.MkdirAll(c.AppDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure app dir: %w", err)
	}
	if err := os.WriteFile(file, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

// setScalar walks (and creates) nested mapping keys and sets the leaf.
func setScalar(node *yaml.Node, value string, path []string) {
	for i, key := range path {
		var next *yaml.Node
		for j := 0; j+1 < len(node.Content); j += 2 {
			if node.Content[j].Value == key {
				next = node.Content[j+1]
				break
			}
		}
		if next == nil {
			next = &yaml.Node{}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, next)
		}
		if i == len(path)-1 {
			next.Kind, next.Tag, next.Value, next.Content = yaml.ScalarNode, "!!str", value, nil
			return
		}
		if next.Kind != yaml.MappingNode {
			next.Kind, next.Tag, next.Value, next.Content = yaml.MappingNode, "!!map", "", nil
		}
		node = next
	}
}
