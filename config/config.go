// Package config loads the YAML project configuration: where the source
// tree lives, which reasoning service drives the agents, the command
// allow-list and run limits.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/logging"
	"github.com/hupe1980/agenttree/tool"
)

// FileName is the default configuration file name at the project root.
const FileName = "agenttree.yaml"

// Supported model providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderScripted  = "scripted"
)

// Project locates the tree on disk.
type Project struct {
	Root       string `yaml:"root"`
	SourceDir  string `yaml:"source_dir"`
	ScratchDir string `yaml:"scratch_dir"`
}

// Model selects the reasoning service.
type Model struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// APIKeyEnv names the environment variable holding the API key. Empty
	// leaves the SDK's own default lookup in place.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// Script lists canned responses for the scripted provider.
	Script []string `yaml:"script,omitempty"`
}

// Limits bounds a run.
type Limits struct {
	MaxModelCalls int `yaml:"max_model_calls"`
}

// Logging configures the CLI logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config models agenttree.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Project  Project        `yaml:"project"`
	Model    Model          `yaml:"model"`
	Limits   Limits         `yaml:"limits"`
	Commands []tool.Command `yaml:"commands"`
	Logging  Logging        `yaml:"logging"`
}

// Default returns the configuration written by `agenttree init`.
func Default() *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root:       ".",
			SourceDir:  "src",
			ScratchDir: ".agenttree/scratch",
		},
		Model: Model{
			Provider:    ProviderAnthropic,
			Temperature: 0.2,
			MaxTokens:   4096,
			APIKeyEnv:   "ANTHROPIC_API_KEY",
		},
		Limits: Limits{MaxModelCalls: 500},
		Commands: []tool.Command{
			{Command: "npm test", Description: "run the project's test suite"},
		},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// Load reads path and overlays it on Default. A relative project root is
// resolved against the directory containing path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(filepath.Dir(path), cfg.Project.Root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML at path, creating parent directories. It refuses
// to overwrite an existing file.
func Write(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s: %w", path, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	header := "# agenttree project configuration\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// Validate reports every problem in cfg at once.
func (c *Config) Validate() error {
	var errs error
	src := core.CleanPath(c.Project.SourceDir)
	if src == "" || strings.Contains(src, "/") || !core.Within(c.Project.SourceDir) {
		errs = multierr.Append(errs, fmt.Errorf("project.source_dir %q must be a single top-level folder", c.Project.SourceDir))
	}
	if c.Project.ScratchDir == "" || !core.Within(c.Project.ScratchDir) {
		errs = multierr.Append(errs, fmt.Errorf("project.scratch_dir %q must be inside the project", c.Project.ScratchDir))
	}
	switch c.Model.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	case ProviderScripted:
		if len(c.Model.Script) == 0 {
			errs = multierr.Append(errs, errors.New("model.script must not be empty for the scripted provider"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("model.provider %q is not one of anthropic, openai, gemini, scripted", c.Model.Provider))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = multierr.Append(errs, fmt.Errorf("model.temperature %v is out of range [0, 2]", c.Model.Temperature))
	}
	if c.Model.MaxTokens < 0 {
		errs = multierr.Append(errs, fmt.Errorf("model.max_tokens must not be negative"))
	}
	if c.Limits.MaxModelCalls < 0 {
		errs = multierr.Append(errs, fmt.Errorf("limits.max_model_calls must not be negative"))
	}
	if _, err := tool.NewAllowList(c.Commands...); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("commands: %w", err))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "console", "json", "text":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format %q is not one of console, json, text", c.Logging.Format))
	}
	return errs
}

// AllowList builds the immutable command table injected into interpreters.
func (c *Config) AllowList() (*tool.AllowList, error) {
	return tool.NewAllowList(c.Commands...)
}

// APIKey returns the key from the configured environment variable, or "".
func (c *Config) APIKey() string {
	if c.Model.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Model.APIKeyEnv)
}
