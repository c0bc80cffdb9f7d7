package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string   `yaml:"-"`
	Workspaces  []string `yaml:"workspaces"`

	// Spec settings
	Specs        bool   `yaml:"specs"`
	Compiler     string `yaml:"compiler"`
	ManifestFile string `yaml:"manifest_file"`
	SpecDir      string `yaml:"spec_dir"`
	SpecPattern  string `yaml:"spec_pattern"`

	// Execution settings
	StrictExit     bool          `yaml:"strict_exit"`
	LockWorkspaces bool          `yaml:"lock_workspaces"`
	LockDir        string        `yaml:"lock_dir"`
	Debounce       time.Duration `yaml:"debounce"`

	// Logging settings
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Output settings
	OutputJSONFile string `yaml:"output_file"`
	OutputJSONDir  string `yaml:"output_dir"`

	// Paths to ignore when watching
	PathsToIgnore []string `yaml:"ignore"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	ConfigFile string
	Workspaces []string
	Compiler   string
	Strict     bool
	LogLevel   string
	Include    []string
	Exclude    []string
	NameFilter string
	NoSave     bool
	OpenFails  bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		Specs:          true,
		Compiler:       DefaultCompiler,
		ManifestFile:   DefaultManifestFile,
		SpecDir:        DefaultSpecDir,
		SpecPattern:    DefaultSpecPattern,
		LockWorkspaces: true,
		Debounce:       DefaultDebounce,
		LogLevel:       DefaultLogLevel,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment (including the project .env file), then flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	cfg.Flags = flags

	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(cfg.ProjectPath, ".env"))

	path := flags.ConfigFile
	required := path != ""
	if path == "" {
		path = filepath.Join(cfg.ProjectPath, DefaultConfigFile)
	}
	if err := cfg.LoadFile(path); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	cfg.ApplyFlags(flags)

	return cfg, nil
}

// LoadFile merges a YAML config file into the config
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies environment overrides
func (c *Config) ApplyEnv() {
	if compiler := os.Getenv(EnvCompiler); compiler != "" {
		c.Compiler = compiler
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
}

// ApplyFlags applies command-line overrides
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if len(flags.Workspaces) > 0 {
		c.Workspaces = flags.Workspaces
	}
	if flags.Compiler != "" {
		c.Compiler = flags.Compiler
	}
	if flags.Strict {
		c.StrictExit = true
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
}

// GetWorkspaces returns the candidate workspace roots as absolute paths.
// The project path is the only candidate when none are configured.
func (c *Config) GetWorkspaces() []string {
	roots := c.Workspaces
	if len(roots) == 0 {
		roots = []string{c.ProjectPath}
	}

	out := make([]string, 0, len(roots))
	seen := make(map[string]bool)
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(c.ProjectPath, root)
		}
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		if !seen[root] {
			seen[root] = true
			out = append(out, root)
		}
	}
	return out
}

// GetOutputPath returns the full path to the output JSON file.
// Resolves to an absolute path so run and failures always read/write the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
