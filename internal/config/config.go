package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/morozRed/boardsync/internal/naming"
	"github.com/morozRed/boardsync/internal/synth"
)

// FileName is looked up next to the primary config file when --config is not given.
const FileName = ".boardsync.yaml"

// Config holds all boardsync configuration.
type Config struct {
	Files   FilesConfig   `yaml:"files"`
	Fields  FieldsConfig  `yaml:"fields"`
	Naming  NamingConfig  `yaml:"naming"`
	Build   BuildConfig   `yaml:"build"`
	Codegen CodegenConfig `yaml:"codegen"`
	Logging LoggingConfig `yaml:"logging"`
}

// FilesConfig locates the collaborator files, relative to the primary file's directory.
type FilesConfig struct {
	Customization string `yaml:"customization"`
	BuildScript   string `yaml:"build_script"`
	Parameter     string `yaml:"parameter"`
}

// FieldsConfig names the macros rewritten in generated arms.
type FieldsConfig struct {
	SoftwareVersion string   `yaml:"software_version"`
	EepromPrefix    string   `yaml:"eeprom_prefix"`
	CodeName        string   `yaml:"code_name"`
	Motors          []string `yaml:"motors"`
}

type NamingConfig struct {
	ModelPrefix string `yaml:"model_prefix"` // stripped when simplifying board models
}

type BuildConfig struct {
	// CommandTemplate is appended to the build script; {stem} is replaced by the image file stem.
	CommandTemplate string `yaml:"command_template"`
}

// CodegenConfig configures the packaged code-generation script.
type CodegenConfig struct {
	Interpreter string `yaml:"interpreter"`
	Script      string `yaml:"script"`
	Dir         string `yaml:"dir"`     // working directory; defaults to the build script's directory
	Timeout     string `yaml:"timeout"` // empty means wait for completion
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the built-in layout.
func DefaultConfig() *Config {
	return &Config{
		Files: FilesConfig{
			Customization: "Customize.h",
			BuildScript:   "build_eeprom.bat",
			Parameter:     "EepromParam.h",
		},
		Fields: FieldsConfig{
			SoftwareVersion: "SW_VERSION",
			EepromPrefix:    "EEPROMDATA_",
			CodeName:        "CODE_NAME",
			Motors:          []string{"MOTOR1_TYPE", "MOTOR2_TYPE"},
		},
		Naming: NamingConfig{
			ModelPrefix: "KFW",
		},
		Build: BuildConfig{
			CommandTemplate: "bin2hex.exe {stem}.bin",
		},
		Codegen: CodegenConfig{
			Interpreter: "python",
			Script:      "bin2header.py",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config, falling back to defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, cfg.Validate()
}

// LoadForPrimary loads explicit when set, otherwise FileName beside the primary file.
func LoadForPrimary(primaryPath, explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	return Load(filepath.Join(filepath.Dir(primaryPath), FileName))
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func (c *Config) Validate() error {
	if c.Fields.EepromPrefix == "" {
		return fmt.Errorf("fields.eeprom_prefix must not be empty")
	}
	if len(c.Fields.Motors) > 2 {
		return fmt.Errorf("fields.motors supports at most two motor fields, got %d", len(c.Fields.Motors))
	}
	if c.Build.CommandTemplate != "" && !strings.Contains(c.Build.CommandTemplate, "{stem}") {
		return fmt.Errorf("build.command_template must reference {stem}")
	}
	if _, err := c.CodegenTimeout(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BOARDSYNC_CUSTOMIZATION"); v != "" {
		c.Files.Customization = v
	}
	if v := os.Getenv("BOARDSYNC_PARAMETER"); v != "" {
		c.Files.Parameter = v
	}
	if v := os.Getenv("BOARDSYNC_BUILD_SCRIPT"); v != "" {
		c.Files.BuildScript = v
	}
	if v := os.Getenv("BOARDSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// CodegenTimeout parses codegen.timeout; zero means no timeout.
func (c *Config) CodegenTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Codegen.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Codegen.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid codegen.timeout %q: %w", c.Codegen.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("codegen.timeout must not be negative")
	}
	return d, nil
}

func (c *Config) Scheme() naming.Scheme {
	return naming.Scheme{
		ModelPrefix: c.Naming.ModelPrefix,
		MacroPrefix: c.Fields.EepromPrefix,
	}
}

func (c *Config) SynthFields() synth.Fields {
	return synth.Fields{
		SoftwareVersion: c.Fields.SoftwareVersion,
		CodeName:        c.Fields.CodeName,
		EepromPrefix:    c.Fields.EepromPrefix,
	}
}

// Resolve turns a configured path into one rooted at the primary file's directory.
func Resolve(primaryPath, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(filepath.Dir(primaryPath), rel)
}
