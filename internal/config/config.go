package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no path is given.
const EnvVar = "LOX_CONFIG"

const (
	DefaultMaxCallDepth = 4096
	MaxCallDepthLimit   = 1 << 16
	DefaultLogLevel     = "warn"
	DefaultPrompt       = "> "
	DefaultContinuation = "... "
	defaultHistoryName  = ".lox_history"
)

// Config holds interpreter and front-end settings.
type Config struct {
	Path         string
	MaxCallDepth int
	StepLimit    int
	LogLevel     string
	Trace        bool
	REPL         REPL
}

// REPL configures the interactive prompt.
type REPL struct {
	Prompt       string
	Continuation string
	HistoryFile  string
}

type configFile struct {
	MaxCallDepth *int     `yaml:"max_call_depth"`
	StepLimit    *int     `yaml:"step_limit"`
	LogLevel     string   `yaml:"log_level"`
	Trace        bool     `yaml:"trace"`
	REPL         replFile `yaml:"repl"`
}

type replFile struct {
	Prompt       *string `yaml:"prompt"`
	Continuation *string `yaml:"continuation"`
	HistoryFile  string  `yaml:"history_file"`
}

// ValidationError aggregates configuration validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxCallDepth: DefaultMaxCallDepth,
		LogLevel:     DefaultLogLevel,
		REPL: REPL{
			Prompt:       DefaultPrompt,
			Continuation: DefaultContinuation,
			HistoryFile:  defaultHistoryFile(),
		},
	}
}

// Locate picks the config path: the explicit path, then $LOX_CONFIG.
// It returns "" when neither is set.
func Locate(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv(EnvVar)
}

// Load reads and validates the YAML file at path. An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// Parse decodes YAML from r over the defaults and validates the result.
func Parse(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: %w", err)
	}

	cfg := raw.toConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (raw configFile) toConfig() *Config {
	cfg := Default()
	if raw.MaxCallDepth != nil {
		cfg.MaxCallDepth = *raw.MaxCallDepth
	}
	if raw.StepLimit != nil {
		cfg.StepLimit = *raw.StepLimit
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	cfg.Trace = raw.Trace
	if raw.REPL.Prompt != nil {
		cfg.REPL.Prompt = *raw.REPL.Prompt
	}
	if raw.REPL.Continuation != nil {
		cfg.REPL.Continuation = *raw.REPL.Continuation
	}
	if raw.REPL.HistoryFile != "" {
		cfg.REPL.HistoryFile = expandHome(raw.REPL.HistoryFile)
	}
	return cfg
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs ValidationError
	if c.MaxCallDepth <= 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be positive (got %d)", c.MaxCallDepth))
	} else if c.MaxCallDepth > MaxCallDepthLimit {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_call_depth must be at most %d (got %d)", MaxCallDepthLimit, c.MaxCallDepth))
	}
	if c.StepLimit < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("step_limit must not be negative (got %d)", c.StepLimit))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// SlogLevel maps LogLevel onto slog; invalid levels fall back to warn.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// ParseLevel accepts debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("log_level %q must be one of debug, info, warn, error", s)
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultHistoryName
	}
	return filepath.Join(home, defaultHistoryName)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
