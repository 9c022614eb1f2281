package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MaxCallDepth != DefaultMaxCallDepth || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
	if cfg.REPL.Prompt != "> " || cfg.REPL.Continuation != "... " {
		t.Fatalf("unexpected repl defaults %#v", cfg.REPL)
	}
	if filepath.Base(cfg.REPL.HistoryFile) != ".lox_history" {
		t.Fatalf("unexpected history file %q", cfg.REPL.HistoryFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
max_call_depth: 128
step_limit: 1000
log_level: DEBUG
trace: true
repl:
  prompt: "lox> "
  continuation: ""
  history_file: /tmp/hist
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCallDepth != 128 || cfg.StepLimit != 1000 || !cfg.Trace {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
	if cfg.REPL.Prompt != "lox> " || cfg.REPL.Continuation != "" || cfg.REPL.HistoryFile != "/tmp/hist" {
		t.Fatalf("unexpected repl config %#v", cfg.REPL)
	}
}

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCallDepth != DefaultMaxCallDepth {
		t.Fatalf("expected default depth, got %d", cfg.MaxCallDepth)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse(strings.NewReader("max_depth: 3\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestValidationAggregatesIssues(t *testing.T) {
	_, err := Parse(strings.NewReader("max_call_depth: 0\nstep_limit: -1\nlog_level: loud\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", verr.Issues)
	}
	if !strings.HasPrefix(verr.Error(), "config validation failed:") {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestValidationBoundsMaxCallDepth(t *testing.T) {
	if _, err := Parse(strings.NewReader("max_call_depth: 65536\n")); err != nil {
		t.Fatalf("expected limit itself to be accepted, got %v", err)
	}
	_, err := Parse(strings.NewReader("max_call_depth: 100000000\n"))
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) != 1 {
		t.Fatalf("expected one validation issue, got %v", err)
	}
	if !strings.Contains(verr.Issues[0], "at most 65536") {
		t.Fatalf("unexpected issue %q", verr.Issues[0])
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox.yml")
	if err := os.WriteFile(path, []byte("max_call_depth: 10\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCallDepth != 10 || cfg.Path != path {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if _, err := Load(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLocate(t *testing.T) {
	t.Setenv(EnvVar, "/from/env.yml")
	if got := Locate("/explicit.yml"); got != "/explicit.yml" {
		t.Fatalf("explicit path must win, got %q", got)
	}
	if got := Locate(""); got != "/from/env.yml" {
		t.Fatalf("expected env path, got %q", got)
	}
	t.Setenv(EnvVar, "")
	if got := Locate(""); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
}
