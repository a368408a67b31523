package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshharrison/specloom/internal/tasks"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ChangesDir != "changes" {
		t.Errorf("expected changes_dir 'changes', got '%s'", cfg.ChangesDir)
	}
	if cfg.DefaultFormat != "enhanced" {
		t.Errorf("expected default_format 'enhanced', got '%s'", cfg.DefaultFormat)
	}
	if !cfg.Color {
		t.Error("expected color to be enabled by default")
	}
}

func TestLoadFrom_NoFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "global.yaml"), filepath.Join(dir, "project.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ChangesDir != "changes" || cfg.DefaultFormat != "enhanced" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFrom_ProjectOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global", "config.yaml")
	project := filepath.Join(dir, "project", "config.yaml")

	writeFile(t, global, "changes_dir: specs\nmodel: global-model\ncolor: false\n")
	writeFile(t, project, "model: project-model\ndefault_format: checkbox\n")

	cfg, err := LoadFrom(global, project)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.ChangesDir != "specs" {
		t.Errorf("expected changes_dir from global, got %s", cfg.ChangesDir)
	}
	if cfg.Model != "project-model" {
		t.Errorf("expected project model to win, got %s", cfg.Model)
	}
	if cfg.Color {
		t.Error("expected color disabled by global config")
	}
	f, err := cfg.Format()
	if err != nil || f != tasks.FormatCheckbox {
		t.Errorf("expected checkbox format, got %v (%v)", f, err)
	}
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("SPECLOOM_CHANGES_DIR", "from-env")

	cfg, err := LoadFrom()
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ChangesDir != "from-env" {
		t.Errorf("expected env override, got %s", cfg.ChangesDir)
	}
}

func TestLoadFrom_BadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "default_format: fancy\n")

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for unknown default_format")
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "changes_dir: [unclosed\n")

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestYAML(t *testing.T) {
	data, err := DefaultConfig().YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	out := string(data)
	for _, want := range []string{"changes_dir: changes", "default_format: enhanced", "color: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}
