package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/specloom/internal/tasks"
)

func TestPath(t *testing.T) {
	s := New("changes")

	got, err := s.Path("add-login")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if want := filepath.Join("changes", "add-login", "tasks.md"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		if _, err := s.Path(bad); err == nil {
			t.Errorf("expected error for change name %q", bad)
		}
	}
}

func TestInit(t *testing.T) {
	s := New(t.TempDir())

	path, err := s.Init("add-login", tasks.FormatEnhanced, false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	contents, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	doc := tasks.Parse(contents)
	if doc.Format != tasks.FormatEnhanced {
		t.Errorf("expected enhanced template, got %s", doc.Format)
	}
	if doc.Progress.Total != 2 {
		t.Errorf("expected 2 tasks in template, got %d", doc.Progress.Total)
	}
	if len(doc.Diagnostics) != 0 {
		t.Errorf("template should parse cleanly, got %v", doc.Diagnostics)
	}

	// A second init without force must not clobber the file.
	if _, err := s.Init("add-login", tasks.FormatCheckbox, false); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}

	if _, err := s.Init("add-login", tasks.FormatCheckbox, true); err != nil {
		t.Fatalf("Init with force: %v", err)
	}
	contents, _ = Read(path)
	if tasks.DetectFormat(contents) != tasks.FormatCheckbox {
		t.Errorf("expected checkbox template after force, got:\n%s", contents)
	}
}

func TestChanges(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	for _, c := range []string{"zeta", "alpha"} {
		if _, err := s.Init(c, tasks.FormatCheckbox, false); err != nil {
			t.Fatalf("Init %s: %v", c, err)
		}
	}
	os.MkdirAll(filepath.Join(root, "empty"), 0755)

	got, err := s.Changes()
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if strings.Join(got, ",") != "alpha,zeta" {
		t.Errorf("expected [alpha zeta], got %v", got)
	}

	missing, err := New(filepath.Join(root, "nope")).Changes()
	if err != nil || len(missing) != 0 {
		t.Errorf("expected no changes and no error for a missing dir, got %v, %v", missing, err)
	}
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	if err := Write(path, "- [ ] a\r\n- [ ] b\r\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	err := Update(path, func(c string) (string, error) {
		return tasks.UpdateCheckboxStatus(c, "2", tasks.StatusComplete)
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := Read(path)
	if got != "- [ ] a\r\n- [x] b\r\n" {
		t.Errorf("unexpected contents %q", got)
	}
}

func TestUpdate_ErrorLeavesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.md")
	Write(path, "- [ ] a\n")

	err := Update(path, func(c string) (string, error) {
		return tasks.UpdateCheckboxStatus(c, "7", tasks.StatusComplete)
	})
	if !errors.Is(err, tasks.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	got, _ := Read(path)
	if got != "- [ ] a\n" {
		t.Errorf("file should be untouched, got %q", got)
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteStructured(t *testing.T) {
	dir := t.TempDir()
	v := map[string]interface{}{"id": "plan-1", "total_waves": 2}

	jsonPath := filepath.Join(dir, "plan.json")
	if err := WriteStructured(jsonPath, v); err != nil {
		t.Fatalf("WriteStructured json: %v", err)
	}
	data, _ := os.ReadFile(jsonPath)
	var fromJSON map[string]interface{}
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if fromJSON["id"] != "plan-1" {
		t.Errorf("expected id plan-1, got %v", fromJSON["id"])
	}

	yamlPath := filepath.Join(dir, "plan.yaml")
	if err := WriteStructured(yamlPath, v); err != nil {
		t.Fatalf("WriteStructured yaml: %v", err)
	}
	data, _ = os.ReadFile(yamlPath)
	var fromYAML map[string]interface{}
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("unmarshal yaml: %v", err)
	}
	if fromYAML["total_waves"] != 2 {
		t.Errorf("expected total_waves 2, got %v", fromYAML["total_waves"])
	}
}
