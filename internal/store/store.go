package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/specloom/internal/tasks"
)

// TasksFile is the name of the task list inside a change directory.
const TasksFile = "tasks.md"

const filePerms = 0644

// ErrExists is returned by Init when a task list is already present.
var ErrExists = errors.New("tasks file already exists")

// Store resolves change names to task lists under a changes directory.
type Store struct {
	Root string
}

// New creates a Store rooted at changesDir.
func New(changesDir string) *Store {
	return &Store{Root: changesDir}
}

// Path returns the tasks.md path for a change. Change names are single
// path elements.
func (s *Store) Path(change string) (string, error) {
	if change == "" || change == "." || change == ".." || strings.ContainsAny(change, `/\`) {
		return "", fmt.Errorf("invalid change name %q", change)
	}
	return filepath.Join(s.Root, change, TasksFile), nil
}

// Changes lists the change directories that hold a task list, sorted by name.
func (s *Store) Changes() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read changes dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.Root, e.Name(), TasksFile)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Init writes a starter task list for change in the given format.
func (s *Store) Init(change string, format tasks.Format, force bool) (string, error) {
	path, err := s.Path(change)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create change dir: %w", err)
	}
	if err := Write(path, Template(change, format)); err != nil {
		return "", err
	}
	return path, nil
}

// Read returns the contents of a task list.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read tasks: %w", err)
	}
	return string(data), nil
}

// Write replaces path with contents via write-then-rename, so readers
// never see a partial file.
func Write(path, contents string) error {
	if err := atomic.WriteFile(path, strings.NewReader(contents)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(path, filePerms); err != nil {
		return fmt.Errorf("set permissions on %s: %w", path, err)
	}
	return nil
}

// Update reads path, applies fn and writes the result back. Nothing is
// written when fn fails or leaves the contents unchanged.
func Update(path string, fn func(contents string) (string, error)) error {
	contents, err := Read(path)
	if err != nil {
		return err
	}
	updated, err := fn(contents)
	if err != nil {
		return err
	}
	if updated == contents {
		return nil
	}
	return Write(path, updated)
}

// WriteStructured encodes v as YAML for .yaml/.yml paths and as indented
// JSON otherwise, then writes it atomically.
func WriteStructured(path string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return Write(path, string(data))
}

// Template returns a starter task list.
func Template(change string, format tasks.Format) string {
	if format == tasks.FormatCheckbox {
		return fmt.Sprintf(`# Tasks: %s

- [ ] First task
- [ ] Second task
`, change)
	}
	return fmt.Sprintf(`# Tasks: %s

## Wave 1: Foundations
- **Depends On**: None

### Task 1.1: First task
- **Status**: [ ] pending
- **Dependencies**: None

### Task 1.2: Second task
- **Status**: [ ] pending
- **Dependencies**: 1.1

## Wave 2: Checkpoint
- **Depends On**: 1

### Checkpoint: Review wave 1
- **Status**: [ ] pending
- **Dependencies**: 1.2
`, change)
}
