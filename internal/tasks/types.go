package tasks

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Format identifies which tasks.md dialect a document is written in.
type Format int

const (
	FormatCheckbox Format = iota
	FormatEnhanced
)

func (f Format) String() string {
	if f == FormatEnhanced {
		return "enhanced"
	}
	return "checkbox"
}

// MarshalJSON renders the format name.
func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// ParseFormat accepts "checkbox" or "enhanced".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checkbox":
		return FormatCheckbox, nil
	case "enhanced":
		return FormatEnhanced, nil
	}
	return FormatCheckbox, fmt.Errorf("unknown task format %q (use checkbox or enhanced)", s)
}

// TaskID identifies a task. Checkbox tasks are addressed by their 1-based
// position, Enhanced tasks by the token in their heading. The two kinds
// never compare equal, even when they render the same.
type TaskID struct {
	ordinal int
	name    string
}

// OrdinalID returns the id of the n-th checkbox line.
func OrdinalID(n int) TaskID { return TaskID{ordinal: n} }

// NamedID returns the id of an Enhanced task heading.
func NamedID(name string) TaskID { return TaskID{name: name} }

// Ordinal reports the position of a checkbox id.
func (id TaskID) Ordinal() (int, bool) { return id.ordinal, id.ordinal > 0 }

// IsZero reports whether id was never assigned.
func (id TaskID) IsZero() bool { return id.ordinal == 0 && id.name == "" }

func (id TaskID) String() string {
	if id.ordinal > 0 {
		return strconv.Itoa(id.ordinal)
	}
	return id.name
}

// MarshalJSON renders the id as a plain string.
func (id TaskID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// Kind separates executable work from manual gates.
type Kind int

const (
	KindTask Kind = iota
	KindCheckpoint
)

func (k Kind) String() string {
	if k == KindCheckpoint {
		return "checkpoint"
	}
	return "task"
}

// MarshalJSON renders the kind name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Status is the lifecycle state of a task.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusComplete
	StatusShelved
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in-progress"
	case StatusComplete:
		return "complete"
	case StatusShelved:
		return "shelved"
	default:
		return "pending"
	}
}

// MarshalJSON renders the status word.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Terminal reports whether the task needs no further action.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusShelved
}

// ParseStatus accepts the status words used in Enhanced documents.
func ParseStatus(s string) (Status, error) {
	switch normalizeWord(s) {
	case "pending":
		return StatusPending, nil
	case "in-progress":
		return StatusInProgress, nil
	case "complete":
		return StatusComplete, nil
	case "shelved":
		return StatusShelved, nil
	}
	return StatusPending, fmt.Errorf("unknown status %q", s)
}

// normalizeWord folds the spellings agents tend to write for a status.
func normalizeWord(s string) string {
	w := strings.ToLower(strings.TrimSpace(s))
	w = strings.NewReplacer("_", "-", " ", "-").Replace(w)
	switch w {
	case "done", "completed":
		return "complete"
	case "inprogress", "started":
		return "in-progress"
	case "todo":
		return "pending"
	}
	return w
}

// TaskItem is one parsed task or checkpoint.
type TaskItem struct {
	ID           TaskID   `json:"id"`
	Kind         Kind     `json:"kind"`
	Status       Status   `json:"status"`
	Name         string   `json:"name"`
	Dependencies []TaskID `json:"dependencies"`
	Wave         string   `json:"wave,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
	Line         int      `json:"line"`
	RawText      string   `json:"raw_text"`
}

// Wave groups Enhanced tasks under a "## Wave N" heading.
type Wave struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Checkpoint bool     `json:"checkpoint"`
	DependsOn  []string `json:"depends_on,omitempty"` // informational only
	TaskIDs    []TaskID `json:"task_ids"`
	Line       int      `json:"line"`
}

// Progress counts Task-kind items only.
type Progress struct {
	Complete int `json:"complete"`
	Total    int `json:"total"`
}

// Level is the severity of a diagnostic.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// MarshalJSON renders the level name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Diagnostic describes a structural issue found while parsing. It is
// never a hard failure.
type Diagnostic struct {
	Level   Level   `json:"level"`
	Message string  `json:"message"`
	TaskID  *TaskID `json:"task_id,omitempty"`
	Line    int     `json:"line,omitempty"` // 0 when not tied to a line
}

// Render formats the diagnostic as "- <path>[:<line>]: [<task_id>: ]<message>".
func (d Diagnostic) Render(path string) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(path)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
	}
	b.WriteString(": ")
	if d.TaskID != nil {
		b.WriteString(d.TaskID.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// Document is the result of parsing a tasks.md. It is rebuilt on every
// read and never mutated in place.
type Document struct {
	Format      Format       `json:"format"`
	Tasks       []TaskItem   `json:"tasks"`
	Waves       []Wave       `json:"waves"`
	Progress    Progress     `json:"progress"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Lookup returns the task with the given id. When ids are duplicated the
// last one in document order wins.
func (d *Document) Lookup(id TaskID) (*TaskItem, bool) {
	for i := len(d.Tasks) - 1; i >= 0; i-- {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i], true
		}
	}
	return nil, false
}

// ResolveID maps CLI input to a task id for this document's format.
func (d *Document) ResolveID(s string) (TaskID, error) {
	s = strings.TrimSpace(s)
	if d.Format == FormatCheckbox {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return TaskID{}, fmt.Errorf("%w: %q is not a checkbox ordinal", ErrTaskNotFound, s)
		}
		return OrdinalID(n), nil
	}
	return NamedID(s), nil
}

// Ref is how t is addressed on the command line: its id, or "<id>@<wave>"
// when the id is repeated in the document and t belongs to a wave.
func (d *Document) Ref(t TaskItem) string {
	if t.Wave == "" {
		return t.ID.String()
	}
	n := 0
	for _, other := range d.Tasks {
		if other.ID == t.ID {
			n++
		}
	}
	if n < 2 {
		return t.ID.String()
	}
	return t.ID.String() + "@" + t.Wave
}

// Resolve finds the task a command-line reference names. A plain id
// resolves to the last definition, like Lookup. In Enhanced documents
// "<id>@<wave>" selects the last definition of id inside that wave, which
// is the only way to reach a superseded duplicate such as an earlier
// Checkpoint.
func (d *Document) Resolve(s string) (*TaskItem, error) {
	s = strings.TrimSpace(s)
	if d.Format == FormatEnhanced {
		if id, wave, ok := strings.Cut(s, "@"); ok {
			for i := len(d.Tasks) - 1; i >= 0; i-- {
				if t := &d.Tasks[i]; t.ID == NamedID(id) && t.Wave == wave {
					return t, nil
				}
			}
			return nil, fmt.Errorf("%w: no task %s in wave %s", ErrTaskNotFound, id, wave)
		}
	}

	id, err := d.ResolveID(s)
	if err != nil {
		return nil, err
	}
	t, ok := d.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, s)
	}
	return t, nil
}

// HasErrors reports whether any diagnostic is at error level.
func (d *Document) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Level == LevelError {
			return true
		}
	}
	return false
}
