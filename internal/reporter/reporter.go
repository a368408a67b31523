package reporter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/tasks"
	"github.com/joshharrison/specloom/internal/ui"
)

// Reporter renders the state of one tasks document.
type Reporter struct {
	Path    string
	Doc     *tasks.Document
	Ready   []tasks.TaskItem
	Blocked []graph.Blocked
	Cycle   []tasks.TaskID
}

// New derives readiness and any dependency cycle from a parsed document.
func New(path string, doc *tasks.Document) *Reporter {
	ready, blocked := graph.ComputeReadyAndBlocked(doc.Tasks)
	return &Reporter{
		Path:    path,
		Doc:     doc,
		Ready:   ready,
		Blocked: blocked,
		Cycle:   graph.FindCycle(graph.Edges(doc.Tasks)),
	}
}

// PrintStatus writes a terminal-friendly status table.
func (r *Reporter) PrintStatus(w io.Writer) {
	fmt.Fprintf(w, "%s %s — %s\n\n", ui.BoldCyan("🧵"), ui.Bold(r.Path), r.Summary())

	if r.Doc.Format == tasks.FormatEnhanced && len(r.Doc.Waves) > 0 {
		waves := r.Doc.Waves
		for wi, wave := range waves {
			title := fmt.Sprintf("%s %s", ui.BoldWhite("WAVE"), wave.ID)
			if wave.Name != "" {
				title += ": " + wave.Name
			}
			end := -1
			if wi+1 < len(waves) {
				end = waves[wi+1].Line
			}
			inWave := func(t tasks.TaskItem) bool {
				return t.Wave == wave.ID && t.Line > wave.Line && (end < 0 || t.Line < end)
			}

			fmt.Fprintf(w, "  🌊 %s (%s)\n", title, ui.WaveStatus(r.waveStatus(inWave)))
			r.printTasks(w, inWave)
			fmt.Fprintln(w)
		}

		loose := false
		for _, t := range r.Doc.Tasks {
			if t.Wave == "" {
				loose = true
				break
			}
		}
		if loose {
			fmt.Fprintf(w, "  %s\n", ui.BoldWhite("UNGROUPED"))
			r.printTasks(w, func(t tasks.TaskItem) bool { return t.Wave == "" })
			fmt.Fprintln(w)
		}
	} else {
		r.printTasks(w, func(tasks.TaskItem) bool { return true })
		fmt.Fprintln(w)
	}

	r.PrintNext(w, true)

	if r.Cycle != nil {
		fmt.Fprintf(w, "%s %s\n", ui.BoldRed("Cycle:"), graph.FormatCycle(r.Cycle))
	}

	if len(r.Doc.Diagnostics) > 0 {
		fmt.Fprintln(w)
		r.PrintDiagnostics(w)
	}
}

// PrintNext lists ready tasks, and blocked ones with their missing
// dependencies. Without all only the first ready task is shown.
func (r *Reporter) PrintNext(w io.Writer, all bool) {
	if len(r.Ready) == 0 {
		fmt.Fprintf(w, "%s %s\n", ui.Bold("Ready:"), ui.Dim("none"))
	} else {
		ready := r.Ready
		if !all {
			ready = ready[:1]
		}
		fmt.Fprintf(w, "%s\n", ui.Bold("Ready:"))
		for _, t := range ready {
			fmt.Fprintf(w, "  %s %s %s\n", ui.StatusIcon(t.Status), ui.TaskPrefix(r.Doc.Ref(t)), t.Name)
		}
	}

	if !all || len(r.Blocked) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", ui.Bold("Blocked:"))
	for _, b := range r.Blocked {
		fmt.Fprintf(w, "  %s %s %s %s\n", ui.Red("✗"), ui.TaskPrefix(r.Doc.Ref(b.Task)), b.Task.Name, ui.Dim("("+b.String()+")"))
	}
}

// PrintDiagnostics writes a per-level count followed by each diagnostic
// in the canonical one-line form.
func (r *Reporter) PrintDiagnostics(w io.Writer) {
	counts := make(map[tasks.Level]int)
	for _, d := range r.Doc.Diagnostics {
		counts[d.Level]++
	}
	fmt.Fprintf(w, "%s", ui.Bold("Diagnostics:"))
	for _, l := range []tasks.Level{tasks.LevelError, tasks.LevelWarning, tasks.LevelInfo} {
		if counts[l] > 0 {
			fmt.Fprintf(w, "  %s %d %s", ui.LevelIcon(l), counts[l], l)
		}
	}
	fmt.Fprintln(w)
	for _, d := range r.Doc.Diagnostics {
		fmt.Fprintln(w, d.Render(r.Path))
	}
}

// Summary returns a one-line progress summary.
func (r *Reporter) Summary() string {
	p := r.Doc.Progress
	text := fmt.Sprintf("%d/%d tasks complete", p.Complete, p.Total)
	if p.Total > 0 && p.Complete == p.Total {
		text = ui.BoldGreen(text)
	}
	return fmt.Sprintf("%s %s", text, ui.Dim("("+r.Doc.Format.String()+")"))
}

func (r *Reporter) printTasks(w io.Writer, match func(tasks.TaskItem) bool) {
	for _, t := range r.Doc.Tasks {
		if !match(t) {
			continue
		}

		name := truncate(t.Name, 50)
		if t.Kind == tasks.KindCheckpoint {
			name = ui.BoldYellow("⚑ ") + name
		}

		meta := ""
		if t.UpdatedAt != "" {
			meta = ui.Dim("[" + t.UpdatedAt + "]")
		}

		fmt.Fprintf(w, "    %s %-8s %-50s %s %s\n", ui.StatusIcon(t.Status), ui.BoldMagenta(r.Doc.Ref(t)), name, ui.StatusWord(t.Status), meta)
	}
}

// waveStatus is done when every item is finished, active when something
// in it is in progress or ready, and blocked otherwise.
func (r *Reporter) waveStatus(inWave func(tasks.TaskItem) bool) string {
	ready := make(map[int]bool, len(r.Ready))
	for _, t := range r.Ready {
		ready[t.Line] = true
	}

	allDone := true
	active := false
	for _, t := range r.Doc.Tasks {
		if !inWave(t) {
			continue
		}
		if !t.Status.Terminal() {
			allDone = false
		}
		if t.Status == tasks.StatusInProgress || ready[t.Line] {
			active = true
		}
	}
	if allDone {
		return "done"
	}
	if active {
		return "active"
	}
	return "blocked"
}

// JSON returns machine-readable status.
func (r *Reporter) JSON() ([]byte, error) {
	type blocked struct {
		TaskID  tasks.TaskID   `json:"task_id"`
		Name    string         `json:"name"`
		Missing []tasks.TaskID `json:"missing_deps"`
	}

	type output struct {
		Path        string             `json:"path"`
		Format      tasks.Format       `json:"format"`
		Progress    tasks.Progress     `json:"progress"`
		Tasks       []tasks.TaskItem   `json:"tasks"`
		Waves       []tasks.Wave       `json:"waves"`
		Ready       []tasks.TaskID     `json:"ready"`
		Blocked     []blocked          `json:"blocked"`
		Cycle       []tasks.TaskID     `json:"cycle,omitempty"`
		Diagnostics []tasks.Diagnostic `json:"diagnostics"`
	}

	o := output{
		Path:        r.Path,
		Format:      r.Doc.Format,
		Progress:    r.Doc.Progress,
		Tasks:       nonNil(r.Doc.Tasks),
		Waves:       nonNil(r.Doc.Waves),
		Ready:       []tasks.TaskID{},
		Blocked:     []blocked{},
		Cycle:       r.Cycle,
		Diagnostics: nonNil(r.Doc.Diagnostics),
	}
	for _, t := range r.Ready {
		o.Ready = append(o.Ready, t.ID)
	}
	for _, b := range r.Blocked {
		o.Blocked = append(o.Blocked, blocked{TaskID: b.Task.ID, Name: b.Task.Name, Missing: b.Missing})
	}

	return json.MarshalIndent(o, "", "  ")
}

// truncate shortens s to at most limit runes, ending in "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
