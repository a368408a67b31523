package tasks

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	statusBulletRe    = regexp.MustCompile(`^- \*\*Status\*\*:\s*(.*?)\s*$`)
	depsBulletRe      = regexp.MustCompile(`^- \*\*Dependencies\*\*:\s*(.*?)\s*$`)
	updatedBulletRe   = regexp.MustCompile(`^- \*\*Updated At\*\*:\s*(.*?)\s*$`)
	dependsOnBulletRe = regexp.MustCompile(`^- \*\*Depends On\*\*:\s*(.*?)\s*$`)
	statusValueRe     = regexp.MustCompile(`^\[(.)\]\s*(.*)$`)
)

// Parse detects the format of contents and parses it. It never fails:
// structural problems are reported as diagnostics on the returned document.
func Parse(contents string) *Document {
	if DetectFormat(contents) == FormatEnhanced {
		return parseEnhanced(contents)
	}
	return parseCheckbox(contents)
}

func parseCheckbox(contents string) *Document {
	doc := &Document{Format: FormatCheckbox}
	n := 0
	for i, line := range splitLines(contents) {
		m := checkboxLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		st, ok := checkboxStatus(m[2])
		if !ok {
			doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
				Level:   LevelWarning,
				Message: fmt.Sprintf("unrecognized checkbox marker [%s]; line ignored", m[2]),
				Line:    i + 1,
			})
			continue
		}
		n++
		doc.Tasks = append(doc.Tasks, TaskItem{
			ID:      OrdinalID(n),
			Kind:    KindTask,
			Status:  st,
			Name:    strings.TrimSpace(m[3]),
			Line:    i + 1,
			RawText: line,
		})
	}
	doc.Progress = computeProgress(doc.Tasks)
	return doc
}

// enhancedParser holds the cursor state while walking an Enhanced document.
type enhancedParser struct {
	doc        *Document
	wave       int // index into doc.Waves, -1 outside a wave
	cur        int // index into doc.Tasks, -1 outside a task block
	waveHeader bool
	hasStatus  bool
	depLines   map[int]int
}

func parseEnhanced(contents string) *Document {
	p := &enhancedParser{
		doc:      &Document{Format: FormatEnhanced},
		wave:     -1,
		cur:      -1,
		depLines: make(map[int]int),
	}

	for i, line := range splitLines(contents) {
		p.line(i+1, line)
	}
	p.closeTask()

	p.flagDuplicates()
	p.flagUnresolved()
	p.markCheckpointWaves()
	p.doc.Progress = computeProgress(p.doc.Tasks)
	return p.doc
}

func (p *enhancedParser) line(lineNo int, line string) {
	if m := waveHeadingRe.FindStringSubmatch(line); m != nil {
		p.closeTask()
		p.doc.Waves = append(p.doc.Waves, Wave{ID: m[1], Name: m[2], Line: lineNo})
		p.wave = len(p.doc.Waves) - 1
		p.waveHeader = true
		return
	}

	if m := taskHeadingRe.FindStringSubmatch(line); m != nil {
		p.closeTask()
		p.openTask(lineNo, line, m[1], m[2])
		return
	}

	if blockBoundRe.MatchString(line) {
		p.closeTask()
		p.waveHeader = false
		if strings.HasPrefix(line, "## ") {
			p.wave = -1
		}
		return
	}

	trimmed := strings.TrimLeft(line, " \t")
	if p.cur < 0 {
		if p.waveHeader && p.wave >= 0 {
			if m := dependsOnBulletRe.FindStringSubmatch(trimmed); m != nil {
				p.doc.Waves[p.wave].DependsOn = splitIDList(m[1])
			}
		}
		return
	}

	task := &p.doc.Tasks[p.cur]
	switch {
	case statusBulletRe.MatchString(trimmed):
		m := statusBulletRe.FindStringSubmatch(trimmed)
		st, diag := parseStatusValue(m[1])
		task.Status = st
		p.hasStatus = true
		if diag != nil {
			id := task.ID
			diag.TaskID = &id
			diag.Line = lineNo
			p.doc.Diagnostics = append(p.doc.Diagnostics, *diag)
		}
	case depsBulletRe.MatchString(trimmed):
		m := depsBulletRe.FindStringSubmatch(trimmed)
		task.Dependencies = nil
		for _, dep := range splitIDList(m[1]) {
			task.Dependencies = appendUnique(task.Dependencies, NamedID(dep))
		}
		p.depLines[p.cur] = lineNo
	case updatedBulletRe.MatchString(trimmed):
		task.UpdatedAt = updatedBulletRe.FindStringSubmatch(trimmed)[1]
	}
}

func (p *enhancedParser) openTask(lineNo int, line, id, name string) {
	item := TaskItem{
		ID:      NamedID(id),
		Kind:    KindTask,
		Status:  StatusPending,
		Name:    name,
		Line:    lineNo,
		RawText: line,
	}
	if id == "Checkpoint" {
		item.Kind = KindCheckpoint
	}
	if p.wave >= 0 {
		w := &p.doc.Waves[p.wave]
		item.Wave = w.ID
		w.TaskIDs = append(w.TaskIDs, item.ID)
	}
	p.doc.Tasks = append(p.doc.Tasks, item)
	p.cur = len(p.doc.Tasks) - 1
	p.hasStatus = false
	p.waveHeader = false
}

func (p *enhancedParser) closeTask() {
	if p.cur >= 0 && !p.hasStatus {
		task := p.doc.Tasks[p.cur]
		id := task.ID
		p.doc.Diagnostics = append(p.doc.Diagnostics, Diagnostic{
			Level:   LevelInfo,
			Message: "no status line; assuming pending",
			TaskID:  &id,
			Line:    task.Line,
		})
	}
	p.cur = -1
}

// flagDuplicates warns on every repeated id after the first, checkpoints
// included. Earlier definitions stay addressable as "<id>@<wave>".
func (p *enhancedParser) flagDuplicates() {
	seen := make(map[TaskID]bool)
	for _, task := range p.doc.Tasks {
		if seen[task.ID] {
			id := task.ID
			p.doc.Diagnostics = append(p.doc.Diagnostics, Diagnostic{
				Level:   LevelWarning,
				Message: fmt.Sprintf("duplicate task id %s; the later definition wins", task.ID),
				TaskID:  &id,
				Line:    task.Line,
			})
		}
		seen[task.ID] = true
	}
}

func (p *enhancedParser) flagUnresolved() {
	known := make(map[TaskID]bool, len(p.doc.Tasks))
	for _, task := range p.doc.Tasks {
		known[task.ID] = true
	}
	for i, task := range p.doc.Tasks {
		for _, dep := range task.Dependencies {
			if known[dep] {
				continue
			}
			line, ok := p.depLines[i]
			if !ok {
				line = task.Line
			}
			id := task.ID
			p.doc.Diagnostics = append(p.doc.Diagnostics, Diagnostic{
				Level:   LevelError,
				Message: fmt.Sprintf("dependency %s does not match any task", dep),
				TaskID:  &id,
				Line:    line,
			})
		}
	}
}

func (p *enhancedParser) markCheckpointWaves() {
	for i := range p.doc.Waves {
		w := &p.doc.Waves[i]
		if strings.Contains(strings.ToLower(w.Name), "checkpoint") {
			w.Checkpoint = true
			continue
		}
		for _, id := range w.TaskIDs {
			if id == NamedID("Checkpoint") {
				w.Checkpoint = true
				break
			}
		}
	}
}

// parseStatusValue reads "[<marker>] <word>". The marker decides the
// status; a word that contradicts it is a warning.
func parseStatusValue(v string) (Status, *Diagnostic) {
	m := statusValueRe.FindStringSubmatch(v)
	if m == nil {
		return StatusPending, &Diagnostic{
			Level:   LevelError,
			Message: fmt.Sprintf("malformed status marker %q; assuming pending", v),
		}
	}
	marker, word := m[1], normalizeWord(m[2])

	mismatch := func(st Status) (Status, *Diagnostic) {
		if word == "" || word == st.String() {
			return st, nil
		}
		return st, &Diagnostic{
			Level:   LevelWarning,
			Message: fmt.Sprintf("status word %q does not match marker [%s]; using %s", m[2], marker, st),
		}
	}

	switch marker {
	case "x", "X":
		return mismatch(StatusComplete)
	case "-":
		return mismatch(StatusShelved)
	case "~", ">":
		return mismatch(StatusInProgress)
	case " ":
		if word == "in-progress" {
			return StatusInProgress, nil
		}
		return mismatch(StatusPending)
	}
	return StatusPending, &Diagnostic{
		Level:   LevelError,
		Message: fmt.Sprintf("malformed status marker [%s]; assuming pending", marker),
	}
}

// splitIDList parses "None" or a comma-separated list.
func splitIDList(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "none") {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(ids []TaskID, id TaskID) []TaskID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func computeProgress(items []TaskItem) Progress {
	var p Progress
	for _, t := range items {
		if t.Kind != KindTask {
			continue
		}
		p.Total++
		if t.Status == StatusComplete {
			p.Complete++
		}
	}
	return p
}
