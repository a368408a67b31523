package tasks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTaskNotFound is returned when an id or ordinal matches no task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrUnsupportedTransition is returned when the format cannot express
	// the requested status.
	ErrUnsupportedTransition = errors.New("unsupported status transition")
)

// UpdatedAtLayout is the date format written to "Updated At" bullets.
const UpdatedAtLayout = "2006-01-02"

// checkboxStatus maps a checkbox marker character to a status.
func checkboxStatus(marker string) (Status, bool) {
	switch marker {
	case " ":
		return StatusPending, true
	case "x", "X":
		return StatusComplete, true
	case "~", ">":
		return StatusInProgress, true
	}
	return StatusPending, false
}

func checkboxCell(st Status) string {
	switch st {
	case StatusComplete:
		return "[x]"
	case StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

// StatusValue is the text written after "- **Status**: " for st.
func StatusValue(st Status) string {
	switch st {
	case StatusComplete:
		return "[x] complete"
	case StatusInProgress:
		return "[ ] in-progress"
	case StatusShelved:
		return "[-] shelved"
	default:
		return "[ ] pending"
	}
}

// UpdateCheckboxStatus rewrites the marker cell of the ordinal-th checkbox
// line. Bullet, indentation and trailing text are left untouched.
func UpdateCheckboxStatus(contents, ordinal string, st Status) (string, error) {
	if st == StatusShelved {
		return contents, fmt.Errorf("%w: checkbox format does not support shelving", ErrUnsupportedTransition)
	}
	n, err := strconv.Atoi(strings.TrimSpace(ordinal))
	if err != nil || n <= 0 {
		return contents, fmt.Errorf("%w: %q is not a positive checkbox ordinal", ErrTaskNotFound, ordinal)
	}

	lines := strings.Split(contents, "\n")
	count := 0
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		loc := checkboxLineRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		if _, ok := checkboxStatus(line[loc[4]:loc[5]]); !ok {
			continue
		}
		count++
		if count != n {
			continue
		}
		// loc[4]-1 is the '[' and loc[5] the ']' around the marker.
		lines[i] = raw[:loc[4]-1] + checkboxCell(st) + raw[loc[5]+1:]
		return strings.Join(lines, "\n"), nil
	}
	return contents, fmt.Errorf("%w: checkbox task %d (document has %d)", ErrTaskNotFound, n, count)
}

// UpdateEnhancedStatus sets the Status and Updated At bullets of the task
// headed "### [Task ]<id>: ...". The date comes from now, never the clock.
//
// When only one bullet exists the other is placed next to it: Updated At
// immediately before Status, or Status immediately after Updated At. When
// neither exists both are appended to the end of the block.
func UpdateEnhancedStatus(contents, id string, st Status, now time.Time) (string, error) {
	lines := strings.Split(contents, "\n")
	blk, ok := findBlock(lines, id)
	if !ok {
		return contents, fmt.Errorf("%w: no heading for task %s", ErrTaskNotFound, id)
	}
	return setStatus(lines, blk, st, now), nil
}

// UpdateEnhancedStatusAt is UpdateEnhancedStatus for the heading on the
// given 1-based line, which must still open a block for id. It reaches
// one definition of a repeated id, e.g. the Checkpoint of an earlier wave.
func UpdateEnhancedStatusAt(contents string, line int, id string, st Status, now time.Time) (string, error) {
	lines := strings.Split(contents, "\n")
	if line < 1 || line > len(lines) {
		return contents, fmt.Errorf("%w: line %d is outside the document", ErrTaskNotFound, line)
	}
	m := taskHeadingRe.FindStringSubmatch(strings.TrimSuffix(lines[line-1], "\r"))
	if m == nil || m[1] != id {
		return contents, fmt.Errorf("%w: line %d is not the heading of task %s", ErrTaskNotFound, line, id)
	}
	return setStatus(lines, blockAt(lines, line-1), st, now), nil
}

func setStatus(lines []string, blk block, st Status, now time.Time) string {
	statusIdx := blk.find(lines, statusBulletRe.MatchString)
	updatedIdx := blk.find(lines, updatedBulletRe.MatchString)
	date := now.Format(UpdatedAtLayout)

	statusText := func(indent string) string { return indent + "- **Status**: " + StatusValue(st) }
	updatedText := func(indent string) string { return indent + "- **Updated At**: " + date }

	switch {
	case statusIdx >= 0 && updatedIdx >= 0:
		lines[statusIdx] = replaceKeepEOL(lines[statusIdx], statusText(indentOf(lines[statusIdx])))
		lines[updatedIdx] = replaceKeepEOL(lines[updatedIdx], updatedText(indentOf(lines[updatedIdx])))
	case statusIdx >= 0:
		indent := indentOf(lines[statusIdx])
		lines[statusIdx] = replaceKeepEOL(lines[statusIdx], statusText(indent))
		lines = insertLines(lines, statusIdx, updatedText(indent)+blk.eol)
	case updatedIdx >= 0:
		indent := indentOf(lines[updatedIdx])
		lines[updatedIdx] = replaceKeepEOL(lines[updatedIdx], updatedText(indent))
		lines = insertLines(lines, updatedIdx+1, statusText(indent)+blk.eol)
	default:
		at := blk.lastContent(lines) + 1
		lines = insertLines(lines, at, updatedText("")+blk.eol, statusText("")+blk.eol)
	}
	return strings.Join(lines, "\n")
}

// UpdateEnhancedDependencies replaces the Dependencies bullet of a task, or
// adds one after its Status bullet (or at the end of the block).
func UpdateEnhancedDependencies(contents, id string, deps []string) (string, error) {
	lines := strings.Split(contents, "\n")
	blk, ok := findBlock(lines, id)
	if !ok {
		return contents, fmt.Errorf("%w: no heading for task %s", ErrTaskNotFound, id)
	}

	value := "None"
	if len(deps) > 0 {
		value = strings.Join(deps, ", ")
	}
	text := func(indent string) string { return indent + "- **Dependencies**: " + value }

	if idx := blk.find(lines, depsBulletRe.MatchString); idx >= 0 {
		lines[idx] = replaceKeepEOL(lines[idx], text(indentOf(lines[idx])))
		return strings.Join(lines, "\n"), nil
	}
	if idx := blk.find(lines, statusBulletRe.MatchString); idx >= 0 {
		lines = insertLines(lines, idx+1, text(indentOf(lines[idx]))+blk.eol)
		return strings.Join(lines, "\n"), nil
	}
	lines = insertLines(lines, blk.lastContent(lines)+1, text("")+blk.eol)
	return strings.Join(lines, "\n"), nil
}

// block spans a task heading (start) up to, not including, end.
type block struct {
	start, end int
	eol        string // "\r" for CRLF documents
}

// findBlock locates the last heading for id, matching the parser's
// last-wins rule for duplicate ids.
func findBlock(lines []string, id string) (block, bool) {
	start := -1
	for i, raw := range lines {
		m := taskHeadingRe.FindStringSubmatch(strings.TrimSuffix(raw, "\r"))
		if m != nil && m[1] == id {
			start = i
		}
	}
	if start < 0 {
		return block{}, false
	}
	return blockAt(lines, start), true
}

// blockAt spans the block whose heading is lines[start].
func blockAt(lines []string, start int) block {
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if blockBoundRe.MatchString(lines[i]) {
			end = i
			break
		}
	}
	b := block{start: start, end: end}
	if strings.HasSuffix(lines[start], "\r") {
		b.eol = "\r"
	}
	return b
}

func (b block) find(lines []string, match func(string) bool) int {
	for i := b.start + 1; i < b.end; i++ {
		if match(strings.TrimLeft(strings.TrimSuffix(lines[i], "\r"), " \t")) {
			return i
		}
	}
	return -1
}

// lastContent returns the index of the last non-blank line in the block,
// which is the heading itself for an empty block.
func (b block) lastContent(lines []string) int {
	for i := b.end - 1; i > b.start; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return b.start
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func replaceKeepEOL(old, text string) string {
	if strings.HasSuffix(old, "\r") {
		return text + "\r"
	}
	return text
}

func insertLines(lines []string, at int, add ...string) []string {
	out := make([]string, 0, len(lines)+len(add))
	out = append(out, lines[:at]...)
	out = append(out, add...)
	return append(out, lines[at:]...)
}
