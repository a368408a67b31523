package tasks

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var (
	day1 = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)
	day2 = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
)

func TestUpdateCheckboxStatus_StartFirst(t *testing.T) {
	got, err := UpdateCheckboxStatus("- [ ] first\n* [ ] second\n", "1", StatusInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "- [~] first\n* [ ] second\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateCheckboxStatus_PreservesLine(t *testing.T) {
	in := "intro\n    * [ ] keep *this*  [ ] text\n- [x] done\r\n"
	got, err := UpdateCheckboxStatus(in, "2", StatusPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "intro\n    * [ ] keep *this*  [ ] text\n- [ ] done\r\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got, err = UpdateCheckboxStatus(in, "1", StatusComplete)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "intro\n    * [x] keep *this*  [ ] text\n- [x] done\r\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateCheckboxStatus_Shelve(t *testing.T) {
	_, err := UpdateCheckboxStatus("- [ ] a\n", "1", StatusShelved)
	if !errors.Is(err, ErrUnsupportedTransition) {
		t.Fatalf("expected ErrUnsupportedTransition, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not support shelving") {
		t.Errorf("expected shelving message, got %q", err)
	}
}

func TestUpdateCheckboxStatus_NotFound(t *testing.T) {
	for _, ordinal := range []string{"0", "-1", "abc", "", "3"} {
		_, err := UpdateCheckboxStatus("- [ ] a\n- [ ] b\n- [?] skipped\n", ordinal, StatusComplete)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("ordinal %q: expected ErrTaskNotFound, got %v", ordinal, err)
		}
	}
}

func TestUpdateCheckboxStatus_RoundTrip(t *testing.T) {
	in := "- [ ] a\n- [x] b\n  * [~] c\n- [ ] d\n"
	before := Parse(in)

	out, err := UpdateCheckboxStatus(in, "3", StatusComplete)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := Parse(out)

	if len(after.Tasks) != len(before.Tasks) {
		t.Fatalf("task count changed: %d -> %d", len(before.Tasks), len(after.Tasks))
	}
	for i := range before.Tasks {
		b, a := before.Tasks[i], after.Tasks[i]
		if b.ID != a.ID || b.Name != a.Name {
			t.Errorf("task %d identity changed: %+v -> %+v", i, b, a)
		}
		if i == 2 {
			if a.Status != StatusComplete {
				t.Errorf("expected target complete, got %s", a.Status)
			}
			continue
		}
		if b.Status != a.Status || b.RawText != a.RawText {
			t.Errorf("task %d changed: %+v -> %+v", i, b, a)
		}
	}
}

func TestUpdateEnhancedStatus_AppendsBothAtBlockEnd(t *testing.T) {
	in := "## Wave 1\n### Task 1.1: Build\nSome notes.\n\n### Task 1.2: Next\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## Wave 1\n### Task 1.1: Build\nSome notes.\n- **Updated At**: 2026-03-04\n- **Status**: [x] complete\n\n### Task 1.2: Next\n"
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestUpdateEnhancedStatus_EmptyBlockAtEOF(t *testing.T) {
	got, err := UpdateEnhancedStatus("### Task 1.1: Build\n", "1.1", StatusInProgress, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### Task 1.1: Build\n- **Updated At**: 2026-03-04\n- **Status**: [ ] in-progress\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateEnhancedStatus_ReplacesExisting(t *testing.T) {
	in := "### 1.1: Build\n- **Updated At**: 2020-01-01\n- **Status**: [ ] pending\n- **Dependencies**: None\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusShelved, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### 1.1: Build\n- **Updated At**: 2026-03-04\n- **Status**: [-] shelved\n- **Dependencies**: None\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateEnhancedStatus_InsertsUpdatedBeforeStatus(t *testing.T) {
	in := "### Task 1.1: Build\n  - **Status**: [ ] pending\n  - **Dependencies**: None\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### Task 1.1: Build\n  - **Updated At**: 2026-03-04\n  - **Status**: [x] complete\n  - **Dependencies**: None\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateEnhancedStatus_InsertsStatusAfterUpdated(t *testing.T) {
	in := "### Task 1.1: Build\n- **Dependencies**: None\n- **Updated At**: 2020-01-01\nNotes\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusPending, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### Task 1.1: Build\n- **Dependencies**: None\n- **Updated At**: 2026-03-04\n- **Status**: [ ] pending\nNotes\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateEnhancedStatus_OnlyTouchesTargetBlock(t *testing.T) {
	in := "### Task 1.1: A\n- **Status**: [ ] pending\n\n### Task 1.10: B\n- **Status**: [ ] pending\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := Parse(got)
	b, _ := doc.Lookup(NamedID("1.10"))
	if b.Status != StatusPending {
		t.Errorf("expected 1.10 untouched, got %s", b.Status)
	}
	a, _ := doc.Lookup(NamedID("1.1"))
	if a.Status != StatusComplete || a.UpdatedAt != "2026-03-04" {
		t.Errorf("expected 1.1 complete on 2026-03-04, got %+v", a)
	}
}

func TestUpdateEnhancedStatus_Idempotent(t *testing.T) {
	in := "## Wave 1\n### Task 1.1: Build\n- **Dependencies**: None\n"
	once, err := UpdateEnhancedStatus(in, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := UpdateEnhancedStatus(once, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != twice {
		t.Errorf("expected identical output, got %q vs %q", once, twice)
	}

	later, err := UpdateEnhancedStatus(once, "1.1", StatusComplete, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Replace(later, "2026-03-05", "2026-03-04", 1) != once {
		t.Errorf("expected only the date to differ, got %q vs %q", once, later)
	}
}

func TestUpdateEnhancedStatus_NotFound(t *testing.T) {
	in := "### Task 1.1: Build\n"
	got, err := UpdateEnhancedStatus(in, "1.2", StatusComplete, day1)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if got != in {
		t.Errorf("expected contents unchanged, got %q", got)
	}

	// id match is case-sensitive
	if _, err := UpdateEnhancedStatus("### Task Checkpoint: gate\n", "checkpoint", StatusComplete, day1); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected case-sensitive miss, got %v", err)
	}
}

func TestUpdateEnhancedStatus_CRLF(t *testing.T) {
	in := "### Task 1.1: Build\r\n- **Status**: [ ] pending\r\n"
	got, err := UpdateEnhancedStatus(in, "1.1", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### Task 1.1: Build\r\n- **Updated At**: 2026-03-04\r\n- **Status**: [x] complete\r\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestUpdateEnhancedDependencies(t *testing.T) {
	in := "### Task 1.2: B\n- **Status**: [ ] pending\n\n### Task 1.3: C\n- **Dependencies**: None\n"

	got, err := UpdateEnhancedDependencies(in, "1.2", []string{"1.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = UpdateEnhancedDependencies(got, "1.3", []string{"1.1", "1.2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "### Task 1.2: B\n- **Status**: [ ] pending\n- **Dependencies**: 1.1\n\n### Task 1.3: C\n- **Dependencies**: 1.1, 1.2\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := UpdateEnhancedDependencies(in, "7.7", nil); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestUpdateEnhancedStatusAt_EarlierDuplicate(t *testing.T) {
	in := "## Wave 1\n### Checkpoint: Gate one\n- **Status**: [ ] pending\n\n## Wave 2\n### Checkpoint: Gate two\n- **Status**: [ ] pending\n"

	first, err := Parse(in).Resolve("Checkpoint@1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := UpdateEnhancedStatusAt(in, first.Line, "Checkpoint", StatusComplete, day1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := Parse(got)
	if doc.Tasks[0].Status != StatusComplete {
		t.Errorf("expected Gate one complete, got %s", doc.Tasks[0].Status)
	}
	if doc.Tasks[1].Status != StatusPending {
		t.Errorf("expected Gate two untouched, got %s", doc.Tasks[1].Status)
	}

	// The plain id still reaches only the last heading.
	got, _ = UpdateEnhancedStatus(in, "Checkpoint", StatusComplete, day1)
	if doc := Parse(got); doc.Tasks[0].Status != StatusPending || doc.Tasks[1].Status != StatusComplete {
		t.Errorf("expected only Gate two complete, got %s and %s", doc.Tasks[0].Status, doc.Tasks[1].Status)
	}
}

func TestUpdateEnhancedStatusAt_StaleLine(t *testing.T) {
	in := "### Task 1.1: A\n- **Status**: [ ] pending\n"
	for _, line := range []int{0, 2, 9} {
		got, err := UpdateEnhancedStatusAt(in, line, "1.1", StatusComplete, day1)
		if !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("line %d: expected ErrTaskNotFound, got %v", line, err)
		}
		if got != in {
			t.Errorf("line %d: expected contents unchanged, got %q", line, got)
		}
	}
	if _, err := UpdateEnhancedStatusAt(in, 1, "1.2", StatusComplete, day1); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound for a different id, got %v", err)
	}
}
