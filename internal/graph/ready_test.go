package graph

import (
	"reflect"
	"testing"

	"github.com/joshharrison/specloom/internal/tasks"
)

func readyIDs(items []tasks.TaskItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID.String())
	}
	return out
}

func TestComputeReadyAndBlocked_IncompleteDependency(t *testing.T) {
	doc := tasks.Parse(`## Wave 1
### Task 1.1: Consumer
- **Status**: [ ] pending
- **Dependencies**: 1.2

### Task 1.2: Provider
- **Status**: [ ] pending
- **Dependencies**: None
`)
	ready, blocked := ComputeReadyAndBlocked(doc.Tasks)

	if !reflect.DeepEqual(readyIDs(ready), []string{"1.2"}) {
		t.Errorf("expected ready=[1.2], got %v", readyIDs(ready))
	}
	if len(blocked) != 1 {
		t.Fatalf("expected 1 blocked task, got %d", len(blocked))
	}
	if blocked[0].Task.ID != id("1.1") || !reflect.DeepEqual(blocked[0].Missing, ids("1.2")) {
		t.Errorf("expected (1.1, [1.2]), got %+v", blocked[0])
	}
	if got := blocked[0].String(); got != "blocked by: 1.2" {
		t.Errorf("unexpected rendering %q", got)
	}
}

func TestComputeReadyAndBlocked_Statuses(t *testing.T) {
	items := []tasks.TaskItem{
		item("done", tasks.StatusComplete),
		item("shelf", tasks.StatusShelved),
		item("free", tasks.StatusPending),
		item("going", tasks.StatusInProgress, "done"),
		item("waiting", tasks.StatusPending, "done", "shelf", "free"),
		item("orphan", tasks.StatusPending, "ghost"),
		item("finished-late", tasks.StatusComplete, "ghost"),
	}
	cp := item("Checkpoint", tasks.StatusPending, "going")
	cp.Kind = tasks.KindCheckpoint
	items = append(items, cp)

	ready, blocked := ComputeReadyAndBlocked(items)

	if want := []string{"free", "going"}; !reflect.DeepEqual(readyIDs(ready), want) {
		t.Errorf("expected ready=%v, got %v", want, readyIDs(ready))
	}

	var got []string
	for _, b := range blocked {
		got = append(got, b.Task.ID.String())
	}
	if want := []string{"waiting", "orphan", "Checkpoint"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected blocked=%v, got %v", want, got)
	}

	// shelved dependencies are not complete
	if !reflect.DeepEqual(blocked[0].Missing, ids("shelf", "free")) {
		t.Errorf("expected waiting to miss [shelf free], got %v", blocked[0].Missing)
	}
	// unknown ids are permanently missing
	if !reflect.DeepEqual(blocked[1].Missing, ids("ghost")) {
		t.Errorf("expected orphan to miss [ghost], got %v", blocked[1].Missing)
	}
}

func TestComputeReadyAndBlocked_CheckboxAllReady(t *testing.T) {
	doc := tasks.Parse("- [ ] a\n- [x] b\n- [~] c\n")
	ready, blocked := ComputeReadyAndBlocked(doc.Tasks)

	if want := []string{"1", "3"}; !reflect.DeepEqual(readyIDs(ready), want) {
		t.Errorf("expected ready=%v, got %v", want, readyIDs(ready))
	}
	if len(blocked) != 0 {
		t.Errorf("expected nothing blocked, got %v", blocked)
	}
}
