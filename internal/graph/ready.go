package graph

import (
	"strings"

	"github.com/joshharrison/specloom/internal/tasks"
)

// ComputeReadyAndBlocked partitions the actionable tasks (Pending or
// InProgress, either kind) into those whose dependencies are all Complete
// and those still waiting. A dependency on an unknown id always counts as
// missing. Both results keep document order.
func ComputeReadyAndBlocked(items []tasks.TaskItem) ([]tasks.TaskItem, []Blocked) {
	status := make(map[tasks.TaskID]tasks.Status, len(items))
	for _, it := range items {
		status[it.ID] = it.Status
	}

	var ready []tasks.TaskItem
	var blocked []Blocked
	for _, it := range items {
		if it.Status.Terminal() {
			continue
		}
		var missing []tasks.TaskID
		for _, dep := range it.Dependencies {
			if st, ok := status[dep]; !ok || st != tasks.StatusComplete {
				missing = append(missing, dep)
			}
		}
		if len(missing) == 0 {
			ready = append(ready, it)
			continue
		}
		blocked = append(blocked, Blocked{Task: it, Missing: missing})
	}
	return ready, blocked
}

// String renders the missing dependencies, e.g. "blocked by: 1.2, 1.3".
func (b Blocked) String() string {
	ids := make([]string, len(b.Missing))
	for i, id := range b.Missing {
		ids[i] = id.String()
	}
	return "blocked by: " + strings.Join(ids, ", ")
}
