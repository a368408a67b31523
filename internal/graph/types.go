package graph

import "github.com/joshharrison/specloom/internal/tasks"

// Edge is a declared dependency: To cannot start until From is complete.
type Edge struct {
	From tasks.TaskID `json:"from"`
	To   tasks.TaskID `json:"to"`
}

// TaskGraph is the dependency graph of one tasks document. Unlike the
// document itself it may contain cycles; use Cycle to find one.
type TaskGraph struct {
	Tasks    map[tasks.TaskID]*tasks.TaskItem
	Order    []tasks.TaskID                  // document order, each id once
	Edges    []Edge                          // dependency -> dependent, in declaration order
	Adj      map[tasks.TaskID][]tasks.TaskID // task -> tasks that depend on it
	RevAdj   map[tasks.TaskID][]tasks.TaskID // task -> tasks it depends on
	Roots    []tasks.TaskID                  // tasks with no dependencies
	Leaves   []tasks.TaskID                  // tasks nothing depends on
	Dangling []Edge                          // edges whose dependency matches no task
}

// Blocked pairs a candidate task with the dependencies keeping it from
// running.
type Blocked struct {
	Task    tasks.TaskItem `json:"task"`
	Missing []tasks.TaskID `json:"missing_deps"`
}
