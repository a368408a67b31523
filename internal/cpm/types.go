package cpm

import "github.com/joshharrison/specloom/internal/tasks"

// CPMResult holds the complete critical path analysis.
type CPMResult struct {
	Tasks         map[tasks.TaskID]*TaskSchedule
	CriticalPath  []tasks.TaskID // ordered task IDs on critical path
	TotalDuration int
	Waves         []Wave // parallelizable groups
	TopoOrder     []tasks.TaskID
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     tasks.TaskID
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Wave       int // which parallel wave this belongs to
}

// Wave represents a group of tasks that can execute in parallel.
type Wave struct {
	Index      int
	TaskIDs    []tasks.TaskID
	IsCritical bool // true if wave contains critical path tasks
}
