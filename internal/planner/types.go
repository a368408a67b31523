package planner

import "time"

// TaskDeps holds per-task predecessor and successor lists for dependency tracking.
type TaskDeps struct {
	Predecessors map[string][]string `json:"predecessors" yaml:"predecessors"`
	Successors   map[string][]string `json:"successors" yaml:"successors"`
}

// ExecutionPlan is the suggested order of work for the open tasks of a change.
type ExecutionPlan struct {
	ID           string                  `json:"id" yaml:"id"`
	CreatedAt    time.Time               `json:"created_at" yaml:"created_at"`
	Change       string                  `json:"change" yaml:"change"`
	Format       string                  `json:"format" yaml:"format"`
	TotalTasks   int                     `json:"total_tasks" yaml:"total_tasks"`
	TotalWaves   int                     `json:"total_waves" yaml:"total_waves"`
	CriticalPath []string                `json:"critical_path" yaml:"critical_path"`
	Waves        []ExecutionWave         `json:"waves" yaml:"waves"`
	Tasks        map[string]*PlannedTask `json:"tasks" yaml:"tasks"`
	Deps         TaskDeps                `json:"deps" yaml:"deps"`
	Config       PlanConfig              `json:"config" yaml:"config"`
}

// ExecutionWave is a group of tasks that can be worked in parallel.
type ExecutionWave struct {
	Index     int           `json:"index" yaml:"index"`
	Tasks     []PlannedTask `json:"tasks" yaml:"tasks"`
	DependsOn []int         `json:"depends_on" yaml:"depends_on"`
}

// PlannedTask is a single open task placed in a wave.
type PlannedTask struct {
	TaskID       string `json:"task_id" yaml:"task_id"`
	Title        string `json:"title" yaml:"title"`
	Kind         string `json:"kind" yaml:"kind"`
	Status       string `json:"status" yaml:"status"`
	IsCritical   bool   `json:"is_critical" yaml:"is_critical"`
	DocumentWave string `json:"document_wave,omitempty" yaml:"document_wave,omitempty"`
	Prompt       string `json:"prompt" yaml:"prompt"`
	WaveIndex    int    `json:"wave_index" yaml:"wave_index"`
}

// PlanConfig holds the inputs a plan was generated with.
type PlanConfig struct {
	Change             string `json:"change" yaml:"change"`
	TasksPath          string `json:"tasks_path" yaml:"tasks_path"`
	PromptTemplatePath string `json:"prompt_template_path,omitempty" yaml:"prompt_template_path,omitempty"`
}
