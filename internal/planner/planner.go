package planner

import (
	"fmt"
	"time"

	"github.com/joshharrison/specloom/internal/cpm"
	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/tasks"
)

// OpenGraph narrows a document's graph to the tasks that still need work.
func OpenGraph(doc *tasks.Document) *graph.TaskGraph {
	return graph.Build(doc.Tasks).Filter(func(t *tasks.TaskItem) bool {
		return !t.Status.Terminal()
	})
}

// Generate creates an ExecutionPlan for the open tasks of doc.
func Generate(doc *tasks.Document, config PlanConfig) (*ExecutionPlan, error) {
	if cycle := graph.Build(doc.Tasks).Cycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle detected: %s", graph.FormatCycle(cycle))
	}

	g := OpenGraph(doc)
	cpmResult, err := cpm.Analyze(g)
	if err != nil {
		return nil, fmt.Errorf("CPM analysis: %w", err)
	}

	plan := &ExecutionPlan{
		ID:           fmt.Sprintf("plan-%s", time.Now().Format("2006-01-02-150405")),
		CreatedAt:    time.Now(),
		Change:       config.Change,
		Format:       doc.Format.String(),
		TotalTasks:   g.TaskCount(),
		TotalWaves:   len(cpmResult.Waves),
		CriticalPath: idStrings(cpmResult.CriticalPath),
		Tasks:        make(map[string]*PlannedTask),
		Deps: TaskDeps{
			Predecessors: make(map[string][]string),
			Successors:   make(map[string][]string),
		},
		Config: config,
	}

	for _, id := range g.Order {
		if preds := g.RevAdj[id]; len(preds) > 0 {
			plan.Deps.Predecessors[id.String()] = idStrings(preds)
		}
		if succs := g.Adj[id]; len(succs) > 0 {
			plan.Deps.Successors[id.String()] = idStrings(succs)
		}
	}

	for _, wave := range cpmResult.Waves {
		ew := ExecutionWave{Index: wave.Index}

		// Each wave depends on all previous waves
		if wave.Index > 0 {
			ew.DependsOn = []int{wave.Index - 1}
		}

		for _, taskID := range wave.TaskIDs {
			task := g.Tasks[taskID]
			schedule := cpmResult.Tasks[taskID]

			prompt, err := RenderPrompt(PromptData{
				TaskID:       taskID.String(),
				Title:        task.Name,
				Change:       config.Change,
				TasksPath:    config.TasksPath,
				Dependencies: declaredDeps(doc, taskID),
				Checkpoint:   task.Kind == tasks.KindCheckpoint,
				WaveIndex:    wave.Index,
				WaveSize:     len(wave.TaskIDs),
				IsCritical:   schedule.IsCritical,
			}, config.PromptTemplatePath)
			if err != nil {
				return nil, fmt.Errorf("render prompt for task %s: %w", taskID, err)
			}

			pt := PlannedTask{
				TaskID:       taskID.String(),
				Title:        task.Name,
				Kind:         task.Kind.String(),
				Status:       task.Status.String(),
				IsCritical:   schedule.IsCritical,
				DocumentWave: task.Wave,
				Prompt:       prompt,
				WaveIndex:    wave.Index,
			}
			ew.Tasks = append(ew.Tasks, pt)
		}

		plan.Waves = append(plan.Waves, ew)
	}

	for wi := range plan.Waves {
		for ti := range plan.Waves[wi].Tasks {
			pt := &plan.Waves[wi].Tasks[ti]
			plan.Tasks[pt.TaskID] = pt
		}
	}

	return plan, nil
}

// declaredDeps lists every dependency the document declares for id,
// including ones already complete.
func declaredDeps(doc *tasks.Document, id tasks.TaskID) []string {
	if it, ok := doc.Lookup(id); ok {
		return idStrings(it.Dependencies)
	}
	return nil
}

func idStrings(ids []tasks.TaskID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
