package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshharrison/specloom/internal/cpm"
	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/planner"
	"github.com/joshharrison/specloom/internal/store"
	"github.com/joshharrison/specloom/internal/tasks"
	"github.com/joshharrison/specloom/internal/ui"
)

// buildPlan is shared logic for plan and viz commands.
func buildPlan(args []string) (*planner.ExecutionPlan, *tasks.Document, *cpm.CPMResult, error) {
	path, change, err := tasksPath(args)
	if err != nil {
		return nil, nil, nil, err
	}
	_, doc, err := loadDocument(path)
	if err != nil {
		return nil, nil, nil, err
	}

	if flagFilter != "" {
		doc, err = applyFilter(doc, flagFilter)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("apply filter: %w", err)
		}
	}

	plan, err := planner.Generate(doc, planner.PlanConfig{
		Change:             change,
		TasksPath:          path,
		PromptTemplatePath: cfg.PromptTemplate,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate plan: %w", err)
	}

	result, err := cpm.Analyze(planner.OpenGraph(doc))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("CPM analysis: %w", err)
	}

	return plan, doc, result, nil
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <change>",
		Short: "Compute parallel waves and the critical path of the open tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, doc, result, err := buildPlan(args)
			if err != nil {
				return err
			}

			if flagOutput != "" {
				if err := store.WriteStructured(flagOutput, plan); err != nil {
					return err
				}
				if !flagJSON {
					fmt.Printf("💾 Wrote plan to %s\n", ui.Bold(flagOutput))
					return nil
				}
			}

			if flagJSON {
				return outputJSON(plan)
			}

			printPlan(plan, doc, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (e.g., wave=2, kind=task, status=pending)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Save plan to file (.json, .yaml or .yml)")

	return cmd
}

func vizCmd() *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "viz <change>",
		Short: "Print the dependency graph as ASCII waves or Graphviz DOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, doc, result, err := buildPlan(args)
			if err != nil {
				return err
			}

			switch flagFormat {
			case "dot":
				return printDOT(graph.Build(doc.Tasks), result)
			case "ascii", "":
				printASCIIDAG(plan, planner.OpenGraph(doc))
				return nil
			}
			return fmt.Errorf("unsupported format: %s (use ascii or dot)", flagFormat)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")

	return cmd
}

func printPlan(plan *planner.ExecutionPlan, doc *tasks.Document, result *cpm.CPMResult) {
	blocked := 0
	for _, deps := range plan.Deps.Predecessors {
		if len(deps) > 0 {
			blocked++
		}
	}

	maxWaveWidth := 0
	for _, w := range plan.Waves {
		if len(w.Tasks) > maxWaveWidth {
			maxWaveWidth = len(w.Tasks)
		}
	}

	fmt.Printf("🎯 %s\n", ui.BoldCyan("Specloom Execution Plan"))
	fmt.Println(ui.Cyan("═══════════════════════════"))
	fmt.Println()
	fmt.Printf("Tasks:     %s open, %s waiting on open tasks, %d/%d complete\n",
		ui.Bold(plan.TotalTasks), ui.Bold(blocked), doc.Progress.Complete, doc.Progress.Total)
	fmt.Printf("⚡ Critical path: %s (%d tasks, est. %d units)\n",
		ui.BoldYellow(strings.Join(plan.CriticalPath, " → ")), len(plan.CriticalPath), result.TotalDuration)
	fmt.Printf("Waves:     %s\n", ui.Bold(plan.TotalWaves))
	fmt.Printf("Parallel:  %d tasks in widest wave\n", maxWaveWidth)
	fmt.Println()

	for _, wave := range plan.Waves {
		depStr := ui.Dim("independent")
		if wave.Index > 0 {
			depStr = ui.Dim(fmt.Sprintf("after wave %d", wave.Index))
		}
		fmt.Printf("🌊 %s %d (%d tasks, %s):\n", ui.BoldWhite("Wave"), wave.Index+1, len(wave.Tasks), depStr)
		for _, t := range wave.Tasks {
			crit := ""
			if t.IsCritical {
				crit = "  " + ui.BoldYellow("⚡ critical")
			}
			fmt.Printf("  %s  %s %s%s\n", ui.BoldMagenta(t.TaskID), t.Title, ui.Dim("["+t.Status+"]"), crit)
		}
		fmt.Println()
	}
}

func printASCIIDAG(plan *planner.ExecutionPlan, g *graph.TaskGraph) {
	fmt.Printf("🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Println(ui.Cyan("═══════════════════════"))
	fmt.Println()

	ids := make(map[string]tasks.TaskID, len(g.Order))
	for _, id := range g.Order {
		ids[id.String()] = id
	}

	for _, wave := range plan.Waves {
		fmt.Printf("%s 🌊 Wave %d %s\n", ui.Cyan("──"), wave.Index+1, ui.Cyan("──────────────────────────────"))
		for _, t := range wave.Tasks {
			crit := " "
			if t.IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			fmt.Printf("  %s [%s] %s\n", crit, ui.BoldMagenta(t.TaskID), t.Title)

			// Show edges
			for _, blocked := range g.Adj[ids[t.TaskID]] {
				fmt.Printf("      %s %s\n", ui.Dim("└──→"), ui.Magenta(blocked.String()))
			}
		}
		fmt.Println()
	}
}

// printDOT renders every task, finished ones included. Dependencies that
// match no task are drawn as dashed nodes.
func printDOT(g *graph.TaskGraph, result *cpm.CPMResult) error {
	fmt.Println("digraph specloom {")
	fmt.Println("  rankdir=LR;")
	fmt.Println("  node [shape=box, style=rounded];")
	fmt.Println()

	critical := func(id tasks.TaskID) bool {
		schedule, ok := result.Tasks[id]
		return ok && schedule.IsCritical
	}

	for _, id := range g.Order {
		task := g.Tasks[id]
		label := fmt.Sprintf("%s\\n%s", id, dotEscape(task.Name))
		attrs := fmt.Sprintf(`label="%s"`, label)
		switch {
		case critical(id):
			attrs += `, style="rounded,bold", color=red`
		case task.Status == tasks.StatusComplete:
			attrs += `, style="rounded,filled", fillcolor=palegreen`
		case task.Status == tasks.StatusShelved:
			attrs += `, style="rounded,dashed", color=gray`
		}
		if task.Kind == tasks.KindCheckpoint {
			attrs += `, shape=octagon`
		}
		fmt.Printf("  %q [%s];\n", id.String(), attrs)
	}

	missing := make(map[tasks.TaskID]bool)
	for _, e := range g.Dangling {
		if !missing[e.From] {
			missing[e.From] = true
			fmt.Printf("  %q [label=\"%s\\n(missing)\", style=dashed, color=gray];\n", e.From.String(), e.From)
		}
	}

	fmt.Println()

	for _, e := range g.Edges {
		style := ""
		switch {
		case missing[e.From]:
			style = ` [style=dashed, color=gray]`
		case critical(e.From) && critical(e.To):
			style = ` [color=red, penwidth=2]`
		}
		fmt.Printf("  %q -> %q%s;\n", e.From.String(), e.To.String(), style)
	}

	fmt.Println("}")
	return nil
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// applyFilter parses simple filter expressions and returns a document
// narrowed to the matching tasks.
func applyFilter(doc *tasks.Document, filter string) (*tasks.Document, error) {
	// Supported formats: "wave=N", "kind=task|checkpoint", "status=S"
	key, value, ok := strings.Cut(filter, "=")
	if !ok {
		return nil, fmt.Errorf("unsupported filter: %s (use wave=N, kind=K, or status=S)", filter)
	}

	var match func(t tasks.TaskItem) bool
	switch strings.TrimSpace(key) {
	case "wave":
		match = func(t tasks.TaskItem) bool { return t.Wave == value }
	case "kind":
		match = func(t tasks.TaskItem) bool { return t.Kind.String() == value }
	case "status":
		st, err := tasks.ParseStatus(value)
		if err != nil {
			return nil, err
		}
		match = func(t tasks.TaskItem) bool { return t.Status == st }
	default:
		return nil, fmt.Errorf("unsupported filter: %s (use wave=N, kind=K, or status=S)", filter)
	}

	filtered := *doc
	filtered.Tasks = nil
	for _, t := range doc.Tasks {
		if match(t) {
			filtered.Tasks = append(filtered.Tasks, t)
		}
	}
	return &filtered, nil
}
