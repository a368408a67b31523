package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/planner"
	"github.com/joshharrison/specloom/internal/reporter"
	"github.com/joshharrison/specloom/internal/store"
	"github.com/joshharrison/specloom/internal/tasks"
	"github.com/joshharrison/specloom/internal/ui"
)

func initCmd() *cobra.Command {
	var flagTaskFormat string

	cmd := &cobra.Command{
		Use:   "init <change>",
		Short: "Create a starter tasks.md for a change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := flagTaskFormat
			if name == "" {
				name = cfg.DefaultFormat
			}
			format, err := tasks.ParseFormat(name)
			if err != nil {
				return err
			}

			var path string
			if flagFile != "" {
				path = flagFile
				if _, err := os.Stat(path); err == nil && !flagForce {
					return fmt.Errorf("%w: %s", store.ErrExists, path)
				}
				err = store.Write(path, store.Template(args[0], format))
			} else {
				path, err = store.New(cfg.ChangesDir).Init(args[0], format, flagForce)
			}
			if err != nil {
				if errors.Is(err, store.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return err
			}

			if flagJSON {
				return outputJSON(map[string]string{"path": path, "format": format.String()})
			}
			ui.PrintLogo()
			fmt.Printf("📝 Created %s %s\n", ui.Bold(path), ui.Dim("("+format.String()+")"))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTaskFormat, "format", "", "Task list format: checkbox or enhanced (default from config)")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing tasks.md")

	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List changes that have a task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := store.New(cfg.ChangesDir)
			changes, err := s.Changes()
			if err != nil {
				return err
			}

			type entry struct {
				Change   string         `json:"change"`
				Path     string         `json:"path"`
				Format   tasks.Format   `json:"format"`
				Progress tasks.Progress `json:"progress"`
			}
			entries := []entry{}
			for _, c := range changes {
				path, err := s.Path(c)
				if err != nil {
					return err
				}
				contents, err := store.Read(path)
				if err != nil {
					return err
				}
				doc := tasks.Parse(contents)
				entries = append(entries, entry{Change: c, Path: path, Format: doc.Format, Progress: doc.Progress})
			}

			if flagJSON {
				return outputJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Printf("No task lists under %s\n", ui.Dim(cfg.ChangesDir))
				return nil
			}
			for _, e := range entries {
				icon := ui.Dim("◌")
				if e.Progress.Total > 0 && e.Progress.Complete == e.Progress.Total {
					icon = ui.Green("✓")
				}
				fmt.Printf("  %s %-30s %d/%d %s\n", icon, ui.BoldMagenta(e.Change),
					e.Progress.Complete, e.Progress.Total, ui.Dim(e.Format.String()))
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <change>",
		Short: "Show progress, ready and blocked tasks, and diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := tasksPath(args)
			if err != nil {
				return err
			}
			contents, err := store.Read(path)
			if err != nil {
				return err
			}

			rpt := reporter.New(path, tasks.Parse(contents))
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			rpt.PrintStatus(os.Stdout)
			return nil
		},
	}
}

func nextCmd() *cobra.Command {
	var (
		flagAll    bool
		flagPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "next <change>",
		Short: "Show the next task to work on",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, change, err := tasksPath(args)
			if err != nil {
				return err
			}
			_, doc, err := loadDocument(path)
			if err != nil {
				return err
			}

			rpt := reporter.New(path, doc)
			if rpt.Cycle != nil {
				return fmt.Errorf("dependency cycle detected: %s", graph.FormatCycle(rpt.Cycle))
			}

			if flagPrompt {
				if len(rpt.Ready) == 0 {
					return fmt.Errorf("no ready tasks in %s", path)
				}
				plan, err := planner.Generate(doc, planner.PlanConfig{
					Change:             change,
					TasksPath:          path,
					PromptTemplatePath: cfg.PromptTemplate,
				})
				if err != nil {
					return fmt.Errorf("generate plan: %w", err)
				}
				pt, ok := firstPlanned(plan, doc, rpt.Ready)
				if !ok {
					return fmt.Errorf("no ready task in %s is part of the plan", path)
				}
				fmt.Print(pt.Prompt)
				return nil
			}

			if flagJSON {
				ready := rpt.Ready
				if !flagAll && len(ready) > 1 {
					ready = ready[:1]
				}
				out := struct {
					Ready   []tasks.TaskItem `json:"ready"`
					Blocked []graph.Blocked  `json:"blocked,omitempty"`
				}{Ready: ready}
				if ready == nil {
					out.Ready = []tasks.TaskItem{}
				}
				if flagAll {
					out.Blocked = rpt.Blocked
				}
				return outputJSON(out)
			}

			rpt.PrintNext(os.Stdout, flagAll)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "List every ready task and the blocked ones")
	cmd.Flags().BoolVar(&flagPrompt, "prompt", false, "Print an agent prompt for the next ready task")

	return cmd
}

// transitionCmd builds start/complete/shelve/unshelve.
func transitionCmd(use, short string, st tasks.Status) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <change> <id>",
		Short: short,
		Long: short + `.

With --file the change argument is omitted: specloom tasks ` + use + ` --file tasks.md <id>.
Checkbox tasks are addressed by their 1-based position in the file.
A repeated id such as Checkpoint is addressed per wave: Checkpoint@2.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idArg := args[len(args)-1]
			var changeArgs []string
			if len(args) == 2 {
				changeArgs = args[:1]
			} else if flagFile == "" {
				return fmt.Errorf("expected <change> <id>, or --file with <id>")
			}
			path, _, err := tasksPath(changeArgs)
			if err != nil {
				return err
			}

			_, before, err := loadDocument(path)
			if err != nil {
				return err
			}
			target, err := before.Resolve(idArg)
			if err != nil {
				return err
			}
			id, ref := target.ID, before.Ref(*target)

			if st == tasks.StatusInProgress {
				warnIfBlocked(before, target)
			}

			err = store.Update(path, func(contents string) (string, error) {
				if tasks.DetectFormat(contents) == tasks.FormatCheckbox {
					return tasks.UpdateCheckboxStatus(contents, id.String(), st)
				}
				return tasks.UpdateEnhancedStatusAt(contents, target.Line, id.String(), st, time.Now())
			})
			if err != nil {
				return fmt.Errorf("%s task %s: %w", use, ref, err)
			}

			contents, err := store.Read(path)
			if err != nil {
				return err
			}
			after := tasks.Parse(contents)
			unblocked := newlyReady(before, after)

			if flagJSON {
				return outputJSON(struct {
					TaskID    tasks.TaskID     `json:"task_id"`
					Status    tasks.Status     `json:"status"`
					Progress  tasks.Progress   `json:"progress"`
					Unblocked []tasks.TaskItem `json:"unblocked"`
				}{id, st, after.Progress, unblocked})
			}

			fmt.Printf("%s %s → %s  %s\n", ui.StatusIcon(st), ui.TaskPrefix(ref), ui.StatusWord(st),
				ui.Dim(fmt.Sprintf("(%d/%d complete)", after.Progress.Complete, after.Progress.Total)))
			for _, t := range unblocked {
				fmt.Printf("  %s %s %s\n", ui.Cyan("→ now ready:"), ui.TaskPrefix(after.Ref(t)), t.Name)
			}
			return nil
		},
	}
}

// warnIfBlocked prints a warning when a task is started before its
// dependencies are complete. Starting it anyway is allowed.
func warnIfBlocked(doc *tasks.Document, target *tasks.TaskItem) {
	_, blocked := graph.ComputeReadyAndBlocked(doc.Tasks)
	for _, b := range blocked {
		if b.Task.Line == target.Line {
			fmt.Fprintf(os.Stderr, "%s task %s is %s\n", ui.Yellow("⚠️  Warning:"), doc.Ref(*target), b.String())
			return
		}
	}
}

// newlyReady lists tasks that are ready in after but were not in before.
func newlyReady(before, after *tasks.Document) []tasks.TaskItem {
	wasReady := make(map[string]bool)
	prev, _ := graph.ComputeReadyAndBlocked(before.Tasks)
	for _, t := range prev {
		wasReady[before.Ref(t)] = true
	}

	out := []tasks.TaskItem{}
	now, _ := graph.ComputeReadyAndBlocked(after.Tasks)
	for _, t := range now {
		if !wasReady[after.Ref(t)] {
			out = append(out, t)
		}
	}
	return out
}

// firstPlanned returns the plan entry of the first ready task. The plan
// only holds the last definition of a repeated id, so a ready but
// superseded definition is passed over.
func firstPlanned(plan *planner.ExecutionPlan, doc *tasks.Document, ready []tasks.TaskItem) (*planner.PlannedTask, bool) {
	for _, t := range ready {
		if last, ok := doc.Lookup(t.ID); !ok || last.Line != t.Line {
			continue
		}
		if pt, ok := plan.Tasks[t.ID.String()]; ok {
			return pt, true
		}
	}
	return nil, false
}
