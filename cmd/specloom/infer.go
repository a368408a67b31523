package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshharrison/specloom/internal/claude"
	"github.com/joshharrison/specloom/internal/store"
	"github.com/joshharrison/specloom/internal/tasks"
	"github.com/joshharrison/specloom/internal/ui"
)

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps <change>",
		Short: "Use Claude to infer task dependencies from task names",
		Long: `Sends the task ids and names of a wave-format task list to Claude and
infers dependency edges. By default runs in dry-run mode: use --apply to
write the Dependencies lines back to tasks.md.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := tasksPath(args)
			if err != nil {
				return err
			}
			_, doc, err := loadDocument(path)
			if err != nil {
				return err
			}
			if doc.Format != tasks.FormatEnhanced {
				return fmt.Errorf("infer-deps needs a wave-format task list; %s is %s", path, doc.Format)
			}
			if len(doc.Tasks) == 0 {
				return fmt.Errorf("no tasks found in %s", path)
			}

			var result *claude.InferDepsResult
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				result, err = claude.ParseResult(string(data))
				if err != nil {
					return fmt.Errorf("parse from-file: %w", err)
				}
				if !flagJSON {
					fmt.Printf("📂 Loaded %s edges from %s\n", ui.Bold(len(result.Edges)), ui.Dim(flagFromFile))
				}
			} else {
				summaries := claude.Summaries(doc)
				if !flagJSON {
					fmt.Printf("🔍 Sending %s tasks to Claude for dependency inference...\n", ui.Bold(len(summaries)))
				}

				model := flagModel
				if model == "" {
					model = cfg.Model
				}
				claudeClient, err := claude.NewClient("", model)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				result, err = claudeClient.InferDeps(ctx, summaries)
				if err != nil {
					return fmt.Errorf("infer deps: %w", err)
				}
			}

			accepted, skipped := claude.Screen(doc, result.Edges)

			if flagJSON && !flagApply {
				if accepted == nil {
					accepted = []claude.DepEdge{}
				}
				return outputJSON(struct {
					Edges   []claude.DepEdge `json:"edges"`
					Skipped []claude.Skipped `json:"skipped,omitempty"`
					Summary string           `json:"summary"`
				}{accepted, skipped, result.Summary})
			}

			if !flagJSON {
				for _, s := range skipped {
					fmt.Printf("  %s %s blocked by %s: %s\n", ui.Yellow("⏭️  SKIP:"), s.Edge.BlockedID, s.Edge.BlockerID, s.Reason)
				}

				fmt.Printf("\n🔗 Inferred %s dependencies (%d from Claude, %d after validation):\n\n",
					ui.Bold(len(accepted)), len(result.Edges), len(accepted))
				for _, e := range accepted {
					fmt.Printf("  %s %s blocked by %s  %s\n", ui.Cyan("→"), ui.BoldMagenta(e.BlockedID), ui.BoldMagenta(e.BlockerID), ui.Dim(e.Reason))
				}
				if result.Summary != "" {
					fmt.Printf("\n💡 %s %s\n", ui.BoldWhite("Summary:"), result.Summary)
				}
			}

			if !flagApply {
				fmt.Printf("\n🎯 %s\n", ui.Yellow("Dry run: use --apply to write these dependencies to "+path+"."))
				return nil
			}

			updates := claude.Updates(doc, accepted)
			err = store.Update(path, func(contents string) (string, error) {
				for _, u := range updates {
					var err error
					contents, err = tasks.UpdateEnhancedDependencies(contents, u.TaskID, u.Deps)
					if err != nil {
						return "", fmt.Errorf("update task %s: %w", u.TaskID, err)
					}
				}
				return contents, nil
			})
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(struct {
					Applied []claude.DepEdge `json:"applied"`
					Path    string           `json:"path"`
				}{accepted, path})
			}
			for _, u := range updates {
				fmt.Printf("  %s %s depends on %v\n", ui.Green("✅ OK:"), ui.BoldMagenta(u.TaskID), u.Deps)
			}
			fmt.Printf("\n🏁 Applied %s dependencies to %d tasks.\n", ui.BoldGreen(len(accepted)), len(updates))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write inferred deps to tasks.md (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default from config, then Sonnet)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Load inferred deps from a saved JSON response instead of calling Claude")

	return cmd
}
