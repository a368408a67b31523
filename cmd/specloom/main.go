package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshharrison/specloom/internal/config"
	"github.com/joshharrison/specloom/internal/store"
	"github.com/joshharrison/specloom/internal/tasks"
	"github.com/joshharrison/specloom/internal/ui"
)

var (
	flagFile           string
	flagChangesDir     string
	flagJSON           bool
	flagNoColor        bool
	flagPromptTemplate string
	flagFilter         string
	flagOutput         string
	flagForce          bool

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "specloom",
		Short: "Track and sequence the task list of a planned change",
		Long: `Specloom reads a change's tasks.md (plain checkboxes or the wave/task
format), works out which tasks are ready and which are blocked, and
rewrites task statuses in place without disturbing the rest of the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if flagChangesDir != "" {
				cfg.ChangesDir = flagChangesDir
			}
			if flagPromptTemplate != "" {
				cfg.PromptTemplate = flagPromptTemplate
			}
			if flagNoColor || !cfg.Color {
				color.NoColor = true
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "Path to a tasks.md (overrides <change>)")
	rootCmd.PersistentFlags().StringVar(&flagChangesDir, "changes-dir", "", "Directory holding change folders (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagPromptTemplate, "prompt-template", "", "Custom agent prompt template path")

	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Red("❌ Error:"), err)
		os.Exit(1)
	}
}

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and update a change's task list",
	}

	cmd.AddCommand(initCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(nextCmd())
	cmd.AddCommand(transitionCmd("start", "Mark a task in progress", tasks.StatusInProgress))
	cmd.AddCommand(transitionCmd("complete", "Mark a task complete", tasks.StatusComplete))
	cmd.AddCommand(transitionCmd("shelve", "Set a task aside (wave format only)", tasks.StatusShelved))
	cmd.AddCommand(transitionCmd("unshelve", "Return a task to pending", tasks.StatusPending))
	cmd.AddCommand(planCmd())
	cmd.AddCommand(vizCmd())
	cmd.AddCommand(inferDepsCmd())

	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect specloom configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagJSON {
				return outputJSON(cfg)
			}
			data, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Printf("%s %s\n", ui.Dim("# global: "), ui.Dim(config.GlobalConfigPath()))
			fmt.Printf("%s %s\n", ui.Dim("# project:"), ui.Dim(config.ProjectConfigPath()))
			fmt.Print(string(data))
			return nil
		},
	})

	return cmd
}

// tasksPath resolves the file a command operates on: --file when given,
// otherwise <changes_dir>/<change>/tasks.md.
func tasksPath(args []string) (path, change string, err error) {
	if len(args) > 0 {
		change = args[0]
	}
	if flagFile != "" {
		return flagFile, change, nil
	}
	if change == "" {
		return "", "", fmt.Errorf("a change name or --file is required")
	}
	path, err = store.New(cfg.ChangesDir).Path(change)
	return path, change, err
}

// loadDocument reads and parses the task list, warning on stderr when the
// parser reported errors.
func loadDocument(path string) (string, *tasks.Document, error) {
	contents, err := store.Read(path)
	if err != nil {
		return "", nil, err
	}
	doc := tasks.Parse(contents)
	if doc.HasErrors() && !flagJSON {
		fmt.Fprintf(os.Stderr, "%s %s has structural errors (see `specloom tasks status`)\n",
			ui.Yellow("⚠️  Warning:"), path)
	}
	return contents, doc, nil
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
