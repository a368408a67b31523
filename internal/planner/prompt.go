package planner

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

const defaultPromptTemplate = `You are working on task {{.TaskID}}: {{.Title}}
{{if .Checkpoint}}
This is a CHECKPOINT. Verify the work of the previous waves with the user before continuing.
{{end}}
## Instructions
1. Implement the changes described by the task
2. Write or update tests as needed
3. Run existing tests to ensure nothing breaks
4. Before you begin, run: specloom tasks start {{target .}} {{.TaskID}}
5. When done, run: specloom tasks complete {{target .}} {{.TaskID}}
6. If you cannot finish it, run: specloom tasks shelve {{target .}} {{.TaskID}}

## Context
- Task list: {{.TasksPath}}
{{- if .Dependencies}}
- Depends on: {{join .Dependencies ", "}}
{{- end}}
- This task is part of wave {{.WaveIndex}} ({{.WaveSize}} tasks in parallel)
{{- if .IsCritical}}
- This task is on the CRITICAL PATH: it directly affects how long the change takes
{{- end}}
`

// PromptData holds the data used to render a prompt template.
type PromptData struct {
	TaskID       string
	Title        string
	Change       string
	TasksPath    string
	Dependencies []string
	Checkpoint   bool
	WaveIndex    int
	WaveSize     int
	IsCritical   bool
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	// target is how CLI commands address the task list: the change name,
	// or --file when the plan was built from an explicit path.
	"target": func(d PromptData) string {
		if d.Change == "" {
			return "--file " + d.TasksPath
		}
		return d.Change
	},
}

// RenderPrompt renders a prompt for a task using either a custom template file or the default.
func RenderPrompt(data PromptData, templatePath string) (string, error) {
	tmplStr := defaultPromptTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("prompt").Funcs(promptFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
