package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/joshharrison/specloom/internal/tasks"
)

// DefaultModel is used when neither config nor flags name a model.
const DefaultModel = "claude-sonnet-4-5"

// TaskSummary is the minimal task info sent to Claude for dependency inference.
type TaskSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Wave string `json:"wave,omitempty"`
	Kind string `json:"kind"`
}

// DepEdge is a single inferred dependency.
type DepEdge struct {
	BlockedID string `json:"blocked_id"` // task that is blocked
	BlockerID string `json:"blocker_id"` // task that must finish first
	Reason    string `json:"reason"`
}

// InferDepsResult holds the full response from Claude.
type InferDepsResult struct {
	Edges   []DepEdge `json:"edges"`
	Summary string    `json:"summary"`
}

// Summaries builds the task list sent to Claude from a parsed document.
func Summaries(doc *tasks.Document) []TaskSummary {
	out := make([]TaskSummary, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		out = append(out, TaskSummary{
			ID:   t.ID.String(),
			Name: t.Name,
			Wave: t.Wave,
			Kind: t.Kind.String(),
		})
	}
	return out
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to DefaultModel.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	if model == "" {
		model = DefaultModel
	}

	return &Client{inner: inner, model: anthropic.Model(model)}, nil
}

const inferDepsPrompt = `You are an expert software project manager. Given the task list of a planned code change, infer dependency edges between the tasks.

Rules:
- Only add a dependency when there is a strong causal reason (task B cannot start until task A is complete).
- Prefer fewer edges: do not add transitive or speculative dependencies.
- Tasks in a later wave usually build on earlier waves; tasks in the same wave are usually independent.
- Do not create cycles.
- Only use task IDs from the provided list.
- A task cannot depend on itself.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"blocked_id": "<task that is blocked>", "blocker_id": "<task that must finish first>", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the dependency structure>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the tasks:
`

// buildPrompt constructs the full prompt for dependency inference.
func buildPrompt(tasks []TaskSummary) (string, error) {
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}
	return inferDepsPrompt + string(data), nil
}

// InferDeps calls the Claude API to infer task dependencies.
func (c *Client) InferDeps(ctx context.Context, tasks []TaskSummary) (*InferDepsResult, error) {
	prompt, err := buildPrompt(tasks)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return ParseResult(text)
}

// ParseResult extracts edges and summary from a model response or a saved
// result file. Fences and prose around the JSON object are tolerated, and
// edges missing either id are dropped.
func ParseResult(text string) (*InferDepsResult, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if start < 0 || end <= start || !gjson.Valid(text[start:end+1]) {
			return nil, fmt.Errorf("parse claude response: no JSON object found\nraw: %s", text)
		}
		text = text[start : end+1]
	}

	edges := gjson.Get(text, "edges")
	if edges.Exists() && !edges.IsArray() {
		return nil, fmt.Errorf("parse claude response: edges is not an array")
	}

	result := &InferDepsResult{
		Edges:   []DepEdge{},
		Summary: gjson.Get(text, "summary").String(),
	}
	edges.ForEach(func(_, e gjson.Result) bool {
		edge := DepEdge{
			BlockedID: strings.TrimSpace(e.Get("blocked_id").String()),
			BlockerID: strings.TrimSpace(e.Get("blocker_id").String()),
			Reason:    e.Get("reason").String(),
		}
		if edge.BlockedID != "" && edge.BlockerID != "" {
			result.Edges = append(result.Edges, edge)
		}
		return true
	})

	return result, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	// Remove ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		// Strip closing fence
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
