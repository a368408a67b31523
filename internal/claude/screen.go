package claude

import (
	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/tasks"
)

// Skipped is an inferred edge that was not accepted, with the reason.
type Skipped struct {
	Edge   DepEdge `json:"edge"`
	Reason string  `json:"reason"`
}

// Screen validates inferred edges against a document. Edges naming unknown
// tasks, self-dependencies and dependencies the document already declares
// are skipped. The rest are added greedily in order; an edge that would
// close a cycle with the document's own edges or previously accepted ones
// is skipped too.
func Screen(doc *tasks.Document, edges []DepEdge) (accepted []DepEdge, skipped []Skipped) {
	known := make(map[string]bool, len(doc.Tasks))
	for _, t := range doc.Tasks {
		known[t.ID.String()] = true
	}

	current := graph.Edges(doc.Tasks)
	have := make(map[graph.Edge]bool, len(current))
	for _, e := range current {
		have[e] = true
	}

	for _, e := range edges {
		reason := ""
		edge := graph.Edge{From: tasks.NamedID(e.BlockerID), To: tasks.NamedID(e.BlockedID)}
		switch {
		case !known[e.BlockedID]:
			reason = "unknown blocked_id " + e.BlockedID
		case !known[e.BlockerID]:
			reason = "unknown blocker_id " + e.BlockerID
		case e.BlockedID == e.BlockerID:
			reason = "self-dependency"
		case have[edge]:
			reason = "already declared"
		}
		if reason != "" {
			skipped = append(skipped, Skipped{Edge: e, Reason: reason})
			continue
		}

		if cycle := graph.FindCycle(append(current, edge)); cycle != nil {
			skipped = append(skipped, Skipped{Edge: e, Reason: "would create cycle: " + graph.FormatCycle(cycle)})
			continue
		}
		current = append(current, edge)
		have[edge] = true
		accepted = append(accepted, e)
	}
	return accepted, skipped
}

// Update is the full dependency list to write for one task.
type Update struct {
	TaskID string
	Deps   []string
}

// Updates merges accepted edges into each blocked task's declared
// dependencies, keeping existing ones first. Tasks come out in document
// order.
func Updates(doc *tasks.Document, accepted []DepEdge) []Update {
	added := make(map[string][]string)
	for _, e := range accepted {
		added[e.BlockedID] = append(added[e.BlockedID], e.BlockerID)
	}

	var out []Update
	done := make(map[string]bool)
	for _, t := range doc.Tasks {
		id := t.ID.String()
		if len(added[id]) == 0 || done[id] {
			continue
		}
		done[id] = true

		// Duplicated ids resolve to the last definition, as the updater does.
		last, _ := doc.Lookup(t.ID)
		seen := make(map[string]bool)
		var deps []string
		for _, d := range last.Dependencies {
			if !seen[d.String()] {
				seen[d.String()] = true
				deps = append(deps, d.String())
			}
		}
		for _, d := range added[id] {
			if !seen[d] {
				seen[d] = true
				deps = append(deps, d)
			}
		}
		out = append(out, Update{TaskID: id, Deps: deps})
	}
	return out
}
