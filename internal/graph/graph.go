package graph

import (
	"strings"

	"github.com/joshharrison/specloom/internal/tasks"
)

// Build constructs a TaskGraph from parsed task items. Dependencies on ids
// that match no task are kept as dangling edges: they can never be
// satisfied.
func Build(items []tasks.TaskItem) *TaskGraph {
	g := &TaskGraph{
		Tasks:  make(map[tasks.TaskID]*tasks.TaskItem),
		Adj:    make(map[tasks.TaskID][]tasks.TaskID),
		RevAdj: make(map[tasks.TaskID][]tasks.TaskID),
	}

	// Index tasks; a duplicated id keeps its last definition.
	for i := range items {
		it := &items[i]
		if _, seen := g.Tasks[it.ID]; !seen {
			g.Order = append(g.Order, it.ID)
		}
		g.Tasks[it.ID] = it
	}

	g.Edges = Edges(items)

	edgeSet := make(map[Edge]bool)
	for _, e := range g.Edges {
		if edgeSet[e] {
			continue
		}
		edgeSet[e] = true
		g.Adj[e.From] = append(g.Adj[e.From], e.To)
		g.RevAdj[e.To] = append(g.RevAdj[e.To], e.From)
		if _, ok := g.Tasks[e.From]; !ok {
			g.Dangling = append(g.Dangling, e)
		}
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	return g
}

// Edges lists (dependency, task) pairs for every declared dependency, in
// document order.
func Edges(items []tasks.TaskItem) []Edge {
	var edges []Edge
	for _, it := range items {
		for _, dep := range it.Dependencies {
			edges = append(edges, Edge{From: dep, To: it.ID})
		}
	}
	return edges
}

// TaskCount returns the number of distinct task ids in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Order)
}

// Cycle returns a dependency cycle if one exists, or nil.
func (g *TaskGraph) Cycle() []tasks.TaskID {
	return FindCycle(g.Edges)
}

// Filter returns a new TaskGraph containing only tasks matching the
// predicate. Edges to filtered-out or unknown tasks are dropped.
func (g *TaskGraph) Filter(pred func(*tasks.TaskItem) bool) *TaskGraph {
	keep := make(map[tasks.TaskID]bool)
	var items []tasks.TaskItem
	for _, id := range g.Order {
		t := g.Tasks[id]
		if pred(t) {
			keep[id] = true
		}
	}
	for _, id := range g.Order {
		if !keep[id] {
			continue
		}
		t := *g.Tasks[id]
		var deps []tasks.TaskID
		for _, dep := range t.Dependencies {
			if keep[dep] {
				deps = append(deps, dep)
			}
		}
		t.Dependencies = deps
		items = append(items, t)
	}
	return Build(items)
}

// FindCycle looks for a closed walk in the edge list. Each edge in turn
// seeds a path [From, To] which is extended depth-first along outgoing
// edges, in edge order. A node is entered only if it closes the path at
// the seed's start or is not already on the path. The first closing path
// is returned, e.g. [a b c a]; it is not necessarily the shortest cycle.
func FindCycle(edges []Edge) []tasks.TaskID {
	out := make(map[tasks.TaskID][]tasks.TaskID)
	rev := make(map[tasks.TaskID][]tasks.TaskID)
	for _, e := range edges {
		out[e.From] = append(out[e.From], e.To)
		rev[e.To] = append(rev[e.To], e.From)
	}

	reachCache := make(map[tasks.TaskID]map[tasks.TaskID]bool)
	for _, seed := range edges {
		start := seed.From
		if seed.To == start {
			return []tasks.TaskID{start, start}
		}

		// Branches that cannot get back to start are never worth walking.
		reach, ok := reachCache[start]
		if !ok {
			reach = reaching(rev, start)
			reachCache[start] = reach
		}
		if !reach[seed.To] {
			continue
		}

		w := &walker{
			out:    out,
			reach:  reach,
			start:  start,
			path:   []tasks.TaskID{start, seed.To},
			onPath: map[tasks.TaskID]bool{start: true, seed.To: true},
		}
		if cycle := w.extend(seed.To); cycle != nil {
			return cycle
		}
	}
	return nil
}

type walker struct {
	out    map[tasks.TaskID][]tasks.TaskID
	reach  map[tasks.TaskID]bool
	start  tasks.TaskID
	path   []tasks.TaskID
	onPath map[tasks.TaskID]bool
}

func (w *walker) extend(node tasks.TaskID) []tasks.TaskID {
	for _, next := range w.out[node] {
		if next == w.start {
			cycle := make([]tasks.TaskID, len(w.path), len(w.path)+1)
			copy(cycle, w.path)
			return append(cycle, w.start)
		}
		if w.onPath[next] || !w.reach[next] {
			continue
		}
		w.path = append(w.path, next)
		w.onPath[next] = true
		if cycle := w.extend(next); cycle != nil {
			return cycle
		}
		w.onPath[next] = false
		w.path = w.path[:len(w.path)-1]
	}
	return nil
}

// reaching returns every node with a path to target.
func reaching(rev map[tasks.TaskID][]tasks.TaskID, target tasks.TaskID) map[tasks.TaskID]bool {
	seen := map[tasks.TaskID]bool{}
	queue := []tasks.TaskID{target}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, prev := range rev[node] {
			if !seen[prev] {
				seen[prev] = true
				queue = append(queue, prev)
			}
		}
	}
	return seen
}

// FormatCycle renders a cycle as "a -> b -> c -> a".
func FormatCycle(cycle []tasks.TaskID) string {
	parts := make([]string, len(cycle))
	for i, id := range cycle {
		parts[i] = id.String()
	}
	return strings.Join(parts, " -> ")
}
