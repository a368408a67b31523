package cpm

import (
	"fmt"
	"sort"

	"github.com/joshharrison/specloom/internal/graph"
	"github.com/joshharrison/specloom/internal/tasks"
)

// Analyze performs critical path method analysis on a task graph. Every
// task has duration 1; checkpoints are scheduled like any other item.
// Edges from ids outside the graph are ignored, so callers normally pass
// a graph already narrowed with Filter.
func Analyze(g *graph.TaskGraph) (*CPMResult, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle detected: %s", graph.FormatCycle(cycle))
	}

	pos := make(map[tasks.TaskID]int, len(g.Order))
	for i, id := range g.Order {
		pos[id] = i
	}
	preds := func(id tasks.TaskID) []tasks.TaskID {
		var out []tasks.TaskID
		for _, p := range g.RevAdj[id] {
			if _, ok := pos[p]; ok {
				out = append(out, p)
			}
		}
		return out
	}

	order, err := topoSort(g, pos, preds)
	if err != nil {
		return nil, err
	}

	result := &CPMResult{
		Tasks:     make(map[tasks.TaskID]*TaskSchedule),
		TopoOrder: order,
	}
	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id}
	}

	// Forward pass: ES = max(EF of all predecessors)
	for _, id := range order {
		ts := result.Tasks[id]
		es := 0
		for _, pred := range preds(id) {
			if ef := result.Tasks[pred].EF; ef > es {
				es = ef
			}
		}
		ts.ES = es
		ts.EF = es + 1
	}

	totalDuration := 0
	for _, ts := range result.Tasks {
		if ts.EF > totalDuration {
			totalDuration = ts.EF
		}
	}
	result.TotalDuration = totalDuration

	// Backward pass in reverse topological order
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]

		lf := totalDuration
		for _, succ := range g.Adj[id] {
			if succTS, ok := result.Tasks[succ]; ok && succTS.LS < lf {
				lf = succTS.LS
			}
		}
		ts.LF = lf
		ts.LS = lf - 1
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	for _, id := range order {
		if result.Tasks[id].IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.Waves = computeWaves(result, pos)
	return result, nil
}

// topoSort performs Kahn's algorithm, releasing ties in document order.
func topoSort(g *graph.TaskGraph, pos map[tasks.TaskID]int, preds func(tasks.TaskID) []tasks.TaskID) ([]tasks.TaskID, error) {
	inDegree := make(map[tasks.TaskID]int, len(g.Order))
	var queue []tasks.TaskID
	for _, id := range g.Order {
		inDegree[id] = len(preds(id))
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var order []tasks.TaskID
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []tasks.TaskID
		for _, succ := range g.Adj[node] {
			if _, ok := pos[succ]; !ok {
				continue
			}
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Slice(newReady, func(a, b int) bool { return pos[newReady[a]] < pos[newReady[b]] })
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Order) {
		return nil, fmt.Errorf("topological sort failed: graph has a cycle (%d of %d tasks sorted)", len(order), len(g.Order))
	}
	return order, nil
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(result *CPMResult, pos map[tasks.TaskID]int) []Wave {
	esGroups := make(map[int][]tasks.TaskID)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		ids := esGroups[es]

		hasCritical := false
		for _, id := range ids {
			result.Tasks[id].Wave = i
			if result.Tasks[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first, then document order
		sort.SliceStable(ids, func(a, b int) bool {
			aCrit := result.Tasks[ids[a]].IsCritical
			bCrit := result.Tasks[ids[b]].IsCritical
			if aCrit != bCrit {
				return aCrit
			}
			return pos[ids[a]] < pos[ids[b]]
		})

		waves[i] = Wave{
			Index:      i,
			TaskIDs:    ids,
			IsCritical: hasCritical,
		}
	}

	return waves
}
