// Package graph performs structural analysis of workflow state graphs:
// cycle enumeration, dead-end and unreachable-state detection, and
// longest-path depth measurement.
package graph

import (
	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Analyze inspects a workflow graph and returns its structural
// findings. It is pure and deterministic: states are processed in
// declaration order and edges in transition order, so identical input
// always yields identical output.
//
// The entry point of the graph is the first declared state. A
// transition whose source state is undeclared contributes no adjacency
// entry and is dropped silently; partial data is never fatal. An empty
// state set is.
func Analyze(g types.WorkflowGraph) (*types.GraphFindings, error) {
	if len(g.States) == 0 {
		return nil, types.NewError(types.CodeInvalidGraph,
			"workflow %q declares no states", g.ID)
	}

	// Every declared state gets an outgoing-edge list, possibly empty.
	adjacency := make(map[string][]string, len(g.States))
	declared := make(map[string]bool, len(g.States))
	for _, s := range g.States {
		declared[s] = true
		if _, ok := adjacency[s]; !ok {
			adjacency[s] = nil
		}
	}
	for _, t := range g.Transitions {
		if !declared[t.From] {
			continue
		}
		adjacency[t.From] = append(adjacency[t.From], t.To)
	}

	findings := &types.GraphFindings{
		Cycles:      detectCycles(g.States, adjacency),
		DeadEnds:    []string{},
		Unreachable: []string{},
	}

	entry := g.States[0]
	reachable := make(map[string]bool)
	markReachable(entry, adjacency, reachable)

	for _, s := range g.States {
		if len(adjacency[s]) == 0 {
			findings.DeadEnds = append(findings.DeadEnds, s)
		}
		if !reachable[s] {
			findings.Unreachable = append(findings.Unreachable, s)
		}
	}

	findings.MaxDepth = longestPath(entry, adjacency, make(map[string]bool))

	return findings, nil
}

// markReachable walks every path from node and records each state it
// touches.
func markReachable(node string, adjacency map[string][]string, seen map[string]bool) {
	if seen[node] {
		return
	}
	seen[node] = true
	for _, next := range adjacency[node] {
		markReachable(next, adjacency, seen)
	}
}

// detectCycles runs a depth-first search from every declared state as a
// potential cycle root. Whenever traversal revisits a state on the
// active path, the suffix of the path from that state is one cycle.
//
// The same cycle reachable from several roots is reported once per
// discovery, not deduplicated. Downstream scoring counts discoveries,
// so the enumeration order and the duplicates are load-bearing.
func detectCycles(states []string, adjacency map[string][]string) [][]string {
	cycles := [][]string{}

	for _, root := range states {
		visited := make(map[string]bool)
		onPath := make(map[string]int)
		path := []string{}

		var walk func(node string)
		walk = func(node string) {
			if idx, ok := onPath[node]; ok {
				cycle := make([]string, len(path)-idx)
				copy(cycle, path[idx:])
				cycles = append(cycles, cycle)
				return
			}
			if visited[node] {
				return
			}
			visited[node] = true
			onPath[node] = len(path)
			path = append(path, node)
			for _, next := range adjacency[node] {
				walk(next)
			}
			delete(onPath, node)
			path = path[:len(path)-1]
		}
		walk(root)
	}

	return cycles
}

// longestPath returns the length in states of the longest simple path
// starting at node. The visited set is per path, not global, so
// sibling branches do not truncate each other. A lone state has depth 1.
//
// Worst case is exponential in branching factor; workflow graphs are
// tens of states, which keeps this tractable without memoization.
func longestPath(node string, adjacency map[string][]string, visiting map[string]bool) int {
	visiting[node] = true
	best := 0
	for _, next := range adjacency[node] {
		if visiting[next] {
			continue
		}
		if d := longestPath(next, adjacency, visiting); d > best {
			best = d
		}
	}
	delete(visiting, node)
	return best + 1
}
