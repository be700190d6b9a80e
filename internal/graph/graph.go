// Package graph derives the issue dependency graph and answers blocking queries.
//
// An edge A -> B means A depends on B. Edges come from A.depends_on and from B.blocks.
// The graph is rebuilt from the current issue set for every query and never persisted.
package graph

import (
	"slices"

	"github.com/steveyegge/roadmap/internal/types"
)

// Options controls how Build treats unknown references.
type Options struct {
	// StrictReferences rejects depends_on entries that name unknown issues instead of
	// warning about them.
	StrictReferences bool
}

// Graph is a directed dependency graph over issues.
type Graph struct {
	issues  map[string]*types.Issue
	order   []string            // discovery order
	deps    map[string][]string // id -> dependencies, declared order
	reverse map[string][]string // id -> dependents

	cyclic   bool
	blockers map[string][]string // memoized TransitiveBlockers, acyclic graphs only
}

// Build constructs the graph from issues. Unknown references yield warnings, or a
// *GraphError when opts.StrictReferences is set. A cycle is returned as a *GraphError
// alongside the graph so callers can still inspect it.
func Build(issues []*types.Issue, opts Options) (*Graph, []Warning, error) {
	g := &Graph{
		issues:  make(map[string]*types.Issue, len(issues)),
		deps:    make(map[string][]string),
		reverse: make(map[string][]string),
	}
	for _, issue := range issues {
		if _, dup := g.issues[issue.ID]; dup {
			continue
		}
		g.issues[issue.ID] = issue
		g.order = append(g.order, issue.ID)
	}

	var warnings []Warning
	for _, id := range g.order {
		issue := g.issues[id]
		for _, dep := range issue.DependsOn {
			if dep == id {
				continue
			}
			if _, ok := g.issues[dep]; !ok {
				if opts.StrictReferences {
					return nil, warnings, &GraphError{Kind: ErrDangling, Path: []string{id, dep}}
				}
				warnings = append(warnings, Warning{Issue: id, Field: "depends_on", Ref: dep})
				continue
			}
			g.link(id, dep)
		}
	}
	// blocks entries run after depends_on so declared dependency order wins
	for _, id := range g.order {
		for _, blocked := range g.issues[id].Blocks {
			if blocked == id {
				continue
			}
			if _, ok := g.issues[blocked]; !ok {
				warnings = append(warnings, Warning{Issue: id, Field: "blocks", Ref: blocked})
				continue
			}
			g.link(blocked, id)
		}
	}

	if cycles := g.Cycles(); len(cycles) > 0 {
		g.cyclic = true
		return g, warnings, &GraphError{Kind: ErrCycle, Path: cycles[0]}
	}
	return g, warnings, nil
}

func (g *Graph) link(from, to string) {
	if slices.Contains(g.deps[from], to) {
		return
	}
	g.deps[from] = append(g.deps[from], to)
	g.reverse[to] = append(g.reverse[to], from)
}

// Issue returns the issue with id, or nil.
func (g *Graph) Issue(id string) *types.Issue {
	return g.issues[id]
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.issues[id]
	return ok
}

// Dependencies returns the known issues id depends on, in declared order.
func (g *Graph) Dependencies(id string) []string {
	return slices.Clone(g.deps[id])
}

// Dependents returns the issues that depend on id, in discovery order.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.reverse[id])
}

const (
	white = iota // unvisited
	gray         // on the current DFS path
	black        // finished
)

// Cycles returns every cycle found by a three-color depth-first traversal in discovery
// order. Each cycle lists its identifiers in traversal order.
func (g *Graph) Cycles() [][]string {
	color := make(map[string]int, len(g.order))
	var (
		stack  []string
		cycles [][]string
		visit  func(id string)
	)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.deps[id] {
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				start := slices.Index(stack, dep)
				cycles = append(cycles, slices.Clone(stack[start:]))
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}
	for _, id := range g.order {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}

// AddEdge records that from depends on to. It fails without modifying the graph when the
// edge is a self-dependency, names an unknown issue, or would close a cycle.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return &GraphError{Kind: ErrSelf, Path: []string{from}}
	}
	if !g.Has(from) || !g.Has(to) {
		return &GraphError{Kind: ErrDangling, Path: []string{from, to}}
	}
	if slices.Contains(g.deps[from], to) {
		return nil
	}
	if path := g.path(to, from); path != nil {
		// from -> to -> ... -> (back to from)
		return &GraphError{Kind: ErrCycle, Path: append([]string{from}, path[:len(path)-1]...)}
	}
	g.link(from, to)
	g.blockers = nil
	return nil
}

// RemoveEdge drops the edge from -> to if present.
func (g *Graph) RemoveEdge(from, to string) {
	g.deps[from] = slices.DeleteFunc(g.deps[from], func(id string) bool { return id == to })
	g.reverse[to] = slices.DeleteFunc(g.reverse[to], func(id string) bool { return id == from })
	g.blockers = nil
}

// path returns the shortest dependency path from..to inclusive, or nil.
func (g *Graph) path(from, to string) []string {
	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g.deps[current] {
			if _, seen := parent[dep]; seen {
				continue
			}
			parent[dep] = current
			if dep == to {
				var out []string
				for n := to; n != ""; n = parent[n] {
					out = append(out, n)
				}
				slices.Reverse(out)
				return out
			}
			queue = append(queue, dep)
		}
	}
	return nil
}

// EffectiveStatus is the status shown for display: closed stays closed, otherwise the
// issue is blocked when it is declared blocked or any known dependency is not closed.
// Unknown references do not block. The stored status is never changed.
func (g *Graph) EffectiveStatus(id string) types.Status {
	issue := g.issues[id]
	if issue == nil {
		return ""
	}
	if issue.Status == types.StatusClosed || issue.Status == types.StatusBlocked {
		return issue.Status
	}
	for _, dep := range g.deps[id] {
		if !g.issues[dep].IsClosed() {
			return types.StatusBlocked
		}
	}
	return issue.Status
}

// TransitiveBlockers returns every direct or transitive dependency of id whose effective
// status is not closed, in depth-first declared order. On an acyclic graph each node's
// list is computed once per graph and shared; callers must not modify it.
func (g *Graph) TransitiveBlockers(id string) []string {
	if g.cyclic {
		return g.walkBlockers(id)
	}
	if out, ok := g.blockers[id]; ok {
		return out
	}
	if g.blockers == nil {
		g.blockers = make(map[string][]string)
	}

	var out []string
	seen := map[string]bool{id: true}
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, dep := range g.deps[id] {
		if seen[dep] {
			continue
		}
		if g.EffectiveStatus(dep) != types.StatusClosed {
			add(dep)
		} else {
			seen[dep] = true
		}
		for _, b := range g.TransitiveBlockers(dep) {
			add(b)
		}
	}
	out = slices.Clip(out)
	g.blockers[id] = out
	return out
}

// walkBlockers is the uncached walk used when the graph holds a cycle.
func (g *Graph) walkBlockers(id string) []string {
	var (
		out   []string
		seen  = map[string]bool{id: true}
		visit func(string)
	)
	visit = func(n string) {
		for _, dep := range g.deps[n] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if g.EffectiveStatus(dep) != types.StatusClosed {
				out = append(out, dep)
			}
			visit(dep)
		}
	}
	visit(id)
	return out
}

// IsBlocked reports whether id has any unresolved direct or transitive dependency.
func (g *Graph) IsBlocked(id string) bool {
	return len(g.TransitiveBlockers(id)) > 0
}

// Ready returns open issues that are not declared blocked and have no unresolved
// dependency, in discovery order.
func (g *Graph) Ready() []*types.Issue {
	var out []*types.Issue
	for _, id := range g.order {
		issue := g.issues[id]
		if issue.IsClosed() || issue.Status == types.StatusBlocked || g.IsBlocked(id) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// Blocked returns open issues that are declared blocked or have an unresolved
// dependency, in discovery order.
func (g *Graph) Blocked() []*types.Issue {
	var out []*types.Issue
	for _, id := range g.order {
		issue := g.issues[id]
		if issue.IsClosed() {
			continue
		}
		if issue.Status == types.StatusBlocked || g.IsBlocked(id) {
			out = append(out, issue)
		}
	}
	return out
}

// Issues returns every node in discovery order.
func (g *Graph) Issues() []*types.Issue {
	out := make([]*types.Issue, len(g.order))
	for i, id := range g.order {
		out[i] = g.issues[id]
	}
	return out
}
