package tracker

import (
	"fmt"
	"slices"

	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/types"
)

// AddDependency records that from depends on to, and that to blocks from. It is
// rejected with a *graph.GraphError before anything is written when it would create a
// self-dependency or a cycle. An unknown target is a warning, or an error with strict
// references.
func (e *Engine) AddDependency(from, to string) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(from)
	if err != nil {
		return nil, nil, err
	}
	if from == to {
		return nil, nil, &graph.GraphError{Kind: graph.ErrSelf, Path: []string{from}}
	}

	issues := e.allIssues()
	g, _, err := e.buildGraph(issues)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	if g.Has(to) {
		if err := g.AddEdge(from, to); err != nil {
			return nil, nil, err
		}
	} else {
		if e.graphOpts.StrictReferences {
			return nil, nil, &graph.GraphError{Kind: graph.ErrDangling, Path: []string{from, to}}
		}
		e.warn(&warnings, types.KindIssue, from, "depends_on references unknown issue %s", to)
	}

	var changed bool
	issue.DependsOn, changed = addUnique(issue.DependsOn, to)
	if !changed {
		return issue, warnings, nil
	}
	issue.Touch(e.clock())
	if err := e.save(issue); err != nil {
		return nil, warnings, err
	}
	e.log.Debug("dependency added", "from", from, "to", to)

	e.mirror(g.Issue(to), func(t *types.Issue) bool {
		var c bool
		t.Blocks, c = addUnique(t.Blocks, from)
		return c
	}, &warnings)
	return issue, warnings, nil
}

// RemoveDependency drops from -> to from both sides: from.depends_on and to.blocks.
func (e *Engine) RemoveDependency(from, to string) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(from)
	if err != nil {
		return nil, nil, err
	}

	var target *types.Issue
	if t, err := e.loadIssue(to); err == nil {
		target = t
	} else if !IsNotFound(err) {
		return nil, nil, err
	}

	declaredHere := slices.Contains(issue.DependsOn, to)
	declaredThere := target != nil && slices.Contains(target.Blocks, from)
	if !declaredHere && !declaredThere {
		return nil, nil, fmt.Errorf("issue %s does not depend on %s", from, to)
	}

	var warnings []Warning
	if declaredHere {
		issue.DependsOn, _ = removeAll(issue.DependsOn, to)
		issue.Touch(e.clock())
		if err := e.save(issue); err != nil {
			return nil, nil, err
		}
	}
	if declaredThere {
		if target.Doc().IsArchived() {
			e.warn(&warnings, types.KindIssue, to, "archived issue still lists %s in blocks", from)
		} else {
			e.mirror(target, func(t *types.Issue) bool {
				var c bool
				t.Blocks, c = removeAll(t.Blocks, from)
				return c
			}, &warnings)
		}
	}
	e.log.Debug("dependency removed", "from", from, "to", to)
	return issue, warnings, nil
}
