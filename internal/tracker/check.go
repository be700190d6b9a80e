package tracker

import (
	"fmt"
	"strings"

	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/types"
)

// Severity ranks a check finding.
type Severity string

// Severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one repository check finding.
type Problem struct {
	Severity Severity   `json:"severity"`
	Kind     types.Kind `json:"kind,omitempty"`
	Key      string     `json:"key,omitempty"`
	Message  string     `json:"message"`
}

func (p Problem) String() string {
	if p.Key == "" {
		return fmt.Sprintf("%s: %s", p.Severity, p.Message)
	}
	return fmt.Sprintf("%s: %s %s: %s", p.Severity, p.Kind, p.Key, p.Message)
}

// CheckReport is the result of Check.
type CheckReport struct {
	Counts   map[types.Kind]int `json:"counts"`
	Problems []Problem          `json:"problems"`
}

// OK reports whether no error-level problem was found.
func (r *CheckReport) OK() bool {
	for _, p := range r.Problems {
		if p.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Check loads every file, archive included, and reports validation failures,
// duplicate keys, dangling references and dependency cycles in one pass.
func (e *Engine) Check() *CheckReport {
	r := &CheckReport{Counts: make(map[types.Kind]int)}
	add := func(sev Severity, kind types.Kind, key, format string, args ...any) {
		r.Problems = append(r.Problems, Problem{Severity: sev, Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)})
	}

	entities := make(map[types.Kind][]types.Entity)
	for _, kind := range types.Kinds {
		seen := make(map[string]string)
		for ent, err := range e.store.List(kind, storage.Filter{IncludeArchived: true}) {
			if err != nil {
				add(SeverityError, kind, "", "%v", err)
				continue
			}
			r.Counts[kind]++
			path := ""
			if o := ent.Doc().Origin; o != nil {
				path = o.Path
			}
			if prev, dup := seen[ent.Key()]; dup {
				add(SeverityError, kind, ent.Key(), "duplicate key in %s and %s", prev, path)
				continue
			}
			seen[ent.Key()] = path
			entities[kind] = append(entities[kind], ent)
		}
	}

	var issues []*types.Issue
	for _, ent := range entities[types.KindIssue] {
		issues = append(issues, ent.(*types.Issue))
	}
	milestones := make(map[string]bool)
	for _, ent := range entities[types.KindMilestone] {
		milestones[ent.Key()] = true
	}

	g, warnings, _ := graph.Build(issues, graph.Options{})
	for _, w := range warnings {
		sev := SeverityWarning
		if e.graphOpts.StrictReferences && w.Field == "depends_on" {
			sev = SeverityError
		}
		add(sev, types.KindIssue, w.Issue, "%s references unknown issue %s", w.Field, w.Ref)
	}
	for _, cycle := range g.Cycles() {
		add(SeverityError, types.KindIssue, cycle[0], "dependency cycle: %s -> %s", strings.Join(cycle, " -> "), cycle[0])
	}

	for _, issue := range issues {
		if issue.Milestone != "" && !milestones[issue.Milestone] {
			add(SeverityWarning, types.KindIssue, issue.ID, "milestone %q does not exist", issue.Milestone)
		}
	}
	for _, ent := range entities[types.KindProject] {
		p := ent.(*types.Project)
		for _, name := range p.Milestones {
			if !milestones[name] {
				add(SeverityWarning, types.KindProject, p.ID, "milestone %q does not exist", name)
			}
		}
	}
	return r
}
