package tracker

import (
	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/types"
)

// IssueView is a read-only projection of an issue for listings and boards.
type IssueView struct {
	*types.Issue
	Effective types.Status `json:"effective_status"`
	Blockers  []string     `json:"blockers,omitempty"`
	Done      int          `json:"criteria_done"`
	Criteria  int          `json:"criteria_total"`
	Archived  bool         `json:"archived,omitempty"`
}

// IssueDetail adds graph neighbours and the parsed body.
type IssueDetail struct {
	IssueView
	Dependencies []string   `json:"dependencies,omitempty"`
	Dependents   []string   `json:"dependents,omitempty"`
	Dangling     []string   `json:"dangling,omitempty"`
	Body         types.Body `json:"body"`
}

func newView(g *graph.Graph, issue *types.Issue) IssueView {
	done, total := issue.Checklist()
	return IssueView{
		Issue:     issue,
		Effective: g.EffectiveStatus(issue.ID),
		Blockers:  g.TransitiveBlockers(issue.ID),
		Done:      done,
		Criteria:  total,
		Archived:  issue.Doc().IsArchived(),
	}
}

// Column is one board lane.
type Column struct {
	Status types.Status `json:"status"`
	Issues []IssueView  `json:"issues"`
}

// Board groups active issues by effective status, one column per status in board order.
// An empty milestone selects every issue.
func (e *Engine) Board(milestone string) ([]Column, []error) {
	q := IssueQuery{}
	if milestone != "" {
		q.Filter.Milestone = &milestone
	}
	views, errs := e.ListIssues(q)

	columns := make([]Column, len(types.IssueStatuses))
	index := make(map[types.Status]int, len(types.IssueStatuses))
	for i, s := range types.IssueStatuses {
		columns[i] = Column{Status: s}
		index[s] = i
	}
	for _, v := range views {
		i := index[v.Effective]
		columns[i].Issues = append(columns[i].Issues, v)
	}
	return columns, errs
}

// Ready returns active issues that can be worked on now.
func (e *Engine) Ready() ([]IssueView, error) {
	return e.selectFromGraph((*graph.Graph).Ready)
}

// Blocked returns active issues that are declared blocked or wait on a dependency.
func (e *Engine) Blocked() ([]IssueView, error) {
	return e.selectFromGraph((*graph.Graph).Blocked)
}

func (e *Engine) selectFromGraph(pick func(*graph.Graph) []*types.Issue) ([]IssueView, error) {
	g, _, err := e.buildGraph(e.allIssues())
	if err != nil {
		return nil, err
	}
	var out []IssueView
	active := storage.Filter{}
	for _, issue := range pick(g) {
		if active.Matches(issue) {
			out = append(out, newView(g, issue))
		}
	}
	return sortViews(out), nil
}

func issuesOf(views []IssueView) []*types.Issue {
	out := make([]*types.Issue, len(views))
	for i, v := range views {
		out[i] = v.Issue
	}
	return out
}

// sortViews orders views the way SortIssues orders issues by default.
func sortViews(views []IssueView) []IssueView {
	issues := issuesOf(views)
	types.SortIssues(issues, nil)
	byID := make(map[string]IssueView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	out := make([]IssueView, len(issues))
	for i, issue := range issues {
		out[i] = byID[issue.ID]
	}
	return out
}
