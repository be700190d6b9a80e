package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/idgen"
	"github.com/steveyegge/roadmap/internal/lifecycle"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/types"
)

// IssueInput describes a new issue. Empty enums take the configured defaults.
type IssueInput struct {
	Title          string
	Description    string
	Criteria       []string
	Priority       types.Priority
	IssueType      types.IssueType
	Milestone      string
	Assignee       string
	Labels         []string
	EstimatedHours *float64
	DueDate        *types.Date
	DependsOn      []string
	Blocks         []string
	// Body replaces the rendered template when set.
	Body string
}

// CreateIssue assigns a fresh identifier, renders the body template and saves the
// issue. Dependencies are recorded on both sides and checked for cycles before anything
// is written.
func (e *Engine) CreateIssue(in IssueInput) (*types.Issue, []Warning, error) {
	now := e.clock()
	title := strings.TrimSpace(in.Title)

	id, err := idgen.Generate(title, e.actor, now, func(id string) bool {
		return e.store.Exists(types.KindIssue, id)
	})
	if err != nil {
		return nil, nil, err
	}

	issue := &types.Issue{
		ID:             id,
		Title:          title,
		Priority:       in.Priority,
		Status:         types.StatusNotStarted,
		IssueType:      in.IssueType,
		Milestone:      in.Milestone,
		Assignee:       in.Assignee,
		Created:        now,
		Updated:        now,
		EstimatedHours: in.EstimatedHours,
		DueDate:        in.DueDate,
	}
	if issue.Priority == "" {
		issue.Priority = e.defaults.priority
	}
	if issue.IssueType == "" {
		issue.IssueType = e.defaults.issueType
	}
	issue.Labels, _ = addUnique(nil, in.Labels...)
	issue.DependsOn, _ = addUnique(nil, in.DependsOn...)
	issue.Blocks, _ = addUnique(nil, in.Blocks...)

	issue.Body = in.Body
	if issue.Body == "" {
		issue.Body, err = e.templates.Render(types.KindIssue, templates.Fields{
			Title:       title,
			Description: in.Description,
			Criteria:    in.Criteria,
			Milestone:   in.Milestone,
			Assignee:    in.Assignee,
			Labels:      issue.Labels,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var warnings []Warning
	if issue.Milestone != "" && !e.store.Exists(types.KindMilestone, issue.Milestone) {
		e.warn(&warnings, types.KindIssue, id, "milestone %q does not exist", issue.Milestone)
	}

	g, gwarn, err := e.checkGraph(append(e.allIssues(), issue), id)
	if err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, e.graphWarnings(gwarn, id)...)

	if err := e.save(issue); err != nil {
		return nil, warnings, err
	}
	e.log.Debug("created issue", "id", id, "title", title)

	for _, dep := range issue.DependsOn {
		e.mirror(g.Issue(dep), func(t *types.Issue) bool {
			var changed bool
			t.Blocks, changed = addUnique(t.Blocks, id)
			return changed
		}, &warnings)
	}
	for _, blocked := range issue.Blocks {
		e.mirror(g.Issue(blocked), func(t *types.Issue) bool {
			var changed bool
			t.DependsOn, changed = addUnique(t.DependsOn, id)
			return changed
		}, &warnings)
	}
	return issue, warnings, nil
}

// graphWarnings converts dangling-reference warnings that concern id.
func (e *Engine) graphWarnings(gw []graph.Warning, id string) []Warning {
	var out []Warning
	for _, w := range gw {
		if w.Issue != id {
			continue
		}
		e.warn(&out, types.KindIssue, id, "%s references unknown issue %s", w.Field, w.Ref)
	}
	return out
}

// mirror applies the reverse side of a dependency change to another issue. Failures are
// reported as warnings: the primary change is already saved.
func (e *Engine) mirror(target *types.Issue, apply func(*types.Issue) bool, warnings *[]Warning) {
	if target == nil || target.Doc().IsArchived() {
		return
	}
	if !apply(target) {
		return
	}
	target.Touch(e.clock())
	if err := e.save(target); err != nil {
		e.warn(warnings, types.KindIssue, target.ID, "could not update reverse dependency: %v", err)
	}
}

// GetIssue loads one issue, archived or not.
func (e *Engine) GetIssue(id string) (*types.Issue, error) {
	return e.loadIssue(id)
}

// IssueUpdate lists field changes. Nil fields stay as they are.
type IssueUpdate struct {
	Title          *string
	Priority       *types.Priority
	IssueType      *types.IssueType
	Assignee       *string
	Milestone      *string // empty string clears it
	EstimatedHours *float64
	DueDate        *types.Date
	ClearDueDate   bool
	Progress       *float64
	AddLabels      []string
	RemoveLabels   []string
	GitBranches    []string
	GitCommits     []string
	Body           *string
}

// UpdateIssue applies u and bumps updated when anything changed.
func (e *Engine) UpdateIssue(id string, u IssueUpdate) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(id)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	changed := false
	set := func(cond bool, apply func()) {
		if cond {
			apply()
			changed = true
		}
	}

	set(u.Title != nil && strings.TrimSpace(*u.Title) != issue.Title, func() { issue.Title = strings.TrimSpace(*u.Title) })
	set(u.Priority != nil && *u.Priority != issue.Priority, func() { issue.Priority = *u.Priority })
	set(u.IssueType != nil && *u.IssueType != issue.IssueType, func() { issue.IssueType = *u.IssueType })
	set(u.Assignee != nil && *u.Assignee != issue.Assignee, func() { issue.Assignee = *u.Assignee })
	set(u.EstimatedHours != nil, func() { issue.EstimatedHours = u.EstimatedHours })
	set(u.Progress != nil, func() { issue.ProgressPercentage = u.Progress })
	set(u.DueDate != nil, func() { issue.DueDate = u.DueDate })
	set(u.ClearDueDate && issue.DueDate != nil, func() { issue.DueDate = nil })
	set(u.Body != nil && *u.Body != issue.Body, func() { issue.Body = *u.Body })

	if u.Milestone != nil && *u.Milestone != issue.Milestone {
		issue.Milestone = *u.Milestone
		changed = true
		if issue.Milestone != "" && !e.store.Exists(types.KindMilestone, issue.Milestone) {
			e.warn(&warnings, types.KindIssue, id, "milestone %q does not exist", issue.Milestone)
		}
	}

	var c bool
	issue.Labels, c = addUnique(issue.Labels, u.AddLabels...)
	changed = changed || c
	issue.Labels, c = removeAll(issue.Labels, u.RemoveLabels...)
	changed = changed || c
	issue.GitBranches, c = addUnique(issue.GitBranches, u.GitBranches...)
	changed = changed || c
	issue.GitCommits, c = addUnique(issue.GitCommits, u.GitCommits...)
	changed = changed || c

	if !changed {
		return issue, warnings, nil
	}
	issue.Touch(e.clock())
	if err := e.save(issue); err != nil {
		return nil, warnings, err
	}
	return issue, warnings, nil
}

// SetIssueStatus runs the issue state machine. Starting work on an issue also starts its
// milestone; starting with unresolved dependencies is allowed but warned about.
func (e *Engine) SetIssueStatus(id string, to types.Status) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(id)
	if err != nil {
		return nil, nil, err
	}
	if !to.IsValid() {
		return nil, nil, &lifecycle.InvalidTransitionError{
			Kind: types.KindIssue, Key: id, From: string(issue.Status), To: string(to),
			Allowed: statusNames(lifecycle.AllowedIssueTransitions(issue.Status)),
		}
	}

	now := e.clock()
	changed, err := lifecycle.TransitionIssue(issue, to, now)
	if err != nil || !changed {
		return issue, nil, err
	}

	var warnings []Warning
	if to == types.StatusInProgress || to == types.StatusClosed {
		if g, _, gerr := e.buildGraph(e.allIssues()); gerr == nil {
			if blockers := g.TransitiveBlockers(id); len(blockers) > 0 {
				e.warn(&warnings, types.KindIssue, id, "still depends on unresolved %s", strings.Join(blockers, ", "))
			}
		}
	}

	if err := e.save(issue); err != nil {
		return nil, warnings, err
	}
	e.log.Debug("issue status changed", "id", id, "status", to)

	if to == types.StatusInProgress && issue.Milestone != "" {
		e.startMilestone(issue.Milestone, now, &warnings)
	}
	return issue, warnings, nil
}

// StartIssue moves an issue to in-progress.
func (e *Engine) StartIssue(id string) (*types.Issue, []Warning, error) {
	return e.SetIssueStatus(id, types.StatusInProgress)
}

// CloseIssue moves an issue to closed.
func (e *Engine) CloseIssue(id string) (*types.Issue, []Warning, error) {
	return e.SetIssueStatus(id, types.StatusClosed)
}

// ReopenIssue moves a closed issue back to in-progress.
func (e *Engine) ReopenIssue(id string) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(id)
	if err != nil {
		return nil, nil, err
	}
	if issue.Status != types.StatusClosed {
		return nil, nil, fmt.Errorf("issue %s is %s, only closed issues can be reopened", id, issue.Status)
	}
	return e.SetIssueStatus(id, types.StatusInProgress)
}

func (e *Engine) startMilestone(name string, now time.Time, warnings *[]Warning) {
	m, err := e.loadMilestone(name)
	if err != nil || m.Doc().IsArchived() || m.ActualStartDate != nil {
		return
	}
	started := now
	m.ActualStartDate = &started
	m.Touch(now)
	if err := e.save(m); err != nil {
		e.warn(warnings, types.KindMilestone, name, "could not record start: %v", err)
	}
}

// Handoff reassigns an issue and records who had it, when, and why.
func (e *Engine) Handoff(id, to, notes string) (*types.Issue, error) {
	issue, err := e.mutable(id)
	if err != nil {
		return nil, err
	}
	if to == issue.Assignee {
		return nil, fmt.Errorf("issue %s is already assigned to %q", id, to)
	}
	now := e.clock()
	issue.PreviousAssignee = issue.Assignee
	issue.Assignee = to
	issue.HandoffNotes = notes
	issue.HandoffDate = &now
	issue.Touch(now)
	if err := e.save(issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// ArchiveIssue moves an issue into archive/issues/<milestone slug or backlog>/.
func (e *Engine) ArchiveIssue(id string) (*types.Issue, []Warning, error) {
	issue, err := e.mutable(id)
	if err != nil {
		return nil, nil, err
	}
	var warnings []Warning
	if !issue.IsClosed() {
		e.warn(&warnings, types.KindIssue, id, "archiving while %s", issue.Status)
	}
	if err := e.store.Archive(issue, issueBucket(issue)); err != nil {
		return nil, warnings, err
	}
	return issue, warnings, nil
}

func issueBucket(issue *types.Issue) string {
	if issue.Milestone == "" {
		return "backlog"
	}
	return issue.Milestone
}

// IssueQuery selects issues for listing.
type IssueQuery struct {
	Filter          types.IssueFilter
	Sort            []types.IssueSortOption
	IncludeArchived bool
	ArchivedOnly    bool
	// Effective filters on effective status instead of the declared one.
	Effective *types.Status
}

// ListIssues returns matching issues with their effective status, plus one error per
// unreadable file.
func (e *Engine) ListIssues(q IssueQuery) ([]IssueView, []error) {
	issues, errs := storage.Collect[*types.Issue](e.store.List(types.KindIssue, storage.Filter{
		IncludeArchived: true,
	}))

	g, _, err := e.buildGraph(issues)
	if err != nil {
		return nil, append(errs, err)
	}

	var selected []*types.Issue
	filter := storage.Filter{IncludeArchived: q.IncludeArchived, ArchivedOnly: q.ArchivedOnly}
	for _, issue := range issues {
		if !filter.Matches(issue) || !q.Filter.Matches(issue) {
			continue
		}
		if q.Effective != nil && g.EffectiveStatus(issue.ID) != *q.Effective {
			continue
		}
		selected = append(selected, issue)
	}
	types.SortIssues(selected, q.Sort)

	views := make([]IssueView, len(selected))
	for i, issue := range selected {
		views[i] = newView(g, issue)
	}
	return views, errs
}

// ShowIssue returns one issue with its graph context.
func (e *Engine) ShowIssue(id string) (*IssueDetail, error) {
	issue, err := e.loadIssue(id)
	if err != nil {
		return nil, err
	}
	issues := e.allIssues()
	g, _, err := e.buildGraph(issues)
	if err != nil {
		return nil, err
	}
	// prefer the freshly loaded copy in case discovery skipped it
	if g.Issue(id) == nil {
		g, _, err = e.buildGraph(append(issues, issue))
		if err != nil {
			return nil, err
		}
	}
	detail := &IssueDetail{
		IssueView:    newView(g, g.Issue(id)),
		Dependencies: g.Dependencies(id),
		Dependents:   g.Dependents(id),
		Body:         types.ParseBody(issue.Body),
	}
	for _, ref := range issue.DependsOn {
		if !g.Has(ref) {
			detail.Dangling = append(detail.Dangling, ref)
		}
	}
	return detail, nil
}

func statusNames(values []types.Status) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
