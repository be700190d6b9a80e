package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/roadmap/internal/lifecycle"
	"github.com/steveyegge/roadmap/internal/progress"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/types"
)

// MilestoneInput describes a new milestone.
type MilestoneInput struct {
	Name        string
	Description string
	DueDate     *types.Date
	Body        string
}

// CreateMilestone saves a new open milestone. Names are unique.
func (e *Engine) CreateMilestone(in MilestoneInput) (*types.Milestone, error) {
	name := strings.TrimSpace(in.Name)
	if name != "" && e.store.Exists(types.KindMilestone, name) {
		return nil, fmt.Errorf("milestone %q already exists", name)
	}
	now := e.clock()
	m := &types.Milestone{
		Name:        name,
		Description: in.Description,
		DueDate:     in.DueDate,
		Status:      types.MilestoneOpen,
		Created:     now,
		Updated:     now,
		RiskLevel:   types.RiskLow,
	}
	m.Body = in.Body
	if m.Body == "" {
		body, err := e.templates.Render(types.KindMilestone, templates.Fields{Title: name, Description: in.Description})
		if err != nil {
			return nil, err
		}
		m.Body = body
	}
	if err := e.save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MilestoneReport pairs a milestone with freshly computed progress.
type MilestoneReport struct {
	Milestone *types.Milestone `json:"milestone"`
	Progress  progress.Report  `json:"progress"`
	Issues    []IssueView      `json:"issues,omitempty"`
}

// MilestoneProgress recomputes progress for the named milestone from its issues and
// refreshes the cached fields on disk when they are stale.
func (e *Engine) MilestoneProgress(name string) (*MilestoneReport, error) {
	m, err := e.loadMilestone(name)
	if err != nil {
		return nil, err
	}
	return e.milestoneReport(m, e.allIssues())
}

func (e *Engine) milestoneReport(m *types.Milestone, all []*types.Issue) (*MilestoneReport, error) {
	g, _, err := e.buildGraph(all)
	if err != nil {
		return nil, err
	}
	issues := issuesInMilestone(all, m.Name)
	now := e.clock()
	status := func(i *types.Issue) types.Status { return g.EffectiveStatus(i.ID) }
	r := progress.Milestone(m, issues, status, now, e.progOpts)

	if !m.Doc().IsArchived() && progress.ApplyMilestone(m, r, now) {
		if err := e.store.Save(m); err != nil {
			// the cache is a hint; a stale file is not an error for the reader
			e.log.Debug("milestone cache not refreshed", "name", m.Name, "error", err)
		}
	}

	views := make([]IssueView, len(issues))
	for i, issue := range issues {
		views[i] = newView(g, issue)
	}
	return &MilestoneReport{Milestone: m, Progress: r, Issues: views}, nil
}

func issuesInMilestone(all []*types.Issue, name string) []*types.Issue {
	var out []*types.Issue
	for _, issue := range all {
		if issue.Milestone == name {
			out = append(out, issue)
		}
	}
	return out
}

// ListMilestones returns milestones with refreshed progress in discovery order.
func (e *Engine) ListMilestones(includeArchived bool) ([]*MilestoneReport, []error) {
	milestones, errs := storage.Collect[*types.Milestone](e.store.List(types.KindMilestone, storage.Filter{IncludeArchived: includeArchived}))
	all := e.allIssues()
	out := make([]*MilestoneReport, 0, len(milestones))
	for _, m := range milestones {
		r, err := e.milestoneReport(m, all)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.Issues = nil
		out = append(out, r)
	}
	return out, errs
}

// SetMilestoneStatus opens or closes a milestone. Closing with open issues is allowed
// and warned about.
func (e *Engine) SetMilestoneStatus(name string, to types.MilestoneStatus) (*types.Milestone, []Warning, error) {
	m, err := e.loadMilestone(name)
	if err != nil {
		return nil, nil, err
	}
	if err := frozen(m); err != nil {
		return nil, nil, err
	}
	changed, err := lifecycle.TransitionMilestone(m, to, e.clock())
	if err != nil || !changed {
		return m, nil, err
	}

	var warnings []Warning
	if to == types.MilestoneClosed {
		open := 0
		for _, issue := range issuesInMilestone(e.allIssues(), name) {
			if !issue.IsClosed() && !issue.Doc().IsArchived() {
				open++
			}
		}
		if open > 0 {
			e.warn(&warnings, types.KindMilestone, name, "closed with %d open issue(s)", open)
		}
	}
	if err := e.save(m); err != nil {
		return nil, warnings, err
	}
	return m, warnings, nil
}

// ArchiveMilestone moves a milestone into archive/milestones/<slug>/. With issues set,
// its closed issues move into archive/issues/<slug>/ as well. The milestone moves first;
// an issue that cannot be moved is skipped and its error joined into the result, so the
// returned entities are always exactly what was archived.
func (e *Engine) ArchiveMilestone(name string, issues bool) ([]types.Entity, []Warning, error) {
	m, err := e.loadMilestone(name)
	if err != nil {
		return nil, nil, err
	}
	if err := frozen(m); err != nil {
		return nil, nil, err
	}
	if err := e.store.Archive(m, name); err != nil {
		return nil, nil, err
	}

	var (
		moved    = []types.Entity{m}
		warnings []Warning
		errs     []error
	)
	if issues {
		for _, issue := range issuesInMilestone(e.allIssues(), name) {
			if issue.Doc().IsArchived() {
				continue
			}
			if !issue.IsClosed() {
				e.warn(&warnings, types.KindIssue, issue.ID, "left active: status is %s", issue.Status)
				continue
			}
			if err := e.store.Archive(issue, name); err != nil {
				errs = append(errs, err)
				continue
			}
			moved = append(moved, issue)
		}
	}
	return moved, warnings, errors.Join(errs...)
}
