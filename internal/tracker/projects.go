package tracker

import (
	"strings"

	"github.com/steveyegge/roadmap/internal/idgen"
	"github.com/steveyegge/roadmap/internal/lifecycle"
	"github.com/steveyegge/roadmap/internal/progress"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/types"
)

// ProjectInput describes a new project.
type ProjectInput struct {
	Name           string
	Description    string
	Owner          string
	Priority       types.Priority
	StartDate      *types.Date
	TargetEndDate  *types.Date
	Milestones     []string
	EstimatedHours *float64
	Body           string
}

// CreateProject saves a new project in planning. Unknown milestones are warned about.
func (e *Engine) CreateProject(in ProjectInput) (*types.Project, []Warning, error) {
	now := e.clock()
	name := strings.TrimSpace(in.Name)
	id, err := idgen.Generate(name, e.actor, now, func(id string) bool {
		return e.store.Exists(types.KindProject, id)
	})
	if err != nil {
		return nil, nil, err
	}

	p := &types.Project{
		ID:             id,
		Name:           name,
		Description:    in.Description,
		Status:         types.ProjectPlanning,
		Priority:       in.Priority,
		Owner:          in.Owner,
		StartDate:      in.StartDate,
		TargetEndDate:  in.TargetEndDate,
		Created:        now,
		Updated:        now,
		EstimatedHours: in.EstimatedHours,
	}
	if p.Priority == "" {
		p.Priority = e.defaults.priority
	}
	p.Milestones, _ = addUnique(nil, in.Milestones...)

	var warnings []Warning
	for _, ms := range p.Milestones {
		if !e.store.Exists(types.KindMilestone, ms) {
			e.warn(&warnings, types.KindProject, id, "milestone %q does not exist", ms)
		}
	}

	p.Body = in.Body
	if p.Body == "" {
		p.Body, err = e.templates.Render(types.KindProject, templates.Fields{
			Title:       name,
			Description: in.Description,
			Milestones:  p.Milestones,
		})
		if err != nil {
			return nil, warnings, err
		}
	}
	if err := e.save(p); err != nil {
		return nil, warnings, err
	}
	return p, warnings, nil
}

// GetProject loads one project.
func (e *Engine) GetProject(id string) (*types.Project, error) {
	return e.loadProject(id)
}

// ListProjects returns projects in discovery order.
func (e *Engine) ListProjects(includeArchived bool) ([]*types.Project, []error) {
	return storage.Collect[*types.Project](e.store.List(types.KindProject, storage.Filter{IncludeArchived: includeArchived}))
}

// SetProjectStatus runs the project state machine.
func (e *Engine) SetProjectStatus(id string, to types.ProjectStatus) (*types.Project, error) {
	p, err := e.loadProject(id)
	if err != nil {
		return nil, err
	}
	if err := frozen(p); err != nil {
		return nil, err
	}
	changed, err := lifecycle.TransitionProject(p, to, e.clock())
	if err != nil || !changed {
		return p, err
	}
	if err := e.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddProjectMilestone appends a milestone reference to a project.
func (e *Engine) AddProjectMilestone(id, milestone string) (*types.Project, []Warning, error) {
	p, err := e.loadProject(id)
	if err != nil {
		return nil, nil, err
	}
	if err := frozen(p); err != nil {
		return nil, nil, err
	}
	var warnings []Warning
	if !e.store.Exists(types.KindMilestone, milestone) {
		e.warn(&warnings, types.KindProject, id, "milestone %q does not exist", milestone)
	}
	var changed bool
	if p.Milestones, changed = addUnique(p.Milestones, milestone); !changed {
		return p, warnings, nil
	}
	p.Touch(e.clock())
	if err := e.save(p); err != nil {
		return nil, warnings, err
	}
	return p, warnings, nil
}

// RemoveProjectMilestone drops a milestone reference from a project.
func (e *Engine) RemoveProjectMilestone(id, milestone string) (*types.Project, error) {
	p, err := e.loadProject(id)
	if err != nil {
		return nil, err
	}
	if err := frozen(p); err != nil {
		return nil, err
	}
	var changed bool
	if p.Milestones, changed = removeAll(p.Milestones, milestone); !changed {
		return p, nil
	}
	p.Touch(e.clock())
	if err := e.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProjectReport pairs a project with its aggregate and per-milestone progress.
type ProjectReport struct {
	Project    *types.Project     `json:"project"`
	Progress   progress.Report    `json:"progress"`
	Milestones []*MilestoneReport `json:"milestones"`
}

// ProjectProgress aggregates the issues of every milestone the project references and
// refreshes the cached progress on disk when stale.
func (e *Engine) ProjectProgress(id string) (*ProjectReport, error) {
	p, err := e.loadProject(id)
	if err != nil {
		return nil, err
	}
	all := e.allIssues()
	g, _, err := e.buildGraph(all)
	if err != nil {
		return nil, err
	}

	report := &ProjectReport{Project: p}
	var issues []*types.Issue
	for _, name := range p.Milestones {
		issues = append(issues, issuesInMilestone(all, name)...)
		m, err := e.loadMilestone(name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		mr, err := e.milestoneReport(m, all)
		if err != nil {
			return nil, err
		}
		mr.Issues = nil
		report.Milestones = append(report.Milestones, mr)
	}

	status := func(i *types.Issue) types.Status { return g.EffectiveStatus(i.ID) }
	report.Progress = progress.Project(p, issues, status, e.clock(), e.progOpts)
	if !p.Doc().IsArchived() && progress.ApplyProject(p, report.Progress) {
		if err := e.store.Save(p); err != nil {
			e.log.Debug("project cache not refreshed", "id", p.ID, "error", err)
		}
	}
	return report, nil
}

// ArchiveProject moves a project into archive/projects/all/.
func (e *Engine) ArchiveProject(id string) (*types.Project, error) {
	p, err := e.loadProject(id)
	if err != nil {
		return nil, err
	}
	if err := frozen(p); err != nil {
		return nil, err
	}
	if err := e.store.Archive(p, ""); err != nil {
		return nil, err
	}
	return p, nil
}
