// Package lifecycle holds the status state machines for issues, milestones and projects.
// Transition functions mutate the entity in place, apply side effects and bump updated.
package lifecycle

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/steveyegge/roadmap/internal/types"
)

// InvalidTransitionError rejects a status change that the state machine does not allow.
type InvalidTransitionError struct {
	Kind    types.Kind
	Key     string
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("cannot move %s %s from %s to %s (allowed: %s)", e.Kind, e.Key, e.From, e.To, allowed)
}

var issueTransitions = map[types.Status][]types.Status{
	types.StatusNotStarted: {types.StatusInProgress, types.StatusClosed},
	types.StatusInProgress: {types.StatusBlocked, types.StatusClosed},
	types.StatusBlocked:    {types.StatusInProgress},
	types.StatusClosed:     {types.StatusInProgress},
}

var milestoneTransitions = map[types.MilestoneStatus][]types.MilestoneStatus{
	types.MilestoneOpen:   {types.MilestoneClosed},
	types.MilestoneClosed: {types.MilestoneOpen},
}

var projectTransitions = map[types.ProjectStatus][]types.ProjectStatus{
	types.ProjectPlanning:  {types.ProjectActive, types.ProjectCancelled},
	types.ProjectActive:    {types.ProjectOnHold, types.ProjectDone, types.ProjectCancelled},
	types.ProjectOnHold:    {types.ProjectActive, types.ProjectCancelled},
	types.ProjectDone:      {types.ProjectActive},
	types.ProjectCancelled: nil,
}

// AllowedIssueTransitions returns the statuses an issue may move to from s.
func AllowedIssueTransitions(s types.Status) []types.Status {
	return slices.Clone(issueTransitions[s])
}

// AllowedMilestoneTransitions returns the statuses a milestone may move to from s.
func AllowedMilestoneTransitions(s types.MilestoneStatus) []types.MilestoneStatus {
	return slices.Clone(milestoneTransitions[s])
}

// AllowedProjectTransitions returns the statuses a project may move to from s.
func AllowedProjectTransitions(s types.ProjectStatus) []types.ProjectStatus {
	return slices.Clone(projectTransitions[s])
}

// TransitionIssue moves issue to status to. Requesting the current status is a no-op and
// reports changed=false.
func TransitionIssue(issue *types.Issue, to types.Status, now time.Time) (changed bool, err error) {
	from := issue.Status
	if from == to {
		return false, nil
	}
	if !slices.Contains(issueTransitions[from], to) {
		return false, &InvalidTransitionError{
			Kind:    types.KindIssue,
			Key:     issue.ID,
			From:    string(from),
			To:      string(to),
			Allowed: names(issueTransitions[from]),
		}
	}

	issue.Status = to
	switch to {
	case types.StatusInProgress:
		if issue.ActualStartDate == nil {
			issue.ActualStartDate = timePtr(now)
		}
		if from == types.StatusClosed {
			issue.ActualEndDate = nil
		}
	case types.StatusClosed:
		issue.ActualEndDate = timePtr(now)
		if issue.ProgressPercentage == nil || *issue.ProgressPercentage < 100 {
			full := 100.0
			issue.ProgressPercentage = &full
		}
	}
	issue.Touch(now)
	return true, nil
}

// TransitionMilestone moves m between open and closed.
func TransitionMilestone(m *types.Milestone, to types.MilestoneStatus, now time.Time) (changed bool, err error) {
	from := m.Status
	if from == to {
		return false, nil
	}
	if !slices.Contains(milestoneTransitions[from], to) {
		return false, &InvalidTransitionError{
			Kind:    types.KindMilestone,
			Key:     m.Name,
			From:    string(from),
			To:      string(to),
			Allowed: names(milestoneTransitions[from]),
		}
	}

	m.Status = to
	switch to {
	case types.MilestoneClosed:
		m.ActualEndDate = timePtr(now)
	case types.MilestoneOpen:
		m.ActualEndDate = nil
	}
	m.Touch(now)
	return true, nil
}

// TransitionProject moves p through planning, active, on-hold, done and cancelled.
func TransitionProject(p *types.Project, to types.ProjectStatus, now time.Time) (changed bool, err error) {
	from := p.Status
	if from == to {
		return false, nil
	}
	if !slices.Contains(projectTransitions[from], to) {
		return false, &InvalidTransitionError{
			Kind:    types.KindProject,
			Key:     p.ID,
			From:    string(from),
			To:      string(to),
			Allowed: names(projectTransitions[from]),
		}
	}

	p.Status = to
	if to == types.ProjectActive && p.StartDate == nil {
		d := types.NewDate(now)
		p.StartDate = &d
	}
	if to == types.ProjectDone {
		p.ActualEndDate = timePtr(now)
	} else if from == types.ProjectDone {
		p.ActualEndDate = nil
	}
	p.Touch(now)
	return true, nil
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	return &t
}
