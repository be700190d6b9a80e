// Package types defines core data structures for the roadmap tracker.
package types

import (
	"slices"
	"time"
)

// Issue represents a trackable work item stored as one markdown file.
type Issue struct {
	ID                 string     `yaml:"id" json:"id"`
	Title              string     `yaml:"title" json:"title"`
	Priority           Priority   `yaml:"priority" json:"priority"`
	Status             Status     `yaml:"status" json:"status"`
	IssueType          IssueType  `yaml:"issue_type" json:"issue_type"`
	Milestone          string     `yaml:"milestone,omitempty" json:"milestone,omitempty"`
	Labels             []string   `yaml:"labels,omitempty" json:"labels,omitempty"`
	Assignee           string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	Created            time.Time  `yaml:"created" json:"created"`
	Updated            time.Time  `yaml:"updated" json:"updated"`
	EstimatedHours     *float64   `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	DueDate            *Date      `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	DependsOn          []string   `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Blocks             []string   `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	ActualStartDate    *time.Time `yaml:"actual_start_date,omitempty" json:"actual_start_date,omitempty"`
	ActualEndDate      *time.Time `yaml:"actual_end_date,omitempty" json:"actual_end_date,omitempty"`
	ProgressPercentage *float64   `yaml:"progress_percentage,omitempty" json:"progress_percentage,omitempty"`

	// Handoff metadata is informational only
	PreviousAssignee string     `yaml:"previous_assignee,omitempty" json:"previous_assignee,omitempty"`
	HandoffNotes     string     `yaml:"handoff_notes,omitempty" json:"handoff_notes,omitempty"`
	HandoffDate      *time.Time `yaml:"handoff_date,omitempty" json:"handoff_date,omitempty"`

	// External references, never validated or dereferenced
	GitBranches []string          `yaml:"git_branches,omitempty" json:"git_branches,omitempty"`
	GitCommits  []string          `yaml:"git_commits,omitempty" json:"git_commits,omitempty"`
	GithubIssue any               `yaml:"github_issue,omitempty" json:"github_issue,omitempty"`
	RemoteIDs   map[string]string `yaml:"remote_ids,omitempty" json:"remote_ids,omitempty"`

	// Extra holds front matter keys this version does not know about.
	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`

	Document `yaml:",inline" json:"-"`
}

// Kind implements Entity.
func (i *Issue) Kind() Kind { return KindIssue }

// Key implements Entity.
func (i *Issue) Key() string { return i.ID }

// IsClosed reports whether the declared status is closed.
func (i *Issue) IsClosed() bool {
	return i.Status == StatusClosed
}

// HasLabel reports whether the issue carries label.
func (i *Issue) HasLabel(label string) bool {
	return slices.Contains(i.Labels, label)
}

// Checklist returns the completed and total acceptance-criteria counts from the body.
// Checklist completion is a display signal and independent of status.
func (i *Issue) Checklist() (done, total int) {
	for _, c := range ParseBody(i.Body).Criteria {
		total++
		if c.Done {
			done++
		}
	}
	return done, total
}

// Touch bumps the updated timestamp.
func (i *Issue) Touch(now time.Time) {
	i.Updated = now
}

// Status represents the declared state of an issue
type Status string

// Issue status constants
const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

// IssueStatuses lists the legal issue statuses in board order.
var IssueStatuses = []Status{StatusNotStarted, StatusInProgress, StatusBlocked, StatusClosed}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	return slices.Contains(IssueStatuses, s)
}

// Priority ranks issues
type Priority string

// Priority constants
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists the legal priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	return slices.Contains(Priorities, p)
}

// Rank returns 0 for low up to 3 for critical, -1 for unknown values.
func (p Priority) Rank() int {
	return slices.Index(Priorities, p)
}

// IssueType categorizes the kind of work
type IssueType string

// Issue type constants
const (
	TypeFeature IssueType = "feature"
	TypeBug     IssueType = "bug"
	TypeOther   IssueType = "other"
)

// IssueTypes lists the legal issue types.
var IssueTypes = []IssueType{TypeFeature, TypeBug, TypeOther}

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	return slices.Contains(IssueTypes, t)
}

// IssueFilter narrows issue queries. Zero values match everything.
type IssueFilter struct {
	Status    *Status
	Priority  *Priority
	IssueType *IssueType
	Milestone *string // empty string matches issues without a milestone
	Assignee  *string
	Labels    []string // AND semantics: issue must have ALL these labels
}

// Matches reports whether issue satisfies every set criterion.
func (f IssueFilter) Matches(issue *Issue) bool {
	if f.Status != nil && issue.Status != *f.Status {
		return false
	}
	if f.Priority != nil && issue.Priority != *f.Priority {
		return false
	}
	if f.IssueType != nil && issue.IssueType != *f.IssueType {
		return false
	}
	if f.Milestone != nil && issue.Milestone != *f.Milestone {
		return false
	}
	if f.Assignee != nil && issue.Assignee != *f.Assignee {
		return false
	}
	for _, label := range f.Labels {
		if !issue.HasLabel(label) {
			return false
		}
	}
	return true
}
