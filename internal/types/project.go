package types

import (
	"slices"
	"time"
)

// Project references milestones by name; milestone files live independently.
type Project struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Status        ProjectStatus `yaml:"status" json:"status"`
	Priority      Priority      `yaml:"priority" json:"priority"`
	Owner         string        `yaml:"owner,omitempty" json:"owner,omitempty"`
	StartDate     *Date         `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	TargetEndDate *Date         `yaml:"target_end_date,omitempty" json:"target_end_date,omitempty"`
	ActualEndDate *time.Time    `yaml:"actual_end_date,omitempty" json:"actual_end_date,omitempty"`
	Created       time.Time     `yaml:"created" json:"created"`
	Updated       time.Time     `yaml:"updated" json:"updated"`
	Milestones    []string      `yaml:"milestones,omitempty" json:"milestones,omitempty"`

	EstimatedHours *float64 `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	ActualHours    *float64 `yaml:"actual_hours,omitempty" json:"actual_hours,omitempty"`

	CalculatedProgress float64 `yaml:"calculated_progress" json:"calculated_progress"`

	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`

	Document `yaml:",inline" json:"-"`
}

// Kind implements Entity.
func (p *Project) Kind() Kind { return KindProject }

// Key implements Entity.
func (p *Project) Key() string { return p.ID }

// Touch bumps the updated timestamp.
func (p *Project) Touch(now time.Time) {
	p.Updated = now
}

// HasMilestone reports whether the project references the named milestone.
func (p *Project) HasMilestone(name string) bool {
	return slices.Contains(p.Milestones, name)
}

// ProjectStatus tracks a project's lifecycle
type ProjectStatus string

// Project status constants
const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on-hold"
	ProjectDone      ProjectStatus = "done"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProjectStatuses lists the legal project statuses.
var ProjectStatuses = []ProjectStatus{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectDone, ProjectCancelled}

// IsValid checks if the project status value is valid
func (s ProjectStatus) IsValid() bool {
	return slices.Contains(ProjectStatuses, s)
}

// IsFinished reports whether no further work is expected.
func (s ProjectStatus) IsFinished() bool {
	return s == ProjectDone || s == ProjectCancelled
}
