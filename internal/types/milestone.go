package types

import (
	"slices"
	"time"
)

// Milestone groups issues by name reference (Issue.Milestone).
type Milestone struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	DueDate     *Date           `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Status      MilestoneStatus `yaml:"status" json:"status"`
	Created     time.Time       `yaml:"created" json:"created"`
	Updated     time.Time       `yaml:"updated" json:"updated"`

	// Derived values, persisted only as a display hint and recomputed on read
	CalculatedProgress float64    `yaml:"calculated_progress" json:"calculated_progress"`
	LastProgressUpdate *time.Time `yaml:"last_progress_update,omitempty" json:"last_progress_update,omitempty"`
	CompletionVelocity *float64   `yaml:"completion_velocity,omitempty" json:"completion_velocity,omitempty"`
	RiskLevel          RiskLevel  `yaml:"risk_level,omitempty" json:"risk_level,omitempty"`

	ActualStartDate *time.Time `yaml:"actual_start_date,omitempty" json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `yaml:"actual_end_date,omitempty" json:"actual_end_date,omitempty"`

	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`

	Document `yaml:",inline" json:"-"`
}

// Kind implements Entity.
func (m *Milestone) Kind() Kind { return KindMilestone }

// Key implements Entity.
func (m *Milestone) Key() string { return m.Name }

// Touch bumps the updated timestamp.
func (m *Milestone) Touch(now time.Time) {
	m.Updated = now
}

// MilestoneStatus is open or closed
type MilestoneStatus string

// Milestone status constants
const (
	MilestoneOpen   MilestoneStatus = "open"
	MilestoneClosed MilestoneStatus = "closed"
)

// MilestoneStatuses lists the legal milestone statuses.
var MilestoneStatuses = []MilestoneStatus{MilestoneOpen, MilestoneClosed}

// IsValid checks if the milestone status value is valid
func (s MilestoneStatus) IsValid() bool {
	return slices.Contains(MilestoneStatuses, s)
}

// RiskLevel is derived from schedule projection
type RiskLevel string

// Risk level constants
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevels lists the legal risk levels.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// IsValid checks if the risk level value is valid
func (r RiskLevel) IsValid() bool {
	return slices.Contains(RiskLevels, r)
}
