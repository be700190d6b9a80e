package validation

import (
	"github.com/steveyegge/roadmap/internal/types"
)

// FieldKind is the value shape a field must have.
type FieldKind int

// Field kinds
const (
	FieldString FieldKind = iota
	FieldEnum
	FieldDate
	FieldTimestamp
	FieldNumber     // non-negative
	FieldPercentage // 0..100
	FieldIdentifier
	FieldIdentifierSet
	FieldStringSet
	FieldStringList
	FieldStringMap
	FieldOpaque
)

// FieldSpec is the rule for one front matter key.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
	Enum     []string // legal values for FieldEnum
	MaxLen   int      // for FieldString, 0 means unbounded
}

// MaxTitleLength bounds issue titles.
const MaxTitleLength = 500

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// IssueFields lists the issue front matter rules in file order.
var IssueFields = []FieldSpec{
	{Name: "id", Kind: FieldIdentifier, Required: true},
	{Name: "title", Kind: FieldString, Required: true, MaxLen: MaxTitleLength},
	{Name: "priority", Kind: FieldEnum, Required: true, Enum: enumValues(types.Priorities)},
	{Name: "status", Kind: FieldEnum, Required: true, Enum: enumValues(types.IssueStatuses)},
	{Name: "issue_type", Kind: FieldEnum, Required: true, Enum: enumValues(types.IssueTypes)},
	{Name: "milestone", Kind: FieldString},
	{Name: "labels", Kind: FieldStringSet},
	{Name: "assignee", Kind: FieldString},
	{Name: "created", Kind: FieldTimestamp, Required: true},
	{Name: "updated", Kind: FieldTimestamp, Required: true},
	{Name: "estimated_hours", Kind: FieldNumber},
	{Name: "due_date", Kind: FieldDate},
	{Name: "depends_on", Kind: FieldIdentifierSet},
	{Name: "blocks", Kind: FieldIdentifierSet},
	{Name: "actual_start_date", Kind: FieldTimestamp},
	{Name: "actual_end_date", Kind: FieldTimestamp},
	{Name: "progress_percentage", Kind: FieldPercentage},
	{Name: "previous_assignee", Kind: FieldString},
	{Name: "handoff_notes", Kind: FieldString},
	{Name: "handoff_date", Kind: FieldTimestamp},
	{Name: "git_branches", Kind: FieldStringList},
	{Name: "git_commits", Kind: FieldStringList},
	{Name: "github_issue", Kind: FieldOpaque},
	{Name: "remote_ids", Kind: FieldStringMap},
}

// MilestoneFields lists the milestone front matter rules in file order.
var MilestoneFields = []FieldSpec{
	{Name: "name", Kind: FieldString, Required: true, MaxLen: 200},
	{Name: "description", Kind: FieldString},
	{Name: "due_date", Kind: FieldDate},
	{Name: "status", Kind: FieldEnum, Required: true, Enum: enumValues(types.MilestoneStatuses)},
	{Name: "created", Kind: FieldTimestamp, Required: true},
	{Name: "updated", Kind: FieldTimestamp, Required: true},
	{Name: "calculated_progress", Kind: FieldPercentage},
	{Name: "last_progress_update", Kind: FieldTimestamp},
	{Name: "completion_velocity", Kind: FieldNumber},
	{Name: "risk_level", Kind: FieldEnum, Enum: enumValues(types.RiskLevels)},
	{Name: "actual_start_date", Kind: FieldTimestamp},
	{Name: "actual_end_date", Kind: FieldTimestamp},
}

// ProjectFields lists the project front matter rules in file order.
var ProjectFields = []FieldSpec{
	{Name: "id", Kind: FieldIdentifier, Required: true},
	{Name: "name", Kind: FieldString, Required: true, MaxLen: 200},
	{Name: "description", Kind: FieldString},
	{Name: "status", Kind: FieldEnum, Required: true, Enum: enumValues(types.ProjectStatuses)},
	{Name: "priority", Kind: FieldEnum, Required: true, Enum: enumValues(types.Priorities)},
	{Name: "owner", Kind: FieldString},
	{Name: "start_date", Kind: FieldDate},
	{Name: "target_end_date", Kind: FieldDate},
	{Name: "actual_end_date", Kind: FieldTimestamp},
	{Name: "created", Kind: FieldTimestamp, Required: true},
	{Name: "updated", Kind: FieldTimestamp, Required: true},
	{Name: "milestones", Kind: FieldStringList},
	{Name: "estimated_hours", Kind: FieldNumber},
	{Name: "actual_hours", Kind: FieldNumber},
	{Name: "calculated_progress", Kind: FieldPercentage},
}

// Fields returns the rules for kind.
func Fields(kind types.Kind) []FieldSpec {
	switch kind {
	case types.KindIssue:
		return IssueFields
	case types.KindMilestone:
		return MilestoneFields
	case types.KindProject:
		return ProjectFields
	}
	return nil
}
