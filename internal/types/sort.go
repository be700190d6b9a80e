package types

import (
	"cmp"
	"slices"
	"strings"
)

// IssueSortField names a sortable issue attribute
type IssueSortField string

// Sort field constants
const (
	SortFieldPriority IssueSortField = "priority"
	SortFieldCreated  IssueSortField = "created"
	SortFieldUpdated  IssueSortField = "updated"
	SortFieldTitle    IssueSortField = "title"
	SortFieldDue      IssueSortField = "due"
	SortFieldStatus   IssueSortField = "status"
)

// SortDirection is ascending or descending
type SortDirection string

// Sort direction constants
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IssueSortOption is one key of a multi-key sort.
type IssueSortOption struct {
	Field     IssueSortField
	Direction SortDirection
}

// DefaultIssueSortOptions returns the default ordering for issue listings:
// most urgent first with creation order as the fallback.
func DefaultIssueSortOptions() []IssueSortOption {
	return []IssueSortOption{
		{Field: SortFieldPriority, Direction: SortDesc},
		{Field: SortFieldCreated, Direction: SortAsc},
	}
}

// ParseIssueSortOrder converts a comma-delimited string (e.g. "priority-desc,title-asc")
// into a slice of IssueSortOption values. Unrecognised fields or directions are skipped.
func ParseIssueSortOrder(raw string) []IssueSortOption {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	options := make([]IssueSortOption, 0, len(parts))
	seen := make(map[IssueSortField]bool)

	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}

		field, dir := splitSortToken(token)
		sortField := mapSortField(field)
		direction := mapSortDirection(dir)
		if sortField == "" || direction == "" || seen[sortField] {
			continue
		}
		seen[sortField] = true

		options = append(options, IssueSortOption{Field: sortField, Direction: direction})
	}

	return options
}

// EncodeIssueSortOrder is the inverse of ParseIssueSortOrder.
func EncodeIssueSortOrder(options []IssueSortOption) string {
	tokens := make([]string, 0, len(options))
	for _, opt := range options {
		if opt.Field == "" || opt.Direction == "" {
			continue
		}
		tokens = append(tokens, string(opt.Field)+"-"+string(opt.Direction))
	}
	return strings.Join(tokens, ",")
}

// SortIssues orders issues in place by the given keys. The sort is stable, so issues
// that compare equal keep their discovery order.
func SortIssues(issues []*Issue, options []IssueSortOption) {
	if len(options) == 0 {
		options = DefaultIssueSortOptions()
	}
	slices.SortStableFunc(issues, func(a, b *Issue) int {
		for _, opt := range options {
			c := compareIssues(a, b, opt.Field)
			if opt.Direction == SortDesc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareIssues(a, b *Issue, field IssueSortField) int {
	switch field {
	case SortFieldPriority:
		return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case SortFieldCreated:
		return a.Created.Compare(b.Created)
	case SortFieldUpdated:
		return a.Updated.Compare(b.Updated)
	case SortFieldTitle:
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortFieldStatus:
		return cmp.Compare(slices.Index(IssueStatuses, a.Status), slices.Index(IssueStatuses, b.Status))
	case SortFieldDue:
		// issues without a due date sort last in ascending order
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(b.DueDate.Time)
	}
	return 0
}

func splitSortToken(token string) (string, string) {
	if idx := strings.IndexAny(token, ":-"); idx >= 0 {
		return strings.ToLower(strings.TrimSpace(token[:idx])), strings.ToLower(strings.TrimSpace(token[idx+1:]))
	}
	// a bare field name sorts ascending
	return strings.ToLower(token), "asc"
}

func mapSortField(raw string) IssueSortField {
	switch raw {
	case "priority":
		return SortFieldPriority
	case "created":
		return SortFieldCreated
	case "updated":
		return SortFieldUpdated
	case "title":
		return SortFieldTitle
	case "due", "due_date":
		return SortFieldDue
	case "status":
		return SortFieldStatus
	}
	return ""
}

func mapSortDirection(raw string) SortDirection {
	switch raw {
	case "asc", "ascending":
		return SortAsc
	case "desc", "descending":
		return SortDesc
	}
	return ""
}
