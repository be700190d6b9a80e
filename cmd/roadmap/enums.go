package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/steveyegge/roadmap/internal/types"
)

// parseEnum checks value against the allowed set and names the choices on failure.
func parseEnum[T ~string](flag, value string, allowed []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(allowed, v) {
		return v, nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("invalid %s %q (want one of: %s)", flag, value, strings.Join(names, ", "))
}

func parseStatus(v string) (types.Status, error) {
	return parseEnum("status", v, types.IssueStatuses)
}

func parsePriority(v string) (types.Priority, error) {
	return parseEnum("priority", v, types.Priorities)
}

func parseIssueType(v string) (types.IssueType, error) {
	return parseEnum("type", v, types.IssueTypes)
}

// optional parses a flag only when the user set it.
func optional[T any](set bool, raw string, parse func(string) (T, error)) (*T, error) {
	if !set {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
