// Package timeparsing turns user input for due dates into calendar days.
//
// Input is tried against three layers in order:
//  1. Compact offset (+3d, -1w, 2m)
//  2. Absolute date or timestamp (2025-03-01, RFC3339)
//  3. Natural language (tomorrow, next friday, in 2 weeks)
package timeparsing

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/steveyegge/roadmap/internal/types"
)

// ErrUnrecognized is returned when no layer understands the input.
var ErrUnrecognized = errors.New("unrecognized date")

var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

var units = map[string]func(t time.Time, n int) time.Time{
	"h": func(t time.Time, n int) time.Time { return t.Add(time.Duration(n) * time.Hour) },
	"d": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) },
	"w": func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) },
	"m": func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) },
	"y": func(t time.Time, n int) time.Time { return t.AddDate(n, 0, 0) },
}

var absoluteLayouts = []string{
	types.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// IsCompact reports whether s is a compact offset such as +2w.
func IsCompact(s string) bool {
	return compactRe.MatchString(strings.TrimSpace(s))
}

// ParseCompact applies a compact offset to now. Units are h, d, w, m (months) and y.
// An unsigned amount moves forward.
func ParseCompact(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact offset: %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("offset amount %q: %w", m[2], err)
	}
	if m[1] == "-" {
		n = -n
	}
	return units[m[3]](now, n), nil
}

// ParseAbsolute accepts the on-disk date format and a few timestamp layouts.
func ParseAbsolute(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an absolute date: %q", s)
}

// ParseNatural understands English expressions relative to now.
func ParseNatural(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}
	r, err := parser.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, s)
	}
	return r.Time, nil
}

// Parse runs the three layers in order and returns the first match.
func Parse(s string, now time.Time) (time.Time, error) {
	if IsCompact(s) {
		return ParseCompact(s, now)
	}
	if t, err := ParseAbsolute(s); err == nil {
		return t, nil
	}
	t, err := ParseNatural(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (try 2025-03-01, +2w or \"next friday\")", ErrUnrecognized, strings.TrimSpace(s))
	}
	return t, nil
}

// ParseDate is Parse truncated to the calendar day, as stored in due_date fields.
func ParseDate(s string, now time.Time) (types.Date, error) {
	t, err := Parse(s, now)
	if err != nil {
		return types.Date{}, err
	}
	return types.NewDate(t), nil
}
