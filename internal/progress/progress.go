// Package progress rolls issue completion up into milestone and project reports.
//
// Every value here is a pure function of the issue set passed in. Milestone and project
// files only cache the results as a display hint.
package progress

import (
	"math"
	"time"

	"github.com/steveyegge/roadmap/internal/types"
)

const day = 24 * time.Hour

// Options tunes velocity and risk computation.
type Options struct {
	// VelocityWindow is the trailing window completions are counted in.
	VelocityWindow time.Duration
	// RiskTolerance is how far past the due date a projection may land and still be medium risk.
	RiskTolerance time.Duration
}

// DefaultOptions matches the progress.* config defaults.
var DefaultOptions = Options{
	VelocityWindow: 14 * day,
	RiskTolerance:  7 * day,
}

// StatusFunc resolves the status an issue counts as. Callers pass the graph's
// effective status, or DeclaredStatus when no graph is at hand.
type StatusFunc func(*types.Issue) types.Status

// DeclaredStatus is a StatusFunc that returns the stored status.
func DeclaredStatus(i *types.Issue) types.Status { return i.Status }

// Report is a read-only progress projection.
type Report struct {
	Key        string               `json:"key"`
	Total      int                  `json:"total"`
	Counts     map[types.Status]int `json:"counts"`
	Progress   float64              `json:"progress"`
	Velocity   *float64             `json:"velocity,omitempty"`
	Projected  *time.Time           `json:"projected_completion,omitempty"`
	Risk       types.RiskLevel      `json:"risk"`
	Overdue    bool                 `json:"overdue"`
	Hours      float64              `json:"estimated_hours"`
	HoursLeft  float64              `json:"remaining_hours"`
	Checklist  [2]int               `json:"checklist"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// Closed returns the number of issues counted as closed.
func (r Report) Closed() int { return r.Counts[types.StatusClosed] }

// Remaining returns the number of issues not yet closed.
func (r Report) Remaining() int { return r.Total - r.Closed() }

// CalculatedProgress is 100 × closed / total, and 0 for an empty set.
func CalculatedProgress(issues []*types.Issue, status StatusFunc) float64 {
	if len(issues) == 0 {
		return 0
	}
	closed := 0
	for _, i := range issues {
		if status(i) == types.StatusClosed {
			closed++
		}
	}
	return round(100 * float64(closed) / float64(len(issues)))
}

// Velocity returns completions per day over the trailing window ending at now. It is nil
// until at least two completions fall inside the window.
func Velocity(completions []time.Time, now time.Time, window time.Duration) *float64 {
	if window <= 0 {
		return nil
	}
	since := now.Add(-window)
	n := 0
	for _, c := range completions {
		if c.After(since) && !c.After(now) {
			n++
		}
	}
	if n < 2 {
		return nil
	}
	v := round(float64(n) / (float64(window) / float64(day)))
	return &v
}

// Projection extrapolates the completion instant from velocity. It returns nil when
// there is no velocity.
func Projection(velocity *float64, remaining int, now time.Time) *time.Time {
	if velocity == nil || *velocity <= 0 {
		return nil
	}
	days := float64(remaining) / *velocity
	t := now.Add(time.Duration(days * float64(day)))
	return &t
}

// Risk compares the projected completion against due. Missing data is low risk.
func Risk(due *types.Date, velocity *float64, remaining int, now time.Time, tolerance time.Duration) types.RiskLevel {
	if due == nil || remaining <= 0 {
		return types.RiskLow
	}
	projected := Projection(velocity, remaining, now)
	if projected == nil {
		return types.RiskLow
	}
	deadline := due.EndOfDay()
	switch {
	case !projected.After(deadline):
		return types.RiskLow
	case !projected.After(deadline.Add(tolerance)):
		return types.RiskMedium
	default:
		return types.RiskHigh
	}
}

// Completions returns the completion instants of closed issues: actual_end_date, or
// updated for files closed by hand.
func Completions(issues []*types.Issue) []time.Time {
	var out []time.Time
	for _, i := range issues {
		if i.Status != types.StatusClosed {
			continue
		}
		if i.ActualEndDate != nil {
			out = append(out, *i.ActualEndDate)
		} else {
			out = append(out, i.Updated)
		}
	}
	return out
}

// Milestone builds the report for m from the issues assigned to it.
func Milestone(m *types.Milestone, issues []*types.Issue, status StatusFunc, now time.Time, opts Options) Report {
	r := aggregate(m.Name, issues, status)
	r.Velocity = Velocity(Completions(issues), now, opts.VelocityWindow)
	r.Projected = Projection(r.Velocity, r.Remaining(), now)
	r.Risk = Risk(m.DueDate, r.Velocity, r.Remaining(), now, opts.RiskTolerance)
	r.Overdue = m.DueDate != nil && m.Status != types.MilestoneClosed && now.After(m.DueDate.EndOfDay())
	return r
}

// Project builds the report for p from the issues of all its milestones.
func Project(p *types.Project, issues []*types.Issue, status StatusFunc, now time.Time, opts Options) Report {
	r := aggregate(p.ID, issues, status)
	r.Velocity = Velocity(Completions(issues), now, opts.VelocityWindow)
	r.Projected = Projection(r.Velocity, r.Remaining(), now)
	r.Risk = Risk(p.TargetEndDate, r.Velocity, r.Remaining(), now, opts.RiskTolerance)
	r.Overdue = p.TargetEndDate != nil && !p.Status.IsFinished() && now.After(p.TargetEndDate.EndOfDay())
	return r
}

// ApplyMilestone refreshes m's cached fields from r. It reports whether anything changed;
// last_progress_update only moves when a cached value does.
func ApplyMilestone(m *types.Milestone, r Report, now time.Time) bool {
	changed := m.CalculatedProgress != r.Progress ||
		m.RiskLevel != r.Risk ||
		!floatPtrEqual(m.CompletionVelocity, r.Velocity)
	if r.StartedAt != nil && m.ActualStartDate == nil {
		started := *r.StartedAt
		m.ActualStartDate = &started
		changed = true
	}
	if !changed {
		return false
	}
	m.CalculatedProgress = r.Progress
	m.RiskLevel = r.Risk
	m.CompletionVelocity = r.Velocity
	m.LastProgressUpdate = &now
	return true
}

// ApplyProject refreshes p's cached progress from r.
func ApplyProject(p *types.Project, r Report) bool {
	if p.CalculatedProgress == r.Progress {
		return false
	}
	p.CalculatedProgress = r.Progress
	return true
}

func aggregate(key string, issues []*types.Issue, status StatusFunc) Report {
	r := Report{
		Key:      key,
		Total:    len(issues),
		Counts:   make(map[types.Status]int, len(types.IssueStatuses)),
		Progress: CalculatedProgress(issues, status),
	}
	for _, i := range issues {
		s := status(i)
		r.Counts[s]++
		if i.EstimatedHours != nil {
			r.Hours += *i.EstimatedHours
			if s != types.StatusClosed {
				r.HoursLeft += *i.EstimatedHours
			}
		}
		done, total := i.Checklist()
		r.Checklist[0] += done
		r.Checklist[1] += total
		if i.ActualStartDate != nil && (r.StartedAt == nil || i.ActualStartDate.Before(*r.StartedAt)) {
			r.StartedAt = i.ActualStartDate
		}
		if i.ActualEndDate != nil && (r.FinishedAt == nil || i.ActualEndDate.After(*r.FinishedAt)) {
			r.FinishedAt = i.ActualEndDate
		}
	}
	return r
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// round keeps two decimals so cached values stay stable across recomputation.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
