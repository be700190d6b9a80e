package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/steveyegge/roadmap/internal/types"
)

var (
	t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
	t2 = t1.Add(24 * time.Hour)
)

func TestIssueTransitionTable(t *testing.T) {
	all := types.IssueStatuses
	for _, from := range all {
		for _, to := range all {
			if from == to {
				continue
			}
			issue := &types.Issue{ID: "a1b2c3d4", Status: from}
			_, err := TransitionIssue(issue, to, t0)

			allowed := false
			for _, s := range AllowedIssueTransitions(from) {
				if s == to {
					allowed = true
				}
			}
			if allowed && err != nil {
				t.Errorf("%s -> %s should be allowed: %v", from, to, err)
			}
			if !allowed {
				var terr *InvalidTransitionError
				if !errors.As(err, &terr) {
					t.Errorf("%s -> %s should fail with InvalidTransitionError, got %v", from, to, err)
					continue
				}
				if terr.From != string(from) || terr.To != string(to) {
					t.Errorf("error names %s -> %s, want %s -> %s", terr.From, terr.To, from, to)
				}
				if issue.Status != from {
					t.Errorf("rejected transition changed status to %s", issue.Status)
				}
			}
		}
	}
}

func TestIssueLifecycleSideEffects(t *testing.T) {
	issue := &types.Issue{ID: "a1b2c3d4", Status: types.StatusNotStarted}

	if _, err := TransitionIssue(issue, types.StatusInProgress, t0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if issue.ActualStartDate == nil || !issue.ActualStartDate.Equal(t0) {
		t.Fatalf("actual_start_date not set: %v", issue.ActualStartDate)
	}
	if !issue.Updated.Equal(t0) {
		t.Fatalf("updated not bumped")
	}

	if _, err := TransitionIssue(issue, types.StatusClosed, t1); err != nil {
		t.Fatalf("close: %v", err)
	}
	if issue.ActualEndDate == nil || !issue.ActualEndDate.Equal(t1) {
		t.Fatalf("actual_end_date not set: %v", issue.ActualEndDate)
	}
	if issue.ProgressPercentage == nil || *issue.ProgressPercentage != 100 {
		t.Fatalf("progress not forced to 100: %v", issue.ProgressPercentage)
	}

	if _, err := TransitionIssue(issue, types.StatusInProgress, t2); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if issue.ActualEndDate != nil {
		t.Fatalf("reopen should clear actual_end_date")
	}
	if !issue.ActualStartDate.Equal(t0) {
		t.Fatalf("reopen should keep the first start date")
	}
}

func TestIssueCloseKeepsHigherProgress(t *testing.T) {
	over := 100.0
	issue := &types.Issue{ID: "a1b2c3d4", Status: types.StatusNotStarted, ProgressPercentage: &over}
	if _, err := TransitionIssue(issue, types.StatusClosed, t0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if *issue.ProgressPercentage != 100 {
		t.Fatalf("unexpected progress %v", *issue.ProgressPercentage)
	}

	partial := 40.0
	issue = &types.Issue{ID: "a1b2c3d4", Status: types.StatusInProgress, ProgressPercentage: &partial}
	if _, err := TransitionIssue(issue, types.StatusClosed, t0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if *issue.ProgressPercentage != 100 {
		t.Fatalf("progress should be raised to 100, got %v", *issue.ProgressPercentage)
	}
}

func TestIssueSameStatusIsNoop(t *testing.T) {
	issue := &types.Issue{ID: "a1b2c3d4", Status: types.StatusClosed, Updated: t0}
	changed, err := TransitionIssue(issue, types.StatusClosed, t1)
	if err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}
	if !issue.Updated.Equal(t0) {
		t.Fatalf("no-op bumped updated")
	}
}

func TestClosedToNotStartedRejected(t *testing.T) {
	end := t0
	issue := &types.Issue{ID: "a1b2c3d4", Status: types.StatusClosed, ActualEndDate: &end}
	_, err := TransitionIssue(issue, types.StatusNotStarted, t1)
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if len(terr.Allowed) != 1 || terr.Allowed[0] != string(types.StatusInProgress) {
		t.Fatalf("unexpected allowed list %v", terr.Allowed)
	}
	if issue.ActualEndDate == nil {
		t.Fatalf("rejected transition cleared actual_end_date")
	}
}

func TestMilestoneTransitions(t *testing.T) {
	m := &types.Milestone{Name: "v1", Status: types.MilestoneOpen}
	if _, err := TransitionMilestone(m, types.MilestoneClosed, t0); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.ActualEndDate == nil {
		t.Fatalf("closing should set actual_end_date")
	}
	if _, err := TransitionMilestone(m, types.MilestoneOpen, t1); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if m.ActualEndDate != nil {
		t.Fatalf("reopening should clear actual_end_date")
	}
	if _, err := TransitionMilestone(m, "archived", t1); err == nil {
		t.Fatalf("unknown status should be rejected")
	}
}

func TestProjectTransitions(t *testing.T) {
	p := &types.Project{ID: "p1p2p3p4", Status: types.ProjectPlanning}

	if _, err := TransitionProject(p, types.ProjectDone, t0); err == nil {
		t.Fatalf("planning -> done should be rejected")
	}
	if _, err := TransitionProject(p, types.ProjectActive, t0); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if p.StartDate == nil || p.StartDate.String() != "2025-01-01" {
		t.Fatalf("activation should set start_date, got %v", p.StartDate)
	}
	if _, err := TransitionProject(p, types.ProjectDone, t1); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if p.ActualEndDate == nil {
		t.Fatalf("done should set actual_end_date")
	}
	if _, err := TransitionProject(p, types.ProjectActive, t2); err != nil {
		t.Fatalf("revive: %v", err)
	}
	if p.ActualEndDate != nil {
		t.Fatalf("leaving done should clear actual_end_date")
	}
	if p.StartDate.String() != "2025-01-01" {
		t.Fatalf("start_date should not move on reactivation")
	}

	if _, err := TransitionProject(p, types.ProjectCancelled, t2); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := TransitionProject(p, types.ProjectActive, t2)
	var terr *InvalidTransitionError
	if !errors.As(err, &terr) || len(terr.Allowed) != 0 {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
}
