package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/roadmap/internal/types"
)

func TestCreateMilestoneUnique(t *testing.T) {
	e, _, _ := newEngine(t)
	m, err := e.CreateMilestone(MilestoneInput{Name: "v1.0", Description: "First cut"})
	require.NoError(t, err)
	assert.Equal(t, types.MilestoneOpen, m.Status)
	assert.Contains(t, m.Body, "First cut")

	_, err = e.CreateMilestone(MilestoneInput{Name: "v1.0"})
	assert.Error(t, err)
}

func TestMilestoneProgressRefreshesCache(t *testing.T) {
	e, store, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)

	var ids []string
	for i := range 4 {
		issue := mustIssue(t, e, IssueInput{Title: fmt.Sprintf("Task %d", i), Milestone: "v1"})
		ids = append(ids, issue.ID)
	}
	_, _, err = e.CloseIssue(ids[0])
	require.NoError(t, err)

	report, err := e.MilestoneProgress("v1")
	require.NoError(t, err)
	assert.Equal(t, 4, report.Progress.Total)
	assert.Equal(t, 1, report.Progress.Closed())
	assert.Equal(t, 25.0, report.Progress.Progress)
	assert.Len(t, report.Issues, 4)

	ent, err := store.Load(types.KindMilestone, "v1")
	require.NoError(t, err)
	cached := ent.(*types.Milestone)
	assert.Equal(t, 25.0, cached.CalculatedProgress)
	require.NotNil(t, cached.LastProgressUpdate)
	assert.True(t, cached.Updated.Equal(cached.Created), "cache refresh leaves updated alone")
}

func TestMilestoneProgressUsesEffectiveStatus(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)
	dep := mustIssue(t, e, IssueInput{Title: "Dep"})
	mustIssue(t, e, IssueInput{Title: "Waits", Milestone: "v1", DependsOn: []string{dep.ID}})

	report, err := e.MilestoneProgress("v1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Progress.Counts[types.StatusBlocked])
	assert.Equal(t, 0, report.Progress.Counts[types.StatusNotStarted])
}

func TestMilestoneProgressEmpty(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "empty"})
	require.NoError(t, err)

	report, err := e.MilestoneProgress("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Progress.Total)
	assert.Equal(t, 0.0, report.Progress.Progress)
	assert.Equal(t, types.RiskLow, report.Progress.Risk)
}

func TestCloseMilestoneWarnsOnOpenIssues(t *testing.T) {
	e, _, c := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)
	mustIssue(t, e, IssueInput{Title: "Open", Milestone: "v1"})

	c.advance(time.Hour)
	m, warnings, err := e.SetMilestoneStatus("v1", types.MilestoneClosed)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "1 open issue")
	require.NotNil(t, m.ActualEndDate)

	m, _, err = e.SetMilestoneStatus("v1", types.MilestoneOpen)
	require.NoError(t, err)
	assert.Nil(t, m.ActualEndDate)
}

func TestArchiveMilestoneWithIssues(t *testing.T) {
	e, store, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)
	done := mustIssue(t, e, IssueInput{Title: "Done", Milestone: "v1"})
	open := mustIssue(t, e, IssueInput{Title: "Open", Milestone: "v1"})
	_, _, err = e.CloseIssue(done.ID)
	require.NoError(t, err)

	moved, warnings, err := e.ArchiveMilestone("v1", true)
	require.NoError(t, err)
	require.Len(t, moved, 2)
	require.Len(t, warnings, 1)
	assert.Equal(t, open.ID, warnings[0].Key)

	ent, err := store.Load(types.KindIssue, done.ID)
	require.NoError(t, err)
	assert.True(t, ent.Doc().IsArchived())
	assert.Contains(t, ent.Doc().Origin.Path, filepath.Join("archive", "issues", "v1"))

	ent, err = store.Load(types.KindIssue, open.ID)
	require.NoError(t, err)
	assert.False(t, ent.Doc().IsArchived())

	_, _, err = e.SetMilestoneStatus("v1", types.MilestoneClosed)
	assert.ErrorIs(t, err, ErrArchived)

	reports, errs := e.ListMilestones(false)
	assert.Empty(t, errs)
	assert.Empty(t, reports)
	reports, _ = e.ListMilestones(true)
	assert.Len(t, reports, 1)
}

func TestArchiveMilestoneReportsIssueFailures(t *testing.T) {
	e, store, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)
	done := mustIssue(t, e, IssueInput{Title: "Done", Milestone: "v1"})
	_, _, err = e.CloseIssue(done.ID)
	require.NoError(t, err)

	// a plain file where the issue bucket directory should go
	bucket := filepath.Join(store.Root(), "archive", "issues", "v1")
	require.NoError(t, os.MkdirAll(filepath.Dir(bucket), 0o755))
	require.NoError(t, os.WriteFile(bucket, []byte("x"), 0o644))

	moved, _, err := e.ArchiveMilestone("v1", true)
	require.Error(t, err)
	require.Len(t, moved, 1, "only the milestone was archived")
	assert.Equal(t, types.KindMilestone, moved[0].Kind())

	m, err := store.Load(types.KindMilestone, "v1")
	require.NoError(t, err)
	assert.True(t, m.Doc().IsArchived())

	ent, err := store.Load(types.KindIssue, done.ID)
	require.NoError(t, err)
	assert.False(t, ent.Doc().IsArchived(), "the issue stays where it was")
}

func TestProjectProgress(t *testing.T) {
	e, _, _ := newEngine(t)
	for _, name := range []string{"alpha", "beta"} {
		_, err := e.CreateMilestone(MilestoneInput{Name: name})
		require.NoError(t, err)
	}
	a := mustIssue(t, e, IssueInput{Title: "A", Milestone: "alpha"})
	mustIssue(t, e, IssueInput{Title: "B", Milestone: "beta"})
	_, _, err := e.CloseIssue(a.ID)
	require.NoError(t, err)

	p, warnings, err := e.CreateProject(ProjectInput{Name: "Launch", Milestones: []string{"alpha", "missing"}})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, types.ProjectPlanning, p.Status)
	assert.Equal(t, types.PriorityMedium, p.Priority)

	p, _, err = e.AddProjectMilestone(p.ID, "beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "missing", "beta"}, p.Milestones)

	report, err := e.ProjectProgress(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Progress.Total)
	assert.Equal(t, 50.0, report.Progress.Progress)
	require.Len(t, report.Milestones, 2, "missing milestone is skipped")
	assert.Equal(t, 100.0, report.Milestones[0].Progress.Progress)

	reloaded, err := e.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, reloaded.CalculatedProgress)

	p, err = e.RemoveProjectMilestone(p.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, p.Milestones)
}

func TestProjectLifecycle(t *testing.T) {
	e, _, _ := newEngine(t)
	p, _, err := e.CreateProject(ProjectInput{Name: "Launch"})
	require.NoError(t, err)

	p, err = e.SetProjectStatus(p.ID, types.ProjectActive)
	require.NoError(t, err)
	require.NotNil(t, p.StartDate)

	p, err = e.SetProjectStatus(p.ID, types.ProjectDone)
	require.NoError(t, err)
	require.NotNil(t, p.ActualEndDate)

	_, err = e.SetProjectStatus(p.ID, types.ProjectPlanning)
	assert.Error(t, err)

	_, err = e.ArchiveProject(p.ID)
	require.NoError(t, err)
	_, err = e.SetProjectStatus(p.ID, types.ProjectActive)
	assert.ErrorIs(t, err, ErrArchived)

	projects, _ := e.ListProjects(false)
	assert.Empty(t, projects)
}

func TestCheckFindsProblems(t *testing.T) {
	e, store, _ := newEngine(t)
	a := mustIssue(t, e, IssueInput{Title: "A", Milestone: "ghost"})
	b := mustIssue(t, e, IssueInput{Title: "B", DependsOn: []string{a.ID}})
	_, _, err := e.AddDependency(b.ID, "zzzzzzzz")
	require.NoError(t, err)

	// close the loop behind the engine's back
	ent, err := store.Load(types.KindIssue, a.ID)
	require.NoError(t, err)
	ent.(*types.Issue).DependsOn = []string{b.ID}
	require.NoError(t, store.Save(ent))

	dir := filepath.Dir(ent.Doc().Origin.Path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "badbadba-broken.md"), []byte("---\ntitle: [\n---\n"), 0o644))

	report := e.Check()
	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Counts[types.KindIssue])

	var text []string
	for _, p := range report.Problems {
		text = append(text, p.String())
	}
	joined := strings.Join(text, "\n")
	assert.Contains(t, joined, "dependency cycle")
	assert.Contains(t, joined, "references unknown issue zzzzzzzz")
	assert.Contains(t, joined, `milestone "ghost" does not exist`)
	assert.Contains(t, joined, "badbadba-broken.md")

	// reads keep working with the cycle on disk
	views, _ := e.ListIssues(IssueQuery{})
	assert.Len(t, views, 2)
}

func TestCheckCleanWorkspace(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.CreateMilestone(MilestoneInput{Name: "v1"})
	require.NoError(t, err)
	mustIssue(t, e, IssueInput{Title: "Fine", Milestone: "v1"})

	report := e.Check()
	assert.True(t, report.OK())
	assert.Empty(t, report.Problems)
	assert.Equal(t, 1, report.Counts[types.KindMilestone])
}
