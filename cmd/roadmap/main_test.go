package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
)

// resetFlags puts every flag of the command tree back to its default so consecutive
// executions of the shared rootCmd do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--dir", dir, "--no-color"}, args...))
	err := rootCmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	r := run(t, dir, args...)
	require.NoError(t, r.err, "roadmap %s\nstderr: %s", strings.Join(args, " "), r.stderr)
	return r.stdout
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func newWorkspace(t *testing.T) string {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	mustRun(t, dir, "init", "--name", "demo", "--user", "tester")
	return dir
}

func createIssue(t *testing.T, dir string, args ...string) *types.Issue {
	t.Helper()
	out := mustRun(t, dir, append([]string{"issue", "create", "--json"}, args...)...)
	return decode[*types.Issue](t, out)
}

func TestInit(t *testing.T) {
	dir := newWorkspace(t)
	for _, p := range []string{"issues", "milestones", "projects", "archive", "templates", "config.yaml", "config.local.yaml"} {
		_, err := os.Stat(filepath.Join(dir, ".roadmap", p))
		assert.NoError(t, err, p)
	}

	r := run(t, dir, "init")
	require.Error(t, r.err)
	mustRun(t, dir, "init", "--force")

	out := mustRun(t, dir, "config", "get", "project.name")
	assert.Equal(t, "demo\n", out)
}

func TestIssueWorkflow(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "milestone", "create", "v1", "--due", "2025-03-31")

	schema := createIssue(t, dir, "Schema", "--milestone", "v1", "--priority", "high")
	api := createIssue(t, dir, "API", "--milestone", "v1", "--depends-on", schema.ID, "--due", "+1w")
	require.NotNil(t, api.DueDate)
	assert.Equal(t, "2025-03-08", api.DueDate.String())

	blocked := decode[[]tracker.IssueView](t, mustRun(t, dir, "issue", "list", "--effective", "blocked", "--json"))
	require.Len(t, blocked, 1)
	assert.Equal(t, api.ID, blocked[0].ID)

	ready := decode[[]tracker.IssueView](t, mustRun(t, dir, "ready", "--json"))
	require.Len(t, ready, 1)
	assert.Equal(t, schema.ID, ready[0].ID)

	mustRun(t, dir, "issue", "start", schema.ID)
	mustRun(t, dir, "issue", "close", schema.ID)

	detail := decode[tracker.IssueDetail](t, mustRun(t, dir, "issue", "show", api.ID, "--json"))
	assert.Equal(t, types.StatusNotStarted, detail.Effective)
	assert.Equal(t, []string{schema.ID}, detail.Dependencies)

	report := decode[tracker.MilestoneReport](t, mustRun(t, dir, "milestone", "progress", "v1", "--json"))
	assert.Equal(t, 50.0, report.Progress.Progress)
	assert.Equal(t, 2, report.Progress.Total)

	text := mustRun(t, dir, "milestone", "show", "v1")
	assert.Contains(t, text, "1/2 closed")
	assert.Contains(t, text, api.ID)
}

func TestInvalidTransitionExitsWithError(t *testing.T) {
	dir := newWorkspace(t)
	issue := createIssue(t, dir, "Thing")
	mustRun(t, dir, "issue", "close", issue.ID)

	r := run(t, dir, "issue", "status", issue.ID, "not-started")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "allowed: in-progress")

	var buf bytes.Buffer
	jsonOutput = true
	reportError(&buf, r.err)
	jsonOutput = false
	assert.Contains(t, buf.String(), `"code": "invalid_transition"`)
}

func TestDependencyCycleRejected(t *testing.T) {
	dir := newWorkspace(t)
	a := createIssue(t, dir, "A")
	b := createIssue(t, dir, "B", "--depends-on", a.ID)

	r := run(t, dir, "issue", "dep", "add", a.ID, b.ID)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "dependency cycle")
	assert.Equal(t, "graph_cycle", errorCode(r.err))

	mustRun(t, dir, "issue", "dep", "remove", b.ID, a.ID)
	mustRun(t, dir, "issue", "dep", "add", a.ID, b.ID)
}

func TestIssueUpdateAndList(t *testing.T) {
	dir := newWorkspace(t)
	issue := createIssue(t, dir, "Old title", "--label", "a,b")
	mustRun(t, dir, "issue", "update", issue.ID, "--title", "New title", "--add-label", "c", "--remove-label", "a", "--priority", "critical")

	views := decode[[]tracker.IssueView](t, mustRun(t, dir, "issue", "list", "--label", "c", "--json"))
	require.Len(t, views, 1)
	assert.Equal(t, "New title", views[0].Title)
	assert.Equal(t, []string{"b", "c"}, views[0].Labels)
	assert.Equal(t, types.PriorityCritical, views[0].Priority)

	r := run(t, dir, "issue", "update", issue.ID, "--priority", "urgent")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "want one of")

	text := mustRun(t, dir, "issue", "list")
	assert.Contains(t, text, "New title")
	assert.Contains(t, text, "1 issue(s)")
}

func TestHandoffAndArchive(t *testing.T) {
	dir := newWorkspace(t)
	issue := createIssue(t, dir, "Pass", "--assignee", "alice")

	out := mustRun(t, dir, "issue", "handoff", issue.ID, "bob", "--notes", "on leave")
	assert.Contains(t, out, "from alice to bob")

	mustRun(t, dir, "issue", "close", issue.ID)
	mustRun(t, dir, "issue", "archive", issue.ID)

	r := run(t, dir, "issue", "reopen", issue.ID)
	require.ErrorIs(t, r.err, tracker.ErrArchived)

	all := decode[[]tracker.IssueView](t, mustRun(t, dir, "issue", "list", "--all", "--json"))
	require.Len(t, all, 1)
	assert.True(t, all[0].Archived)
	active := decode[[]tracker.IssueView](t, mustRun(t, dir, "issue", "list", "--json"))
	assert.Empty(t, active)
}

func TestProjectCommands(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "milestone", "create", "alpha")
	done := createIssue(t, dir, "Done", "--milestone", "alpha")
	createIssue(t, dir, "Open", "--milestone", "alpha")
	mustRun(t, dir, "issue", "close", done.ID)

	p := decode[*types.Project](t, mustRun(t, dir, "project", "create", "Launch", "--json", "--target", "2025-04-01"))
	mustRun(t, dir, "project", "add-milestone", p.ID, "alpha")
	mustRun(t, dir, "project", "status", p.ID, "active")

	report := decode[tracker.ProjectReport](t, mustRun(t, dir, "project", "progress", p.ID, "--json"))
	assert.Equal(t, 50.0, report.Progress.Progress)
	assert.Equal(t, types.ProjectActive, report.Project.Status)
	require.Len(t, report.Milestones, 1)

	r := run(t, dir, "project", "status", p.ID, "planning")
	require.Error(t, r.err)
}

func TestBoard(t *testing.T) {
	dir := newWorkspace(t)
	a := createIssue(t, dir, "A")
	createIssue(t, dir, "B", "--depends-on", a.ID)
	mustRun(t, dir, "issue", "start", a.ID)

	columns := decode[[]tracker.Column](t, mustRun(t, dir, "board", "--json"))
	require.Len(t, columns, len(types.IssueStatuses))
	counts := map[types.Status]int{}
	for _, c := range columns {
		counts[c.Status] = len(c.Issues)
	}
	assert.Equal(t, 1, counts[types.StatusInProgress])
	assert.Equal(t, 1, counts[types.StatusBlocked])

	text := mustRun(t, dir, "board")
	assert.Contains(t, text, "IN-PROGRESS (1)")
	assert.Contains(t, text, "waits on "+a.ID)
}

func TestCheck(t *testing.T) {
	dir := newWorkspace(t)
	createIssue(t, dir, "Fine")
	assert.Contains(t, mustRun(t, dir, "check"), "1 issue(s)")

	createIssue(t, dir, "Dangling", "--depends-on", "zzzzzzzz")
	mustRun(t, dir, "config", "set", "graph.strict_references", "true")
	r := run(t, dir, "check")
	require.ErrorIs(t, r.err, errSilent)
	assert.Contains(t, r.stdout, "references unknown issue zzzzzzzz")
}

func TestConfigSet(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "config", "set", "--local", "user.email", "t@example.com")
	assert.Equal(t, "t@example.com\n", mustRun(t, dir, "config", "get", "user.email"))

	r := run(t, dir, "config", "set", "defaults.priority", "urgent")
	require.Error(t, r.err)
	assert.Equal(t, "config", errorCode(r.err))
	assert.Equal(t, "medium\n", mustRun(t, dir, "config", "get", "defaults.priority"))

	shown := decode[map[string]any](t, mustRun(t, dir, "config", "show", "--json"))
	assert.Contains(t, shown, "effective")
}

func TestNoWorkspace(t *testing.T) {
	r := run(t, t.TempDir(), "issue", "list")
	require.Error(t, r.err)
	assert.Equal(t, "no_workspace", errorCode(r.err))
	assert.NotEmpty(t, errorHint(r.err))
}
