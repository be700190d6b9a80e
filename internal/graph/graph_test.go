package graph

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/steveyegge/roadmap/internal/types"
)

func issue(id string, status types.Status, deps ...string) *types.Issue {
	return &types.Issue{ID: id, Title: id, Status: status, DependsOn: deps}
}

func mustBuild(t *testing.T, issues ...*types.Issue) *Graph {
	t.Helper()
	g, _, err := Build(issues, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildEdgesFromDependsOnAndBlocks(t *testing.T) {
	a := issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb")
	b := issue("bbbbbbbb", types.StatusNotStarted)
	c := issue("cccccccc", types.StatusNotStarted)
	// c blocks a, and b's blocks entry duplicates a's depends_on
	c.Blocks = []string{"aaaaaaaa"}
	b.Blocks = []string{"aaaaaaaa"}

	g := mustBuild(t, a, b, c)
	if got := g.Dependencies("aaaaaaaa"); !slices.Equal(got, []string{"bbbbbbbb", "cccccccc"}) {
		t.Fatalf("Dependencies(a) = %v", got)
	}
	if got := g.Dependents("aaaaaaaa"); len(got) != 0 {
		t.Fatalf("Dependents(a) = %v", got)
	}
	if got := g.Dependents("bbbbbbbb"); !slices.Equal(got, []string{"aaaaaaaa"}) {
		t.Fatalf("Dependents(b) = %v", got)
	}
}

func TestBuildDanglingReferences(t *testing.T) {
	a := issue("aaaaaaaa", types.StatusNotStarted, "zzzzzzzz")
	a.Blocks = []string{"yyyyyyyy"}

	g, warnings, err := Build([]*types.Issue{a}, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if warnings[0].Field != "depends_on" || warnings[0].Ref != "zzzzzzzz" {
		t.Fatalf("unexpected warning %+v", warnings[0])
	}
	if warnings[1].Field != "blocks" || warnings[1].Ref != "yyyyyyyy" {
		t.Fatalf("unexpected warning %+v", warnings[1])
	}
	// dangling dependencies do not block
	if g.EffectiveStatus("aaaaaaaa") != types.StatusNotStarted {
		t.Fatalf("dangling dependency should not block")
	}
	if blockers := g.TransitiveBlockers("aaaaaaaa"); len(blockers) != 0 {
		t.Fatalf("dangling dependency listed as blocker: %v", blockers)
	}
	if ready := g.Ready(); len(ready) != 1 || ready[0].ID != "aaaaaaaa" {
		t.Fatalf("issue with only dangling dependencies should be ready, got %v", ready)
	}

	_, _, err = Build([]*types.Issue{a}, Options{StrictReferences: true})
	var gerr *GraphError
	if !errors.As(err, &gerr) || gerr.Kind != ErrDangling {
		t.Fatalf("expected dangling GraphError in strict mode, got %v", err)
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	a := issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb")
	b := issue("bbbbbbbb", types.StatusNotStarted, "cccccccc")
	c := issue("cccccccc", types.StatusNotStarted, "aaaaaaaa")

	g, _, err := Build([]*types.Issue{a, b, c}, Options{})
	var gerr *GraphError
	if !errors.As(err, &gerr) || gerr.Kind != ErrCycle {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if !slices.Equal(gerr.Path, []string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}) {
		t.Fatalf("unexpected cycle path %v", gerr.Path)
	}
	if gerr.Error() != "dependency cycle: aaaaaaaa -> bbbbbbbb -> cccccccc -> aaaaaaaa" {
		t.Fatalf("unexpected message %q", gerr.Error())
	}
	if g == nil || len(g.Cycles()) != 1 {
		t.Fatalf("graph should be returned with its cycle")
	}
}

func TestAddEdgeRejectsCycleAndLeavesGraphUnchanged(t *testing.T) {
	a := issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb")
	b := issue("bbbbbbbb", types.StatusNotStarted)
	g := mustBuild(t, a, b)

	err := g.AddEdge("bbbbbbbb", "aaaaaaaa")
	var gerr *GraphError
	if !errors.As(err, &gerr) || gerr.Kind != ErrCycle {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if !slices.Equal(gerr.Path, []string{"bbbbbbbb", "aaaaaaaa"}) {
		t.Fatalf("cycle should name both issues, got %v", gerr.Path)
	}
	if len(g.Dependencies("bbbbbbbb")) != 0 || len(g.Dependents("aaaaaaaa")) != 0 {
		t.Fatalf("rejected edge was partially added")
	}
	if len(g.Cycles()) != 0 {
		t.Fatalf("graph gained a cycle")
	}
}

func TestAddEdgeTransitiveCycle(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb"),
		issue("bbbbbbbb", types.StatusNotStarted, "cccccccc"),
		issue("cccccccc", types.StatusNotStarted),
	)
	err := g.AddEdge("cccccccc", "aaaaaaaa")
	var gerr *GraphError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if !slices.Equal(gerr.Path, []string{"cccccccc", "aaaaaaaa", "bbbbbbbb"}) {
		t.Fatalf("unexpected path %v", gerr.Path)
	}
}

func TestAddEdge(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted),
		issue("bbbbbbbb", types.StatusNotStarted),
	)
	if err := g.AddEdge("aaaaaaaa", "aaaaaaaa"); err == nil {
		t.Fatalf("self edge should fail")
	}
	if err := g.AddEdge("aaaaaaaa", "zzzzzzzz"); err == nil {
		t.Fatalf("edge to unknown issue should fail")
	}
	if err := g.AddEdge("aaaaaaaa", "bbbbbbbb"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.AddEdge("aaaaaaaa", "bbbbbbbb"); err != nil {
		t.Fatalf("duplicate edge should be a no-op, got %v", err)
	}
	if got := g.Dependencies("aaaaaaaa"); !slices.Equal(got, []string{"bbbbbbbb"}) {
		t.Fatalf("unexpected dependencies %v", got)
	}
	g.RemoveEdge("aaaaaaaa", "bbbbbbbb")
	if len(g.Dependencies("aaaaaaaa")) != 0 || len(g.Dependents("bbbbbbbb")) != 0 {
		t.Fatalf("RemoveEdge left edges behind")
	}
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name   string
		issues []*types.Issue
		want   types.Status
	}{
		{
			name: "in-progress with open dependency shows blocked",
			issues: []*types.Issue{
				issue("cccccccc", types.StatusInProgress, "dddddddd"),
				issue("dddddddd", types.StatusNotStarted),
			},
			want: types.StatusBlocked,
		},
		{
			name: "closed dependency resolves",
			issues: []*types.Issue{
				issue("cccccccc", types.StatusInProgress, "dddddddd"),
				issue("dddddddd", types.StatusClosed),
			},
			want: types.StatusInProgress,
		},
		{
			name: "mixed dependencies block",
			issues: []*types.Issue{
				issue("cccccccc", types.StatusNotStarted, "dddddddd", "eeeeeeee"),
				issue("dddddddd", types.StatusClosed),
				issue("eeeeeeee", types.StatusInProgress),
			},
			want: types.StatusBlocked,
		},
		{
			name: "closed is never overridden",
			issues: []*types.Issue{
				issue("cccccccc", types.StatusClosed, "dddddddd"),
				issue("dddddddd", types.StatusNotStarted),
			},
			want: types.StatusClosed,
		},
		{
			name:   "declared blocked stays blocked",
			issues: []*types.Issue{issue("cccccccc", types.StatusBlocked)},
			want:   types.StatusBlocked,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustBuild(t, tt.issues...)
			if got := g.EffectiveStatus("cccccccc"); got != tt.want {
				t.Fatalf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
			if g.Issue("cccccccc").Status != tt.issues[0].Status {
				t.Fatalf("declared status was modified")
			}
		})
	}
}

func TestTransitiveBlockers(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb", "dddddddd"),
		issue("bbbbbbbb", types.StatusClosed, "cccccccc"),
		issue("cccccccc", types.StatusInProgress),
		issue("dddddddd", types.StatusClosed),
	)
	if got := g.TransitiveBlockers("aaaaaaaa"); !slices.Equal(got, []string{"cccccccc"}) {
		t.Fatalf("TransitiveBlockers = %v", got)
	}
	if !g.IsBlocked("aaaaaaaa") {
		t.Fatalf("a should be transitively blocked")
	}
	if g.IsBlocked("cccccccc") {
		t.Fatalf("c has no dependencies")
	}
}

func TestTransitiveBlockersSharedSubgraph(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb", "cccccccc"),
		issue("bbbbbbbb", types.StatusInProgress, "dddddddd"),
		issue("cccccccc", types.StatusNotStarted, "dddddddd"),
		issue("dddddddd", types.StatusClosed, "eeeeeeee"),
		issue("eeeeeeee", types.StatusNotStarted),
	)
	// query a dependency first so a's answer is assembled from shared lists
	if got := g.TransitiveBlockers("cccccccc"); !slices.Equal(got, []string{"eeeeeeee"}) {
		t.Fatalf("TransitiveBlockers(c) = %v", got)
	}
	want := []string{"bbbbbbbb", "eeeeeeee", "cccccccc"}
	if got := g.TransitiveBlockers("aaaaaaaa"); !slices.Equal(got, want) {
		t.Fatalf("TransitiveBlockers(a) = %v, want %v", got, want)
	}
}

func TestTransitiveBlockersFollowEdgeChanges(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb"),
		issue("bbbbbbbb", types.StatusNotStarted),
		issue("cccccccc", types.StatusNotStarted),
	)
	if got := g.TransitiveBlockers("aaaaaaaa"); !slices.Equal(got, []string{"bbbbbbbb"}) {
		t.Fatalf("TransitiveBlockers = %v", got)
	}
	if err := g.AddEdge("bbbbbbbb", "cccccccc"); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if got := g.TransitiveBlockers("aaaaaaaa"); !slices.Equal(got, []string{"bbbbbbbb", "cccccccc"}) {
		t.Fatalf("after AddEdge TransitiveBlockers = %v", got)
	}
	g.RemoveEdge("aaaaaaaa", "bbbbbbbb")
	if got := g.TransitiveBlockers("aaaaaaaa"); len(got) != 0 {
		t.Fatalf("after RemoveEdge TransitiveBlockers = %v", got)
	}
}

func TestTransitiveBlockersOnCycle(t *testing.T) {
	g, _, err := Build([]*types.Issue{
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb"),
		issue("bbbbbbbb", types.StatusNotStarted, "aaaaaaaa"),
		issue("cccccccc", types.StatusNotStarted, "aaaaaaaa"),
	}, Options{})
	var gerr *GraphError
	if !errors.As(err, &gerr) || gerr.Kind != ErrCycle {
		t.Fatalf("expected cycle error, got %v", err)
	}
	if got := g.TransitiveBlockers("cccccccc"); !slices.Equal(got, []string{"aaaaaaaa", "bbbbbbbb"}) {
		t.Fatalf("TransitiveBlockers(c) = %v", got)
	}
	if got := g.TransitiveBlockers("aaaaaaaa"); !slices.Equal(got, []string{"bbbbbbbb"}) {
		t.Fatalf("TransitiveBlockers(a) = %v", got)
	}
}

func TestTransitiveBlockersLongChain(t *testing.T) {
	const n = 1000
	issues := make([]*types.Issue, n)
	for i := range issues {
		var deps []string
		if i+1 < n {
			deps = []string{fmt.Sprintf("%08d", i+1)}
		}
		issues[i] = issue(fmt.Sprintf("%08d", i), types.StatusNotStarted, deps...)
	}
	g := mustBuild(t, issues...)
	for i := n - 1; i >= 0; i-- {
		if got := len(g.TransitiveBlockers(fmt.Sprintf("%08d", i))); got != n-1-i {
			t.Fatalf("issue %d has %d blockers, want %d", i, got, n-1-i)
		}
	}
	if ready := g.Ready(); len(ready) != 1 || ready[0].ID != fmt.Sprintf("%08d", n-1) {
		t.Fatalf("only the chain's tail should be ready, got %d issues", len(ready))
	}
}

func TestReadyAndBlocked(t *testing.T) {
	g := mustBuild(t,
		issue("aaaaaaaa", types.StatusNotStarted, "bbbbbbbb"),
		issue("bbbbbbbb", types.StatusInProgress),
		issue("cccccccc", types.StatusBlocked),
		issue("dddddddd", types.StatusClosed),
		issue("eeeeeeee", types.StatusNotStarted, "dddddddd"),
	)
	ids := func(issues []*types.Issue) []string {
		var out []string
		for _, i := range issues {
			out = append(out, i.ID)
		}
		return out
	}
	if got := ids(g.Ready()); !slices.Equal(got, []string{"bbbbbbbb", "eeeeeeee"}) {
		t.Fatalf("Ready = %v", got)
	}
	if got := ids(g.Blocked()); !slices.Equal(got, []string{"aaaaaaaa", "cccccccc"}) {
		t.Fatalf("Blocked = %v", got)
	}
}
