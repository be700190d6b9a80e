// Package tracker is the tracking engine: every named operation on issues, milestones
// and projects goes through an Engine, which loads from the store, applies graph,
// lifecycle and progress rules, and saves back.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/debug"
	"github.com/steveyegge/roadmap/internal/graph"
	"github.com/steveyegge/roadmap/internal/progress"
	"github.com/steveyegge/roadmap/internal/storage"
	"github.com/steveyegge/roadmap/internal/templates"
	"github.com/steveyegge/roadmap/internal/types"
)

// ErrArchived is returned when a mutation targets an archived entity.
var ErrArchived = errors.New("entity is archived and frozen")

// ArchivedError names the frozen entity.
type ArchivedError struct {
	Kind types.Kind
	Key  string
}

func (e *ArchivedError) Error() string {
	return fmt.Sprintf("%s %q is archived and cannot be changed", e.Kind, e.Key)
}

// Is makes errors.Is(err, ErrArchived) true.
func (e *ArchivedError) Is(target error) bool { return target == ErrArchived }

// Warning is a non-fatal finding returned alongside a successful operation.
type Warning struct {
	Kind    types.Kind `json:"kind"`
	Key     string     `json:"key"`
	Message string     `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s", w.Kind, w.Key, w.Message)
}

// Engine runs tracker operations against a store. It is not safe for concurrent use.
type Engine struct {
	store     storage.Store
	log       *slog.Logger
	now       func() time.Time
	actor     string
	graphOpts graph.Options
	progOpts  progress.Options
	defaults  struct {
		priority  types.Priority
		issueType types.IssueType
	}
	templates templates.Loader
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithActor names who performs mutations; it seeds identifiers and handoff records.
func WithActor(actor string) Option {
	return func(e *Engine) { e.actor = actor }
}

// WithTemplates sets the body template loader for create operations.
func WithTemplates(l templates.Loader) Option {
	return func(e *Engine) { e.templates = l }
}

// WithSettings applies workspace settings: defaults, graph strictness, progress windows
// and the actor.
func WithSettings(s *config.Settings) Option {
	return func(e *Engine) {
		e.defaults.priority = s.DefaultPriority()
		e.defaults.issueType = s.DefaultIssueType()
		e.graphOpts.StrictReferences = s.StrictReferences()
		e.progOpts = progress.Options{VelocityWindow: s.VelocityWindow(), RiskTolerance: s.RiskTolerance()}
		if actor := s.Actor(); actor != "" {
			e.actor = actor
		}
	}
}

// New returns an engine over store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      debug.Discard(),
		now:      time.Now,
		progOpts: progress.DefaultOptions,
	}
	e.defaults.priority = types.PriorityMedium
	e.defaults.issueType = types.TypeFeature
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() storage.Store { return e.store }

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Second)
}

func (e *Engine) warn(out *[]Warning, kind types.Kind, key, format string, args ...any) {
	w := Warning{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)}
	e.log.Warn(w.Message, "kind", kind, "key", key)
	*out = append(*out, w)
}

func frozen(ent types.Entity) error {
	if ent.Doc().IsArchived() {
		return &ArchivedError{Kind: ent.Kind(), Key: ent.Key()}
	}
	return nil
}

func (e *Engine) loadIssue(id string) (*types.Issue, error) {
	ent, err := e.store.Load(types.KindIssue, id)
	if err != nil {
		return nil, err
	}
	return ent.(*types.Issue), nil
}

func (e *Engine) loadMilestone(name string) (*types.Milestone, error) {
	ent, err := e.store.Load(types.KindMilestone, name)
	if err != nil {
		return nil, err
	}
	return ent.(*types.Milestone), nil
}

func (e *Engine) loadProject(id string) (*types.Project, error) {
	ent, err := e.store.Load(types.KindProject, id)
	if err != nil {
		return nil, err
	}
	return ent.(*types.Project), nil
}

// mutable loads an active issue for modification.
func (e *Engine) mutable(id string) (*types.Issue, error) {
	issue, err := e.loadIssue(id)
	if err != nil {
		return nil, err
	}
	if err := frozen(issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// allIssues reads every issue, archived ones included, logging unreadable files.
func (e *Engine) allIssues() []*types.Issue {
	issues, errs := storage.Collect[*types.Issue](e.store.List(types.KindIssue, storage.Filter{IncludeArchived: true}))
	for _, err := range errs {
		e.log.Warn("skipping unreadable issue", "error", err)
	}
	return issues
}

// buildGraph builds the read-side dependency graph over all issues. Dangling references
// are warnings here whatever the strictness setting, and a cycle already on disk is
// logged while the graph is still returned.
func (e *Engine) buildGraph(issues []*types.Issue) (*graph.Graph, []graph.Warning, error) {
	g, warnings, err := graph.Build(issues, graph.Options{})
	var gerr *graph.GraphError
	if errors.As(err, &gerr) && gerr.Kind == graph.ErrCycle {
		e.log.Warn("dependency cycle on disk", "error", err)
		return g, warnings, nil
	}
	return g, warnings, err
}

// checkGraph builds the graph around a pending change to id. Only problems that involve
// id are errors: a cycle through it, or with strict references a dangling depends_on.
func (e *Engine) checkGraph(issues []*types.Issue, id string) (*graph.Graph, []graph.Warning, error) {
	g, warnings, err := graph.Build(issues, graph.Options{})
	var gerr *graph.GraphError
	if err != nil && (!errors.As(err, &gerr) || gerr.Kind != graph.ErrCycle) {
		return nil, warnings, err
	}
	if err != nil {
		for _, cycle := range g.Cycles() {
			if slices.Contains(cycle, id) {
				return nil, warnings, &graph.GraphError{Kind: graph.ErrCycle, Path: rotate(cycle, id)}
			}
		}
	}
	if e.graphOpts.StrictReferences {
		for _, w := range warnings {
			if w.Issue == id && w.Field == "depends_on" {
				return nil, warnings, &graph.GraphError{Kind: graph.ErrDangling, Path: []string{id, w.Ref}}
			}
		}
	}
	return g, warnings, nil
}

// rotate starts a cycle at id so error paths read from the issue being changed.
func rotate(cycle []string, id string) []string {
	i := slices.Index(cycle, id)
	if i <= 0 {
		return cycle
	}
	return append(slices.Clone(cycle[i:]), cycle[:i]...)
}

func (e *Engine) save(ent types.Entity) error {
	if err := e.store.Save(ent); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", ent.Kind(), ent.Key(), err)
	}
	return nil
}

func addUnique(list []string, values ...string) ([]string, bool) {
	changed := false
	for _, v := range values {
		if v == "" || slices.Contains(list, v) {
			continue
		}
		list = append(list, v)
		changed = true
	}
	return list, changed
}

func removeAll(list []string, values ...string) ([]string, bool) {
	out := slices.DeleteFunc(slices.Clone(list), func(s string) bool {
		return slices.Contains(values, s)
	})
	if len(out) == len(list) {
		return list, false
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}
