package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

var issueCmd = &cobra.Command{
	Use:     "issue",
	Aliases: []string{"issues", "i"},
	GroupID: "issues",
	Short:   "Create, change and inspect issues",
}

var issueCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new issue",
	Long: `Create a new issue from the issue template. The identifier is derived from the
title, the actor and the current time.

Dependencies given with --depends-on and --blocks are recorded on both issues. A
dependency that would close a cycle is rejected and nothing is written.`,
	Example: `  roadmap issue create "Login page" --milestone v1.0 --priority high --due +2w
  roadmap issue create "Session store" --depends-on 3kx9a1bq --criteria "sessions survive restart"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		in := tracker.IssueInput{Title: strings.Join(args, " ")}
		in.Description, _ = f.GetString("description")
		in.Criteria, _ = f.GetStringArray("criteria")
		in.Milestone, _ = f.GetString("milestone")
		in.Assignee, _ = f.GetString("assignee")
		in.Labels, _ = f.GetStringSlice("label")
		in.DependsOn, _ = f.GetStringSlice("depends-on")
		in.Blocks, _ = f.GetStringSlice("blocks")

		if v, _ := f.GetString("priority"); v != "" {
			if in.Priority, err = parsePriority(v); err != nil {
				return err
			}
		}
		if v, _ := f.GetString("type"); v != "" {
			if in.IssueType, err = parseIssueType(v); err != nil {
				return err
			}
		}
		if f.Changed("estimate") {
			hours, _ := f.GetFloat64("estimate")
			in.EstimatedHours = &hours
		}
		due, _ := f.GetString("due")
		if in.DueDate, err = dateFlag(due); err != nil {
			return err
		}

		issue, warnings, err := s.engine.CreateIssue(in)
		printWarnings(cmd, warnings)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, issue)
			return nil
		}
		printf(cmd, "%s Created issue %s: %s\n", ui.RenderPassIcon(), ui.RenderID(issue.ID), issue.Title)
		printf(cmd, "  %s\n", ui.RenderMuted(issue.Doc().Origin.Path))
		return nil
	},
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues",
	Long: `List issues with their effective status. An issue whose dependencies are not all
closed shows as blocked even when its file says otherwise.

--status filters on the status stored in the file; --effective filters on the computed one.`,
	Example: `  roadmap issue list --milestone v1.0 --sort priority-desc,due-asc
  roadmap issue list --effective blocked --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		q, err := issueQueryFromFlags(cmd)
		if err != nil {
			return err
		}
		views, errs := s.engine.ListIssues(q)
		printReadErrors(cmd, errs)
		if jsonOutput {
			if views == nil {
				views = []tracker.IssueView{}
			}
			outputJSON(cmd, views)
			return nil
		}
		if len(views) == 0 {
			printf(cmd, "No issues found.\n")
			return nil
		}
		printf(cmd, "%s\n", issueTable(views))
		printf(cmd, "%s\n", ui.RenderMuted(fmt.Sprintf("%d issue(s)", len(views))))
		return nil
	},
}

func issueQueryFromFlags(cmd *cobra.Command) (tracker.IssueQuery, error) {
	f := cmd.Flags()
	var q tracker.IssueQuery
	var err error

	status, _ := f.GetString("status")
	if q.Filter.Status, err = optional(status != "", status, parseStatus); err != nil {
		return q, err
	}
	effective, _ := f.GetString("effective")
	if q.Effective, err = optional(effective != "", effective, parseStatus); err != nil {
		return q, err
	}
	priority, _ := f.GetString("priority")
	if q.Filter.Priority, err = optional(priority != "", priority, parsePriority); err != nil {
		return q, err
	}
	kind, _ := f.GetString("type")
	if q.Filter.IssueType, err = optional(kind != "", kind, parseIssueType); err != nil {
		return q, err
	}
	if f.Changed("milestone") {
		m, _ := f.GetString("milestone")
		q.Filter.Milestone = &m
	}
	if none, _ := f.GetBool("no-milestone"); none {
		empty := ""
		q.Filter.Milestone = &empty
	}
	if f.Changed("assignee") {
		a, _ := f.GetString("assignee")
		q.Filter.Assignee = &a
	}
	q.Filter.Labels, _ = f.GetStringSlice("label")
	sortRaw, _ := f.GetString("sort")
	q.Sort = types.ParseIssueSortOrder(sortRaw)
	q.IncludeArchived, _ = f.GetBool("all")
	q.ArchivedOnly, _ = f.GetBool("archived")
	return q, nil
}

func issueTable(views []tracker.IssueView) string {
	rows := make([][]string, len(views))
	for i, v := range views {
		due := ""
		if v.DueDate != nil {
			due = v.DueDate.String()
		}
		title := ui.TruncateSimple(v.Title, 50)
		if v.Archived {
			title += ui.RenderMuted(" (archived)")
		}
		rows[i] = []string{
			v.ID,
			ui.RenderEffective(v.Status, v.Effective),
			ui.RenderPriority(v.Priority),
			string(v.IssueType),
			v.Milestone,
			v.Assignee,
			due,
			title,
		}
	}
	return ui.Table([]string{"ID", "STATUS", "PRIORITY", "TYPE", "MILESTONE", "ASSIGNEE", "DUE", "TITLE"}, rows)
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an issue with its dependencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		d, err := s.engine.ShowIssue(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, d)
			return nil
		}
		printIssueDetail(cmd, d)
		return nil
	},
}

func printIssueDetail(cmd *cobra.Command, d *tracker.IssueDetail) {
	printf(cmd, "%s %s\n", ui.RenderID(d.ID), d.Title)
	field := func(name, value string) {
		if value != "" {
			printf(cmd, "  %-12s %s\n", name+":", value)
		}
	}
	field("Status", ui.RenderEffective(d.Status, d.Effective))
	field("Priority", ui.RenderPriority(d.Priority))
	field("Type", string(d.IssueType))
	field("Milestone", d.Milestone)
	field("Assignee", d.Assignee)
	field("Labels", strings.Join(d.Labels, ", "))
	if d.DueDate != nil {
		field("Due", d.DueDate.String())
	}
	if d.EstimatedHours != nil {
		field("Estimate", strconv.FormatFloat(*d.EstimatedHours, 'f', -1, 64)+"h")
	}
	if d.Criteria > 0 {
		field("Criteria", fmt.Sprintf("%d/%d done", d.Done, d.Criteria))
	}
	field("Depends on", strings.Join(d.Dependencies, ", "))
	field("Blocks", strings.Join(d.Dependents, ", "))
	field("Waiting on", strings.Join(d.Blockers, ", "))
	field("Dangling", strings.Join(d.Dangling, ", "))
	if d.PreviousAssignee != "" {
		field("Handed off", fmt.Sprintf("from %s: %s", d.PreviousAssignee, d.HandoffNotes))
	}
	if d.Archived {
		field("Archived", "yes")
	}
	if body := strings.TrimSpace(d.Issue.Body); body != "" {
		printf(cmd, "\n%s\n", ui.WrapText(body, min(ui.Width(), 100)))
	}
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change issue fields",
	Long: `Change issue fields. Only flags that are given are applied; updated is bumped only when
something actually changed. Use 'issue status' to change status.`,
	Example: `  roadmap issue update 3kx9a1bq --priority critical --add-label security
  roadmap issue update 3kx9a1bq --milestone "" --clear-due`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		u, err := issueUpdateFromFlags(cmd)
		if err != nil {
			return err
		}
		issue, warnings, err := s.engine.UpdateIssue(args[0], u)
		printWarnings(cmd, warnings)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, issue)
			return nil
		}
		printf(cmd, "%s Updated issue %s\n", ui.RenderPassIcon(), ui.RenderID(issue.ID))
		return nil
	},
}

func issueUpdateFromFlags(cmd *cobra.Command) (tracker.IssueUpdate, error) {
	f := cmd.Flags()
	var u tracker.IssueUpdate
	var err error
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	num := func(name string) *float64 {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetFloat64(name)
		return &v
	}

	u.Title = str("title")
	u.Assignee = str("assignee")
	u.Milestone = str("milestone")
	u.EstimatedHours = num("estimate")
	u.Progress = num("progress")
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return u, fmt.Errorf("--progress must be between 0 and 100")
	}
	if p := str("priority"); p != nil {
		if u.Priority, err = optional(true, *p, parsePriority); err != nil {
			return u, err
		}
	}
	if t := str("type"); t != nil {
		if u.IssueType, err = optional(true, *t, parseIssueType); err != nil {
			return u, err
		}
	}
	if due := str("due"); due != nil {
		if u.DueDate, err = dateFlag(*due); err != nil {
			return u, err
		}
	}
	u.ClearDueDate, _ = f.GetBool("clear-due")
	u.AddLabels, _ = f.GetStringSlice("add-label")
	u.RemoveLabels, _ = f.GetStringSlice("remove-label")
	u.GitBranches, _ = f.GetStringSlice("branch")
	u.GitCommits, _ = f.GetStringSlice("commit")
	return u, nil
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move an issue to another status",
	Long: `Move an issue through its lifecycle:

  not-started -> in-progress | closed
  in-progress -> blocked | closed
  blocked     -> in-progress
  closed      -> in-progress

Entering in-progress records the actual start date, closing records the end date. Any
other move is rejected and lists the allowed targets.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseStatus(args[1])
		if err != nil {
			return err
		}
		return runStatusChange(cmd, []string{args[0]}, func(e *tracker.Engine, id string) (*types.Issue, []tracker.Warning, error) {
			return e.SetIssueStatus(id, to)
		})
	},
}

func statusShortcut(use, short string, op func(*tracker.Engine, string) (*types.Issue, []tracker.Warning, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatusChange(cmd, args, op)
		},
	}
}

// runStatusChange applies op to each id and keeps going after a failure.
func runStatusChange(cmd *cobra.Command, ids []string, op func(*tracker.Engine, string) (*types.Issue, []tracker.Warning, error)) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	var (
		changed []*types.Issue
		failed  int
	)
	for _, id := range ids {
		issue, warnings, err := op(s.engine, id)
		printWarnings(cmd, warnings)
		if err != nil {
			if len(ids) == 1 {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", ui.RenderFailIcon(), id, err)
			failed++
			continue
		}
		changed = append(changed, issue)
		printf(cmd, "%s %s is now %s\n", ui.RenderPassIcon(), ui.RenderID(issue.ID), ui.RenderStatus(issue.Status))
	}
	if jsonOutput {
		if len(ids) == 1 && len(changed) == 1 {
			outputJSON(cmd, changed[0])
		} else {
			outputJSON(cmd, changed)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d issue(s) not changed", failed, len(ids))
	}
	return nil
}

var issueHandoffCmd = &cobra.Command{
	Use:   "handoff <id> <assignee>",
	Short: "Reassign an issue and record the handoff",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")
		issue, err := s.engine.Handoff(args[0], args[1], notes)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, issue)
			return nil
		}
		from := issue.PreviousAssignee
		if from == "" {
			from = "nobody"
		}
		printf(cmd, "%s %s handed from %s to %s\n", ui.RenderPassIcon(), ui.RenderID(issue.ID), from, issue.Assignee)
		return nil
	},
}

var issueArchiveCmd = &cobra.Command{
	Use:   "archive <id>...",
	Short: "Move issues into the archive",
	Long: `Move issues into archive/issues/<milestone or backlog>/. Archived issues are still
listed with --all and count toward progress, but can no longer be changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatusChange(cmd, args, func(e *tracker.Engine, id string) (*types.Issue, []tracker.Warning, error) {
			return e.ArchiveIssue(id)
		})
	},
}

func init() {
	f := issueCreateCmd.Flags()
	f.StringP("description", "d", "", "Description section of the body")
	f.StringArray("criteria", nil, "Acceptance criterion (repeatable)")
	f.StringP("priority", "p", "", "Priority: low, medium, high, critical (default from config)")
	f.StringP("type", "t", "", "Type: feature, bug, other (default from config)")
	f.StringP("milestone", "m", "", "Milestone name")
	f.StringP("assignee", "a", "", "Assignee")
	f.StringSliceP("label", "l", nil, "Labels (comma-separated or repeatable)")
	f.Float64("estimate", 0, "Estimated hours")
	f.String("due", "", "Due date: 2025-03-01, +2w, or 'next friday'")
	f.StringSlice("depends-on", nil, "Issues this one depends on")
	f.StringSlice("blocks", nil, "Issues this one blocks")

	f = issueListCmd.Flags()
	f.StringP("status", "s", "", "Filter by stored status")
	f.String("effective", "", "Filter by effective status")
	f.StringP("priority", "p", "", "Filter by priority")
	f.StringP("type", "t", "", "Filter by type")
	f.StringP("milestone", "m", "", "Filter by milestone")
	f.Bool("no-milestone", false, "Only issues without a milestone")
	f.StringP("assignee", "a", "", "Filter by assignee")
	f.StringSliceP("label", "l", nil, "Require all of these labels")
	f.String("sort", "", "Sort keys, e.g. priority-desc,due-asc (fields: "+strings.Join(sortFields(), ", ")+")")
	f.Bool("all", false, "Include archived issues")
	f.Bool("archived", false, "Only archived issues")

	f = issueUpdateCmd.Flags()
	f.String("title", "", "New title")
	f.StringP("priority", "p", "", "Priority")
	f.StringP("type", "t", "", "Type")
	f.StringP("assignee", "a", "", "Assignee (empty to clear)")
	f.StringP("milestone", "m", "", "Milestone (empty to clear)")
	f.Float64("estimate", 0, "Estimated hours")
	f.Float64("progress", 0, "Manual progress percentage (0-100)")
	f.String("due", "", "Due date")
	f.Bool("clear-due", false, "Remove the due date")
	f.StringSlice("add-label", nil, "Labels to add")
	f.StringSlice("remove-label", nil, "Labels to remove")
	f.StringSlice("branch", nil, "Git branches to link")
	f.StringSlice("commit", nil, "Git commits to link")

	issueHandoffCmd.Flags().String("notes", "", "Context for the new assignee")

	issueCmd.AddCommand(
		issueCreateCmd,
		issueListCmd,
		issueShowCmd,
		issueUpdateCmd,
		issueStatusCmd,
		statusShortcut("start", "Move issues to in-progress", (*tracker.Engine).StartIssue),
		statusShortcut("close", "Close issues", (*tracker.Engine).CloseIssue),
		statusShortcut("reopen", "Reopen closed issues", (*tracker.Engine).ReopenIssue),
		issueHandoffCmd,
		issueArchiveCmd,
		depCmd,
	)
	rootCmd.AddCommand(issueCmd)
}

func sortFields() []string {
	return []string{
		string(types.SortFieldPriority), string(types.SortFieldCreated), string(types.SortFieldUpdated),
		string(types.SortFieldTitle), string(types.SortFieldDue), string(types.SortFieldStatus),
	}
}

