package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

var milestoneCmd = &cobra.Command{
	Use:     "milestone",
	Aliases: []string{"milestones", "ms"},
	GroupID: "plan",
	Short:   "Group issues into milestones and track their progress",
}

var milestoneCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a milestone",
	Example: `  roadmap milestone create v1.0 --due 2025-06-30 --description "First public release"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		in := tracker.MilestoneInput{Name: strings.Join(args, " ")}
		in.Description, _ = cmd.Flags().GetString("description")
		due, _ := cmd.Flags().GetString("due")
		if in.DueDate, err = dateFlag(due); err != nil {
			return err
		}
		m, err := s.engine.CreateMilestone(in)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, m)
			return nil
		}
		printf(cmd, "%s Created milestone %s\n", ui.RenderPassIcon(), ui.RenderID(m.Name))
		return nil
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List milestones with progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		reports, errs := s.engine.ListMilestones(all)
		printReadErrors(cmd, errs)
		if jsonOutput {
			if reports == nil {
				reports = []*tracker.MilestoneReport{}
			}
			outputJSON(cmd, reports)
			return nil
		}
		if len(reports) == 0 {
			printf(cmd, "No milestones found.\n")
			return nil
		}
		rows := make([][]string, len(reports))
		for i, r := range reports {
			due := ""
			if r.Milestone.DueDate != nil {
				due = r.Milestone.DueDate.String()
			}
			rows[i] = []string{
				r.Milestone.Name,
				string(r.Milestone.Status),
				due,
				ui.ProgressBar(r.Progress.Progress, 10) + fmt.Sprintf(" %5.1f%%", r.Progress.Progress),
				fmt.Sprintf("%d/%d", r.Progress.Closed(), r.Progress.Total),
				ui.RenderRisk(r.Progress.Risk),
			}
		}
		printf(cmd, "%s\n", ui.Table([]string{"NAME", "STATUS", "DUE", "PROGRESS", "CLOSED", "RISK"}, rows))
		return nil
	},
}

var milestoneShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a milestone, its progress and its issues",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMilestoneReport(cmd, strings.Join(args, " "), true)
	},
}

var milestoneProgressCmd = &cobra.Command{
	Use:   "progress <name>",
	Short: "Recompute milestone progress, velocity and schedule risk",
	Long: `Recompute progress from the milestone's issues using their effective status, along
with completion velocity over the trailing window, a projected completion date and a
schedule risk level. The cached values in the milestone file are refreshed when stale.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMilestoneReport(cmd, strings.Join(args, " "), false)
	},
}

func runMilestoneReport(cmd *cobra.Command, name string, withIssues bool) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	r, err := s.engine.MilestoneProgress(name)
	if err != nil {
		return err
	}
	if !withIssues {
		r.Issues = nil
	}
	if jsonOutput {
		outputJSON(cmd, r)
		return nil
	}
	m := r.Milestone
	printf(cmd, "%s %s\n", ui.RenderID(m.Name), ui.RenderMuted("("+string(m.Status)+")"))
	if m.Description != "" {
		printf(cmd, "  %s\n", m.Description)
	}
	printProgress(cmd, r.Progress, m.DueDate)
	if len(r.Issues) > 0 {
		printf(cmd, "\n%s\n", issueTable(r.Issues))
	}
	return nil
}

func milestoneStatusCmd(use, short string, to types.MilestoneStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			m, warnings, err := s.engine.SetMilestoneStatus(strings.Join(args, " "), to)
			printWarnings(cmd, warnings)
			if err != nil {
				return err
			}
			if jsonOutput {
				outputJSON(cmd, m)
				return nil
			}
			printf(cmd, "%s Milestone %s is %s\n", ui.RenderPassIcon(), ui.RenderID(m.Name), m.Status)
			return nil
		},
	}
}

var milestoneArchiveCmd = &cobra.Command{
	Use:   "archive <name>",
	Short: "Move a milestone into the archive",
	Long: `Move a milestone into archive/milestones/<name>/. With --with-issues its closed issues
move into archive/issues/<name>/ as well; open issues stay active and are reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		withIssues, _ := cmd.Flags().GetBool("with-issues")
		moved, warnings, err := s.engine.ArchiveMilestone(strings.Join(args, " "), withIssues)
		printWarnings(cmd, warnings)
		if jsonOutput && err == nil {
			keys := make([]map[string]string, len(moved))
			for i, e := range moved {
				keys[i] = map[string]string{"kind": string(e.Kind()), "key": e.Key(), "path": e.Doc().Origin.Path}
			}
			outputJSON(cmd, keys)
		}
		for _, e := range moved {
			printf(cmd, "%s Archived %s %s\n", ui.RenderPassIcon(), e.Kind(), ui.RenderID(e.Key()))
		}
		return err
	},
}

func init() {
	milestoneCreateCmd.Flags().StringP("description", "d", "", "Short description")
	milestoneCreateCmd.Flags().String("due", "", "Due date: 2025-03-01, +2w, or 'next friday'")
	milestoneListCmd.Flags().Bool("all", false, "Include archived milestones")
	milestoneArchiveCmd.Flags().Bool("with-issues", false, "Also archive the milestone's closed issues")

	milestoneCmd.AddCommand(
		milestoneCreateCmd,
		milestoneListCmd,
		milestoneShowCmd,
		milestoneProgressCmd,
		milestoneStatusCmd("close", "Close a milestone", types.MilestoneClosed),
		milestoneStatusCmd("reopen", "Reopen a closed milestone", types.MilestoneOpen),
		milestoneArchiveCmd,
	)
	rootCmd.AddCommand(milestoneCmd)
}
