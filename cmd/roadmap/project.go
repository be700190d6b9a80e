package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects", "p"},
	GroupID: "plan",
	Short:   "Group milestones into projects",
}

var projectCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a project",
	Example: `  roadmap project create "Public launch" --milestone v1.0 --milestone v1.1 --target +3m`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		in := tracker.ProjectInput{Name: strings.Join(args, " ")}
		in.Description, _ = f.GetString("description")
		in.Owner, _ = f.GetString("owner")
		in.Milestones, _ = f.GetStringSlice("milestone")
		if v, _ := f.GetString("priority"); v != "" {
			if in.Priority, err = parsePriority(v); err != nil {
				return err
			}
		}
		if f.Changed("estimate") {
			hours, _ := f.GetFloat64("estimate")
			in.EstimatedHours = &hours
		}
		start, _ := f.GetString("start")
		if in.StartDate, err = dateFlag(start); err != nil {
			return err
		}
		target, _ := f.GetString("target")
		if in.TargetEndDate, err = dateFlag(target); err != nil {
			return err
		}

		p, warnings, err := s.engine.CreateProject(in)
		printWarnings(cmd, warnings)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, p)
			return nil
		}
		printf(cmd, "%s Created project %s: %s\n", ui.RenderPassIcon(), ui.RenderID(p.ID), p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		projects, errs := s.engine.ListProjects(all)
		printReadErrors(cmd, errs)
		if jsonOutput {
			if projects == nil {
				projects = []*types.Project{}
			}
			outputJSON(cmd, projects)
			return nil
		}
		if len(projects) == 0 {
			printf(cmd, "No projects found.\n")
			return nil
		}
		rows := make([][]string, len(projects))
		for i, p := range projects {
			target := ""
			if p.TargetEndDate != nil {
				target = p.TargetEndDate.String()
			}
			rows[i] = []string{
				p.ID,
				string(p.Status),
				ui.RenderPriority(p.Priority),
				p.Owner,
				target,
				fmt.Sprintf("%5.1f%%", p.CalculatedProgress),
				p.Name,
			}
		}
		printf(cmd, "%s\n", ui.Table([]string{"ID", "STATUS", "PRIORITY", "OWNER", "TARGET", "CACHED", "NAME"}, rows))
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:     "show <id>",
	Aliases: []string{"progress"},
	Short:   "Show a project with aggregate and per-milestone progress",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		r, err := s.engine.ProjectProgress(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, r)
			return nil
		}
		p := r.Project
		printf(cmd, "%s %s %s\n", ui.RenderID(p.ID), p.Name, ui.RenderMuted("("+string(p.Status)+")"))
		if p.Owner != "" {
			printf(cmd, "  owner %s\n", p.Owner)
		}
		printProgress(cmd, r.Progress, p.TargetEndDate)
		for _, mr := range r.Milestones {
			printf(cmd, "\n%s%s\n", ui.TreeChild, ui.RenderCategory(mr.Milestone.Name))
			printProgress(cmd, mr.Progress, mr.Milestone.DueDate)
		}
		return nil
	},
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a project to another status",
	Long: `Move a project through its lifecycle:

  planning -> active | cancelled
  active   -> on-hold | done | cancelled
  on-hold  -> active | cancelled
  done     -> active
  cancelled is final`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseEnum("project status", args[1], types.ProjectStatuses)
		if err != nil {
			return err
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.engine.SetProjectStatus(args[0], to)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, p)
			return nil
		}
		printf(cmd, "%s Project %s is %s\n", ui.RenderPassIcon(), ui.RenderID(p.ID), p.Status)
		return nil
	},
}

var projectAddMilestoneCmd = &cobra.Command{
	Use:   "add-milestone <id> <milestone>",
	Short: "Attach a milestone to a project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		p, warnings, err := s.engine.AddProjectMilestone(args[0], strings.Join(args[1:], " "))
		printWarnings(cmd, warnings)
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, p)
			return nil
		}
		printf(cmd, "%s Project %s milestones: %s\n", ui.RenderPassIcon(), ui.RenderID(p.ID), strings.Join(p.Milestones, ", "))
		return nil
	},
}

var projectRemoveMilestoneCmd = &cobra.Command{
	Use:   "remove-milestone <id> <milestone>",
	Short: "Detach a milestone from a project",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.engine.RemoveProjectMilestone(args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, p)
			return nil
		}
		printf(cmd, "%s Project %s milestones: %s\n", ui.RenderPassIcon(), ui.RenderID(p.ID), strings.Join(p.Milestones, ", "))
		return nil
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a project into the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		p, err := s.engine.ArchiveProject(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, p)
			return nil
		}
		printf(cmd, "%s Archived project %s\n", ui.RenderPassIcon(), ui.RenderID(p.ID))
		return nil
	},
}

func init() {
	f := projectCreateCmd.Flags()
	f.StringP("description", "d", "", "Short description")
	f.StringP("owner", "o", "", "Owner")
	f.StringP("priority", "p", "", "Priority (default from config)")
	f.StringSliceP("milestone", "m", nil, "Milestones (comma-separated or repeatable)")
	f.Float64("estimate", 0, "Estimated hours")
	f.String("start", "", "Planned start date")
	f.String("target", "", "Target end date")
	projectListCmd.Flags().Bool("all", false, "Include archived projects")

	projectCmd.AddCommand(
		projectCreateCmd,
		projectListCmd,
		projectShowCmd,
		projectStatusCmd,
		projectAddMilestoneCmd,
		projectRemoveMilestoneCmd,
		projectArchiveCmd,
	)
	rootCmd.AddCommand(projectCmd)
}
