package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/ui"
)

var boardCmd = &cobra.Command{
	Use:     "board",
	GroupID: "views",
	Short:   "Show active issues as a board grouped by effective status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		milestone, _ := cmd.Flags().GetString("milestone")
		columns, errs := s.engine.Board(milestone)
		printReadErrors(cmd, errs)
		if jsonOutput {
			outputJSON(cmd, columns)
			return nil
		}
		for i, col := range columns {
			if i > 0 {
				printf(cmd, "\n")
			}
			printf(cmd, "%s %s\n", ui.RenderCategory(string(col.Status)), ui.RenderMuted(fmt.Sprintf("(%d)", len(col.Issues))))
			for _, v := range col.Issues {
				line := fmt.Sprintf("%s%s %s", ui.TreeIndent, ui.RenderID(v.ID), ui.TruncateSimple(v.Title, 60))
				if v.Assignee != "" {
					line += ui.RenderMuted(" @" + v.Assignee)
				}
				if len(v.Blockers) > 0 {
					line += ui.RenderMuted(" waits on " + strings.Join(v.Blockers, ", "))
				}
				printf(cmd, "%s\n", line)
			}
		}
		return nil
	},
}

func viewCmd(use, short string, pick func(*tracker.Engine) ([]tracker.IssueView, error)) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		GroupID: "views",
		Short:   short,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			views, err := pick(s.engine)
			if err != nil {
				return err
			}
			if jsonOutput {
				if views == nil {
					views = []tracker.IssueView{}
				}
				outputJSON(cmd, views)
				return nil
			}
			if len(views) == 0 {
				printf(cmd, "No issues.\n")
				return nil
			}
			printf(cmd, "%s\n", issueTable(views))
			return nil
		},
	}
}

func init() {
	boardCmd.Flags().StringP("milestone", "m", "", "Only issues in this milestone")
	rootCmd.AddCommand(
		boardCmd,
		viewCmd("ready", "List open issues with every dependency closed", (*tracker.Engine).Ready),
		viewCmd("blocked", "List open issues that wait on a dependency or are marked blocked", (*tracker.Engine).Blocked),
	)
}
