package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	GroupID: "views",
	Short:   "Validate every file in the workspace",
	Long: `Load every issue, milestone and project, archive included, and report files that do
not validate, duplicate keys, dangling references, unknown milestones and dependency
cycles. Exits non-zero when an error-level problem is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		r := s.engine.Check()
		if jsonOutput {
			outputJSON(cmd, r)
		} else {
			for _, p := range r.Problems {
				icon := ui.RenderWarnIcon()
				if p.Severity == tracker.SeverityError {
					icon = ui.RenderFailIcon()
				}
				printf(cmd, "%s %s\n", icon, p)
			}
			summary := fmt.Sprintf("%d issue(s), %d milestone(s), %d project(s)",
				r.Counts[types.KindIssue], r.Counts[types.KindMilestone], r.Counts[types.KindProject])
			if r.OK() {
				printf(cmd, "%s %s\n", ui.RenderPassIcon(), summary)
			} else {
				printf(cmd, "%s %s\n", ui.RenderFailIcon(), summary)
			}
		}
		if !r.OK() {
			return fmt.Errorf("%w: check found problems", errSilent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
