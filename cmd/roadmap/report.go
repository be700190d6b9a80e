package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/progress"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

// printProgress renders a progress report block, indented under a heading.
func printProgress(cmd *cobra.Command, r progress.Report, due *types.Date) {
	printf(cmd, "  %s %5.1f%%  %d/%d closed\n", ui.ProgressBar(r.Progress, 24), r.Progress, r.Closed(), r.Total)

	var counts []string
	for _, s := range types.IssueStatuses {
		if n := r.Counts[s]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", ui.RenderStatus(s), n))
		}
	}
	if len(counts) > 0 {
		printf(cmd, "  %s\n", strings.Join(counts, "  "))
	}

	schedule := []string{"risk " + ui.RenderRisk(r.Risk)}
	if due != nil {
		schedule = append(schedule, "due "+due.String())
	}
	if r.Velocity != nil {
		schedule = append(schedule, fmt.Sprintf("velocity %.2f/day", *r.Velocity))
	}
	if r.Projected != nil {
		schedule = append(schedule, "projected "+r.Projected.Format(types.DateLayout))
	}
	if r.Overdue {
		schedule = append(schedule, ui.RenderFail("overdue"))
	}
	printf(cmd, "  %s\n", strings.Join(schedule, ", "))

	if r.Hours > 0 {
		printf(cmd, "  %s\n", ui.RenderMuted(fmt.Sprintf("%.1fh estimated, %.1fh remaining", r.Hours, r.HoursLeft)))
	}
	if r.Checklist[1] > 0 {
		printf(cmd, "  %s\n", ui.RenderMuted(fmt.Sprintf("criteria %d/%d done", r.Checklist[0], r.Checklist[1])))
	}
}
