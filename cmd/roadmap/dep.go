package main

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/tracker"
	"github.com/steveyegge/roadmap/internal/types"
	"github.com/steveyegge/roadmap/internal/ui"
)

var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage dependencies between issues",
	Long: `Manage dependencies. 'dep add A B' records that A depends on B: A.depends_on gets B and
B.blocks gets A. An edge that would create a cycle is rejected with the cycle path.`,
}

var depAddCmd = &cobra.Command{
	Use:     "add <id> <depends-on-id>",
	Short:   "Record that an issue depends on another",
	Example: `  roadmap issue dep add 3kx9a1bq 7mz2c4dd`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDepChange(cmd, args[0], args[1], (*tracker.Engine).AddDependency, "now depends on")
	},
}

var depRemoveCmd = &cobra.Command{
	Use:     "remove <id> <depends-on-id>",
	Aliases: []string{"rm"},
	Short:   "Drop a dependency from both issues",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDepChange(cmd, args[0], args[1], (*tracker.Engine).RemoveDependency, "no longer depends on")
	},
}

func runDepChange(cmd *cobra.Command, from, to string, op func(*tracker.Engine, string, string) (*types.Issue, []tracker.Warning, error), verb string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	issue, warnings, err := op(s.engine, from, to)
	printWarnings(cmd, warnings)
	if err != nil {
		return err
	}
	if jsonOutput {
		outputJSON(cmd, issue)
		return nil
	}
	printf(cmd, "%s %s %s %s\n", ui.RenderPassIcon(), ui.RenderID(from), verb, ui.RenderID(to))
	return nil
}

func init() {
	depCmd.AddCommand(depAddCmd, depRemoveCmd)
}
