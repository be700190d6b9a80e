package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/debug"
	"github.com/steveyegge/roadmap/internal/ui"
)

var (
	workDir     string
	actorFlag   string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
	noColorFlag bool
)

// Version is set at build time.
var Version = "dev"

// errSilent marks an error that has already been reported to the user.
var errSilent = errors.New("silent")

func init() {
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Repository root or any directory inside it (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Who is making changes (default: user.name from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(&cobra.Group{ID: "issues", Title: "Working With Issues:"})
	rootCmd.AddGroup(&cobra.Group{ID: "plan", Title: "Milestones & Projects:"})
	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:           "roadmap",
	Short:         "roadmap - file-backed project tracking",
	Long:          `Issues, milestones and projects as Markdown files in your repository, with dependencies, progress and schedule risk computed from them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag || jsonOutput)
		ui.SetColor(!noColorFlag && ui.ShouldUseColor())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err as text or, with --json, as {"error": ...} on stderr.
func reportError(w io.Writer, err error) {
	if errors.Is(err, errSilent) {
		return
	}
	if jsonOutput {
		writeJSON(w, map[string]string{"error": err.Error(), "code": errorCode(err)})
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}
