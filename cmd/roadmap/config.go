package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/roadmap/internal/config"
	"github.com/steveyegge/roadmap/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Show and change workspace settings",
	Long: `Settings come from two layers in .roadmap/: config.yaml (shared, committed) and
config.local.yaml (personal, git-ignored). Local values override shared ones key by key;
lists are replaced, not merged. ROADMAP_* environment variables override both, e.g.
ROADMAP_GRAPH_STRICT_REFERENCES=true.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := findWorkspace()
		if err != nil {
			return err
		}
		settings, err := ws.Settings()
		if err != nil {
			return err
		}
		layers := settings.Layers()
		if jsonOutput {
			outputJSON(cmd, map[string]any{
				"effective":   settings.AllSettings(),
				"shared_path": layers.SharedPath,
				"local_path":  layers.LocalPath,
			})
			return nil
		}
		out, err := yaml.Marshal(settings.AllSettings())
		if err != nil {
			return err
		}
		for _, p := range []string{layers.SharedPath, layers.LocalPath} {
			if p != "" {
				printf(cmd, "%s\n", ui.RenderMuted("# from "+p))
			}
		}
		printf(cmd, "%s", out)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := findWorkspace()
		if err != nil {
			return err
		}
		settings, err := ws.Settings()
		if err != nil {
			return err
		}
		value := settings.GetString(args[0])
		if jsonOutput {
			outputJSON(cmd, map[string]string{"key": args[0], "value": value})
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a setting into the shared or local layer",
	Long: `Write a setting into config.yaml, or config.local.yaml with --local. Comments and key
order in the file are kept. The result is checked against the settings schema and the
file is left untouched when it does not validate.`,
	Example: `  roadmap config set progress.velocity_window_days 21
  roadmap config set --local user.name "Ada Lovelace"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := findWorkspace()
		if err != nil {
			return err
		}
		local, _ := cmd.Flags().GetBool("local")
		path := ws.SharedConfigPath()
		if local {
			path = ws.LocalConfigPath()
		}
		if err := config.SetValidated(ws.Dir, path, args[0], args[1]); err != nil {
			return err
		}
		if jsonOutput {
			outputJSON(cmd, map[string]string{"key": args[0], "value": args[1], "path": path})
			return nil
		}
		printf(cmd, "%s Set %s in %s\n", ui.RenderPassIcon(), args[0], path)
		return nil
	},
}

func init() {
	configSetCmd.Flags().Bool("local", false, "Write to config.local.yaml instead of config.yaml")
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
