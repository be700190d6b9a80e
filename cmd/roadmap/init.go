package main

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/roadmap/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Create a .roadmap workspace in the repository root",
	Long: `Create a .roadmap workspace: issues/, milestones/, projects/ and archive/
directories, a templates/ directory for body overrides, the shared config.yaml and the
git-ignored config.local.yaml.

Running init again on an existing workspace fails unless --force is given. With --force
missing pieces are created and existing files are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := startDir()
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		user, _ := cmd.Flags().GetString("user")
		email, _ := cmd.Flags().GetString("email")
		force, _ := cmd.Flags().GetBool("force")
		if user == "" {
			user = gitConfig("user.name")
		}
		if email == "" {
			email = gitConfig("user.email")
		}

		res, err := workspace.Init(root, workspace.InitOptions{
			ProjectName: name,
			UserName:    user,
			UserEmail:   email,
			Force:       force,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(cmd, map[string]any{
				"dir":     res.Workspace.Dir,
				"project": res.Settings.GetString("project.name"),
				"created": res.Created,
			})
			return nil
		}
		printf(cmd, "Initialized roadmap workspace in %s\n", res.Workspace.Dir)
		for _, path := range res.Created {
			rel, err := filepath.Rel(res.Workspace.Root, path)
			if err != nil {
				rel = path
			}
			printf(cmd, "  created %s\n", rel)
		}
		return nil
	},
}

// gitConfig reads a git setting, or "" when git is missing or the key is unset.
func gitConfig(key string) string {
	out, err := exec.Command("git", "config", key).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func init() {
	initCmd.Flags().String("name", "", "Project name (default: directory name)")
	initCmd.Flags().String("user", "", "Your name, stored in config.local.yaml (default: git user.name)")
	initCmd.Flags().String("email", "", "Your email, stored in config.local.yaml (default: git user.email)")
	initCmd.Flags().Bool("force", false, "Complete an existing workspace without overwriting files")
	rootCmd.AddCommand(initCmd)
}
