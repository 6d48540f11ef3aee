// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"dkr-cli/internal/buildspec"

	"github.com/spf13/cobra"
)

var createSSHKey string

var createCmd = &cobra.Command{
	Use:   "create-image [git_repo] [branch_from]",
	Short: "Create a new container image with a git repo clone",
	Long: `Build a fresh branch-scoped image: install the baseline and repo-requested
packages, install the agent runtime, clone the repository over SSH from the
host, and check out the requested branch.

The repo path defaults to the current directory and the branch defaults to
whatever HEAD points at. A remote-qualified ref like 'origin/main' is fetched
first and checks out the bare branch name.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := buildRequest{Kind: buildspec.KindCreate, SSHKey: createSSHKey}
		if len(args) > 0 {
			req.RepoArg = args[0]
		}
		if len(args) > 1 {
			req.RefArg = args[1]
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}
		return runBuild(cmd.Context(), engine, req)
	},
}

func init() {
	createCmd.Flags().StringVar(&createSSHKey, "ssh-key", "",
		"SSH private key path (default: ~/.ssh/id_rsa)")
}
