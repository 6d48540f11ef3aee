// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"dkr-cli/internal/buildspec"

	"github.com/spf13/cobra"
)

var updateSSHKey string

var updateCmd = &cobra.Command{
	Use:   "update-image [git_repo] [branch_from]",
	Short: "Update an existing image with git fetch + rebase",
	Long: `Layer an incremental refresh on the newest existing image for the given
repo and branch: fetch the branch from the host and rebase the image's
checkout onto it. Fails when no prior image exists.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := buildRequest{Kind: buildspec.KindUpdate, SSHKey: updateSSHKey}
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
	updateCmd.Flags().StringVar(&updateSSHKey, "ssh-key", "",
		"SSH private key path (default: ~/.ssh/id_rsa)")
}
