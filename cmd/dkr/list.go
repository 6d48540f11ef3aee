// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"dkr-cli/internal/gitrepo"
	"dkr-cli/internal/inventory"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list-images [git_repo] [branch_from]",
	Short: "List dkr-managed container images",
	Long: `List every image dkr has built, newest first, with its recorded repo,
branch, commit, and creation time. Positional arguments narrow the listing
to one repository and optionally one branch.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repoFilter := ""
		branchFilter := ""
		if len(args) > 0 {
			repo, err := resolveRepo(ctx, args[0])
			if err != nil {
				return err
			}
			repoFilter = repo.Path()
			if len(args) > 1 {
				_, branchFilter = repo.ParseRef(ctx, args[1])
			}
		} else if len(args) > 1 {
			_, branchFilter = gitrepo.ParseRef(args[1], nil)
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}

		records := inventory.New(engine, logger).List(ctx, repoFilter, branchFilter)
		if len(records) == 0 {
			fmt.Println("No dkr images found.")
			return nil
		}

		printImageTable(records)
		return nil
	},
}

const listRowFormat = "%-30s %-20s %-15s %-12s %-24s %-8s %-19s"

func printImageTable(records []inventory.ImageRecord) {
	fmt.Println(tableHeaderStyle.Render(fmt.Sprintf(listRowFormat,
		"TAG", "REPO", "BRANCH", "COMMIT", "CREATED", "TYPE", "IMAGE ID")))

	for _, rec := range records {
		// Styling individual cells would break the fixed-width alignment
		// with ANSI escapes, so rows stay plain.
		fmt.Printf(listRowFormat+"\n",
			truncate(rec.DisplayTags(), 30),
			truncate(rec.RepoName(), 20),
			truncate(rec.Branch(), 15),
			truncate(rec.Commit(), 12),
			truncate(rec.CreatedAt(), 24),
			truncate(rec.Type(), 8),
			truncate(rec.ID, 19),
		)
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
