// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dkr-cli/internal/buildconf"
	"dkr-cli/internal/buildspec"
	"dkr-cli/internal/config"
	"dkr-cli/internal/container"
	"dkr-cli/internal/gitrepo"
	"dkr-cli/internal/inventory"
	"dkr-cli/internal/issue"
	"dkr-cli/internal/namegen"
	"dkr-cli/internal/staleness"

	"github.com/spf13/cobra"
)

var (
	startName         string
	startAgent        string
	startAnthropicKey string
)

var startCmd = &cobra.Command{
	Use:   "start-image [git_repo] [branch_from] [-- command...]",
	Short: "Start a container from a dkr image",
	Long: `Start a throwaway work session from the newest matching image. The session
gets a random adjective-noun working branch (or --name), the repo's configured
volume mounts, and the host SSH key mounted read-only.

Before starting, the image's recorded commit is compared against its branch;
images that drifted too far behind prompt for an update first.

Arguments after '--' are forwarded to the container entrypoint.`,
	Args: cobra.ArbitraryArgs,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startName, "name", "",
		"working branch name (default: random adjective-noun)")
	startCmd.Flags().StringVar(&startAgent, "agent", "",
		"AI agent to run in first tmux window: claude, codex, opencode, none")
	startCmd.Flags().StringVar(&startAnthropicKey, "anthropic-key", "",
		"path to file containing Anthropic API key (mounted read-only into container)")
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Arguments after "--" are forwarded to the entrypoint.
	containerArgs := []string{}
	positional := args
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional = args[:dash]
		containerArgs = args[dash:]
	}
	if len(positional) > 2 {
		return fmt.Errorf("expected at most 2 positional arguments, got %d", len(positional))
	}

	agent := appCfg.DefaultAgent
	if startAgent != "" {
		agent = config.Agent(startAgent)
		if err := agent.Validate(); err != nil {
			return err
		}
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	inv := inventory.New(engine, logger)

	// An explicit repo argument must be a real repository; without one the
	// newest image overall decides what we start.
	var repo *gitrepo.Repo
	repoFilter := ""
	if len(positional) > 0 {
		repo, err = resolveRepo(ctx, positional[0])
		if err != nil {
			return err
		}
		repoFilter = repo.Path()
	}

	branchFilter := ""
	if len(positional) > 1 {
		if repo != nil {
			_, branchFilter = repo.ParseRef(ctx, positional[1])
		} else {
			_, branchFilter = gitrepo.ParseRef(positional[1], nil)
		}
	}

	image := inv.Latest(ctx, repoFilter, branchFilter)
	if image == nil {
		scope := ""
		if repo != nil {
			scope = " for " + repo.Name()
		}
		if branchFilter != "" {
			scope += "/" + branchFilter
		}
		return issue.NewErrorContext().
			WithOperation("start session").
			WithSuggestion("Run 'dkr create-image' first to build an image").
			WithSuggestion("Use 'dkr list-images' to see what exists").
			Wrap(fmt.Errorf("no dkr image found%s", scope)).
			BuildError()
	}

	// Without an explicit repo argument, the image's own labels locate the
	// repository for the staleness check and volume config.
	if repo == nil && image.RepoPath() != "" {
		if r, openErr := gitrepo.Open(ctx, image.RepoPath()); openErr == nil {
			repo = r
		}
	}

	if repo != nil {
		image, err = checkStaleness(ctx, engine, inv, repo, image)
		if err != nil {
			return err
		}
	}

	conf := buildconf.Defaults()
	if repo != nil {
		if c, loadErr := buildconf.Load(repo.Path()); loadErr == nil {
			conf = c
		}
	}

	workName := startName
	if workName == "" {
		workName = namegen.Random()
	}

	volumes := append([]string{}, conf.Volumes...)
	if sshKey := config.ExpandUser(appCfg.SSHKey); fileReadable(sshKey) {
		volumes = append(volumes, sshKey+":/root/.ssh/id_rsa:ro")
	}

	anthropicKey := startAnthropicKey
	if anthropicKey == "" {
		anthropicKey = appCfg.AnthropicKeyFile
	}
	if anthropicKey != "" {
		keyPath, absErr := filepath.Abs(config.ExpandUser(anthropicKey))
		if absErr != nil {
			return fmt.Errorf("failed to resolve Anthropic key path: %w", absErr)
		}
		if !fileReadable(keyPath) {
			return fmt.Errorf("Anthropic API key file not found: %s", keyPath)
		}
		volumes = append(volumes, keyPath+":/run/secrets/anthropic_key:ro")
	}

	interactive := stdinIsTerminal()

	fmt.Printf("Starting container from %s as %s\n",
		RefStyle.Render(image.DisplayTags()), RefStyle.Render(workName))

	result, err := engine.Run(ctx, container.RunOptions{
		Image:   image.Ref(),
		Command: containerArgs,
		Env: map[string]string{
			"DKR_WORK_BRANCH": workName,
			"DKR_AGENT":       string(agent),
		},
		Volumes:     volumes,
		Hostname:    workName,
		HostNetwork: true,
		Remove:      true,
		Interactive: interactive,
		TTY:         interactive,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}

// checkStaleness measures the image's drift and, when the user asks for a
// refresh, rebuilds and re-queries the inventory.
func checkStaleness(ctx context.Context, engine container.Engine, inv *inventory.Inventory,
	repo *gitrepo.Repo, image *inventory.ImageRecord) (*inventory.ImageRecord, error) {
	ev := &staleness.Evaluator{
		Threshold: appCfg.StalenessThreshold,
		Logger:    logger,
		ConfirmUnverifiable: func(rec *inventory.ImageRecord, cause error) bool {
			fmt.Println(WarningStyle.Render("Warning: ") +
				fmt.Sprintf("cannot verify image %s against %s.", rec.DisplayTags(), rec.ComparisonRef()))
			fmt.Println("The image commit may have been force-pushed away. Consider running create-image.")
			return promptYesNo("Start anyway? [y/N] ")
		},
		WantUpdate: func(rec *inventory.ImageRecord, drift int) bool {
			fmt.Println(WarningStyle.Render("Warning: ") +
				fmt.Sprintf("image %s is %d commits behind %s.", rec.DisplayTags(), drift, rec.ComparisonRef()))
			return promptYesNo("Do you want to update the image before starting? [y/N] ")
		},
	}

	res := ev.Evaluate(ctx, repo, image)
	if res.Verdict != staleness.StaleUpdateRequested {
		// Fresh, stale-but-continue, and unverifiable all proceed on the
		// existing image.
		return image, nil
	}

	err := runBuild(ctx, engine, buildRequest{
		Kind:    buildspec.KindUpdate,
		RepoArg: repo.Path(),
		RefArg:  image.ComparisonRef(),
	})
	if err != nil {
		return nil, err
	}

	updated := inv.Latest(ctx, repo.Path(), image.Branch())
	if updated == nil {
		return nil, fmt.Errorf("image disappeared after update; run 'dkr list-images'")
	}
	return updated, nil
}

// promptYesNo reads a y/n answer from stdin; anything but yes is no.
func promptYesNo(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func fileReadable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
