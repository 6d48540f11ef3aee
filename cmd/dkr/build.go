// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"dkr-cli/internal/agentver"
	"dkr-cli/internal/buildconf"
	"dkr-cli/internal/buildspec"
	"dkr-cli/internal/config"
	"dkr-cli/internal/container"
	"dkr-cli/internal/gitrepo"
	"dkr-cli/internal/inventory"
	"dkr-cli/internal/issue"
	"dkr-cli/internal/namegen"
)

//go:embed scripts/entrypoint.sh
var entrypointScript []byte

//go:embed scripts/install-packages.sh
var installPackagesScript []byte

const (
	buildMaxAttempts = 3
	buildBaseBackoff = 2 * time.Second
)

// buildRequest carries the user-level inputs shared by create-image and
// update-image.
type buildRequest struct {
	Kind    buildspec.Kind
	RepoArg string // positional git repo path; empty means cwd
	RefArg  string // positional branch/ref; empty means HEAD
	SSHKey  string // --ssh-key flag value; empty means config default
}

// resolveRepo opens the repository named by arg, defaulting to the working
// directory, with the path normalized to absolute.
func resolveRepo(ctx context.Context, arg string) (*gitrepo.Repo, error) {
	path := arg
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	repo, err := gitrepo.Open(ctx, abs)
	if errors.Is(err, gitrepo.ErrNotARepo) {
		renderIssue(issue.NotAGitRepoId)
	}
	return repo, err
}

// resolveSSHKey expands and validates the key path used for the build's
// git-over-SSH clone.
func resolveSSHKey(flagValue string) (string, error) {
	raw := flagValue
	if raw == "" {
		raw = appCfg.SSHKey
	}
	key, err := filepath.Abs(config.ExpandUser(raw))
	if err != nil {
		return "", fmt.Errorf("failed to resolve SSH key path %s: %w", raw, err)
	}
	if _, err := os.Stat(key); err != nil {
		return "", issue.NewErrorContext().
			WithOperation("resolve SSH key").
			WithResource(key).
			WithSuggestion("Generate a key with 'ssh-keygen' or point --ssh-key at an existing one").
			WithSuggestion("The key is only used to clone the local repo into the image").
			Wrap(fmt.Errorf("SSH key not found: %s", key)).
			BuildError()
	}
	return key, nil
}

// gitUser returns the identity used for the in-image clone over SSH.
func gitUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// runBuild is the shared build pipeline: resolve the reference, scope a
// checkout, synthesize the build spec, write the transient context files, and
// drive the engine. Transient files and the original checkout are restored
// even when the build fails.
func runBuild(ctx context.Context, engine container.Engine, req buildRequest) error {
	repo, err := resolveRepo(ctx, req.RepoArg)
	if err != nil {
		return err
	}

	branchFrom := req.RefArg
	if branchFrom == "" {
		branchFrom, err = repo.CurrentRef(ctx)
		if err != nil {
			return err
		}
	}

	remote, branch, err := repo.FetchIfRemote(ctx, branchFrom)
	if err != nil {
		return err
	}

	commit, err := repo.ResolveCommit(ctx, branchFrom)
	if err != nil {
		if errors.Is(err, gitrepo.ErrUnresolvableRef) {
			renderIssue(issue.UnresolvableRefId)
		}
		return err
	}

	// A remote-qualified ref checks out the bare branch name; anything else
	// checks out exactly what the user named.
	checkoutBranch := branchFrom
	if remote != "" {
		checkoutBranch = branch
	}

	sshKey, err := resolveSSHKey(req.SSHKey)
	if err != nil {
		return err
	}

	// An update layers on the newest prior image for this repo+branch.
	baseRef := ""
	if req.Kind == buildspec.KindUpdate {
		inv := inventory.New(engine, logger)
		base := inv.Latest(ctx, repo.Path(), checkoutBranch)
		if base == nil {
			renderIssue(issue.NoPriorImageId)
			return issue.NewErrorContext().
				WithOperation("update image").
				WithResource(fmt.Sprintf("%s/%s", repo.Name(), checkoutBranch)).
				WithSuggestion("Run 'dkr create-image' first to build a base image").
				WithSuggestion("Use 'dkr list-images' to see what exists").
				Wrap(fmt.Errorf("no existing image found for %s/%s", repo.Name(), checkoutBranch)).
				BuildError()
		}
		baseRef = base.Ref()
	}

	scope, err := repo.EnterCheckout(ctx, checkoutBranch)
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := scope.Restore(context.WithoutCancel(ctx)); restoreErr != nil {
			logger.Warn("failed to restore original checkout",
				"ref", scope.OriginalRef(), "err", restoreErr)
		}
	}()

	conf, err := buildconf.Load(repo.Path())
	if err != nil {
		return err
	}
	if conf.BaseImage == buildconf.DefaultBaseImage && appCfg.DefaultBaseImage != "" {
		conf.BaseImage = appCfg.DefaultBaseImage
	}

	agentVer := agentver.NewClient(agentver.WithLogger(logger)).LatestVersion(ctx)

	// Transient context files carry a unique suffix so concurrent builds in
	// the same repo never collide.
	id := namegen.ShortID()
	dockerfileName := ".dkr-Dockerfile." + id
	entrypointName := ".dkr-entrypoint." + id + ".sh"
	installName := ".dkr-install-packages." + id + ".sh"

	spec := buildspec.Synthesize(req.Kind, buildspec.Inputs{
		Conf:             conf,
		RepoPath:         repo.Path(),
		RepoName:         repo.Name(),
		Branch:           checkoutBranch,
		BranchFrom:       branchFrom,
		Commit:           commit,
		GitUser:          gitUser(),
		HostAddr:         appCfg.HostAddr,
		AgentVer:         agentVer,
		BaselinePackages: appCfg.BaselinePackages,
		BaseImageRef:     baseRef,
		InstallScript:    installName,
		Entrypoint:       entrypointName,
		CreatedAt:        time.Now(),
	})

	transient := map[string][]byte{
		dockerfileName: []byte(spec.Dockerfile),
		entrypointName: entrypointScript,
		installName:    installPackagesScript,
	}
	for name, content := range transient {
		path := filepath.Join(repo.Path(), name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("failed to write build context file %s: %w", name, err)
		}
		defer os.Remove(path)
	}

	verb := "Building"
	if req.Kind == buildspec.KindUpdate {
		verb = fmt.Sprintf("Updating from %s ->", RefStyle.Render(baseRef))
	}
	fmt.Printf("%s %s @ %s (%s), image %s (agent %s)\n",
		verb, repo.Path(), RefStyle.Render(branchFrom), shortCommit(commit),
		RefStyle.Render(spec.Tag), agentVer)

	buildOpts := container.BuildOptions{
		ContextDir:  repo.Path(),
		Dockerfile:  filepath.Join(repo.Path(), dockerfileName),
		Tag:         spec.Tag,
		BuildArgs:   spec.Args,
		Labels:      spec.Labels,
		SSHKey:      sshKey,
		HostNetwork: true,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}

	err = container.RetryWithBackoff(ctx, buildMaxAttempts, buildBaseBackoff,
		func(attempt int) (bool, error) {
			if attempt > 0 {
				logger.Warn("retrying build", "attempt", attempt+1, "max", buildMaxAttempts)
			}
			buildErr := engine.Build(ctx, buildOpts)
			return container.IsTransientError(buildErr), buildErr
		})
	if err != nil {
		return err
	}

	if req.Kind == buildspec.KindUpdate {
		fmt.Println(SuccessStyle.Render("Image updated: ") + spec.Tag)
	} else {
		fmt.Println(SuccessStyle.Render("Image built: ") + spec.Tag)
	}
	return nil
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
