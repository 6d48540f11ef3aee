// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrNotARepo is returned when a path is not recognized by git.
	ErrNotARepo = errors.New("not a git repository")

	// ErrUnresolvableRef is returned when a ref does not resolve to a commit.
	ErrUnresolvableRef = errors.New("unresolvable ref")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Repo.
	Option func(*Repo)

	// Repo is a handle to a local git repository. All operations shell out to
	// the git binary; the repository path is passed via -C on every call so no
	// working-directory state is carried between invocations.
	Repo struct {
		path        string
		gitBinary   string
		execCommand ExecCommandFunc
	}
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(r *Repo) {
		r.execCommand = fn
	}
}

// WithGitBinary overrides the git binary path.
func WithGitBinary(path string) Option {
	return func(r *Repo) {
		r.gitBinary = path
	}
}

// Open resolves path to an absolute path and verifies it is a git repository.
// An empty path means the current directory. Returns ErrNotARepo (wrapped)
// when git does not recognize the path.
func Open(ctx context.Context, path string, opts ...Option) (*Repo, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve repository path %q: %w", path, err)
	}

	r := &Repo{
		path:        abs,
		gitBinary:   "git",
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := r.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepo, abs)
	}
	return r, nil
}

// Path returns the absolute repository path.
func (r *Repo) Path() string {
	return r.path
}

// Name returns the repository directory name.
func (r *Repo) Name() string {
	return filepath.Base(r.path)
}

// run executes a git command in the repository and returns trimmed stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", r.path}, args...)
	cmd := r.execCommand(ctx, r.gitBinary, full...)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(errOut.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Remotes returns the configured remote names.
func (r *Repo) Remotes(ctx context.Context) []string {
	out, err := r.run(ctx, "remote")
	if err != nil || out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// CurrentRef returns the checked-out branch name, or the commit hash when
// HEAD is detached.
func (r *Repo) CurrentRef(ctx context.Context) (string, error) {
	ref, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if ref == "HEAD" {
		return r.run(ctx, "rev-parse", "HEAD")
	}
	return ref, nil
}

// ResolveCommit resolves ref to a full commit hash.
// Returns ErrUnresolvableRef (wrapped) when the name does not exist.
func (r *Repo) ResolveCommit(ctx context.Context, ref string) (string, error) {
	out, err := r.run(ctx, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnresolvableRef, ref)
	}
	return out, nil
}

// RefExists reports whether ref resolves in the local repository.
// This is a non-fatal query; any git failure reads as "does not exist".
func (r *Repo) RefExists(ctx context.Context, ref string) bool {
	out, err := r.run(ctx, "rev-parse", "--verify", ref)
	return err == nil && out != ""
}

// FetchBranch fetches exactly one branch from one named remote. Fetching a
// single branch keeps the transfer cheap on repositories with deep history.
func (r *Repo) FetchBranch(ctx context.Context, remote, branch string) error {
	if _, err := r.run(ctx, "fetch", remote, branch); err != nil {
		return fmt.Errorf("fetch %s from %s: %w", branch, remote, err)
	}
	return nil
}

// CountCommitsBetween counts commits reachable from ref "to" but not from
// ref "from" (the drift of "to" past "from"). The count fails when "from" is
// no longer an ancestor-comparable point, e.g. after a history rewrite.
func (r *Repo) CountCommitsBetween(ctx context.Context, from, to string) (int, error) {
	out, err := r.run(ctx, "rev-list", "--count", from+".."+to)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count %q: %w", out, err)
	}
	return n, nil
}

// Checkout checks out the named ref in the working tree.
func (r *Repo) Checkout(ctx context.Context, ref string) error {
	if _, err := r.run(ctx, "checkout", ref); err != nil {
		return fmt.Errorf("checkout %s: %w", ref, err)
	}
	return nil
}
