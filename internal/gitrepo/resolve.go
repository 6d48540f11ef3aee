// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"context"
	"slices"
)

// ParseRef splits a raw user-supplied ref into (remote, branch).
//
// An empty ref or the literal "HEAD" returns ("", "HEAD"): the caller defers
// to whatever the repository currently has checked out. A ref of the form
// "<prefix>/<rest>" is remote-qualified if and only if prefix names a
// configured remote; otherwise the whole string is a local branch name, which
// keeps slashed branch names like "team/feature-x" intact.
//
// The remote check is deliberately prefix-wins: a local branch literally named
// after a configured remote (e.g. branch "origin-backup/x" alongside remote
// "origin-backup") is read as remote-qualified. Documented behavior, not a bug.
func ParseRef(raw string, remotes []string) (remote, branch string) {
	if raw == "" || raw == "HEAD" {
		return "", "HEAD"
	}
	if prefix, rest, ok := splitFirst(raw, '/'); ok {
		if slices.Contains(remotes, prefix) {
			return prefix, rest
		}
	}
	return "", raw
}

func splitFirst(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// ParseRef splits raw against this repository's configured remotes.
func (r *Repo) ParseRef(ctx context.Context, raw string) (remote, branch string) {
	return ParseRef(raw, r.Remotes(ctx))
}

// FetchIfRemote parses raw and, when it is remote-qualified, fetches that one
// branch from that one remote so the subsequent commit resolution sees it.
func (r *Repo) FetchIfRemote(ctx context.Context, raw string) (remote, branch string, err error) {
	remote, branch = r.ParseRef(ctx, raw)
	if remote != "" {
		if err := r.FetchBranch(ctx, remote, branch); err != nil {
			return remote, branch, err
		}
	}
	return remote, branch, nil
}
