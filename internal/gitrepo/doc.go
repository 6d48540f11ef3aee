// SPDX-License-Identifier: MPL-2.0

// Package gitrepo is dkr's narrow interface to git. It wraps the git CLI with
// an injectable exec function (so tests run without a repository), resolves
// ambiguous user-supplied refs into (remote, branch, commit) triples, and
// provides a scoped checkout guard that restores the original ref on every
// exit path.
package gitrepo
