// SPDX-License-Identifier: MPL-2.0

package issue

import "github.com/charmbracelet/glamour"

// Id identifies a long-form issue in the catalog.
type Id int

const (
	NotAGitRepoId Id = iota + 1
	UnresolvableRefId
	NoPriorImageId
	EngineNotFoundId
)

type MarkdownMsg string

// Issue is a long-form, rendered explanation for a common dead end. Unlike
// ActionableError, which decorates a failure in flight, an Issue is a
// standalone page shown when a whole command cannot proceed.
type Issue struct {
	id    Id
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the issue markdown with the given glamour style path.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	notAGitRepoIssue = &Issue{
		id: NotAGitRepoId,
		mdMsg: `
# Not a git repository

dkr builds images from clones of a local git repository, but the path you
gave (or the current directory) is not one.

## Things you can try:
- Point dkr at an actual repository:
~~~
$ dkr create-image /path/to/repo
~~~
- Or run dkr from inside the repository:
~~~
$ cd /path/to/repo && dkr create-image
~~~`,
	}

	unresolvableRefIssue = &Issue{
		id: UnresolvableRefId,
		mdMsg: `
# Reference could not be resolved

The branch or ref you named does not resolve to a commit in this repository.

## Things you can try:
- Check the spelling against what the repository actually has:
~~~
$ git branch --all
~~~
- For a remote branch, make sure the remote name matches ('origin/main'
  splits on the first slash only when 'origin' is a configured remote).`,
	}

	noPriorImageIssue = &Issue{
		id: NoPriorImageId,
		mdMsg: `
# No existing image for this repo/branch

'dkr update-image' layers a fast refresh on top of a previously built image,
so it needs one to exist first.

## Things you can try:
- Build a base image for the branch:
~~~
$ dkr create-image [repo] [branch]
~~~
- List what dkr has already built:
~~~
$ dkr list-images
~~~`,
	}

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# No container engine found

dkr needs docker or podman on PATH to build and run images.

## Things you can try:
- Install Docker or Podman and make sure the daemon/socket is running.
- Select an engine explicitly in your config file:
~~~
container_engine: "podman"
~~~`,
	}

	catalog = map[Id]*Issue{
		NotAGitRepoId:     notAGitRepoIssue,
		UnresolvableRefId: unresolvableRefIssue,
		NoPriorImageId:    noPriorImageIssue,
		EngineNotFoundId:  engineNotFoundIssue,
	}
)

// Lookup returns the catalog issue for id, or nil if none is registered.
func Lookup(id Id) *Issue {
	return catalog[id]
}
