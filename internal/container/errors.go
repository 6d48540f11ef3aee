// SPDX-License-Identifier: MPL-2.0

package container

import "dkr-cli/internal/issue"

// buildImageError creates an actionable error for image build failures.
func buildImageError(engine string, opts BuildOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("build image")

	switch {
	case opts.Tag != "":
		ctx.WithResource(opts.Tag)
	case opts.Dockerfile != "":
		ctx.WithResource(opts.Dockerfile)
	}

	ctx.WithSuggestion("Check the [pre_clone]/[post_clone] sections of .dkr.conf for Dockerfile syntax errors")
	ctx.WithSuggestion("Verify the base image is pullable (try: " + engine + " pull <base-image>)")
	ctx.WithSuggestion("Confirm the SSH key is readable and authorized for local clone access")

	return ctx.Wrap(cause).BuildError()
}
