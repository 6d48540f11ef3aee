// SPDX-License-Identifier: MPL-2.0

// Package container is dkr's narrow interface to the image store. It drives
// docker or podman through their CLIs: building labeled images with BuildKit
// SSH forwarding, running containers, and querying the label-addressed image
// inventory via list/inspect.
package container
