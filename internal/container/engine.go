// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
)

// Engine defines the container-engine operations dkr needs.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine is usable on this system.
	Available() bool
	// Version returns the engine version.
	Version(ctx context.Context) (string, error)

	// Build builds an image from a Dockerfile.
	Build(ctx context.Context, opts BuildOptions) error
	// Run runs a container to completion.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	// ListImageIDs returns the IDs of images carrying the given label key.
	ListImageIDs(ctx context.Context, labelKey string) ([]string, error)
	// InspectImages returns id/tags/labels for the given image IDs.
	InspectImages(ctx context.Context, ids []string) ([]InspectedImage, error)
}

// BuildOptions contains options for building an image.
type BuildOptions struct {
	// ContextDir is the build context directory.
	ContextDir string
	// Dockerfile is the path to the Dockerfile (absolute or relative to ContextDir).
	Dockerfile string
	// Tag is the image tag.
	Tag string
	// BuildArgs are build-time variables.
	BuildArgs map[string]string
	// Labels are attached to the resulting image.
	Labels map[string]string
	// SSHKey, when set, forwards the key to BuildKit as the default ssh agent
	// (--ssh default=<key>) so RUN --mount=type=ssh steps can clone over SSH.
	SSHKey string
	// HostNetwork runs build steps on the host network.
	HostNetwork bool
	// NoCache disables the build cache.
	NoCache bool
	// Stdout is where to write build output.
	Stdout io.Writer
	// Stderr is where to write build errors.
	Stderr io.Writer
}

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image reference to run.
	Image string
	// Command is the command passed to the entrypoint.
	Command []string
	// Env contains environment variables.
	Env map[string]string
	// Volumes are volume mounts in "host:container[:opts]" format.
	Volumes []string
	// Hostname sets the container hostname.
	Hostname string
	// HostNetwork attaches the container to the host network.
	HostNetwork bool
	// Remove removes the container after exit.
	Remove bool
	// Interactive keeps stdin open.
	Interactive bool
	// TTY allocates a pseudo-TTY.
	TTY bool
	// Stdin is the standard input.
	Stdin io.Reader
	// Stdout is where to write standard output.
	Stdout io.Writer
	// Stderr is where to write standard error.
	Stderr io.Writer
}

// RunResult contains the result of running a container.
type RunResult struct {
	// ExitCode is the container exit code.
	ExitCode int
	// Error contains any infrastructure error (not a non-zero exit).
	Error error
}

// InspectedImage is the slice of `inspect` output dkr cares about.
type InspectedImage struct {
	ID       string            `json:"Id"`
	RepoTags []string          `json:"RepoTags"`
	Config   InspectedMetadata `json:"Config"`
}

// InspectedMetadata holds the image config fields dkr reads.
type InspectedMetadata struct {
	Labels map[string]string `json:"Labels"`
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// ErrEngineNotAvailable is returned when a container engine is not available.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one is missing.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine, docker first.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
