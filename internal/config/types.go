// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"runtime"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// AgentClaude starts the claude agent in the session's first tmux window.
	AgentClaude Agent = "claude"
	// AgentCodex starts the codex agent.
	AgentCodex Agent = "codex"
	// AgentOpencode starts the opencode agent.
	AgentOpencode Agent = "opencode"
	// AgentNone starts a plain shell with no agent.
	AgentNone Agent = "none"
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidAgent is returned when an Agent value is not recognized.
	ErrInvalidAgent = errors.New("invalid agent")
)

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not
	// recognized. It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// Agent specifies which AI agent a work session launches on attach.
	Agent string

	// InvalidAgentError is returned when an Agent value is not recognized.
	// It wraps ErrInvalidAgent for errors.Is() compatibility.
	InvalidAgentError struct {
		Value Agent
	}
)

func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (must be %q or %q)",
		e.Value, ContainerEngineDocker, ContainerEnginePodman)
}

func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Validate checks that the engine is one of the supported runtimes.
func (c ContainerEngine) Validate() error {
	switch c {
	case ContainerEngineDocker, ContainerEnginePodman:
		return nil
	}
	return &InvalidContainerEngineError{Value: c}
}

func (e *InvalidAgentError) Error() string {
	return fmt.Sprintf("invalid agent %q (must be one of %q, %q, %q, %q)",
		e.Value, AgentClaude, AgentCodex, AgentOpencode, AgentNone)
}

func (e *InvalidAgentError) Unwrap() error { return ErrInvalidAgent }

// Validate checks that the agent is one of the supported choices.
func (a Agent) Validate() error {
	switch a {
	case AgentClaude, AgentCodex, AgentOpencode, AgentNone:
		return nil
	}
	return &InvalidAgentError{Value: a}
}

// Config is the application configuration.
type Config struct {
	// ContainerEngine selects the container runtime.
	ContainerEngine ContainerEngine `mapstructure:"container_engine"`

	// StalenessThreshold is the commit-drift bound past which an image is
	// considered stale. An image exactly at the threshold is still fresh.
	StalenessThreshold int `mapstructure:"staleness_threshold"`

	// BaselinePackages is the tool set installed into every image regardless
	// of what the repository's build file requests.
	BaselinePackages []string `mapstructure:"baseline_packages"`

	// DefaultBaseImage is the OS image used when the repository's build file
	// does not name one.
	DefaultBaseImage string `mapstructure:"default_base_image"`

	// HostAddr is the address at which build and session containers reach the
	// host for git-over-SSH.
	HostAddr string `mapstructure:"host_addr"`

	// SSHKey is the private key forwarded to builds and mounted into sessions.
	SSHKey string `mapstructure:"ssh_key"`

	// DefaultAgent is launched in a session's first tmux window.
	DefaultAgent Agent `mapstructure:"default_agent"`

	// AnthropicKeyFile, when set, is mounted read-only into sessions at
	// /run/secrets/anthropic_key.
	AnthropicKeyFile string `mapstructure:"anthropic_key_file"`
}

// Validate checks constraints the CUE schema cannot express on decoded values.
func (c *Config) Validate() error {
	if err := c.ContainerEngine.Validate(); err != nil {
		return err
	}
	if err := c.DefaultAgent.Validate(); err != nil {
		return err
	}
	if c.StalenessThreshold < 0 {
		return fmt.Errorf("staleness_threshold must not be negative, got %d", c.StalenessThreshold)
	}
	return nil
}

// DefaultHostAddr returns the platform default for reaching the host from a
// container: Docker Desktop's magic hostname on macOS, the IPv6 loopback
// elsewhere (host networking makes the host directly reachable on Linux).
func DefaultHostAddr() string {
	if runtime.GOOS == "darwin" {
		return "host.docker.internal"
	}
	return "::1"
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine:    ContainerEngineDocker,
		StalenessThreshold: 50,
		BaselinePackages:   []string{"git", "tmux", "openssh-clients", "curl"},
		DefaultBaseImage:   "fedora:43",
		HostAddr:           DefaultHostAddr(),
		SSHKey:             "~/.ssh/id_rsa",
		DefaultAgent:       AgentClaude,
	}
}
