// SPDX-License-Identifier: MPL-2.0

// Package buildspec synthesizes the instruction sequence (Dockerfile text)
// and build-argument mapping for an image build. It is a pure function of its
// inputs: no I/O, no clock reads, no subprocesses, which keeps it testable
// without any container runtime present.
package buildspec

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"dkr-cli/internal/buildconf"
	"dkr-cli/internal/inventory"

	"mvdan.cc/sh/v3/syntax"
)

// Kind selects which instruction sequence to synthesize.
type Kind string

const (
	// KindCreate establishes a fresh environment from a base OS image.
	KindCreate Kind = "create"
	// KindUpdate layers an incremental refresh on a prior dkr image.
	KindUpdate Kind = "update"
)

// typeLabel maps a Kind to the dkr.type label value recorded on the image.
func (k Kind) typeLabel() string {
	if k == KindUpdate {
		return inventory.TypeUpdate
	}
	return inventory.TypeBase
}

// Inputs carries everything Synthesize needs. All fields are plain values;
// the caller resolves refs, reads config, and queries the version endpoint
// before synthesis.
type Inputs struct {
	Conf *buildconf.BuildConfig

	RepoPath   string // absolute repository path
	RepoName   string // repository directory name
	Branch     string // branch checked out for the build
	BranchFrom string // originating ref string as the user gave it
	Commit     string // resolved full commit hash
	GitUser    string // identity for the clone-over-SSH step
	HostAddr   string // address at which the container reaches the host
	AgentVer   string // resolved agent runtime version ("latest" on lookup failure)

	// BaselinePackages is the fixed tool set every build must include.
	BaselinePackages []string

	// BaseImageRef is the prior image an update layers on. KindUpdate only.
	BaseImageRef string

	// InstallScript and Entrypoint are the support-script file names inside
	// the build context (transient files the orchestrator writes).
	InstallScript string
	Entrypoint    string

	// CreatedAt is recorded in the dkr.created_at label. The caller supplies
	// it so synthesis stays deterministic.
	CreatedAt time.Time
}

// BuildSpec is the synthesized output: ordered instruction text, the build
// argument mapping, the label mapping, and the canonical tag.
type BuildSpec struct {
	Dockerfile string
	Args       map[string]string
	Labels     map[string]string
	Tag        string
}

// MergePackages merges the required baseline with user-requested extras.
// Baseline packages come first in their fixed order; extras follow in file
// order, skipping anything already in the baseline; duplicates within extras
// collapse to first occurrence. Merging is idempotent.
func MergePackages(baseline, extras []string) []string {
	merged := make([]string, 0, len(baseline)+len(extras))
	seen := make(map[string]bool, len(baseline)+len(extras))

	for _, p := range baseline {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	for _, p := range extras {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	return merged
}

var tagUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeTag replaces characters not valid in an image tag with "-".
func SanitizeTag(name string) string {
	return tagUnsafe.ReplaceAllString(name, "-")
}

// ImageTag builds the canonical tag for a repo+branch pair.
func ImageTag(repoName, branch string) string {
	return fmt.Sprintf("dkr:%s-%s", SanitizeTag(repoName), SanitizeTag(branch))
}

// Synthesize produces the complete build spec for the given kind.
func Synthesize(kind Kind, in Inputs) *BuildSpec {
	spec := &BuildSpec{
		Tag:    ImageTag(in.RepoName, in.Branch),
		Labels: synthLabels(kind, in),
		Args: map[string]string{
			"REPO_PATH":     in.RepoPath,
			"BRANCH":        in.Branch,
			"GIT_USER":      in.GitUser,
			"HOST_ADDR":     in.HostAddr,
			"AGENT_VERSION": in.AgentVer,
		},
	}

	if kind == KindUpdate {
		spec.Args["BASE_IMAGE"] = in.BaseImageRef
		spec.Dockerfile = updateDockerfile(in)
	} else {
		spec.Dockerfile = createDockerfile(in)
	}

	return spec
}

func synthLabels(kind Kind, in Inputs) map[string]string {
	branchFrom := in.BranchFrom
	if branchFrom == "" {
		branchFrom = in.Branch
	}
	return map[string]string{
		inventory.LabelRepoPath:   in.RepoPath,
		inventory.LabelRepoName:   in.RepoName,
		inventory.LabelBranch:     in.Branch,
		inventory.LabelBranchFrom: branchFrom,
		inventory.LabelCommit:     in.Commit,
		inventory.LabelCreatedAt:  in.CreatedAt.UTC().Format(time.RFC3339),
		inventory.LabelType:       kind.typeLabel(),
	}
}

// quoteWord shell-quotes a value for splicing into a RUN line. Values that
// cannot be represented (control bytes) fall back to the raw string; the
// engine will surface the failure at build time.
func quoteWord(w string) string {
	quoted, err := syntax.Quote(w, syntax.LangBash)
	if err != nil {
		return w
	}
	return quoted
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = quoteWord(w)
	}
	return strings.Join(quoted, " ")
}

// createDockerfile generates the instruction sequence for a fresh build:
// base image, merged packages, agent runtime, host trust material, pre-clone
// splice, clone, checkout, post-clone splice, entrypoint.
func createDockerfile(in Inputs) string {
	var sb strings.Builder

	packages := MergePackages(in.BaselinePackages, in.Conf.Packages)

	sb.WriteString("# syntax=docker/dockerfile:1\n")
	fmt.Fprintf(&sb, "FROM %s\n\n", in.Conf.BaseImage)

	sb.WriteString("ENV LANG=C.UTF-8\n\n")

	fmt.Fprintf(&sb, "COPY %s /tmp/install-packages.sh\n", in.InstallScript)
	sb.WriteString("RUN chmod +x /tmp/install-packages.sh && \\\n")
	fmt.Fprintf(&sb, "    /tmp/install-packages.sh %s && \\\n", quoteAll(packages))
	sb.WriteString("    rm /tmp/install-packages.sh\n\n")

	sb.WriteString("ARG AGENT_VERSION=latest\n")
	sb.WriteString("RUN curl -fsSL https://claude.ai/install.sh | bash\n")
	sb.WriteString("ENV PATH=/root/.local/bin:$PATH\n\n")

	sb.WriteString("ARG REPO_PATH\n")
	sb.WriteString("ARG BRANCH\n")
	sb.WriteString("ARG GIT_USER\n")
	sb.WriteString("ARG HOST_ADDR=host.docker.internal\n\n")

	sb.WriteString("RUN mkdir -p /root/.ssh && \\\n")
	sb.WriteString("    ssh-keyscan -H ${HOST_ADDR} >> /root/.ssh/known_hosts 2>/dev/null || true\n\n")

	if in.Conf.PreClone != "" {
		sb.WriteString(in.Conf.PreClone)
		sb.WriteString("\n\n")
	}

	sb.WriteString("RUN --mount=type=ssh \\\n")
	sb.WriteString("    git clone ${GIT_USER}@${HOST_ADDR}:${REPO_PATH} /workspace\n\n")

	sb.WriteString("RUN cd /workspace && git remote rename origin host && git checkout ${BRANCH}\n\n")

	sb.WriteString("ENV DKR_BRANCH=${BRANCH}\n\n")

	if in.Conf.PostClone != "" {
		sb.WriteString(in.Conf.PostClone)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "COPY %s /entrypoint.sh\n", in.Entrypoint)
	sb.WriteString("RUN chmod +x /entrypoint.sh\n\n")

	sb.WriteString("WORKDIR /workspace\n")
	sb.WriteString("ENTRYPOINT [\"/entrypoint.sh\"]\n")

	return sb.String()
}

// updateDockerfile generates the incremental refresh sequence: start from the
// prior image and re-synchronize the existing checkout. Pre-clone hooks are a
// create-time-only concept since the filesystem already exists, so only the
// post-clone fragment is spliced.
func updateDockerfile(in Inputs) string {
	var sb strings.Builder

	sb.WriteString("# syntax=docker/dockerfile:1\n")
	sb.WriteString("ARG BASE_IMAGE=scratch\n")
	sb.WriteString("FROM ${BASE_IMAGE}\n\n")

	sb.WriteString("ARG GIT_USER\n")
	sb.WriteString("ARG REPO_PATH\n")
	sb.WriteString("ARG BRANCH\n")
	sb.WriteString("ARG HOST_ADDR=host.docker.internal\n\n")

	sb.WriteString("RUN --mount=type=ssh \\\n")
	sb.WriteString("    cd /workspace && \\\n")
	sb.WriteString("    git fetch ${GIT_USER}@${HOST_ADDR}:${REPO_PATH} ${BRANCH} && \\\n")
	sb.WriteString("    git rebase FETCH_HEAD\n\n")

	if in.Conf.PostClone != "" {
		sb.WriteString(in.Conf.PostClone)
		sb.WriteString("\n\n")
	}

	return sb.String()
}
