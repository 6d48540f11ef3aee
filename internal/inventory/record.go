// SPDX-License-Identifier: MPL-2.0

// Package inventory turns the opaque images in the external store into a
// queryable, branch-addressed inventory. Membership is decided purely by
// labels: an image without dkr's repo-name label is not ours and is invisible
// to every query.
package inventory

import "dkr-cli/internal/container"

// Label keys attached to every image dkr builds.
const (
	LabelRepoPath   = "dkr.repo_path"   // absolute source repository path
	LabelRepoName   = "dkr.repo_name"   // repository directory name (membership marker)
	LabelBranch     = "dkr.branch"      // branch actually checked out
	LabelBranchFrom = "dkr.branch_from" // originating ref string (may be remote-qualified)
	LabelCommit     = "dkr.commit"      // resolved full commit hash
	LabelCreatedAt  = "dkr.created_at"  // RFC3339 UTC creation timestamp
	LabelType       = "dkr.type"        // "base" or "update"
)

// Image types recorded in LabelType.
const (
	TypeBase   = "base"
	TypeUpdate = "update"
)

// ImageRecord is a materialized view of one store-managed image. Records are
// read-only: an update layers a new image on top of a prior one, it never
// mutates an existing record.
type ImageRecord struct {
	// ID is the store's image identifier.
	ID string
	// Tags are the image's current tags; empty when a newer build took the tag.
	Tags []string
	// Labels is the full label mapping recorded at build time.
	Labels map[string]string
}

func newRecord(img container.InspectedImage) ImageRecord {
	return ImageRecord{
		ID:     img.ID,
		Tags:   img.RepoTags,
		Labels: img.Config.Labels,
	}
}

// RepoPath returns the recorded source repository path.
func (r ImageRecord) RepoPath() string { return r.Labels[LabelRepoPath] }

// RepoName returns the recorded repository name.
func (r ImageRecord) RepoName() string { return r.Labels[LabelRepoName] }

// Branch returns the branch that was checked out at build time.
func (r ImageRecord) Branch() string { return r.Labels[LabelBranch] }

// BranchFrom returns the originating ref string, which preserves
// remote-qualification (e.g. "origin/main" while Branch is "main").
func (r ImageRecord) BranchFrom() string { return r.Labels[LabelBranchFrom] }

// Commit returns the resolved commit hash the image was built from.
func (r ImageRecord) Commit() string { return r.Labels[LabelCommit] }

// CreatedAt returns the RFC3339 UTC creation timestamp label.
func (r ImageRecord) CreatedAt() string { return r.Labels[LabelCreatedAt] }

// Type returns the image kind: "base" for fresh builds, "update" for
// incremental refreshes.
func (r ImageRecord) Type() string { return r.Labels[LabelType] }

// Ref returns the preferred way to address this image: its first tag, or the
// raw ID when every tag has been taken over by a newer build.
func (r ImageRecord) Ref() string {
	if len(r.Tags) > 0 {
		return r.Tags[0]
	}
	return r.ID
}

// DisplayTags returns the tags joined for display, or a placeholder when the
// image has been untagged by a newer build.
func (r ImageRecord) DisplayTags() string {
	if len(r.Tags) == 0 {
		return "<none>"
	}
	s := r.Tags[0]
	for _, t := range r.Tags[1:] {
		s += ", " + t
	}
	return s
}

// ComparisonRef returns the ref to measure staleness against, preferring the
// originating ref over the plain branch name since the former preserves
// remote-qualification.
func (r ImageRecord) ComparisonRef() string {
	if ref := r.BranchFrom(); ref != "" {
		return ref
	}
	return r.Branch()
}
