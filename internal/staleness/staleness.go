// SPDX-License-Identifier: MPL-2.0

// Package staleness measures how far an image's recorded commit has drifted
// behind its originating branch and decides whether a session may proceed on
// the existing image.
package staleness

import (
	"context"

	"dkr-cli/internal/inventory"

	"github.com/charmbracelet/log"
)

// DefaultThreshold is the drift at which an image stops being fresh. An image
// exactly at the threshold is still fresh; one commit past it is stale.
const DefaultThreshold = 50

// Verdict is the outcome of a staleness evaluation.
type Verdict string

const (
	// Fresh means the image may be used as-is.
	Fresh Verdict = "fresh"
	// StaleContinue means the image drifted past the threshold but the user
	// chose to proceed on it anyway.
	StaleContinue Verdict = "stale-continue"
	// StaleUpdateRequested means the image drifted past the threshold and the
	// user asked for a refresh before starting.
	StaleUpdateRequested Verdict = "stale-update-requested"
	// Unverifiable means drift could not be measured (the branch history
	// query failed) and the user declined to proceed regardless.
	Unverifiable Verdict = "unverifiable"
)

// Validate reports whether v is one of the defined verdicts.
func (v Verdict) Validate() bool {
	switch v {
	case Fresh, StaleContinue, StaleUpdateRequested, Unverifiable:
		return true
	}
	return false
}

// RepoQuerier is the slice of repository behavior the evaluator needs.
type RepoQuerier interface {
	// RefExists reports whether the named ref resolves in the repository.
	RefExists(ctx context.Context, ref string) bool
	// CountCommitsBetween counts commits reachable from "to" but not "from".
	CountCommitsBetween(ctx context.Context, from, to string) (int, error)
}

// Result carries the verdict together with the measured drift where one was
// obtainable.
type Result struct {
	Verdict Verdict
	// Drift is the number of commits the image is behind its originating
	// branch. Only meaningful when Measured is true.
	Drift    int
	Measured bool
}

// Evaluator applies the drift threshold to an image record. The two callbacks
// let the command layer own all user interaction while the evaluation logic
// stays deterministic and testable.
type Evaluator struct {
	// Threshold is the exclusive drift bound. Zero means DefaultThreshold.
	Threshold int

	// ConfirmUnverifiable is consulted when drift cannot be measured. It
	// reports whether the session should proceed on the image anyway.
	ConfirmUnverifiable func(rec *inventory.ImageRecord, cause error) bool

	// WantUpdate is consulted when the image is stale. It reports whether the
	// user wants the image refreshed before starting.
	WantUpdate func(rec *inventory.ImageRecord, drift int) bool

	Logger *log.Logger
}

func (e *Evaluator) threshold() int {
	if e.Threshold > 0 {
		return e.Threshold
	}
	return DefaultThreshold
}

func (e *Evaluator) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// Evaluate measures how far rec has drifted behind its originating branch in
// repo and returns the resulting verdict.
//
// Images with incomplete metadata, and images whose originating ref no longer
// resolves (branch deleted, remote gone), are treated as fresh: there is
// nothing to measure against, and blocking the session would help no one.
func (e *Evaluator) Evaluate(ctx context.Context, repo RepoQuerier, rec *inventory.ImageRecord) Result {
	commit := rec.Commit()
	ref := rec.ComparisonRef()
	if commit == "" || ref == "" {
		e.logger().Debug("image lacks drift metadata, treating as fresh", "image", rec.Ref())
		return Result{Verdict: Fresh}
	}

	if !repo.RefExists(ctx, ref) {
		e.logger().Debug("originating ref no longer resolves, treating as fresh",
			"image", rec.Ref(), "ref", ref)
		return Result{Verdict: Fresh}
	}

	behind, err := repo.CountCommitsBetween(ctx, commit, ref)
	if err != nil {
		e.logger().Warn("could not measure drift", "image", rec.Ref(), "ref", ref, "err", err)
		if e.ConfirmUnverifiable != nil && !e.ConfirmUnverifiable(rec, err) {
			return Result{Verdict: Unverifiable}
		}
		// Proceed on the image without a measurement.
		return Result{Verdict: Fresh}
	}

	if behind <= e.threshold() {
		return Result{Verdict: Fresh, Drift: behind, Measured: true}
	}

	if e.WantUpdate != nil && e.WantUpdate(rec, behind) {
		return Result{Verdict: StaleUpdateRequested, Drift: behind, Measured: true}
	}
	return Result{Verdict: StaleContinue, Drift: behind, Measured: true}
}
