// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"context"
	"sort"

	"dkr-cli/internal/container"

	"github.com/charmbracelet/log"
)

// Inventory queries the image store for dkr-managed images.
//
// Every store failure degrades to "no images found": an unreachable daemon or
// malformed inspect output must never block a fresh build, only hide history.
type Inventory struct {
	engine container.Engine
	logger *log.Logger
}

// New creates an Inventory over the given engine.
func New(engine container.Engine, logger *log.Logger) *Inventory {
	if logger == nil {
		logger = log.Default()
	}
	return &Inventory{engine: engine, logger: logger}
}

// List returns dkr-managed images, newest first, optionally filtered.
//
// filterRepo, when non-empty, must equal the recorded repository path exactly.
// filterBranch, when non-empty, matches either the checked-out branch label or
// the originating-ref label, so "main" and "origin/main" both find an image
// built from origin/main.
func (inv *Inventory) List(ctx context.Context, filterRepo, filterBranch string) []ImageRecord {
	ids, err := inv.engine.ListImageIDs(ctx, LabelRepoName)
	if err != nil {
		inv.logger.Debug("image store query failed, treating as empty inventory", "err", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}

	images, err := inv.engine.InspectImages(ctx, ids)
	if err != nil {
		inv.logger.Debug("image inspection failed, treating as empty inventory", "err", err)
		return nil
	}

	var records []ImageRecord
	for _, img := range images {
		rec := newRecord(img)
		if rec.RepoName() == "" {
			// Not managed by dkr.
			continue
		}
		if filterRepo != "" && rec.RepoPath() != filterRepo {
			continue
		}
		if filterBranch != "" && filterBranch != rec.Branch() && filterBranch != rec.BranchFrom() {
			continue
		}
		records = append(records, rec)
	}

	// Creation timestamps are fixed-width RFC3339 UTC, so lexicographic
	// comparison orders them correctly.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt() > records[j].CreatedAt()
	})

	return records
}

// Latest returns the most recent matching image, or nil when none exists.
func (inv *Inventory) Latest(ctx context.Context, filterRepo, filterBranch string) *ImageRecord {
	records := inv.List(ctx, filterRepo, filterBranch)
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}
