// SPDX-License-Identifier: MPL-2.0

package staleness

import (
	"context"
	"errors"
	"testing"

	"dkr-cli/internal/inventory"
)

type fakeRepo struct {
	refExists bool
	behind    int
	countErr  error
}

func (f *fakeRepo) RefExists(context.Context, string) bool { return f.refExists }

func (f *fakeRepo) CountCommitsBetween(context.Context, string, string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.behind, nil
}

func record(commit, branchFrom string) *inventory.ImageRecord {
	labels := map[string]string{}
	if commit != "" {
		labels[inventory.LabelCommit] = commit
	}
	if branchFrom != "" {
		labels[inventory.LabelBranchFrom] = branchFrom
	}
	return &inventory.ImageRecord{ID: "abc123", Labels: labels}
}

func TestEvaluate_DriftAgainstThreshold(t *testing.T) {
	tests := []struct {
		name       string
		behind     int
		wantUpdate bool
		want       Verdict
	}{
		{"no drift", 0, false, Fresh},
		{"at threshold is still fresh", 50, false, Fresh},
		{"one past threshold, continue", 51, false, StaleContinue},
		{"one past threshold, refresh", 51, true, StaleUpdateRequested},
		{"well past threshold", 120, true, StaleUpdateRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &Evaluator{
				WantUpdate: func(*inventory.ImageRecord, int) bool { return tt.wantUpdate },
			}
			repo := &fakeRepo{refExists: true, behind: tt.behind}

			res := ev.Evaluate(context.Background(), repo, record("deadbeef", "origin/main"))
			if res.Verdict != tt.want {
				t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, tt.want)
			}
			if !res.Measured || res.Drift != tt.behind {
				t.Errorf("Evaluate() drift = (%d, %v), want (%d, true)", res.Drift, res.Measured, tt.behind)
			}
		})
	}
}

func TestEvaluate_CustomThreshold(t *testing.T) {
	ev := &Evaluator{Threshold: 10}
	repo := &fakeRepo{refExists: true, behind: 11}

	res := ev.Evaluate(context.Background(), repo, record("deadbeef", "main"))
	if res.Verdict != StaleContinue {
		t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, StaleContinue)
	}
}

func TestEvaluate_MissingMetadataIsFresh(t *testing.T) {
	ev := &Evaluator{}
	repo := &fakeRepo{refExists: true, behind: 500}

	for _, rec := range []*inventory.ImageRecord{
		record("", "origin/main"),
		record("deadbeef", ""),
	} {
		res := ev.Evaluate(context.Background(), repo, rec)
		if res.Verdict != Fresh {
			t.Errorf("Evaluate(%v) verdict = %q, want %q", rec.Labels, res.Verdict, Fresh)
		}
		if res.Measured {
			t.Error("drift must not be reported without metadata")
		}
	}
}

func TestEvaluate_VanishedRefIsFresh(t *testing.T) {
	ev := &Evaluator{}
	repo := &fakeRepo{refExists: false, behind: 500}

	res := ev.Evaluate(context.Background(), repo, record("deadbeef", "origin/gone"))
	if res.Verdict != Fresh {
		t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, Fresh)
	}
}

func TestEvaluate_UnverifiableDrift(t *testing.T) {
	cause := errors.New("rev-list: bad revision")

	t.Run("user proceeds", func(t *testing.T) {
		var sawErr error
		ev := &Evaluator{
			ConfirmUnverifiable: func(_ *inventory.ImageRecord, err error) bool {
				sawErr = err
				return true
			},
		}
		repo := &fakeRepo{refExists: true, countErr: cause}

		res := ev.Evaluate(context.Background(), repo, record("deadbeef", "origin/main"))
		if res.Verdict != Fresh {
			t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, Fresh)
		}
		if res.Measured {
			t.Error("drift must not be reported when the count failed")
		}
		if !errors.Is(sawErr, cause) {
			t.Errorf("confirm callback got err %v, want %v", sawErr, cause)
		}
	})

	t.Run("user declines", func(t *testing.T) {
		ev := &Evaluator{
			ConfirmUnverifiable: func(*inventory.ImageRecord, error) bool { return false },
		}
		repo := &fakeRepo{refExists: true, countErr: cause}

		res := ev.Evaluate(context.Background(), repo, record("deadbeef", "origin/main"))
		if res.Verdict != Unverifiable {
			t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, Unverifiable)
		}
	})

	t.Run("no callback proceeds", func(t *testing.T) {
		ev := &Evaluator{}
		repo := &fakeRepo{refExists: true, countErr: cause}

		res := ev.Evaluate(context.Background(), repo, record("deadbeef", "origin/main"))
		if res.Verdict != Fresh {
			t.Errorf("Evaluate() verdict = %q, want %q", res.Verdict, Fresh)
		}
	})
}

func TestVerdict_Validate(t *testing.T) {
	for _, v := range []Verdict{Fresh, StaleContinue, StaleUpdateRequested, Unverifiable} {
		if !v.Validate() {
			t.Errorf("Validate(%q) = false, want true", v)
		}
	}
	if Verdict("bogus").Validate() {
		t.Error("Validate(bogus) = true, want false")
	}
}
