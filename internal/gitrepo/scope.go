// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"context"
	"fmt"
)

// CheckoutScope records the ref a repository was on before dkr switched
// branches for a build. Restore must run on every exit path — success, build
// failure, or interrupt — so callers defer it immediately after EnterCheckout.
type CheckoutScope struct {
	repo        *Repo
	originalRef string
	switched    bool
}

// EnterCheckout switches the working tree to branch if needed and returns a
// scope that undoes the switch. A branch of "HEAD", or one equal to the
// current ref, requires no switch and yields a no-op scope.
func (r *Repo) EnterCheckout(ctx context.Context, branch string) (*CheckoutScope, error) {
	original, err := r.CurrentRef(ctx)
	if err != nil {
		return nil, err
	}

	scope := &CheckoutScope{repo: r, originalRef: original}
	if branch == "HEAD" || branch == original {
		return scope, nil
	}

	if err := r.Checkout(ctx, branch); err != nil {
		return nil, err
	}
	scope.switched = true
	return scope, nil
}

// OriginalRef returns the ref the repository was on when the scope opened.
func (s *CheckoutScope) OriginalRef() string {
	return s.originalRef
}

// Switched reports whether the scope actually changed branches.
func (s *CheckoutScope) Switched() bool {
	return s.switched
}

// Restore checks the original ref back out. Safe to call multiple times;
// only the first call after a switch does work.
func (s *CheckoutScope) Restore(ctx context.Context) error {
	if !s.switched {
		return nil
	}
	s.switched = false
	if err := s.repo.Checkout(ctx, s.originalRef); err != nil {
		return fmt.Errorf("restore original ref %s: %w", s.originalRef, err)
	}
	return nil
}
