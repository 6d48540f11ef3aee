// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"context"
	"errors"
	"testing"
)

func openMocked(t *testing.T, mock *GitMock) *Repo {
	t.Helper()
	if mock.Responses == nil {
		mock.Responses = map[string]GitResult{}
	}
	// Open probes the path with rev-parse --git-dir.
	if _, ok := mock.Responses["rev-parse --git-dir"]; !ok {
		mock.Responses["rev-parse --git-dir"] = GitResult{Stdout: ".git"}
	}
	repo, err := Open(context.Background(), t.TempDir(), WithExecCommand(mock.CommandFunc(t)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return repo
}

func TestOpen_NotARepo(t *testing.T) {
	mock := &GitMock{Responses: map[string]GitResult{
		"rev-parse --git-dir": {ExitCode: 128},
	}}

	_, err := Open(context.Background(), t.TempDir(), WithExecCommand(mock.CommandFunc(t)))
	if !errors.Is(err, ErrNotARepo) {
		t.Fatalf("Open() error = %v, want ErrNotARepo", err)
	}
}

func TestCurrentRef(t *testing.T) {
	t.Run("on a branch", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"rev-parse --abbrev-ref HEAD": {Stdout: "main"},
		}}
		repo := openMocked(t, mock)

		ref, err := repo.CurrentRef(context.Background())
		if err != nil {
			t.Fatalf("CurrentRef() failed: %v", err)
		}
		if ref != "main" {
			t.Errorf("CurrentRef() = %q, want %q", ref, "main")
		}
	})

	t.Run("detached HEAD falls back to commit", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"rev-parse --abbrev-ref HEAD": {Stdout: "HEAD"},
			"rev-parse HEAD":              {Stdout: "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678"},
		}}
		repo := openMocked(t, mock)

		ref, err := repo.CurrentRef(context.Background())
		if err != nil {
			t.Fatalf("CurrentRef() failed: %v", err)
		}
		if ref != "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678" {
			t.Errorf("CurrentRef() = %q, want commit hash", ref)
		}
	})
}

func TestResolveCommit(t *testing.T) {
	mock := &GitMock{Responses: map[string]GitResult{
		"rev-parse feature": {Stdout: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		"rev-parse gone":    {ExitCode: 128},
	}}
	repo := openMocked(t, mock)

	commit, err := repo.ResolveCommit(context.Background(), "feature")
	if err != nil {
		t.Fatalf("ResolveCommit(feature) failed: %v", err)
	}
	if commit != "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef" {
		t.Errorf("ResolveCommit(feature) = %q", commit)
	}

	_, err = repo.ResolveCommit(context.Background(), "gone")
	if !errors.Is(err, ErrUnresolvableRef) {
		t.Errorf("ResolveCommit(gone) error = %v, want ErrUnresolvableRef", err)
	}
}

func TestRefExists(t *testing.T) {
	mock := &GitMock{Responses: map[string]GitResult{
		"rev-parse --verify main": {Stdout: "deadbeef"},
		"rev-parse --verify gone": {ExitCode: 128},
	}}
	repo := openMocked(t, mock)

	if !repo.RefExists(context.Background(), "main") {
		t.Error("RefExists(main) = false, want true")
	}
	if repo.RefExists(context.Background(), "gone") {
		t.Error("RefExists(gone) = true, want false")
	}
}

func TestCountCommitsBetween(t *testing.T) {
	mock := &GitMock{Responses: map[string]GitResult{
		"rev-list --count abc..main": {Stdout: "60"},
		"rev-list --count bad..main": {ExitCode: 128},
	}}
	repo := openMocked(t, mock)

	n, err := repo.CountCommitsBetween(context.Background(), "abc", "main")
	if err != nil {
		t.Fatalf("CountCommitsBetween() failed: %v", err)
	}
	if n != 60 {
		t.Errorf("CountCommitsBetween() = %d, want 60", n)
	}

	if _, err := repo.CountCommitsBetween(context.Background(), "bad", "main"); err == nil {
		t.Error("CountCommitsBetween() with rewritten history succeeded, want error")
	}
}

func TestRemotes(t *testing.T) {
	mock := &GitMock{Responses: map[string]GitResult{
		"remote": {Stdout: "origin\nupstream"},
	}}
	repo := openMocked(t, mock)

	remotes := repo.Remotes(context.Background())
	if len(remotes) != 2 || remotes[0] != "origin" || remotes[1] != "upstream" {
		t.Errorf("Remotes() = %v", remotes)
	}
}

func TestFetchIfRemote(t *testing.T) {
	t.Run("remote-qualified triggers single-branch fetch", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"remote": {Stdout: "origin"},
		}}
		repo := openMocked(t, mock)

		remote, branch, err := repo.FetchIfRemote(context.Background(), "origin/main")
		if err != nil {
			t.Fatalf("FetchIfRemote() failed: %v", err)
		}
		if remote != "origin" || branch != "main" {
			t.Errorf("FetchIfRemote() = (%q, %q), want (origin, main)", remote, branch)
		}
		if !mock.Called("fetch origin main") {
			t.Errorf("expected single-branch fetch, invocations: %v", mock.Invocations)
		}
	})

	t.Run("local branch does not fetch", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"remote": {Stdout: "origin"},
		}}
		repo := openMocked(t, mock)

		remote, branch, err := repo.FetchIfRemote(context.Background(), "team/feature-x")
		if err != nil {
			t.Fatalf("FetchIfRemote() failed: %v", err)
		}
		if remote != "" || branch != "team/feature-x" {
			t.Errorf("FetchIfRemote() = (%q, %q), want (\"\", team/feature-x)", remote, branch)
		}
		for _, inv := range mock.Invocations {
			if len(inv) >= 5 && inv[:5] == "fetch" {
				t.Errorf("unexpected fetch: %v", mock.Invocations)
			}
		}
	})
}

func TestCheckoutScope(t *testing.T) {
	t.Run("switch and restore", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"rev-parse --abbrev-ref HEAD": {Stdout: "main"},
		}}
		repo := openMocked(t, mock)

		scope, err := repo.EnterCheckout(context.Background(), "feature")
		if err != nil {
			t.Fatalf("EnterCheckout() failed: %v", err)
		}
		if !scope.Switched() {
			t.Fatal("scope.Switched() = false, want true")
		}
		if !mock.Called("checkout feature") {
			t.Errorf("missing checkout, invocations: %v", mock.Invocations)
		}

		if err := scope.Restore(context.Background()); err != nil {
			t.Fatalf("Restore() failed: %v", err)
		}
		if !mock.Called("checkout main") {
			t.Errorf("missing restore checkout, invocations: %v", mock.Invocations)
		}

		// Second restore is a no-op.
		before := len(mock.Invocations)
		if err := scope.Restore(context.Background()); err != nil {
			t.Fatalf("second Restore() failed: %v", err)
		}
		if len(mock.Invocations) != before {
			t.Error("second Restore() ran git again")
		}
	})

	t.Run("HEAD needs no switch", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"rev-parse --abbrev-ref HEAD": {Stdout: "main"},
		}}
		repo := openMocked(t, mock)

		scope, err := repo.EnterCheckout(context.Background(), "HEAD")
		if err != nil {
			t.Fatalf("EnterCheckout() failed: %v", err)
		}
		if scope.Switched() {
			t.Error("scope.Switched() = true for HEAD, want false")
		}
	})

	t.Run("same branch needs no switch", func(t *testing.T) {
		mock := &GitMock{Responses: map[string]GitResult{
			"rev-parse --abbrev-ref HEAD": {Stdout: "feature"},
		}}
		repo := openMocked(t, mock)

		scope, err := repo.EnterCheckout(context.Background(), "feature")
		if err != nil {
			t.Fatalf("EnterCheckout() failed: %v", err)
		}
		if scope.Switched() {
			t.Error("scope.Switched() = true for current branch, want false")
		}
	})
}
