// SPDX-License-Identifier: MPL-2.0

package buildspec

import (
	"slices"
	"strings"
	"testing"
	"time"

	"dkr-cli/internal/buildconf"
	"dkr-cli/internal/inventory"
)

var baseline = []string{"git", "tmux", "openssh-clients", "curl"}

func TestMergePackages(t *testing.T) {
	tests := []struct {
		name     string
		baseline []string
		extras   []string
		want     []string
	}{
		{
			name:     "no extras keeps baseline order",
			baseline: baseline,
			extras:   nil,
			want:     []string{"git", "tmux", "openssh-clients", "curl"},
		},
		{
			name:     "extras append in file order",
			baseline: baseline,
			extras:   []string{"ripgrep", "fzf"},
			want:     []string{"git", "tmux", "openssh-clients", "curl", "ripgrep", "fzf"},
		},
		{
			name:     "extras duplicating baseline are skipped",
			baseline: baseline,
			extras:   []string{"curl", "ripgrep", "git"},
			want:     []string{"git", "tmux", "openssh-clients", "curl", "ripgrep"},
		},
		{
			name:     "duplicates within extras collapse to first occurrence",
			baseline: baseline,
			extras:   []string{"fzf", "ripgrep", "fzf"},
			want:     []string{"git", "tmux", "openssh-clients", "curl", "fzf", "ripgrep"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergePackages(tt.baseline, tt.extras)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MergePackages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergePackages_Idempotent(t *testing.T) {
	extras := []string{"ripgrep", "curl", "ripgrep"}
	once := MergePackages(baseline, extras)
	twice := MergePackages(baseline, append(slices.Clone(extras), extras...))
	if !slices.Equal(once, twice) {
		t.Errorf("merge not idempotent: %v vs %v", once, twice)
	}
}

func TestSanitizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"main", "main"},
		{"team/feature-x", "team-feature-x"},
		{"release_1.2", "release_1.2"},
		{"weird branch!", "weird-branch-"},
	}
	for _, tt := range tests {
		if got := SanitizeTag(tt.in); got != tt.want {
			t.Errorf("SanitizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageTag(t *testing.T) {
	if got := ImageTag("monorepo", "team/feature-x"); got != "dkr:monorepo-team-feature-x" {
		t.Errorf("ImageTag() = %q", got)
	}
}

func createInputs() Inputs {
	return Inputs{
		Conf:             buildconf.Defaults(),
		RepoPath:         "/home/dev/monorepo",
		RepoName:         "monorepo",
		Branch:           "main",
		BranchFrom:       "origin/main",
		Commit:           "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		GitUser:          "dev",
		HostAddr:         "::1",
		AgentVer:         "2.1.0",
		BaselinePackages: baseline,
		InstallScript:    ".dkr-install-packages.sh",
		Entrypoint:       ".dkr-entrypoint.sh",
		CreatedAt:        time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestSynthesize_Create(t *testing.T) {
	in := createInputs()
	in.Conf.Packages = []string{"ripgrep", "curl"}
	in.Conf.PreClone = "RUN dnf install -y gcc"
	in.Conf.PostClone = "RUN cd /workspace && make deps"

	spec := Synthesize(KindCreate, in)

	if spec.Tag != "dkr:monorepo-main" {
		t.Errorf("Tag = %q", spec.Tag)
	}

	df := spec.Dockerfile
	if !strings.Contains(df, "FROM fedora:43\n") {
		t.Error("Dockerfile missing default base image")
	}
	wantInstall := "    /tmp/install-packages.sh git tmux openssh-clients curl ripgrep && \\"
	if !strings.Contains(df, wantInstall+"\n") {
		t.Errorf("Dockerfile install line wrong (want %q):\n%s", wantInstall, df)
	}
	if !strings.Contains(df, "RUN dnf install -y gcc") {
		t.Error("pre_clone fragment not spliced")
	}
	if !strings.Contains(df, "RUN cd /workspace && make deps") {
		t.Error("post_clone fragment not spliced")
	}

	// Fragment ordering: pre_clone before the clone step, post_clone after.
	cloneIdx := strings.Index(df, "git clone")
	if pre := strings.Index(df, "RUN dnf install -y gcc"); pre == -1 || pre > cloneIdx {
		t.Error("pre_clone fragment not before clone step")
	}
	if post := strings.Index(df, "make deps"); post < cloneIdx {
		t.Error("post_clone fragment not after clone step")
	}
	if !strings.Contains(df, "ENTRYPOINT [\"/entrypoint.sh\"]") {
		t.Error("entrypoint not wired")
	}

	wantArgs := map[string]string{
		"REPO_PATH":     "/home/dev/monorepo",
		"BRANCH":        "main",
		"GIT_USER":      "dev",
		"HOST_ADDR":     "::1",
		"AGENT_VERSION": "2.1.0",
	}
	for k, v := range wantArgs {
		if spec.Args[k] != v {
			t.Errorf("Args[%s] = %q, want %q", k, spec.Args[k], v)
		}
	}
	if _, ok := spec.Args["BASE_IMAGE"]; ok {
		t.Error("create spec must not carry BASE_IMAGE")
	}
}

func TestSynthesize_CreateOmitsEmptyFragments(t *testing.T) {
	spec := Synthesize(KindCreate, createInputs())

	if strings.Contains(spec.Dockerfile, "\n\n\n") {
		t.Error("empty fragments left blank gaps in Dockerfile")
	}
}

func TestSynthesize_Update(t *testing.T) {
	in := createInputs()
	in.BaseImageRef = "dkr:monorepo-main"
	in.Conf.PreClone = "RUN echo should-not-appear"
	in.Conf.PostClone = "RUN cd /workspace && make deps"

	spec := Synthesize(KindUpdate, in)

	df := spec.Dockerfile
	if !strings.Contains(df, "FROM ${BASE_IMAGE}") {
		t.Error("update must start from the prior image")
	}
	if !strings.Contains(df, "git rebase FETCH_HEAD") {
		t.Error("update must re-synchronize the checkout")
	}
	if strings.Contains(df, "should-not-appear") {
		t.Error("pre_clone spliced into update; it is create-time-only")
	}
	if !strings.Contains(df, "make deps") {
		t.Error("post_clone fragment not spliced into update")
	}
	if spec.Args["BASE_IMAGE"] != "dkr:monorepo-main" {
		t.Errorf("Args[BASE_IMAGE] = %q", spec.Args["BASE_IMAGE"])
	}
	if spec.Labels[inventory.LabelType] != inventory.TypeUpdate {
		t.Errorf("type label = %q", spec.Labels[inventory.LabelType])
	}
}

func TestSynthesize_Labels(t *testing.T) {
	spec := Synthesize(KindCreate, createInputs())

	want := map[string]string{
		inventory.LabelRepoPath:   "/home/dev/monorepo",
		inventory.LabelRepoName:   "monorepo",
		inventory.LabelBranch:     "main",
		inventory.LabelBranchFrom: "origin/main",
		inventory.LabelCommit:     "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		inventory.LabelCreatedAt:  "2026-08-30T12:00:00Z",
		inventory.LabelType:       inventory.TypeBase,
	}
	for k, v := range want {
		if spec.Labels[k] != v {
			t.Errorf("Labels[%s] = %q, want %q", k, spec.Labels[k], v)
		}
	}
}

func TestSynthesize_BranchFromDefaultsToBranch(t *testing.T) {
	in := createInputs()
	in.BranchFrom = ""

	spec := Synthesize(KindCreate, in)
	if spec.Labels[inventory.LabelBranchFrom] != "main" {
		t.Errorf("branch_from label = %q, want %q", spec.Labels[inventory.LabelBranchFrom], "main")
	}
}

func TestQuoteAll_ShellUnsafePackage(t *testing.T) {
	got := quoteAll([]string{"plain", "has space"})
	if !strings.Contains(got, "plain") {
		t.Errorf("quoteAll() = %q", got)
	}
	if strings.Contains(got, "plain has space") {
		t.Errorf("unsafe word not quoted: %q", got)
	}
}
