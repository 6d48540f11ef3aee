// SPDX-License-Identifier: MPL-2.0

package buildconf

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	conf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if conf.BaseImage != DefaultBaseImage {
		t.Errorf("BaseImage = %q, want %q", conf.BaseImage, DefaultBaseImage)
	}
	if len(conf.Packages) != 0 || len(conf.Volumes) != 0 {
		t.Errorf("expected empty packages/volumes, got %v / %v", conf.Packages, conf.Volumes)
	}
	if conf.PreClone != "" || conf.PostClone != "" {
		t.Error("expected empty clone fragments")
	}
}

func TestLoad_ReadsFileFromRepoRoot(t *testing.T) {
	dir := t.TempDir()
	content := "base_image = ubuntu:24.04\npackages = ripgrep fzf\n"
	if err := os.WriteFile(filepath.Join(dir, ConfFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	conf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if conf.BaseImage != "ubuntu:24.04" {
		t.Errorf("BaseImage = %q", conf.BaseImage)
	}
	if !slices.Equal(conf.Packages, []string{"ripgrep", "fzf"}) {
		t.Errorf("Packages = %v", conf.Packages)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, conf *BuildConfig)
	}{
		{
			name:  "comments and blank lines ignored",
			input: "# a comment\n\nbase_image = alpine:3.20\n   \n# another\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.BaseImage != "alpine:3.20" {
					t.Errorf("BaseImage = %q", conf.BaseImage)
				}
			},
		},
		{
			name:  "value split on first equals only",
			input: "base_image = registry.example.com/img:tag=weird\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.BaseImage != "registry.example.com/img:tag=weird" {
					t.Errorf("BaseImage = %q", conf.BaseImage)
				}
			},
		},
		{
			name:  "section lines preserved verbatim",
			input: "[pre_clone]\nRUN dnf install -y gcc\n    RUN echo indented\n",
			check: func(t *testing.T, conf *BuildConfig) {
				want := "RUN dnf install -y gcc\n    RUN echo indented"
				if conf.PreClone != want {
					t.Errorf("PreClone = %q, want %q", conf.PreClone, want)
				}
			},
		},
		{
			name:  "post clone section",
			input: "[post_clone]\nRUN cd /workspace && make deps\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.PostClone != "RUN cd /workspace && make deps" {
					t.Errorf("PostClone = %q", conf.PostClone)
				}
				if conf.PreClone != "" {
					t.Errorf("PreClone = %q, want empty", conf.PreClone)
				}
			},
		},
		{
			name:  "unknown section content discarded",
			input: "[future_feature]\nRUN rm -rf /\nbase_image = evil\n[post_clone]\nRUN true\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.BaseImage != DefaultBaseImage {
					t.Errorf("BaseImage = %q, unknown-section content leaked", conf.BaseImage)
				}
				if conf.PostClone != "RUN true" {
					t.Errorf("PostClone = %q", conf.PostClone)
				}
			},
		},
		{
			name:  "unknown keys stored but not interpreted",
			input: "shiny_new_option = yes\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.Extra["shiny_new_option"] != "yes" {
					t.Errorf("Extra = %v", conf.Extra)
				}
			},
		},
		{
			name:  "comment inside section is skipped",
			input: "[post_clone]\n# not a docker line\nRUN true\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.PostClone != "RUN true" {
					t.Errorf("PostClone = %q", conf.PostClone)
				}
			},
		},
		{
			name:  "volumes split on whitespace",
			input: "volumes = /data:/data /cache:/var/cache:ro\n",
			check: func(t *testing.T, conf *BuildConfig) {
				want := []string{"/data:/data", "/cache:/var/cache:ro"}
				if !slices.Equal(conf.Volumes, want) {
					t.Errorf("Volumes = %v, want %v", conf.Volumes, want)
				}
			},
		},
		{
			name:  "empty base_image keeps default",
			input: "base_image =\n",
			check: func(t *testing.T, conf *BuildConfig) {
				if conf.BaseImage != DefaultBaseImage {
					t.Errorf("BaseImage = %q", conf.BaseImage)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Parse(tt.input))
		})
	}
}
