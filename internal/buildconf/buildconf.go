// SPDX-License-Identifier: MPL-2.0

// Package buildconf reads the repository-local .dkr.conf file into normalized
// build settings. The file lives inside the worktree, so its content is a
// function of whichever commit is checked out; it is re-read on every build
// and never cached.
//
// Format: top-level "key = value" lines, plus [pre_clone] and [post_clone]
// sections holding raw Dockerfile lines that are spliced into the generated
// build verbatim. Unknown keys and sections are accepted and ignored so older
// dkr versions keep working against newer config files.
package buildconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfFileName is the config file name, relative to the repository root.
const ConfFileName = ".dkr.conf"

// DefaultBaseImage is used when the config file is missing or names no base.
const DefaultBaseImage = "fedora:43"

// BuildConfig holds normalized settings from one .dkr.conf read.
type BuildConfig struct {
	// BaseImage is the FROM image for fresh builds.
	BaseImage string
	// Packages are user-requested extra packages, in file order.
	Packages []string
	// Volumes are "host:container" mount specs applied at start time.
	Volumes []string
	// PreClone is an opaque Dockerfile fragment spliced before the clone step.
	PreClone string
	// PostClone is an opaque Dockerfile fragment spliced after the clone step.
	PostClone string
	// Extra holds unrecognized top-level keys, stored but never interpreted.
	Extra map[string]string
}

// Defaults returns the configuration used when no .dkr.conf exists.
func Defaults() *BuildConfig {
	return &BuildConfig{
		BaseImage: DefaultBaseImage,
		Extra:     map[string]string{},
	}
}

// Load reads .dkr.conf from the repository root. A missing file is not an
// error: defaults are returned so a repository needs no configuration at all
// to be buildable.
func Load(repoRoot string) (*BuildConfig, error) {
	conf := Defaults()

	data, err := os.ReadFile(filepath.Join(repoRoot, ConfFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("read %s: %w", ConfFileName, err)
	}

	conf.parse(string(data))
	return conf, nil
}

// Parse parses config file content. Exposed for callers that already hold
// the bytes (and for tests).
func Parse(content string) *BuildConfig {
	conf := Defaults()
	conf.parse(content)
	return conf
}

// recognized section names; anything else is accepted but discarded.
var sectionNames = map[string]bool{
	"pre_clone":  true,
	"post_clone": true,
}

func (c *BuildConfig) parse(content string) {
	currentSection := ""
	sectionLines := map[string][]string{}

	for line := range strings.Lines(content) {
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		stripped := strings.TrimSpace(line)

		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}

		if strings.HasPrefix(stripped, "[") && strings.HasSuffix(stripped, "]") {
			currentSection = stripped[1 : len(stripped)-1]
			continue
		}

		if sectionNames[currentSection] {
			// Raw Dockerfile line, preserved without trimming.
			sectionLines[currentSection] = append(sectionLines[currentSection], line)
			continue
		}
		if currentSection != "" {
			// Inside an unrecognized section: discard content, don't error.
			continue
		}

		key, value, found := strings.Cut(stripped, "=")
		if !found {
			continue
		}
		c.setKey(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	c.PreClone = strings.Join(sectionLines["pre_clone"], "\n")
	c.PostClone = strings.Join(sectionLines["post_clone"], "\n")
}

func (c *BuildConfig) setKey(key, value string) {
	switch key {
	case "base_image":
		if value != "" {
			c.BaseImage = value
		}
	case "packages":
		c.Packages = strings.Fields(value)
	case "volumes":
		c.Volumes = strings.Fields(value)
	default:
		c.Extra[key] = value
	}
}
