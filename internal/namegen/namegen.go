// SPDX-License-Identifier: MPL-2.0

// Package namegen produces human-friendly container names and short unique
// suffixes for transient build files.
package namegen

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

var adjectives = []string{
	"brave", "calm", "cool", "eager", "fast", "happy", "keen", "mild",
	"neat", "quick", "sharp", "warm", "bold", "dark", "fair", "glad",
	"lush", "pure", "safe", "wise",
}

var nouns = []string{
	"panda", "tiger", "whale", "eagle", "falcon", "otter", "raven", "shark",
	"cobra", "heron", "maple", "cedar", "birch", "aspen", "coral", "frost",
	"ember", "drift", "storm",
}

// Random returns an adjective-noun container name like "quick-otter".
func Random() string {
	return fmt.Sprintf("%s-%s",
		adjectives[rand.IntN(len(adjectives))],
		nouns[rand.IntN(len(nouns))])
}

// ShortID returns an 8-character unique suffix for transient file names, so
// concurrent builds in the same repository never collide.
func ShortID() string {
	return uuid.NewString()[:8]
}
