// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/dkr/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/dkr/config.cue on macOS, %APPDATA%\dkr\config.cue on
// Windows). It covers container engine selection, the staleness threshold, baseline
// packages, the default base image, SSH and host-address settings for the in-image
// clone, and the default agent started inside a work session.
//
// Files are validated against a CUE schema (config_schema.cue) so invalid values fail
// with a field-level error message instead of surfacing later inside a build.
package config
