// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared helpers for validating user-supplied CUE
// files against an embedded schema and turning CUE's error graph into
// single-line, path-prefixed messages.
package cueutil
