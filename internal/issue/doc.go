// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error construction for dkr: the
// ActionableError/ErrorContext builder for operational failures and a small
// catalog of rendered long-form issues for common dead ends.
package issue
