// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package version provides the version and commit information for the tasks application.
package version

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)

// String returns the version and commit in the form shown by --version.
func String() string {
	return Version + " (" + Commit + ")"
}
