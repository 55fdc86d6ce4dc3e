// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries real-time events from a running batch of commands
// to whatever is watching it, such as the interactive status view.
// Reporting never blocks the run; a slow listener loses events rather than
// stalling output.
package progress
