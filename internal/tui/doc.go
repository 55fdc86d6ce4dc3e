// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live status board for a parallel run. Each command
// gets one row showing its state, how long it has been running and the last
// line it printed.
//
// Pressing ctrl+c or q does not quit the board; it asks the run to terminate,
// exactly as an interrupt signal would. The board exits on its own once every
// command has finished.
package tui
