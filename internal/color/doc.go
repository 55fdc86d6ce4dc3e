// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color colorizes strings with ANSI escape codes and decides whether
// color output is wanted at all. NO_COLOR always wins, FORCE_COLOR turns color
// on for non-terminals, otherwise color follows terminal detection via
// golang.org/x/term.
//
// It also owns the palette used to tell command prefixes apart.
package color
