// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linemux multiplexes the output streams of many concurrently running
// commands into a single sink.
//
// Each stream is drained by its own goroutine (see Drain), which reassembles
// complete lines and hands them to a Sink. Writer is the Sink used by the CLI:
// it formats each line with its `[prefix]` tag and writes it with a single call
// while holding a mutex, so lines from different commands are never torn or
// merged.
package linemux
