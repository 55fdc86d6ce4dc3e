// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch runs a batch of shell commands in parallel.
//
// Every command is spawned as its own OS process. Output is streamed line by
// line into a shared sink, termination signals are forwarded to every child,
// and each command ends up with exactly one Outcome. The overall exit code of
// the batch is the first non-zero code in command-line order, or 130 when the
// run was interrupted.
package runbatch
