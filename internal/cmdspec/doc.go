// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdspec parses command line arguments of the form `[prefix]:command`,
// `[prefix] command` or a bare `command` into Spec values.
package cmdspec
