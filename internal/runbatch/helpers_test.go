// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"runtime"
	"testing"

	"github.com/Pingid/tasks/internal/ctxlog"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("process tests use /bin/sh")
	}
}

func testContext() context.Context {
	return ctxlog.New(context.Background(), ctxlog.DefaultLogger)
}

func shLauncher() *Launcher {
	return &Launcher{Shell: "/bin/sh"}
}
