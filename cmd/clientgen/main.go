// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, a := newRootCmd()
	code := run(ctx, root, a, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes root and returns the process exit status. The log file is
// closed on every path, including failed commands.
func run(ctx context.Context, root *cobra.Command, a *app, stderr io.Writer) int {
	err := root.ExecuteContext(ctx)
	if closeErr := a.closeLog(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return cgerr.ExitCode(err)
}
