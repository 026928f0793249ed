// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package generator

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// waitDelay bounds how long Run waits for output pipes after the process
// has been killed on context expiry.
const waitDelay = 2 * time.Second

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execCommandRunner struct{}

func (r execCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err == nil {
		return trimmed, nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return trimmed, cgerr.Wrapf(ctxErr, cgerr.CodeGeneratorRunTimeout,
			"running %s %s: timed out", name, strings.Join(args, " "))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return trimmed, cgerr.Wrap(err, cgerr.CodeGeneratorRunFailure,
			"running "+name+" "+strings.Join(args, " ")+": "+trimmed,
			cgerr.FieldExitCode(exitErr.ExitCode()),
		)
	}

	return trimmed, cgerr.Wrapf(err, cgerr.CodeGeneratorRunFailure, "starting %s", name)
}
