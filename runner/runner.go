// Package runner invokes external commands with their arguments passed
// verbatim, never through a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kairos-io/diskplan/types"
)

// ErrTimeout is returned when a command outlives the runner timeout.
var ErrTimeout = errors.New("command timed out")

// Result of running a command. ExitCode is -1 when the command could not be
// started or was killed.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success is true for a command that ran and exited with status 0.
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

type Runner interface {
	Run(name string, args ...string) Result
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct {
	logger  types.Logger
	timeout time.Duration
}

// NewExecRunner returns a runner that kills commands running longer than
// timeout. A zero timeout waits forever.
func NewExecRunner(logger types.Logger, timeout time.Duration) *ExecRunner {
	return &ExecRunner{logger: logger, timeout: timeout}
}

func (r *ExecRunner) Run(name string, args ...string) Result {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log := r.logger.With().Str("cmd", name).Strs("args", args).Logger()
	log.Debug().Msg("running command")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		res.Err = fmt.Errorf("%w after %s: %s %s", ErrTimeout, r.timeout, name, strings.Join(args, " "))
	case errors.As(err, &exitErr):
		// a non zero exit is reported through ExitCode only
	case err != nil:
		res.Err = err
	}

	log.Debug().Int("exit", res.ExitCode).Dur("took", time.Since(start)).Msg("command finished")
	if res.Stderr != "" {
		log.Trace().Str("stderr", res.Stderr).Msg("command stderr")
	}
	return res
}
