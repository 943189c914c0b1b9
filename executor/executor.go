// Package executor reviews planned actions with a human and runs them in
// order, stopping at the first failure.
package executor

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/report"
	"github.com/kairos-io/diskplan/runner"
	"github.com/kairos-io/diskplan/types"
	mountUtils "k8s.io/mount-utils"
)

var (
	ErrActionExecutionFailed = errors.New("action execution failed")
	ErrHookFailed            = errors.New("pre-apply hook failed")
)

// Hook hears about every disk before and after its actions run. An error
// from BeforeDisk stops the run before that disk is touched.
type Hook interface {
	BeforeDisk(g planner.DiskActions) error
	AfterDisk(g planner.DiskActions, err error)
}

type Outcome int

const (
	Applied Outcome = iota
	Previewed
	Aborted
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Previewed:
		return "previewed"
	case Aborted:
		return "aborted"
	default:
		return "failed"
	}
}

// ActionError carries everything needed to finish by hand what a failed run
// left behind: which action failed, its exact command and its output.
type ActionError struct {
	Device string
	Step   int
	Action planner.Action
	Result runner.Result
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s: step %d on %s (%s): `%s` exited with %d", ErrActionExecutionFailed, e.Step, e.Device, e.Action.Description, e.Action, e.Result.ExitCode)
	if e.Result.Err != nil {
		msg += ": " + e.Result.Err.Error()
	}
	return msg
}

func (e *ActionError) Unwrap() []error {
	if e.Result.Err != nil {
		return []error{ErrActionExecutionFailed, e.Result.Err}
	}
	return []error{ErrActionExecutionFailed}
}

type Executor struct {
	logger    types.Logger
	runner    runner.Runner
	confirmer Confirmer
	out       io.Writer
	mounter   mountUtils.Interface
	settle    time.Duration
	hooks     []Hook
}

type Option func(*Executor)

func WithConfirmer(c Confirmer) Option {
	return func(e *Executor) { e.confirmer = c }
}

// WithOutput sets where the review and failure reports are written.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) { e.out = w }
}

// WithMounter enables the check that no target device is mounted.
func WithMounter(m mountUtils.Interface) Option {
	return func(e *Executor) { e.mounter = m }
}

// WithSettle waits for udev, up to timeout, between the partition table
// actions and the first filesystem action of every disk.
func WithSettle(timeout time.Duration) Option {
	return func(e *Executor) { e.settle = timeout }
}

func WithHook(h Hook) Option {
	return func(e *Executor) { e.hooks = append(e.hooks, h) }
}

func New(logger types.Logger, r runner.Runner, opts ...Option) *Executor {
	e := &Executor{
		logger: logger,
		runner: r,
		out:    os.Stdout,
	}
	for _, o := range opts {
		o(e)
	}
	if e.confirmer == nil {
		e.confirmer = NewPromptConfirmer(os.Stdin, e.out)
	}
	return e
}

// Run shows every disk's actions, asks for confirmation and, unless dryRun
// is set, runs all actions in order. A declined confirmation or a dry run
// leave the devices untouched.
func (e *Executor) Run(groups []planner.DiskActions, dryRun bool) (Outcome, error) {
	if err := e.Review(groups); err != nil {
		return Failed, err
	}

	if !dryRun && e.mounter != nil {
		if err := checkNotMounted(e.mounter, groups); err != nil {
			e.logger.Error().Err(err).Msg("preflight failed")
			return Aborted, err
		}
	}

	ok, err := e.confirmer.Confirm(ConfirmPrompt)
	if err != nil {
		return Aborted, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		e.logger.Info().Msg("disk setup not confirmed, nothing was changed")
		fmt.Fprintln(e.out, "exiting, nothing was changed")
		return Aborted, nil
	}

	if dryRun {
		e.logger.Info().Msg("dry run, not running any action")
		return Previewed, nil
	}

	for _, g := range groups {
		for _, h := range e.hooks {
			if err := h.BeforeDisk(g); err != nil {
				e.logger.Error().Err(err).Str("device", g.Device).Msg("hook refused disk")
				return Failed, fmt.Errorf("%w for %s: %w", ErrHookFailed, g.Device, err)
			}
		}
		err := e.apply(g)
		for _, h := range e.hooks {
			h.AfterDisk(g, err)
		}
		if err != nil {
			return Failed, err
		}
	}
	return Applied, nil
}

// Review writes every disk's action list for a human to check.
func (e *Executor) Review(groups []planner.DiskActions) error {
	for _, g := range groups {
		fmt.Fprintf(e.out, "\nDisk: %s (plan %s)\n", g.Device, g.PlanID)
		table, err := report.ActionTable(g.Actions)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, table)
	}
	return nil
}

func (e *Executor) apply(g planner.DiskActions) error {
	log := e.logger.With().Str("device", g.Device).Str("plan", g.PlanID).Logger()
	log.Info().Int("actions", len(g.Actions)).Msg("applying plan")

	prev := ""
	for i, a := range g.Actions {
		if e.settle > 0 && prev == constants.SgdiskBin && a.Program() != constants.SgdiskBin {
			e.waitForUdev(g.Device)
		}
		prev = a.Program()

		log.Info().Int("step", i+1).Str("desc", a.Description).Str("cmd", a.String()).Msg("running action")
		res := e.runner.Run(a.Program(), a.Args()...)
		if !res.Success() {
			err := &ActionError{Device: g.Device, Step: i + 1, Action: a, Result: res}
			log.Error().Err(err).Str("stdout", res.Stdout).Str("stderr", res.Stderr).Msg("action failed")
			e.reportFailure(err)
			return err
		}
		if e.logger.IsDebug() && (res.Stdout != "" || res.Stderr != "") {
			log.Debug().Str("stdout", strings.TrimSpace(res.Stdout)).Str("stderr", strings.TrimSpace(res.Stderr)).Msg(a.Description)
		}
	}
	log.Info().Msg("plan applied")
	return nil
}

func (e *Executor) waitForUdev(device string) {
	// udevadm takes whole seconds, 0 would not wait at all
	timeout := int(math.Ceil(e.settle.Seconds()))
	res := e.runner.Run("udevadm", "settle", fmt.Sprintf("--timeout=%d", timeout))
	if !res.Success() {
		e.logger.Warn().Str("device", device).Int("exit", res.ExitCode).Err(res.Err).Str("stderr", res.Stderr).Msg("udevadm settle failed")
	}
}

func (e *Executor) reportFailure(err *ActionError) {
	fmt.Fprintf(e.out, "Partitioning step failed: %s\n", err.Action.Description)
	fmt.Fprintf(e.out, "Command: %s\n", err.Action)
	if s := strings.TrimSpace(err.Result.Stdout); s != "" {
		fmt.Fprintf(e.out, "stdout:\n%s\n", s)
	}
	if s := strings.TrimSpace(err.Result.Stderr); s != "" {
		fmt.Fprintf(e.out, "stderr:\n%s\n", s)
	}
}
