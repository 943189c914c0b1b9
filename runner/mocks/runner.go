package mocks

import (
	"strings"

	"github.com/kairos-io/diskplan/runner"
)

// FakeRunner records every call and answers with canned results.
type FakeRunner struct {
	Calls [][]string
	// Results by full command line, e.g. "sgdisk --zap-all /dev/sda".
	Results map[string]runner.Result
	// SideEffect, when set, decides the result and wins over Results.
	SideEffect func(name string, args ...string) runner.Result
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Results: map[string]runner.Result{}}
}

func (f *FakeRunner) Run(name string, args ...string) runner.Result {
	call := append([]string{name}, args...)
	f.Calls = append(f.Calls, call)
	if f.SideEffect != nil {
		return f.SideEffect(name, args...)
	}
	if r, ok := f.Results[strings.Join(call, " ")]; ok {
		return r
	}
	return runner.Result{}
}

// FailOn makes the given command line exit with code 1 and the given stderr.
func (f *FakeRunner) FailOn(cmdline, stderr string) {
	f.Results[cmdline] = runner.Result{ExitCode: 1, Stderr: stderr}
}

func (f *FakeRunner) ClearCalls() {
	f.Calls = [][]string{}
}

// CmdsMatch reports whether the recorded calls are exactly cmdList, in order.
func (f *FakeRunner) CmdsMatch(cmdList [][]string) bool {
	if len(f.Calls) != len(cmdList) {
		return false
	}
	for i, c := range cmdList {
		if strings.Join(c, " ") != strings.Join(f.Calls[i], " ") {
			return false
		}
	}
	return true
}
