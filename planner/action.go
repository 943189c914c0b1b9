package planner

import (
	"github.com/alessio/shellescape"
)

// Action is a single external command with a human readable description.
// Command[0] is the program, the rest are its arguments, passed as-is.
type Action struct {
	Description string   `json:"description"`
	Command     []string `json:"command"`
}

func (a Action) Program() string {
	if len(a.Command) == 0 {
		return ""
	}
	return a.Command[0]
}

func (a Action) Args() []string {
	if len(a.Command) < 2 {
		return nil
	}
	return a.Command[1:]
}

// String renders the command the way a shell would accept it. It is only
// used for display, commands never go through a shell.
func (a Action) String() string {
	return shellescape.QuoteCommand(a.Command)
}

// DiskActions is the ordered action list for one disk.
type DiskActions struct {
	Device  string
	PlanID  string
	Actions []Action
}
