package bus

import (
	"github.com/mudler/go-pluggable"
)

const (
	// EventBeforeApply is issued before the actions of a disk run. A provider
	// answering with an error stops the run before the disk is touched.
	EventBeforeApply pluggable.EventType = "diskplan.apply.before"

	// EventAfterApply is issued once the actions of a disk ran, or failed.
	EventAfterApply pluggable.EventType = "diskplan.apply.after"
)

// States a provider may answer with. The error state, or a non empty error
// field, counts as a failure.
const (
	EventResponseSuccess       = "success"
	EventResponseError         = "error"
	EventResponseNotApplicable = "non-applicable"
)

// ApplyPayload describes the disk an apply event is about.
type ApplyPayload struct {
	Device   string   `json:"device"`
	PlanID   string   `json:"plan_id"`
	Commands []string `json:"commands"`
	Error    string   `json:"error,omitempty"`
}

// AllEvents is a convenience list of all the events streamed from the bus.
var AllEvents = []pluggable.EventType{
	EventBeforeApply,
	EventAfterApply,
}

// IsEventDefined reports whether i, a string or an EventType, names one of
// the bus events or one of the extra events given.
func IsEventDefined(i interface{}, events ...pluggable.EventType) bool {
	checkEvent := func(e pluggable.EventType) bool {
		for _, ee := range append(AllEvents, events...) {
			if ee == e {
				return true
			}
		}

		return false
	}

	switch f := i.(type) {
	case string:
		return checkEvent(pluggable.EventType(f))
	case pluggable.EventType:
		return checkEvent(f)
	default:
		return false
	}
}
