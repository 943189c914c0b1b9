package bus

import (
	"errors"
	"fmt"
	"os"

	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/types"
	"github.com/mudler/go-pluggable"
)

var ErrProvider = errors.New("provider failed")

func NewBus(withEvents ...pluggable.EventType) *Bus {
	if len(withEvents) == 0 {
		withEvents = AllEvents
	}
	return &Bus{
		Manager: pluggable.NewManager(withEvents),
	}
}

// Bus sends apply events to provider executables found on disk.
type Bus struct {
	*pluggable.Manager
	registered     bool
	logger         types.Logger
	hasLogger      bool
	providerPrefix string   // Prefix for provider plugins, defaults to "diskplan-provider".
	providerPaths  []string // Paths to search for provider plugins, defaults to system and current working directory.
	errs           []error
}

func (b *Bus) LoadProviders() {
	b.Autoload(b.providerPrefix, b.providerPaths...).Register()
}

func (b *Bus) Initialize(o ...Options) {
	if b.registered {
		return
	}

	for _, opt := range o {
		opt(b)
	}

	if b.providerPrefix == "" {
		b.providerPrefix = "diskplan-provider"
	}

	if b.providerPaths == nil {
		wd, _ := os.Getwd()
		b.providerPaths = []string{"/system/providers", "/usr/local/system/providers", wd}
	}

	if !b.hasLogger {
		b.logger = types.NewLogger("bus", "info", true)
	}

	b.LoadProviders()
	for i := range b.Events {
		e := b.Events[i]
		b.Response(e, func(p *pluggable.Plugin, r *pluggable.EventResponse) {
			b.logger.Debug().Str("from", p.Name).Str("at", p.Executable).Str("type", string(e)).Msg("Received event from provider")
			if r.Errored() || r.State == EventResponseError {
				msg := r.Error
				if msg == "" {
					msg = "answered " + EventResponseError
				}
				err := fmt.Errorf("%w: %s (%s): %s", ErrProvider, p.Name, e, msg)
				b.logger.Error().Err(err).Str("at", p.Executable).Msg("Error in provider")
				b.errs = append(b.errs, err)
				return
			}
			switch r.State {
			case "", EventResponseSuccess:
			case EventResponseNotApplicable:
				b.logger.Debug().Str("from", p.Name).Str("type", string(e)).Msg("Provider does not handle this disk")
			default:
				b.logger.Debug().Str("state", r.State).Str("from", p.Name).Str("type", string(e)).Msg("Received event from provider")
			}
		})
	}
	b.registered = true
}

// Emit publishes an event and returns the errors providers answered with.
func (b *Bus) Emit(e pluggable.EventType, payload interface{}) error {
	b.errs = nil
	if _, err := b.Publish(e, payload); err != nil {
		return err
	}
	return errors.Join(b.errs...)
}

func applyPayload(g planner.DiskActions) ApplyPayload {
	p := ApplyPayload{Device: g.Device, PlanID: g.PlanID}
	for _, a := range g.Actions {
		p.Commands = append(p.Commands, a.String())
	}
	return p
}

// BeforeDisk lets providers veto a disk before its actions run.
func (b *Bus) BeforeDisk(g planner.DiskActions) error {
	return b.Emit(EventBeforeApply, applyPayload(g))
}

// AfterDisk tells providers how a disk went. Their answers are only logged.
func (b *Bus) AfterDisk(g planner.DiskActions, runErr error) {
	p := applyPayload(g)
	if runErr != nil {
		p.Error = runErr.Error()
	}
	if err := b.Emit(EventAfterApply, p); err != nil {
		b.logger.Warn().Err(err).Str("device", g.Device).Msg("provider failed after apply")
	}
}

type Options func(d *Bus)

// WithLogger allows to set a custom logger for the bus.
func WithLogger(logger types.Logger) Options {
	return func(d *Bus) {
		d.logger = logger
		d.hasLogger = true
	}
}

// WithProviderPrefix allows to set the prefix for provider plugins. If set, it will override the default prefix.
func WithProviderPrefix(prefix string) Options {
	return func(d *Bus) {
		d.providerPrefix = prefix
	}
}

// WithProviderPaths allows to set the paths to search for provider plugins. If set, it will override the default paths.
func WithProviderPaths(paths ...string) Options {
	return func(d *Bus) {
		d.providerPaths = paths
	}
}
