package ghw

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/types"
)

var (
	ErrUnknownDevice   = errors.New("unknown block device")
	ErrInvalidCapacity = errors.New("block device reports no capacity")
)

type Paths struct {
	SysBlock string
}

func NewPaths(withOptionalPrefix string) *Paths {
	p := &Paths{
		SysBlock: "/sys/block/",
	}

	// Allow overriding the paths via env var. It has precedence over anything
	val, exists := os.LookupEnv("GHW_CHROOT")
	if exists {
		val = strings.TrimSuffix(val, "/")
		p.SysBlock = fmt.Sprintf("%s%s", val, p.SysBlock)
		return p
	}

	if withOptionalPrefix != "" {
		withOptionalPrefix = strings.TrimSuffix(withOptionalPrefix, "/")
		p.SysBlock = fmt.Sprintf("%s%s", withOptionalPrefix, p.SysBlock)
	}
	return p
}

// Prober finds out how big a block device is. It asks the kernel first and
// falls back to /sys/block/<dev>/size, which counts 512 byte sectors.
type Prober struct {
	fs         types.FS
	paths      *Paths
	logger     types.Logger
	deviceSize func(string) (uint64, error)
	attempts   uint
	delay      time.Duration
}

type ProberOption func(*Prober)

// WithSysfsOnly skips the ioctl and only reads sysfs.
func WithSysfsOnly() ProberOption {
	return WithDeviceSizer(nil)
}

// WithDeviceSizer replaces the ioctl used to ask the kernel for the size.
func WithDeviceSizer(f func(device string) (uint64, error)) ProberOption {
	return func(p *Prober) { p.deviceSize = f }
}

// WithRetries sets how often a missing sysfs entry is read again, udev may
// not have created it yet right after a device shows up.
func WithRetries(attempts uint, delay time.Duration) ProberOption {
	return func(p *Prober) {
		p.attempts = attempts
		p.delay = delay
	}
}

func NewProber(fs types.FS, paths *Paths, logger types.Logger, opts ...ProberOption) *Prober {
	p := &Prober{
		fs:         fs,
		paths:      paths,
		logger:     logger,
		deviceSize: blockDeviceSize,
		attempts:   3,
		delay:      time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	if p.attempts == 0 {
		p.attempts = 1
	}
	return p
}

// Capacity returns the size in bytes of device, e.g. /dev/sda.
func (p *Prober) Capacity(device string) (uint64, error) {
	log := p.logger.With().Str("device", device).Logger()

	if p.deviceSize != nil {
		size, err := p.deviceSize(device)
		if err == nil && size > 0 {
			log.Debug().Uint64("size", size).Msg("Got disk size from ioctl")
			return size, nil
		}
		log.Debug().Err(err).Msg("ioctl size failed, falling back to sysfs")
	}

	var size uint64
	err := retry.Do(
		func() error {
			s, err := p.sysfsSize(device)
			if err != nil {
				return err
			}
			size = s
			return nil
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, os.ErrNotExist) }),
	)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
		}
		return 0, err
	}
	if size == 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCapacity, device)
	}
	log.Debug().Uint64("size", size).Msg("Got disk size from sysfs")
	return size, nil
}

func (p *Prober) sysfsSize(device string) (uint64, error) {
	// We can find the number of 512-byte sectors by examining the contents of
	// /sys/block/$DEVICE/size and calculate the physical bytes accordingly.
	path := filepath.Join(p.paths.SysBlock, filepath.Base(device), "size")
	p.logger.Trace().Str("path", path).Msg("Reading disk size")
	contents, err := p.fs.ReadFile(path)
	if err != nil {
		return 0, err
	}
	sectors, err := strconv.ParseUint(strings.TrimSpace(string(contents)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sectors * constants.SectorSize, nil
}

// StaticCapacity is a probe with fixed answers, used when sizes are given on
// the command line instead of read from the host.
type StaticCapacity struct {
	Sizes    map[string]uint64
	Fallback interface {
		Capacity(device string) (uint64, error)
	}
}

func (s StaticCapacity) Capacity(device string) (uint64, error) {
	if size, ok := s.Sizes[device]; ok {
		if size == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidCapacity, device)
		}
		return size, nil
	}
	if s.Fallback != nil {
		return s.Fallback.Capacity(device)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownDevice, device)
}
