package partitions

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kairos-io/diskplan/constants"
)

var (
	ErrInvalidDevice = errors.New("invalid disk device")
	ErrInvalidScheme = errors.New("invalid partition table scheme")
	ErrDuplicateRoot = errors.New("more than one root (/) partition")
	ErrDuplicateFill = errors.New("more than one 'fill' partition")
)

// DiskConfig is a storage entry as written in the setup file.
type DiskConfig struct {
	_          struct{}          `additionalProperties:"false"`
	Disk       string            `yaml:"disk" json:"disk" required:"true" description:"block device, e.g. /dev/sda"`
	Scheme     string            `yaml:"scheme,omitempty" json:"scheme,omitempty" description:"partition table type, defaults to gpt"`
	Wipe       bool              `yaml:"wipe" json:"wipe" required:"true" description:"zap the existing partition table first"`
	Partitions []PartitionConfig `yaml:"partitions" json:"partitions" required:"true" minItems:"1"`
}

// Disk is a validated device with the partitions it should end up with, in
// declaration order. Only NewDisk and DiskFromConfig produce one.
type Disk struct {
	device     string
	scheme     string
	wipe       bool
	partitions []Partition
}

func NewDisk(device, scheme string, wipe bool, parts []Partition) (Disk, error) {
	if !strings.HasPrefix(device, constants.DevPrefix) || len(device) == len(constants.DevPrefix) {
		return Disk{}, fmt.Errorf("%w: %q", ErrInvalidDevice, device)
	}
	if !slices.Contains(constants.Schemes(), scheme) {
		return Disk{}, fmt.Errorf("%w: %q", ErrInvalidScheme, scheme)
	}

	var roots, fills int
	for _, p := range parts {
		if p.IsRoot() {
			roots++
		}
		if p.IsFill() {
			fills++
		}
	}
	// A disk without root is fine, the root may live on another disk.
	if roots > 1 {
		return Disk{}, fmt.Errorf("%w on %s", ErrDuplicateRoot, device)
	}
	if fills > 1 {
		return Disk{}, fmt.Errorf("%w on %s", ErrDuplicateFill, device)
	}

	return Disk{
		device:     device,
		scheme:     scheme,
		wipe:       wipe,
		partitions: slices.Clone(parts),
	}, nil
}

// DiskFromConfig validates every partition of cfg and then the disk itself.
// An empty scheme means gpt.
func DiskFromConfig(cfg DiskConfig) (Disk, error) {
	parts := make([]Partition, 0, len(cfg.Partitions))
	for i, pc := range cfg.Partitions {
		p, err := NewPartition(pc)
		if err != nil {
			return Disk{}, fmt.Errorf("disk %s, partition %d: %w", cfg.Disk, i+1, err)
		}
		parts = append(parts, p)
	}

	scheme := cfg.Scheme
	if scheme == "" {
		scheme = constants.GPT
	}
	return NewDisk(cfg.Disk, scheme, cfg.Wipe, parts)
}

func (d Disk) Device() string { return d.device }
func (d Disk) Scheme() string { return d.scheme }
func (d Disk) Wipe() bool { return d.wipe }
func (d Disk) Partitions() []Partition { return slices.Clone(d.partitions) }

// Root returns the root partition of the disk, if it has one.
func (d Disk) Root() (Partition, bool) {
	for _, p := range d.partitions {
		if p.IsRoot() {
			return p, true
		}
	}
	return Partition{}, false
}

// PartitionPath is the device node of the partition with the given 1-based
// number: nvme style devices take a "p" separator.
func (d Disk) PartitionPath(number int) string {
	return PartitionPath(d.device, number)
}

func PartitionPath(device string, number int) string {
	if strings.Contains(device, constants.NVMeMarker) {
		return fmt.Sprintf("%sp%d", device, number)
	}
	return fmt.Sprintf("%s%d", device, number)
}
