// Package planner turns validated disks into resolved partition plans and
// the ordered sgdisk/mkfs actions that realise them. Nothing in this package
// touches a device: capacities are handed in by the caller and the output is
// plain data.
package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kairos-io/diskplan/types/partitions"
)

var (
	ErrOverCapacity   = errors.New("partition sizes exceed disk size")
	ErrNoSpaceForFill = errors.New("no space left for 'fill' partition")
)

// CapacityProbe reports the usable size in bytes of a block device.
type CapacityProbe interface {
	Capacity(device string) (uint64, error)
}

// FillPolicy decides how the fill partition gets its size.
type FillPolicy int

const (
	// FillDelegate leaves the fill size to sgdisk ("up to the last usable
	// sector"), which accounts for alignment and the backup GPT.
	FillDelegate FillPolicy = iota
	// FillExplicit resolves the fill size to capacity minus the fixed sizes.
	FillExplicit
)

func (f FillPolicy) String() string {
	if f == FillExplicit {
		return "explicit"
	}
	return "delegate"
}

func ParseFillPolicy(s string) (FillPolicy, error) {
	switch strings.ToLower(s) {
	case "", "delegate":
		return FillDelegate, nil
	case "explicit":
		return FillExplicit, nil
	}
	return FillDelegate, fmt.Errorf("unknown fill policy %q", s)
}

// Entry is one partition of a resolved plan. Size is nil only for a fill
// partition under FillDelegate.
type Entry struct {
	Partition partitions.Partition
	Size      *uint64
	Fill      bool
}

// Plan is the resolved layout of one disk, in declaration order.
type Plan struct {
	Device   string
	Capacity uint64
	Policy   FillPolicy
	Entries  []Entry
}

type options struct {
	policy FillPolicy
}

type Option func(*options)

func WithFillPolicy(p FillPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Resolve computes the final size of every partition of disk on a device of
// the given capacity. Fixed sizes that do not fit are an error, never
// truncated. Without a fill partition the fixed sizes must stay below the
// capacity; with one, they may reach it and the fill partition fails instead.
func Resolve(disk partitions.Disk, capacity uint64, opts ...Option) (Plan, error) {
	o := options{policy: FillDelegate}
	for _, opt := range opts {
		opt(&o)
	}

	parts := disk.Partitions()
	plan := Plan{
		Device:   disk.Device(),
		Capacity: capacity,
		Policy:   o.policy,
		Entries:  make([]Entry, 0, len(parts)),
	}

	var used uint64
	fillIndex := -1
	for i, p := range parts {
		b := p.SizeBytes()
		if b == nil {
			fillIndex = i
			plan.Entries = append(plan.Entries, Entry{Partition: p, Fill: true})
			continue
		}
		if *b > capacity-used {
			return Plan{}, fmt.Errorf("%w: %s needs more than the %d bytes of %s", ErrOverCapacity, p.Mount(), capacity, disk.Device())
		}
		used += *b
		plan.Entries = append(plan.Entries, Entry{Partition: p, Size: b})
	}

	if fillIndex < 0 {
		// the table itself needs room, fixed sizes can't take the whole disk
		if used == capacity {
			return Plan{}, fmt.Errorf("%w: fixed partitions take all %d bytes of %s, leaving no room for the partition table", ErrOverCapacity, capacity, disk.Device())
		}
		return plan, nil
	}

	remaining := capacity - used
	if remaining == 0 {
		return Plan{}, fmt.Errorf("%w on %s", ErrNoSpaceForFill, disk.Device())
	}

	if o.policy == FillExplicit {
		plan.Entries[fillIndex].Size = &remaining
	}

	return plan, nil
}

// DelegatedFillNotLast reports a delegated fill partition followed by other
// partitions. sgdisk gives it everything up to the end of the disk, so the
// partitions after it will fail to be created.
func (p Plan) DelegatedFillNotLast() bool {
	for i, e := range p.Entries {
		if e.Fill && e.Size == nil {
			return i != len(p.Entries)-1
		}
	}
	return false
}

// FixedBytes is the sum of every non fill partition in the plan.
func (p Plan) FixedBytes() uint64 {
	var sum uint64
	for _, e := range p.Entries {
		if !e.Fill && e.Size != nil {
			sum += *e.Size
		}
	}
	return sum
}
