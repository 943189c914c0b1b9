package partitions

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/size"
)

var (
	ErrInvalidMount      = errors.New("invalid mount point")
	ErrInvalidSizeFormat = size.ErrInvalidSizeFormat
	ErrInvalidFilesystem = errors.New("invalid filesystem")
	ErrInvalidFlag       = errors.New("invalid partition flag")
)

// PartitionConfig is a partition entry as written in the setup file.
type PartitionConfig struct {
	_     struct{} `additionalProperties:"false"`
	Mount string   `yaml:"mount" json:"mount" required:"true" description:"absolute mount path or swap"`
	Size  string   `yaml:"size" json:"size" required:"true" description:"<n>K, <n>M, <n>G or fill"`
	FS    string   `yaml:"fs,omitempty" json:"fs,omitempty" description:"ext4, vfat, btrfs or xfs; omitted for swap"`
	Flags []string `yaml:"flags,omitempty" json:"flags,omitempty" description:"esp, boot"`
}

type MountKind int

const (
	MountOther MountKind = iota
	MountRoot
	MountBoot
	MountSwap
)

func (k MountKind) String() string {
	switch k {
	case MountRoot:
		return "root"
	case MountBoot:
		return "boot"
	case MountSwap:
		return "swap"
	default:
		return "other"
	}
}

// Mount is where a partition ends up. Path is empty for swap.
type Mount struct {
	Kind MountKind
	Path string
}

// ParseMount accepts "swap" or an absolute path. Paths are cleaned, so
// "/boot/" is the boot mount.
func ParseMount(s string) (Mount, error) {
	if s == constants.SwapMount {
		return Mount{Kind: MountSwap}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Mount{}, fmt.Errorf("%w: %q", ErrInvalidMount, s)
	}
	p := path.Clean(s)
	switch p {
	case constants.RootMount:
		return Mount{Kind: MountRoot, Path: p}, nil
	case constants.BootMount:
		return Mount{Kind: MountBoot, Path: p}, nil
	}
	return Mount{Kind: MountOther, Path: p}, nil
}

func (m Mount) String() string {
	if m.Kind == MountSwap {
		return constants.SwapMount
	}
	return m.Path
}

// Label is the GPT partition name for the mount: boot, swap and root for the
// reserved mounts, otherwise the path with separators turned into underscores.
func (m Mount) Label() string {
	switch m.Kind {
	case MountBoot:
		return constants.BootLabel
	case MountSwap:
		return constants.SwapLabel
	case MountRoot:
		return constants.RootLabel
	}
	return strings.ReplaceAll(strings.Trim(m.Path, "/"), "/", "_")
}

// Partition is a validated partition request. Only NewPartition produces one.
type Partition struct {
	mount      Mount
	size       string
	bytes      *uint64
	filesystem string
	flags      []string
}

func NewPartition(cfg PartitionConfig) (Partition, error) {
	m, err := ParseMount(cfg.Mount)
	if err != nil {
		return Partition{}, err
	}

	b, err := size.Bytes(cfg.Size, 0)
	if err != nil {
		return Partition{}, err
	}

	if m.Kind == MountSwap {
		if cfg.FS != "" {
			return Partition{}, fmt.Errorf("%w: swap partition must not define fs (got %q)", ErrInvalidFilesystem, cfg.FS)
		}
	} else {
		if cfg.FS == "" {
			return Partition{}, fmt.Errorf("%w: filesystem required for mount %s", ErrInvalidFilesystem, m)
		}
		if !slices.Contains(constants.Filesystems(), cfg.FS) {
			return Partition{}, fmt.Errorf("%w: %q", ErrInvalidFilesystem, cfg.FS)
		}
	}

	for _, f := range cfg.Flags {
		if !slices.Contains(constants.Flags(), f) {
			return Partition{}, fmt.Errorf("%w: %q", ErrInvalidFlag, f)
		}
	}

	return Partition{
		mount:      m,
		size:       cfg.Size,
		bytes:      b,
		filesystem: cfg.FS,
		flags:      slices.Clone(cfg.Flags),
	}, nil
}

func (p Partition) Mount() Mount { return p.mount }
func (p Partition) Size() string { return p.size }
func (p Partition) Filesystem() string { return p.filesystem }
func (p Partition) Flags() []string { return slices.Clone(p.flags) }
func (p Partition) IsRoot() bool { return p.mount.Kind == MountRoot }
func (p Partition) IsBoot() bool { return p.mount.Kind == MountBoot }
func (p Partition) IsSwap() bool { return p.mount.Kind == MountSwap }
func (p Partition) IsFill() bool { return size.IsFill(p.size) }
func (p Partition) HasFlag(f string) bool { return slices.Contains(p.flags, f) }

// SizeBytes returns the fixed size in bytes, or nil for a fill partition.
func (p Partition) SizeBytes() *uint64 {
	if p.bytes == nil {
		return nil
	}
	b := *p.bytes
	return &b
}

func (p Partition) String() string {
	fs := p.filesystem
	if fs == "" {
		fs = "-"
	}
	return fmt.Sprintf("[Mount: %s, Size: %s, FS: %s, Flags: %v]", p.mount, p.size, fs, p.flags)
}
