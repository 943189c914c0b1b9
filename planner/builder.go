package planner

import (
	"errors"
	"fmt"

	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/size"
	"github.com/kairos-io/diskplan/types/partitions"
)

var (
	ErrUnhandledFilesystem = errors.New("no filesystem command for partition")
	ErrPlanMismatch        = errors.New("plan does not belong to disk")
)

// mkfs commands per filesystem, the device path is appended.
var mkfsCommands = map[string][]string{
	constants.Ext4:  {"mkfs.ext4", "-F"},
	constants.Btrfs: {"mkfs.btrfs", "-f"},
	constants.XFS:   {"mkfs.xfs", "-f"},
	constants.VFat:  {"mkfs.vfat", "-F", "32"},
}

// Build produces the ordered actions that lay out plan on disk: an optional
// wipe, the three sgdisk table actions per partition and then one filesystem
// action per partition. Partition numbers are 1-based in declaration order in
// both passes, so a table action and a filesystem action for the same number
// always target the same partition.
func Build(disk partitions.Disk, plan Plan) ([]Action, error) {
	if plan.Device != disk.Device() || len(plan.Entries) != len(disk.Partitions()) {
		return nil, fmt.Errorf("%w: plan for %s, disk %s", ErrPlanMismatch, plan.Device, disk.Device())
	}

	device := disk.Device()
	actions := make([]Action, 0, 1+4*len(plan.Entries))

	if disk.Wipe() {
		actions = append(actions, Action{
			Description: "wipe disk",
			Command:     []string{constants.SgdiskBin, "--zap-all", device},
		})
	}

	for i, e := range plan.Entries {
		n := i + 1
		m := e.Partition.Mount()
		actions = append(actions,
			Action{
				Description: fmt.Sprintf("create partition %d", n),
				Command:     []string{constants.SgdiskBin, fmt.Sprintf("-n%d:0:%s", n, size.Token(e.Size)), device},
			},
			Action{
				Description: fmt.Sprintf("set type for partition %d", n),
				Command:     []string{constants.SgdiskBin, fmt.Sprintf("-t%d:%s", n, TypeCode(m)), device},
			},
			Action{
				Description: fmt.Sprintf("label partition %d", n),
				Command:     []string{constants.SgdiskBin, fmt.Sprintf("-c%d:%s", n, m.Label()), device},
			},
		)
	}

	for i, e := range plan.Entries {
		a, err := filesystemAction(e.Partition, i+1, disk.PartitionPath(i+1))
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, nil
}

// TypeCode is the sgdisk type code for a mount.
func TypeCode(m partitions.Mount) string {
	switch m.Kind {
	case partitions.MountBoot:
		return constants.EFITypeCode
	case partitions.MountSwap:
		return constants.SwapTypeCode
	}
	return constants.LinuxTypeCode
}

func filesystemAction(p partitions.Partition, number int, path string) (Action, error) {
	if p.IsSwap() {
		return Action{
			Description: fmt.Sprintf("make swap on partition %d", number),
			Command:     []string{constants.MkswapBin, path},
		}, nil
	}

	cmd, ok := mkfsCommands[p.Filesystem()]
	if !ok {
		return Action{}, fmt.Errorf("%w %d (%s)", ErrUnhandledFilesystem, number, p)
	}

	desc := fmt.Sprintf("make %s filesystem on partition %d", p.Filesystem(), number)
	if p.Filesystem() == constants.VFat {
		desc = fmt.Sprintf("make FAT32 filesystem on partition %d", number)
		if p.IsBoot() {
			desc = fmt.Sprintf("make FAT32 filesystem for EFI on partition %d", number)
		}
	}

	return Action{
		Description: desc,
		Command:     append(append([]string{}, cmd...), path),
	}, nil
}
