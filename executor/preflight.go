package executor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kairos-io/diskplan/planner"
	mountUtils "k8s.io/mount-utils"
)

var ErrDeviceBusy = errors.New("device is in use")

// checkNotMounted fails when the device or any of its partitions shows up in
// the mount table.
func checkNotMounted(mounter mountUtils.Interface, groups []planner.DiskActions) error {
	mounts, err := mounter.List()
	if err != nil {
		return fmt.Errorf("listing mount points: %w", err)
	}
	for _, g := range groups {
		for _, mp := range mounts {
			if belongsTo(mp.Device, g.Device) {
				return fmt.Errorf("%w: %s is mounted on %s", ErrDeviceBusy, mp.Device, mp.Path)
			}
		}
	}
	return nil
}

// belongsTo matches the device itself and its partition nodes, so /dev/sda
// owns /dev/sda1 but not /dev/sdb1 or /dev/sdaa1.
func belongsTo(node, device string) bool {
	if node == device {
		return true
	}
	rest, ok := strings.CutPrefix(node, device)
	if !ok {
		return false
	}
	rest = strings.TrimPrefix(rest, "p")
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
