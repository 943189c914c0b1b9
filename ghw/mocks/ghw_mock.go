package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/ghw"
)

// Disk is a fake block device: a name under /sys/block and its size.
type Disk struct {
	Name      string
	SizeBytes uint64
	// Partitions are only created as /sys/block/<disk>/<name> entries.
	Partitions []string
}

// GhwMock builds a fake /sys/block under a temporary chroot and points
// GHW_CHROOT at it, so both the prober and ghw read the fake devices.
type GhwMock struct {
	Chroot string
	paths  *ghw.Paths
	disks  []Disk
}

func (g *GhwMock) AddDisk(disk Disk) {
	g.disks = append(g.disks, disk)
}

// CreateDevices writes every disk added so far. Sizes are stored in 512 byte
// sectors, the way the kernel does.
func (g *GhwMock) CreateDevices() {
	d, _ := os.MkdirTemp("", "ghwmock")
	g.Chroot = d
	g.paths = ghw.NewPaths(d)
	_ = os.Setenv("GHW_CHROOT", d)
	_ = os.MkdirAll(g.paths.SysBlock, 0755)
	for i, disk := range g.disks {
		diskPath := filepath.Join(g.paths.SysBlock, disk.Name)
		_ = os.Mkdir(diskPath, 0755)
		_ = os.WriteFile(filepath.Join(diskPath, "dev"), []byte(fmt.Sprintf("%d:0\n", i)), 0644)
		_ = os.WriteFile(filepath.Join(diskPath, "size"), []byte(strconv.FormatUint(disk.SizeBytes/constants.SectorSize, 10)), 0644)
		for j, part := range disk.Partitions {
			_ = os.Mkdir(filepath.Join(diskPath, part), 0755)
			_ = os.WriteFile(filepath.Join(diskPath, part, "dev"), []byte(fmt.Sprintf("%d:%d\n", i, j+1)), 0644)
		}
	}
}

// RemoveDisk removes the sysfs entry of a disk, as if it was unplugged.
func (g *GhwMock) RemoveDisk(disk string) {
	_ = os.RemoveAll(filepath.Join(g.paths.SysBlock, disk))
}

// Clean will remove the chroot dir and unset the env var
func (g *GhwMock) Clean() {
	_ = os.Unsetenv("GHW_CHROOT")
	if g.Chroot != "" {
		_ = os.RemoveAll(g.Chroot)
	}
}
