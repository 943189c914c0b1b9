//go:build linux

package ghw

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	BLKGETSIZE64 = 0x80081272 // ioctl request for block device size
)

func ioctlGetUint64(fd uintptr, req uint) (uint64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

// blockDeviceSize asks the kernel for the size in bytes of a block device.
func blockDeviceSize(device string) (uint64, error) {
	f, err := os.Open(device)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	size, err := ioctlGetUint64(f.Fd(), BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("BLKGETSIZE64 on %s: %w", device, err)
	}
	return size, nil
}
