//go:build !linux

package ghw

import "errors"

func blockDeviceSize(string) (uint64, error) {
	return 0, errors.New("block device size ioctl is only available on linux")
}
