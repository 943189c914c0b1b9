// Package constants This file contains all the constants that can be reused across the project
package constants

const (
	KiB      = uint64(1024)
	MiB      = 1024 * KiB
	GiB      = 1024 * MiB
	FilePerm = 0644
)

// Sentinels understood in the setup file.
const (
	FillSize   = "fill"
	SwapMount  = "swap"
	RootMount  = "/"
	BootMount  = "/boot"
	DevPrefix  = "/dev/"
	NVMeMarker = "nvme"
	GPT        = "gpt"
)

// Filesystems a partition may request.
const (
	Ext4  = "ext4"
	VFat  = "vfat"
	Btrfs = "btrfs"
	XFS   = "xfs"
)

// Partition flags.
const (
	ESPFlag  = "esp"
	BootFlag = "boot"
)

// sgdisk short type codes.
const (
	EFITypeCode   = "ef00"
	SwapTypeCode  = "8200"
	LinuxTypeCode = "8300"
)

// Labels given to the reserved mounts.
const (
	BootLabel = "boot"
	SwapLabel = "swap"
	RootLabel = "root"
)

const (
	SgdiskBin = "sgdisk"
	MkswapBin = "mkswap"
	// FillToken is the sgdisk end value meaning "last usable sector"
	FillToken = "0"
)

const (
	SectorSize  = 512
	LogDir      = "/var/log/diskplan/"
	JournalSock = "/run/systemd/journal/socket"
)

func Filesystems() []string {
	return []string{Ext4, VFat, Btrfs, XFS}
}

func Flags() []string {
	return []string{ESPFlag, BootFlag}
}

func Schemes() []string {
	return []string{GPT}
}
