package ghw

import (
	"github.com/jaypipes/ghw/pkg/block"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Disk listing", func() {
	It("Skips unused loop devices and flags mounted disks", func() {
		info := &block.Info{
			Disks: []*block.Disk{
				{Name: "loop0", SizeBytes: 0},
				{
					Name:      "sda",
					SizeBytes: 20 * 1024 * 1024 * 1024,
					Model:     "QEMU_HARDDISK",
					DriveType: block.DriveTypeHDD,
					Partitions: []*block.Partition{
						{Name: "sda1", MountPoint: "/boot"},
						{Name: "sda2"},
					},
				},
				{Name: "nvme0n1", SizeBytes: 512 * 1024 * 1024 * 1024, DriveType: block.DriveTypeSSD, IsRemovable: true},
			},
		}

		disks := fromBlockInfo(info)
		Expect(disks).To(HaveLen(2))
		Expect(disks[0].Device).To(Equal("/dev/sda"))
		Expect(disks[0].HumanSize).To(Equal("20GiB"))
		Expect(disks[0].Partitions).To(Equal(2))
		Expect(disks[0].Mounted).To(BeTrue())
		Expect(disks[0].DriveType).To(Equal("HDD"))
		Expect(disks[1].Device).To(Equal("/dev/nvme0n1"))
		Expect(disks[1].Removable).To(BeTrue())
		Expect(disks[1].Mounted).To(BeFalse())
	})
})
