package planner_test

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/types/partitions"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func commands(actions []planner.Action) [][]string {
	out := make([][]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Command)
	}
	return out
}

var _ = Describe("Build", func() {
	capacity := uint64(20 * constants.GiB)

	It("Builds the full action list for a typical disk", func() {
		disk := mustDisk("/dev/sda", true, bootESP, swap2G, rootAll)
		plan, err := planner.Resolve(disk, capacity)
		Expect(err).ToNot(HaveOccurred())

		actions, err := planner.Build(disk, plan)
		Expect(err).ToNot(HaveOccurred())
		Expect(actions).To(HaveLen(13))
		Expect(commands(actions)).To(Equal([][]string{
			{"sgdisk", "--zap-all", "/dev/sda"},
			{"sgdisk", "-n1:0:+512M", "/dev/sda"},
			{"sgdisk", "-t1:ef00", "/dev/sda"},
			{"sgdisk", "-c1:boot", "/dev/sda"},
			{"sgdisk", "-n2:0:+2G", "/dev/sda"},
			{"sgdisk", "-t2:8200", "/dev/sda"},
			{"sgdisk", "-c2:swap", "/dev/sda"},
			{"sgdisk", "-n3:0:0", "/dev/sda"},
			{"sgdisk", "-t3:8300", "/dev/sda"},
			{"sgdisk", "-c3:root", "/dev/sda"},
			{"mkfs.vfat", "-F", "32", "/dev/sda1"},
			{"mkswap", "/dev/sda2"},
			{"mkfs.ext4", "-F", "/dev/sda3"},
		}))
		Expect(actions[0].Description).To(Equal("wipe disk"))
		Expect(actions[1].Description).To(Equal("create partition 1"))
		Expect(actions[2].Description).To(Equal("set type for partition 1"))
		Expect(actions[3].Description).To(Equal("label partition 1"))
		Expect(actions[10].Description).To(Equal("make FAT32 filesystem for EFI on partition 1"))
		Expect(actions[11].Description).To(Equal("make swap on partition 2"))
		Expect(actions[12].Description).To(Equal("make ext4 filesystem on partition 3"))
	})

	It("Keeps table numbers and device paths in step", func() {
		disk := mustDisk("/dev/sda", false,
			partitions.PartitionConfig{Mount: "/boot", Size: "512M", FS: "vfat"},
			partitions.PartitionConfig{Mount: "/", Size: "10G", FS: "ext4"},
			swap2G,
		)
		plan, err := planner.Resolve(disk, capacity)
		Expect(err).ToNot(HaveOccurred())

		actions, err := planner.Build(disk, plan)
		Expect(err).ToNot(HaveOccurred())
		Expect(actions).To(HaveLen(12))

		types := []string{"ef00", "8300", "8200"}
		labels := []string{"boot", "root", "swap"}
		fs := [][]string{
			{"mkfs.vfat", "-F", "32", "/dev/sda1"},
			{"mkfs.ext4", "-F", "/dev/sda2"},
			{"mkswap", "/dev/sda3"},
		}
		for i := 0; i < 3; i++ {
			n := i + 1
			Expect(actions[3*i].Command[1]).To(HavePrefix(fmt.Sprintf("-n%d:", n)))
			Expect(actions[3*i+1].Command[1]).To(Equal(fmt.Sprintf("-t%d:%s", n, types[i])))
			Expect(actions[3*i+2].Command[1]).To(Equal(fmt.Sprintf("-c%d:%s", n, labels[i])))
			Expect(actions[9+i].Command).To(Equal(fs[i]))
			Expect(actions[9+i].Command[len(fs[i])-1]).To(Equal(disk.PartitionPath(n)))
		}
	})

	It("Skips the wipe and uses the explicit fill size", func() {
		disk := mustDisk("/dev/sda", false, swap2G, rootAll)
		plan, err := planner.Resolve(disk, capacity, planner.WithFillPolicy(planner.FillExplicit))
		Expect(err).ToNot(HaveOccurred())

		actions, err := planner.Build(disk, plan)
		Expect(err).ToNot(HaveOccurred())
		Expect(actions).To(HaveLen(8))
		Expect(actions[0].Command).To(Equal([]string{"sgdisk", "-n1:0:+2G", "/dev/sda"}))
		Expect(actions[3].Command).To(Equal([]string{"sgdisk", "-n2:0:+18G", "/dev/sda"}))
	})

	It("Uses the p separator on nvme devices", func() {
		disk := mustDisk("/dev/nvme0n1", true, bootESP, rootAll)
		plan, err := planner.Resolve(disk, capacity)
		Expect(err).ToNot(HaveOccurred())

		actions, err := planner.Build(disk, plan)
		Expect(err).ToNot(HaveOccurred())
		Expect(actions[len(actions)-2].Command).To(Equal([]string{"mkfs.vfat", "-F", "32", "/dev/nvme0n1p1"}))
		Expect(actions[len(actions)-1].Command).To(Equal([]string{"mkfs.ext4", "-F", "/dev/nvme0n1p2"}))
		Expect(actions[1].Command).To(Equal([]string{"sgdisk", "-n1:0:+512M", "/dev/nvme0n1"}))
	})

	It("Labels other mounts after their path", func() {
		disk := mustDisk("/dev/sdb", false,
			partitions.PartitionConfig{Mount: "/var/lib", Size: "1G", FS: "xfs"},
			partitions.PartitionConfig{Mount: "/srv", Size: "fill", FS: "btrfs"},
			partitions.PartitionConfig{Mount: "/data", Size: "1G", FS: "vfat"},
		)
		plan, err := planner.Resolve(disk, capacity)
		Expect(err).ToNot(HaveOccurred())

		actions, err := planner.Build(disk, plan)
		Expect(err).ToNot(HaveOccurred())
		Expect(actions[1].Command).To(Equal([]string{"sgdisk", "-t1:8300", "/dev/sdb"}))
		Expect(actions[2].Command).To(Equal([]string{"sgdisk", "-c1:var_lib", "/dev/sdb"}))
		Expect(actions[9].Command).To(Equal([]string{"mkfs.xfs", "-f", "/dev/sdb1"}))
		Expect(actions[10].Command).To(Equal([]string{"mkfs.btrfs", "-f", "/dev/sdb2"}))
		Expect(actions[11].Command).To(Equal([]string{"mkfs.vfat", "-F", "32", "/dev/sdb3"}))
		Expect(actions[11].Description).To(Equal("make FAT32 filesystem on partition 3"))
	})

	It("Fails for a partition with no filesystem command", func() {
		disk := mustDisk("/dev/sda", false, partitions.PartitionConfig{Mount: "/data", Size: "1G", FS: "ext4"})
		b := uint64(constants.GiB)
		plan := planner.Plan{Device: "/dev/sda", Capacity: capacity, Entries: []planner.Entry{{Partition: partitions.Partition{}, Size: &b}}}

		_, err := planner.Build(disk, plan)
		Expect(err).To(MatchError(planner.ErrUnhandledFilesystem))
	})

	It("Refuses a plan made for another disk", func() {
		plan, err := planner.Resolve(mustDisk("/dev/sdb", false, rootAll), capacity)
		Expect(err).ToNot(HaveOccurred())
		_, err = planner.Build(mustDisk("/dev/sda", false, rootAll), plan)
		Expect(err).To(MatchError(planner.ErrPlanMismatch))
	})

	It("Maps mounts to type codes", func() {
		for mount, code := range map[string]string{"/boot": "ef00", "swap": "8200", "/": "8300", "/home": "8300"} {
			m, err := partitions.ParseMount(mount)
			Expect(err).ToNot(HaveOccurred())
			Expect(planner.TypeCode(m)).To(Equal(code), mount)
		}
	})
})

var _ = Describe("Action", func() {
	It("Splits program and arguments", func() {
		a := planner.Action{Command: []string{"mkfs.ext4", "-F", "/dev/sda3"}}
		Expect(a.Program()).To(Equal("mkfs.ext4"))
		Expect(a.Args()).To(Equal([]string{"-F", "/dev/sda3"}))
		Expect(planner.Action{}.Program()).To(BeEmpty())
		Expect(planner.Action{Command: []string{"true"}}.Args()).To(BeEmpty())
	})

	It("Displays commands a shell splits back into the same arguments", func() {
		for _, cmd := range [][]string{
			{"sgdisk", "-c1:root", "/dev/sda"},
			{"sgdisk", "-c2:my data", "/dev/sda"},
			{"echo", "it's", "$HOME", ""},
			{"sh", "-c", `printf "%s" a\b`},
		} {
			a := planner.Action{Command: cmd}
			split, err := shlex.Split(a.String())
			Expect(err).ToNot(HaveOccurred())
			Expect(split).To(Equal(cmd), a.String())
		}
	})

	It("Leaves plain commands unquoted", func() {
		Expect(planner.Action{Command: []string{"sgdisk", "-n3:0:0", "/dev/sda"}}.String()).To(Equal("sgdisk -n3:0:0 /dev/sda"))
	})

	It("Single quotes words with spaces or quotes", func() {
		Expect(planner.Action{Command: []string{"sgdisk", "-c2:my data", "/dev/sda"}}.String()).To(Equal("sgdisk '-c2:my data' /dev/sda"))
		Expect(planner.Action{Command: []string{"echo", ""}}.String()).To(Equal("echo ''"))
	})
})
