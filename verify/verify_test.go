package verify_test

import (
	"os"
	"testing"

	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/report"
	"github.com/kairos-io/diskplan/types"
	"github.com/kairos-io/diskplan/types/partitions"
	"github.com/kairos-io/diskplan/verify"
	"github.com/twpayne/go-vfs/v4/vfst"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVerify(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Verify test suite")
}

type tableEntry struct {
	typeGUID gpt.Type
	name     string
	first    uint64
	sectors  uint64
}

const diskSize = 20 * constants.GiB

// writeTable puts a sparse disk image with a GPT holding entries at path.
func writeTable(fs *vfst.TestFS, path string, entries ...tableEntry) {
	raw, err := fs.RawPath(path)
	Expect(err).ToNot(HaveOccurred())
	f, err := os.OpenFile(raw, os.O_RDWR|os.O_CREATE, 0o644)
	Expect(err).ToNot(HaveOccurred())
	defer f.Close()
	Expect(f.Truncate(int64(diskSize))).To(Succeed())

	table := &gpt.Table{
		LogicalSectorSize:  constants.SectorSize,
		PhysicalSectorSize: constants.SectorSize,
		ProtectiveMBR:      true,
	}
	for _, e := range entries {
		table.Partitions = append(table.Partitions, &gpt.Partition{
			Start: e.first,
			End:   e.first + e.sectors - 1,
			Size:  e.sectors * constants.SectorSize,
			Type:  e.typeGUID,
			Name:  e.name,
		})
	}
	Expect(table.Write(f, int64(diskSize))).To(Succeed())
}

func plannedDisk() report.Disk {
	disk, err := partitions.DiskFromConfig(partitions.DiskConfig{
		Disk: "/dev/sda",
		Wipe: true,
		Partitions: []partitions.PartitionConfig{
			{Mount: "/boot", Size: "512M", FS: "vfat", Flags: []string{"esp"}},
			{Mount: "swap", Size: "2G"},
			{Mount: "/", Size: "fill", FS: "ext4"},
		},
	})
	Expect(err).ToNot(HaveOccurred())
	plan, err := planner.Resolve(disk, 20*constants.GiB)
	Expect(err).ToNot(HaveOccurred())
	actions, err := planner.Build(disk, plan)
	Expect(err).ToNot(HaveOccurred())
	return report.NewDisk(disk, plan, actions)
}

const (
	bootSectors = 512 * constants.MiB / constants.SectorSize
	swapSectors = 2 * constants.GiB / constants.SectorSize
)

var matching = []tableEntry{
	{gpt.EFISystemPartition, "boot", 2048, bootSectors},
	{gpt.LinuxSwap, "swap", 2048 + bootSectors, swapSectors},
	{gpt.LinuxFilesystem, "root", 2048 + bootSectors + swapSectors, 12345678},
}

var _ = Describe("Verify", func() {
	var logger types.Logger

	BeforeEach(func() {
		logger = types.NewNullLogger()
	})

	newFS := func(files map[string]interface{}) *vfst.TestFS {
		fs, cleanup, err := vfst.NewTestFS(files)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(cleanup)
		return fs
	}

	withTable := func(entries ...tableEntry) *vfst.TestFS {
		fs := newFS(map[string]interface{}{"/dev": &vfst.Dir{Perm: 0o755}})
		writeTable(fs, "/dev/sda", entries...)
		return fs
	}

	Describe("ReadGPT", func() {
		It("Reads names, types and sizes", func() {
			fs := withTable(matching...)

			entries, err := verify.ReadGPT(fs, "/dev/sda")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].Number).To(Equal(1))
			Expect(entries[0].Name).To(Equal("boot"))
			Expect(entries[0].TypeGUID).To(Equal("C12A7328-F81F-11D2-BA4B-00A0C93EC93B"))
			Expect(entries[0].SizeBytes()).To(Equal(uint64(512 * constants.MiB)))
			Expect(entries[1].TypeGUID).To(Equal(string(gpt.LinuxSwap)))
			Expect(entries[2].Name).To(Equal("root"))
		})

		It("Fails without a GPT header", func() {
			fs := newFS(map[string]interface{}{"/dev/sdb": make([]byte, 4096)})
			_, err := verify.ReadGPT(fs, "/dev/sdb")
			Expect(err).To(MatchError(verify.ErrNoGPT))
		})

		It("Fails for a missing device", func() {
			fs := newFS(map[string]interface{}{"/dev/sdb": make([]byte, 4096)})
			_, err := verify.ReadGPT(fs, "/dev/sdc")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Disk", func() {
		It("Accepts a table that matches the plan", func() {
			fs := withTable(matching...)
			Expect(verify.Disk(fs, logger, plannedDisk())).To(Succeed())
		})

		It("Lists every difference", func() {
			fs := withTable(
				tableEntry{gpt.EFISystemPartition, "boot", 2048, bootSectors - 1},
				tableEntry{gpt.LinuxFilesystem, "data", 2048 + bootSectors, swapSectors},
			)

			err := verify.Disk(fs, logger, plannedDisk())
			Expect(err).To(MatchError(verify.ErrLayoutMismatch))
			Expect(err.Error()).To(ContainSubstring("partition count"))
			Expect(err.Error()).To(ContainSubstring(`partition 1: size`))
			Expect(err.Error()).To(ContainSubstring(`partition 2: label is "data", want "swap"`))
			Expect(err.Error()).To(ContainSubstring("partition 2: type"))
			Expect(err.Error()).To(ContainSubstring("partition 3: presence"))
		})
	})

	Describe("Compare", func() {
		It("Only wants a fill partition to exist", func() {
			entries := []verify.TableEntry{
				{Number: 1, Name: "boot", TypeGUID: string(gpt.EFISystemPartition), NumSectors: bootSectors},
				{Number: 2, Name: "swap", TypeGUID: string(gpt.LinuxSwap), NumSectors: swapSectors},
				{Number: 3, Name: "root", TypeGUID: string(gpt.LinuxFilesystem), NumSectors: 1},
			}
			Expect(verify.Compare(plannedDisk(), entries)).To(BeEmpty())
		})
	})
})
