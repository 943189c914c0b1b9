package planner_test

import (
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/types/partitions"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolve", func() {
	capacity := uint64(20 * constants.GiB)

	It("Leaves the fill size to sgdisk by default", func() {
		plan, err := planner.Resolve(mustDisk("/dev/sda", true, bootESP, swap2G, rootAll), capacity)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Policy).To(Equal(planner.FillDelegate))
		Expect(plan.Capacity).To(Equal(capacity))
		Expect(plan.Entries).To(HaveLen(3))
		Expect(*plan.Entries[0].Size).To(Equal(uint64(512 * constants.MiB)))
		Expect(*plan.Entries[1].Size).To(Equal(uint64(2 * constants.GiB)))
		Expect(plan.Entries[2].Fill).To(BeTrue())
		Expect(plan.Entries[2].Size).To(BeNil())
		Expect(plan.FixedBytes()).To(Equal(uint64(2*constants.GiB + 512*constants.MiB)))
		Expect(plan.DelegatedFillNotLast()).To(BeFalse())
	})

	It("Gives the fill partition what is left with the explicit policy", func() {
		plan, err := planner.Resolve(mustDisk("/dev/sda", true, bootESP, swap2G, rootAll), capacity, planner.WithFillPolicy(planner.FillExplicit))
		Expect(err).ToNot(HaveOccurred())
		Expect(*plan.Entries[2].Size).To(Equal(capacity - 2*constants.GiB - 512*constants.MiB))

		var sum uint64
		for _, e := range plan.Entries {
			sum += *e.Size
		}
		Expect(sum).To(Equal(capacity))
	})

	It("Resolves a disk without fill", func() {
		plan, err := planner.Resolve(mustDisk("/dev/sdb", false, partitions.PartitionConfig{Mount: "/data", Size: "5G", FS: "xfs"}), capacity)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.Entries).To(HaveLen(1))
		Expect(plan.Entries[0].Fill).To(BeFalse())
	})

	It("Rejects fixed sizes that take the whole disk", func() {
		_, err := planner.Resolve(mustDisk("/dev/sda", true, partitions.PartitionConfig{Mount: "/", Size: "20G", FS: "ext4"}), capacity)
		Expect(err).To(MatchError(planner.ErrOverCapacity))

		_, err = planner.Resolve(mustDisk("/dev/sda", true, partitions.PartitionConfig{Mount: "/", Size: "20479M", FS: "ext4"}), capacity)
		Expect(err).ToNot(HaveOccurred())
	})

	It("Rejects fixed sizes larger than the disk", func() {
		_, err := planner.Resolve(mustDisk("/dev/sda", true,
			partitions.PartitionConfig{Mount: "/", Size: "15G", FS: "ext4"},
			partitions.PartitionConfig{Mount: "/home", Size: "6G", FS: "ext4"},
		), capacity)
		Expect(err).To(MatchError(planner.ErrOverCapacity))
	})

	It("Rejects a fill partition with nothing left", func() {
		_, err := planner.Resolve(mustDisk("/dev/sda", true,
			partitions.PartitionConfig{Mount: "/", Size: "20G", FS: "ext4"},
			partitions.PartitionConfig{Mount: "/home", Size: "fill", FS: "ext4"},
		), capacity)
		Expect(err).To(MatchError(planner.ErrNoSpaceForFill))
	})

	It("Resolves a fill partition that is not last but flags it", func() {
		plan, err := planner.Resolve(mustDisk("/dev/sda", true, rootAll, swap2G), capacity)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.DelegatedFillNotLast()).To(BeTrue())

		plan, err = planner.Resolve(mustDisk("/dev/sda", true, rootAll, swap2G), capacity, planner.WithFillPolicy(planner.FillExplicit))
		Expect(err).ToNot(HaveOccurred())
		Expect(plan.DelegatedFillNotLast()).To(BeFalse())
	})

	It("Parses fill policies", func() {
		for in, expected := range map[string]planner.FillPolicy{"": planner.FillDelegate, "delegate": planner.FillDelegate, "Explicit": planner.FillExplicit} {
			p, err := planner.ParseFillPolicy(in)
			Expect(err).ToNot(HaveOccurred())
			Expect(p).To(Equal(expected))
		}
		_, err := planner.ParseFillPolicy("greedy")
		Expect(err).To(HaveOccurred())
		Expect(planner.FillExplicit.String()).To(Equal("explicit"))
	})
})
