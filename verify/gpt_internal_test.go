package verify

import (
	"github.com/diskfs/go-diskfs/partition/gpt"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Table entries", func() {
	ginkgo.It("Skips unused slots and numbers entries by slot", func() {
		table := &gpt.Table{Partitions: []*gpt.Partition{
			{Start: 2048, End: 4095, Type: gpt.LinuxFilesystem, Name: "root"},
			{Type: gpt.Unused},
			{Start: 4096, End: 8191, Type: gpt.LinuxSwap, Name: "swap"},
		}}

		entries, err := tableEntries(table)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Number).To(Equal(1))
		Expect(entries[0].NumSectors).To(Equal(uint64(2048)))
		Expect(entries[1].Number).To(Equal(3))
		Expect(entries[1].TypeGUID).To(Equal(string(gpt.LinuxSwap)))
	})

	ginkgo.It("Rejects an entry that ends before it starts", func() {
		table := &gpt.Table{Partitions: []*gpt.Partition{
			{Start: 4096, End: 2048, Type: gpt.LinuxFilesystem},
		}}
		_, err := tableEntries(table)
		Expect(err).To(MatchError(ErrCorruptGPT))
	})

	ginkgo.It("Rejects more entries in use than sgdisk can write", func() {
		table := &gpt.Table{}
		for i := uint64(0); i <= maxTableEntries; i++ {
			table.Partitions = append(table.Partitions, &gpt.Partition{Start: 2048 + i*8, End: 2055 + i*8, Type: gpt.LinuxFilesystem})
		}
		_, err := tableEntries(table)
		Expect(err).To(MatchError(ErrCorruptGPT))
	})
})
