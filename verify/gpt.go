package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diskfs/go-diskfs/backend"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/types"
)

var (
	ErrNoGPT      = errors.New("no GPT header found")
	ErrCorruptGPT = errors.New("corrupt GPT entry")
)

// maxTableEntries is the size of the entry array sgdisk writes.
const maxTableEntries = 128

type TableEntry struct {
	Number     int
	Name       string
	TypeGUID   string
	FirstLBA   uint64
	LastLBA    uint64
	NumSectors uint64
}

// SizeBytes assumes 512 byte logical sectors.
func (e TableEntry) SizeBytes() uint64 {
	return e.NumSectors * constants.SectorSize
}

// ReadGPT reads the primary partition table of a device or disk image.
func ReadGPT(fs types.FS, devicePath string) ([]TableEntry, error) {
	f, err := fs.Open(devicePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", devicePath, err)
	}
	defer f.Close()

	bf, ok := f.(backend.File)
	if !ok {
		return nil, fmt.Errorf("%s does not support random access", devicePath)
	}

	table, err := gpt.Read(bf, constants.SectorSize, constants.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("%w on %s: %w", ErrNoGPT, devicePath, err)
	}
	entries, err := tableEntries(table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", devicePath, err)
	}
	return entries, nil
}

func tableEntries(table *gpt.Table) ([]TableEntry, error) {
	entries := []TableEntry{}
	for i, p := range table.Partitions {
		if p == nil || p.Type == gpt.Unused || (p.Start == 0 && p.End == 0) {
			continue
		}
		number := p.GetIndex()
		if number <= 0 {
			number = i + 1
		}
		if p.End < p.Start {
			return nil, fmt.Errorf("%w: partition %d ends at sector %d before it starts at %d", ErrCorruptGPT, number, p.End, p.Start)
		}
		if len(entries) == maxTableEntries {
			return nil, fmt.Errorf("%w: more than %d partitions in use", ErrCorruptGPT, maxTableEntries)
		}

		entries = append(entries, TableEntry{
			Number:     number,
			Name:       p.Name,
			TypeGUID:   strings.ToUpper(string(p.Type)),
			FirstLBA:   p.Start,
			LastLBA:    p.End,
			NumSectors: p.End - p.Start + 1,
		})
	}
	return entries, nil
}
