// Package verify reads back the partition table of a device and checks it
// against the plan that was applied to it.
package verify

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/diskplan/report"
	"github.com/kairos-io/diskplan/types"
)

var ErrLayoutMismatch = errors.New("partition table does not match the plan")

// Mismatch is one difference between the plan and the table on disk.
type Mismatch struct {
	Partition int
	Field     string
	Want      string
	Got       string
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("partition %d: %s is %q, want %q", m.Partition, m.Field, m.Got, m.Want)
}

// Compare lists every difference between a planned disk and the entries read
// from its table. Fixed sizes must match exactly, a fill partition only has
// to exist.
func Compare(d report.Disk, entries []TableEntry) []Mismatch {
	var out []Mismatch
	if len(entries) != len(d.Partitions) {
		out = append(out, Mismatch{Field: "partition count", Want: fmt.Sprint(len(d.Partitions)), Got: fmt.Sprint(len(entries))})
	}

	byNumber := make(map[int]TableEntry, len(entries))
	for _, e := range entries {
		byNumber[e.Number] = e
	}

	for _, p := range d.Partitions {
		e, ok := byNumber[p.Number]
		if !ok {
			out = append(out, Mismatch{Partition: p.Number, Field: "presence", Want: p.Path, Got: "missing"})
			continue
		}
		if e.Name != p.Label {
			out = append(out, Mismatch{Partition: p.Number, Field: "label", Want: p.Label, Got: e.Name})
		}
		if e.TypeGUID != p.TypeGUID {
			out = append(out, Mismatch{Partition: p.Number, Field: "type", Want: p.TypeGUID, Got: e.TypeGUID})
		}
		if !p.Fill && p.Bytes != nil && e.SizeBytes() != *p.Bytes {
			out = append(out, Mismatch{Partition: p.Number, Field: "size", Want: fmt.Sprint(*p.Bytes), Got: fmt.Sprint(e.SizeBytes())})
		}
	}
	return out
}

// Disk reads the table of d.Device from fs and compares it with d.
func Disk(fs types.FS, logger types.Logger, d report.Disk) error {
	entries, err := ReadGPT(fs, d.Device)
	if err != nil {
		return err
	}

	var result error
	for _, m := range Compare(d, entries) {
		result = multierror.Append(result, m)
	}
	if result != nil {
		logger.Warn().Str("device", d.Device).Err(result).Msg("partition table differs from plan")
		return fmt.Errorf("%w on %s: %w", ErrLayoutMismatch, d.Device, result)
	}
	logger.Info().Str("device", d.Device).Int("partitions", len(entries)).Msg("partition table matches plan")
	return nil
}
