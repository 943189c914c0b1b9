package ghw

import (
	"fmt"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/block"
	"github.com/kairos-io/diskplan/types"
)

// DiskInfo is what the disks command shows about a candidate device.
type DiskInfo struct {
	Device     string `json:"device"`
	SizeBytes  uint64 `json:"size"`
	HumanSize  string `json:"human_size"`
	Model      string `json:"model"`
	DriveType  string `json:"drive_type"`
	Removable  bool   `json:"removable"`
	Partitions int    `json:"partitions"`
	Mounted    bool   `json:"mounted"`
}

// ListDisks returns the block devices the host knows about. GHW_CHROOT is
// honoured by ghw itself.
func ListDisks(logger types.Logger) ([]DiskInfo, error) {
	info, err := ghw.Block()
	if err != nil {
		return nil, fmt.Errorf("listing block devices: %w", err)
	}
	disks := fromBlockInfo(info)
	logger.Debug().Int("disks", len(disks)).Msg("Scanned block devices")
	return disks, nil
}

func fromBlockInfo(info *block.Info) []DiskInfo {
	out := make([]DiskInfo, 0, len(info.Disks))
	for _, d := range info.Disks {
		// We don't care about unused loop devices...
		if strings.HasPrefix(d.Name, "loop") && d.SizeBytes == 0 {
			continue
		}
		di := DiskInfo{
			Device:     filepath.Join("/dev", d.Name),
			SizeBytes:  d.SizeBytes,
			HumanSize:  units.BytesSize(float64(d.SizeBytes)),
			Model:      d.Model,
			DriveType:  d.DriveType.String(),
			Removable:  d.IsRemovable,
			Partitions: len(d.Partitions),
		}
		for _, p := range d.Partitions {
			if p.MountPoint != "" {
				di.Mounted = true
				break
			}
		}
		out = append(out, di)
	}
	return out
}
