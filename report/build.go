package report

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/types"
	"github.com/kairos-io/diskplan/types/partitions"
)

// Build probes, resolves and builds every disk. Disks are planned
// independently and all failures are returned together; a report is only
// returned when every disk could be planned.
func Build(logger types.Logger, disks []partitions.Disk, probe planner.CapacityProbe, opts ...planner.Option) (Report, error) {
	var result error
	r := Report{Disks: make([]Disk, 0, len(disks))}

	for _, disk := range disks {
		log := logger.With().Str("device", disk.Device()).Logger()

		capacity, err := probe.Capacity(disk.Device())
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("probing %s: %w", disk.Device(), err))
			continue
		}
		log.Debug().Uint64("capacity", capacity).Msg("Got disk capacity")

		plan, err := planner.Resolve(disk, capacity, opts...)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if plan.DelegatedFillNotLast() {
			log.Warn().Msg("the fill partition is not the last one, sgdisk will leave no room for the partitions after it")
		}

		actions, err := planner.Build(disk, plan)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		d := NewDisk(disk, plan, actions)
		log.Info().Str("plan", d.PlanID).Int("actions", len(actions)).Msg("Planned disk")
		r.Disks = append(r.Disks, d)
	}

	if result != nil {
		return Report{}, result
	}
	return r, nil
}
