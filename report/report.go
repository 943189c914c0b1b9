// Package report describes resolved plans for humans and for scripts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/diskfs/go-diskfs/partition/gpt"
	units "github.com/docker/go-units"
	"github.com/gofrs/uuid"
	"github.com/kairos-io/diskplan/constants"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/size"
	"github.com/kairos-io/diskplan/types/partitions"
	"github.com/pterm/pterm"
)

var typeGUIDs = map[string]gpt.Type{
	constants.EFITypeCode:   gpt.EFISystemPartition,
	constants.SwapTypeCode:  gpt.LinuxSwap,
	constants.LinuxTypeCode: gpt.LinuxFilesystem,
}

type Report struct {
	Disks []Disk `json:"disks"`
}

type Disk struct {
	Device        string           `json:"device"`
	Scheme        string           `json:"scheme"`
	Wipe          bool             `json:"wipe"`
	Capacity      uint64           `json:"capacity"`
	HumanCapacity string           `json:"human_capacity"`
	FillPolicy    string           `json:"fill_policy"`
	PlanID        string           `json:"plan_id"`
	Partitions    []Partition      `json:"partitions"`
	Actions       []planner.Action `json:"actions"`
}

type Partition struct {
	Number     int      `json:"number"`
	Path       string   `json:"path"`
	Mount      string   `json:"mount"`
	Label      string   `json:"label"`
	Filesystem string   `json:"fs,omitempty"`
	Flags      []string `json:"flags,omitempty"`
	Size       string   `json:"size"`
	Fill       bool     `json:"fill"`
	Bytes      *uint64  `json:"bytes,omitempty"`
	HumanSize  string   `json:"human_size"`
	TypeCode   string   `json:"type_code"`
	TypeGUID   string   `json:"type_guid"`
}

// PlanID identifies an action list: the same device and commands always give
// the same id, so a reviewed plan can be matched with the one being applied.
func PlanID(device string, actions []planner.Action) string {
	var b strings.Builder
	b.WriteString(device)
	for _, a := range actions {
		b.WriteByte('\n')
		b.WriteString(strings.Join(a.Command, "\x00"))
	}
	return uuid.NewV5(uuid.NamespaceURL, b.String()).String()
}

// NewDisk describes one resolved disk together with the actions built for it.
func NewDisk(disk partitions.Disk, plan planner.Plan, actions []planner.Action) Disk {
	d := Disk{
		Device:        disk.Device(),
		Scheme:        disk.Scheme(),
		Wipe:          disk.Wipe(),
		Capacity:      plan.Capacity,
		HumanCapacity: units.BytesSize(float64(plan.Capacity)),
		FillPolicy:    plan.Policy.String(),
		PlanID:        PlanID(disk.Device(), actions),
		Actions:       actions,
	}

	for i, e := range plan.Entries {
		m := e.Partition.Mount()
		code := planner.TypeCode(m)
		p := Partition{
			Number:     i + 1,
			Path:       disk.PartitionPath(i + 1),
			Mount:      m.String(),
			Label:      m.Label(),
			Filesystem: e.Partition.Filesystem(),
			Flags:      e.Partition.Flags(),
			Size:       size.Token(e.Size),
			Fill:       e.Fill,
			Bytes:      e.Size,
			HumanSize:  "rest of disk",
			TypeCode:   code,
			TypeGUID:   string(typeGUIDs[code]),
		}
		if e.Size != nil {
			p.HumanSize = units.BytesSize(float64(*e.Size))
		}
		d.Partitions = append(d.Partitions, p)
	}

	return d
}

// DiskActions groups the actions of every disk for the executor.
func (r Report) DiskActions() []planner.DiskActions {
	groups := make([]planner.DiskActions, 0, len(r.Disks))
	for _, d := range r.Disks {
		groups = append(groups, planner.DiskActions{Device: d.Device, PlanID: d.PlanID, Actions: d.Actions})
	}
	return groups
}

func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteText renders one partition table and one action table per disk.
func (r Report) WriteText(w io.Writer) error {
	for _, d := range r.Disks {
		header := fmt.Sprintf("%s (%s, %s, fill: %s, plan %s)", d.Device, d.Scheme, d.HumanCapacity, d.FillPolicy, d.PlanID)
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}

		parts := pterm.TableData{{"#", "Path", "Mount", "Label", "FS", "Size", "Type"}}
		for _, p := range d.Partitions {
			fs := p.Filesystem
			if fs == "" {
				fs = "-"
			}
			parts = append(parts, []string{fmt.Sprint(p.Number), p.Path, p.Mount, p.Label, fs, p.HumanSize, p.TypeCode})
		}
		out, err := pterm.DefaultTable.WithHasHeader().WithData(parts).Srender()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}

		out, err = ActionTable(d.Actions)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

// ActionTable renders actions with their displayable commands.
func ActionTable(actions []planner.Action) (string, error) {
	data := pterm.TableData{{"Step", "Description", "Command"}}
	for i, a := range actions {
		data = append(data, []string{fmt.Sprint(i + 1), a.Description, a.String()})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
