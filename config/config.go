// Package config loads setup files: YAML documents with a storage section
// describing disks and the partitions they should end up with.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/kairos-io/diskplan/types"
	"github.com/kairos-io/diskplan/types/partitions"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotAMapping     = errors.New("setup file must be a YAML mapping")
	ErrMissingRoot     = errors.New("no disk has a root (/) partition")
	ErrDuplicateRoot   = partitions.ErrDuplicateRoot
	ErrDuplicateDevice = errors.New("device listed more than once")
)

// Setup is the part of a setup file diskplan reads. Other top level keys
// belong to other tools and are left alone.
type Setup struct {
	Storage []partitions.DiskConfig `yaml:"storage" json:"storage" required:"true" minItems:"1" description:"disks to partition"`
}

type Config struct {
	Sources []string
	Values  Values
	Disks   []partitions.Disk
}

// SetupPath is where a named setup lives below dir.
func SetupPath(dir, name string) string {
	return filepath.Join(dir, "setups", name, "setup.yaml")
}

// Load reads and merges the given files, in order, and validates the result.
// Nothing is returned unless every disk and partition is valid.
func Load(fs types.FS, logger types.Logger, paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, errors.New("no setup file given")
	}

	c := &Config{Values: Values{}}
	for _, p := range paths {
		logger.Debug().Str("file", p).Msg("Reading setup file")
		data, err := fs.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading setup file: %w", err)
		}
		values, err := parseValues(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		merged, err := DeepMerge(c.Values, values)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", p, err)
		}
		m, ok := asMap(merged)
		if !ok {
			return nil, fmt.Errorf("merging %s: %w", p, ErrNotAMapping)
		}
		c.Values = m
		c.Sources = append(c.Sources, p)
	}

	if err := c.build(); err != nil {
		return nil, err
	}
	logger.Debug().Strs("sources", c.Sources).Int("disks", len(c.Disks)).Msg("Loaded setup")
	return c, nil
}

// Parse validates a single setup document.
func Parse(data []byte) (*Config, error) {
	values, err := parseValues(data)
	if err != nil {
		return nil, err
	}
	c := &Config{Values: values}
	if err := c.build(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseValues(data []byte) (Values, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		return nil, ErrNotAMapping
	}
	values := Values{}
	if err := node.Decode(&values); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return values, nil
}

func (c *Config) build() error {
	if err := Validate(c.Values); err != nil {
		return err
	}

	data, err := yaml.Marshal(c.Values)
	if err != nil {
		return err
	}
	var setup Setup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return fmt.Errorf("decoding storage: %w", err)
	}

	var result error
	seen := map[string]bool{}
	disks := make([]partitions.Disk, 0, len(setup.Storage))
	for _, dc := range setup.Storage {
		if seen[dc.Disk] {
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrDuplicateDevice, dc.Disk))
			continue
		}
		seen[dc.Disk] = true
		d, err := partitions.DiskFromConfig(dc)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		disks = append(disks, d)
	}
	if result != nil {
		return result
	}

	if err := checkRoot(disks); err != nil {
		return err
	}
	c.Disks = disks
	return nil
}

// checkRoot wants exactly one root partition over all disks.
func checkRoot(disks []partitions.Disk) error {
	var roots []string
	for _, d := range disks {
		if _, ok := d.Root(); ok {
			roots = append(roots, d.Device())
		}
	}
	switch len(roots) {
	case 0:
		return ErrMissingRoot
	case 1:
		return nil
	}
	return fmt.Errorf("%w: found on %v", ErrDuplicateRoot, roots)
}
