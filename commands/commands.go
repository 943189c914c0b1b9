// Package commands wires the diskplan packages into a command line.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/kairos-io/diskplan/bus"
	"github.com/kairos-io/diskplan/config"
	"github.com/kairos-io/diskplan/executor"
	"github.com/kairos-io/diskplan/ghw"
	"github.com/kairos-io/diskplan/planner"
	"github.com/kairos-io/diskplan/report"
	"github.com/kairos-io/diskplan/runner"
	"github.com/kairos-io/diskplan/size"
	"github.com/kairos-io/diskplan/types"
	"github.com/kairos-io/diskplan/verify"
	"github.com/twpayne/go-vfs/v4"
	"github.com/urfave/cli/v2"
	mountUtils "k8s.io/mount-utils"
)

var ErrInvalidCapacityFlag = errors.New("invalid --capacity value")

// Host collaborators, replaced in tests.
var (
	hostFS     types.FS = vfs.OSFS
	newRunner           = func(l types.Logger, c *cli.Context) runner.Runner {
		return runner.NewExecRunner(l, c.Duration(commandTimeoutFlag.Name))
	}
	newMounter = func() mountUtils.Interface { return mountUtils.New("") }
	newProber  = func(l types.Logger) planner.CapacityProbe {
		return ghw.NewProber(hostFS, ghw.NewPaths(""), l)
	}
	listDisks = ghw.ListDisks
	newLogger = func(cCtx *cli.Context) types.Logger {
		level := "info"
		if cCtx.Bool(debugFlag.Name) {
			level = "debug"
		}
		return types.NewLogger("diskplan", level, cCtx.Bool(quietFlag.Name))
	}
)

// LoadEnv reads the --env-file files into the environment. Variables already
// set win. The global flags were parsed before the files were read, so the
// ones left unset on the command line pick up their variables here.
func LoadEnv(cCtx *cli.Context) error {
	files := cCtx.StringSlice(envFileFlag.Name)
	if len(files) == 0 {
		return nil
	}

	unset := map[string][]string{}
	for _, f := range GlobalFlags() {
		ef, ok := f.(envFlag)
		if !ok || cCtx.IsSet(ef.Names()[0]) {
			continue
		}
		unset[ef.Names()[0]] = ef.GetEnvVars()
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}

	for name, vars := range unset {
		for _, v := range vars {
			if value, ok := os.LookupEnv(v); ok {
				if err := cCtx.Set(name, value); err != nil {
					return fmt.Errorf("%s from env file: %w", v, err)
				}
				break
			}
		}
	}
	return nil
}

type envFlag interface {
	Names() []string
	GetEnvVars() []string
}

func CliCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "plan",
			Usage: "show the partitioning and mkfs commands a setup needs, without touching any disk",
			Flags: append(setupFlags(), outputFlag, queryFlag),
			Action: func(cCtx *cli.Context) error {
				logger := newLogger(cCtx)
				defer logger.Close()

				r, err := buildReport(cCtx, logger)
				if err != nil {
					return err
				}
				return printReport(cCtx.App.Writer, r, cCtx.String(outputFlag.Name), cCtx.String(queryFlag.Name))
			},
		},
		{
			Name:  "apply",
			Usage: "review, confirm and run the plan of a setup",
			Flags: append(setupFlags(), dryRunFlag, yesFlag, commandTimeoutFlag, settleFlag, providersFlag, verifyFlag),
			Action: func(cCtx *cli.Context) error {
				logger := newLogger(cCtx)
				defer logger.Close()

				r, err := buildReport(cCtx, logger)
				if err != nil {
					return err
				}

				var confirmer executor.Confirmer = executor.NewPromptConfirmer(cCtx.App.Reader, cCtx.App.Writer)
				if cCtx.Bool(yesFlag.Name) {
					confirmer = executor.AutoConfirm{}
				}
				opts := []executor.Option{
					executor.WithConfirmer(confirmer),
					executor.WithOutput(cCtx.App.Writer),
					executor.WithMounter(newMounter()),
					executor.WithSettle(cCtx.Duration(settleFlag.Name)),
				}
				if dirs := cCtx.StringSlice(providersFlag.Name); len(dirs) > 0 {
					b := bus.NewBus()
					b.Initialize(bus.WithLogger(logger), bus.WithProviderPaths(dirs...))
					opts = append(opts, executor.WithHook(b))
				}
				e := executor.New(logger, newRunner(logger, cCtx), opts...)

				outcome, err := e.Run(r.DiskActions(), cCtx.Bool(dryRunFlag.Name))
				logger.Info().Str("outcome", outcome.String()).Msg("disk setup finished")
				if err != nil {
					return err
				}
				if outcome == executor.Applied && cCtx.Bool(verifyFlag.Name) {
					return verifyReport(logger, r)
				}
				return nil
			},
		},
		{
			Name:  "verify",
			Usage: "check that the partition tables on disk match the plan of a setup",
			Flags: setupFlags(),
			Action: func(cCtx *cli.Context) error {
				logger := newLogger(cCtx)
				defer logger.Close()

				r, err := buildReport(cCtx, logger)
				if err != nil {
					return err
				}
				if err := verifyReport(logger, r); err != nil {
					return err
				}
				fmt.Fprintln(cCtx.App.Writer, "partition tables match the plan")
				return nil
			},
		},
		{
			Name:  "disks",
			Usage: "list the block devices of this host",
			Flags: []cli.Flag{outputFlag},
			Action: func(cCtx *cli.Context) error {
				logger := newLogger(cCtx)
				defer logger.Close()

				disks, err := listDisks(logger)
				if err != nil {
					return err
				}
				return printDisks(cCtx.App.Writer, disks, cCtx.String(outputFlag.Name))
			},
		},
		{
			Name:  "schema",
			Usage: "print the JSON schema of setup files",
			Action: func(cCtx *cli.Context) error {
				s, err := config.Schema()
				if err != nil {
					return err
				}
				fmt.Fprintln(cCtx.App.Writer, string(s))
				return nil
			},
		},
	}
}

func configPaths(cCtx *cli.Context) ([]string, error) {
	paths := cCtx.StringSlice(configFlag.Name)
	if name := cCtx.String(setupFlag.Name); name != "" {
		paths = append(paths, config.SetupPath(cCtx.String(setupsDirFlag.Name), name))
	}
	if len(paths) == 0 {
		return nil, errors.New("either --config or --setup is required")
	}
	return paths, nil
}

// ParseCapacities turns DEVICE=SIZE pairs into byte counts.
func ParseCapacities(values []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(values))
	for _, v := range values {
		device, spec, ok := strings.Cut(v, "=")
		if !ok || device == "" {
			return nil, fmt.Errorf("%w: %q, want DEVICE=SIZE", ErrInvalidCapacityFlag, v)
		}
		b, fixed, err := size.Parse(spec)
		if err != nil || !fixed {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCapacityFlag, v)
		}
		out[device] = b
	}
	return out, nil
}

func buildReport(cCtx *cli.Context, logger types.Logger) (report.Report, error) {
	paths, err := configPaths(cCtx)
	if err != nil {
		return report.Report{}, err
	}
	cfg, err := config.Load(hostFS, logger, paths...)
	if err != nil {
		return report.Report{}, err
	}

	policy, err := planner.ParseFillPolicy(cCtx.String(fillPolicyFlag.Name))
	if err != nil {
		return report.Report{}, err
	}

	sizes, err := ParseCapacities(cCtx.StringSlice(capacityFlag.Name))
	if err != nil {
		return report.Report{}, err
	}
	var probe planner.CapacityProbe = newProber(logger)
	if len(sizes) > 0 {
		probe = ghw.StaticCapacity{Sizes: sizes, Fallback: probe}
	}

	return report.Build(logger, cfg.Disks, probe, planner.WithFillPolicy(policy))
}

func verifyReport(logger types.Logger, r report.Report) error {
	var result error
	for _, d := range r.Disks {
		if err := verify.Disk(hostFS, logger, d); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

func printReport(w io.Writer, r report.Report, output, query string) error {
	if query != "" {
		res, err := r.Query(query)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, res)
		return nil
	}

	switch output {
	case "json":
		b, err := r.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	case "text", "":
		return r.WriteText(w)
	}
	return fmt.Errorf("unknown output format %q", output)
}

func printDisks(w io.Writer, disks []ghw.DiskInfo, output string) error {
	if output == "json" {
		b, err := json.MarshalIndent(disks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	for _, d := range disks {
		mounted := ""
		if d.Mounted {
			mounted = " (in use)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d partitions%s\n", d.Device, d.HumanSize, d.DriveType, d.Model, d.Partitions, mounted)
	}
	return nil
}
