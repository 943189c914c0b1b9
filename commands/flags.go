package commands

import (
	"time"

	"github.com/urfave/cli/v2"
)

var (
	debugFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "log at debug level",
		EnvVars: []string{"DISKPLAN_DEBUG"},
	}

	quietFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:    "quiet",
		Usage:   "do not log to the console",
		EnvVars: []string{"DISKPLAN_QUIET"},
	}

	envFileFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:  "env-file",
		Usage: "load DISKPLAN_* variables from a dotenv file before anything else",
	}

	configFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "setup file, repeat to merge several in order",
		EnvVars: []string{"DISKPLAN_CONFIG"},
	}

	setupFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "setup",
		Usage:   "named setup, read from <setups-dir>/setups/<name>/setup.yaml",
		EnvVars: []string{"DISKPLAN_SETUP"},
	}

	setupsDirFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "setups-dir",
		Value:   ".",
		Usage:   "directory holding the setups/ tree",
		EnvVars: []string{"DISKPLAN_SETUPS_DIR"},
	}

	capacityFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:  "capacity",
		Usage: "use DEVICE=SIZE (e.g. /dev/sda=20G) instead of probing the device",
	}

	fillPolicyFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "fill-policy",
		Value:   "delegate",
		Usage:   "size of the fill partition: delegate (to sgdisk) or explicit",
		EnvVars: []string{"DISKPLAN_FILL_POLICY"},
	}

	outputFlag *cli.StringFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   "text",
		Usage:   "text or json",
	}

	queryFlag *cli.StringFlag = &cli.StringFlag{
		Name:  "query",
		Usage: "print the result of a jq query on the JSON plan, e.g. 'disks[0].plan_id'",
	}

	dryRunFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "review and confirm the plan but do not run anything",
	}

	yesFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "do not ask for confirmation",
	}

	commandTimeoutFlag *cli.DurationFlag = &cli.DurationFlag{
		Name:    "command-timeout",
		Value:   5 * time.Minute,
		Usage:   "kill a partitioning or mkfs command running longer than this",
		EnvVars: []string{"DISKPLAN_COMMAND_TIMEOUT"},
	}

	settleFlag *cli.DurationFlag = &cli.DurationFlag{
		Name:  "settle",
		Value: 30 * time.Second,
		Usage: "wait up to this long for udev before creating filesystems, 0 disables",
	}

	providersFlag *cli.StringSliceFlag = &cli.StringSliceFlag{
		Name:    "providers-dir",
		Usage:   "run diskplan-provider-* executables from this directory before and after each disk",
		EnvVars: []string{"DISKPLAN_PROVIDERS_DIR"},
	}

	verifyFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:  "verify",
		Usage: "read back the partition tables after applying",
	}
)

func GlobalFlags() []cli.Flag {
	return []cli.Flag{debugFlag, quietFlag, envFileFlag}
}

func setupFlags() []cli.Flag {
	return []cli.Flag{configFlag, setupFlag, setupsDirFlag, capacityFlag, fillPolicyFlag}
}
