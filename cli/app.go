// Package cli contains the gdik command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/gdik/ik"
)

const (
	// Flags.
	debugFlag             = "debug"
	modelFlagPath         = "model"
	modelFlagSRDF         = "srdf"
	fkFlagJoints          = "joints"
	fkFlagLinks           = "link"
	solveFlagGroup        = "group"
	solveFlagParams       = "params"
	solveFlagSeed         = "seed"
	solveFlagTargets      = "target"
	solveFlagTimeout      = "timeout"
	solveFlagConsistency  = "consistency-limits"
	solveFlagRandomSeed   = "random-seed"
	solveFlagMaxRestarts  = "max-restarts"
	solveFlagTrace        = "trace"
)

var modelFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     modelFlagPath,
		Aliases:  []string{"m"},
		Usage:    "robot description `FILE`, either a .json kinematics model or a .urdf",
		Required: true,
	},
	&cli.StringFlag{
		Name:  modelFlagSRDF,
		Usage: "SRDF `FILE` with the planning groups of a .urdf model",
	},
}

var app = &cli.App{
	Name:            "gdik",
	Usage:           "solve inverse kinematics for robot descriptions",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "fk",
			Usage:     "print the poses of links for a joint configuration",
			UsageText: "gdik fk --model <file> --joints <values> [--link <name>...]",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     fkFlagJoints,
					Aliases:  []string{"j"},
					Usage:    "comma separated joint values, one per model variable, in radians or mm",
					Required: true,
				},
				&cli.StringSliceFlag{
					Name:  fkFlagLinks,
					Usage: "link to print, may be repeated. all links are printed if none are given",
				},
			}, modelFlags...),
			Action: FKAction,
		},
		{
			Name:  "solve",
			Usage: "search for a joint configuration placing the tip links of a group at target poses",
			UsageText: "gdik solve --model <file> [--srdf <file>] --group <name> --target x,y,z,rx,ry,rz,theta " +
				"[--seed <values>] [--params <file>] [--timeout <duration>]",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     solveFlagGroup,
					Aliases:  []string{"g"},
					Usage:    "planning group to solve for",
					Required: true,
				},
				&cli.StringSliceFlag{
					Name:    solveFlagTargets,
					Aliases: []string{"t"},
					Usage: "target pose, given once per tip link in tip order, as x,y,z in mm optionally followed " +
						"by an axis angle rx,ry,rz,theta in radians",
					Required: true,
				},
				&cli.StringFlag{
					Name:  solveFlagSeed,
					Usage: "comma separated seed joint values, one per model variable. defaults to all zeros",
				},
				&cli.StringFlag{
					Name:  solveFlagParams,
					Usage: "YAML `FILE` with solver params, flat or under robot_description_kinematics.<group>",
				},
				&cli.DurationFlag{
					Name:  solveFlagTimeout,
					Usage: "search timeout",
					Value: ik.DefaultTimeout,
				},
				&cli.StringFlag{
					Name:  solveFlagConsistency,
					Usage: "comma separated maximum distance from the seed, one per group joint",
				},
				&cli.Int64Flag{
					Name:  solveFlagRandomSeed,
					Usage: "seed of the restart configurations, overrides the params file",
				},
				&cli.IntFlag{
					Name:  solveFlagMaxRestarts,
					Usage: "number of random restarts, negative for unlimited. overrides the params file",
				},
				&cli.BoolFlag{
					Name:  solveFlagTrace,
					Usage: "log every search iteration, implies --debug",
				},
			}, modelFlags...),
			Action: SolveAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
