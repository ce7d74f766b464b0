// Package cli contains the narrowphase command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	sceneFlag       = "scene"
	debugFlag       = "debug"
	fromFlag        = "from"
	toFlag          = "to"
	allFlag         = "all"
	bodyFlag        = "body"
	pointFlag       = "point"
	maxDistanceFlag = "max-distance"
	workersFlag     = "workers"
	minFlag         = "min"
	maxFlag         = "max"
)

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut. Every call builds fresh flag state.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "narrowphase",
		Usage:           "run collision queries against a JSON scene",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     sceneFlag,
				Aliases:  []string{"s"},
				Usage:    "load the scene from `FILE`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    debugFlag,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "check the scene and list its bodies",
				Action: ValidateAction,
			},
			{
				Name:  "raycast",
				Usage: "cast a ray through the scene",
				Flags: []cli.Flag{
					&cli.Float64SliceFlag{
						Name:     fromFlag,
						Usage:    "ray start as x,y,z",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:     toFlag,
						Usage:    "ray end as x,y,z",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  allFlag,
						Usage: "report every hit instead of the closest",
					},
				},
				Action: RaycastAction,
			},
			{
				Name:  "distance",
				Usage: "measure the distance from a point or a body to the rest of the scene",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  bodyFlag,
						Usage: "name of the query body",
					},
					&cli.Float64SliceFlag{
						Name:  pointFlag,
						Usage: "query point as x,y,z",
					},
					&cli.Float64Flag{
						Name:  maxDistanceFlag,
						Usage: "largest distance to report",
						Value: 10,
					},
				},
				Action: DistanceAction,
			},
			{
				Name:  "cast",
				Usage: "sweep a body to a new position and report the first contact",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     bodyFlag,
						Usage:    "name of the body to sweep",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:     toFlag,
						Usage:    "end position as x,y,z",
						Required: true,
					},
				},
				Action: CastAction,
			},
			{
				Name:  "contacts",
				Usage: "generate contact manifolds for every nearby pair of bodies",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  maxDistanceFlag,
						Usage: "largest separation that still produces contacts",
						Value: 0.01,
					},
					&cli.IntFlag{
						Name:  workersFlag,
						Usage: "number of workers, 0 for the default",
					},
				},
				Action: ContactsAction,
			},
			{
				Name:  "overlap",
				Usage: "list the leaves overlapping an axis-aligned box",
				Flags: []cli.Flag{
					&cli.Float64SliceFlag{
						Name:     minFlag,
						Usage:    "box minimum as x,y,z",
						Required: true,
					},
					&cli.Float64SliceFlag{
						Name:     maxFlag,
						Usage:    "box maximum as x,y,z",
						Required: true,
					},
				},
				Action: OverlapAction,
			},
		},
		Writer:    out,
		ErrWriter: errOut,
	}
}
