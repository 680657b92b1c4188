package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lostfound",
		Usage: "Match lost item reports against found ones by textual similarity",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"LOSTFOUND_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "Record store driver (memory, badger, postgres)",
			},
			&cli.StringFlag{
				Name:  "store-path",
				Usage: "BadgerDB directory (badger driver)",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Snapshot file (memory driver)",
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "PostgreSQL connection string (postgres driver)",
				EnvVars: []string{"LOSTFOUND_DSN"},
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Match strategy (rebuild, incremental)",
			},
			&cli.StringFlag{
				Name:  "log-env",
				Usage: "Logging environment (local, dev, prod)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to listen on (overrides http.port)",
					},
					&cli.BoolFlag{
						Name:  "notify",
						Usage: "Enable notification dispatch (overrides notify.enabled)",
					},
				},
			},
			{
				Name:   "add",
				Usage:  "Submit a lost or found report and print its best matches",
				Action: addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "Item type (lost, found)",
						Required: true,
					},
					&cli.StringFlag{Name: "name", Usage: "Item name"},
					&cli.StringFlag{Name: "description", Usage: "Item description"},
					&cli.StringFlag{Name: "place", Usage: "Where the item was lost or found"},
					&cli.StringFlag{Name: "date", Usage: "Date as YYYY-MM-DD (defaults to today)"},
					&cli.StringFlag{Name: "contact", Usage: "Email address or phone number"},
					&cli.StringFlag{Name: "image-ref", Usage: "Reference to an uploaded image"},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of matches to print (defaults to matcher.default_top_k)",
						Value: -1,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored reports in submission order",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Only this type (lost, found)"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive text filter"},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete a report",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Item ID", Required: true},
				},
			},
			{
				Name:   "match",
				Usage:  "Print the ranked matches of a report as JSON",
				Action: matchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Item ID", Required: true},
					&cli.IntFlag{Name: "top-k", Usage: "Number of matches (defaults to matcher.default_top_k)", Value: -1},
				},
			},
			{
				Name:   "report",
				Usage:  "Print the plain-text match report of a report",
				Action: reportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Item ID", Required: true},
					&cli.IntFlag{Name: "top-k", Usage: "Number of matches (defaults to matcher.default_top_k)", Value: -1},
				},
			},
			{
				Name:   "dashboard",
				Usage:  "Match every report of one type against the other type",
				Action: dashboardCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Source type (lost, found)", Value: "lost"},
					&cli.IntFlag{Name: "top-k", Usage: "Matches per report (defaults to matcher.dashboard_top_k)", Value: -1},
				},
			},
			{
				Name:   "notify",
				Usage:  "Compose the notice telling a match's owner about a report",
				Action: notifyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Source item ID", Required: true},
					&cli.StringFlag{Name: "match", Usage: "Matched item ID", Required: true},
					&cli.BoolFlag{Name: "send", Usage: "Dispatch the notice instead of only printing it"},
				},
			},
		},
	}
}
