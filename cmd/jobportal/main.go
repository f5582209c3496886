package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"jobportal/cmd/jobportal/commands"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "path to env file",
		Value: ".env",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "jobportal",
		Usage: "job portal API, notification worker and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP API",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:  "port",
						Usage: "HTTP port, overrides HTTP_PORT",
					},
				},
				Action: commands.ServeAction,
			},
			{
				Name:  "worker",
				Usage: "process queued notification emails",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "number of tasks processed in parallel",
						Value: 5,
					},
				},
				Action: commands.WorkerAction,
			},
			{
				Name:   "migrate",
				Usage:  "apply the database schema",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.MigrateAction,
			},
			{
				Name:  "cache",
				Usage: "response cache maintenance",
				Commands: []*cli.Command{
					{
						Name:  "clear",
						Usage: "delete cached responses matching a glob pattern",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:  "pattern",
								Usage: "glob over cache keys, e.g. jobs:detail:*",
								Value: "*",
							},
						},
						Action: commands.CacheClearAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
