package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "pet shop storefront server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file read before the environment",
				EnvVars: []string{"STOREFRONT_ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:  "purge-checkouts",
				Usage: "delete confirmed and invalidated checkout sessions",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Value: 7 * 24 * time.Hour,
						Usage: "only sessions untouched for this long",
					},
				},
				Action: purgeCheckouts,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
