package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/rxtech-lab/argo-sync/internal/config"
	"github.com/rxtech-lab/argo-sync/internal/payload"
	"github.com/rxtech-lab/argo-sync/internal/version"
	"github.com/urfave/cli/v3"
)

// schemaAction prints the JSON schema of the configuration or of a backend payload.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()

	var (
		schema string
		err    error
	)

	switch name {
	case "":
		fmt.Fprintf(cmd.Root().Writer, "available schemas: config, %s\n", strings.Join(payload.SchemaNames(), ", "))

		return nil
	case "config":
		schema, err = config.Schema()
	default:
		schema, err = payload.Schema(name)
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	fmt.Fprintln(cmd.Root().Writer, version.UserAgent())

	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "argo-sync",
		Usage: "Live dashboard for market tickers and strategy deployments",
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "Mount the live dashboard",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the YAML or JSON configuration file",
					},
					&cli.StringFlag{
						Name:    "base-url",
						Aliases: []string{"u"},
						Usage:   "Backend API base URL, overrides the configuration",
					},
					&cli.StringFlag{
						Name:    "token",
						Aliases: []string{"t"},
						Usage:   "Bearer token, overrides the configuration",
						Sources: cli.EnvVars("ARGO_SYNC_TOKEN"),
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
					},
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Write logs to this file; logs are discarded otherwise",
					},
				},
				Action: watchAction,
			},
			{
				Name:      "schema",
				Usage:     "Print the JSON schema of the configuration or of a backend payload",
				ArgsUsage: "[config|payload]",
				Action:    schemaAction,
			},
			{
				Name:   "version",
				Usage:  "Print the client version",
				Action: versionAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
