package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

const serviceName = "admin-console"

var (
	version = "dev"
	commit  = "000000000000"
)

func main() {
	app := &cli.App{
		Name:    serviceName,
		Usage:   "Diamond Host admin console backend",
		Version: version,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP and gRPC servers",
				Action: serve,
			},
			{
				Name:  "version",
				Usage: "Print build version & exit",
				Action: func(_ *cli.Context) error {
					fmt.Printf("%s-%s\n", version, commit)
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		slog.Error("admin console stopped", "err", err)
		os.Exit(1)
	}
}
