// Command eventhub serves the events API and runs its maintenance tasks.
//
// @title Eventhub API
// @version 1.0
// @description Event listing and management with creator or admin access control.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	_ "eventhub/docs"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("eventhub failed", "err", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "eventhub",
		Usage: "Publish and manage events over a JSON API.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			promoteCommand(),
		},
	}
}
