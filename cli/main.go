package main

import (
	"fmt"
	"os"

	"github.com/kvittoapp/kvitto/internal/signals"
	"github.com/kvittoapp/kvitto/internal/version"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "kvitto"
	app.Usage = "Manage receipts from the command line"
	app.Version = fmt.Sprintf(
		"%s -- commit %s",
		version.Version(),
		version.Commit(),
	)
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure API server connections when using TLS",
		},
	}
	app.Commands = []*cli.Command{
		healthCommand,
		loginCommand,
		logoutCommand,
		receiptCommand,
		refreshCommand,
		settingsCommand,
		statusCommand,
		whoamiCommand,
	}
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		fmt.Printf("\n%s\n\n", err)
		os.Exit(1)
	}
	fmt.Println()
}
