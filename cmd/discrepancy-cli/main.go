package main

import (
	"context"
	"os"

	"sentencing-discrepancy/config"
	"sentencing-discrepancy/models"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var (
	version = "v0.0.1-default"

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level [debug, info, warn, error]",
		Value:   "info",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}

	variantFlag = &cli.StringFlag{
		Name:    "variant",
		Usage:   "Record variant [legacy, extended]",
		Value:   string(models.VariantExtended),
		Sources: cli.EnvVars("VARIANT"),
	}

	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Case records as JSON lines or a JSON array (- for stdin)",
		Required: true,
	}
)

func main() {
	config.LoadEnvFiles()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "discrepancy-cli",
		Version: version,
		Usage:   "Batch tools for the sentencing discrepancy model",
		Flags: []cli.Flag{
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			config.SetupLogging(cmd.String(logLevelFlag.Name))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cleanCmd,
			categoriesCmd,
			scoreCmd,
			publishCmd,
		},
	}
}
