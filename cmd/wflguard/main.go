// Package main provides the wflguard command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/wflguard/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "wflguard",
		Usage:                 "Validate generated .wfl automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.SetupWithFormat(command.String("log-level"), command.String("log-format"), os.Stderr)

			return ctx, nil
		},
		Commands: []*cli.Command{
			ValidateCommand(),
			ExtractCommand(),
			CatalogCommand(),
			ServeCommand(),
			WorkerCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
