package main

import (
	"context"
	"encoding/json"

	"github.com/dukex/wflguard/pkg/catalog"
	cli "github.com/urfave/cli/v3"
)

func CatalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Print the allow-list tables",
		Action: func(_ context.Context, command *cli.Command) error {
			encoder := json.NewEncoder(command.Root().Writer)
			encoder.SetIndent("", "  ")

			return encoder.Encode(catalog.Snapshot())
		},
	}
}
