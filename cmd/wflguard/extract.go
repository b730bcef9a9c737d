package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dukex/wflguard/pkg/extract"
	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/models"
	"github.com/dukex/wflguard/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Pull the workflow out of generator output, validate it and print it",
		ArgsUsage: "[file|-]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict-dates", Usage: "Reject a missing or malformed startDate instead of filling it"},
			&cli.BoolFlag{Name: "canonical", Usage: "Print compact JSON with sorted keys"},
			&cli.BoolFlag{Name: "feedback", Usage: "Print the correction request when the candidate is rejected"},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			text, err := readInput(command.Args().First(), command.Root().Reader)
			if err != nil {
				return err
			}

			verdict, err := services.NewValidation(services.WithLogger(log.WithModule("cli"))).Validate(ctx, text, services.Request{
				Source:      "cli",
				Extract:     true,
				StrictDates: command.Bool("strict-dates"),
			})
			if err != nil {
				return err
			}

			return printExtracted(command.Root().Writer, command.Root().ErrWriter, verdict, command.Bool("canonical"), command.Bool("feedback"))
		},
	}
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(name)
}

func printExtracted(out, errOut io.Writer, verdict *services.Verdict, canonical, feedback bool) error {
	if !verdict.Valid {
		if feedback {
			fmt.Fprint(out, verdict.Feedback())
		}

		return cli.Exit("[FAIL] "+verdict.Summary(), 1)
	}

	encoded, err := models.Encode(verdict.Workflow)
	if err != nil {
		return err
	}

	if canonical {
		encoded = extract.Canonical(encoded)
	}

	if _, err := fmt.Fprintln(out, string(encoded)); err != nil {
		return err
	}

	if verdict.Normalized {
		fmt.Fprintln(errOut, "schedule normalized")
	}

	return nil
}
