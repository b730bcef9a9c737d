package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/models"
	"github.com/dukex/wflguard/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var candidateExtensions = []string{".wfl", ".json"}

type validateOptions struct {
	request services.Request
	write   bool
	format  string
}

type fileResult struct {
	Name    string            `json:"name"`
	Verdict *services.Verdict `json:"verdict,omitempty"`
	Error   string            `json:"error,omitempty"`
	Written bool              `json:"written,omitempty"`
}

type summary struct {
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate workflow files and directories",
		ArgsUsage: "[paths...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "check-only", Usage: "Judge without normalizing the schedule"},
			&cli.BoolFlag{Name: "strict-dates", Usage: "Reject a missing or malformed startDate instead of filling it"},
			&cli.BoolFlag{Name: "no-schema", Usage: "Skip the JSON schema gate"},
			&cli.BoolFlag{Name: "extract", Usage: "Extract the JSON object from free-form text first"},
			&cli.BoolFlag{Name: "write", Usage: "Rewrite valid files whose schedule was normalized"},
			&cli.IntFlag{Name: "preview", Usage: "List the next N runs of scheduled workflows"},
			&cli.StringFlag{Name: "format", Usage: "Output format (text, json)", Value: formatText},
			verdictLogFlag(),
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			opts := validateOptions{
				request: services.Request{
					Source:      "cli",
					CheckOnly:   command.Bool("check-only"),
					StrictDates: command.Bool("strict-dates"),
					SkipSchema:  command.Bool("no-schema"),
					Extract:     command.Bool("extract"),
					Preview:     command.Int("preview"),
				},
				write:  command.Bool("write"),
				format: command.String("format"),
			}

			if opts.write && opts.request.CheckOnly {
				return cli.Exit("--write cannot be combined with --check-only", 2)
			}

			if opts.format != formatText && opts.format != formatJSON {
				return cli.Exit("unknown format "+opts.format, 2)
			}

			paths := command.Args().Slice()
			if len(paths) == 0 {
				paths = []string{"."}
			}

			logger := log.WithModule("cli")

			rt, err := newRuntime(ctx, command, logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx, logger)

			sum, err := runValidate(ctx, rt.service, command.Root().Writer, opts, paths)
			if err != nil {
				return err
			}

			if sum.Invalid > 0 {
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

// collectFiles expands directories into their .wfl and .json files. Named files are kept as given.
func collectFiles(paths []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, p)

			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && slices.Contains(candidateExtensions, strings.ToLower(filepath.Ext(path))) {
				files = append(files, path)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

type validator interface {
	Validate(ctx context.Context, raw []byte, req services.Request) (*services.Verdict, error)
}

func runValidate(ctx context.Context, svc validator, out io.Writer, opts validateOptions, paths []string) (summary, error) {
	var sum summary

	files, err := collectFiles(paths)
	if err != nil {
		return sum, err
	}

	if len(files) == 0 {
		return sum, errors.New("no .wfl or .json files found")
	}

	encoder := json.NewEncoder(out)

	for _, file := range files {
		result := validateFile(ctx, svc, opts, file)

		if result.Error == "" && result.Verdict.Valid {
			sum.Valid++
		} else {
			sum.Invalid++
		}

		if opts.format == formatJSON {
			if err := encoder.Encode(result); err != nil {
				return sum, err
			}

			continue
		}

		printResult(out, result)
	}

	if opts.format == formatJSON {
		return sum, encoder.Encode(map[string]summary{"summary": sum})
	}

	fmt.Fprintf(out, "Summary: %d valid, %d invalid\n", sum.Valid, sum.Invalid)

	return sum, nil
}

func validateFile(ctx context.Context, svc validator, opts validateOptions, file string) fileResult {
	result := fileResult{Name: filepath.Base(file)}

	raw, err := os.ReadFile(file)
	if err != nil {
		result.Error = err.Error()

		return result
	}

	req := opts.request
	req.Name = result.Name

	verdict, err := svc.Validate(ctx, raw, req)
	if err != nil {
		result.Error = err.Error()

		return result
	}

	result.Verdict = verdict

	if opts.write && verdict.Valid && verdict.Normalized && verdict.Workflow != nil {
		if err := writeWorkflow(file, verdict.Workflow); err != nil {
			result.Error = err.Error()

			return result
		}

		result.Written = true
	}

	return result
}

func writeWorkflow(file string, wf *models.Workflow) error {
	encoded, err := models.Encode(wf)
	if err != nil {
		return err
	}

	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	return os.WriteFile(file, append(encoded, '\n'), info.Mode().Perm())
}

func printResult(out io.Writer, result fileResult) {
	switch {
	case result.Error != "" && result.Verdict == nil:
		fmt.Fprintf(out, "[FAIL] %s: %s\n", result.Name, result.Error)
	case result.Verdict.Valid:
		fmt.Fprintf(out, "[OK] %s\n", result.Name)
	default:
		fmt.Fprintf(out, "[FAIL] %s: %s\n", result.Name, result.Verdict.Summary())
	}

	if result.Error != "" && result.Verdict != nil {
		fmt.Fprintf(out, "  error: %s\n", result.Error)
	}

	if result.Written {
		fmt.Fprintf(out, "  normalized schedule written\n")
	}

	if result.Verdict != nil && result.Verdict.Schedule != nil {
		printSchedule(out, result.Verdict.Schedule)
	}
}

func printSchedule(out io.Writer, preview *services.SchedulePreview) {
	if preview.Cron != "" {
		fmt.Fprintf(out, "  cron: %s\n", preview.Cron)
	}

	for _, run := range preview.NextRuns {
		fmt.Fprintf(out, "  next: %s\n", run.Format(time.RFC3339))
	}

	if preview.Note != "" {
		fmt.Fprintf(out, "  note: %s\n", preview.Note)
	}
}
