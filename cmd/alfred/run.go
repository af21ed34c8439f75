package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/alfred/dispatch"
	"github.com/m-mizutani/alfred/internal"
	"github.com/urfave/cli/v3"
)

// run executes the dispatcher CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return runWith(ctx, args, stdout, stderr, nil)
}

func runWith(ctx context.Context, args []string, stdout, stderr io.Writer, launcher dispatch.Launcher) int {
	keys := make([]string, len(dispatch.Backends))
	for i, b := range dispatch.Backends {
		keys[i] = b.Key
	}
	code := 0

	app := &cli.Command{
		Name:      "alfred",
		Usage:     "Run one of the Alfred agent backends",
		ArgsUsage: "<" + strings.Join(keys, "|") + ">",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Sources: cli.EnvVars("ALFRED_ROOT"),
				Usage:   "Directory containing the backend directories (default: directory of this executable)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars("ALFRED_LOG_LEVEL"),
				Usage:   "Log level (debug, info, warn, error)",
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := internal.NewLogger(stderr, cmd.String("log-level"))
			if err != nil {
				return err
			}

			root := cmd.String("root")
			if root == "" {
				if root, err = dispatch.DefaultRoot(); err != nil {
					return err
				}
			}

			opts := []dispatch.Option{dispatch.WithLogger(logger)}
			if launcher != nil {
				opts = append(opts, dispatch.WithLauncher(launcher))
			}
			d := dispatch.New(root, opts...)

			if cmd.NArg() != 1 {
				fmt.Fprintf(stderr, "Error: exactly one agent must be given. Choose from %v\n", d.Keys())
				code = 1
				return nil
			}

			code = dispatchBackend(ctx, d, cmd.Args().First(), stdout, stderr)
			return nil
		},
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return code
}

func dispatchBackend(ctx context.Context, d *dispatch.Dispatcher, key string, stdout, stderr io.Writer) int {
	if _, err := d.Validate(key); err != nil {
		switch {
		case errors.Is(err, dispatch.ErrUnknownBackend):
			fmt.Fprintf(stderr, "Error: Unknown agent '%s'. Choose from %v\n", key, d.Keys())
		case errors.Is(err, dispatch.ErrEntrypointNotFound):
			desc, _ := d.Resolve(key)
			fmt.Fprintf(stderr, "Error: Main script not found at %s\n", desc.Entrypoint)
		default:
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "--- Running %s agent ---\n", key)

	outcome, err := d.Run(ctx, key)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to run %s agent: %v\n", key, err)
		return 1
	}

	switch outcome.Status {
	case dispatch.StatusInterrupted:
		fmt.Fprintf(stdout, "\n--- %s agent interrupted ---\n", key)
		return 0

	case dispatch.StatusFailed:
		fmt.Fprintf(stderr, "Error: %s agent exited with code %d\n", key, outcome.ExitCode)
		if outcome.Stderr != "" {
			fmt.Fprintf(stderr, "Error output:\n%s", outcome.Stderr)
		}
		if outcome.ExitCode > 0 {
			return outcome.ExitCode
		}
		return 1
	}

	fmt.Fprintf(stdout, "--- Finished %s agent ---\n", key)
	return 0
}
