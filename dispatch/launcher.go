package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Status is the terminal status of a launched backend.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Outcome is the result of one backend process.
type Outcome struct {
	Status   Status
	ExitCode int
	Stderr   string
}

// Command is a process to launch.
type Command struct {
	Path string
	Dir  string
	Args []string
	Env  []string
}

// Launcher runs a command and waits for it. A non-zero exit is reported in the
// Outcome, not as an error. The error is reserved for a process that could
// not be started.
type Launcher interface {
	Launch(ctx context.Context, cmd Command) (*Outcome, error)
}

// ExecLauncher launches commands with os/exec. The child inherits stdin and
// stdout. Stderr goes both to Stderr and to the captured Outcome.Stderr.
type ExecLauncher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// WaitDelay bounds the wait for I/O after the process is killed.
	WaitDelay time.Duration

	Logger *slog.Logger
}

// NewExecLauncher returns an ExecLauncher bound to the standard streams.
func NewExecLauncher(logger *slog.Logger) *ExecLauncher {
	return &ExecLauncher{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		WaitDelay: 5 * time.Second,
		Logger:    logger,
	}
}

// Launch implements Launcher. Cancelling ctx kills the process and yields
// StatusInterrupted.
func (x *ExecLauncher) Launch(ctx context.Context, c Command) (*Outcome, error) {
	logger := x.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var captured bytes.Buffer
	stderr := io.Writer(&captured)
	if x.Stderr != nil {
		stderr = io.MultiWriter(x.Stderr, &captured)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = x.Stdin
	cmd.Stdout = x.Stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = x.WaitDelay
	if c.Env != nil {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	logger.Debug("starting backend process", "path", c.Path, "dir", c.Dir)
	if err := cmd.Start(); err != nil {
		return nil, goerr.Wrap(err, "failed to start backend process", goerr.V("path", c.Path), goerr.V("dir", c.Dir))
	}

	err := cmd.Wait()
	outcome := &Outcome{Stderr: captured.String()}

	switch {
	case ctx.Err() != nil:
		outcome.Status = StatusInterrupted
		outcome.ExitCode = exitCode(err)
	case err == nil:
		outcome.Status = StatusSucceeded
	default:
		outcome.Status = StatusFailed
		outcome.ExitCode = exitCode(err)
		if outcome.ExitCode <= 0 {
			outcome.ExitCode = 1
		}
	}

	logger.Debug("backend process exited", "path", c.Path, "status", outcome.Status, "exit_code", outcome.ExitCode)
	return outcome, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
