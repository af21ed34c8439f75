package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	welcomeMessage   = "Welcome to the Alfred Agent! Type 'quit' or 'exit' to end the conversation."
	goodbyeMessage   = "Alfred: Goodbye, sir."
	interruptMessage = "Alfred: Interrupt received. Goodbye, sir."
)

// RunFunc answers one user prompt.
type RunFunc func(ctx context.Context, prompt string) (string, error)

// Console is the interactive read-eval-print loop of a backend.
type Console struct {
	in  io.Reader
	out io.Writer
	run RunFunc
}

// NewConsole creates a console that reads prompts from in and writes replies
// to out. The console owns in: if it is an io.Closer, Run closes it on return
// so a pending read does not outlive the loop.
func NewConsole(run RunFunc, in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, run: run}
}

// Run loops until the user quits, input ends or ctx is cancelled. A failing
// prompt is reported and the loop continues.
func (x *Console) Run(ctx context.Context) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer func() {
		close(done)
		if c, ok := x.in.(io.Closer); ok {
			_ = c.Close()
		}
	}()

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(x.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
	}()

	fmt.Fprintln(x.out, welcomeMessage)

	for {
		fmt.Fprint(x.out, "You: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(x.out, "\n"+interruptMessage)
			return
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					fmt.Fprintf(x.out, "\nError reading input: %v\n", err)
				default:
					fmt.Fprintln(x.out, "\n"+interruptMessage)
				}
				return
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "quit", "exit":
			fmt.Fprintln(x.out, goodbyeMessage)
			return
		}

		reply, err := x.run(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(x.out, "\n"+interruptMessage)
				return
			}
			fmt.Fprintf(x.out, "An error occurred: %v\n", err)
			continue
		}

		if reply == "" {
			fmt.Fprintln(x.out, "Alfred: (No response generated)")
			continue
		}
		fmt.Fprintf(x.out, "Alfred: %s\n", reply)
	}
}
