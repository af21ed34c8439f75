package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/alfred"
	"github.com/m-mizutani/alfred/internal"
	"github.com/m-mizutani/alfred/trace"
	traceLogger "github.com/m-mizutani/alfred/trace/logger"
	"github.com/m-mizutani/alfred/tracing"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sethvargo/go-envconfig"
)

// SystemPrompt is the persona given to every backend.
const SystemPrompt = `You are Alfred, a helpful and discreet butler hosting a gala. ` +
	`Use the guest_info_retriever tool for anything about the guests, weather_info for the weather, ` +
	`hub_stats for Hugging Face model statistics and web_search for everything else. ` +
	`Answer politely and concisely.`

// App is one backend process.
type App struct {
	// Name identifies the backend in logs.
	Name string

	// NewLLM creates the model client. A failure is fatal.
	NewLLM LLMFactory

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Lookuper replaces the process environment.
	Lookuper envconfig.Lookuper

	ToolOptions    []ToolOption
	TracingOptions []tracing.Option
	AgentOptions   []alfred.Option
}

// Run starts the backend and returns the process exit code. Configuration,
// model and tool failures are fatal and give 1. Tracing failures only
// disable tracing.
func (a *App) Run(ctx context.Context) int {
	stdin, stdout, stderr := a.Stdin, a.Stdout, a.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := LoadConfig(ctx, a.Lookuper)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := internal.NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger = logger.With("backend", a.Name)

	tracingOpts := []tracing.Option{tracing.WithLogger(logger)}
	if a.Lookuper != nil {
		tracingOpts = append(tracingOpts, tracing.WithLookuper(a.Lookuper))
	}
	st := tracing.New(append(tracingOpts, a.TracingOptions...)...)
	st.Initialize(ctx)
	defer func() {
		if err := st.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to shutdown tracing", "error", err)
		}
	}()

	llm, err := a.NewLLM(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	tools, err := BuildTools(ctx, cfg, append([]ToolOption{WithToolLogger(logger)}, a.ToolOptions...)...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to build tools: %v\n", err)
		return 1
	}

	var handlers []trace.Handler
	if h := st.Handler(); h != nil {
		handlers = append(handlers, h)
	}
	if cfg.TraceLog {
		handlers = append(handlers, traceLogger.New(traceLogger.WithLogger(logger)))
	}
	var rec *trace.Recorder
	if cfg.TraceDump != "" {
		rec = trace.NewRecorder()
		handlers = append(handlers, rec)
	}

	agentOpts := []alfred.Option{
		alfred.WithTools(tools...),
		alfred.WithPlanningInterval(cfg.PlanningInterval),
		alfred.WithSystemPrompt(SystemPrompt),
		alfred.WithLogger(logger),
	}
	if len(handlers) > 0 {
		agentOpts = append(agentOpts, alfred.WithTrace(trace.Multi(handlers...)))
	}
	agent := alfred.New(llm, append(agentOpts, a.AgentOptions...)...)

	if st.Enabled() {
		fmt.Fprintln(stdout, "Langfuse OpenTelemetry tracing is active.")
	} else {
		fmt.Fprintln(stdout, "Langfuse OpenTelemetry tracing is disabled.")
	}

	run := tracing.Wrap(st, agent.Run)
	NewConsole(run, stdin, stdout).Run(ctx)

	if rec != nil {
		dumpTrace(logger, cfg.TraceDump, rec)
	}
	return 0
}

// dumpTrace writes the recorded spans of the session to path as JSON. A
// failure is logged and does not change the exit code.
func dumpTrace(logger *slog.Logger, path string, rec *trace.Recorder) {
	raw, err := json.MarshalIndent(rec.Spans(), "", "  ")
	if err != nil {
		logger.Warn("failed to encode trace dump", "error", goerr.Wrap(err, "failed to marshal spans"))
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		logger.Warn("failed to write trace dump", "error", goerr.Wrap(err, "failed to write file", goerr.V("path", path)))
		return
	}
	logger.Info("trace dump written", "path", path, "spans", len(rec.Spans()))
}
