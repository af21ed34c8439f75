// Package tracing owns the optional distributed-tracing layer: a State that
// is initialized once at startup on a best-effort basis, and a decorator that
// records one "user_request" span per top-level agent invocation.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/alfred/trace"
	traceOtel "github.com/m-mizutani/alfred/trace/otel"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sethvargo/go-envconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	otelTrace "go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer that opens request spans.
const TracerName = "smolagent.request"

var (
	// ErrDependencyUnavailable indicates that a component required for
	// exporting spans cannot be used in this process.
	ErrDependencyUnavailable = errors.New("tracing dependency unavailable")
)

// State is the process-wide tracing context. It is created disabled and is
// switched on by at most one successful Initialize call.
type State struct {
	enabled     bool
	initialized bool

	provider *sdktrace.TracerProvider
	tracer   otelTrace.Tracer
	handler  trace.Handler

	logger          *slog.Logger
	lookuper        envconfig.Lookuper
	exporterFactory ExporterFactory
	extraHandlers   []trace.Handler
	setGlobal       bool
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger used to report initialization and span diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// WithLookuper replaces the environment as the source of Config.
func WithLookuper(l envconfig.Lookuper) Option {
	return func(s *State) {
		s.lookuper = l
	}
}

// WithExporterFactory replaces the OTLP/HTTP exporter.
func WithExporterFactory(f ExporterFactory) Option {
	return func(s *State) {
		s.exporterFactory = f
	}
}

// WithTraceHandlers adds handlers that receive tool and LLM events along with
// the OpenTelemetry bridge once tracing is enabled.
func WithTraceHandlers(handlers ...trace.Handler) Option {
	return func(s *State) {
		s.extraHandlers = append(s.extraHandlers, handlers...)
	}
}

// WithoutGlobalProvider keeps the tracer provider out of the OpenTelemetry
// global registry.
func WithoutGlobalProvider() Option {
	return func(s *State) {
		s.setGlobal = false
	}
}

// New creates a disabled State.
func New(opts ...Option) *State {
	s := &State{
		logger:          slog.New(slog.DiscardHandler),
		lookuper:        envconfig.OsLookuper(),
		exporterFactory: NewOTLPExporter,
		setGlobal:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether tracing has been initialized successfully.
func (s *State) Enabled() bool {
	return s != nil && s.enabled
}

// Tracer returns the request tracer, or nil while disabled.
func (s *State) Tracer() otelTrace.Tracer {
	if !s.Enabled() {
		return nil
	}
	return s.tracer
}

// Handler returns the trace.Handler that instruments tool invocations and
// LLM calls, or nil while disabled.
func (s *State) Handler() trace.Handler {
	if !s.Enabled() {
		return nil
	}
	return s.handler
}

// Initialize reads Config from the environment and configures span export.
// It returns true when tracing is enabled. It never fails: missing
// credentials, an unavailable dependency or any configuration error leave
// tracing disabled and are only logged. Only the first call has an effect.
func (s *State) Initialize(ctx context.Context) (enabled bool) {
	if s.initialized {
		s.logger.Debug("tracing already initialized", "enabled", s.enabled)
		return s.enabled
	}
	s.initialized = true

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while initializing tracing, tracing disabled", "panic", fmt.Sprint(r))
			s.disable()
			enabled = false
		}
	}()

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: s.lookuper,
	}); err != nil {
		s.logger.Error("failed to load tracing config, tracing disabled", "error", err)
		return false
	}

	if !cfg.HasCredentials() {
		s.logger.Warn("Langfuse API keys not found, tracing disabled")
		return false
	}

	if err := s.configure(ctx, cfg); err != nil {
		if errors.Is(err, ErrDependencyUnavailable) {
			s.logger.Warn("tracing dependency unavailable, tracing disabled", "error", err)
		} else {
			s.logger.Error("failed to initialize tracing, tracing disabled", "error", err)
		}
		s.disable()
		return false
	}

	s.enabled = true
	s.logger.Info("tracing initialized", "endpoint", cfg.TracesURL(), "service", cfg.ServiceName)
	return true
}

func (s *State) configure(ctx context.Context, cfg Config) error {
	exporter, err := s.exporterFactory(ctx, cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to build span exporter")
	}
	if exporter == nil {
		return goerr.Wrap(ErrDependencyUnavailable, "exporter factory returned no exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to build tracing resource")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	if s.setGlobal {
		otel.SetTracerProvider(provider)
	}

	s.provider = provider
	s.tracer = provider.Tracer(TracerName)
	s.handler = trace.Multi(append(
		[]trace.Handler{traceOtel.New(traceOtel.WithTracerProvider(provider))},
		s.extraHandlers...,
	)...)
	return nil
}

func (s *State) disable() {
	s.enabled = false
	s.provider = nil
	s.tracer = nil
	s.handler = nil
}

// Shutdown flushes and stops the tracer provider. It is a no-op while disabled.
func (s *State) Shutdown(ctx context.Context) error {
	if s == nil || s.provider == nil {
		return nil
	}
	if err := s.provider.Shutdown(ctx); err != nil {
		return goerr.Wrap(err, "failed to shut down tracer provider")
	}
	return nil
}
