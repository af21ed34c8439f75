package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrUnknownBackend is returned for a key that is not in the backend table.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrEntrypointNotFound is returned when the backend entrypoint does not exist.
	ErrEntrypointNotFound = errors.New("backend entrypoint not found")

	// ErrBusy is returned when Run is called while another run is in progress.
	ErrBusy = errors.New("dispatcher is already running a backend")
)

// State is the state of a Dispatcher.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateLaunching
	StateSucceeded
	StateFailed
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateLaunching:
		return "launching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Dispatcher runs exactly one backend per Run call.
type Dispatcher struct {
	root     string
	backends map[string]Descriptor
	launcher Launcher
	logger   *slog.Logger
	onState  func(State)

	mu    sync.Mutex
	state State
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLauncher replaces the process launcher. Default is NewExecLauncher.
func WithLauncher(l Launcher) Option {
	return func(x *Dispatcher) {
		x.launcher = l
	}
}

// WithBackends replaces the backend table.
func WithBackends(backends ...Descriptor) Option {
	return func(x *Dispatcher) {
		x.backends = make(map[string]Descriptor, len(backends))
		for _, b := range backends {
			x.backends[b.Key] = b
		}
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Dispatcher) {
		x.logger = logger
	}
}

// WithStateHook sets a callback called on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(x *Dispatcher) {
		x.onState = fn
	}
}

// New creates a Dispatcher that resolves backend directories against root.
func New(root string, opts ...Option) *Dispatcher {
	x := &Dispatcher{
		root:   root,
		logger: slog.New(slog.DiscardHandler),
	}
	WithBackends(Backends...)(x)
	for _, opt := range opts {
		opt(x)
	}
	if x.launcher == nil {
		x.launcher = NewExecLauncher(x.logger)
	}
	return x
}

// Keys returns the valid backend keys in sorted order.
func (x *Dispatcher) Keys() []string {
	return sortedKeys(x.backends)
}

// State returns the current state.
func (x *Dispatcher) State() State {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *Dispatcher) setState(s State) {
	x.mu.Lock()
	x.state = s
	x.mu.Unlock()
	x.notify(s)
}

func (x *Dispatcher) notify(s State) {
	x.logger.Debug("dispatcher state changed", "state", s.String())
	if x.onState != nil {
		x.onState(s)
	}
}

// Resolve returns the descriptor of key with absolute paths, without checking
// that the entrypoint exists.
func (x *Dispatcher) Resolve(key string) (*Descriptor, bool) {
	d, ok := x.backends[key]
	if !ok {
		return nil, false
	}
	resolved := d.resolve(x.root)
	return &resolved, true
}

// Validate checks that key names a backend and that its entrypoint exists.
func (x *Dispatcher) Validate(key string) (*Descriptor, error) {
	d, ok := x.Resolve(key)
	if !ok {
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid backend key",
			goerr.V("key", key), goerr.V("valid_keys", x.Keys()))
	}

	info, err := os.Stat(d.Entrypoint)
	if err != nil || info.IsDir() {
		return nil, goerr.Wrap(ErrEntrypointNotFound, "backend cannot be launched",
			goerr.V("key", key), goerr.V("path", d.Entrypoint))
	}

	return d, nil
}

// Run validates key and launches its backend with the working directory set
// to the backend directory. Validation failures launch nothing.
func (x *Dispatcher) Run(ctx context.Context, key string) (*Outcome, error) {
	x.mu.Lock()
	if x.state != StateIdle {
		x.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "cannot run backend", goerr.V("key", key))
	}
	x.state = StateValidating
	x.mu.Unlock()
	x.notify(StateValidating)

	defer x.setState(StateIdle)

	d, err := x.Validate(key)
	if err != nil {
		x.setState(StateFailed)
		return nil, err
	}

	x.setState(StateLaunching)
	x.logger.Info("launching backend", "key", key, "dir", d.Dir, "entrypoint", d.Entrypoint)

	outcome, err := x.launcher.Launch(ctx, Command{Path: d.Entrypoint, Dir: d.Dir})
	if err != nil {
		x.setState(StateFailed)
		return nil, goerr.Wrap(err, "failed to launch backend", goerr.V("key", key))
	}

	switch outcome.Status {
	case StatusSucceeded:
		x.setState(StateSucceeded)
	case StatusInterrupted:
		x.setState(StateInterrupted)
	default:
		x.setState(StateFailed)
	}

	x.logger.Info("backend finished", "key", key, "status", outcome.Status.String(), "exit_code", outcome.ExitCode)
	return outcome, nil
}
