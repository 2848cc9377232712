package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/observability"
)

// State is the load state of a Loader.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader lazily initializes one engine and shares it process-wide.
// It is safe for concurrent use.
type Loader struct {
	name    string
	dialect string
	factory Factory
	cfg     Config
	logger  *log.Logger

	group singleflight.Group

	mu      sync.Mutex
	state   State
	engine  Engine
	lastErr error
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l *log.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithDialect sets the markup dialect reported before the engine is loaded.
func WithDialect(d string) LoaderOption {
	return func(ld *Loader) { ld.dialect = d }
}

// WithConfig overrides the engine configuration.
func WithConfig(cfg Config) LoaderOption {
	return func(ld *Loader) { ld.cfg = cfg }
}

// NewLoader creates a Loader that initializes its engine with factory.
func NewLoader(name string, factory Factory, opts ...LoaderOption) *Loader {
	l := &Loader{
		name:    name,
		factory: factory,
		cfg:     DefaultConfig(),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the engine name.
func (l *Loader) Name() string { return l.name }

// Dialect returns the markup dialect the engine accepts. It is known without
// loading the engine.
func (l *Loader) Dialect() string { return l.dialect }

// State returns the current load state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Err returns the error of the most recent failed load, if any.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// EnsureReady returns the ready engine, loading it first if needed.
//
// Callers arriving while a load is in flight wait for that same load. The load
// itself is detached from the caller's cancellation: if ctx ends first this
// caller returns ctx.Err() while the load continues for the other waiters.
// A failed load returns ENGINE_LOAD_FAILED to every waiter and leaves the
// loader in Failed, so the next call starts a fresh attempt.
func (l *Loader) EnsureReady(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	if l.state == Ready {
		e := l.engine
		l.mu.Unlock()
		return e, nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan(l.name, func() (any, error) {
		return l.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Engine), nil
	}
}

func (l *Loader) load(ctx context.Context) (Engine, error) {
	l.mu.Lock()
	if l.state == Ready {
		e := l.engine
		l.mu.Unlock()
		return e, nil
	}
	l.state = Loading
	l.mu.Unlock()

	hooks := observability.Engine()
	hooks.OnLoadStart(ctx, l.name)
	l.logger.Debug("loading render engine", "engine", l.name)
	start := time.Now()

	e, err := l.factory(ctx, l.cfg)
	hooks.OnLoadComplete(ctx, l.name, time.Since(start), err)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = Failed
		l.lastErr = errors.Wrap(errors.ErrCodeEngineLoadFailed, err, "Failed to load the diagram renderer.")
		l.logger.Warn("render engine failed to load", "engine", l.name, "error", err)
		return nil, l.lastErr
	}
	l.state = Ready
	l.engine = e
	l.lastErr = nil
	l.logger.Debug("render engine ready", "engine", l.name, "duration", time.Since(start))
	return e, nil
}

// Close releases the engine if it is loaded and resets the loader.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine == nil {
		return nil
	}
	err := l.engine.Close()
	l.engine = nil
	l.state = Uninitialized
	return err
}
