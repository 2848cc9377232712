package render

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/diagrammer/pkg/cache"
	"github.com/matzehuels/diagrammer/pkg/engine"
	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/observability"
)

// User-facing failure messages.
const (
	MsgLoadFailed    = "Failed to load the diagram renderer."
	MsgInvalidSyntax = "Invalid diagram syntax. Please check your code."
)

// IDPrefix prefixes every render element identity.
const IDPrefix = "diagram-"

// Loader provides the ready engine. *engine.Loader implements it.
type Loader interface {
	Name() string
	Dialect() string
	EnsureReady(ctx context.Context) (engine.Engine, error)
}

// Renderer renders diagram source and holds the resulting state.
// It is safe for concurrent use; only the latest request commits.
type Renderer struct {
	loader Loader
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	theme  string
	logger *log.Logger

	mu        sync.Mutex
	latest    string
	state     Result
	container []byte
	subs      map[int]chan Result
	nextSub   int
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithCache enables artifact caching.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
			r.ttl = ttl
		}
	}
}

// WithKeyer sets the cache key generator.
func WithKeyer(k cache.Keyer) Option {
	return func(r *Renderer) {
		if k != nil {
			r.keyer = k
		}
	}
}

// WithTheme sets the theme name that is part of every cache key.
func WithTheme(theme string) Option {
	return func(r *Renderer) { r.theme = theme }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an idle Renderer backed by loader.
func New(loader Loader, opts ...Option) *Renderer {
	r := &Renderer{
		loader: loader,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		theme:  engine.DefaultConfig().Theme,
		logger: log.New(io.Discard),
		state:  Result{Status: StatusIdle},
		subs:   make(map[int]chan Result),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// completion is the outcome of one render request, tagged by its identity.
type completion struct {
	id      string
	source  string
	engine  string
	svg     []byte
	err     error
	loadErr bool
	start   time.Time
}

// Render renders source and returns the renderer state once this request
// resolves. If a newer request superseded this one, the returned state is the
// newer request's.
func (r *Renderer) Render(ctx context.Context, source string) Result {
	return r.Begin(source).Wait(ctx)
}

// Request is a render registered with Begin and resolved by Wait.
type Request struct {
	r      *Renderer
	id     string
	source string
}

// Begin registers source as the latest request and clears the container.
// A blank source sets Idle at once; any other source sets Loading. Requests
// begun earlier are superseded when Begin returns, so callers that pair the
// source with other state can call Begin under their own lock. Every
// non-blank request must be resolved with Wait.
func (r *Renderer) Begin(source string) *Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.container = nil
	if strings.TrimSpace(source) == "" {
		r.latest = ""
		r.setLocked(Result{Status: StatusIdle})
		return &Request{r: r, source: source}
	}

	id := IDPrefix + uuid.NewString()
	r.latest = id
	r.setLocked(Result{Status: StatusLoading, RequestID: id})
	return &Request{r: r, id: id, source: source}
}

// ID returns the element identity of the request, or "" for a blank source.
func (q *Request) ID() string { return q.id }

// Wait renders the request and returns the renderer state once it resolves.
// If ctx ends first, Wait returns the current state and the render still
// commits in the background.
func (q *Request) Wait(ctx context.Context) Result {
	r := q.r
	if q.id == "" {
		return r.State()
	}
	id, source := q.id, q.source

	name := r.loader.Name()
	start := time.Now()
	observability.Render().OnRenderStart(ctx, name, id)

	key := r.keyer.ArtifactKey(name, r.loader.Dialect(), r.theme, source)
	if svg, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Debug("artifact cache read failed", "error", err)
	} else if ok {
		r.commit(ctx, completion{id: id, source: source, engine: name, svg: svg, start: start})
		return r.State()
	}

	eng, err := r.loader.EnsureReady(ctx)
	if err != nil {
		r.commit(ctx, completion{id: id, source: source, engine: name, err: err, loadErr: true, start: start})
		return r.State()
	}

	done := make(chan struct{})
	renderCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		svg, err := eng.Render(renderCtx, source)
		if err == nil {
			if cerr := r.cache.Set(renderCtx, key, svg, r.ttl); cerr != nil {
				r.logger.Debug("artifact cache write failed", "error", cerr)
			}
		}
		r.commit(renderCtx, completion{id: id, source: source, engine: eng.Name(), svg: svg, err: err, start: start})
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return r.State()
}

// commit applies c if it is still the latest request.
func (r *Renderer) commit(ctx context.Context, c completion) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.id != r.latest {
		observability.Render().OnRenderDiscarded(ctx, c.engine, c.id)
		r.logger.Debug("discarding stale render", "id", c.id, "latest", r.latest)
		return
	}

	observability.Render().OnRenderComplete(ctx, c.engine, c.id, time.Since(c.start), c.err)

	switch {
	case c.err != nil && c.loadErr:
		r.container = nil
		r.setLocked(Result{
			Status:    StatusError,
			Message:   MsgLoadFailed,
			Err:       errors.Wrap(errors.ErrCodeEngineLoadFailed, c.err, MsgLoadFailed),
			RequestID: c.id,
		})
	case c.err != nil:
		r.logger.Warn("diagram render failed", "engine", c.engine, "id", c.id, "error", c.err)
		r.container = nil
		r.setLocked(Result{
			Status:    StatusError,
			Message:   MsgInvalidSyntax,
			Err:       errors.Wrap(errors.ErrCodeInvalidSyntax, c.err, MsgInvalidSyntax),
			RequestID: c.id,
		})
	default:
		r.container = c.svg
		r.setLocked(Result{
			Status: StatusSuccess,
			Artifact: &Artifact{
				ID:         c.id,
				Source:     c.source,
				SVG:        c.svg,
				Engine:     c.engine,
				RenderedAt: time.Now(),
			},
			RequestID: c.id,
		})
	}
}

// setLocked replaces the state and notifies subscribers. Each subscriber
// channel holds at most the newest state. r.mu must be held.
func (r *Renderer) setLocked(res Result) {
	r.state = res
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- res
	}
}

// State returns a snapshot of the current render state.
func (r *Renderer) State() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Container returns the SVG currently displayed, or nil when cleared.
func (r *Renderer) Container() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.container == nil {
		return nil
	}
	out := make([]byte, len(r.container))
	copy(out, r.container)
	return out
}

// Subscribe returns a channel that receives the newest state after every
// transition, starting with the current state. Slow readers only miss
// intermediate states. The returned func unsubscribes and closes the channel.
func (r *Renderer) Subscribe() (<-chan Result, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan Result, 1)
	ch <- r.state
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs, id)
			close(ch)
		})
	}
}
