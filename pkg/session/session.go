// Package session provides the diagram editing session.
//
// A [Session] owns the current diagram source. The source is replaced
// wholesale either by the user ([Session.SetSource]) or by a successful
// generation ([Session.Generate]); every replacement is rendered. A failed
// generation leaves the source untouched.
//
//	sess := session.New(renderer, client, creds)
//	res, err := sess.Generate(ctx, "user login flow")
//	if err != nil {
//	    fmt.Println(errors.Title(err), errors.UserMessage(err))
//	}
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/diagrammer/pkg/completion"
	"github.com/matzehuels/diagrammer/pkg/credential"
	"github.com/matzehuels/diagrammer/pkg/history"
	"github.com/matzehuels/diagrammer/pkg/render"
)

// Generator produces diagram source from a prompt. *completion.Client
// implements it.
type Generator interface {
	Generate(ctx context.Context, prompt, secret string) (string, error)
	Model() string
	Dialect() completion.Dialect
}

// Session is one diagram editing session. It is safe for concurrent use.
type Session struct {
	renderer    *render.Renderer
	generator   Generator
	credentials *credential.Store
	history     history.Store
	logger      *log.Logger

	mu         sync.Mutex
	source     string
	generating atomic.Bool
}

// Option customizes a Session.
type Option func(*Session)

// WithHistory records successful generations in h.
func WithHistory(h history.Store) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets the initial source instead of the dialect's default.
func WithSource(src string) Option {
	return func(s *Session) { s.source = src }
}

// New creates a session whose source starts as the default diagram for the
// generator's dialect. The initial source is not rendered until Render is
// called.
func New(renderer *render.Renderer, gen Generator, creds *credential.Store, opts ...Option) *Session {
	s := &Session{
		renderer:    renderer,
		generator:   gen,
		credentials: creds,
		history:     history.NullStore{},
		logger:      log.New(io.Discard),
		source:      DefaultSource(gen.Dialect()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the current diagram source.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// SetSource replaces the source and renders it. The source and the latest
// render request change together, so the committed artifact always belongs to
// the current source.
func (s *Session) SetSource(ctx context.Context, src string) render.Result {
	s.mu.Lock()
	s.source = src
	req := s.renderer.Begin(src)
	s.mu.Unlock()
	return req.Wait(ctx)
}

// Render renders the current source again.
func (s *Session) Render(ctx context.Context) render.Result {
	s.mu.Lock()
	req := s.renderer.Begin(s.source)
	s.mu.Unlock()
	return req.Wait(ctx)
}

// Result returns the current render state.
func (s *Session) Result() render.Result {
	return s.renderer.State()
}

// Generating reports whether a generation is in flight.
func (s *Session) Generating() bool {
	return s.generating.Load()
}

// Generate asks the completion service for a diagram matching prompt. On
// success the cleaned source replaces the session source and is rendered. On
// failure the source is unchanged and the coded error is returned.
func (s *Session) Generate(ctx context.Context, prompt string) (render.Result, error) {
	src, err := s.GenerateSource(ctx, prompt)
	if err != nil {
		return s.renderer.State(), err
	}
	return s.SetSource(ctx, src), nil
}

// GenerateSource asks the completion service for a diagram matching prompt
// and records it in history without touching the session source.
func (s *Session) GenerateSource(ctx context.Context, prompt string) (string, error) {
	s.generating.Store(true)
	defer s.generating.Store(false)

	src, err := s.generator.Generate(ctx, prompt, s.credentials.Get())
	if err != nil {
		s.logger.Debug("generation failed", "error", err)
		return "", err
	}

	entry := history.NewEntry(prompt, src, s.generator.Model(), string(s.generator.Dialect()))
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record history", "error", err)
	}
	return src, nil
}

// Renderer returns the session's renderer.
func (s *Session) Renderer() *render.Renderer { return s.renderer }

// Credentials returns the credential store.
func (s *Session) Credentials() *credential.Store { return s.credentials }

// History returns the history store.
func (s *Session) History() history.Store { return s.history }

// Dialect returns the markup dialect of generated source.
func (s *Session) Dialect() completion.Dialect { return s.generator.Dialect() }

// DefaultSource is the starter diagram shown in a new session.
func DefaultSource(d completion.Dialect) string {
	if d == completion.DOT {
		return "digraph {\n" +
			"  A [label=\"Start\", shape=box];\n" +
			"  B [label=\"Decision\", shape=diamond];\n" +
			"  C [label=\"Do Something\", shape=box];\n" +
			"  D [label=\"Do Nothing\", shape=box];\n" +
			"  E [label=\"End\", shape=box];\n" +
			"  A -> B;\n" +
			"  B -> C [label=\"Yes\"];\n" +
			"  B -> D [label=\"No\"];\n" +
			"  C -> E;\n" +
			"  D -> E;\n" +
			"}"
	}
	return "graph TD\n" +
		"  A[Start] --> B{Decision}\n" +
		"  B -->|Yes| C[Do Something]\n" +
		"  B -->|No| D[Do Nothing]\n" +
		"  C --> E[End]\n" +
		"  D --> E"
}
