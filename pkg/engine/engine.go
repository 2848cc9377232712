// Package engine provides the diagram rendering engines and the lazy,
// single-flight loader that initializes them.
//
// An [Engine] turns diagram markup into SVG. Engines are expensive to
// initialize (the graphviz engine instantiates a WASM runtime, the kroki engine
// checks a remote service), so callers never construct them directly. Instead a
// process-wide [Loader] is injected wherever rendering happens and every
// render calls [Loader.EnsureReady] first:
//
//	loader, err := engine.New("graphviz", engine.Options{})
//	eng, err := loader.EnsureReady(ctx)
//	svg, err := eng.Render(ctx, "digraph { a -> b }")
//
// # Lifecycle
//
// A loader moves through Uninitialized → Loading → Ready | Failed. Ready is
// terminal for the life of the process. Failed is retried by the next call.
// Concurrent callers during Loading share the same in-flight load.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// Engine renders diagram markup to SVG.
type Engine interface {
	// Name identifies the engine ("graphviz", "kroki").
	Name() string

	// Dialect names the markup language the engine accepts ("dot", "mermaid").
	Dialect() string

	// Render converts source to SVG markup. Any failure, including a syntax
	// error in source, is returned as an error whose text is diagnostic only.
	Render(ctx context.Context, source string) ([]byte, error)

	// Close releases resources held by the engine.
	Close() error
}

// Config is the fixed initialization configuration passed to every engine.
type Config struct {
	// StartOnLoad is false: rendering is triggered manually per request.
	StartOnLoad bool

	// Theme is the visual theme name.
	Theme string

	// SecurityLevel controls what markup features the engine allows.
	SecurityLevel string
}

// DefaultConfig returns the configuration all loaders use: manual render
// triggering, the default theme and loose security.
func DefaultConfig() Config {
	return Config{
		StartOnLoad:   false,
		Theme:         "default",
		SecurityLevel: "loose",
	}
}

// Factory performs the one-time initialization of an engine.
type Factory func(ctx context.Context, cfg Config) (Engine, error)

// Options selects engine-specific settings for [New].
type Options struct {
	// KrokiURL is the base URL of the Kroki service. Defaults to DefaultKrokiURL.
	KrokiURL string

	// KrokiDiagramType is the Kroki diagram type. Defaults to "mermaid".
	KrokiDiagramType string

	// HTTPClient is used by network engines. Defaults to a client without timeout.
	HTTPClient *http.Client

	// LoaderOptions are applied to the returned loader.
	LoaderOptions []LoaderOption
}

// Names of the built-in engines.
const (
	Graphviz = "graphviz"
	Kroki    = "kroki"
)

// DefaultName is the engine used when none is configured.
const DefaultName = Graphviz

// Names returns the built-in engine names in sorted order.
func Names() []string {
	names := []string{Graphviz, Kroki}
	sort.Strings(names)
	return names
}

// New returns an unloaded Loader for the named engine.
func New(name string, opts Options) (*Loader, error) {
	var (
		factory Factory
		dialect string
	)
	switch name {
	case Graphviz, "":
		name = Graphviz
		factory = LoadGraphviz
		dialect = "dot"
	case Kroki:
		factory = LoadKroki(opts.KrokiURL, opts.KrokiDiagramType, opts.HTTPClient)
		dialect = krokiDialect(opts.KrokiDiagramType)
	default:
		return nil, fmt.Errorf("unknown engine %q (available: %v)", name, Names())
	}
	loaderOpts := append([]LoaderOption{WithDialect(dialect)}, opts.LoaderOptions...)
	return NewLoader(name, factory, loaderOpts...), nil
}
