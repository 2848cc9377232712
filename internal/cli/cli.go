// Package cli implements the diagrammer command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/diagrammer/pkg/buildinfo"
	"github.com/matzehuels/diagrammer/pkg/cache"
	"github.com/matzehuels/diagrammer/pkg/completion"
	"github.com/matzehuels/diagrammer/pkg/config"
	"github.com/matzehuels/diagrammer/pkg/credential"
	"github.com/matzehuels/diagrammer/pkg/engine"
	"github.com/matzehuels/diagrammer/pkg/history"
	"github.com/matzehuels/diagrammer/pkg/observability"
	"github.com/matzehuels/diagrammer/pkg/render"
	"github.com/matzehuels/diagrammer/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// defaultScale is the PNG export scale factor.
	defaultScale = 2.0
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	// HTTPClient is used for outbound calls. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline
// events are logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.SetAll(observability.NewLogHooks(c.Logger))
	} else {
		observability.Reset()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Diagrammer turns descriptions into diagrams",
		Long:         `Diagrammer generates diagram source from a plain-language description with an OpenAI-compatible completion service and renders it to SVG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.keyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// App Factory
// =============================================================================

// app is the fully wired set of components a command works with.
type app struct {
	cfg      *config.Config
	loader   *engine.Loader
	cache    cache.Cache
	history  history.Store
	creds    *credential.Store
	client   *completion.Client
	renderer *render.Renderer
	session  *session.Session
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.ConfigPath)
}

// newApp loads the configuration and builds every component.
func (c *CLI) newApp(ctx context.Context) (*app, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if a.creds, err = c.newCredentials(cfg); err != nil {
		return nil, err
	}

	a.loader, err = engine.New(cfg.Engine.Name, engine.Options{
		KrokiURL:         cfg.Engine.KrokiURL,
		KrokiDiagramType: cfg.Engine.KrokiDiagramType,
		HTTPClient:       c.HTTPClient,
		LoaderOptions:    []engine.LoaderOption{engine.WithLogger(c.Logger)},
	})
	if err != nil {
		return nil, err
	}

	dialect, err := completion.ParseDialect(a.loader.Dialect())
	if err != nil {
		c.Logger.Warn("engine dialect cannot be generated, prompting for mermaid", "engine", a.loader.Name(), "dialect", a.loader.Dialect())
		dialect = completion.Mermaid
	}
	opts := []completion.Option{completion.WithLogger(c.Logger)}
	if c.HTTPClient != nil {
		opts = append(opts, completion.WithHTTPClient(c.HTTPClient))
	}
	temperature := cfg.Completion.Temperature
	a.client, err = completion.New(completion.Config{
		Endpoint:     cfg.Completion.Endpoint,
		Model:        cfg.Completion.Model,
		Temperature:  &temperature,
		Dialect:      dialect,
		ContentQuery: cfg.Completion.ContentQuery,
	}, opts...)
	if err != nil {
		return nil, err
	}

	if a.cache, err = c.newCache(ctx, cfg); err != nil {
		return nil, err
	}
	if a.history, err = c.newHistory(ctx, cfg); err != nil {
		a.cache.Close()
		return nil, err
	}

	a.renderer = render.New(a.loader,
		render.WithCache(a.cache, cfg.Cache.TTL.Duration),
		render.WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheScope(cfg))),
		render.WithTheme(engine.DefaultConfig().Theme),
		render.WithLogger(c.Logger),
	)
	a.session = session.New(a.renderer, a.client, a.creds,
		session.WithHistory(a.history),
		session.WithLogger(c.Logger),
	)
	return a, nil
}

// Close releases the engine and storage connections.
func (a *app) Close() error {
	return errors.Join(a.loader.Close(), a.cache.Close(), a.history.Close())
}

func (c *CLI) newCredentials(cfg *config.Config) (*credential.Store, error) {
	storage, err := credential.NewFileStorage(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("open credential storage: %w", err)
	}
	return credential.New(storage, c.Logger), nil
}

// cacheScope prefixes artifact keys with the build version and, for the
// remote engine, the service URL.
func cacheScope(cfg *config.Config) string {
	scope := buildinfo.Version + ":"
	if cfg.Engine.Name == engine.Kroki {
		scope += cfg.Engine.KrokiURL + ":"
	}
	return scope
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL})
	default:
		fc, err := cache.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, rendering without cache", "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

func (c *CLI) newHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case config.BackendNone:
		return history.NullStore{}, nil
	case config.BackendMongo:
		return history.NewMongoStore(ctx, history.MongoConfig{
			URI:      cfg.History.MongoURI,
			Database: cfg.History.MongoDatabase,
		})
	default:
		return history.NewFileStore(cfg.History.Path)
	}
}
