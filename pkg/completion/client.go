// Package completion turns a natural-language description into diagram
// markup through an OpenAI-compatible chat completions endpoint.
//
// A [Client] issues exactly one request per [Client.Generate] call. There is
// no retry, no streaming and no client-side timeout: the caller's context is
// the only deadline. Input problems are reported before any network traffic:
//
//   - an empty secret yields MISSING_CREDENTIAL
//   - a blank prompt yields EMPTY_INPUT
//
// Non-2xx responses become SERVICE_ERROR carrying the HTTP status, and a body
// whose content cannot be extracted becomes MALFORMED_RESPONSE. The content is
// located with a jq query so that compatible endpoints with a different
// response shape can be used.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/itchyny/gojq"

	"github.com/matzehuels/diagrammer/pkg/buildinfo"
	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/observability"
)

// Defaults for the hosted OpenAI endpoint.
const (
	DefaultEndpoint     = "https://api.openai.com/v1/chat/completions"
	DefaultModel        = "gpt-4o-mini"
	DefaultTemperature  = 0.7
	DefaultContentQuery = ".choices[0].message.content"
)

// Config configures a Client. Zero fields take the package defaults.
type Config struct {
	Endpoint     string
	Model        string
	Temperature  *float64
	Dialect      Dialect
	ContentQuery string
}

// Client calls the completion service.
type Client struct {
	http        *http.Client
	endpoint    string
	model       string
	temperature float64
	dialect     Dialect
	query       *gojq.Code
	logger      *log.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. The default has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client from cfg. It fails only if the content query does not
// compile.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		http:        &http.Client{},
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		temperature: DefaultTemperature,
		dialect:     cfg.Dialect,
		logger:      log.New(io.Discard),
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.Temperature != nil {
		c.temperature = *cfg.Temperature
	}
	if c.dialect == "" {
		c.dialect = Mermaid
	}

	expr := cfg.ContentQuery
	if expr == "" {
		expr = DefaultContentQuery
	}
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse content query %q", expr)
	}
	code, err := gojq.Compile(query, gojq.WithEnvironLoader(func() []string { return nil }))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "compile content query %q", expr)
	}
	c.query = code

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string { return c.model }

// Temperature returns the sampling temperature sent with each request.
func (c *Client) Temperature() float64 { return c.temperature }

// Dialect returns the markup dialect the client asks for.
func (c *Client) Dialect() Dialect { return c.dialect }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// Generate asks the service for diagram markup describing prompt and returns
// it cleaned of surrounding whitespace and code fences.
func (c *Client) Generate(ctx context.Context, prompt, secret string) (string, error) {
	if secret == "" {
		return "", errors.New(errors.ErrCodeMissingCredential, "Please enter your OpenAI API key")
	}
	if err := errors.ValidatePrompt(prompt); err != nil {
		return "", err
	}

	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, c.model)
	start := time.Now()

	content, err := c.do(ctx, prompt, secret)
	hooks.OnGenerateComplete(ctx, c.model, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return Clean(content), nil
}

func (c *Client) do(ctx context.Context, prompt, secret string) (string, error) {
	body, err := json.Marshal(request{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.dialect.Instruction()},
			{Role: "user", Content: c.dialect.UserMessage(prompt)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	httpHooks := observability.HTTP()
	httpHooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		httpHooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "request completion")
	}
	defer resp.Body.Close()
	httpHooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("completion request failed", "status", resp.StatusCode)
		return "", errors.NewServiceError(resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(errors.ErrCodeMalformedResponse, err, "Failed to generate diagram")
	}
	return c.extract(ctx, payload)
}

func (c *Client) extract(ctx context.Context, payload any) (string, error) {
	iter := c.query.RunWithContext(ctx, payload)
	v, ok := iter.Next()
	if !ok {
		return "", errors.New(errors.ErrCodeMalformedResponse, "Failed to generate diagram")
	}
	if err, isErr := v.(error); isErr {
		return "", errors.Wrap(errors.ErrCodeMalformedResponse, err, "Failed to generate diagram")
	}
	s, ok := v.(string)
	if !ok {
		c.logger.Debug("completion content is not a string", "type", fmt.Sprintf("%T", v))
		return "", errors.New(errors.ErrCodeMalformedResponse, "Failed to generate diagram")
	}
	return s, nil
}

// StatusOf returns the HTTP status carried by a SERVICE_ERROR, or 0.
func StatusOf(err error) int {
	return errors.Status(err)
}

// IsCredentialError reports whether err means the API key is missing or was
// rejected by the service.
func IsCredentialError(err error) bool {
	if errors.Is(err, errors.ErrCodeMissingCredential) {
		return true
	}
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// Summary renders err as a single line suitable for a notification body.
func Summary(err error) string {
	return strings.TrimSpace(errors.UserMessage(err))
}
