package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/matzehuels/diagrammer/pkg/buildinfo"
)

// DefaultKrokiURL is the public Kroki instance.
const DefaultKrokiURL = "https://kroki.io"

// KrokiEngine renders markup through a remote Kroki service.
type KrokiEngine struct {
	baseURL     string
	diagramType string
	http        *http.Client
	cfg         Config
}

// LoadKroki returns a Factory that checks the Kroki health endpoint.
// Transient health check failures are retried within a single load.
func LoadKroki(baseURL, diagramType string, hc *http.Client) Factory {
	if baseURL == "" {
		baseURL = DefaultKrokiURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if diagramType == "" {
		diagramType = "mermaid"
	}
	if hc == nil {
		hc = &http.Client{}
	}

	return func(ctx context.Context, cfg Config) (Engine, error) {
		client := retryablehttp.NewClient()
		client.HTTPClient = hc
		client.RetryMax = 3
		client.Logger = nil

		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return nil, fmt.Errorf("create health request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("reach kroki at %s: %w", baseURL, err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("kroki health check failed (status %d)", resp.StatusCode)
		}
		return &KrokiEngine{baseURL: baseURL, diagramType: diagramType, http: hc, cfg: cfg}, nil
	}
}

func (e *KrokiEngine) Name() string { return Kroki }

func (e *KrokiEngine) Dialect() string { return krokiDialect(e.diagramType) }

func krokiDialect(diagramType string) string {
	switch diagramType {
	case "", "mermaid":
		return "mermaid"
	case "graphviz", "dot":
		return "dot"
	default:
		return diagramType
	}
}

// Render posts source to /<diagram type>/svg.
func (e *KrokiEngine) Render(ctx context.Context, source string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/svg", e.baseURL, e.diagramType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("create render request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "image/svg+xml")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if e.cfg.Theme != "" {
		req.Header.Set("Kroki-Diagram-Options-theme", e.cfg.Theme)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read render response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kroki render failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

func (e *KrokiEngine) Close() error { return nil }
