package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/diagrammer/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) (*Client, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg.Endpoint = server.URL
	c, err := New(cfg, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, &calls
}

func contentResponse(content any) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	var got request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(contentResponse("```mermaid\nflowchart TD\nA-->B\n```"))
	}, Config{})

	src, err := c.Generate(context.Background(), "a flowchart", "sk-test")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if src != "flowchart TD\nA-->B" {
		t.Errorf("Generate() = %q", src)
	}

	if got.Model != DefaultModel {
		t.Errorf("model = %q, want %q", got.Model, DefaultModel)
	}
	if got.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v, want %v", got.Temperature, DefaultTemperature)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != Mermaid.Instruction() {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Generate a Mermaid diagram for: a flowchart" {
		t.Errorf("user message = %+v", got.Messages[1])
	}
}

func TestGenerate_NoNetworkOnInputErrors(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	}, Config{})

	tests := []struct {
		name     string
		prompt   string
		secret   string
		wantCode errors.Code
	}{
		{"missing secret", "a flowchart", "", errors.ErrCodeMissingCredential},
		{"missing secret and prompt", "", "", errors.ErrCodeMissingCredential},
		{"empty prompt", "", "sk-test", errors.ErrCodeEmptyInput},
		{"blank prompt", "   ", "sk-test", errors.ErrCodeEmptyInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Generate(context.Background(), tt.prompt, tt.secret)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Generate() error = %v, want %s", err, tt.wantCode)
			}
		})
	}

	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("outbound calls = %d, want 0", n)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, Config{})

	_, err := c.Generate(context.Background(), "a flowchart", "sk-bad")
	if !errors.Is(err, errors.ErrCodeServiceError) {
		t.Fatalf("Generate() error = %v, want SERVICE_ERROR", err)
	}
	if StatusOf(err) != http.StatusUnauthorized {
		t.Errorf("StatusOf() = %d, want 401", StatusOf(err))
	}
	if !IsCredentialError(err) {
		t.Error("IsCredentialError() = false for 401")
	}
	if got := Summary(err); got != "API request failed with status 401" {
		t.Errorf("Summary() = %q", got)
	}
}

func TestGenerate_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no choices", `{"id":"x"}`},
		{"empty choices", `{"choices":[]}`},
		{"null content", `{"choices":[{"message":{"content":null}}]}`},
		{"numeric content", `{"choices":[{"message":{"content":42}}]}`},
		{"choices not array", `{"choices":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, Config{})

			_, err := c.Generate(context.Background(), "a flowchart", "sk-test")
			if !errors.Is(err, errors.ErrCodeMalformedResponse) {
				t.Errorf("Generate() error = %v, want MALFORMED_RESPONSE", err)
			}
		})
	}
}

func TestGenerate_EmptyContentIsValid(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(contentResponse("   "))
	}, Config{})

	src, err := c.Generate(context.Background(), "a flowchart", "sk-test")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if src != "" {
		t.Errorf("Generate() = %q, want empty", src)
	}
}

func TestGenerate_CustomConfig(t *testing.T) {
	temp := 0.2
	var got request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"output":{"text":"digraph { a -> b }"}}`))
	}, Config{
		Model:        "local-model",
		Temperature:  &temp,
		Dialect:      DOT,
		ContentQuery: ".output.text",
	})

	src, err := c.Generate(context.Background(), "two nodes", "sk-test")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if src != "digraph { a -> b }" {
		t.Errorf("Generate() = %q", src)
	}
	if got.Model != "local-model" || got.Temperature != 0.2 {
		t.Errorf("request = %+v", got)
	}
	if got.Messages[1].Content != "Generate a Graphviz DOT diagram for: two nodes" {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
}

func TestNew_InvalidQuery(t *testing.T) {
	if _, err := New(Config{ContentQuery: ".choices[0"}); err == nil {
		t.Error("New() with invalid query: expected error")
	}
}

func TestGenerate_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "a flowchart", "sk-test")
	if err != context.Canceled {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
