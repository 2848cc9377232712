package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/diagrammer/pkg/completion"
	"github.com/matzehuels/diagrammer/pkg/credential"
	"github.com/matzehuels/diagrammer/pkg/engine"
	derrors "github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/history"
	"github.com/matzehuels/diagrammer/pkg/render"
)

type echoEngine struct{}

func (echoEngine) Name() string    { return "echo" }
func (echoEngine) Dialect() string { return "dot" }
func (echoEngine) Close() error    { return nil }
func (echoEngine) Render(_ context.Context, src string) ([]byte, error) {
	if strings.Contains(src, "!!") {
		return nil, errors.New("syntax error")
	}
	return []byte("<svg>" + src + "</svg>"), nil
}

type readyLoader struct{}

func (readyLoader) Name() string    { return "echo" }
func (readyLoader) Dialect() string { return "dot" }
func (readyLoader) EnsureReady(context.Context) (engine.Engine, error) {
	return echoEngine{}, nil
}

// gatedEngine blocks renders of source until the matching gate is closed.
type gatedEngine struct {
	echoEngine
	mu      sync.Mutex
	gates   map[string]chan struct{}
	started chan string
}

func (e *gatedEngine) Render(ctx context.Context, src string) ([]byte, error) {
	e.mu.Lock()
	ch := e.gates[src]
	e.mu.Unlock()
	e.started <- src
	if ch != nil {
		<-ch
	}
	return e.echoEngine.Render(ctx, src)
}

type gatedLoader struct{ eng *gatedEngine }

func (l gatedLoader) Name() string    { return "echo" }
func (l gatedLoader) Dialect() string { return "dot" }
func (l gatedLoader) EnsureReady(context.Context) (engine.Engine, error) {
	return l.eng, nil
}

type stubGenerator struct {
	source  string
	err     error
	secrets []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt, secret string) (string, error) {
	g.secrets = append(g.secrets, secret)
	if secret == "" {
		return "", derrors.New(derrors.ErrCodeMissingCredential, "Please enter your OpenAI API key")
	}
	if g.err != nil {
		return "", g.err
	}
	return g.source, nil
}

func (g *stubGenerator) Model() string               { return "stub-model" }
func (g *stubGenerator) Dialect() completion.Dialect { return completion.DOT }

func newSession(t *testing.T, gen *stubGenerator, opts ...Option) (*Session, *credential.Store) {
	t.Helper()
	creds := credential.New(credential.NewMemoryStorage(), nil)
	return New(render.New(readyLoader{}), gen, creds, opts...), creds
}

func TestNew_DefaultSource(t *testing.T) {
	s, _ := newSession(t, &stubGenerator{})
	if s.Source() != DefaultSource(completion.DOT) {
		t.Errorf("Source() = %q", s.Source())
	}
	if s.Result().Status != render.StatusIdle {
		t.Errorf("initial status = %v, want idle", s.Result().Status)
	}

	res := s.Render(context.Background())
	if res.Status != render.StatusSuccess {
		t.Errorf("Render() status = %v", res.Status)
	}
}

func TestDefaultSource(t *testing.T) {
	mermaid := DefaultSource(completion.Mermaid)
	if !strings.HasPrefix(mermaid, "graph TD\n  A[Start] --> B{Decision}") {
		t.Errorf("mermaid default = %q", mermaid)
	}
	if !strings.HasSuffix(mermaid, "D --> E") {
		t.Errorf("mermaid default should end with D --> E: %q", mermaid)
	}
	if !strings.HasPrefix(DefaultSource(completion.DOT), "digraph {") {
		t.Errorf("dot default = %q", DefaultSource(completion.DOT))
	}
}

func TestSetSource(t *testing.T) {
	s, _ := newSession(t, &stubGenerator{})

	res := s.SetSource(context.Background(), "a -> b")
	if res.Status != render.StatusSuccess || string(res.Artifact.SVG) != "<svg>a -> b</svg>" {
		t.Errorf("SetSource() = %+v", res)
	}
	if s.Source() != "a -> b" {
		t.Errorf("Source() = %q", s.Source())
	}

	res = s.SetSource(context.Background(), "")
	if res.Status != render.StatusIdle {
		t.Errorf("SetSource(\"\") status = %v, want idle", res.Status)
	}
}

func TestSetSource_SupersededRenderKeepsSourcePaired(t *testing.T) {
	release := make(chan struct{})
	eng := &gatedEngine{gates: map[string]chan struct{}{"a -> b": release}, started: make(chan string, 8)}
	creds := credential.New(credential.NewMemoryStorage(), nil)
	s := New(render.New(gatedLoader{eng}), &stubGenerator{}, creds)

	done := make(chan render.Result, 1)
	go func() { done <- s.SetSource(context.Background(), "a -> b") }()
	if got := <-eng.started; got != "a -> b" {
		t.Fatalf("first render = %q", got)
	}

	res := s.SetSource(context.Background(), "c -> d")
	if res.Status != render.StatusSuccess {
		t.Fatalf("second SetSource() = %+v", res)
	}
	close(release)
	<-done

	if s.Source() != "c -> d" {
		t.Errorf("Source() = %q", s.Source())
	}
	if a := s.Result().Artifact; a == nil || a.Source != s.Source() {
		t.Errorf("artifact %+v does not belong to source %q", a, s.Source())
	}
}

func TestSetSource_ConcurrentCallersKeepSourcePaired(t *testing.T) {
	s, _ := newSession(t, &stubGenerator{})

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.SetSource(context.Background(), fmt.Sprintf("n%d -> m%d", round, i))
			}(i)
		}
		wg.Wait()

		res := s.Result()
		if res.Status != render.StatusSuccess {
			t.Fatalf("round %d: status = %v", round, res.Status)
		}
		if res.Artifact.Source != s.Source() {
			t.Fatalf("round %d: artifact source %q, session source %q", round, res.Artifact.Source, s.Source())
		}
	}
}

func TestRender_RendersCurrentSource(t *testing.T) {
	s, _ := newSession(t, &stubGenerator{}, WithSource("p -> q"))

	res := s.Render(context.Background())
	if res.Status != render.StatusSuccess || res.Artifact.Source != "p -> q" {
		t.Errorf("Render() = %+v", res)
	}
}

func TestGenerate_Success(t *testing.T) {
	hist, err := history.NewFileStore(t.TempDir() + "/history.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	gen := &stubGenerator{source: "x -> y"}
	s, creds := newSession(t, gen, WithHistory(hist))
	creds.Set("sk-test")

	res, err := s.Generate(context.Background(), "two nodes")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Status != render.StatusSuccess {
		t.Errorf("status = %v", res.Status)
	}
	if s.Source() != "x -> y" {
		t.Errorf("Source() = %q", s.Source())
	}
	if gen.secrets[0] != "sk-test" {
		t.Errorf("secret passed = %q", gen.secrets[0])
	}
	if s.Generating() {
		t.Error("Generating() = true after completion")
	}

	entries, err := hist.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("history = %v, %v", entries, err)
	}
	if entries[0].Prompt != "two nodes" || entries[0].Source != "x -> y" || entries[0].Model != "stub-model" || entries[0].Dialect != "dot" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestGenerate_FailureKeepsSource(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		err      error
		wantCode derrors.Code
	}{
		{"missing credential", "", nil, derrors.ErrCodeMissingCredential},
		{"service error", "sk", derrors.NewServiceError(500), derrors.ErrCodeServiceError},
		{"malformed", "sk", derrors.New(derrors.ErrCodeMalformedResponse, "bad"), derrors.ErrCodeMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, creds := newSession(t, &stubGenerator{err: tt.err})
			creds.Set(tt.secret)
			before := s.Source()

			_, err := s.Generate(context.Background(), "anything")
			if !derrors.Is(err, tt.wantCode) {
				t.Errorf("Generate() error = %v, want %s", err, tt.wantCode)
			}
			if s.Source() != before {
				t.Errorf("source changed after failed generation: %q", s.Source())
			}
		})
	}
}

func TestGenerate_RenderErrorIsNotGenerationError(t *testing.T) {
	s, creds := newSession(t, &stubGenerator{source: "bad !!"})
	creds.Set("sk")

	res, err := s.Generate(context.Background(), "broken")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Status != render.StatusError || res.Message != render.MsgInvalidSyntax {
		t.Errorf("result = %+v", res)
	}
	if s.Source() != "bad !!" {
		t.Errorf("Source() = %q", s.Source())
	}
}

func TestGenerate_EmptyContentClearsPreview(t *testing.T) {
	s, creds := newSession(t, &stubGenerator{source: ""})
	creds.Set("sk")

	res, err := s.Generate(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if res.Status != render.StatusIdle {
		t.Errorf("status = %v, want idle", res.Status)
	}
}

func TestGenerateSource_LeavesSessionAlone(t *testing.T) {
	s, creds := newSession(t, &stubGenerator{source: "p -> q"})
	creds.Set("sk")
	before := s.Source()

	src, err := s.GenerateSource(context.Background(), "pair")
	if err != nil {
		t.Fatalf("GenerateSource() error: %v", err)
	}
	if src != "p -> q" {
		t.Errorf("GenerateSource() = %q", src)
	}
	if s.Source() != before {
		t.Errorf("Source() changed to %q", s.Source())
	}
	if s.Result().Status != render.StatusIdle {
		t.Errorf("status = %v, want idle", s.Result().Status)
	}
}
