package engine

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/goccy/go-graphviz"
)

// GraphvizEngine renders DOT markup in-process with Graphviz compiled to WASM.
// Renders are serialized because the runtime is not reentrant.
type GraphvizEngine struct {
	mu  sync.Mutex
	gv  *graphviz.Graphviz
	cfg Config
}

// LoadGraphviz instantiates the Graphviz runtime.
func LoadGraphviz(ctx context.Context, cfg Config) (Engine, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	gv.SetLayout(graphviz.DOT)
	return &GraphvizEngine{gv: gv, cfg: cfg}, nil
}

func (e *GraphvizEngine) Name() string    { return Graphviz }
func (e *GraphvizEngine) Dialect() string { return "dot" }

// Render parses source as DOT and lays it out to SVG.
func (e *GraphvizEngine) Render(ctx context.Context, source string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := graphviz.ParseBytes([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := e.gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("render: empty output")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

func (e *GraphvizEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gv.Close()
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from its
// viewBox rather than Graphviz's point-based width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(root))
}
