// Package mcp serves the diagram session to MCP clients over stdio.
package mcp

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/diagrammer/pkg/buildinfo"
	"github.com/matzehuels/diagrammer/pkg/errors"
	"github.com/matzehuels/diagrammer/pkg/render"
	"github.com/matzehuels/diagrammer/pkg/session"
)

const instructions = "Diagrammer turns plain-language descriptions into diagrams. " +
	"Use generate_diagram to create diagram source from a description, render_diagram to render source you wrote yourself, " +
	"and current_diagram to read the session's source and render state."

// Server wraps an MCP server with diagram tool handlers.
type Server struct {
	session   *session.Session
	logger    *log.Logger
	mcpServer *server.MCPServer
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger for transport errors.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server with all tools registered.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = server.NewMCPServer(
		"diagrammer",
		buildinfo.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	s.mcpServer.AddTools(s.tools()...)
	return s
}

// Serve runs the stdio transport on in and out until ctx is cancelled or in
// is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying MCPServer for custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: generateTool(), Handler: s.handleGenerate},
		{Tool: renderTool(), Handler: s.handleRender},
		{Tool: currentTool(), Handler: s.handleCurrent},
	}
}

// --- Tool definitions ---

func generateTool() mcp.Tool {
	return mcp.NewTool("generate_diagram",
		mcp.WithDescription("Generate diagram source from a plain-language description and render it. Returns the source, followed by the SVG when rendering succeeds."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Description of the diagram to generate")),
	)
}

func renderTool() mcp.Tool {
	return mcp.NewTool("render_diagram",
		mcp.WithDescription("Render diagram source to SVG. The source replaces the session's current diagram."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Diagram source in the session's dialect")),
	)
}

func currentTool() mcp.Tool {
	return mcp.NewTool("current_diagram",
		mcp.WithDescription("Return the session's current diagram source and render status"),
	)
}

// --- Handlers ---

func (s *Server) handleGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("prompt is required"), nil
	}

	res, err := s.session.Generate(ctx, prompt)
	if err != nil {
		return toolError(err), nil
	}

	src := s.session.Source()
	if !res.OK() {
		if res.Status == render.StatusError {
			return mcp.NewToolResultText(src + "\n\n" + errors.Title(res.Err) + ": " + res.Message), nil
		}
		return mcp.NewToolResultText(src), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(src),
			mcp.NewTextContent(string(res.Artifact.SVG)),
		},
	}, nil
}

func (s *Server) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}

	res := s.session.SetSource(ctx, src)
	switch res.Status {
	case render.StatusSuccess:
		return mcp.NewToolResultText(string(res.Artifact.SVG)), nil
	case render.StatusError:
		return toolError(res.Err), nil
	default:
		return mcp.NewToolResultError("Nothing to render: the source is empty"), nil
	}
}

func (s *Server) handleCurrent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.session.Result()
	status := res.Status.String()
	if res.Status == render.StatusError {
		status += ": " + res.Message
	}
	return mcp.NewToolResultText("status: " + status + "\ndialect: " + string(s.session.Dialect()) + "\n\n" + s.session.Source()), nil
}

// toolError reports a coded error as its notification title and user message.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(errors.Title(err) + ": " + errors.UserMessage(err))
}
