package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"eyestock/app/service/correlation"
	"eyestock/app/service/preview"
	"eyestock/app/util/urlx"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "eyestock"
	serverVersion = "1.0.0"
)

type Previewer interface {
	Resolve(ctx context.Context, url string) (preview.LinkPreviewMeta, error)
}

type Asker interface {
	OnUtterance(ctx context.Context, text string) (correlation.Turn, bool)
}

type Server struct {
	mcp       *server.MCPServer
	previewer Previewer
	asker     Asker
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(
		do.MustInvoke[*preview.Resolver](di),
		do.MustInvoke[*correlation.Controller](di),
	), nil
}

func NewServer(previewer Previewer, asker Asker) *Server {
	s := &Server{
		mcp:       server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
		previewer: previewer,
		asker:     asker,
	}

	s.mcp.AddTool(mcp.NewTool("link_preview",
		mcp.WithDescription("Fetch the title, description, site name, image and favicon of a web page."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http(s) URL of the page"),
		),
	), s.handleLinkPreview)

	s.mcp.AddTool(mcp.NewTool("ask",
		mcp.WithDescription("Ask the stock assistant a question. Returns related news links when there are any, otherwise the spoken answer."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question in natural language, usually Korean"),
		),
	), s.handleAsk)

	return s
}

func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving the protocol on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleLinkPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !urlx.IsValid(pageURL) {
		return mcp.NewToolResultError("url must be an absolute http(s) URL"), nil
	}

	meta, err := s.previewer.Resolve(ctx, pageURL)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to fetch preview", err), nil
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn, ok := s.asker.OnUtterance(ctx, question)
	if !ok {
		return mcp.NewToolResultError("another question is being answered, try again later"), nil
	}

	if turn.Mode == correlation.ModeNews {
		return mcp.NewToolResultText(strings.Join(turn.URLs, "\n")), nil
	}

	return mcp.NewToolResultText(turn.Answer), nil
}
