// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes nbshell session and sidebar tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/nbshell/internal/apperr"
	"github.com/starford/nbshell/internal/treeview"
	"github.com/starford/nbshell/internal/workspace"
)

const navigationURI = "nbshell://navigation"

// Server wraps the MCP server with nbshell tools.
type Server struct {
	mcp *server.MCPServer
	svc *workspace.Service
}

// New creates a new MCP server with all nbshell tools registered.
func New(svc *workspace.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"nbshell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Report whether the notebook server session is authenticated. Does not contact the server."),
	), s.sessionStatus)

	s.mcp.AddTool(mcp.NewTool("check_ticket",
		mcp.WithDescription("Re-validate the session ticket with the notebook server."),
	), s.checkTicket)

	s.mcp.AddTool(mcp.NewTool("get_sidebar",
		mcp.WithDescription("Return the notebook tree grouped by category. Requires an authenticated session."),
		mcp.WithString("format", mcp.Description("Output format: json (default) or text")),
	), s.getSidebar)

	s.mcp.AddTool(mcp.NewTool("refresh_sidebar",
		mcp.WithDescription("Reload the notebook listing from the server and rebuild the tree."),
	), s.refreshSidebar)

	s.mcp.AddTool(mcp.NewTool("default_landing",
		mcp.WithDescription("Return the default landing notebook id, if one has been established."),
	), s.defaultLanding)

	s.mcp.AddTool(mcp.NewTool("format_value",
		mcp.WithDescription("Format a value for display using the field type map (DateTime, millisecond, byte)."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Field name or dotted path")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Raw value")),
	), s.formatValue)

	s.mcp.AddTool(mcp.NewTool("get_navigation_contract",
		mcp.WithDescription("Returns the nbshell view list and the rules that gate navigation on the session."),
	), s.getNavigationContract)

	s.mcp.AddResource(
		mcp.NewResource(navigationURI, "Navigation Contract",
			mcp.WithResourceDescription("Views, paths and session gating rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNavigationResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) sessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Session())
}

func (s *Server) checkTicket(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.CheckTicket(ctx))
}

func (s *Server) getSidebar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.svc.Sidebar()
	if err != nil {
		return toolError(err), nil
	}
	if req.GetString("format", "json") == "text" {
		return mcp.NewToolResultText(treeview.Plain(view.Categories, view.DefaultLanding)), nil
	}
	return jsonResult(view)
}

func (s *Server) refreshSidebar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, err := s.svc.RefreshSidebar(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(ch)
}

func (s *Server) defaultLanding(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := s.svc.Landing()
	if !ok {
		return mcp.NewToolResultText("no default landing yet"), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) formatValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := s.svc.Format(map[string]any{key: value})
	return mcp.NewToolResultText(out[key]), nil
}

func (s *Server) getNavigationContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NavigationContract), nil
}

func (s *Server) readNavigationResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      navigationURI,
			MIMEType: "text/markdown",
			Text:     NavigationContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return mcp.NewToolResultError("not authenticated: log in first")
	case errors.Is(err, apperr.ErrTransport), errors.Is(err, apperr.ErrMalformedResponse):
		return mcp.NewToolResultError(fmt.Sprintf("notebook server unavailable: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
