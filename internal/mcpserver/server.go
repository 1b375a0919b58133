// Package mcpserver exposes the read-only capabilities to MCP clients on behalf of one fixed owner.
package mcpserver

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/tools"
)

const Name = "smart-hr"

type toolCaller interface {
	Call(ctx context.Context, caller tools.Caller, name string, args map[string]any) tools.Result
}

type Server struct {
	mcp    *server.MCPServer
	tools  toolCaller
	caller tools.Caller
	logger *zap.Logger
}

// New registers every capability as an MCP tool answering for caller.
func New(t toolCaller, caller tools.Caller, version string, log *zap.Logger) (*Server, error) {
	if !caller.Authenticated() {
		return nil, errors.NewInvalidRequestError("mcp server needs an owner id")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithInstructions("Read-only access to "+caller.Company+" job postings and applications."),
		),
		tools:  t,
		caller: caller,
		logger: logger.WithOwner(log, caller.OwnerID),
	}

	for _, spec := range tools.Specs() {
		s.mcp.AddTool(toolFor(spec), s.handler(string(spec.Name)))
	}
	return s, nil
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in and out until ctx is cancelled or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("mcp server listening on stdio", zap.Int("tools", len(tools.Specs())))
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := s.tools.Call(ctx, s.caller, name, request.GetArguments())
		if result.Err != nil {
			s.logger.Debug("mcp tool call failed", zap.String(logger.FieldCapability, name), zap.Error(result.Err))
			return mcp.NewToolResultError(tools.ErrorMessage(result.Err)), nil
		}
		return mcp.NewToolResultJSON(result.Output)
	}
}

func toolFor(spec tools.Spec) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(spec.Description),
		mcp.WithReadOnlyHintAnnotation(true),
	}

	for _, field := range spec.Fields {
		props := []mcp.PropertyOption{mcp.Description(field.Description)}
		if field.Required {
			props = append(props, mcp.Required())
		}
		if len(field.Enum) > 0 {
			props = append(props, mcp.Enum(field.Enum...))
		}

		switch field.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(field.Name, props...))
		default:
			opts = append(opts, mcp.WithString(field.Name, props...))
		}
	}
	return mcp.NewTool(string(spec.Name), opts...)
}
