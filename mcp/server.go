// Package mcp serves flowbridge tools over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"

	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
	mcpstdio "github.com/metoro-io/mcp-golang/transport/stdio"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/utils"
)

// ToolRegistration holds a tool's registration info for the MCP server.
type ToolRegistration struct {
	Name        string
	Description string
	Handler     any // must be a func(ctx, args) (*mcp.ToolResponse, error)
}

type Options struct {
	// Stdio selects the stdio transport; otherwise HTTP is served on Addr.
	Stdio bool
	Addr  string
	Debug bool
}

// NewServer creates a server on t and registers tools.
func NewServer(t transport.Transport, tools []ToolRegistration) (*mcp.Server, error) {
	server := mcp.NewServer(t)
	if err := RegisterAllTools(server, tools); err != nil {
		return nil, err
	}
	return server, nil
}

// Serve runs an MCP server until ctx is cancelled.
func Serve(ctx context.Context, opts Options, tools []ToolRegistration) error {
	// stdout belongs to the protocol; user-facing logs are dropped unless debugging.
	if opts.Stdio && !opts.Debug {
		utils.SetUserOutput(io.Discard)
	}

	var t transport.Transport
	if opts.Stdio {
		utils.Info("Starting MCP server on stdio with %d tools", len(tools))
		t = mcpstdio.NewStdioServerTransport()
	} else {
		if opts.Addr == "" {
			return errors.New("MCP HTTP transport requires an address")
		}
		utils.Info("Starting MCP server on HTTP at %s%s with %d tools", opts.Addr, constants.HTTPPathMCP, len(tools))
		t = mcphttp.NewHTTPTransport(constants.HTTPPathMCP).WithAddr(opts.Addr)
	}

	server, err := NewServer(t, tools)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("MCP server failed: %w", err)
		}
		// stdio serving returns once the reader goroutine is running
		<-ctx.Done()
	case <-ctx.Done():
	}
	utils.Info("MCP server shutting down")
	return t.Close()
}

// RegisterAllTools registers every tool, collecting registration failures.
func RegisterAllTools(server *mcp.Server, tools []ToolRegistration) error {
	var errs []error
	for _, t := range tools {
		if err := server.RegisterTool(t.Name, t.Description, t.Handler); err != nil {
			errs = append(errs, fmt.Errorf("register tool %s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
