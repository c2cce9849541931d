package mcp

import (
	"context"
	"io"
	"testing"

	mcp "github.com/metoro-io/mcp-golang"
	mcpstdio "github.com/metoro-io/mcp-golang/transport/stdio"
)

type emptyArgs struct{}

type echoArgs struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo"`
}

// startTestServer launches an in-memory stdio MCP server with the given tool registrations and returns a client.
func startTestServer(t *testing.T, regs []ToolRegistration) *mcp.Client {
	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()
	server, err := NewServer(mcpstdio.NewStdioServerTransportWithIO(serverReader, serverWriter), regs)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	go func() {
		if err := server.Serve(); err != nil {
			t.Errorf("MCP server Serve failed: %v", err)
		}
	}()
	client := mcp.NewClient(mcpstdio.NewStdioServerTransportWithIO(clientReader, clientWriter))
	if _, err := client.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize MCP client: %v", err)
	}
	return client
}

func TestListTools(t *testing.T) {
	regs := []ToolRegistration{
		{
			Name:        "foo",
			Description: "foo tool",
			Handler: func(ctx context.Context, args emptyArgs) (*mcp.ToolResponse, error) {
				return mcp.NewToolResponse(mcp.NewTextContent("foo")), nil
			},
		},
		{
			Name:        "bar",
			Description: "bar tool",
			Handler: func(ctx context.Context, args emptyArgs) (*mcp.ToolResponse, error) {
				return mcp.NewToolResponse(mcp.NewTextContent("bar")), nil
			},
		},
	}
	client := startTestServer(t, regs)
	resp, err := client.ListTools(context.Background(), new(string))
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(resp.Tools) != len(regs) {
		t.Fatalf("Expected %d tools, got %d", len(regs), len(resp.Tools))
	}
}

func TestCallTool_PassesArguments(t *testing.T) {
	regs := []ToolRegistration{
		{
			Name:        "echo",
			Description: "echo tool",
			Handler: func(ctx context.Context, args echoArgs) (*mcp.ToolResponse, error) {
				return mcp.NewToolResponse(mcp.NewTextContent("echo: " + args.Text)), nil
			},
		},
	}
	client := startTestServer(t, regs)
	resp, err := client.CallTool(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if len(resp.Content) == 0 || resp.Content[0].TextContent == nil {
		t.Fatalf("Expected text content, got %+v", resp)
	}
	if got := resp.Content[0].TextContent.Text; got != "echo: hi" {
		t.Errorf("Expected %q, got %q", "echo: hi", got)
	}
}

func TestServe_HTTPRequiresAddr(t *testing.T) {
	if err := Serve(context.Background(), Options{}, nil); err == nil {
		t.Fatal("expected error when HTTP transport has no address")
	}
}
