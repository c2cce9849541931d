package api

import (
	"context"
	"reflect"
	"sort"
	"time"

	mcp "github.com/metoro-io/mcp-golang"

	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

// Operation groups. Each non-empty group becomes a CLI parent command.
const (
	GroupN8N   = "n8n"
	GroupLocal = "local"
	GroupNodes = "nodes"
	GroupRoot  = ""
)

// OperationDefinition describes one operation once; the MCP, CLI and HTTP
// surfaces are generated from it.
type OperationDefinition struct {
	ID          string       // Unique identifier
	Name        string       // Display name, also used in failure messages
	Description string       // Human readable description
	Group       string       // CLI parent command
	HTTPMethod  string       // HTTP method
	HTTPPath    string       // ServeMux pattern relative to the API prefix
	CLIUse      string       // CLI usage; a "<arg>" fills the first field
	CLIShort    string       // CLI short description
	MCPName     string       // MCP tool name
	ArgsType    reflect.Type // Argument struct type
	Handler     func(ctx context.Context, svc *Service, args any) (any, error)
	SkipHTTP    bool
	SkipMCP     bool
	SkipCLI     bool

	// mcpTool builds the typed handler mcp-golang reflects on.
	mcpTool func(svc *Service) any
}

// newOperation binds a typed handler to op.
func newOperation[T any](op OperationDefinition, handler func(ctx context.Context, svc *Service, args *T) (any, error)) *OperationDefinition {
	def := &op
	def.ArgsType = reflect.TypeOf((*T)(nil)).Elem()
	def.Handler = func(ctx context.Context, svc *Service, args any) (any, error) {
		typed, ok := args.(*T)
		if !ok {
			return nil, invalidf("expected *%s, got %T", def.ArgsType.Name(), args)
		}
		return handler(ctx, svc, typed)
	}
	def.mcpTool = func(svc *Service) any {
		return func(ctx context.Context, args T) (*mcp.ToolResponse, error) {
			return def.Execute(ctx, svc, &args).ToolResponse(), nil
		}
	}
	return def
}

// NewArgs returns a pointer to a zero value of the operation's argument type.
func (op *OperationDefinition) NewArgs() any {
	return reflect.New(op.ArgsType).Interface()
}

// Run validates args and calls the handler.
func (op *OperationDefinition) Run(ctx context.Context, svc *Service, args any) (any, error) {
	start := time.Now()
	data, err := op.run(ctx, svc, args)
	telemetry.ObserveOperation(op.ID, err, time.Since(start))
	return data, err
}

func (op *OperationDefinition) run(ctx context.Context, svc *Service, args any) (any, error) {
	if err := validateArgs(args); err != nil {
		return nil, err
	}
	return op.Handler(ctx, svc, args)
}

// Execute runs the operation and wraps the outcome in the tool envelope.
func (op *OperationDefinition) Execute(ctx context.Context, svc *Service, args any) Result {
	ctx = utils.EnsureRequestID(ctx)
	data, err := op.Run(ctx, svc, args)
	if err != nil {
		utils.WarnCtx(ctx, "operation failed", "operation", op.ID, "error", err)
		return Fail(op.Name, err)
	}
	utils.DebugCtx(ctx, "operation completed", "operation", op.ID)
	return Succeed(data)
}

var operationRegistry = make(map[string]*OperationDefinition)

// RegisterOperation adds op to the registry, defaulting MCPName to ID.
func RegisterOperation(op *OperationDefinition) {
	if op.MCPName == "" {
		op.MCPName = op.ID
	}
	operationRegistry[op.ID] = op
}

// GetOperation retrieves an operation by ID.
func GetOperation(id string) (*OperationDefinition, bool) {
	op, ok := operationRegistry[id]
	return op, ok
}

// GetOperationByMCPName retrieves an operation by its tool name.
func GetOperationByMCPName(name string) (*OperationDefinition, bool) {
	for _, op := range operationRegistry {
		if op.MCPName == name {
			return op, true
		}
	}
	return nil, false
}

// GetAllOperations returns every registered operation sorted by tool name.
func GetAllOperations() []*OperationDefinition {
	ops := make([]*OperationDefinition, 0, len(operationRegistry))
	for _, op := range operationRegistry {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].MCPName < ops[j].MCPName })
	return ops
}

// GetOperationsByGroup returns the registered operations of one group.
func GetOperationsByGroup(group string) []*OperationDefinition {
	var ops []*OperationDefinition
	for _, op := range GetAllOperations() {
		if op.Group == group {
			ops = append(ops, op)
		}
	}
	return ops
}
