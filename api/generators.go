package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/moogar0880/problems"
	"github.com/spf13/cobra"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/convert"
	mcpserver "github.com/awantoch/flowbridge/mcp"
	"github.com/awantoch/flowbridge/utils"
)

// maxRequestBody bounds HTTP request bodies.
const maxRequestBody = 4 << 20

// GenerateMCPTools creates MCP tool registrations for all operations.
func GenerateMCPTools(svc *Service) []mcpserver.ToolRegistration {
	var tools []mcpserver.ToolRegistration
	for _, op := range GetAllOperations() {
		if op.SkipMCP {
			continue
		}
		tools = append(tools, mcpserver.ToolRegistration{
			Name:        op.MCPName,
			Description: op.Description,
			Handler:     op.mcpTool(svc),
		})
	}
	return tools
}

// GenerateHTTPHandlers registers every operation on mux under prefix.
func GenerateHTTPHandlers(mux *http.ServeMux, svc *Service, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	for _, op := range GetAllOperations() {
		if op.SkipHTTP {
			continue
		}
		mux.Handle(op.HTTPMethod+" "+prefix+op.HTTPPath, generateHTTPHandler(op, svc))
	}
}

func generateHTTPHandler(op *OperationDefinition, svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := utils.EnsureRequestID(r.Context())
		args, err := parseHTTPArgs(r, op)
		if err != nil {
			writeProblem(w, r, err)
			return
		}
		data, err := op.Run(ctx, svc, args)
		if err != nil {
			utils.WarnCtx(ctx, "operation failed", "operation", op.ID, "error", err)
			writeProblem(w, r, err)
			return
		}
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		if err := json.NewEncoder(w).Encode(Succeed(data)); err != nil {
			utils.ErrorCtx(ctx, "failed to encode response", "operation", op.ID, "error", err)
		}
	}
}

// parseHTTPArgs fills the operation arguments from the JSON body, the query
// string and the path wildcards, in increasing order of precedence.
func parseHTTPArgs(r *http.Request, op *OperationDefinition) (any, error) {
	args := op.NewArgs()
	if r.Body != nil && r.ContentLength != 0 && r.Method != http.MethodGet {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			return nil, invalidf("read body: %v", err)
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, args); err != nil {
				return nil, invalidf("decode body: %v", err)
			}
		}
	}

	v := reflect.ValueOf(args).Elem()
	t := v.Type()
	query := r.URL.Query()
	for i := 0; i < t.NumField(); i++ {
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		value := r.PathValue(name)
		if value == "" {
			value = query.Get(name)
		}
		if value == "" {
			continue
		}
		if err := setFieldValue(v.Field(i), value); err != nil {
			return nil, invalidf("%s: %v", name, err)
		}
	}
	return args, nil
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// setFieldValue sets a reflect.Value from a string.
func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// writeProblem answers with an application/problem+json document.
func writeProblem(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	problem := problems.NewStatusProblem(status).
		WithInstance(r.URL.Path).
		WithType(problemType(status)).
		WithDetail(err.Error())
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeProblem)
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(problem); encErr != nil {
		utils.Error("failed to encode problem: %v", encErr)
	}
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "not_configured"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		if status >= 400 && status < 500 {
			return "upstream_rejected"
		}
		return "internal_error"
	}
}

// ServiceFactory builds the service once command line flags are parsed.
type ServiceFactory func(cmd *cobra.Command) (*Service, error)

// GenerateCLICommands creates one parent command per operation group and
// attaches root-level operations directly.
func GenerateCLICommands(factory ServiceFactory) []*cobra.Command {
	groups := map[string]*cobra.Command{
		GroupN8N:   {Use: GroupN8N, Short: "Manage workflows, executions, credentials, tags and variables on n8n"},
		GroupLocal: {Use: GroupLocal, Short: "Manage workflows in local storage"},
		GroupNodes: {Use: GroupNodes, Short: "Browse node definitions"},
	}
	var commands []*cobra.Command
	for _, op := range GetAllOperations() {
		if op.SkipCLI {
			continue
		}
		cmd := generateCLICommand(op, factory)
		if parent, ok := groups[op.Group]; ok {
			parent.AddCommand(cmd)
			continue
		}
		commands = append(commands, cmd)
	}
	for _, name := range []string{GroupLocal, GroupN8N, GroupNodes} {
		commands = append(commands, groups[name])
	}
	return commands
}

func generateCLICommand(op *OperationDefinition, factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   op.CLIUse,
		Short: op.CLIShort,
		Long:  op.Description,
		Args:  cobra.MaximumNArgs(1),
	}
	addCLIFlags(cmd, op.ArgsType)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		opArgs, err := parseCLIArgs(cmd, args, op)
		if err != nil {
			return err
		}
		svc, err := factory(cmd)
		if err != nil {
			return err
		}
		result := op.Execute(cmd.Context(), svc, opArgs)
		utils.User("%s", result.JSON())
		if !result.Success {
			return fmt.Errorf("%s: %s", result.Message, result.Error)
		}
		return nil
	}
	return cmd
}

// addCLIFlags adds one flag per field carrying a flag tag. The description
// comes from the jsonschema tag.
func addCLIFlags(cmd *cobra.Command, argsType reflect.Type) {
	for i := 0; i < argsType.NumField(); i++ {
		field := argsType.Field(i)
		flagName := field.Tag.Get("flag")
		if flagName == "" || flagName == "-" {
			continue
		}
		desc := schemaDescription(field)
		switch field.Type.Kind() {
		case reflect.String:
			if field.Type == reflect.TypeOf(JSONText("")) {
				desc += " (JSON or path to a JSON file)"
			}
			cmd.Flags().String(flagName, "", desc)
		case reflect.Bool:
			cmd.Flags().Bool(flagName, false, desc)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			cmd.Flags().Int(flagName, 0, desc)
		}
	}
}

func schemaDescription(field reflect.StructField) string {
	for _, part := range strings.Split(field.Tag.Get("jsonschema"), ",") {
		if desc, ok := strings.CutPrefix(part, "description="); ok {
			return desc
		}
	}
	return ""
}

// parseCLIArgs fills the argument struct from flags. When the usage line
// names a positional argument it fills the first field.
func parseCLIArgs(cmd *cobra.Command, args []string, op *OperationDefinition) (any, error) {
	target := op.NewArgs()
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	if len(args) > 0 && strings.Contains(op.CLIUse, "<") && t.NumField() > 0 {
		if err := setCLIValue(v.Field(0), t.Field(0), args[0]); err != nil {
			return nil, err
		}
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		flagName := field.Tag.Get("flag")
		if flagName == "" || flagName == "-" || !cmd.Flags().Changed(flagName) {
			continue
		}
		value := cmd.Flags().Lookup(flagName).Value.String()
		if err := setCLIValue(v.Field(i), field, value); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func setCLIValue(field reflect.Value, sf reflect.StructField, value string) error {
	if sf.Type == reflect.TypeOf(JSONText("")) {
		data, err := readJSONArg(value)
		if err != nil {
			return err
		}
		value = string(data)
	}
	if err := setFieldValue(field, value); err != nil {
		return invalidf("%s: %v", jsonName(sf), err)
	}
	return nil
}

// readJSONArg returns the contents of the named file when it exists, stdin
// for "-", and the value itself otherwise. YAML files are converted to JSON.
func readJSONArg(value string) ([]byte, error) {
	if value == "-" {
		return io.ReadAll(os.Stdin)
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return nil, err
		}
		data, err = convert.FileToJSON(value, data)
		if err != nil {
			return nil, invalidf("%v", err)
		}
		return data, nil
	}
	return []byte(value), nil
}

// AttachCLICommands adds every generated command to root.
func AttachCLICommands(root *cobra.Command, factory ServiceFactory) {
	for _, cmd := range GenerateCLICommands(factory) {
		root.AddCommand(cmd)
	}
}
