package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// Argument types shared by the MCP, CLI and HTTP surfaces. MCP schemas are
// generated from the jsonschema tags, so free-form JSON travels as JSONText
// rather than map[string]any.

// JSONText is a JSON document passed as a string. Unmarshalling also accepts
// a raw object or array, so HTTP clients may post structured bodies.
type JSONText string

func (j *JSONText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*j = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*j = JSONText(s)
	default:
		if !json.Valid(data) {
			return errors.New("invalid JSON document")
		}
		*j = JSONText(data)
	}
	return nil
}

// Decode unmarshals the document into v.
func (j JSONText) Decode(v any) error {
	if err := json.Unmarshal([]byte(j), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

type EmptyArgs struct{}

type IDArgs struct {
	ID string `json:"id" flag:"id" validate:"required" jsonschema:"required,description=Resource id"`
}

type PageArgs struct {
	Limit  int    `json:"limit,omitempty" flag:"limit" validate:"omitempty,min=1,max=250" jsonschema:"description=Page size (1-250)"`
	Cursor string `json:"cursor,omitempty" flag:"cursor" jsonschema:"description=Cursor returned by the previous page"`
}

type ListWorkflowsArgs struct {
	Active    string `json:"active,omitempty" flag:"active" validate:"omitempty,oneof=true false" jsonschema:"enum=true,enum=false,description=Only workflows with this activation state"`
	Tags      string `json:"tags,omitempty" flag:"tags" jsonschema:"description=Comma separated tag names"`
	Name      string `json:"name,omitempty" flag:"name" jsonschema:"description=Workflow name filter"`
	ProjectID string `json:"projectId,omitempty" flag:"project-id" jsonschema:"description=Project id filter"`
	Limit     int    `json:"limit,omitempty" flag:"limit" validate:"omitempty,min=1,max=250" jsonschema:"description=Page size (1-250)"`
	Cursor    string `json:"cursor,omitempty" flag:"cursor" jsonschema:"description=Cursor returned by the previous page"`
}

type WorkflowArgs struct {
	Workflow JSONText `json:"workflow" flag:"workflow" validate:"required,json" jsonschema:"required,description=Workflow JSON document"`
}

type UpdateWorkflowArgs struct {
	ID       string   `json:"id" flag:"id" validate:"required" jsonschema:"required,description=Workflow id"`
	Workflow JSONText `json:"workflow" flag:"workflow" validate:"required,json" jsonschema:"required,description=Complete workflow JSON document"`
}

type WorkflowTagsArgs struct {
	ID     string `json:"id" flag:"id" validate:"required" jsonschema:"required,description=Workflow id"`
	TagIDs string `json:"tagIds" flag:"tag-ids" validate:"required" jsonschema:"required,description=Comma separated tag ids that replace the current set"`
}

type ListExecutionsArgs struct {
	WorkflowID  string `json:"workflowId,omitempty" flag:"workflow-id" jsonschema:"description=Only executions of this workflow"`
	Status      string `json:"status,omitempty" flag:"status" validate:"omitempty,oneof=error success waiting" jsonschema:"enum=error,enum=success,enum=waiting,description=Execution status filter"`
	IncludeData bool   `json:"includeData,omitempty" flag:"include-data" jsonschema:"description=Include execution data"`
	Limit       int    `json:"limit,omitempty" flag:"limit" validate:"omitempty,min=1,max=250" jsonschema:"description=Page size (1-250)"`
	Cursor      string `json:"cursor,omitempty" flag:"cursor" jsonschema:"description=Cursor returned by the previous page"`
}

type GetExecutionArgs struct {
	ID          string `json:"id" flag:"id" validate:"required" jsonschema:"required,description=Execution id"`
	IncludeData bool   `json:"includeData,omitempty" flag:"include-data" jsonschema:"description=Include execution data"`
}

type CreateCredentialArgs struct {
	Name string   `json:"name" flag:"name" validate:"required" jsonschema:"required,description=Credential name"`
	Type string   `json:"type" flag:"type" validate:"required" jsonschema:"required,description=Credential type such as githubApi"`
	Data JSONText `json:"data" flag:"data" validate:"required,json" jsonschema:"required,description=Credential data as a JSON object"`
}

type CredentialSchemaArgs struct {
	Type string `json:"type" flag:"type" validate:"required" jsonschema:"required,description=Credential type name"`
}

type CreateTagArgs struct {
	Name string `json:"name" flag:"name" validate:"required" jsonschema:"required,description=Tag name"`
}

type UpdateTagArgs struct {
	ID   string `json:"id" flag:"id" validate:"required" jsonschema:"required,description=Tag id"`
	Name string `json:"name" flag:"name" validate:"required" jsonschema:"required,description=New tag name"`
}

type CreateVariableArgs struct {
	Key   string `json:"key" flag:"key" validate:"required" jsonschema:"required,description=Variable key"`
	Value string `json:"value" flag:"value" validate:"required" jsonschema:"required,description=Variable value"`
}

type SaveLocalWorkflowArgs struct {
	Workflow JSONText `json:"workflow" flag:"workflow" validate:"required,json" jsonschema:"required,description=Workflow JSON document"`
	ID       string   `json:"id,omitempty" flag:"id" jsonschema:"description=Storage id (defaults to the document id or a new uuid)"`
}

type ListNodesArgs struct {
	Version  string `json:"version,omitempty" flag:"version" jsonschema:"description=Node definition version (defaults to latest)"`
	Category string `json:"category,omitempty" flag:"category" jsonschema:"description=Codex category or group"`
	Search   string `json:"search,omitempty" flag:"search" jsonschema:"description=Substring over name and description"`
	Page     int    `json:"page,omitempty" flag:"page" validate:"omitempty,min=1" jsonschema:"description=Page number starting at 1"`
	PageSize int    `json:"pageSize,omitempty" flag:"page-size" validate:"omitempty,min=1,max=100" jsonschema:"description=Nodes per page (max 100)"`
}

type GetNodeArgs struct {
	Name    string `json:"name" flag:"name" validate:"required" jsonschema:"required,description=Node type or short name"`
	Version string `json:"version,omitempty" flag:"version" jsonschema:"description=Node definition version (defaults to latest)"`
}

type SearchNodesArgs struct {
	Query   string `json:"query" flag:"query" validate:"required" jsonschema:"required,description=Search text"`
	Version string `json:"version,omitempty" flag:"version" jsonschema:"description=Node definition version (defaults to latest)"`
	Limit   int    `json:"limit,omitempty" flag:"limit" validate:"omitempty,min=1,max=100" jsonschema:"description=Maximum number of hits"`
}

type AnalyzeNodeArgs struct {
	Name       string   `json:"name" flag:"name" validate:"required" jsonschema:"required,description=Node type or short name"`
	Version    string   `json:"version,omitempty" flag:"version" jsonschema:"description=Node definition version (defaults to latest)"`
	Parameters JSONText `json:"parameters,omitempty" flag:"parameters" validate:"omitempty,json" jsonschema:"description=Current node parameters as a JSON object"`
}

// ErrInvalidArguments marks argument validation failures.
var ErrInvalidArguments = errors.New("invalid arguments")

var argValidator = newArgValidator()

func newArgValidator() *playground.Validate {
	v := playground.New(playground.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateArgs checks the validate tags on args.
func validateArgs(args any) error {
	err := argValidator.Struct(args)
	if err == nil {
		return nil
	}
	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}

func describeFieldError(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "json":
		return fmt.Sprintf("%s must be valid JSON", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}

// splitList splits a comma separated argument, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
