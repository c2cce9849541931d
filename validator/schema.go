package validator

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/awantoch/flowbridge/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed workflow.schema.json
var workflowSchemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func workflowSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("workflow.schema.json", workflowSchemaJSON)
	})
	return compiledSchema, schemaErr
}

// SchemaIssues checks the JSON types of the free-form workflow fields against
// the embedded schema. doc must hold JSON-decoded values.
func SchemaIssues(doc map[string]any) []Issue {
	schema, err := workflowSchema()
	if err != nil {
		return []Issue{{Severity: SeverityError, Code: CodeSchema, Message: fmt.Sprintf("schema unavailable: %v", err)}}
	}
	err = schema.Validate(any(doc))
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{Severity: SeverityError, Code: CodeSchema, Message: err.Error()}}
	}
	var issues []Issue
	for _, leaf := range leafErrors(ve) {
		field := strings.TrimPrefix(leaf.InstanceLocation, "/")
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeSchema,
			Field:    field,
			Message:  msgSchema(field, leaf.Message),
		})
	}
	return issues
}

func leafErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leafErrors(c)...)
	}
	return out
}

// ErrInvalidWorkflow marks documents rejected by DecodeWorkflow.
var ErrInvalidWorkflow = errors.New("invalid workflow")

// CheckSchema returns an error describing every schema violation, or nil.
func CheckSchema(doc map[string]any) error {
	issues := SchemaIssues(doc)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, is := range issues {
		msgs[i] = is.Message
	}
	return fmt.Errorf("%w: does not match schema: %s", ErrInvalidWorkflow, strings.Join(msgs, "; "))
}

// DecodeWorkflow parses raw workflow JSON, checks it against the schema and
// decodes it into the typed model. Every write path goes through here.
func DecodeWorkflow(data []byte) (*model.Workflow, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidWorkflow)
	}
	if err := CheckSchema(doc); err != nil {
		return nil, err
	}
	wf, err := model.ParseWorkflow(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	return wf, nil
}
