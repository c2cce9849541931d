// Package validator checks n8n workflow JSON for structural errors and
// common mistakes. Validation is advisory: it never mutates the workflow.
package validator

import (
	"encoding/json"
	"fmt"

	"github.com/awantoch/flowbridge/model"
)

// LargeWorkflowThreshold is the node count above which splitting is suggested.
const LargeWorkflowThreshold = 50

// Validate checks a parsed workflow object. Values are normalized through a
// JSON round trip first, so callers may pass maps built in Go code.
func Validate(wf map[string]any) *Result {
	r := newResult()
	doc, err := normalize(wf)
	if err != nil {
		r.addError(Issue{Code: CodeSchema, Message: fmt.Sprintf("Workflow is not valid JSON: %v", err)})
		r.Valid = false
		return r
	}

	for _, is := range SchemaIssues(doc) {
		r.addError(is)
	}

	checkTopLevel(doc, r)
	nodes := checkNodes(doc, r)
	checkConnections(doc, nodes, r)
	checkGraph(nodes, r)
	suggest(doc, nodes, r)

	r.Valid = len(r.Errors) == 0
	return r
}

// ValidateJSON decodes raw JSON and validates it.
func ValidateJSON(data []byte) (*Result, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid workflow JSON: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return Validate(doc), nil
}

// ValidateWorkflow validates a typed workflow.
func ValidateWorkflow(wf *model.Workflow) (*Result, error) {
	doc, err := wf.ToMap()
	if err != nil {
		return nil, err
	}
	return Validate(doc), nil
}

func normalize(wf map[string]any) (map[string]any, error) {
	if wf == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
