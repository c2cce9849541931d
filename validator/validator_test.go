package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/flowbridge/model"
)

const validWorkflow = `{
  "name": "Order intake",
  "active": false,
  "nodes": [
    {"id": "1", "name": "Receive order", "type": "n8n-nodes-base.webhook", "typeVersion": 2, "position": [0, 0], "parameters": {"httpMethod": "POST", "path": "orders"}},
    {"id": "2", "name": "Forward to ERP", "type": "n8n-nodes-base.httpRequest", "typeVersion": 4.2, "position": [220, 0], "parameters": {"url": "https://erp.example.com/orders"}}
  ],
  "connections": {
    "Receive order": {"main": [[{"node": "Forward to ERP", "type": "main", "index": 0}]]}
  },
  "settings": {"executionOrder": "v1", "errorWorkflow": "42"}
}`

func mustValidate(t *testing.T, js string) *Result {
	t.Helper()
	r, err := ValidateJSON([]byte(js))
	require.NoError(t, err)
	return r
}

func findIssue(issues []Issue, code string) *Issue {
	for i := range issues {
		if issues[i].Code == code {
			return &issues[i]
		}
	}
	return nil
}

func TestValidate_ValidWorkflow(t *testing.T) {
	r := mustValidate(t, validWorkflow)
	assert.True(t, r.Valid, FormatResult(r))
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
	assert.Empty(t, r.Suggestions)
}

func TestValidate_MissingNameOrNodes(t *testing.T) {
	cases := map[string]string{
		"missing name":  `{"nodes": [{"id":"1","name":"a","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{}}]}`,
		"blank name":    `{"name": "  ", "nodes": [{"id":"1","name":"a","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{}}]}`,
		"zero nodes":    `{"name": "x", "nodes": []}`,
		"missing nodes": `{"name": "x"}`,
		"empty object":  `{}`,
	}
	for name, js := range cases {
		t.Run(name, func(t *testing.T) {
			r := mustValidate(t, js)
			assert.False(t, r.Valid)
			assert.NotEmpty(t, r.Errors)
		})
	}
}

func TestValidate_ConnectionToMissingNodeNamesIt(t *testing.T) {
	js := strings.Replace(validWorkflow, `"node": "Forward to ERP"`, `"node": "ghost-node"`, 1)
	r := mustValidate(t, js)
	require.False(t, r.Valid)
	is := findIssue(r.Errors, CodeUnknownTarget)
	require.NotNil(t, is)
	assert.Contains(t, is.Message, "ghost-node")
	assert.Equal(t, "ghost-node", is.NodeID)
}

func TestValidate_ConnectionsResolveByID(t *testing.T) {
	js := strings.Replace(validWorkflow, `"Receive order": {"main": [[{"node": "Forward to ERP"`, `"1": {"main": [[{"node": "2"`, 1)
	r := mustValidate(t, js)
	assert.True(t, r.Valid, FormatResult(r))
}

func TestValidate_UnknownSource(t *testing.T) {
	js := strings.Replace(validWorkflow, `"Receive order": {"main"`, `"Nowhere": {"main"`, 1)
	r := mustValidate(t, js)
	assert.True(t, r.HasCode(CodeUnknownSource))
}

func TestValidate_WebhookMissingParams(t *testing.T) {
	js := `{"name":"w","nodes":[{"id":"1","name":"Hook","type":"n8n-nodes-base.webhook","typeVersion":1,"position":[0,0],"parameters":{}}],"connections":{}}`
	r := mustValidate(t, js)
	require.False(t, r.Valid)
	fields := map[string]bool{}
	for _, is := range r.Errors {
		if is.Code == CodeMissingParameter {
			fields[is.Field] = true
		}
	}
	assert.True(t, fields["httpMethod"], "expected httpMethod error")
	assert.True(t, fields["path"], "expected path error")
}

func TestValidate_NodeFieldErrors(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"","name":"A","type":"n8n-nodes-base.manualTrigger","typeVersion":0,"position":[0],"parameters":[]},
		"not a node"
	]}`
	r := mustValidate(t, js)
	for _, code := range []string{CodeMissingNodeField, CodeInvalidTypeVersion, CodeInvalidPosition, CodeInvalidParameters, CodeInvalidNode} {
		assert.NotNil(t, findIssue(r.Errors, code), "expected %s", code)
	}
}

func TestValidate_DuplicateIDsAndNames(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"1","name":"A","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{}},
		{"id":"1","name":"A","type":"n8n-nodes-base.noOp","typeVersion":1,"position":[0,0],"parameters":{}}
	],"connections":{"A":{"main":[[{"node":"A","type":"main","index":0}]]}}}`
	r := mustValidate(t, js)
	assert.NotNil(t, findIssue(r.Errors, CodeDuplicateNodeID))
	assert.NotNil(t, findIssue(r.Warnings, CodeDuplicateNodeName))
}

func TestValidate_ConnectionShape(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"1","name":"A","type":"n8n-nodes-base.manualTrigger","typeVersion":1,"position":[0,0],"parameters":{}},
		{"id":"2","name":"B","type":"n8n-nodes-base.noOp","typeVersion":1,"position":[0,0],"parameters":{}}
	],"connections":{
		"A":{"main":[[{"node":"B","index":-1}]], "other": "bad"},
		"B":{"main":[{"node":"A"}]}
	}}`
	r := mustValidate(t, js)
	assert.NotNil(t, findIssue(r.Errors, CodeMissingConnType))
	assert.NotNil(t, findIssue(r.Errors, CodeInvalidConnIndex))
	assert.NotNil(t, findIssue(r.Errors, CodeInvalidConnection))
}

func TestValidate_Settings(t *testing.T) {
	js := strings.Replace(validWorkflow, `"settings": {"executionOrder": "v1", "errorWorkflow": "42"}`,
		`"settings": {"executionOrder": "v9", "saveDataErrorExecution": "some", "executionTimeout": -5, "timezone": 3}`, 1)
	r := mustValidate(t, js)
	count := 0
	for _, is := range r.Errors {
		if is.Code == CodeInvalidSetting {
			count++
		}
	}
	assert.Equal(t, 4, count, FormatResult(r))
}

func TestValidate_SchemaPass(t *testing.T) {
	js := strings.Replace(validWorkflow, `"active": false`, `"active": "yes", "staticData": []`, 1)
	r := mustValidate(t, js)
	require.False(t, r.Valid)
	var fields []string
	for _, is := range r.Errors {
		if is.Code == CodeSchema {
			fields = append(fields, is.Field)
		}
	}
	assert.ElementsMatch(t, []string{"active", "staticData"}, fields)
}

func TestValidate_TypeHeuristics(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"1","name":"Every hour","type":"n8n-nodes-base.scheduleTrigger","typeVersion":1,"position":[0,0],"parameters":{}},
		{"id":"2","name":"Transform","type":"n8n-nodes-base.code","typeVersion":2,"position":[0,0],"parameters":{"jsCode":"  "}},
		{"id":"3","name":"Check","type":"n8n-nodes-base.if","typeVersion":2,"position":[0,0],"parameters":{"conditions":{"conditions":[],"combinator":"and"}}},
		{"id":"4","name":"Route","type":"n8n-nodes-base.switch","typeVersion":3,"position":[0,0],"parameters":{}},
		{"id":"5","name":"Fields","type":"n8n-nodes-base.set","typeVersion":3.4,"position":[0,0],"parameters":{"assignments":{"assignments":[]}}},
		{"id":"6","name":"Call","type":"n8n-nodes-base.httpRequest","typeVersion":4,"position":[0,0],"parameters":{},"credentials":{}}
	],"connections":{
		"Every hour":{"main":[[{"node":"Transform","type":"main","index":0}]]},
		"Transform":{"main":[[{"node":"Check","type":"main","index":0}]]},
		"Check":{"main":[[{"node":"Route","type":"main","index":0}]]},
		"Route":{"main":[[{"node":"Fields","type":"main","index":0}]]},
		"Fields":{"main":[[{"node":"Call","type":"main","index":0}]]}
	}}`
	r := mustValidate(t, js)
	for _, code := range []string{CodeMissingSchedule, CodeEmptyCode, CodeMissingConditions, CodeMissingAssignments, CodeEmptyCredentials} {
		assert.NotNil(t, findIssue(r.Warnings, code), "expected warning %s", code)
	}
	is := findIssue(r.Errors, CodeMissingParameter)
	require.NotNil(t, is)
	assert.Equal(t, "url", is.Field)
}

func TestValidate_GraphHeuristics(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"1","name":"A","type":"n8n-nodes-base.noOp","typeVersion":1,"position":[0,0],"parameters":{}},
		{"id":"2","name":"B","type":"n8n-nodes-base.noOp","typeVersion":1,"position":[0,0],"parameters":{}},
		{"id":"3","name":"Note","type":"n8n-nodes-base.stickyNote","typeVersion":1,"position":[0,0],"parameters":{}}
	],"connections":{}}`
	r := mustValidate(t, js)
	assert.True(t, r.Valid)
	assert.NotNil(t, findIssue(r.Warnings, CodeNoTrigger))
	disconnected := 0
	for _, is := range r.Warnings {
		if is.Code == CodeDisconnectedNode {
			disconnected++
		}
	}
	assert.Equal(t, 2, disconnected)
}

func TestValidate_Suggestions(t *testing.T) {
	js := `{"name":"w","nodes":[
		{"id":"1","name":"Webhook","type":"n8n-nodes-base.webhook","typeVersion":1,"position":[0,0],"parameters":{"httpMethod":"GET","path":"p"}},
		{"id":"2","name":"Code","type":"n8n-nodes-base.code","typeVersion":2,"position":[0,0],"parameters":{"jsCode":"return items"},"disabled":true}
	],"connections":{"Webhook":{"main":[[{"node":"Code","type":"main","index":0}]]}}}`
	r := mustValidate(t, js)
	joined := strings.Join(r.Suggestions, "\n")
	assert.Contains(t, joined, "errorWorkflow")
	assert.Contains(t, joined, "executionOrder")
	assert.Contains(t, joined, "default names")
	assert.Contains(t, joined, "disabled")
	assert.Contains(t, joined, "notes")
}

func TestValidateWorkflow_Typed(t *testing.T) {
	wf, err := model.ParseWorkflow([]byte(validWorkflow))
	require.NoError(t, err)
	r, err := ValidateWorkflow(wf)
	require.NoError(t, err)
	assert.True(t, r.Valid, FormatResult(r))
}

func TestValidate_GoBuiltMap(t *testing.T) {
	doc := map[string]any{
		"name": "built",
		"nodes": []map[string]any{{
			"id": "1", "name": "Start", "type": "n8n-nodes-base.manualTrigger",
			"typeVersion": 1, "position": []int{0, 0}, "parameters": map[string]any{},
		}},
	}
	r := Validate(doc)
	assert.True(t, r.Valid, FormatResult(r))
}

func TestDecodeWorkflow(t *testing.T) {
	wf, err := DecodeWorkflow([]byte(validWorkflow))
	require.NoError(t, err)
	assert.Equal(t, "Order intake", wf.Name)

	_, err = DecodeWorkflow([]byte(`{"name":"x","pinData":"nope"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinData")
	assert.ErrorIs(t, err, ErrInvalidWorkflow)

	_, err = DecodeWorkflow([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrInvalidWorkflow)
}

func TestSummaryAndFormat(t *testing.T) {
	r := mustValidate(t, `{"name":"","nodes":[]}`)
	assert.True(t, strings.HasPrefix(Summary(r), "Workflow is invalid: 2 errors"), Summary(r))
	out := FormatResult(r)
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "(missing_name)")

	ok := &Result{Valid: true}
	assert.Equal(t, "Workflow is valid", Summary(ok))
	ok.Warnings = []Issue{{Code: "x"}}
	assert.Equal(t, "Workflow is valid (1 warning)", Summary(ok))
}
