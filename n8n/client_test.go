package n8n

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/flowbridge/model"
)

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]any
	raw    string
}

func newTestServer(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.apiKey = r.Header.Get("X-N8N-API-KEY")
		data, _ := io.ReadAll(r.Body)
		rec.raw = string(data)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", WithHTTPClient(srv.Client())), rec
}

func TestNewClient_NormalizesBaseURL(t *testing.T) {
	assert.Equal(t, "http://n8n:5678/api/v1", NewClient("http://n8n:5678/", "k").BaseURL())
	assert.Equal(t, "http://n8n:5678/api/v1", NewClient("http://n8n:5678/api/v1", "k").BaseURL())
	assert.Equal(t, "", NewClient("", "k").BaseURL())
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := NewClient("http://n8n:5678", "").GetWorkflow(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestListWorkflows(t *testing.T) {
	c, rec := newTestServer(t, 200, `{"data":[{"id":"1","name":"A","active":true,"nodes":[],"connections":{}}],"nextCursor":"abc"}`)
	active := true
	page, err := c.ListWorkflows(context.Background(), ListWorkflowsOptions{
		PageOptions: PageOptions{Limit: 10, Cursor: "c1"},
		Active:      &active,
		Tags:        []string{"prod", "billing"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/workflows", rec.path)
	assert.Equal(t, "test-key", rec.apiKey)
	assert.Equal(t, "active=true&cursor=c1&limit=10&tags=prod%2Cbilling", rec.query)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "A", page.Data[0].Name)
	assert.Equal(t, "abc", page.NextCursor)
}

func TestCreateWorkflow_SendsOnlyWritableFields(t *testing.T) {
	c, rec := newTestServer(t, 200, `{"id":"new","name":"W","active":false,"nodes":[],"connections":{}}`)
	wf := &model.Workflow{
		ID:     "ignored",
		Name:   "W",
		Active: true,
		Nodes:  []model.Node{{ID: "1", Name: "Start", Type: "n8n-nodes-base.manualTrigger", TypeVersion: 1, Position: []float64{0, 0}, Parameters: map[string]any{}}},
		Tags:   []model.Tag{{ID: "t"}},
	}
	out, err := c.CreateWorkflow(context.Background(), wf)
	require.NoError(t, err)
	assert.Equal(t, "new", out.ID)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.ElementsMatch(t, []string{"name", "nodes", "connections", "settings"}, keys(rec.body))
}

func TestUpdateAndLifecycle(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestServer(t, 200, `{"id":"7","name":"W","active":true}`)

	_, err := c.UpdateWorkflow(ctx, "7", &model.Workflow{Name: "W"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/v1/workflows/7", rec.path)

	_, err = c.ActivateWorkflow(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/workflows/7/activate", rec.path)

	_, err = c.DeactivateWorkflow(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/workflows/7/deactivate", rec.path)

	_, err = c.DeleteWorkflow(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
}

func TestWorkflowTags(t *testing.T) {
	c, rec := newTestServer(t, 200, `[{"id":"1","name":"prod"}]`)
	tags, err := c.UpdateWorkflowTags(context.Background(), "7", []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/workflows/7/tags", rec.path)
	assert.JSONEq(t, `[{"id":"1"}]`, rec.raw)
	require.Len(t, tags, 1)
	assert.Equal(t, "prod", tags[0].Name)
}

func TestExecutions(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestServer(t, 200, `{"data":[{"id":12,"finished":true,"status":"success","workflowId":"7"}]}`)
	page, err := c.ListExecutions(ctx, ListExecutionsOptions{WorkflowID: "7", Status: "success", IncludeData: true})
	require.NoError(t, err)
	assert.Equal(t, "includeData=true&status=success&workflowId=7", rec.query)
	require.Len(t, page.Data, 1)
	assert.Equal(t, model.FlexibleID("12"), page.Data[0].ID)

	c, rec = newTestServer(t, 200, `{"id":12,"finished":true}`)
	_, err = c.GetExecution(ctx, "12", false)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/executions/12", rec.path)
	assert.Equal(t, "", rec.query)
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestServer(t, 200, `{"id":"5","name":"Slack","type":"slackApi"}`)
	out, err := c.CreateCredential(ctx, &model.Credential{Name: "Slack", Type: "slackApi", Data: map[string]any{"accessToken": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "5", out.ID)
	assert.Equal(t, "slackApi", rec.body["type"])

	c, rec = newTestServer(t, 200, `{"type":"object","properties":{"accessToken":{"type":"string"}}}`)
	schema, err := c.GetCredentialSchema(ctx, "slackApi")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/credentials/schema/slackApi", rec.path)
	assert.Equal(t, "object", schema["type"])
}

func TestTagsAndVariables(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestServer(t, 201, `{"id":"3","name":"ops"}`)
	tag, err := c.CreateTag(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, "3", tag.ID)
	assert.Equal(t, "ops", rec.body["name"])

	c, rec = newTestServer(t, 201, ``)
	require.NoError(t, c.CreateVariable(ctx, "ENV", "prod"))
	assert.Equal(t, "/api/v1/variables", rec.path)
	assert.Equal(t, "ENV", rec.body["key"])

	c, rec = newTestServer(t, 204, ``)
	require.NoError(t, c.DeleteVariable(ctx, "v1"))
	assert.Equal(t, http.MethodDelete, rec.method)
}

func TestAPIError(t *testing.T) {
	c, _ := newTestServer(t, 404, `{"message":"Not Found"}`)
	_, err := c.GetWorkflow(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.True(t, IsNotFound(err))

	c, _ = newTestServer(t, 500, `oops`)
	_, err = c.GetTag(context.Background(), "1")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.Equal(t, "oops", apiErr.Body)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
