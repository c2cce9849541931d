package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcp "github.com/metoro-io/mcp-golang"
	mcpstdio "github.com/metoro-io/mcp-golang/transport/stdio"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/flowbridge/constants"
	mcpserver "github.com/awantoch/flowbridge/mcp"
	"github.com/awantoch/flowbridge/utils"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	svc := newTestService(t, "")
	mux := http.NewServeMux()
	GenerateHTTPHandlers(mux, svc, constants.HTTPPathAPIPrefix)
	return mux, svc
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_SaveAndGetLocalWorkflow(t *testing.T) {
	mux, _ := newTestMux(t)

	// The workflow may be sent as a raw object instead of a JSON string.
	body := `{"id":"intake","workflow":` + sampleWorkflow + `}`
	rec := serve(mux, http.MethodPost, "/api/local/workflows", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, constants.ContentTypeJSON, rec.Header().Get(constants.HeaderContentType))

	rec = serve(mux, http.MethodGet, "/api/local/workflows/intake", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Success bool `json:"success"`
		Data    struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "intake", env.Data.ID)
	assert.Equal(t, "Order intake", env.Data.Name)
}

func TestHTTP_ProblemResponses(t *testing.T) {
	mux, _ := newTestMux(t)

	cases := []struct {
		method, target, body string
		status               int
		problemType          string
	}{
		{http.MethodGet, "/api/local/workflows/missing", "", http.StatusNotFound, "not_found"},
		{http.MethodGet, "/api/n8n/workflows", "", http.StatusServiceUnavailable, "not_configured"},
		{http.MethodPost, "/api/validate", `{"workflow":`, http.StatusBadRequest, "validation_error"},
		{http.MethodGet, "/api/nodes?pageSize=abc", "", http.StatusBadRequest, "validation_error"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := serve(mux, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, constants.ContentTypeProblem, rec.Header().Get(constants.HeaderContentType))
			var problem map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Contains(t, problem["type"], tc.problemType)
			assert.Equal(t, float64(tc.status), problem["status"])
			assert.NotEmpty(t, problem["detail"])
		})
	}
}

func TestHTTP_QueryAndPathArguments(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := serve(mux, http.MethodGet, "/api/nodes?category=core%20nodes&pageSize=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data struct {
			Total    int `json:"total"`
			PageSize int `json:"pageSize"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Data.Total)
	assert.Equal(t, 5, env.Data.PageSize)

	rec = serve(mux, http.MethodGet, "/api/nodes/slack", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/nodes/search?query=slack", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hits"`)
}

func runCLI(t *testing.T, svc *Service, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	utils.SetUserOutput(&out)
	t.Cleanup(func() { utils.SetUserOutput(os.Stdout) })

	root := &cobra.Command{Use: "flowbridge", SilenceUsage: true, SilenceErrors: true}
	AttachCLICommands(root, func(*cobra.Command) (*Service, error) { return svc, nil })
	root.SetArgs(args)
	root.SetContext(context.Background())
	err := root.Execute()
	return out.String(), err
}

func TestCLI_SaveFromFileThenList(t *testing.T) {
	svc := newTestService(t, "")
	path := filepath.Join(t.TempDir(), "intake.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleWorkflow), 0o644))

	out, err := runCLI(t, svc, "local", "save", path, "--id", "intake")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"success": true`)

	out, err = runCLI(t, svc, "local", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "intake"`)

	out, err = runCLI(t, svc, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)
}

func TestCLI_SaveYAMLWorkflow(t *testing.T) {
	svc := newTestService(t, "")
	path := filepath.Join(t.TempDir(), "ping.yaml")
	doc := "name: Ping\nnodes:\n  - id: \"1\"\n    name: Start\n    type: n8n-nodes-base.manualTrigger\n" +
		"    typeVersion: 1\n    position: [0, 0]\n    parameters: {}\nconnections: {}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := runCLI(t, svc, "local", "save", path, "--id", "ping")
	require.NoError(t, err, out)

	wf, err := svc.Store.Get(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "Ping", wf.Name)
	require.Len(t, wf.Nodes, 1)
	assert.Equal(t, "Start", wf.Nodes[0].Name)
}

func TestCLI_FailureReturnsError(t *testing.T) {
	svc := newTestService(t, "")
	out, err := runCLI(t, svc, "local", "get", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to get local workflow")
	assert.Contains(t, out, `"success": false`)
}

func TestCLI_FlagsFromArgsType(t *testing.T) {
	op, ok := GetOperationByMCPName("n8n_list_workflows")
	require.True(t, ok)
	cmd := generateCLICommand(op, nil)
	for _, name := range []string{"active", "tags", "name", "project-id", "limit", "cursor"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "Comma separated tag names", cmd.Flags().Lookup("tags").Usage)
}

func TestMCP_ToolsRoundTrip(t *testing.T) {
	svc := newTestService(t, "")
	serverReader, clientWriter := io.Pipe()
	clientReader, serverWriter := io.Pipe()
	server, err := mcpserver.NewServer(mcpstdio.NewStdioServerTransportWithIO(serverReader, serverWriter), GenerateMCPTools(svc))
	require.NoError(t, err)
	go func() { _ = server.Serve() }()

	client := mcp.NewClient(mcpstdio.NewStdioServerTransportWithIO(clientReader, clientWriter))
	ctx := context.Background()
	_, err = client.Initialize(ctx)
	require.NoError(t, err)

	tools, err := client.ListTools(ctx, new(string))
	require.NoError(t, err)
	assert.Len(t, tools.Tools, len(GenerateMCPTools(svc)))

	resp, err := client.CallTool(ctx, "local_save_workflow", map[string]any{"workflow": sampleWorkflow, "id": "via-mcp"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Content)
	var env Result
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].TextContent.Text), &env))
	assert.True(t, env.Success, env.Error)

	_, err = svc.Store.Get(ctx, "via-mcp")
	require.NoError(t, err)

	resp, err = client.CallTool(ctx, "local_get_workflow", map[string]any{})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].TextContent.Text), &env))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "id is required")
}
