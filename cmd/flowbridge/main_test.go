package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/telegram"
	"github.com/awantoch/flowbridge/utils"
)

const pingWorkflow = `{
  "name": "Ping",
  "nodes": [
    {"id": "1", "name": "Start", "type": "n8n-nodes-base.manualTrigger", "typeVersion": 1, "position": [0, 0], "parameters": {}},
    {"id": "2", "name": "Ping", "type": "n8n-nodes-base.httpRequest", "typeVersion": 4.2, "position": [220, 0], "parameters": {"url": "https://example.com/ping"}}
  ],
  "connections": {
    "Start": {"main": [[{"node": "Ping", "type": "main", "index": 0}]]}
  }
}`

// writeConfig writes a config file pointing storage at a temp dir and
// clears environment overrides.
func writeConfig(t *testing.T, extra map[string]any) string {
	t.Helper()
	for _, env := range []string{
		constants.EnvN8NBaseURL, constants.EnvN8NAPIKey, constants.EnvWorkflowsDir, constants.EnvNodesDir,
		constants.EnvTelegramToken, constants.EnvTelegramSecret, constants.EnvOpenAIAPIKey,
	} {
		t.Setenv(env, "")
	}
	dir := t.TempDir()
	cfg := map[string]any{
		"storage": map[string]any{"driver": "filesystem", "directory": filepath.Join(dir, "workflows")},
		"nodes":   map[string]any{"directory": filepath.Join(dir, "nodes")},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "flowbridge.config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	utils.SetUserOutput(&out)
	defer utils.SetUserOutput(os.Stdout)

	root := NewRootCmd()
	root.SilenceErrors = true
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"mcp", "serve"},
		{"telegram"},
		{"local", "save"},
		{"n8n", "list-workflows"},
		{"nodes", "search"},
		{"validate"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
}

func TestLocalWorkflowCommands(t *testing.T) {
	cfgPath := writeConfig(t, nil)
	file := filepath.Join(t.TempDir(), "ping.json")
	if err := os.WriteFile(file, []byte(pingWorkflow), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath, "local", "save", file, "--id", "ping")
	if err != nil {
		t.Fatalf("local save: %v\n%s", err, out)
	}

	out, err = execute(t, "--config", cfgPath, "local", "list")
	if err != nil {
		t.Fatalf("local list: %v", err)
	}
	if !strings.Contains(out, `"id": "ping"`) {
		t.Errorf("expected saved workflow in list, got %q", out)
	}

	out, err = execute(t, "--config", cfgPath, "validate", file)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, `"valid": true`) {
		t.Errorf("expected valid result, got %q", out)
	}
}

func TestN8NCommand_NotConfigured(t *testing.T) {
	cfgPath := writeConfig(t, nil)
	out, err := execute(t, "--config", cfgPath, "n8n", "list-workflows")
	if err == nil {
		t.Fatal("expected an error without an n8n base URL")
	}
	if !strings.Contains(out, `"success": false`) {
		t.Errorf("expected failure envelope, got %q", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfgPath := writeConfig(t, map[string]any{"log": map[string]any{"level": "loud"}})
	if _, err := execute(t, "--config", cfgPath, "local", "list"); err == nil {
		t.Error("expected invalid log level to be rejected")
	}
}

func TestTelegramCmd_NotConfigured(t *testing.T) {
	cfgPath := writeConfig(t, nil)
	_, err := execute(t, "--config", cfgPath, "telegram")
	if err != telegram.ErrNotConfigured {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestTelegramCmd_SetWebhook(t *testing.T) {
	var mu sync.Mutex
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botsecret-token/setWebhook" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&got)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, map[string]any{
		"telegram": map[string]any{"token": "secret-token", "base_url": srv.URL, "webhook_secret": "s3cret"},
	})
	out, err := execute(t, "--config", cfgPath, "telegram", "--webhook-url", "https://bot.example.com/telegram/webhook")
	if err != nil {
		t.Fatalf("telegram --webhook-url: %v", err)
	}
	if !strings.Contains(out, "Telegram webhook set to https://bot.example.com/telegram/webhook") {
		t.Errorf("unexpected output %q", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if got["url"] != "https://bot.example.com/telegram/webhook" || got["secret_token"] != "s3cret" {
		t.Errorf("unexpected setWebhook params %v", got)
	}
}
