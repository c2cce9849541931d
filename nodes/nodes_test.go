package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awantoch/flowbridge/model"
)

func writeDef(t *testing.T, dir, version, file string, v any) {
	t.Helper()
	path := filepath.Join(dir, version)
	require.NoError(t, os.MkdirAll(path, 0o755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(path, file), data, 0o644))
}

func slackDef() model.NodeDefinition {
	return model.NodeDefinition{
		Name:        "n8n-nodes-base.slack",
		DisplayName: "Slack",
		Description: "Consume Slack API",
		Group:       []string{"output"},
		Version:     model.VersionList{1, 2.2},
		Codex:       &model.Codex{Categories: []string{"Communication"}, Alias: []string{"chat", "messaging"}},
		Properties: []model.NodeProperty{
			{Name: "resource", DisplayName: "Resource", Type: "options", Default: "message",
				Options: []model.PropertyOption{{Name: "Message", Value: "message"}, {Name: "Channel", Value: "channel"}}},
			{Name: "channelId", DisplayName: "Channel", Type: "string", Required: true,
				DisplayOptions: &model.DisplayOptions{Show: map[string][]any{"resource": {"message"}}}},
			{Name: "text", DisplayName: "Text", Type: "string", Required: true,
				DisplayOptions: &model.DisplayOptions{Show: map[string][]any{"/resource": {"message"}}, Hide: map[string][]any{"@version": {1}}}},
			{Name: "channelName", DisplayName: "Name", Type: "string", Required: true,
				DisplayOptions: &model.DisplayOptions{Show: map[string][]any{"resource": {"channel"}}}},
		},
	}
}

func newFixture(t *testing.T) string {
	dir := t.TempDir()
	writeDef(t, dir, "1.20.0", "slack.json", slackDef())
	writeDef(t, dir, "1.20.0", "bundle.json", []model.NodeDefinition{
		{Name: "n8n-nodes-base.httpRequest", DisplayName: "HTTP Request", Description: "Makes an HTTP request and returns the response data",
			Group: []string{"output"}, Version: model.VersionList{4.2}, Codex: &model.Codex{Categories: []string{"Core Nodes"}, Alias: []string{"API", "fetch"}}},
		{Name: "n8n-nodes-base.set", DisplayName: "Edit Fields (Set)", Description: "Modify, add, or remove item fields",
			Group: []string{"input"}, Version: model.VersionList{3.4}, Codex: &model.Codex{Categories: []string{"Core Nodes"}}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.20.0", "broken.json"), []byte("{"), 0o644))
	writeDef(t, dir, "1.9.3", "slack.json", slackDef())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nightly"), 0o755))
	return dir
}

func TestSortVersions(t *testing.T) {
	versions := []string{"1.9.3", "nightly", "1.100.1", "alpha", "v1.20.0"}
	SortVersions(versions)
	assert.Equal(t, []string{"1.100.1", "v1.20.0", "1.9.3", "alpha", "nightly"}, versions)
}

func TestService_Versions(t *testing.T) {
	svc := NewService(newFixture(t))
	versions, err := svc.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{"1.20.0", "1.9.3", "nightly"}, versions)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Equal(t, "1.20.0", latest)

	empty := NewService(filepath.Join(t.TempDir(), "missing"))
	_, err = empty.Latest()
	assert.ErrorIs(t, err, ErrNoVersions)
}

func TestService_LoadSkipsBrokenFiles(t *testing.T) {
	svc := NewService(newFixture(t))
	defs, err := svc.Load("")
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "n8n-nodes-base.httpRequest", defs[0].Name)

	_, err = svc.Load("0.0.1")
	assert.ErrorIs(t, err, ErrVersionNotFound)
	_, err = svc.Load("../etc")
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestService_LoadUsesCache(t *testing.T) {
	dir := newFixture(t)
	svc := NewService(dir, WithCache(8*1024*1024, time.Minute))
	first, err := svc.Load("1.20.0")
	require.NoError(t, err)

	// Files removed after the first load are still served from cache.
	require.NoError(t, os.Remove(filepath.Join(dir, "1.20.0", "slack.json")))
	second, err := svc.Load("1.20.0")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	svc.Cache().Invalidate("1.20.0")
	third, err := svc.Load("1.20.0")
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func TestService_LoadCacheExpires(t *testing.T) {
	dir := newFixture(t)
	svc := NewService(dir, WithCache(8*1024*1024, time.Second))
	first, err := svc.Load("1.20.0")
	require.NoError(t, err)
	require.Len(t, first, 3)

	require.NoError(t, os.Remove(filepath.Join(dir, "1.20.0", "slack.json")))
	cached, err := svc.Load("1.20.0")
	require.NoError(t, err)
	assert.Len(t, cached, 3)

	// freecache expiry has one second resolution
	time.Sleep(2100 * time.Millisecond)
	_, ok := svc.Cache().Get("1.20.0")
	assert.False(t, ok)
	reloaded, err := svc.Load("1.20.0")
	require.NoError(t, err)
	require.Len(t, reloaded, 2)
	for _, def := range reloaded {
		assert.NotEqual(t, "n8n-nodes-base.slack", def.Name)
	}
}

func TestCache_PackRoundTrip(t *testing.T) {
	def := slackDef()
	packed, err := pack(&def)
	require.NoError(t, err)
	var got model.NodeDefinition
	require.NoError(t, unpack(packed, &got))
	want, err := json.Marshal(def)
	require.NoError(t, err)
	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(data))
	assert.Error(t, unpack([]byte("not zstd"), &got))
}

func TestService_Get(t *testing.T) {
	svc := NewService(newFixture(t))
	def, err := svc.Get("", "n8n-nodes-base.slack")
	require.NoError(t, err)
	assert.Equal(t, "Slack", def.DisplayName)

	def, err = svc.Get("1.20.0", "HTTPREQUEST")
	require.NoError(t, err)
	assert.Equal(t, "n8n-nodes-base.httpRequest", def.Name)

	_, err = svc.Get("", "nope")
	assert.True(t, errors.Is(err, ErrNodeNotFound))
}

func TestService_List(t *testing.T) {
	svc := NewService(newFixture(t))

	res, err := svc.List(ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, "1.20.0", res.Version)
	assert.Equal(t, 3, res.Total)
	assert.False(t, res.HasMore)
	assert.Equal(t, "Edit Fields (Set)", res.Nodes[0].DisplayName)

	res, err = svc.List(ListQuery{Category: "core nodes"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = svc.List(ListQuery{Category: "output"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total, "group matches as category")

	res, err = svc.List(ListQuery{Search: "http"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "n8n-nodes-base.httpRequest", res.Nodes[0].Name)

	res, err = svc.List(ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, res.Nodes, 1)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.HasMore)

	res, err = svc.List(ListQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.True(t, res.HasMore)

	res, err = svc.List(ListQuery{PageSize: 1000, Page: 9})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, res.PageSize)
	assert.Empty(t, res.Nodes)
}

func TestService_Search(t *testing.T) {
	svc := NewService(newFixture(t))
	hits, err := svc.Search(context.Background(), "", "fetch", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "n8n-nodes-base.httpRequest", hits[0].Node.Name)

	_, err = svc.Search(context.Background(), "", " ", 5)
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	def := slackDef()
	cases := []struct {
		query string
		score float64
		level Level
	}{
		{"slack", 1.0, LevelHigh},
		{"SLA", 0.8, LevelHigh},
		{"chat", 0.9, LevelHigh},
		{"messag", 0.5, LevelMedium},
		{"consume", 0.4, LevelLow},
		{"send slack", 0.15, LevelLow},
		{"zzz", 0, LevelLow},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c := Score(&def, tc.query)
			assert.InDelta(t, tc.score, c.Score, 1e-9)
			assert.Equal(t, tc.level, c.Level)
			if tc.score > 0 {
				assert.NotEmpty(t, c.Reasons)
			}
		})
	}
}

func TestAnalyzeDependencies(t *testing.T) {
	def := slackDef()
	def.Properties = append(def.Properties,
		model.NodeProperty{Name: "loop", Type: "string", DisplayOptions: &model.DisplayOptions{Show: map[string][]any{"loop": {"x"}}}},
		model.NodeProperty{Name: "orphan", Type: "string", DisplayOptions: &model.DisplayOptions{Show: map[string][]any{"operation": {"post"}}}},
	)
	r := AnalyzeDependencies(&def)
	assert.Equal(t, []string{"resource"}, r.Independent)
	assert.ElementsMatch(t, []string{"channelId", "text", "channelName"}, r.Controllers["resource"])
	_, hasVersion := r.Controllers["@version"]
	assert.False(t, hasVersion)

	var hide *Dependency
	for i := range r.Dependencies {
		if r.Dependencies[i].Mode == ModeHide {
			hide = &r.Dependencies[i]
		}
	}
	require.NotNil(t, hide)
	assert.Equal(t, "text", hide.Property)
	assert.Equal(t, "@version", hide.DependsOn)

	require.Len(t, r.Issues, 2)
	assert.Contains(t, r.Issues[0].Message, "itself")
	assert.Contains(t, r.Issues[1].Message, `"operation"`)
}

func TestVisibleAndMissing(t *testing.T) {
	def := slackDef()

	names := func(props []model.NodeProperty) []string {
		var out []string
		for _, p := range props {
			out = append(out, p.Name)
		}
		return out
	}

	// resource defaults to "message"; latest version 2.2 keeps "text" visible.
	assert.Equal(t, []string{"resource", "channelId", "text"}, names(VisibleProperties(&def, nil)))
	assert.Equal(t, []string{"resource", "channelId"}, names(VisibleProperties(&def, map[string]any{"@version": 1})))
	assert.Equal(t, []string{"resource", "channelName"}, names(VisibleProperties(&def, map[string]any{"resource": "channel"})))

	assert.Equal(t, []string{"channelId", "text"}, MissingRequired(&def, map[string]any{}))
	assert.Equal(t, []string{"text"}, MissingRequired(&def, map[string]any{"channelId": "C1", "text": " "}))
	assert.Empty(t, MissingRequired(&def, map[string]any{"resource": "channel", "channelName": "ops"}))
}
