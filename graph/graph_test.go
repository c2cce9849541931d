package graph

import (
	"strings"
	"testing"

	"github.com/awantoch/flowbridge/model"
)

func target(node string) []model.ConnectionTarget {
	return []model.ConnectionTarget{{Node: node, Type: "main", Index: 0}}
}

func branchingWorkflow() *model.Workflow {
	return &model.Workflow{
		Name: "Triage",
		Nodes: []model.Node{
			{Name: "Webhook"},
			{Name: "Is urgent?"},
			{Name: "Page \"on-call\""},
			{Name: "Log", Disabled: true},
			{Name: "Model"},
		},
		Connections: map[string]model.NodeConnections{
			"Webhook":    {"main": {target("Is urgent?")}},
			"Is urgent?": {"main": {target("Page \"on-call\""), target("Log")}},
			"Model":      {"ai_languageModel": {target("Is urgent?")}},
			"Ghost":      {"main": {target("Log")}},
		},
	}
}

func TestExportMermaid_EmptyWorkflow(t *testing.T) {
	s, err := ExportMermaid(&model.Workflow{Name: "empty"})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if s != "" {
		t.Errorf("expected empty string, got %q", s)
	}
	if s, _ := ExportMermaid(nil); s != "" {
		t.Errorf("expected empty string for nil workflow, got %q", s)
	}
}

func TestNewGraph(t *testing.T) {
	g := NewGraph(branchingWorkflow())
	if len(g.Nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(g.Nodes))
	}
	// Ghost is not a node, so its connection is dropped.
	if len(g.Edges) != 4 {
		t.Fatalf("expected 4 edges, got %d", len(g.Edges))
	}
	want := []Edge{
		{From: "n0", To: "n1"},
		{From: "n1", To: "n2", Label: "0"},
		{From: "n1", To: "n3", Label: "1"},
		{From: "n4", To: "n1", Label: "ai_languageModel"},
	}
	for i, w := range want {
		if *g.Edges[i] != w {
			t.Errorf("edge %d: expected %+v, got %+v", i, w, *g.Edges[i])
		}
	}
}

func TestExportMermaid(t *testing.T) {
	s, err := ExportMermaid(branchingWorkflow())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, line := range []string{
		"graph TD",
		`n2["Page #quot;on-call#quot;"]`,
		"n0 --> n1",
		"n1 -->|1| n3",
		"style n3 stroke-dasharray: 5 5",
	} {
		if !strings.Contains(s, line) {
			t.Errorf("output missing %q:\n%s", line, s)
		}
	}
}
