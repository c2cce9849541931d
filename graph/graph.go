// Package graph turns workflow connections into diagrams.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/model"
)

// Node is a vertex in the graph.
type Node struct {
	ID       string
	Label    string
	Disabled bool
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From  string
	To    string
	Label string
}

// Graph is a directed graph composed of nodes and edges.
type Graph struct {
	Nodes []*Node
	Edges []*Edge
}

// Renderer renders a Graph into a specific output format.
type Renderer interface {
	Render(g *Graph) (string, error)
}

// MermaidRenderer outputs Graphs in Mermaid flowchart syntax.
type MermaidRenderer struct{}

// NewGraph builds the graph of a workflow. Node ids are positional (n0, n1,
// ...) since n8n node names may contain any character. Connections to nodes
// that do not exist are skipped. Edges from a node with several outputs are
// labelled with the output index, and non-main connections with their type.
func NewGraph(wf *model.Workflow) *Graph {
	g := &Graph{}
	if wf == nil {
		return g
	}
	ids := make(map[string]string, len(wf.Nodes))
	order := make(map[string]int, len(wf.Nodes))
	for i, n := range wf.Nodes {
		id := fmt.Sprintf("n%d", i)
		ids[n.Name] = id
		order[n.Name] = i
		g.Nodes = append(g.Nodes, &Node{ID: id, Label: n.Name, Disabled: n.Disabled})
	}

	sources := make([]string, 0, len(wf.Connections))
	for name := range wf.Connections {
		sources = append(sources, name)
	}
	sort.Slice(sources, func(i, j int) bool { return order[sources[i]] < order[sources[j]] })

	for _, source := range sources {
		from, ok := ids[source]
		if !ok {
			continue
		}
		types := make([]string, 0, len(wf.Connections[source]))
		for t := range wf.Connections[source] {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, connType := range types {
			outputs := wf.Connections[source][connType]
			for index, targets := range outputs {
				for _, target := range targets {
					to, ok := ids[target.Node]
					if !ok {
						continue
					}
					g.Edges = append(g.Edges, &Edge{From: from, To: to, Label: edgeLabel(connType, index, len(outputs))})
				}
			}
		}
	}
	return g
}

func edgeLabel(connType string, index, outputs int) string {
	switch {
	case connType != constants.ConnectionTypeMain:
		return connType
	case outputs > 1:
		return fmt.Sprintf("%d", index)
	default:
		return ""
	}
}

// Render renders the graph using Mermaid syntax.
func (r *MermaidRenderer) Render(g *Graph) (string, error) {
	if len(g.Nodes) == 0 {
		return "", nil
	}
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, node := range g.Nodes {
		sb.WriteString(fmt.Sprintf("%s[\"%s\"]\n", node.ID, escapeLabel(node.Label)))
	}
	for _, edge := range g.Edges {
		if edge.Label != "" {
			sb.WriteString(fmt.Sprintf("%s -->|%s| %s\n", edge.From, escapeLabel(edge.Label), edge.To))
		} else {
			sb.WriteString(fmt.Sprintf("%s --> %s\n", edge.From, edge.To))
		}
	}
	for _, node := range g.Nodes {
		if node.Disabled {
			sb.WriteString(fmt.Sprintf("style %s stroke-dasharray: 5 5\n", node.ID))
		}
	}
	return sb.String(), nil
}

// escapeLabel replaces characters that end a quoted Mermaid label.
func escapeLabel(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ").Replace(s)
}

// ExportMermaid is a helper to create a Mermaid diagram from a workflow.
func ExportMermaid(wf *model.Workflow) (string, error) {
	renderer := &MermaidRenderer{}
	return renderer.Render(NewGraph(wf))
}
