package api

import (
	"context"
	"net/http"

	"github.com/awantoch/flowbridge/graph"
	"github.com/awantoch/flowbridge/model"
)

// WorkflowGraph is a Mermaid flowchart of a workflow's connections.
type WorkflowGraph struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mermaid string `json:"mermaid"`
}

func renderGraph(wf *model.Workflow) (*WorkflowGraph, error) {
	out, err := graph.ExportMermaid(wf)
	if err != nil {
		return nil, err
	}
	return &WorkflowGraph{ID: wf.ID, Name: wf.Name, Mermaid: out}, nil
}

func init() {
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "graphLocalWorkflow",
		Name:        "Graph Local Workflow",
		Description: "Render the connections of a stored workflow as a Mermaid flowchart",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/local/workflows/{id}/graph",
		CLIUse:      "graph <id>",
		CLIShort:    "Draw a stored workflow",
		MCPName:     "local_workflow_graph",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		wf, err := svc.Store.Get(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return renderGraph(wf)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "graphN8NWorkflow",
		Name:        "Graph n8n Workflow",
		Description: "Fetch a workflow from the n8n server and render its connections as a Mermaid flowchart",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/workflows/{id}/graph",
		CLIUse:      "workflow-graph <id>",
		CLIShort:    "Draw an n8n workflow",
		MCPName:     "n8n_workflow_graph",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		wf, err := client.GetWorkflow(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return renderGraph(wf)
	}))
}
