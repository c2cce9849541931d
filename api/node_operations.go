package api

import (
	"context"
	"net/http"

	"github.com/awantoch/flowbridge/nodes"
)

// NodeAnalysis is the data of analyze_node_properties.
type NodeAnalysis struct {
	*nodes.DependencyReport
	VisibleProperties []string `json:"visibleProperties"`
	MissingRequired   []string `json:"missingRequired"`
}

func init() {
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listNodeVersions",
		Name:        "List Node Versions",
		Description: "List the available node definition versions, newest first",
		Group:       GroupNodes,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/nodes/versions",
		CLIUse:      "versions",
		CLIShort:    "List node definition versions",
		MCPName:     "list_node_versions",
	}, func(ctx context.Context, svc *Service, _ *EmptyArgs) (any, error) {
		versions, err := svc.Nodes.Versions()
		if err != nil {
			return nil, err
		}
		latest := ""
		if len(versions) > 0 {
			latest = versions[0]
		}
		return map[string]any{"versions": versions, "latest": latest}, nil
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listNodes",
		Name:        "List Nodes",
		Description: "List node definitions filtered by category and text, one page at a time",
		Group:       GroupNodes,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/nodes",
		CLIUse:      "list",
		CLIShort:    "List node definitions",
		MCPName:     "list_nodes",
	}, func(ctx context.Context, svc *Service, a *ListNodesArgs) (any, error) {
		return svc.Nodes.List(nodes.ListQuery{
			Version:  a.Version,
			Category: a.Category,
			Search:   a.Search,
			Page:     a.Page,
			PageSize: a.PageSize,
		})
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getNode",
		Name:        "Get Node",
		Description: "Show the full definition of a node type",
		Group:       GroupNodes,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/nodes/{name}",
		CLIUse:      "get <name>",
		CLIShort:    "Show a node definition",
		MCPName:     "get_node",
	}, func(ctx context.Context, svc *Service, a *GetNodeArgs) (any, error) {
		return svc.Nodes.Get(a.Version, a.Name)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "searchNodes",
		Name:        "Search Nodes",
		Description: "Rank node definitions against a query with a confidence score",
		Group:       GroupNodes,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/nodes/search",
		CLIUse:      "search <query>",
		CLIShort:    "Search node definitions",
		MCPName:     "search_nodes",
	}, func(ctx context.Context, svc *Service, a *SearchNodesArgs) (any, error) {
		hits, err := svc.Nodes.Search(ctx, a.Version, a.Query, a.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"query": a.Query, "hits": hits}, nil
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "analyzeNodeProperties",
		Name:        "Analyze Node Properties",
		Description: "Explain which properties of a node control the visibility of others and which required ones are missing for the given parameters",
		Group:       GroupNodes,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/nodes/{name}/analyze",
		CLIUse:      "analyze <name>",
		CLIShort:    "Analyze node property dependencies",
		MCPName:     "analyze_node_properties",
	}, func(ctx context.Context, svc *Service, a *AnalyzeNodeArgs) (any, error) {
		def, err := svc.Nodes.Get(a.Version, a.Name)
		if err != nil {
			return nil, err
		}
		params := map[string]any{}
		if a.Parameters != "" {
			if err := a.Parameters.Decode(&params); err != nil {
				return nil, err
			}
		}
		visible := []string{}
		for _, p := range nodes.VisibleProperties(def, params) {
			visible = append(visible, p.Name)
		}
		return &NodeAnalysis{
			DependencyReport:  nodes.AnalyzeDependencies(def),
			VisibleProperties: visible,
			MissingRequired:   nodes.MissingRequired(def, params),
		}, nil
	}))
}
