package api

import (
	"context"
	"net/http"

	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/validator"
)

// ValidationReport is the data of the validation tools.
type ValidationReport struct {
	*validator.Result
	Summary string `json:"summary"`
}

func newValidationReport(r *validator.Result) *ValidationReport {
	return &ValidationReport{Result: r, Summary: validator.Summary(r)}
}

func validateTyped(wf *model.Workflow) (*ValidationReport, error) {
	r, err := validator.ValidateWorkflow(wf)
	if err != nil {
		return nil, err
	}
	return newValidationReport(r), nil
}

func init() {
	// Local storage
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listLocalWorkflows",
		Name:        "List Local Workflows",
		Description: "List workflows kept in local storage",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/local/workflows",
		CLIUse:      "list",
		CLIShort:    "List stored workflows",
		MCPName:     "local_list_workflows",
	}, func(ctx context.Context, svc *Service, _ *EmptyArgs) (any, error) {
		return svc.Store.List(ctx)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getLocalWorkflow",
		Name:        "Get Local Workflow",
		Description: "Read a workflow from local storage",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/local/workflows/{id}",
		CLIUse:      "get <id>",
		CLIShort:    "Show a stored workflow",
		MCPName:     "local_get_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		return svc.Store.Get(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "saveLocalWorkflow",
		Name:        "Save Local Workflow",
		Description: "Write a workflow JSON document to local storage, creating or replacing it",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/local/workflows",
		CLIUse:      "save <file>",
		CLIShort:    "Store a workflow",
		MCPName:     "local_save_workflow",
	}, func(ctx context.Context, svc *Service, a *SaveLocalWorkflowArgs) (any, error) {
		wf, err := validator.DecodeWorkflow([]byte(a.Workflow))
		if err != nil {
			return nil, err
		}
		if a.ID != "" {
			wf.ID = a.ID
		}
		return svc.Store.Save(ctx, wf)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteLocalWorkflow",
		Name:        "Delete Local Workflow",
		Description: "Remove a workflow from local storage",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/local/workflows/{id}",
		CLIUse:      "delete <id>",
		CLIShort:    "Delete a stored workflow",
		MCPName:     "local_delete_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		if err := svc.Store.Delete(ctx, a.ID); err != nil {
			return nil, err
		}
		return map[string]any{"id": a.ID, "deleted": true}, nil
	}))

	// Validation
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "validateWorkflow",
		Name:        "Validate Workflow",
		Description: "Check a workflow JSON document for structural errors, warnings and improvement suggestions",
		Group:       GroupRoot,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/validate",
		CLIUse:      "validate <file>",
		CLIShort:    "Validate a workflow file",
		MCPName:     "validate_workflow",
	}, func(ctx context.Context, svc *Service, a *WorkflowArgs) (any, error) {
		r, err := validator.ValidateJSON([]byte(a.Workflow))
		if err != nil {
			return nil, invalidf("%v", err)
		}
		return newValidationReport(r), nil
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "validateLocalWorkflow",
		Name:        "Validate Local Workflow",
		Description: "Validate a workflow kept in local storage",
		Group:       GroupLocal,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/local/workflows/{id}/validate",
		CLIUse:      "validate <id>",
		CLIShort:    "Validate a stored workflow",
		MCPName:     "validate_local_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		wf, err := svc.Store.Get(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return validateTyped(wf)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "validateN8NWorkflow",
		Name:        "Validate n8n Workflow",
		Description: "Fetch a workflow from the n8n server and validate it",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/workflows/{id}/validate",
		CLIUse:      "validate-workflow <id>",
		CLIShort:    "Validate an n8n workflow",
		MCPName:     "validate_n8n_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		wf, err := client.GetWorkflow(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return validateTyped(wf)
	}))
}
