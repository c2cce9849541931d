package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/n8n"
	"github.com/awantoch/flowbridge/validator"
)

func init() {
	// Workflows
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listWorkflows",
		Name:        "List Workflows",
		Description: "List workflows on the n8n server, optionally filtered by activation state, tags or name",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/workflows",
		CLIUse:      "list-workflows",
		CLIShort:    "List n8n workflows",
		MCPName:     "n8n_list_workflows",
	}, func(ctx context.Context, svc *Service, a *ListWorkflowsArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		opts := n8n.ListWorkflowsOptions{
			PageOptions: n8n.PageOptions{Limit: a.Limit, Cursor: a.Cursor},
			Tags:        splitList(a.Tags),
			Name:        a.Name,
			ProjectID:   a.ProjectID,
		}
		if a.Active != "" {
			active := a.Active == "true"
			opts.Active = &active
		}
		return client.ListWorkflows(ctx, opts)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getWorkflow",
		Name:        "Get Workflow",
		Description: "Fetch a workflow from the n8n server by id",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/workflows/{id}",
		CLIUse:      "get-workflow <id>",
		CLIShort:    "Show an n8n workflow",
		MCPName:     "n8n_get_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.GetWorkflow(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "createWorkflow",
		Name:        "Create Workflow",
		Description: "Create a workflow on the n8n server from a workflow JSON document",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/workflows",
		CLIUse:      "create-workflow <file>",
		CLIShort:    "Create an n8n workflow",
		MCPName:     "n8n_create_workflow",
	}, func(ctx context.Context, svc *Service, a *WorkflowArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		wf, err := validator.DecodeWorkflow([]byte(a.Workflow))
		if err != nil {
			return nil, err
		}
		return client.CreateWorkflow(ctx, wf)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "updateWorkflow",
		Name:        "Update Workflow",
		Description: "Replace a workflow on the n8n server with a complete workflow JSON document",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPut,
		HTTPPath:    "/n8n/workflows/{id}",
		CLIUse:      "update-workflow <id>",
		CLIShort:    "Update an n8n workflow",
		MCPName:     "n8n_update_workflow",
	}, func(ctx context.Context, svc *Service, a *UpdateWorkflowArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		wf, err := validator.DecodeWorkflow([]byte(a.Workflow))
		if err != nil {
			return nil, err
		}
		return client.UpdateWorkflow(ctx, a.ID, wf)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteWorkflow",
		Name:        "Delete Workflow",
		Description: "Delete a workflow from the n8n server",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/n8n/workflows/{id}",
		CLIUse:      "delete-workflow <id>",
		CLIShort:    "Delete an n8n workflow",
		MCPName:     "n8n_delete_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.DeleteWorkflow(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "activateWorkflow",
		Name:        "Activate Workflow",
		Description: "Activate a workflow so its triggers start firing",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/workflows/{id}/activate",
		CLIUse:      "activate-workflow <id>",
		CLIShort:    "Activate an n8n workflow",
		MCPName:     "n8n_activate_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.ActivateWorkflow(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deactivateWorkflow",
		Name:        "Deactivate Workflow",
		Description: "Deactivate a workflow",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/workflows/{id}/deactivate",
		CLIUse:      "deactivate-workflow <id>",
		CLIShort:    "Deactivate an n8n workflow",
		MCPName:     "n8n_deactivate_workflow",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.DeactivateWorkflow(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getWorkflowTags",
		Name:        "Get Workflow Tags",
		Description: "List the tags attached to a workflow",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/workflows/{id}/tags",
		CLIUse:      "workflow-tags <id>",
		CLIShort:    "Show the tags of an n8n workflow",
		MCPName:     "n8n_get_workflow_tags",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.GetWorkflowTags(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "updateWorkflowTags",
		Name:        "Update Workflow Tags",
		Description: "Replace the tags attached to a workflow",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPut,
		HTTPPath:    "/n8n/workflows/{id}/tags",
		CLIUse:      "set-workflow-tags <id>",
		CLIShort:    "Replace the tags of an n8n workflow",
		MCPName:     "n8n_update_workflow_tags",
	}, func(ctx context.Context, svc *Service, a *WorkflowTagsArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.UpdateWorkflowTags(ctx, a.ID, splitList(a.TagIDs))
	}))

	// Executions
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listExecutions",
		Name:        "List Executions",
		Description: "List workflow executions, optionally filtered by workflow and status",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/executions",
		CLIUse:      "list-executions",
		CLIShort:    "List n8n executions",
		MCPName:     "n8n_list_executions",
	}, func(ctx context.Context, svc *Service, a *ListExecutionsArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.ListExecutions(ctx, n8n.ListExecutionsOptions{
			PageOptions: n8n.PageOptions{Limit: a.Limit, Cursor: a.Cursor},
			WorkflowID:  a.WorkflowID,
			Status:      a.Status,
			IncludeData: a.IncludeData,
		})
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getExecution",
		Name:        "Get Execution",
		Description: "Fetch one execution, optionally with its run data",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/executions/{id}",
		CLIUse:      "get-execution <id>",
		CLIShort:    "Show an n8n execution",
		MCPName:     "n8n_get_execution",
	}, func(ctx context.Context, svc *Service, a *GetExecutionArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.GetExecution(ctx, a.ID, a.IncludeData)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteExecution",
		Name:        "Delete Execution",
		Description: "Delete an execution record",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/n8n/executions/{id}",
		CLIUse:      "delete-execution <id>",
		CLIShort:    "Delete an n8n execution",
		MCPName:     "n8n_delete_execution",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.DeleteExecution(ctx, a.ID)
	}))

	// Credentials
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "createCredential",
		Name:        "Create Credential",
		Description: "Create a credential; use n8n_get_credential_schema to see the fields a type expects",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/credentials",
		CLIUse:      "create-credential <name>",
		CLIShort:    "Create an n8n credential",
		MCPName:     "n8n_create_credential",
	}, func(ctx context.Context, svc *Service, a *CreateCredentialArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		var data map[string]any
		if err := a.Data.Decode(&data); err != nil {
			return nil, err
		}
		if data == nil {
			return nil, invalidf("data must be a JSON object")
		}
		return client.CreateCredential(ctx, &model.Credential{Name: a.Name, Type: a.Type, Data: data})
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteCredential",
		Name:        "Delete Credential",
		Description: "Delete a credential",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/n8n/credentials/{id}",
		CLIUse:      "delete-credential <id>",
		CLIShort:    "Delete an n8n credential",
		MCPName:     "n8n_delete_credential",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.DeleteCredential(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getCredentialSchema",
		Name:        "Get Credential Schema",
		Description: "Show the JSON Schema of a credential type",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/credentials/schema/{type}",
		CLIUse:      "credential-schema <type>",
		CLIShort:    "Show an n8n credential schema",
		MCPName:     "n8n_get_credential_schema",
	}, func(ctx context.Context, svc *Service, a *CredentialSchemaArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.GetCredentialSchema(ctx, strings.TrimSpace(a.Type))
	}))

	// Tags
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listTags",
		Name:        "List Tags",
		Description: "List workflow tags",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/tags",
		CLIUse:      "list-tags",
		CLIShort:    "List n8n tags",
		MCPName:     "n8n_list_tags",
	}, func(ctx context.Context, svc *Service, a *PageArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.ListTags(ctx, n8n.PageOptions{Limit: a.Limit, Cursor: a.Cursor})
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "getTag",
		Name:        "Get Tag",
		Description: "Get a workflow tag by id",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/tags/{id}",
		CLIUse:      "get-tag <id>",
		CLIShort:    "Show an n8n tag",
		MCPName:     "n8n_get_tag",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.GetTag(ctx, a.ID)
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "createTag",
		Name:        "Create Tag",
		Description: "Create a workflow tag",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/tags",
		CLIUse:      "create-tag <name>",
		CLIShort:    "Create an n8n tag",
		MCPName:     "n8n_create_tag",
	}, func(ctx context.Context, svc *Service, a *CreateTagArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.CreateTag(ctx, strings.TrimSpace(a.Name))
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "updateTag",
		Name:        "Update Tag",
		Description: "Rename a workflow tag",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPut,
		HTTPPath:    "/n8n/tags/{id}",
		CLIUse:      "update-tag <id>",
		CLIShort:    "Rename an n8n tag",
		MCPName:     "n8n_update_tag",
	}, func(ctx context.Context, svc *Service, a *UpdateTagArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.UpdateTag(ctx, a.ID, strings.TrimSpace(a.Name))
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteTag",
		Name:        "Delete Tag",
		Description: "Delete a workflow tag",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/n8n/tags/{id}",
		CLIUse:      "delete-tag <id>",
		CLIShort:    "Delete an n8n tag",
		MCPName:     "n8n_delete_tag",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.DeleteTag(ctx, a.ID)
	}))

	// Variables
	RegisterOperation(newOperation(OperationDefinition{
		ID:          "listVariables",
		Name:        "List Variables",
		Description: "List instance variables",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodGet,
		HTTPPath:    "/n8n/variables",
		CLIUse:      "list-variables",
		CLIShort:    "List n8n variables",
		MCPName:     "n8n_list_variables",
	}, func(ctx context.Context, svc *Service, a *PageArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		return client.ListVariables(ctx, n8n.PageOptions{Limit: a.Limit, Cursor: a.Cursor})
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "createVariable",
		Name:        "Create Variable",
		Description: "Create an instance variable",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodPost,
		HTTPPath:    "/n8n/variables",
		CLIUse:      "create-variable <key>",
		CLIShort:    "Create an n8n variable",
		MCPName:     "n8n_create_variable",
	}, func(ctx context.Context, svc *Service, a *CreateVariableArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		if err := client.CreateVariable(ctx, a.Key, a.Value); err != nil {
			return nil, err
		}
		return map[string]string{"key": a.Key}, nil
	}))

	RegisterOperation(newOperation(OperationDefinition{
		ID:          "deleteVariable",
		Name:        "Delete Variable",
		Description: "Delete an instance variable",
		Group:       GroupN8N,
		HTTPMethod:  http.MethodDelete,
		HTTPPath:    "/n8n/variables/{id}",
		CLIUse:      "delete-variable <id>",
		CLIShort:    "Delete an n8n variable",
		MCPName:     "n8n_delete_variable",
	}, func(ctx context.Context, svc *Service, a *IDArgs) (any, error) {
		client, err := svc.n8nClient()
		if err != nil {
			return nil, err
		}
		if err := client.DeleteVariable(ctx, a.ID); err != nil {
			return nil, err
		}
		return map[string]string{"id": a.ID}, nil
	}))
}
