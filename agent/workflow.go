package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/n8n"
	"github.com/awantoch/flowbridge/validator"
)

// WorkflowClient is the part of the n8n client the workflow agent uses.
type WorkflowClient interface {
	ListWorkflows(ctx context.Context, opts n8n.ListWorkflowsOptions) (*model.Page[model.Workflow], error)
	GetWorkflow(ctx context.Context, id string) (*model.Workflow, error)
	ActivateWorkflow(ctx context.Context, id string) (*model.Workflow, error)
	DeactivateWorkflow(ctx context.Context, id string) (*model.Workflow, error)
	ListExecutions(ctx context.Context, opts n8n.ListExecutionsOptions) (*model.Page[model.Execution], error)
}

const (
	chatListLimit      = 20
	chatExecutionLimit = 10
)

const workflowUsage = `I can manage n8n workflows:
- list workflows
- show workflow <id>
- activate workflow <id>
- deactivate workflow <id>
- executions [<workflow id>]
- validate workflow <id>`

type workflowCommand struct {
	verb string
	id   string
}

var workflowVerbs = map[string]string{
	"list":       "list",
	"show":       "show",
	"get":        "show",
	"describe":   "show",
	"activate":   "activate",
	"enable":     "activate",
	"deactivate": "deactivate",
	"disable":    "deactivate",
	"executions": "executions",
	"runs":       "executions",
	"validate":   "validate",
	"check":      "validate",
}

var fillerWords = map[string]bool{
	"workflow": true, "workflows": true, "the": true, "for": true, "of": true,
	"n8n": true, "my": true, "me": true, "id": true, "please": true,
}

// parseWorkflowCommand reads the first known verb and the id that follows it.
func parseWorkflowCommand(text string) workflowCommand {
	fields := strings.Fields(strings.ToLower(text))
	for i, f := range fields {
		verb, ok := workflowVerbs[strings.Trim(f, ".,!?:")]
		if !ok {
			continue
		}
		cmd := workflowCommand{verb: verb}
		for _, next := range fields[i+1:] {
			word := strings.Trim(next, ".,!?:#")
			if word == "" || fillerWords[word] {
				continue
			}
			cmd.id = word
			break
		}
		return cmd
	}
	if containsAny(text, "workflows") {
		return workflowCommand{verb: "list"}
	}
	return workflowCommand{}
}

// WorkflowAgent answers n8n workflow commands in chat.
type WorkflowAgent struct {
	client WorkflowClient
}

func NewWorkflowAgent(client WorkflowClient) *WorkflowAgent {
	return &WorkflowAgent{client: client}
}

func (w *WorkflowAgent) Name() string { return "workflow" }
func (w *WorkflowAgent) Description() string {
	return "lists, shows, activates, deactivates and validates n8n workflows and their executions"
}

func (w *WorkflowAgent) Matches(text string) bool {
	return containsAny(text, "workflow", "execution", "n8n")
}

func (w *WorkflowAgent) Handle(ctx context.Context, req Request) (Response, error) {
	cmd := parseWorkflowCommand(req.Text)
	text, err := w.run(ctx, cmd)
	switch {
	case errors.Is(err, n8n.ErrNotConfigured):
		return Response{Text: "The n8n connection is not configured."}, nil
	case n8n.IsNotFound(err):
		return Response{Text: fmt.Sprintf("Workflow %s was not found.", cmd.id)}, nil
	case err != nil:
		return Response{}, err
	}
	return Response{Text: text}, nil
}

func (w *WorkflowAgent) run(ctx context.Context, cmd workflowCommand) (string, error) {
	if cmd.verb == "" || (cmd.id == "" && cmd.verb != "list" && cmd.verb != "executions") {
		return workflowUsage, nil
	}
	switch cmd.verb {
	case "list":
		page, err := w.client.ListWorkflows(ctx, n8n.ListWorkflowsOptions{PageOptions: n8n.PageOptions{Limit: chatListLimit}})
		if err != nil {
			return "", err
		}
		rows := make([]map[string]any, 0, len(page.Data))
		for _, wf := range page.Data {
			rows = append(rows, map[string]any{"id": wf.ID, "name": wf.Name, "active": wf.Active})
		}
		return render("workflows", map[string]any{"workflows": rows, "more": page.NextCursor != ""})
	case "show":
		wf, err := w.client.GetWorkflow(ctx, cmd.id)
		if err != nil {
			return "", err
		}
		return renderWorkflow(wf)
	case "activate", "deactivate":
		toggle := w.client.ActivateWorkflow
		if cmd.verb == "deactivate" {
			toggle = w.client.DeactivateWorkflow
		}
		wf, err := toggle(ctx, cmd.id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Workflow %q is now %s.", wf.Name, activeLabel(wf.Active)), nil
	case "executions":
		page, err := w.client.ListExecutions(ctx, n8n.ListExecutionsOptions{
			PageOptions: n8n.PageOptions{Limit: chatExecutionLimit},
			WorkflowID:  cmd.id,
		})
		if err != nil {
			return "", err
		}
		rows := make([]map[string]any, 0, len(page.Data))
		for _, e := range page.Data {
			rows = append(rows, map[string]any{
				"id":       string(e.ID),
				"status":   executionStatus(e),
				"workflow": string(e.WorkflowID),
				"started":  e.StartedAt,
			})
		}
		return render("executions", map[string]any{"executions": rows})
	case "validate":
		wf, err := w.client.GetWorkflow(ctx, cmd.id)
		if err != nil {
			return "", err
		}
		result, err := validator.ValidateWorkflow(wf)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s\n%s", wf.Name, validator.FormatResult(result)), nil
	}
	return workflowUsage, nil
}

func renderWorkflow(wf *model.Workflow) (string, error) {
	names := make([]string, 0, len(wf.Nodes))
	for _, n := range wf.Nodes {
		names = append(names, n.Name)
	}
	return render("workflow", map[string]any{
		"id":      wf.ID,
		"name":    wf.Name,
		"active":  wf.Active,
		"nodes":   names,
		"updated": wf.UpdatedAt,
	})
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func executionStatus(e model.Execution) string {
	if e.Status != "" {
		return e.Status
	}
	if e.Finished {
		return "success"
	}
	return "running"
}
