package n8n

import (
	"context"
	"net/http"
	"net/url"

	"github.com/awantoch/flowbridge/model"
)

type ListExecutionsOptions struct {
	PageOptions
	WorkflowID  string
	Status      string
	IncludeData bool
}

// Execution statuses accepted by the list filter.
var ExecutionStatuses = []string{"error", "success", "waiting"}

func (c *Client) ListExecutions(ctx context.Context, opts ListExecutionsOptions) (*model.Page[model.Execution], error) {
	q := url.Values{}
	opts.apply(q)
	if opts.WorkflowID != "" {
		q.Set("workflowId", opts.WorkflowID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.IncludeData {
		q.Set("includeData", "true")
	}
	var page model.Page[model.Execution]
	if err := c.do(ctx, http.MethodGet, "/executions", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetExecution(ctx context.Context, id string, includeData bool) (*model.Execution, error) {
	q := url.Values{}
	if includeData {
		q.Set("includeData", "true")
	}
	var exec model.Execution
	if err := c.do(ctx, http.MethodGet, "/executions/"+escape(id), q, nil, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

func (c *Client) DeleteExecution(ctx context.Context, id string) (*model.Execution, error) {
	var exec model.Execution
	if err := c.do(ctx, http.MethodDelete, "/executions/"+escape(id), nil, nil, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}
