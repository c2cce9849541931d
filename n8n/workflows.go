package n8n

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/awantoch/flowbridge/model"
)

type ListWorkflowsOptions struct {
	PageOptions
	Active    *bool
	Tags      []string
	Name      string
	ProjectID string
}

// workflowPayload carries only the fields n8n accepts on create and update;
// the API rejects read-only properties such as id or active.
type workflowPayload struct {
	Name        string                           `json:"name"`
	Nodes       []model.Node                     `json:"nodes"`
	Connections map[string]model.NodeConnections `json:"connections"`
	Settings    map[string]any                   `json:"settings"`
	StaticData  map[string]any                   `json:"staticData,omitempty"`
}

func newWorkflowPayload(wf *model.Workflow) workflowPayload {
	p := workflowPayload{
		Name:        wf.Name,
		Nodes:       wf.Nodes,
		Connections: wf.Connections,
		Settings:    wf.Settings,
		StaticData:  wf.StaticData,
	}
	if p.Nodes == nil {
		p.Nodes = []model.Node{}
	}
	if p.Connections == nil {
		p.Connections = map[string]model.NodeConnections{}
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	return p
}

func (c *Client) ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*model.Page[model.Workflow], error) {
	q := url.Values{}
	opts.apply(q)
	if opts.Active != nil {
		q.Set("active", strconv.FormatBool(*opts.Active))
	}
	if len(opts.Tags) > 0 {
		q.Set("tags", strings.Join(opts.Tags, ","))
	}
	if opts.Name != "" {
		q.Set("name", opts.Name)
	}
	if opts.ProjectID != "" {
		q.Set("projectId", opts.ProjectID)
	}
	var page model.Page[model.Workflow]
	if err := c.do(ctx, http.MethodGet, "/workflows", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	var wf model.Workflow
	if err := c.do(ctx, http.MethodGet, "/workflows/"+escape(id), nil, nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (c *Client) CreateWorkflow(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows", nil, newWorkflowPayload(wf), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorkflow replaces the workflow definition stored under id.
func (c *Client) UpdateWorkflow(ctx context.Context, id string, wf *model.Workflow) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.do(ctx, http.MethodPut, "/workflows/"+escape(id), nil, newWorkflowPayload(wf), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWorkflow returns the deleted workflow.
func (c *Client) DeleteWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.do(ctx, http.MethodDelete, "/workflows/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ActivateWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows/"+escape(id)+"/activate", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeactivateWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	var out model.Workflow
	if err := c.do(ctx, http.MethodPost, "/workflows/"+escape(id)+"/deactivate", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetWorkflowTags(ctx context.Context, id string) ([]model.Tag, error) {
	var tags []model.Tag
	if err := c.do(ctx, http.MethodGet, "/workflows/"+escape(id)+"/tags", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// UpdateWorkflowTags replaces the tags of a workflow with the given tag ids.
func (c *Client) UpdateWorkflowTags(ctx context.Context, id string, tagIDs []string) ([]model.Tag, error) {
	body := make([]map[string]string, len(tagIDs))
	for i, tid := range tagIDs {
		body[i] = map[string]string{"id": tid}
	}
	var tags []model.Tag
	if err := c.do(ctx, http.MethodPut, "/workflows/"+escape(id)+"/tags", nil, body, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
