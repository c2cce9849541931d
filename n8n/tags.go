package n8n

import (
	"context"
	"net/http"
	"net/url"

	"github.com/awantoch/flowbridge/model"
)

type tagPayload struct {
	Name string `json:"name"`
}

func (c *Client) ListTags(ctx context.Context, opts PageOptions) (*model.Page[model.Tag], error) {
	q := url.Values{}
	opts.apply(q)
	var page model.Page[model.Tag]
	if err := c.do(ctx, http.MethodGet, "/tags", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetTag(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	if err := c.do(ctx, http.MethodGet, "/tags/"+escape(id), nil, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	if err := c.do(ctx, http.MethodPost, "/tags", nil, tagPayload{Name: name}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) UpdateTag(ctx context.Context, id, name string) (*model.Tag, error) {
	var tag model.Tag
	if err := c.do(ctx, http.MethodPut, "/tags/"+escape(id), nil, tagPayload{Name: name}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) DeleteTag(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	if err := c.do(ctx, http.MethodDelete, "/tags/"+escape(id), nil, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}
