package n8n

import (
	"context"
	"net/http"
	"net/url"

	"github.com/awantoch/flowbridge/model"
)

func (c *Client) ListVariables(ctx context.Context, opts PageOptions) (*model.Page[model.Variable], error) {
	q := url.Values{}
	opts.apply(q)
	var page model.Page[model.Variable]
	if err := c.do(ctx, http.MethodGet, "/variables", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateVariable adds a variable. n8n answers with an empty 201.
func (c *Client) CreateVariable(ctx context.Context, key, value string) error {
	body := model.Variable{Key: key, Value: value}
	return c.do(ctx, http.MethodPost, "/variables", nil, body, nil)
}

func (c *Client) DeleteVariable(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/variables/"+escape(id), nil, nil, nil)
}
