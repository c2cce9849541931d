package n8n

import (
	"context"
	"net/http"

	"github.com/awantoch/flowbridge/model"
)

// CreateCredential stores a new credential. n8n never returns the secret data.
func (c *Client) CreateCredential(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	body := struct {
		Name string         `json:"name"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}{cred.Name, cred.Type, cred.Data}
	if body.Data == nil {
		body.Data = map[string]any{}
	}
	var out model.Credential
	if err := c.do(ctx, http.MethodPost, "/credentials", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCredential(ctx context.Context, id string) (*model.Credential, error) {
	var out model.Credential
	if err := c.do(ctx, http.MethodDelete, "/credentials/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCredentialSchema returns the JSON Schema for the data of a credential type.
func (c *Client) GetCredentialSchema(ctx context.Context, typeName string) (model.CredentialSchema, error) {
	var schema model.CredentialSchema
	if err := c.do(ctx, http.MethodGet, "/credentials/schema/"+escape(typeName), nil, nil, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}
