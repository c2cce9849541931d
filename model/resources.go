package model

import (
	"bytes"
	"encoding/json"
)

// FlexibleID accepts ids serialized either as JSON strings or numbers. Older
// n8n releases return numeric execution and workflow ids.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string { return string(id) }

// Page is the cursor-paginated list envelope used by the n8n public API.
type Page[T any] struct {
	Data       []T    `json:"data"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type Execution struct {
	ID             FlexibleID     `json:"id"`
	Finished       bool           `json:"finished"`
	Mode           string         `json:"mode,omitempty"`
	Status         string         `json:"status,omitempty"`
	RetryOf        FlexibleID     `json:"retryOf,omitempty"`
	RetrySuccessID FlexibleID     `json:"retrySuccessId,omitempty"`
	StartedAt      string         `json:"startedAt,omitempty"`
	StoppedAt      string         `json:"stoppedAt,omitempty"`
	WaitTill       string         `json:"waitTill,omitempty"`
	WorkflowID     FlexibleID     `json:"workflowId,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

type Credential struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// CredentialSchema is the JSON Schema n8n publishes for a credential type.
type CredentialSchema map[string]any

type Tag struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type Variable struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}
