package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	mcp "github.com/metoro-io/mcp-golang"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/n8n"
	"github.com/awantoch/flowbridge/nodes"
	"github.com/awantoch/flowbridge/storage"
	"github.com/awantoch/flowbridge/validator"
)

// Result is the envelope every tool answers with. Failures are reported in
// the envelope, never as protocol errors.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func Succeed(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail reports err for the named operation, e.g. "Failed to get workflow".
func Fail(operation string, err error) Result {
	return Result{
		Success: false,
		Error:   err.Error(),
		Message: "Failed to " + strings.ToLower(operation),
	}
}

// JSON renders the envelope as indented JSON.
func (r Result) JSON() string {
	data, err := json.MarshalIndent(r, "", constants.JSONIndent)
	if err != nil {
		fallback, _ := json.Marshal(Fail("encode result", err))
		return string(fallback)
	}
	return string(data)
}

// ToolResponse wraps the envelope as MCP text content.
func (r Result) ToolResponse() *mcp.ToolResponse {
	return mcp.NewToolResponse(mcp.NewTextContent(r.JSON()))
}

// StatusFor maps an operation error to an HTTP status code.
func StatusFor(err error) int {
	var apiErr *n8n.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArguments),
		errors.Is(err, validator.ErrInvalidWorkflow),
		errors.Is(err, storage.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, nodes.ErrNodeNotFound),
		errors.Is(err, nodes.ErrVersionNotFound),
		errors.Is(err, nodes.ErrNoVersions):
		return http.StatusNotFound
	case errors.Is(err, n8n.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// invalidf builds an ErrInvalidArguments error.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArguments, fmt.Sprintf(format, args...))
}
