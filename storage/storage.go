// Package storage keeps workflows and agent conversation history.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/utils"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a workflow or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for ids that are empty or could escape the store.
	ErrInvalidID = errors.New("invalid workflow id")
)

// WorkflowStore persists workflows as one JSON document per id.
type WorkflowStore interface {
	// Save stores the workflow, assigning an id when it has none, and returns
	// the stored copy.
	Save(ctx context.Context, wf *model.Workflow) (*model.Workflow, error)
	Get(ctx context.Context, id string) (*model.Workflow, error)
	List(ctx context.Context) ([]WorkflowSummary, error)
	Delete(ctx context.Context, id string) error
}

type WorkflowSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	NodeCount int    `json:"nodeCount"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateID rejects ids that are empty or contain path separators or "..".
func ValidateID(id string) error {
	if !idPattern.MatchString(id) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// prepare returns a copy of wf with id and timestamps filled in.
func prepare(wf *model.Workflow) (*model.Workflow, error) {
	if wf == nil {
		return nil, errors.New("workflow is nil")
	}
	out, err := wf.Clone()
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if err := ValidateID(out.ID); err != nil {
		return nil, err
	}
	stamp := now().Format(time.RFC3339)
	if out.CreatedAt == "" {
		out.CreatedAt = stamp
	}
	out.UpdatedAt = stamp
	return out, nil
}

func encodeWorkflow(wf *model.Workflow) ([]byte, error) {
	return json.MarshalIndent(wf, "", constants.JSONIndent)
}

func summarize(wf *model.Workflow) WorkflowSummary {
	return WorkflowSummary{
		ID:        wf.ID,
		Name:      wf.Name,
		Active:    wf.Active,
		NodeCount: len(wf.Nodes),
		UpdatedAt: wf.UpdatedAt,
	}
}

func sortSummaries(list []WorkflowSummary) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

// NewWorkflowStoreFromConfig returns the workflow store selected by cfg.Driver.
func NewWorkflowStoreFromConfig(ctx context.Context, cfg config.StorageConfig) (WorkflowStore, error) {
	switch cfg.Driver {
	case "", constants.StorageDriverFilesystem:
		dir := cfg.Directory
		if dir == "" {
			dir = config.DefaultWorkflowsDir
		}
		return NewFilesystemWorkflowStore(dir)
	case constants.StorageDriverS3:
		return NewS3WorkflowStore(ctx, cfg.Bucket, cfg.Region, cfg.Prefix)
	case constants.StorageDriverMemory:
		return NewMemoryWorkflowStore(), nil
	}
	return nil, utils.Errorf("unsupported workflow storage driver: %s", cfg.Driver)
}
