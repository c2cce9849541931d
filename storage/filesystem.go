package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/utils"
)

// FilesystemWorkflowStore keeps each workflow in <dir>/<id>.json.
type FilesystemWorkflowStore struct {
	dir string
}

var _ WorkflowStore = (*FilesystemWorkflowStore)(nil)

// NewFilesystemWorkflowStore creates the directory if it does not exist.
func NewFilesystemWorkflowStore(dir string) (*FilesystemWorkflowStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, utils.Errorf("failed to create workflows directory %q: %w", dir, err)
	}
	return &FilesystemWorkflowStore{dir: dir}, nil
}

func (f *FilesystemWorkflowStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// Save writes the workflow atomically through a temp file and rename.
func (f *FilesystemWorkflowStore) Save(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	out, err := prepare(wf)
	if err != nil {
		return nil, err
	}
	data, err := encodeWorkflow(out)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(f.dir, "."+out.ID+"-*.tmp")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if err := os.Rename(tmpPath, f.path(out.ID)); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	utils.DebugCtx(ctx, "saved workflow", "id", out.ID, "path", f.path(out.ID))
	return out, nil
}

func (f *FilesystemWorkflowStore) Get(ctx context.Context, id string) (*model.Workflow, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	wf, err := model.ParseWorkflow(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow %s: %w", id, err)
	}
	return wf, nil
}

// List skips files that cannot be parsed.
func (f *FilesystemWorkflowStore) List(ctx context.Context) ([]WorkflowSummary, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	out := []WorkflowSummary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			utils.WarnCtx(ctx, "skipping unreadable workflow file", "file", name, "error", err)
			continue
		}
		wf, err := model.ParseWorkflow(data)
		if err != nil {
			utils.WarnCtx(ctx, "skipping unreadable workflow file", "file", name, "error", err)
			continue
		}
		if wf.ID == "" {
			wf.ID = strings.TrimSuffix(name, ".json")
		}
		out = append(out, summarize(wf))
	}
	sortSummaries(out)
	return out, nil
}

func (f *FilesystemWorkflowStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(f.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return err
}
