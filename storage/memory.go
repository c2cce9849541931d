package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/awantoch/flowbridge/model"
)

// MemoryWorkflowStore keeps encoded workflows in a map, so callers never share
// state with the store.
type MemoryWorkflowStore struct {
	mu        sync.RWMutex
	workflows map[string][]byte
}

var _ WorkflowStore = (*MemoryWorkflowStore)(nil)

func NewMemoryWorkflowStore() *MemoryWorkflowStore {
	return &MemoryWorkflowStore{workflows: make(map[string][]byte)}
}

func (m *MemoryWorkflowStore) Save(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	out, err := prepare(wf)
	if err != nil {
		return nil, err
	}
	data, err := encodeWorkflow(out)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.workflows[out.ID] = data
	m.mu.Unlock()
	return out, nil
}

func (m *MemoryWorkflowStore) Get(ctx context.Context, id string) (*model.Workflow, error) {
	m.mu.RLock()
	data, ok := m.workflows[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	return model.ParseWorkflow(data)
}

func (m *MemoryWorkflowStore) List(ctx context.Context) ([]WorkflowSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]WorkflowSummary, 0, len(m.workflows))
	for _, data := range m.workflows {
		wf, err := model.ParseWorkflow(data)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(wf))
	}
	sortSummaries(out)
	return out, nil
}

func (m *MemoryWorkflowStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[id]; !ok {
		return fmt.Errorf("workflow %s: %w", id, ErrNotFound)
	}
	delete(m.workflows, id)
	return nil
}
