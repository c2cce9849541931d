package api

import (
	"context"
	"time"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/n8n"
	"github.com/awantoch/flowbridge/nodes"
	"github.com/awantoch/flowbridge/storage"
)

// Service bundles the backends every operation runs against.
type Service struct {
	N8N   *n8n.Client
	Store storage.WorkflowStore
	Nodes *nodes.Service
}

// NewService builds a Service from already constructed backends.
func NewService(client *n8n.Client, store storage.WorkflowStore, discovery *nodes.Service) *Service {
	return &Service{N8N: client, Store: store, Nodes: discovery}
}

// NewServiceFromConfig wires the n8n client, workflow store and node
// discovery described by cfg.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config) (*Service, error) {
	store, err := storage.NewWorkflowStoreFromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	client := n8n.NewClient(cfg.N8N.BaseURL, cfg.N8N.APIKey,
		n8n.WithTimeout(time.Duration(cfg.N8N.TimeoutSeconds)*time.Second))
	discovery := nodes.NewService(cfg.Nodes.Directory,
		nodes.WithCache(cfg.Nodes.CacheSizeBytes, time.Duration(cfg.Nodes.CacheTTLSeconds)*time.Second))
	return NewService(client, store, discovery), nil
}

// n8nClient returns the configured client or n8n.ErrNotConfigured.
func (s *Service) n8nClient() (*n8n.Client, error) {
	if s.N8N == nil || !s.N8N.Configured() {
		return nil, n8n.ErrNotConfigured
	}
	return s.N8N, nil
}
