// Package nodes discovers n8n node definitions exported to disk, one
// directory per n8n version: <dir>/<version>/<node>.json.
package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/awantoch/flowbridge/model"
	"github.com/awantoch/flowbridge/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultLimit    = 10
)

var (
	ErrNoVersions      = errors.New("no node definition versions found")
	ErrVersionNotFound = errors.New("node definition version not found")
	ErrNodeNotFound    = errors.New("node definition not found")
)

type Service struct {
	dir   string
	cache *Cache
}

type Option func(*Service)

// WithCache enables the TTL cache. Without it every call reads from disk.
func WithCache(sizeBytes int, ttl time.Duration) Option {
	return func(s *Service) { s.cache = NewCache(sizeBytes, ttl) }
}

func NewService(dir string, opts ...Option) *Service {
	s := &Service{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the cache for metrics; nil when caching is off.
func (s *Service) Cache() *Cache { return s.cache }

// Versions lists the version directories, newest first.
func (s *Service) Versions() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	versions := []string{}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			versions = append(versions, e.Name())
		}
	}
	SortVersions(versions)
	return versions, nil
}

func (s *Service) Latest() (string, error) {
	versions, err := s.Versions()
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", ErrNoVersions
	}
	return versions[0], nil
}

func (s *Service) resolveVersion(version string) (string, error) {
	if version == "" || version == "latest" {
		return s.Latest()
	}
	if strings.ContainsAny(version, `/\`) || strings.Contains(version, "..") {
		return "", fmt.Errorf("%w: %q", ErrVersionNotFound, version)
	}
	info, err := os.Stat(filepath.Join(s.dir, version))
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrVersionNotFound, version)
	}
	return version, nil
}

// Load returns every definition of a version sorted by name. An empty
// version means the latest one.
func (s *Service) Load(version string) ([]model.NodeDefinition, error) {
	v, err := s.resolveVersion(version)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if defs, ok := s.cache.Get(v); ok {
			return defs, nil
		}
	}
	defs, err := s.readVersion(v)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(v, defs); err != nil {
			utils.Debug("node cache skipped for version %s: %v", v, err)
		}
	}
	return defs, nil
}

func (s *Service) readVersion(version string) ([]model.NodeDefinition, error) {
	dir := filepath.Join(s.dir, version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	defs := []model.NodeDefinition{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			utils.Warn("skipping node definition %s: %v", e.Name(), err)
			continue
		}
		parsed, err := parseDefinitions(data)
		if err != nil {
			utils.Warn("skipping node definition %s: %v", e.Name(), err)
			continue
		}
		for _, def := range parsed {
			if def.Name != "" {
				defs = append(defs, def)
			}
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// parseDefinitions accepts a single definition or an array of them.
func parseDefinitions(data []byte) ([]model.NodeDefinition, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var defs []model.NodeDefinition
		if err := json.Unmarshal(trimmed, &defs); err != nil {
			return nil, err
		}
		return defs, nil
	}
	var def model.NodeDefinition
	if err := json.Unmarshal(trimmed, &def); err != nil {
		return nil, err
	}
	return []model.NodeDefinition{def}, nil
}

// Get finds a definition by full type ("n8n-nodes-base.slack") or short
// name ("slack"), case-insensitively for the short form.
func (s *Service) Get(version, name string) (*model.NodeDefinition, error) {
	defs, err := s.Load(version)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i], nil
		}
	}
	short := strings.ToLower(model.ShortNodeName(name))
	for i := range defs {
		if strings.ToLower(defs[i].ShortName()) == short {
			return &defs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, name)
}

// NodeSummary is the list form of a definition.
type NodeSummary struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	LatestVersion float64  `json:"latestVersion"`
}

func Summarize(def *model.NodeDefinition) NodeSummary {
	return NodeSummary{
		Name:          def.Name,
		DisplayName:   def.DisplayName,
		Description:   def.Description,
		Categories:    def.Categories(),
		LatestVersion: def.Version.Latest(),
	}
}

type ListQuery struct {
	Version  string
	Category string
	Search   string
	Page     int
	PageSize int
}

type ListResult struct {
	Version    string        `json:"version"`
	Nodes      []NodeSummary `json:"nodes"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
	HasMore    bool          `json:"hasMore"`
}

// List filters by category and substring, then paginates. Page numbers start
// at 1 and the page size is capped at MaxPageSize.
func (s *Service) List(q ListQuery) (*ListResult, error) {
	version, err := s.resolveVersion(q.Version)
	if err != nil {
		return nil, err
	}
	defs, err := s.Load(version)
	if err != nil {
		return nil, err
	}

	var matched []*model.NodeDefinition
	for i := range defs {
		def := &defs[i]
		if q.Category != "" && !inCategory(def, q.Category) {
			continue
		}
		if q.Search != "" && !matchesText(def, q.Search) {
			continue
		}
		matched = append(matched, def)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].DisplayName) < strings.ToLower(matched[j].DisplayName)
	})

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	total := len(matched)
	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	out := make([]NodeSummary, 0, end-start)
	for _, def := range matched[start:end] {
		out = append(out, Summarize(def))
	}
	return &ListResult{
		Version:    version,
		Nodes:      out,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
		HasMore:    end < total,
	}, nil
}

func inCategory(def *model.NodeDefinition, category string) bool {
	for _, c := range def.Categories() {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	for _, g := range def.Group {
		if strings.EqualFold(g, category) {
			return true
		}
	}
	return false
}

func matchesText(def *model.NodeDefinition, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	for _, field := range []string{def.Name, def.DisplayName, def.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

type SearchHit struct {
	Node       NodeSummary `json:"node"`
	Confidence Confidence  `json:"confidence"`
}

// Search ranks every definition of a version against query by confidence.
func (s *Service) Search(ctx context.Context, version, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	defs, err := s.Load(version)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	hits := []SearchHit{}
	for i := range defs {
		conf := Score(&defs[i], query)
		if conf.Score <= 0 {
			continue
		}
		hits = append(hits, SearchHit{Node: Summarize(&defs[i]), Confidence: conf})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Confidence.Score != hits[j].Confidence.Score {
			return hits[i].Confidence.Score > hits[j].Confidence.Score
		}
		return hits[i].Node.DisplayName < hits[j].Node.DisplayName
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	utils.DebugCtx(ctx, "node search", "query", query, "hits", len(hits))
	return hits, nil
}
