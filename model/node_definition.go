package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NodeDefinition describes an n8n node type as exported from an n8n
// installation.
type NodeDefinition struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description,omitempty"`
	Group       []string         `json:"group,omitempty"`
	Version     VersionList      `json:"version"`
	Defaults    map[string]any   `json:"defaults,omitempty"`
	Inputs      any              `json:"inputs,omitempty"`
	Outputs     any              `json:"outputs,omitempty"`
	Properties  []NodeProperty   `json:"properties,omitempty"`
	Credentials []NodeCredential `json:"credentials,omitempty"`
	Codex       *Codex           `json:"codex,omitempty"`
}

// ShortName strips the package prefix, "n8n-nodes-base.httpRequest" becomes
// "httpRequest".
func (d *NodeDefinition) ShortName() string {
	return ShortNodeName(d.Name)
}

// Categories returns codex categories, falling back to the node groups.
func (d *NodeDefinition) Categories() []string {
	if d.Codex != nil && len(d.Codex.Categories) > 0 {
		return d.Codex.Categories
	}
	return d.Group
}

// Aliases returns the codex search aliases, if any.
func (d *NodeDefinition) Aliases() []string {
	if d.Codex == nil {
		return nil
	}
	return d.Codex.Alias
}

// Property looks up a top-level property by name.
func (d *NodeDefinition) Property(name string) (*NodeProperty, bool) {
	for i := range d.Properties {
		if d.Properties[i].Name == name {
			return &d.Properties[i], true
		}
	}
	return nil, false
}

func ShortNodeName(nodeType string) string {
	if i := strings.LastIndex(nodeType, "."); i >= 0 {
		return nodeType[i+1:]
	}
	return nodeType
}

type NodeProperty struct {
	Name           string           `json:"name"`
	DisplayName    string           `json:"displayName"`
	Type           string           `json:"type"`
	Default        any              `json:"default,omitempty"`
	Required       bool             `json:"required,omitempty"`
	Description    string           `json:"description,omitempty"`
	Options        []PropertyOption `json:"options,omitempty"`
	DisplayOptions *DisplayOptions  `json:"displayOptions,omitempty"`
}

// PropertyOption covers both plain options (name/value) and the nested
// option groups used by collection properties.
type PropertyOption struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName,omitempty"`
	Value       any            `json:"value,omitempty"`
	Description string         `json:"description,omitempty"`
	Values      []NodeProperty `json:"values,omitempty"`
}

// DisplayOptions controls when a property is shown: every Show entry must
// match and no Hide entry may match.
type DisplayOptions struct {
	Show map[string][]any `json:"show,omitempty"`
	Hide map[string][]any `json:"hide,omitempty"`
}

type NodeCredential struct {
	Name     string `json:"name"`
	Required bool   `json:"required,omitempty"`
}

type Codex struct {
	Categories    []string            `json:"categories,omitempty"`
	Subcategories map[string][]string `json:"subcategories,omitempty"`
	Alias         []string            `json:"alias,omitempty"`
}

// VersionList holds the type versions a node supports; n8n writes either a
// single number or an array.
type VersionList []float64

func (v *VersionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []float64
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = list
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*v = nil
		return nil
	}
	var single float64
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*v = VersionList{single}
	return nil
}

// Latest returns the highest supported type version, or 1 when none is set.
func (v VersionList) Latest() float64 {
	if len(v) == 0 {
		return 1
	}
	max := v[0]
	for _, n := range v[1:] {
		if n > max {
			max = n
		}
	}
	return max
}
