package model

import (
	"encoding/json"
	"sort"
)

// Workflow is an n8n workflow as exchanged with the public REST API and kept
// in local storage. Members the struct does not name are carried in Extra so
// a decode/encode cycle reproduces the document.
type Workflow struct {
	ID          string                     `json:"id,omitempty"`
	Name        string                     `json:"name"`
	Active      bool                       `json:"active"`
	Nodes       []Node                     `json:"nodes"`
	Connections map[string]NodeConnections `json:"connections"`
	Settings    map[string]any             `json:"settings,omitempty"`
	StaticData  map[string]any             `json:"staticData,omitempty"`
	PinData     map[string]any             `json:"pinData,omitempty"`
	Meta        map[string]any             `json:"meta,omitempty"`
	Tags        []Tag                      `json:"tags,omitempty"`
	VersionID   string                     `json:"versionId,omitempty"`
	CreatedAt   string                     `json:"createdAt,omitempty"`
	UpdatedAt   string                     `json:"updatedAt,omitempty"`

	Extra map[string]any `json:"-"`
}

type workflowJSON Workflow

// workflowWire reads ids sent as numbers by older n8n releases.
type workflowWire struct {
	*workflowJSON
	ID FlexibleID `json:"id,omitempty"`
}

func (w Workflow) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(workflowJSON(w), w.Extra)
}

func (w *Workflow) UnmarshalJSON(data []byte) error {
	var decoded Workflow
	wire := workflowWire{workflowJSON: (*workflowJSON)(&decoded)}
	extra, err := decodeWithExtra(data, &wire)
	if err != nil {
		return err
	}
	decoded.ID = wire.ID.String()
	decoded.Extra = extra
	*w = decoded
	return nil
}

// Node is one step of a workflow. Settings n8n adds over time (onError,
// retryOnFail, maxTries, executeOnce, ...) live in Extra.
type Node struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name"`
	Type             string                   `json:"type"`
	TypeVersion      float64                  `json:"typeVersion"`
	Position         []float64                `json:"position"`
	Parameters       map[string]any           `json:"parameters"`
	Credentials      map[string]CredentialRef `json:"credentials,omitempty"`
	WebhookID        string                   `json:"webhookId,omitempty"`
	Disabled         bool                     `json:"disabled,omitempty"`
	Notes            string                   `json:"notes,omitempty"`
	ContinueOnFail   bool                     `json:"continueOnFail,omitempty"`
	AlwaysOutputData bool                     `json:"alwaysOutputData,omitempty"`

	Extra map[string]any `json:"-"`
}

type nodeJSON Node

func (n Node) MarshalJSON() ([]byte, error) {
	return encodeWithExtra(nodeJSON(n), n.Extra)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var decoded nodeJSON
	extra, err := decodeWithExtra(data, &decoded)
	if err != nil {
		return err
	}
	decoded.Extra = extra
	*n = Node(decoded)
	return nil
}

// CredentialRef points a node at a stored credential.
type CredentialRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// NodeConnections groups the outgoing connections of one source node by
// output name ("main", "ai_tool", ...). Each output index holds an ordered
// list of targets.
type NodeConnections map[string][][]ConnectionTarget

type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Connection is the flattened form of a single edge.
type Connection struct {
	Source      string
	Output      string
	OutputIndex int
	Target      string
	InputType   string
	InputIndex  int
}

// ParseWorkflow decodes a workflow from JSON.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// Flatten lists every connection, ordered by source key, output name, output
// index and position within the index.
func (w *Workflow) Flatten() []Connection {
	sources := make([]string, 0, len(w.Connections))
	for src := range w.Connections {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var out []Connection
	for _, src := range sources {
		outputs := w.Connections[src]
		names := make([]string, 0, len(outputs))
		for name := range outputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for idx, targets := range outputs[name] {
				for _, t := range targets {
					out = append(out, Connection{
						Source:      src,
						Output:      name,
						OutputIndex: idx,
						Target:      t.Node,
						InputType:   t.Type,
						InputIndex:  t.Index,
					})
				}
			}
		}
	}
	return out
}

// NodeByKey resolves a node by id, falling back to its name. n8n keys
// connections by node name while API clients often use ids.
func (w *Workflow) NodeByKey(key string) (*Node, bool) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == key {
			return &w.Nodes[i], true
		}
	}
	for i := range w.Nodes {
		if w.Nodes[i].Name == key {
			return &w.Nodes[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy made through a JSON round trip.
func (w *Workflow) Clone() (*Workflow, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return ParseWorkflow(data)
}

// ToMap converts the workflow into the generic form consumed by the validator.
func (w *Workflow) ToMap() (map[string]any, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
