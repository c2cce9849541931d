package nodes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awantoch/flowbridge/model"
)

// Display modes of a dependency.
const (
	ModeShow = "show"
	ModeHide = "hide"
)

// versionKey is the displayOptions key that refers to the node type version
// instead of a property.
const versionKey = "@version"

// Dependency records that Property is shown or hidden depending on the value
// of DependsOn.
type Dependency struct {
	Property  string `json:"property"`
	DependsOn string `json:"dependsOn"`
	Values    []any  `json:"values"`
	Mode      string `json:"mode"`
}

type DependencyIssue struct {
	Property string `json:"property"`
	Message  string `json:"message"`
}

type DependencyReport struct {
	Node         string              `json:"node"`
	Dependencies []Dependency        `json:"dependencies"`
	Controllers  map[string][]string `json:"controllers"`
	Independent  []string            `json:"independent"`
	Issues       []DependencyIssue   `json:"issues"`
}

func conditionKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// AnalyzeDependencies builds the displayOptions dependency graph of a node.
// It reports dependencies on properties the node does not declare and
// properties that depend on themselves.
func AnalyzeDependencies(def *model.NodeDefinition) *DependencyReport {
	report := &DependencyReport{
		Node:         def.Name,
		Dependencies: []Dependency{},
		Controllers:  map[string][]string{},
		Independent:  []string{},
		Issues:       []DependencyIssue{},
	}
	known := map[string]bool{}
	for _, p := range def.Properties {
		known[p.Name] = true
	}

	seenIndependent := map[string]bool{}
	seenController := map[string]map[string]bool{}
	for _, p := range def.Properties {
		if p.DisplayOptions == nil || (len(p.DisplayOptions.Show) == 0 && len(p.DisplayOptions.Hide) == 0) {
			if !seenIndependent[p.Name] {
				report.Independent = append(report.Independent, p.Name)
				seenIndependent[p.Name] = true
			}
			continue
		}
		for _, mode := range []string{ModeShow, ModeHide} {
			conds := p.DisplayOptions.Show
			if mode == ModeHide {
				conds = p.DisplayOptions.Hide
			}
			for _, rawKey := range sortedCondKeys(conds) {
				key := conditionKey(rawKey)
				report.Dependencies = append(report.Dependencies, Dependency{
					Property:  p.Name,
					DependsOn: key,
					Values:    conds[rawKey],
					Mode:      mode,
				})
				switch {
				case key == p.Name:
					report.Issues = append(report.Issues, DependencyIssue{Property: p.Name,
						Message: fmt.Sprintf("property %q depends on itself", p.Name)})
				case key != versionKey && !known[key]:
					report.Issues = append(report.Issues, DependencyIssue{Property: p.Name,
						Message: fmt.Sprintf("property %q depends on unknown property %q", p.Name, key)})
				}
				if key == versionKey {
					continue
				}
				if seenController[key] == nil {
					seenController[key] = map[string]bool{}
				}
				if !seenController[key][p.Name] {
					seenController[key][p.Name] = true
					report.Controllers[key] = append(report.Controllers[key], p.Name)
				}
			}
		}
	}
	return report
}

func sortedCondKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VisibleProperties returns the properties shown for the given parameter
// values. Unset controlling properties take their declared default. The
// "@version" condition is matched against params["@version"] when set and
// the node's latest type version otherwise.
func VisibleProperties(def *model.NodeDefinition, params map[string]any) []model.NodeProperty {
	lookup := func(name string) (any, bool) {
		if name == versionKey {
			if v, ok := params[versionKey]; ok {
				return v, true
			}
			return def.Version.Latest(), true
		}
		if v, ok := params[name]; ok {
			return v, true
		}
		if p, ok := def.Property(name); ok {
			return p.Default, p.Default != nil
		}
		return nil, false
	}

	var out []model.NodeProperty
	for _, p := range def.Properties {
		if isVisible(p, lookup) {
			out = append(out, p)
		}
	}
	return out
}

func isVisible(p model.NodeProperty, lookup func(string) (any, bool)) bool {
	if p.DisplayOptions == nil {
		return true
	}
	for key, allowed := range p.DisplayOptions.Show {
		v, ok := lookup(conditionKey(key))
		if !ok || !matchesAny(v, allowed) {
			return false
		}
	}
	for key, denied := range p.DisplayOptions.Hide {
		v, ok := lookup(conditionKey(key))
		if ok && matchesAny(v, denied) {
			return false
		}
	}
	return true
}

func matchesAny(v any, candidates []any) bool {
	for _, c := range candidates {
		// Newer n8n releases use condition objects such as {"_cnd": {...}};
		// those are not evaluated and count as a match.
		if _, isCond := c.(map[string]any); isCond {
			return true
		}
		if equalValues(v, c) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// MissingRequired lists required properties that are visible for params but
// have no value.
func MissingRequired(def *model.NodeDefinition, params map[string]any) []string {
	missing := []string{}
	seen := map[string]bool{}
	for _, p := range VisibleProperties(def, params) {
		if !p.Required || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		v, ok := params[p.Name]
		if !ok || v == nil {
			missing = append(missing, p.Name)
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, p.Name)
		}
	}
	return missing
}
