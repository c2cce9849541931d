package validator

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/awantoch/flowbridge/constants"
)

type nodeInfo struct {
	index    int
	id       string
	name     string
	typ      string
	disabled bool
	notes    string
	params   map[string]any
	incoming int
	outgoing int
}

func (n *nodeInfo) label() string { return nodeLabel(n.id, n.name, n.index) }

type nodeSet struct {
	list   []*nodeInfo
	byID   map[string]*nodeInfo
	byName map[string]*nodeInfo
}

// resolve looks a connection key up by node id first, then by name.
func (s *nodeSet) resolve(key string) *nodeInfo {
	if n, ok := s.byID[key]; ok {
		return n
	}
	return s.byName[key]
}

var validSettings = map[string][]string{
	"executionOrder":           {"v0", "v1"},
	"saveDataErrorExecution":   {"all", "none"},
	"saveDataSuccessExecution": {"all", "none"},
}

func checkTopLevel(doc map[string]any, r *Result) {
	name, ok := doc["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		r.addError(Issue{Code: CodeMissingName, Field: "name", Message: "Workflow name is required"})
	}

	rawNodes, present := doc["nodes"]
	switch nodes := rawNodes.(type) {
	case []any:
		if len(nodes) == 0 {
			r.addError(Issue{Code: CodeEmptyWorkflow, Field: "nodes", Message: "Workflow must contain at least one node"})
		}
	default:
		if !present || rawNodes == nil {
			r.addError(Issue{Code: CodeMissingNodes, Field: "nodes", Message: "Workflow must contain a nodes array"})
		} else {
			r.addError(Issue{Code: CodeInvalidNodes, Field: "nodes", Message: "Workflow nodes must be an array"})
		}
	}

	if raw, present := doc["connections"]; present && raw != nil {
		if _, ok := raw.(map[string]any); !ok {
			r.addError(Issue{Code: CodeInvalidConnections, Field: "connections", Message: "Workflow connections must be an object"})
		}
	}

	settings, ok := doc["settings"].(map[string]any)
	if !ok {
		return
	}
	keys := make([]string, 0, len(validSettings))
	for k := range validSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		v, present := settings[key]
		if !present {
			continue
		}
		allowed := validSettings[key]
		s, isString := v.(string)
		if !isString || !contains(allowed, s) {
			r.addError(Issue{Code: CodeInvalidSetting, Field: "settings." + key,
				Message: msgInvalidSetting(key, "one of "+strings.Join(allowed, ", "))})
		}
	}
	if v, present := settings["executionTimeout"]; present {
		n, isNum := v.(float64)
		if !isNum || n < -1 {
			r.addError(Issue{Code: CodeInvalidSetting, Field: "settings.executionTimeout",
				Message: msgInvalidSetting("executionTimeout", "a number greater than or equal to -1")})
		}
	}
	for _, key := range []string{"timezone", "errorWorkflow"} {
		if v, present := settings[key]; present {
			if _, isString := v.(string); !isString {
				r.addError(Issue{Code: CodeInvalidSetting, Field: "settings." + key,
					Message: msgInvalidSetting(key, "a string")})
			}
		}
	}
}

func checkNodes(doc map[string]any, r *Result) *nodeSet {
	set := &nodeSet{byID: map[string]*nodeInfo{}, byName: map[string]*nodeInfo{}}
	rawNodes, _ := doc["nodes"].([]any)
	for i, raw := range rawNodes {
		obj, ok := raw.(map[string]any)
		if !ok {
			r.addError(Issue{Code: CodeInvalidNode, Message: fmt.Sprintf("Node at index %d must be an object", i)})
			continue
		}
		n := &nodeInfo{index: i}
		n.id, _ = obj["id"].(string)
		n.name, _ = obj["name"].(string)
		n.typ, _ = obj["type"].(string)
		n.disabled, _ = obj["disabled"].(bool)
		n.notes, _ = obj["notes"].(string)
		label := n.label()

		for _, field := range []struct {
			key string
			val string
		}{{"id", n.id}, {"name", n.name}, {"type", n.typ}} {
			if strings.TrimSpace(field.val) == "" {
				r.addError(Issue{Code: CodeMissingNodeField, NodeID: n.id, NodeName: n.name, Field: field.key,
					Message: msgMissingNodeField(label, field.key)})
			}
		}

		switch tv := obj["typeVersion"].(type) {
		case float64:
			if tv < 1 {
				r.addError(Issue{Code: CodeInvalidTypeVersion, NodeID: n.id, NodeName: n.name, Field: "typeVersion",
					Message: fmt.Sprintf("Node %s has typeVersion %v, must be at least 1", label, tv)})
			}
		case nil:
			r.addError(Issue{Code: CodeMissingNodeField, NodeID: n.id, NodeName: n.name, Field: "typeVersion",
				Message: msgMissingNodeField(label, "typeVersion")})
		default:
			r.addError(Issue{Code: CodeInvalidTypeVersion, NodeID: n.id, NodeName: n.name, Field: "typeVersion",
				Message: fmt.Sprintf("Node %s typeVersion must be a number", label)})
		}

		if !validPosition(obj["position"]) {
			r.addError(Issue{Code: CodeInvalidPosition, NodeID: n.id, NodeName: n.name, Field: "position",
				Message: fmt.Sprintf("Node %s position must be an array of two numbers", label)})
		}

		switch params := obj["parameters"].(type) {
		case map[string]any:
			n.params = params
		case nil:
			r.addError(Issue{Code: CodeMissingNodeField, NodeID: n.id, NodeName: n.name, Field: "parameters",
				Message: msgMissingNodeField(label, "parameters")})
		default:
			r.addError(Issue{Code: CodeInvalidParameters, NodeID: n.id, NodeName: n.name, Field: "parameters",
				Message: fmt.Sprintf("Node %s parameters must be an object", label)})
		}
		if n.params == nil {
			n.params = map[string]any{}
		}

		if n.id != "" {
			if _, dup := set.byID[n.id]; dup {
				r.addError(Issue{Code: CodeDuplicateNodeID, NodeID: n.id, NodeName: n.name, Field: "id",
					Message: fmt.Sprintf("Duplicate node id %q", n.id)})
			} else {
				set.byID[n.id] = n
			}
		}
		if n.name != "" {
			if _, dup := set.byName[n.name]; dup {
				r.addWarning(Issue{Code: CodeDuplicateNodeName, NodeID: n.id, NodeName: n.name, Field: "name",
					Message: fmt.Sprintf("Duplicate node name %q; connections are resolved by name", n.name)})
			} else {
				set.byName[n.name] = n
			}
		}

		if raw, present := obj["credentials"]; present {
			checkCredentials(n, raw, r)
		}
		checkNodeType(n, r)
		set.list = append(set.list, n)
	}
	return set
}

func validPosition(v any) bool {
	pos, ok := v.([]any)
	if !ok || len(pos) != 2 {
		return false
	}
	for _, p := range pos {
		if _, isNum := p.(float64); !isNum {
			return false
		}
	}
	return true
}

func checkCredentials(n *nodeInfo, raw any, r *Result) {
	creds, ok := raw.(map[string]any)
	if !ok || len(creds) == 0 {
		r.addWarning(Issue{Code: CodeEmptyCredentials, NodeID: n.id, NodeName: n.name, Field: "credentials",
			Message: fmt.Sprintf("Node %s declares credentials but none are set", n.label())})
		return
	}
	keys := sortedKeys(creds)
	for _, key := range keys {
		ref, _ := creds[key].(map[string]any)
		id, _ := ref["id"].(string)
		name, _ := ref["name"].(string)
		if strings.TrimSpace(id) == "" && strings.TrimSpace(name) == "" {
			r.addWarning(Issue{Code: CodeEmptyCredentials, NodeID: n.id, NodeName: n.name, Field: "credentials." + key,
				Message: fmt.Sprintf("Node %s credential %q has neither id nor name", n.label(), key)})
		}
	}
}

func checkNodeType(n *nodeInfo, r *Result) {
	requireParam := func(param string) {
		if isBlank(n.params[param]) {
			r.addError(Issue{Code: CodeMissingParameter, NodeID: n.id, NodeName: n.name, Field: param,
				Message: msgMissingParameter(n.label(), param)})
		}
	}
	warn := func(code, msg string) {
		r.addWarning(Issue{Code: code, NodeID: n.id, NodeName: n.name, Message: msg})
	}

	switch n.typ {
	case constants.NodeTypeWebhook:
		requireParam("httpMethod")
		requireParam("path")
	case constants.NodeTypeHTTPRequest:
		requireParam("url")
	case constants.NodeTypeScheduleTrigger:
		if collectionSize(n.params["rule"]) == 0 {
			warn(CodeMissingSchedule, fmt.Sprintf("Schedule trigger %s has no schedule rule", n.label()))
		}
	case constants.NodeTypeCode:
		field := "jsCode"
		if lang, _ := n.params["language"].(string); lang == "python" || lang == "pythonNative" {
			field = "pythonCode"
		}
		if isBlank(n.params[field]) {
			warn(CodeEmptyCode, fmt.Sprintf("Code node %s has no code", n.label()))
		}
	case constants.NodeTypeFunction, constants.NodeTypeFunctionItem:
		if isBlank(n.params["functionCode"]) {
			warn(CodeEmptyCode, fmt.Sprintf("Function node %s has no code", n.label()))
		}
	case constants.NodeTypeIf:
		if collectionSize(n.params["conditions"]) == 0 {
			warn(CodeMissingConditions, fmt.Sprintf("IF node %s has no conditions", n.label()))
		}
	case constants.NodeTypeSwitch:
		if mode, _ := n.params["mode"].(string); mode != "expression" && collectionSize(n.params["rules"]) == 0 {
			warn(CodeMissingConditions, fmt.Sprintf("Switch node %s has no routing rules", n.label()))
		}
	case constants.NodeTypeSet:
		if mode, _ := n.params["mode"].(string); mode != "raw" &&
			collectionSize(n.params["assignments"]) == 0 && collectionSize(n.params["values"]) == 0 {
			warn(CodeMissingAssignments, fmt.Sprintf("Set node %s does not set any fields", n.label()))
		}
	}
}

func checkConnections(doc map[string]any, nodes *nodeSet, r *Result) {
	conns, ok := doc["connections"].(map[string]any)
	if !ok {
		return
	}
	for _, source := range sortedKeys(conns) {
		src := nodes.resolve(source)
		if src == nil {
			r.addError(Issue{Code: CodeUnknownSource, NodeID: source, Field: "connections." + source,
				Message: msgUnknownSource(source)})
		}
		outputs, ok := conns[source].(map[string]any)
		if !ok {
			r.addError(Issue{Code: CodeInvalidConnection, Field: "connections." + source,
				Message: fmt.Sprintf("Connections of %q must be an object keyed by output name", source)})
			continue
		}
		for _, output := range sortedKeys(outputs) {
			field := fmt.Sprintf("connections.%s.%s", source, output)
			groups, ok := outputs[output].([]any)
			if !ok {
				r.addError(Issue{Code: CodeInvalidConnection, Field: field,
					Message: fmt.Sprintf("Output %q of %q must be an array of arrays", output, source)})
				continue
			}
			for gi, group := range groups {
				if group == nil {
					continue
				}
				targets, ok := group.([]any)
				if !ok {
					r.addError(Issue{Code: CodeInvalidConnection, Field: fmt.Sprintf("%s[%d]", field, gi),
						Message: fmt.Sprintf("Output %q index %d of %q must be an array", output, gi, source)})
					continue
				}
				for _, rawTarget := range targets {
					checkTarget(source, src, field, gi, rawTarget, nodes, r)
				}
			}
		}
	}
}

func checkTarget(source string, src *nodeInfo, field string, group int, raw any, nodes *nodeSet, r *Result) {
	target, ok := raw.(map[string]any)
	if !ok {
		r.addError(Issue{Code: CodeInvalidConnection, Field: fmt.Sprintf("%s[%d]", field, group),
			Message: fmt.Sprintf("Connection from %q must be an object with node, type and index", source)})
		return
	}
	targetKey, _ := target["node"].(string)
	var dst *nodeInfo
	if strings.TrimSpace(targetKey) == "" {
		r.addError(Issue{Code: CodeInvalidConnection, Field: fmt.Sprintf("%s[%d]", field, group),
			Message: fmt.Sprintf("Connection from %q has no target node", source)})
	} else if dst = nodes.resolve(targetKey); dst == nil {
		r.addError(Issue{Code: CodeUnknownTarget, NodeID: targetKey, Field: fmt.Sprintf("%s[%d]", field, group),
			Message: msgUnknownTarget(source, targetKey)})
	}

	if typ, _ := target["type"].(string); strings.TrimSpace(typ) == "" {
		r.addError(Issue{Code: CodeMissingConnType, Field: fmt.Sprintf("%s[%d]", field, group),
			Message: fmt.Sprintf("Connection from %q to %q must declare a type", source, targetKey)})
	}
	idx, isNum := target["index"].(float64)
	if !isNum || idx < 0 || idx != math.Trunc(idx) {
		r.addError(Issue{Code: CodeInvalidConnIndex, Field: fmt.Sprintf("%s[%d]", field, group),
			Message: fmt.Sprintf("Connection from %q to %q must have a non-negative integer index", source, targetKey)})
	}

	if src != nil && dst != nil {
		src.outgoing++
		dst.incoming++
	}
}

const nodeTypeStickyNote = "n8n-nodes-base.stickyNote"

func isTrigger(typ string) bool {
	switch typ {
	case constants.NodeTypeWebhook, constants.NodeTypeCron, constants.NodeTypeManualTrigger,
		constants.NodeTypeScheduleTrigger, constants.NodeTypeExecuteWorkflow, constants.NodeTypeErrorTrigger:
		return true
	}
	return strings.HasSuffix(strings.ToLower(typ), "trigger")
}

func checkGraph(nodes *nodeSet, r *Result) {
	if len(nodes.list) == 0 {
		return
	}
	hasTrigger := false
	working := 0
	for _, n := range nodes.list {
		if isTrigger(n.typ) {
			hasTrigger = true
		}
		if n.typ != nodeTypeStickyNote {
			working++
		}
	}
	if !hasTrigger {
		r.addWarning(Issue{Code: CodeNoTrigger,
			Message: "Workflow has no trigger node and can only be started manually or as a sub-workflow"})
	}
	if working < 2 {
		return
	}
	for _, n := range nodes.list {
		if n.typ == nodeTypeStickyNote || n.incoming > 0 || n.outgoing > 0 {
			continue
		}
		r.addWarning(Issue{Code: CodeDisconnectedNode, NodeID: n.id, NodeName: n.name,
			Message: fmt.Sprintf("Node %s is not connected to any other node", n.label())})
	}
}

var defaultNodeNames = map[string]*regexp.Regexp{
	constants.NodeTypeWebhook:         regexp.MustCompile(`^Webhook\d*$`),
	constants.NodeTypeHTTPRequest:     regexp.MustCompile(`^HTTP Request\d*$`),
	constants.NodeTypeCode:            regexp.MustCompile(`^Code\d*$`),
	constants.NodeTypeFunction:        regexp.MustCompile(`^Function\d*$`),
	constants.NodeTypeIf:              regexp.MustCompile(`^(IF|If)\d*$`),
	constants.NodeTypeSwitch:          regexp.MustCompile(`^Switch\d*$`),
	constants.NodeTypeSet:             regexp.MustCompile(`^(Set|Edit Fields)\d*$`),
	constants.NodeTypeScheduleTrigger: regexp.MustCompile(`^Schedule Trigger\d*$`),
}

func suggest(doc map[string]any, nodes *nodeSet, r *Result) {
	settings, _ := doc["settings"].(map[string]any)
	if ew, _ := settings["errorWorkflow"].(string); ew == "" {
		r.suggest("Set settings.errorWorkflow so failures trigger an error-handling workflow")
	}
	if order, _ := settings["executionOrder"].(string); order != "v1" {
		r.suggest(`Use settings.executionOrder "v1" for predictable branch execution order`)
	}

	var defaults, disabled, undocumented []string
	for _, n := range nodes.list {
		if re, ok := defaultNodeNames[n.typ]; ok && re.MatchString(n.name) {
			defaults = append(defaults, n.name)
		}
		if n.disabled {
			disabled = append(disabled, n.label())
		}
		switch n.typ {
		case constants.NodeTypeCode, constants.NodeTypeFunction, constants.NodeTypeFunctionItem:
			if strings.TrimSpace(n.notes) == "" {
				undocumented = append(undocumented, n.label())
			}
		}
	}
	if len(defaults) > 0 {
		r.suggest(fmt.Sprintf("Rename nodes with default names to describe what they do: %s", strings.Join(defaults, ", ")))
	}
	if len(nodes.list) > LargeWorkflowThreshold {
		r.suggest(fmt.Sprintf("Workflow has %d nodes; consider splitting it into sub-workflows", len(nodes.list)))
	}
	if len(disabled) > 0 {
		r.suggest(fmt.Sprintf("Remove or re-enable disabled nodes: %s", strings.Join(disabled, ", ")))
	}
	if len(undocumented) > 0 {
		r.suggest(fmt.Sprintf("Add notes to code nodes explaining their logic: %s", strings.Join(undocumented, ", ")))
	}
}

// collectionSize counts entries in n8n's nested collection parameters, so
// {"conditions": [], "combinator": "and"} counts as empty.
func collectionSize(v any) int {
	switch t := v.(type) {
	case []any:
		return len(t)
	case map[string]any:
		n := 0
		for _, inner := range t {
			switch inner.(type) {
			case []any, map[string]any:
				n += collectionSize(inner)
			}
		}
		return n
	}
	return 0
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
