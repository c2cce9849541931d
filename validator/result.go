package validator

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeSchema             = "schema"
	CodeMissingName        = "missing_name"
	CodeMissingNodes       = "missing_nodes"
	CodeInvalidNodes       = "invalid_nodes"
	CodeEmptyWorkflow      = "empty_workflow"
	CodeInvalidConnections = "invalid_connections"
	CodeInvalidSetting     = "invalid_setting"
	CodeInvalidNode        = "invalid_node"
	CodeMissingNodeField   = "missing_node_field"
	CodeInvalidTypeVersion = "invalid_type_version"
	CodeInvalidPosition    = "invalid_position"
	CodeInvalidParameters  = "invalid_parameters"
	CodeDuplicateNodeID    = "duplicate_node_id"
	CodeDuplicateNodeName  = "duplicate_node_name"
	CodeUnknownSource      = "unknown_connection_source"
	CodeUnknownTarget      = "unknown_connection_target"
	CodeInvalidConnection  = "invalid_connection"
	CodeMissingConnType    = "missing_connection_type"
	CodeInvalidConnIndex   = "invalid_connection_index"
	CodeMissingParameter   = "missing_parameter"
	CodeMissingSchedule    = "missing_schedule_rule"
	CodeEmptyCode          = "empty_code"
	CodeMissingConditions  = "missing_conditions"
	CodeMissingAssignments = "missing_assignments"
	CodeEmptyCredentials   = "empty_credentials"
	CodeNoTrigger          = "no_trigger"
	CodeDisconnectedNode   = "disconnected_node"
)

// Issue is a single finding. NodeID and NodeName are set for node-level
// findings, Field names the offending key when there is one.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	NodeID   string   `json:"nodeId,omitempty"`
	NodeName string   `json:"nodeName,omitempty"`
	Field    string   `json:"field,omitempty"`
}

// Result partitions findings into errors, warnings and free-text suggestions.
// Valid is true exactly when Errors is empty.
type Result struct {
	Valid       bool     `json:"valid"`
	Errors      []Issue  `json:"errors"`
	Warnings    []Issue  `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

func newResult() *Result {
	return &Result{
		Errors:      []Issue{},
		Warnings:    []Issue{},
		Suggestions: []string{},
	}
}

func (r *Result) addError(is Issue) {
	is.Severity = SeverityError
	r.Errors = append(r.Errors, is)
}

func (r *Result) addWarning(is Issue) {
	is.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, is)
}

func (r *Result) suggest(s string) {
	r.Suggestions = append(r.Suggestions, s)
}

// HasCode reports whether any error or warning carries the given code.
func (r *Result) HasCode(code string) bool {
	for _, is := range r.Errors {
		if is.Code == code {
			return true
		}
	}
	for _, is := range r.Warnings {
		if is.Code == code {
			return true
		}
	}
	return false
}
