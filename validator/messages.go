package validator

import (
	"fmt"
	"strings"
)

func msgSchema(field, detail string) string {
	if field == "" {
		return fmt.Sprintf("Workflow %s", detail)
	}
	return fmt.Sprintf("Field %q: %s", field, detail)
}

func msgMissingNodeField(label, field string) string {
	return fmt.Sprintf("Node %s is missing required field %q", label, field)
}

func msgMissingParameter(label, param string) string {
	return fmt.Sprintf("Node %s is missing required parameter %q", label, param)
}

func msgInvalidSetting(key, expected string) string {
	return fmt.Sprintf("Setting %q must be %s", key, expected)
}

func msgUnknownTarget(source, target string) string {
	return fmt.Sprintf("Connection from %q references non-existent node %q", source, target)
}

func msgUnknownSource(source string) string {
	return fmt.Sprintf("Connection source %q does not match any node", source)
}

func nodeLabel(id, name string, index int) string {
	switch {
	case name != "":
		return fmt.Sprintf("%q", name)
	case id != "":
		return fmt.Sprintf("%q", id)
	default:
		return fmt.Sprintf("at index %d", index)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Summary returns a one-line verdict such as
// "Workflow is invalid: 2 errors, 1 warning".
func Summary(r *Result) string {
	counts := []string{}
	if len(r.Errors) > 0 {
		counts = append(counts, plural(len(r.Errors), "error"))
	}
	if len(r.Warnings) > 0 {
		counts = append(counts, plural(len(r.Warnings), "warning"))
	}
	if len(r.Suggestions) > 0 {
		counts = append(counts, plural(len(r.Suggestions), "suggestion"))
	}
	if r.Valid {
		if len(counts) == 0 {
			return "Workflow is valid"
		}
		return fmt.Sprintf("Workflow is valid (%s)", strings.Join(counts, ", "))
	}
	return fmt.Sprintf("Workflow is invalid: %s", strings.Join(counts, ", "))
}

// FormatResult renders a human-readable report.
func FormatResult(r *Result) string {
	var b strings.Builder
	b.WriteString(Summary(r))
	b.WriteString("\n")
	writeIssues(&b, "Errors", r.Errors)
	writeIssues(&b, "Warnings", r.Warnings)
	if len(r.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}
	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, is := range issues {
		fmt.Fprintf(b, "  - %s (%s)\n", is.Message, is.Code)
	}
}
