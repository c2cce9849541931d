package nodes

import (
	"fmt"
	"strings"

	"github.com/awantoch/flowbridge/model"
)

type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Confidence says how well a node definition matches a free-text query.
type Confidence struct {
	Score   float64  `json:"score"`
	Level   Level    `json:"level"`
	Reasons []string `json:"reasons"`
}

func levelFor(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Score rates def against query in [0, 1]. Exact name matches score highest,
// then aliases, prefixes, substrings, description hits and finally partial
// term coverage.
func Score(def *model.NodeDefinition, query string) Confidence {
	q := strings.ToLower(strings.TrimSpace(query))
	conf := Confidence{Level: LevelLow, Reasons: []string{}}
	if q == "" {
		return conf
	}
	short := strings.ToLower(def.ShortName())
	display := strings.ToLower(def.DisplayName)
	full := strings.ToLower(def.Name)
	desc := strings.ToLower(def.Description)

	consider := func(score float64, reason string) {
		if score > conf.Score {
			conf.Score = score
		}
		conf.Reasons = append(conf.Reasons, reason)
	}

	switch {
	case q == short || q == display || q == full:
		consider(1.0, "exact name match")
	case strings.HasPrefix(display, q) || strings.HasPrefix(short, q):
		consider(0.8, "name starts with query")
	case strings.Contains(display, q) || strings.Contains(full, q):
		consider(0.6, "name contains query")
	}
	for _, alias := range def.Aliases() {
		a := strings.ToLower(alias)
		if a == q {
			consider(0.9, fmt.Sprintf("exact alias match %q", alias))
			break
		}
		if strings.Contains(a, q) {
			consider(0.5, fmt.Sprintf("alias %q contains query", alias))
			break
		}
	}
	if desc != "" && strings.Contains(desc, q) {
		consider(0.4, "description contains query")
	}

	if conf.Score < 0.3 {
		terms := strings.Fields(q)
		haystack := strings.Join(append([]string{full, display, desc}, lowerAll(def.Aliases())...), " ")
		found := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				found++
			}
		}
		if found > 0 {
			conf.Score = 0.3 * float64(found) / float64(len(terms))
			conf.Reasons = append(conf.Reasons, fmt.Sprintf("matched %d of %d terms", found, len(terms)))
		}
	}
	conf.Level = levelFor(conf.Score)
	return conf
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
