package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/awantoch/flowbridge/weather"
)

// Forecaster returns current conditions for a place name.
type Forecaster interface {
	Current(ctx context.Context, place string) (*weather.Report, error)
}

var locationPattern = regexp.MustCompile(`(?i)\b(?:in|for|at)\s+([\p{L}][\p{L}\s.'-]*)`)

// extractLocation returns the place named after the last "in", "for" or
// "at", e.g. "what's the weather like in New York?" gives "New York".
func extractLocation(text string) string {
	matches := locationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	loc := matches[len(matches)-1][1]
	// "for tomorrow in Paris" is captured whole.
	for sub := locationPattern.FindStringSubmatch(loc); sub != nil; sub = locationPattern.FindStringSubmatch(loc) {
		loc = sub[1]
	}
	loc = strings.TrimRight(strings.TrimSpace(loc), ".?!'-")
	for _, suffix := range []string{" today", " tomorrow", " now", " right now"} {
		loc = strings.TrimSuffix(loc, suffix)
	}
	return strings.TrimSpace(loc)
}

type WeatherAgent struct {
	forecaster Forecaster
}

func NewWeatherAgent(f Forecaster) *WeatherAgent {
	return &WeatherAgent{forecaster: f}
}

func (w *WeatherAgent) Name() string { return "weather" }
func (w *WeatherAgent) Description() string {
	return `current weather for a city, e.g. "weather in Lisbon"`
}

func (w *WeatherAgent) Matches(text string) bool {
	return containsAny(text, "weather", "forecast", "temperature", "rain", "sunny")
}

func (w *WeatherAgent) Handle(ctx context.Context, req Request) (Response, error) {
	place := extractLocation(req.Text)
	if place == "" {
		return Response{Text: `Which city? Try "weather in Lisbon".`}, nil
	}
	report, err := w.forecaster.Current(ctx, place)
	if errors.Is(err, weather.ErrLocationNotFound) {
		return Response{Text: fmt.Sprintf("I couldn't find a place called %q.", place)}, nil
	}
	if err != nil {
		return Response{}, err
	}
	text, err := render("weather", map[string]any{
		"location":    report.Location.Label(),
		"description": report.Description,
		"temperature": report.TemperatureC,
		"apparent":    report.ApparentTemperature,
		"humidity":    report.Humidity,
		"wind":        report.WindSpeedKmh,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Text: text}, nil
}
