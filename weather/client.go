// Package weather reads current conditions from the Open-Meteo geocoding and
// forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/awantoch/flowbridge/config"
	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/utils"
)

const DefaultTimeout = 15 * time.Second

var ErrLocationNotFound = errors.New("location not found")

type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"admin1,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Label is "Name, Region, Country" without empty or repeated parts.
func (l Location) Label() string {
	parts := []string{l.Name}
	for _, p := range []string{l.Region, l.Country} {
		if p != "" && p != parts[len(parts)-1] {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Report is the current weather at a location.
type Report struct {
	Location            Location `json:"location"`
	Time                string   `json:"time"`
	TemperatureC        float64  `json:"temperatureC"`
	ApparentTemperature float64  `json:"apparentTemperatureC"`
	Humidity            float64  `json:"humidity"`
	WindSpeedKmh        float64  `json:"windSpeedKmh"`
	Code                int      `json:"weatherCode"`
	Description         string   `json:"description"`
}

type Client struct {
	geocodingURL string
	forecastURL  string
	httpClient   *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// NewClient uses the Open-Meteo endpoints from cfg, falling back to the
// public ones.
func NewClient(cfg config.WeatherConfig, opts ...Option) *Client {
	c := &Client{
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if c.geocodingURL == "" {
		c.geocodingURL = config.DefaultGeocodingURL
	}
	if c.forecastURL == "" {
		c.forecastURL = config.DefaultForecastURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode resolves a place name to its best match.
func (c *Client) Geocode(ctx context.Context, name string) (*Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrLocationNotFound)
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var payload struct {
		Results []Location `json:"results"`
	}
	if err := c.get(ctx, c.geocodingURL, q, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return &payload.Results[0], nil
}

// Current geocodes place and fetches its current conditions.
func (c *Client) Current(ctx context.Context, place string) (*Report, error) {
	loc, err := c.Geocode(ctx, place)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("current", "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code")
	q.Set("timezone", "auto")

	var payload struct {
		Current struct {
			Time                string  `json:"time"`
			Temperature         float64 `json:"temperature_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			Humidity            float64 `json:"relative_humidity_2m"`
			WindSpeed           float64 `json:"wind_speed_10m"`
			WeatherCode         int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := c.get(ctx, c.forecastURL, q, &payload); err != nil {
		return nil, err
	}
	cur := payload.Current
	return &Report{
		Location:            *loc,
		Time:                cur.Time,
		TemperatureC:        cur.Temperature,
		ApparentTemperature: cur.ApparentTemperature,
		Humidity:            cur.Humidity,
		WindSpeedKmh:        cur.WindSpeed,
		Code:                cur.WeatherCode,
		Description:         Describe(cur.WeatherCode),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)

	utils.DebugCtx(ctx, "weather request", "url", endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("weather API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode weather response: %w", err)
	}
	return nil
}

// WMO weather interpretation codes as used by Open-Meteo.
var descriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snowfall",
	73: "moderate snowfall",
	75: "heavy snowfall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// Describe maps a WMO weather code to text.
func Describe(code int) string {
	if d, ok := descriptions[code]; ok {
		return d
	}
	return "unknown conditions"
}
