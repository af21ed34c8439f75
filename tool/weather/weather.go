// Package weather provides the weather_info tool backed by the OpenWeatherMap
// current weather API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/alfred"
)

const (
	// ToolName is the name under which the tool is registered.
	ToolName = "weather_info"

	// DefaultBaseURL is the OpenWeatherMap API endpoint.
	DefaultBaseURL = "http://api.openweathermap.org"

	defaultTimeout = 10 * time.Second
)

// Tool fetches current weather for a location.
type Tool struct {
	apiKey string
	client *resty.Client
	logger *slog.Logger
}

// Option configures a Tool.
type Option func(*Tool)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(x *Tool) {
		x.client.SetBaseURL(url)
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Tool) {
		x.client.SetTimeout(d)
	}
}

// WithLogger sets the logger. Default is discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Tool) {
		x.logger = logger
	}
}

// New creates the weather tool. An empty apiKey is accepted; the tool then
// answers every call with a configuration error text.
func New(apiKey string, opts ...Option) *Tool {
	x := &Tool{
		apiKey: apiKey,
		client: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetRetryCount(0),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(x)
	}

	if apiKey == "" {
		x.logger.Warn("OPENWEATHERMAP_API_KEY is not set, weather tool will not function")
	}
	return x
}

// Spec implements alfred.Tool.
func (x *Tool) Spec() alfred.ToolSpec {
	return alfred.ToolSpec{
		Name:        ToolName,
		Description: "Fetches real-time weather information for a given location using OpenWeatherMap API.",
		Parameters: map[string]*alfred.Parameter{
			"location": {
				Type:        alfred.TypeString,
				Description: "The city name (and optional country code, e.g., 'London,UK') to get weather information for.",
				Required:    true,
			},
		},
		OutputType: alfred.OutputString,
	}
}

// Invoke implements alfred.Tool.
func (x *Tool) Invoke(ctx context.Context, args map[string]any) string {
	location, _ := args["location"].(string)
	return x.Fetch(ctx, location)
}

// flexibleCode accepts the "cod" field both as a number and as a string.
type flexibleCode int

func (f *flexibleCode) UnmarshalJSON(data []byte) error {
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*f = flexibleCode(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexibleCode(i)
	return nil
}

type current struct {
	Cod     flexibleCode `json:"cod"`
	Message string       `json:"message"`
	Name    string       `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// Fetch returns a human readable weather report for location. Every failure
// is returned as text.
func (x *Tool) Fetch(ctx context.Context, location string) string {
	if x.apiKey == "" {
		return "Error: OpenWeatherMap API key is not configured."
	}

	resp, err := x.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     location,
			"appid": x.apiKey,
			"units": "metric",
		}).
		Get("/data/2.5/weather")
	if err != nil {
		x.logger.Info("weather request failed", "location", location, "error", err)
		return fmt.Sprintf("Error connecting to weather service for '%s': %v", location, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized:
		return fmt.Sprintf("Error fetching weather for '%s': Invalid API key or subscription issue.", location)
	case code == http.StatusNotFound:
		return fmt.Sprintf("Error fetching weather: Location '%s' not found.", location)
	case code >= 400:
		return fmt.Sprintf("HTTP error occurred while fetching weather for '%s': %s", location, resp.Status())
	}

	var data current
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		x.logger.Info("malformed weather response", "location", location, "error", err)
		return fmt.Sprintf("An unexpected error occurred while fetching weather for '%s': %v", location, err)
	}

	if data.Cod != http.StatusOK {
		msg := data.Message
		if msg == "" {
			msg = "Unknown API error"
		}
		return fmt.Sprintf("Error fetching weather for '%s': %s", location, msg)
	}

	return format(location, &data)
}

func format(location string, data *current) string {
	condition, description := "N/A", "N/A"
	if len(data.Weather) > 0 {
		condition = orNA(data.Weather[0].Main)
		description = orNA(data.Weather[0].Description)
	}

	var temp, feelsLike, humidity, wind *float64
	if data.Main != nil {
		temp, feelsLike, humidity = data.Main.Temp, data.Main.FeelsLike, data.Main.Humidity
	}
	if data.Wind != nil {
		wind = data.Wind.Speed
	}

	name := data.Name
	if name == "" {
		name = location
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s:\n", name)
	fmt.Fprintf(&b, "- Condition: %s (%s)\n", condition, description)
	fmt.Fprintf(&b, "- Temperature: %s°C (Feels like: %s°C)\n", number(temp), number(feelsLike))
	fmt.Fprintf(&b, "- Humidity: %s%%\n", number(humidity))
	fmt.Fprintf(&b, "- Wind Speed: %s m/s", number(wind))
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func number(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
