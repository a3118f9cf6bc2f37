package tools

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// WeatherToolName is the function name the model uses to request a lookup.
const WeatherToolName = "get_weather"

// Unit groups understood by the weather provider.
const (
	UnitGroupUS     = "us"
	UnitGroupMetric = "metric"
)

// WeatherCapability resolves a location to a textual weather summary. The
// returned string is always model-consumable; provider failures surface as an
// apologetic sentence, never as an error.
type WeatherCapability interface {
	GetWeather(ctx context.Context, location, unitGroup string) string
}

// weatherArgs is the argument payload the model supplies for get_weather.
type weatherArgs struct {
	Location  string `json:"location"`
	UnitGroup string `json:"unitGroup"`
}

// WeatherToolDefinition returns the tool advertised to the model on initial
// requests. Resumed requests after a tool round omit it.
func WeatherToolDefinition() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        WeatherToolName,
			Description: "Get current conditions, today's outlook, and a short forecast for a location. Use whenever weather affects the user's travel plans.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"location": {
						Type:        jsonschema.String,
						Description: "City, region, or place name, e.g. \"Lisbon, Portugal\"",
					},
					"unitGroup": {
						Type:        jsonschema.String,
						Enum:        []string{UnitGroupMetric, UnitGroupUS},
						Description: "Unit system for temperatures and speeds; defaults to us",
					},
				},
				Required: []string{"location"},
			},
		},
	}
}

// ParseWeatherArgs decodes the model-supplied JSON arguments. The location is
// required; the unit group is normalized with a us fallback.
func ParseWeatherArgs(raw string) (location, unitGroup string, ok bool) {
	var args weatherArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return "", "", false
	}
	location = strings.TrimSpace(args.Location)
	if location == "" {
		return "", "", false
	}
	return location, NormalizeUnitGroup(args.UnitGroup), true
}

// NormalizeUnitGroup maps loose unit-system spellings onto the two groups the
// provider accepts. Anything unrecognized falls back to us.
func NormalizeUnitGroup(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case UnitGroupMetric, "celsius", "si":
		return UnitGroupMetric
	default:
		return UnitGroupUS
	}
}
