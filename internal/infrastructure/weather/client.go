package weather

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/config"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/tools"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/metrics"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/httpclients"
)

const (
	forecastDays = 3
	maxAlerts    = 2
)

// timelineResponse mirrors the fields of the Visual Crossing timeline payload
// the summary uses.
type timelineResponse struct {
	ResolvedAddress   string           `json:"resolvedAddress"`
	Description       string           `json:"description"`
	CurrentConditions *currentSnapshot `json:"currentConditions"`
	Days              []daySnapshot    `json:"days"`
	Alerts            []alertSnapshot  `json:"alerts"`
}

type currentSnapshot struct {
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feelslike"`
	Humidity   float64 `json:"humidity"`
	WindSpeed  float64 `json:"windspeed"`
	Conditions string  `json:"conditions"`
}

type daySnapshot struct {
	Datetime    string  `json:"datetime"`
	TempMax     float64 `json:"tempmax"`
	TempMin     float64 `json:"tempmin"`
	Conditions  string  `json:"conditions"`
	Description string  `json:"description"`
}

type alertSnapshot struct {
	Event       string `json:"event"`
	Description string `json:"description"`
}

// Client fetches weather summaries from the Visual Crossing timeline API. It
// satisfies tools.WeatherCapability: every failure path degrades to an
// apologetic sentence the model can relay, so a weather outage never fails a
// chat turn.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

var _ tools.WeatherCapability = (*Client)(nil)

// NewClient creates a weather client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	client := httpclients.NewClient("weather")
	client.SetTimeout(cfg.WeatherTimeout)

	return &Client{
		httpClient: client,
		baseURL:    strings.TrimRight(cfg.WeatherBaseURL, "/"),
		apiKey:     cfg.WeatherAPIKey,
		log:        log.With().Str("component", "weather_client").Logger(),
	}
}

// GetWeather returns a multi-line weather summary for location, or an
// apologetic fallback sentence when the provider cannot answer.
func (c *Client) GetWeather(ctx context.Context, location, unitGroup string) string {
	unitGroup = tools.NormalizeUnitGroup(unitGroup)

	var timeline timelineResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("unitGroup", unitGroup).
		SetQueryParam("key", c.apiKey).
		SetQueryParam("contentType", "json").
		SetResult(&timeline).
		Get(c.baseURL + "/" + url.PathEscape(location))
	if err != nil {
		c.log.Warn().Err(err).Str("location", location).Msg("weather lookup failed")
		metrics.RecordToolCall(tools.WeatherToolName, "failed")
		return unavailableMessage(location)
	}
	if resp.IsError() {
		c.log.Warn().
			Int("status", resp.StatusCode()).
			Str("location", location).
			Msg("weather provider returned an error status")
		metrics.RecordToolCall(tools.WeatherToolName, "failed")
		return unavailableMessage(location)
	}
	if timeline.CurrentConditions == nil && len(timeline.Days) == 0 {
		c.log.Warn().Str("location", location).Msg("weather provider returned no usable data")
		metrics.RecordToolCall(tools.WeatherToolName, "failed")
		return unavailableMessage(location)
	}

	metrics.RecordToolCall(tools.WeatherToolName, "success")
	return formatSummary(location, unitGroup, &timeline)
}

func unavailableMessage(location string) string {
	return fmt.Sprintf("Sorry, I couldn't retrieve the weather for %s right now. Please try again in a little while.", location)
}

func formatSummary(location, unitGroup string, timeline *timelineResponse) string {
	tempUnit := "°F"
	speedUnit := "mph"
	if unitGroup == tools.UnitGroupMetric {
		tempUnit = "°C"
		speedUnit = "km/h"
	}

	place := timeline.ResolvedAddress
	if strings.TrimSpace(place) == "" {
		place = location
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s:\n", place)

	if current := timeline.CurrentConditions; current != nil {
		fmt.Fprintf(&b, "Currently: %s, %.0f%s (feels like %.0f%s), humidity %.0f%%, wind %.0f %s.\n",
			conditionsOr(current.Conditions, "conditions unavailable"),
			current.Temp, tempUnit, current.FeelsLike, tempUnit,
			current.Humidity, current.WindSpeed, speedUnit)
	}

	if len(timeline.Days) > 0 {
		today := timeline.Days[0]
		fmt.Fprintf(&b, "Today: %s, high %.0f%s, low %.0f%s.\n",
			conditionsOr(today.Conditions, "conditions unavailable"),
			today.TempMax, tempUnit, today.TempMin, tempUnit)
	}

	if len(timeline.Days) > 1 {
		b.WriteString("Forecast:\n")
		upcoming := timeline.Days[1:]
		if len(upcoming) > forecastDays {
			upcoming = upcoming[:forecastDays]
		}
		for _, day := range upcoming {
			fmt.Fprintf(&b, "- %s: %s, high %.0f%s, low %.0f%s.\n",
				formatDay(day.Datetime),
				conditionsOr(day.Conditions, "conditions unavailable"),
				day.TempMax, tempUnit, day.TempMin, tempUnit)
		}
	}

	if len(timeline.Alerts) > 0 {
		b.WriteString("Active alerts:\n")
		alerts := timeline.Alerts
		if len(alerts) > maxAlerts {
			alerts = alerts[:maxAlerts]
		}
		for _, alert := range alerts {
			fmt.Fprintf(&b, "- %s\n", alert.Event)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func conditionsOr(conditions, fallback string) string {
	if strings.TrimSpace(conditions) == "" {
		return fallback
	}
	return conditions
}

func formatDay(datetime string) string {
	parsed, err := time.Parse("2006-01-02", datetime)
	if err != nil {
		return datetime
	}
	return parsed.Format("Mon Jan 2")
}
