package chat

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// MeasurementSystem is the user's unit preference for a single request.
type MeasurementSystem string

const (
	MeasurementImperial MeasurementSystem = "imperial"
	MeasurementMetric   MeasurementSystem = "metric"
)

// RequestContext carries optional situational context for one turn. It shapes
// the system prompt only and is never persisted.
type RequestContext struct {
	MeasurementSystem MeasurementSystem
	Latitude          float64
	Longitude         float64
	Activities        []string
}

const basePrompt = `You are WanderWallet, a friendly and knowledgeable travel assistant.
You help travelers plan trips, discover destinations, find activities, and make the most of their budget.
Stay on travel-related topics: destinations, itineraries, local culture, food, transportation, packing, budgeting, and weather.
If a question is unrelated to travel, politely steer the conversation back to trip planning.
Keep answers concise, warm, and practical. Never invent prices, schedules, or availability; say when you are unsure.
Do not provide medical, legal, or financial advice beyond general travel guidance.
When weather conditions are relevant to the user's plans, use the get_weather tool to look up current conditions and forecasts instead of guessing.`

// Assembler builds model-ready message sequences from stored history plus
// per-request context. Stateless; the store is its only input.
type Assembler struct {
	store *Store
}

// NewAssembler creates a prompt assembler backed by store.
func NewAssembler(store *Store) *Assembler {
	return &Assembler{store: store}
}

// BuildSystemPrompt composes the fixed assistant instructions with an
// optional user-context block. Each sub-block is omitted independently when
// its source data is absent; a nil context yields only the fixed
// instructions.
func (a *Assembler) BuildSystemPrompt(rc *RequestContext) string {
	if rc == nil {
		return basePrompt
	}

	var builder strings.Builder
	builder.WriteString(basePrompt)
	builder.WriteString("\n\nUser context:")

	if rc.MeasurementSystem == MeasurementMetric {
		builder.WriteString("\n- The user prefers metric units (Celsius, kilometers).")
	} else {
		builder.WriteString("\n- The user prefers imperial units (Fahrenheit, miles).")
	}

	if len(rc.Activities) > 0 {
		builder.WriteString("\n- The user is interested in these activities: ")
		builder.WriteString(strings.Join(rc.Activities, ", "))
		builder.WriteString(".")
	}

	if rc.Latitude != 0 && rc.Longitude != 0 {
		builder.WriteString(fmt.Sprintf("\n- The user's approximate location is latitude %.2f, longitude %.2f.", rc.Latitude, rc.Longitude))
	}

	return builder.String()
}

// BuildHistory returns the exact ordered message sequence handed to the
// model: the system prompt followed by every stored turn for userID.
func (a *Assembler) BuildHistory(userID string, rc *RequestContext) []openai.ChatCompletionMessage {
	stored := a.store.History(userID)

	history := make([]openai.ChatCompletionMessage, 0, len(stored)+1)
	history = append(history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.BuildSystemPrompt(rc),
	})

	for _, message := range stored {
		history = append(history, openai.ChatCompletionMessage{
			Role:    roleToOpenAI(message.Role),
			Content: message.Content,
		})
	}

	return history
}

func roleToOpenAI(role Role) string {
	switch role {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
