package chatrequests

import (
	"strings"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
)

// ChatRequest is the payload for both the blocking and streaming chat
// endpoints. Everything except the message is optional; a missing userId maps
// to the shared anonymous conversation.
type ChatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message" binding:"required"`

	// Optional situational context for this turn only.
	MeasurementSystem string   `json:"measurementSystem"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Activities        []string `json:"activities"`
}

// Context converts the optional request fields into a domain request context.
// Returns nil when the request carries no situational context at all.
func (r *ChatRequest) Context() *chat.RequestContext {
	if r.MeasurementSystem == "" && r.Latitude == 0 && r.Longitude == 0 && len(r.Activities) == 0 {
		return nil
	}

	system := chat.MeasurementImperial
	if strings.EqualFold(strings.TrimSpace(r.MeasurementSystem), string(chat.MeasurementMetric)) {
		system = chat.MeasurementMetric
	}

	return &chat.RequestContext{
		MeasurementSystem: system,
		Latitude:          r.Latitude,
		Longitude:         r.Longitude,
		Activities:        r.Activities,
	}
}

// HistoryRequest selects whose conversation to read.
type HistoryRequest struct {
	UserID string `form:"userId"`
}
