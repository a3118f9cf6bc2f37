package chatresponses

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/logger"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/platformerrors"
)

// ChatResponse is the blocking chat endpoint reply.
type ChatResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// HistoryResponse is the conversation snapshot reply.
type HistoryResponse struct {
	ConversationID string         `json:"conversationId"`
	UserID         string         `json:"userId"`
	Messages       []chat.Message `json:"messages"`
}

// ErrorResponse is the error envelope for non-streaming endpoints.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo holds error information
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// HandleError logs err and writes the mapped error envelope. Internal detail
// never reaches the client body.
func HandleError(c *gin.Context, err error) {
	log := logger.GetLogger()

	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		platformErr = platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeInternal, "unexpected error", err)
	}

	// Client mistakes are not server failures.
	logEvent := log.Error()
	if platformerrors.IsValidationError(platformErr) {
		logEvent = log.Warn()
	}
	logEvent.
		Err(err).
		Str("request_id", platformErr.RequestID).
		Str("layer", string(platformErr.Layer)).
		Str("type", string(platformErr.Type)).
		Msg("request failed")

	status := platformerrors.ErrorTypeToHTTPStatus(platformErr.Type)
	message := platformErr.Message
	if status >= 500 || platformErr.Type == platformerrors.ErrorTypeExternal {
		message = "The assistant is unavailable right now. Please try again."
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorInfo{
			Code:      string(platformErr.Type),
			Message:   message,
			RequestID: platformErr.RequestID,
		},
	})
}
