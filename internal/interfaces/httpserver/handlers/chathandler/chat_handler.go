package chathandler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/observability"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/middlewares"
	chatrequests "github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/requests/chat"
	chatresponses "github.com/brendonwanderlust/wander-wallet-chat/internal/interfaces/httpserver/responses/chat"
	"github.com/brendonwanderlust/wander-wallet-chat/internal/utils/platformerrors"
)

const streamErrorMessage = "The assistant is unavailable right now. Please try again."

// ChatHandler handles chat turns and history reads.
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	store        *chat.Store
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *chat.Orchestrator, store *chat.Store) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		store:        store,
	}
}

// PostChat handles a blocking chat turn and returns the full reply as JSON.
func (h *ChatHandler) PostChat(c *gin.Context) {
	var request chatrequests.ChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		chatresponses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "message is required", err))
		return
	}

	c.Set("stream", false)
	ctx, span := observability.StartSpan(c.Request.Context(), "chat-api", "ChatHandler.PostChat")
	defer span.End()
	observability.AddSpanAttributes(ctx,
		attribute.Bool("chat.stream", false),
		attribute.Int("chat.message_length", len(request.Message)),
	)

	reply, err := h.orchestrator.Respond(ctx, request.UserID, request.Message, request.Context())
	if err != nil {
		observability.RecordError(ctx, err)
		chatresponses.HandleError(c, err)
		return
	}

	conversation := h.store.GetOrCreate(request.UserID)
	c.JSON(http.StatusOK, chatresponses.ChatResponse{
		Reply:          reply,
		ConversationID: conversation.ID,
		UserID:         conversation.UserID,
	})
}

// PostChatStream handles a streaming chat turn over Server Sent Events. Each
// fragment is written as a data event as soon as it arrives; the stream ends
// with either a complete event or an error event, never both.
func (h *ChatHandler) PostChatStream(c *gin.Context) {
	var request chatrequests.ChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		chatresponses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "message is required", err))
		return
	}

	c.Set("stream", true)
	ctx, span := observability.StartSpan(c.Request.Context(), "chat-api", "ChatHandler.PostChatStream")
	defer span.End()
	observability.AddSpanAttributes(ctx,
		attribute.Bool("chat.stream", true),
		attribute.Int("chat.message_length", len(request.Message)),
	)

	fragments, err := h.orchestrator.RespondStreaming(ctx, request.UserID, request.Message, request.Context())
	if err != nil {
		observability.RecordError(ctx, err)
		chatresponses.HandleError(c, err)
		return
	}

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		chatresponses.HandleError(c, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeInternal, "streaming unsupported by connection", nil))
		return
	}
	c.Writer.WriteHeaderNow()

	for fragment := range fragments {
		if fragment.Err != nil {
			observability.RecordError(ctx, fragment.Err)
			writeSSEEvent(c, "error", streamErrorMessage)
			flusher.Flush()
			return
		}
		writeSSEData(c, fragment.Text)
		flusher.Flush()
	}

	writeSSEEvent(c, "complete", "")
	flusher.Flush()
}

// GetHistory returns the stored conversation for a user, oldest first.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	var request chatrequests.HistoryRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		chatresponses.HandleError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid history query", err))
		return
	}

	conversation := h.store.GetOrCreate(request.UserID)
	c.JSON(http.StatusOK, chatresponses.HistoryResponse{
		ConversationID: conversation.ID,
		UserID:         conversation.UserID,
		Messages:       conversation.Messages(),
	})
}

// writeSSEData writes one data event. Multi-line payloads are split across
// data lines so the event framing survives embedded newlines.
func writeSSEData(c *gin.Context, text string) {
	for _, line := range strings.Split(text, "\n") {
		c.Writer.WriteString("data: " + line + "\n")
	}
	c.Writer.WriteString("\n")
}

func writeSSEEvent(c *gin.Context, event, data string) {
	c.Writer.WriteString("event: " + event + "\n")
	c.Writer.WriteString("data: " + data + "\n\n")
}
