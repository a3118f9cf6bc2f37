package chathandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/domain/chat"
)

type fakeModel struct {
	reply       string
	completeErr error
	fragments   []chat.Fragment
	streamErr   error
}

func (f *fakeModel) CompleteOnce(ctx context.Context, turns []openai.ChatCompletionMessage) (string, error) {
	return f.reply, f.completeErr
}

func (f *fakeModel) CompleteStreaming(ctx context.Context, turns []openai.ChatCompletionMessage) (<-chan chat.Fragment, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan chat.Fragment, len(f.fragments))
	for _, fragment := range f.fragments {
		out <- fragment
	}
	close(out)
	return out, nil
}

func newTestRouter(model chat.ModelClient) (*gin.Engine, *chat.Store) {
	gin.SetMode(gin.TestMode)
	store := chat.NewStore()
	orchestrator := chat.NewOrchestrator(store, chat.NewAssembler(store), model, zerolog.Nop())
	handler := NewChatHandler(orchestrator, store)

	router := gin.New()
	router.POST("/v1/chat", handler.PostChat)
	router.POST("/v1/chat/stream", handler.PostChatStream)
	router.GET("/v1/chat/history", handler.GetHistory)
	return router, store
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestPostChat(t *testing.T) {
	router, store := newTestRouter(&fakeModel{reply: "Try Porto."})

	recorder := postJSON(router, "/v1/chat", `{"userId":"u1","message":"where to?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}

	var response struct {
		Reply          string `json:"reply"`
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Reply != "Try Porto." {
		t.Errorf("reply = %q", response.Reply)
	}
	if response.UserID != "u1" {
		t.Errorf("userId = %q", response.UserID)
	}
	if response.ConversationID != store.GetOrCreate("u1").ID {
		t.Errorf("conversationId = %q, want the stored conversation id", response.ConversationID)
	}
	if got := len(store.History("u1")); got != 2 {
		t.Errorf("expected 2 stored messages, got %d", got)
	}
}

func TestPostChatConversationIDStable(t *testing.T) {
	router, _ := newTestRouter(&fakeModel{reply: "ok"})

	var ids []string
	for i := 0; i < 2; i++ {
		recorder := postJSON(router, "/v1/chat", `{"userId":"u1","message":"hi"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d", recorder.Code)
		}
		var response struct {
			ConversationID string `json:"conversationId"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if response.ConversationID == "" {
			t.Fatalf("expected a conversation id")
		}
		ids = append(ids, response.ConversationID)
	}
	if ids[0] != ids[1] {
		t.Errorf("conversation id changed across turns: %q vs %q", ids[0], ids[1])
	}
}

func TestPostChatMissingMessage(t *testing.T) {
	router, _ := newTestRouter(&fakeModel{reply: "unused"})

	recorder := postJSON(router, "/v1/chat", `{"userId":"u1"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestPostChatAnonymousFallback(t *testing.T) {
	router, store := newTestRouter(&fakeModel{reply: "Hello there."})

	recorder := postJSON(router, "/v1/chat", `{"message":"hi"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}

	var response struct {
		UserID string `json:"userId"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &response)
	if response.UserID != chat.AnonymousUserID {
		t.Errorf("userId = %q, want %q", response.UserID, chat.AnonymousUserID)
	}
	if got := len(store.History(chat.AnonymousUserID)); got != 2 {
		t.Errorf("expected anonymous conversation to hold the turn, got %d messages", got)
	}
}

func TestPostChatProviderFailure(t *testing.T) {
	router, _ := newTestRouter(&fakeModel{completeErr: errors.New("provider down")})

	recorder := postJSON(router, "/v1/chat", `{"userId":"u1","message":"hi"}`)
	if recorder.Code < 500 {
		t.Fatalf("status = %d, want a 5xx", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "provider down") {
		t.Errorf("internal detail leaked to client: %s", recorder.Body.String())
	}
}

func TestPostChatStreamWireFormat(t *testing.T) {
	router, store := newTestRouter(&fakeModel{fragments: []chat.Fragment{
		{Text: "Hel"},
		{Text: "lo"},
	}})

	recorder := postJSON(router, "/v1/chat/stream", `{"userId":"u1","message":"greet"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	want := "data: Hel\n\ndata: lo\n\nevent: complete\ndata: \n\n"
	if recorder.Body.String() != want {
		t.Errorf("body = %q, want %q", recorder.Body.String(), want)
	}

	messages := store.History("u1")
	if len(messages) != 2 || messages[1].Content != "Hello" {
		t.Errorf("unexpected stored history: %+v", messages)
	}
}

func TestPostChatStreamMidStreamError(t *testing.T) {
	router, store := newTestRouter(&fakeModel{fragments: []chat.Fragment{
		{Text: "Partial"},
		{Err: errors.New("connection reset")},
	}})

	recorder := postJSON(router, "/v1/chat/stream", `{"userId":"u1","message":"go on"}`)
	body := recorder.Body.String()

	if !strings.HasPrefix(body, "data: Partial\n\n") {
		t.Errorf("expected the delivered fragment first, body = %q", body)
	}
	if !strings.Contains(body, "event: error\n") {
		t.Errorf("expected a terminal error event, body = %q", body)
	}
	if strings.Contains(body, "event: complete") {
		t.Errorf("error and complete events are mutually exclusive, body = %q", body)
	}
	if strings.Contains(body, "connection reset") {
		t.Errorf("internal detail leaked to client: %q", body)
	}

	messages := store.History("u1")
	if len(messages) != 2 || messages[1].Content != "Partial" {
		t.Errorf("partial reply must be committed before the error event: %+v", messages)
	}
}

func TestPostChatStreamStartFailure(t *testing.T) {
	router, _ := newTestRouter(&fakeModel{streamErr: errors.New("bad gateway")})

	recorder := postJSON(router, "/v1/chat/stream", `{"userId":"u1","message":"hi"}`)
	if recorder.Code < 400 {
		t.Fatalf("status = %d, want an error status", recorder.Code)
	}
	if strings.Contains(recorder.Header().Get("Content-Type"), "text/event-stream") {
		t.Errorf("pre-stream failures must not switch to SSE")
	}
}

func TestGetHistory(t *testing.T) {
	router, store := newTestRouter(&fakeModel{})

	store.Append("u1", chat.RoleUser, "hello")
	store.Append("u1", chat.RoleAssistant, "hi")

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/history?userId=u1", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}

	var response struct {
		ConversationID string         `json:"conversationId"`
		UserID         string         `json:"userId"`
		Messages       []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.UserID != "u1" {
		t.Errorf("userId = %q", response.UserID)
	}
	if response.ConversationID != store.GetOrCreate("u1").ID {
		t.Errorf("conversationId = %q, want the stored conversation id", response.ConversationID)
	}
	if len(response.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(response.Messages))
	}
	if response.Messages[0].Content != "hello" || response.Messages[1].Content != "hi" {
		t.Errorf("unexpected message order: %+v", response.Messages)
	}
}

func TestGetHistoryEmptyUser(t *testing.T) {
	router, _ := newTestRouter(&fakeModel{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/v1/chat/history", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}

	var response struct {
		UserID string `json:"userId"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &response)
	if response.UserID != chat.AnonymousUserID {
		t.Errorf("userId = %q, want %q", response.UserID, chat.AnonymousUserID)
	}
}
