package chat

import (
	"strings"
	"sync"

	"github.com/brendonwanderlust/wander-wallet-chat/internal/infrastructure/metrics"
)

// Store is the in-memory conversation registry. Operations on different user
// keys never contend; appends to the same conversation serialize on its own
// mutex. Conversations live for the process lifetime; there is no eviction.
type Store struct {
	conversations sync.Map // userID -> *Conversation
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// GetOrCreate returns the conversation for userID, creating and registering
// an empty one on first reference. Concurrent callers with the same key
// always observe the same instance.
func (s *Store) GetOrCreate(userID string) *Conversation {
	userID = NormalizeUserID(userID)
	if existing, ok := s.conversations.Load(userID); ok {
		return existing.(*Conversation)
	}
	created := newConversation(userID)
	actual, loaded := s.conversations.LoadOrStore(userID, created)
	if !loaded {
		metrics.ConversationsCreatedTotal.Inc()
	}
	return actual.(*Conversation)
}

// Append adds a message to the conversation for userID, creating the
// conversation if absent. Each append is atomic.
func (s *Store) Append(userID string, role Role, content string) {
	s.GetOrCreate(userID).append(role, content)
}

// History returns a snapshot of the stored messages for userID.
func (s *Store) History(userID string) []Message {
	return s.GetOrCreate(userID).Messages()
}

// FormatHistory renders the conversation as "role: content" lines, oldest
// first. Returns an empty string when no messages exist.
func (s *Store) FormatHistory(userID string) string {
	messages := s.History(userID)
	if len(messages) == 0 {
		return ""
	}

	var formatted strings.Builder
	for _, message := range messages {
		formatted.WriteString(string(message.Role))
		formatted.WriteString(": ")
		formatted.WriteString(message.Content)
		formatted.WriteString("\n")
	}
	return formatted.String()
}
