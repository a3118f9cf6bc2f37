package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AnonymousUserID is substituted whenever a request carries no user
// identifier, so every request maps to some conversation.
const AnonymousUserID = "anonymous-user"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single accepted turn half. Immutable once created.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation holds the ordered message history for one user key. Messages
// are append-only; no message is ever removed or reordered. The store owns
// all instances; callers read through snapshot accessors.
type Conversation struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	mu        sync.Mutex
	updatedAt time.Time
	messages  []Message
}

func newConversation(userID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		updatedAt: now,
	}
}

func (c *Conversation) append(role Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	c.updatedAt = time.Now().UTC()
}

// Messages returns a snapshot of the message history in append order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make([]Message, len(c.messages))
	copy(snapshot, c.messages)
	return snapshot
}

// MessageCount returns the number of accepted messages.
func (c *Conversation) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// UpdatedAt returns the time of the last append.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// NormalizeUserID maps empty identifiers to the anonymous sentinel.
func NormalizeUserID(userID string) string {
	if strings.TrimSpace(userID) == "" {
		return AnonymousUserID
	}
	return userID
}
