// careassist/utils/types/chat.go
package types

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

const DefaultSessionTitle = "New Conversation"

// Message is immutable once appended to a session.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	TitleSet  bool      `json:"titleSet" yaml:"title_set"`
	Messages  []Message `json:"messages" yaml:"messages"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// IsEmpty reports the Empty content state; a session with messages is Active.
func (s *Session) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Clone returns a deep copy safe to hand to readers.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}

// SessionExport is the self-contained snapshot written to export files.
type SessionExport struct {
	Session    `yaml:",inline"`
	ExportedAt time.Time `json:"exportedAt" yaml:"exported_at"`
}

// For the session list panel
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Active       bool      `json:"active"`
}

// Turn is the {role, content} pair the completion boundary accepts.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the stateless completion body. Messages stays raw so
// "missing" and "not a list" can be told apart.
type CompletionRequest struct {
	Messages json.RawMessage `json:"messages"`
	APIKey   string          `json:"apiKey"`
}

type CompletionResponse struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SendRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content"`
}

// SendResult is what a front end gets back after one send.
type SendResult struct {
	Session *Session `json:"session"`
	Reply   Message  `json:"reply"`
	Failed  bool     `json:"failed"`
	Warning string   `json:"warning,omitempty"`
}

type APIKeyStatus struct {
	Configured bool   `json:"configured"`
	APIKey     string `json:"apiKey,omitempty"`
}
