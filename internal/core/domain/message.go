package domain

import (
	"fmt"
	"math"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// SourceRef is a citation backing part of an answer.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`

	// RelevanceScore is in [0, 1].
	RelevanceScore float64 `json:"relevance_score"`
}

// RelevancePercent returns the score as a rounded percentage (0.92 -> 92).
func (s SourceRef) RelevancePercent() int {
	score := math.Max(0, math.Min(1, s.RelevanceScore))
	return int(math.Round(score * 100))
}

// RelevanceLabel returns the percentage formatted for display, e.g. "92%".
func (s SourceRef) RelevanceLabel() string {
	return fmt.Sprintf("%d%%", s.RelevancePercent())
}

// Message is a single conversation turn. Messages are immutable once created.
type Message struct {
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Sources []SourceRef `json:"sources"`

	// Timestamp is set on messages read back from backend history.
	// Messages created client-side leave it zero.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewUserMessage creates a user message with no sources.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Sources: []SourceRef{}}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string, sources []SourceRef) Message {
	if sources == nil {
		sources = []SourceRef{}
	}
	return Message{Role: RoleAssistant, Content: content, Sources: sources}
}

// GreetingFor returns the assistant greeting shown when a topic becomes active.
func GreetingFor(topic string) string {
	return fmt.Sprintf("Knowledge base ready! Ask me anything about %q.", topic)
}

// ErrorContent renders an error as in-band conversation content.
func ErrorContent(err error) string {
	if err == nil {
		return "Error: unknown error"
	}
	return "Error: " + err.Error()
}

// Answer is the backend response to a question.
type Answer struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// ClearAck acknowledges a history deletion.
type ClearAck struct {
	Message string `json:"message"`
}
