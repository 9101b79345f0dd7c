// Package core contains the data model threaded through a workflow run: the
// conversation history, the execution plan and the mutable workflow state.
package core

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instruction messages.
	RoleSystem Role = "system"
	// RoleUser marks end-user messages.
	RoleUser Role = "user"
	// RoleAssistant marks model-generated messages.
	RoleAssistant Role = "assistant"
)

// Message is a single immutable conversation entry. History is append-only
// within a run.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FirstUserContent returns the content of the earliest user message, which is
// the original request of a run. The second return is false when no user
// message exists.
func FirstUserContent(messages []Message) (string, bool) {
	for _, msg := range messages {
		if msg.Role == RoleUser {
			return msg.Content, true
		}
	}
	return "", false
}

// LastUserContent returns the content of the most recent user message in
// history order. The second return is false when no user message exists.
func LastUserContent(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
