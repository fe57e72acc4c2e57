package models

import (
	"encoding/json"
	"strings"
)

// User-facing chat failure messages.
const (
	MsgMessageRequired  = "Message is required"
	MsgProviderFailed   = "Failed to reach Gemini"
	MsgMethodNotAllowed = "Method Not Allowed"
	MsgTooManyRequests  = "Too many requests. Please try again later."
	MsgInternalError    = "An unexpected error occurred"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in a conversation as the widget renders it.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Part is a single text part of a wire turn.
type Part struct {
	Text string `json:"text"`
}

// Content is a turn in the provider's wire format: role plus text parts.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// ChatRequest is the payload sent to the chat endpoints.
type ChatRequest struct {
	Message string    `json:"message"`
	History []Content `json:"history"`
}

// UnmarshalJSON decodes leniently: a non-string message decodes as empty and
// a malformed history decodes as no history.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
		History json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ChatRequest{}
	if len(raw.Message) > 0 {
		var msg string
		if json.Unmarshal(raw.Message, &msg) == nil {
			r.Message = msg
		}
	}
	if len(raw.History) > 0 {
		var history []Content
		if json.Unmarshal(raw.History, &history) == nil {
			r.History = history
		}
	}
	return nil
}

// HasMessage reports whether the request carries a non-empty message.
// Whitespace is forwarded as is.
func (r ChatRequest) HasMessage() bool {
	return r.Message != ""
}

// ChatResponse is the atomic reply of the chat endpoint.
type ChatResponse struct {
	Text string `json:"text"`
}

// StreamChunk is one newline-delimited line of a streamed reply. Exactly one
// of Text or Error is set.
type StreamChunk struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// SocketFrame is a server frame on the chat websocket.
type SocketFrame struct {
	Type  string `json:"type"` // "fragment", "done" or "error"
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Text joins the text parts of a wire turn.
func (c Content) Text() string {
	if len(c.Parts) == 1 {
		return c.Parts[0].Text
	}
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// ToContents converts widget turns into wire turns, one text part each.
func ToContents(turns []Turn) []Content {
	out := make([]Content, 0, len(turns))
	for _, t := range turns {
		out = append(out, Content{Role: t.Role, Parts: []Part{{Text: t.Text}}})
	}
	return out
}

// LastTurns returns at most limit trailing elements of history. A limit of
// zero or less keeps everything.
func LastTurns[T any](history []T, limit int) []T {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}
