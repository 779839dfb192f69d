package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// MessageType enumerates the tagged messages crossing the page/popup/background boundary.
type MessageType string

const (
	// TypeScrapeRequest asks the page side for a snapshot (popup -> page).
	TypeScrapeRequest MessageType = "SCRAPE_REQUEST"
	// TypeScrapedContent carries context and the user message (popup -> background).
	TypeScrapedContent MessageType = "SCRAPED_CONTENT"
)

// UnknownTypeError is the reply error for messages no handler claims.
const UnknownTypeError = "Unknown message type."

// Message is one request on the channel.
type Message struct {
	Type        MessageType `json:"type"`
	ID          string      `json:"id,omitempty"`
	Content     string      `json:"content,omitempty"`
	UserMessage string      `json:"userMessage,omitempty"`
}

// Reply answers a Message. SCRAPE_REQUEST fills URL/Title/Content,
// SCRAPED_CONTENT fills GPTResponse; failures set Error.
type Reply struct {
	ID          string `json:"id,omitempty"`
	Success     bool   `json:"success"`
	URL         string `json:"url,omitempty"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content,omitempty"`
	GPTResponse string `json:"gptResponse,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Failure builds an unsuccessful reply.
func Failure(msg string) Reply {
	return Reply{Success: false, Error: msg}
}

const messageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string", "minLength": 1},
    "id": {"type": "string"},
    "content": {"type": "string"},
    "userMessage": {"type": "string"}
  },
  "if": {"properties": {"type": {"const": "SCRAPED_CONTENT"}}},
  "then": {"required": ["content", "userMessage"]}
}`

var messageSchemaLoader = gojsonschema.NewStringLoader(messageSchema)

// ValidationError lists the schema violations of a decoded message.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %s", strings.Join(e.Errors, "; "))
}

// DecodeMessage validates raw JSON against the message schema and decodes it.
func DecodeMessage(data []byte) (Message, error) {
	result, err := gojsonschema.Validate(messageSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return Message{}, &ValidationError{Errors: errorMsgs}
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// NewRequestID generates an opaque request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Handler answers one message. Handlers never return Go errors: every
// failure is folded into an unsuccessful Reply.
type Handler interface {
	Handle(ctx context.Context, msg Message) Reply
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg Message) Reply

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) Reply { return f(ctx, msg) }

// Router dispatches messages to the handler registered for their type.
type Router struct {
	handlers map[MessageType]Handler
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[MessageType]Handler)}
}

// Register binds a handler to a message type.
func (r *Router) Register(t MessageType, h Handler) *Router {
	r.handlers[t] = h
	return r
}

// Handle implements Handler. The reply echoes the message ID.
func (r *Router) Handle(ctx context.Context, msg Message) Reply {
	h, ok := r.handlers[msg.Type]
	if !ok {
		reply := Failure(UnknownTypeError)
		reply.ID = msg.ID
		return reply
	}
	reply := h.Handle(ctx, msg)
	reply.ID = msg.ID
	return reply
}

// StatusEvent is written once by stream transports when they are ready.
type StatusEvent struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// NewStatusEvent constructs a status event.
func NewStatusEvent(status, detail string) StatusEvent {
	return StatusEvent{Type: "status", Status: status, Detail: detail}
}
