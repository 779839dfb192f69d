package session

import (
	"time"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
)

// Storage keys shared with the credential store.
const (
	KeySessionID = "sessionId"
	KeyAPIKey    = "openaiApiKey"
)

// Turn is one immutable entry of a session's conversation log.
type Turn struct {
	Role      engine.MessageRole `json:"role" yaml:"role"`
	Content   string             `json:"content" yaml:"content"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
}

// State identifies the active session. It is returned by every Manager
// operation that may change it and passed back by the caller.
type State struct {
	ID string `json:"id" yaml:"id"`
}

// Valid reports whether the state names a session.
func (s State) Valid() bool { return s.ID != "" }
