package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/kv"
)

// Manager persists sessions and their turn logs in a kv.Store.
type Manager struct {
	store  kv.Store
	now    func() time.Time
	logger *log.Logger

	// mu serializes read-modify-write cycles on the log within this process.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for session IDs and turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager on top of store.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resume returns the stored session, creating one when none exists.
func (m *Manager) Resume(ctx context.Context) (State, error) {
	var id string
	ok, err := kv.GetJSON(ctx, m.store, KeySessionID, &id)
	if err != nil {
		return State{}, fmt.Errorf("failed to read session id: %w", err)
	}
	if ok && id != "" {
		return State{ID: id}, nil
	}
	return m.Create(ctx)
}

// Create starts a new, empty session and makes it the active one.
func (m *Manager) Create(ctx context.Context) (State, error) {
	var prev string
	if _, err := kv.GetJSON(ctx, m.store, KeySessionID, &prev); err != nil {
		return State{}, fmt.Errorf("failed to read session id: %w", err)
	}
	return m.create(ctx, prev)
}

func (m *Manager) create(ctx context.Context, prev string) (State, error) {
	millis := m.now().UnixMilli()
	id := newSessionID(millis)
	for id == prev {
		millis++
		id = newSessionID(millis)
	}

	err := kv.SetJSON(ctx, m.store, map[string]any{
		KeySessionID: id,
		id:           []Turn{},
	})
	if err != nil {
		return State{}, fmt.Errorf("failed to create session: %w", err)
	}
	m.logger.Printf("🆕 Session created: %s", id)
	return State{ID: id}, nil
}

func newSessionID(millis int64) string {
	return fmt.Sprintf("session_%d", millis)
}

// Reset discards the log of st and starts a new session.
func (m *Manager) Reset(ctx context.Context, st State) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st.Valid() {
		if err := m.store.Remove(ctx, st.ID); err != nil {
			return State{}, fmt.Errorf("failed to remove session %s: %w", st.ID, err)
		}
	}
	return m.create(ctx, st.ID)
}

// Append adds a turn to the end of the session's log.
func (m *Manager) Append(ctx context.Context, st State, role engine.MessageRole, content string) (Turn, error) {
	if !st.Valid() {
		return Turn{}, fmt.Errorf("append: no active session")
	}
	if role != engine.RoleUser && role != engine.RoleAssistant {
		return Turn{}, fmt.Errorf("append: invalid role %q", role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	turns, err := m.turns(ctx, st)
	if err != nil {
		return Turn{}, err
	}

	turn := Turn{Role: role, Content: content, Timestamp: m.now().UTC()}
	turns = append(turns, turn)
	if err := kv.SetJSON(ctx, m.store, map[string]any{st.ID: turns}); err != nil {
		return Turn{}, fmt.Errorf("failed to save turn: %w", err)
	}
	return turn, nil
}

// Turns returns the session's log in append order. A missing log is empty.
func (m *Manager) Turns(ctx context.Context, st State) ([]Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns(ctx, st)
}

func (m *Manager) turns(ctx context.Context, st State) ([]Turn, error) {
	var turns []Turn
	if _, err := kv.GetJSON(ctx, m.store, st.ID, &turns); err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", st.ID, err)
	}
	return turns, nil
}

// History renders the log as "role: content" lines and keeps the trailing
// budget characters.
func (m *Manager) History(ctx context.Context, st State, budget int) (string, error) {
	turns, err := m.Turns(ctx, st)
	if err != nil {
		return "", err
	}
	return engine.TruncateContext(RenderHistory(turns), budget), nil
}

// RenderHistory serializes turns one per line.
func RenderHistory(turns []Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = string(t.Role) + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}
