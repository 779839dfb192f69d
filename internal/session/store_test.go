package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/kv"
	"gopkg.in/yaml.v3"
)

var fixedNow = time.UnixMilli(1700000000000)

func newTestManager(store kv.Store) *Manager {
	return NewManager(store,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(log.New(io.Discard, "", 0)),
	)
}

func TestResumeCreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	m := newTestManager(store)

	st, err := m.Resume(ctx)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if st.ID != "session_1700000000000" {
		t.Errorf("unexpected session id %q", st.ID)
	}

	turns, err := m.Turns(ctx, st)
	if err != nil {
		t.Fatalf("Turns failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty log, got %d turns", len(turns))
	}

	again, err := m.Resume(ctx)
	if err != nil {
		t.Fatalf("second Resume failed: %v", err)
	}
	if again != st {
		t.Errorf("expected Resume to return stored session %q, got %q", st.ID, again.ID)
	}
}

func TestAppendAndHistory(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(kv.NewMemoryStore())
	st, _ := m.Create(ctx)

	if _, err := m.Append(ctx, st, engine.RoleUser, "hi"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := m.Append(ctx, st, engine.RoleAssistant, "hello"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := m.History(ctx, st, engine.ContextBudget)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if got != "user: hi\nassistant: hello" {
		t.Errorf("unexpected history %q", got)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(kv.NewMemoryStore())
	st, _ := m.Create(ctx)

	if _, err := m.Append(ctx, State{}, engine.RoleUser, "x"); err == nil {
		t.Error("expected error without a session")
	}
	if _, err := m.Append(ctx, st, engine.RoleSystem, "x"); err == nil {
		t.Error("expected error for system role")
	}
}

func TestHistoryTruncation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(kv.NewMemoryStore())
	st, _ := m.Create(ctx)

	for i := 0; i < 10; i++ {
		m.Append(ctx, st, engine.RoleUser, strings.Repeat("é", 600))
	}
	m.Append(ctx, st, engine.RoleAssistant, "the end")

	got, err := m.History(ctx, st, engine.ContextBudget)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != engine.ContextBudget {
		t.Errorf("expected %d characters, got %d", engine.ContextBudget, n)
	}
	if !strings.HasSuffix(got, "assistant: the end") {
		t.Error("expected newest turn to survive truncation")
	}
}

func TestResetDiscardsOldLog(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	m := newTestManager(store)

	old, _ := m.Create(ctx)
	m.Append(ctx, old, engine.RoleUser, "a")
	m.Append(ctx, old, engine.RoleAssistant, "b")

	// Same clock reading: the new ID must still differ.
	st, err := m.Reset(ctx, old)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if st.ID == old.ID {
		t.Fatalf("expected a new session id, got %q again", st.ID)
	}

	turns, _ := m.Turns(ctx, st)
	if len(turns) != 0 {
		t.Errorf("expected empty log after reset, got %d turns", len(turns))
	}

	values, _ := store.Get(ctx, old.ID)
	if _, ok := values[old.ID]; ok {
		t.Error("expected old log to be removed")
	}

	resumed, _ := m.Resume(ctx)
	if resumed != st {
		t.Errorf("expected active session %q, got %q", st.ID, resumed.ID)
	}
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(kv.NewMemoryStore())
	st, _ := m.Create(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Append(ctx, st, engine.RoleUser, fmt.Sprintf("msg %d", i)); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	turns, _ := m.Turns(ctx, st)
	if len(turns) != 50 {
		t.Errorf("expected 50 turns, got %d", len(turns))
	}
}

func TestTurnJSONShape(t *testing.T) {
	turn := Turn{Role: engine.RoleUser, Content: "hi", Timestamp: fixedNow.UTC()}
	data, err := json.Marshal(turn)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"role":"user","content":"hi","timestamp":"2023-11-14T22:13:20Z"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestCredentials(t *testing.T) {
	ctx := context.Background()
	c := NewCredentials(kv.NewMemoryStore())

	if c.Saved(ctx) {
		t.Error("expected no saved key initially")
	}
	if err := c.Set(ctx, "   "); err != ErrEmptyKey {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := c.Set(ctx, "  sk-abc \n"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	key, err := c.Get(ctx)
	if err != nil || key != "sk-abc" {
		t.Errorf("expected trimmed key, got %q (err %v)", key, err)
	}
	if !c.Saved(ctx) {
		t.Error("expected Saved after Set")
	}
}

func TestExporters(t *testing.T) {
	e := Export{
		SessionID: "session_1",
		Turns: []Turn{
			{Role: engine.RoleUser, Content: "what is **this**", Timestamp: fixedNow.UTC()},
			{Role: engine.RoleAssistant, Content: "a page", Timestamp: fixedNow.UTC()},
		},
	}

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"text", func(t *testing.T, out string) {
			if out != "user: what is **this**\nassistant: a page\n" {
				t.Errorf("unexpected text output %q", out)
			}
		}},
		{"json", func(t *testing.T, out string) {
			var got Export
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if got.SessionID != "session_1" || len(got.Turns) != 2 {
				t.Errorf("unexpected json export %+v", got)
			}
		}},
		{"yaml", func(t *testing.T, out string) {
			var got map[string]any
			if err := yaml.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid yaml: %v", err)
			}
			if got["session_id"] != "session_1" {
				t.Errorf("unexpected yaml export %v", got)
			}
		}},
		{"md", func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "# Session session_1") {
				t.Errorf("missing markdown header: %q", out)
			}
			if !strings.Contains(out, `what is \*\*this\*\*`) {
				t.Errorf("expected escaped emphasis: %q", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if err != nil {
				t.Fatalf("NewExporter failed: %v", err)
			}
			var buf bytes.Buffer
			if err := exp.Export(e, &buf); err != nil {
				t.Fatalf("Export failed: %v", err)
			}
			tt.check(t, buf.String())
		})
	}

	if _, err := NewExporter("xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
