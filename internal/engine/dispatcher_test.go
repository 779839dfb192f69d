package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
)

type staticCreds string

func (s staticCreds) Get(context.Context) (string, error) { return string(s), nil }

type fakeLLM struct {
	calls    int
	apiKey   string
	model    string
	messages []ChatMessage
	opts     ChatOptions
	resp     LLMResponse
	err      error
}

func (f *fakeLLM) Chat(_ context.Context, model string, messages []ChatMessage, opts ChatOptions) (LLMResponse, error) {
	f.calls++
	f.model = model
	f.messages = messages
	f.opts = opts
	return f.resp, f.err
}

func (f *fakeLLM) factory() ClientFactory {
	return func(apiKey string) (LLMClient, error) {
		f.apiKey = apiKey
		return f, nil
	}
}

func TestDispatchMissingCredential(t *testing.T) {
	llm := &fakeLLM{}
	d := NewDispatcher(staticCreds(""), llm.factory(), DispatchConfig{}, nil)

	_, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"})
	if !IsKind(err, KindMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("expected no network call, got %d", llm.calls)
	}
}

func TestDispatchSuccess(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Content: "Hello", HasChoice: true, FinishReason: "stop"}}
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil)

	got, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got != "Hello" {
		t.Errorf("expected Hello, got %q", got)
	}
	if llm.calls != 1 {
		t.Errorf("expected exactly one call, got %d", llm.calls)
	}
	if llm.apiKey != "sk-test" {
		t.Errorf("expected client built with stored key, got %q", llm.apiKey)
	}
	if llm.model != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, llm.model)
	}
	if llm.opts.MaxOutputTokens != DefaultMaxTokens {
		t.Errorf("expected %d max tokens, got %d", DefaultMaxTokens, llm.opts.MaxOutputTokens)
	}
	if llm.opts.Temperature == nil || *llm.opts.Temperature != DefaultTemperature {
		t.Errorf("expected temperature %v, got %v", DefaultTemperature, llm.opts.Temperature)
	}
}

func TestDispatchZeroTemperature(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Content: "ok", HasChoice: true}}
	zero := float32(0)
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{Temperature: &zero}, nil)

	if _, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if llm.opts.Temperature == nil || *llm.opts.Temperature != 0 {
		t.Errorf("expected temperature 0 to be kept, got %v", llm.opts.Temperature)
	}
}

func TestDispatchNoChoiceReturnsSentinel(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{}}
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil)

	got, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"})
	if err != nil {
		t.Fatalf("expected sentinel, got error %v", err)
	}
	if got != NoResponseSentinel {
		t.Errorf("expected %q, got %q", NoResponseSentinel, got)
	}
}

func TestDispatchEndpointFailure(t *testing.T) {
	llm := &fakeLLM{err: EndpointError("rate limited", 429, nil)}
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil)

	_, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"})
	if !IsKind(err, KindEndpoint) {
		t.Fatalf("expected endpoint failure, got %v", err)
	}
	if err.Error() != "rate limited" {
		t.Errorf("expected message %q, got %q", "rate limited", err.Error())
	}
}

func TestDispatchTransportFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("dial tcp: connection refused")}
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil)

	_, err := d.Dispatch(context.Background(), Request{Context: "page", UserMessage: "hi"})
	if !IsKind(err, KindEndpoint) {
		t.Fatalf("expected endpoint failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected transport text in message, got %q", err.Error())
	}
}

func TestDispatchTruncatesContext(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Content: "ok", HasChoice: true}}
	d := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil)

	history := strings.Repeat("h", 3000)
	content := strings.Repeat("c", 3000)
	combined := CombineContext(history, content)
	if _, err := d.Dispatch(context.Background(), Request{Context: combined, UserMessage: "hi"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	system := strings.TrimPrefix(llm.messages[0].Content, systemPreamble)
	if n := utf8.RuneCountInString(system); n != ContextBudget {
		t.Errorf("expected %d context chars, got %d", ContextBudget, n)
	}
	if !strings.HasSuffix(combined, system) {
		t.Error("submitted context is not a suffix of the combined text")
	}
	if llm.messages[1].Content != "hi" {
		t.Errorf("user message should be sent raw, got %q", llm.messages[1].Content)
	}
}

func TestDispatcherHandler(t *testing.T) {
	llm := &fakeLLM{resp: LLMResponse{Content: "answer", HasChoice: true}}
	h := NewDispatcher(staticCreds("sk-test"), llm.factory(), DispatchConfig{}, nil).Handler()

	reply := h.Handle(context.Background(), protocol.Message{Type: protocol.TypeScrapedContent, Content: "page", UserMessage: "q"})
	if !reply.Success || reply.GPTResponse != "answer" {
		t.Errorf("unexpected reply: %+v", reply)
	}

	missing := NewDispatcher(staticCreds(""), llm.factory(), DispatchConfig{}, nil).Handler()
	reply = missing.Handle(context.Background(), protocol.Message{Type: protocol.TypeScrapedContent, Content: "page", UserMessage: "q"})
	if reply.Success || reply.Error != MsgMissingCredential {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestSetConfigAppliesDefaults(t *testing.T) {
	d := NewDispatcher(staticCreds("k"), (&fakeLLM{}).factory(), DispatchConfig{}, nil)
	d.SetConfig(DispatchConfig{Model: "gpt-4o-mini"})

	cfg := d.Config()
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.Model)
	}
	if cfg.MaxTokens != DefaultMaxTokens || cfg.ContextBudget != ContextBudget {
		t.Errorf("expected defaults to fill the rest, got %+v", cfg)
	}
}

type countingHook struct {
	NopHook
	before, after, missing int
}

func (h *countingHook) OnBeforeDispatch(context.Context, DispatchInfo) { h.before++ }
func (h *countingHook) OnAfterDispatch(context.Context, DispatchInfo, LLMResponse, error) {
	h.after++
}
func (h *countingHook) OnMissingCredential(context.Context) { h.missing++ }

func TestHooksFanOut(t *testing.T) {
	a, b := &countingHook{}, &countingHook{}
	llm := &fakeLLM{resp: LLMResponse{Content: "ok", HasChoice: true}}

	d := NewDispatcher(staticCreds("sk"), llm.factory(), DispatchConfig{}, Hooks{a, b})
	if _, err := d.Dispatch(context.Background(), Request{Context: "c", UserMessage: "hi"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	for _, h := range []*countingHook{a, b} {
		if h.before != 1 || h.after != 1 || h.missing != 0 {
			t.Errorf("unexpected hook counts %+v", *h)
		}
	}

	d = NewDispatcher(staticCreds(""), llm.factory(), DispatchConfig{}, Hooks{a, b})
	d.Dispatch(context.Background(), Request{Context: "c", UserMessage: "hi"})
	if a.missing != 1 || b.missing != 1 {
		t.Errorf("expected missing credential to reach every hook")
	}
}
