// engine/hook_logger.go
package engine

import (
	"context"
	"log"
	"time"
)

type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnBeforeDispatch(_ context.Context, info DispatchInfo) {
	// Token count is an estimate; the budget itself is enforced in characters.
	tokens := 0
	for _, m := range info.Messages {
		tokens += EstimateTokens(m.Content)
	}
	if info.Truncated {
		h.L.Printf("📤 model=%s context=%d chars (truncated) | 💰 ~%d tokens", info.Model, info.ContextChars, tokens)
	} else {
		h.L.Printf("📤 model=%s context=%d chars | 💰 ~%d tokens", info.Model, info.ContextChars, tokens)
	}
}
func (h LoggerHook) OnAfterDispatch(_ context.Context, info DispatchInfo, r LLMResponse, err error) {
	elapsed := time.Since(info.Started).Round(time.Millisecond)
	if err != nil {
		h.L.Printf("dispatch failed after %v: %v", elapsed, err)
		return
	}
	if !r.HasChoice {
		h.L.Printf("⚠️  dispatch returned no choice after %v", elapsed)
		return
	}
	h.L.Printf("finish=%s reply=%d chars tokens: prompt=%d completion=%d total=%d (%v)",
		r.FinishReason, len(r.Content), r.Usage.Prompt, r.Usage.Completion, r.Usage.Total, elapsed)
}
func (h LoggerHook) OnMissingCredential(context.Context) {
	h.L.Printf("API key is missing; dispatch skipped")
}
