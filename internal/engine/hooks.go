// engine/hooks.go
package engine

import (
	"context"
	"time"
)

// DispatchInfo describes one outbound completion call.
type DispatchInfo struct {
	Model        string
	ContextChars int // characters submitted after truncation
	Truncated    bool
	Messages     []ChatMessage
	Started      time.Time
}

type Hook interface {
	OnBeforeDispatch(ctx context.Context, info DispatchInfo)
	OnAfterDispatch(ctx context.Context, info DispatchInfo, resp LLMResponse, err error)
	OnMissingCredential(ctx context.Context)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}

func (NopHook) OnBeforeDispatch(context.Context, DispatchInfo)                    {}
func (NopHook) OnAfterDispatch(context.Context, DispatchInfo, LLMResponse, error) {}
func (NopHook) OnMissingCredential(context.Context)                               {}
