package engine

import "context"

type Hooks []Hook

func (hs Hooks) OnBeforeDispatch(ctx context.Context, info DispatchInfo) {
	for _, h := range hs {
		h.OnBeforeDispatch(ctx, info)
	}
}
func (hs Hooks) OnAfterDispatch(ctx context.Context, info DispatchInfo, r LLMResponse, err error) {
	for _, h := range hs {
		h.OnAfterDispatch(ctx, info, r, err)
	}
}
func (hs Hooks) OnMissingCredential(ctx context.Context) {
	for _, h := range hs {
		h.OnMissingCredential(ctx)
	}
}
