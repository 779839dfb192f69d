package engine

import (
	"context"

	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
)

// Handler answers SCRAPED_CONTENT messages with a dispatched completion.
// It is the background side of the messaging channel.
func (d *Dispatcher) Handler() protocol.Handler {
	return protocol.HandlerFunc(func(ctx context.Context, msg protocol.Message) protocol.Reply {
		reply, err := d.Dispatch(ctx, Request{
			Context:     msg.Content,
			UserMessage: msg.UserMessage,
		})
		if err != nil {
			return protocol.Failure(Message(err))
		}
		return protocol.Reply{Success: true, GPTResponse: reply}
	})
}
