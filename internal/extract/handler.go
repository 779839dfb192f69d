package extract

import (
	"context"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
)

// Handler answers SCRAPE_REQUEST messages. It is the page side of the channel.
func Handler(x Extractor) protocol.Handler {
	return protocol.HandlerFunc(func(ctx context.Context, msg protocol.Message) protocol.Reply {
		snap, err := x.Extract(ctx)
		if err != nil {
			return protocol.Failure(engine.Message(err))
		}
		return protocol.Reply{
			Success: true,
			URL:     snap.URL,
			Title:   snap.Title,
			Content: snap.Content,
		}
	})
}
