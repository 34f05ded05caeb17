package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Handler consumes one update at a time.
type Handler interface {
	HandleUpdate(ctx context.Context, upd Update)
}

// Poller runs the getUpdates long-poll loop and feeds a Handler
// sequentially, which preserves per-chat ordering of actions.
type Poller struct {
	client  *Client
	handler Handler
	timeout time.Duration
	log     zerolog.Logger
}

// NewPoller creates a poller with the given long-poll timeout.
func NewPoller(client *Client, handler Handler, timeout time.Duration, log zerolog.Logger) *Poller {
	return &Poller{client: client, handler: handler, timeout: timeout, log: log}
}

// Run polls until the context is cancelled. Transient getUpdates
// failures back off briefly and continue.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Error().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.handler.HandleUpdate(ctx, upd)
		}
	}
}
