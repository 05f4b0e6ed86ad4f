package client

import (
	"context"
	"log/slog"
	"time"

	"bantayani/internal/event"

	"github.com/gorilla/websocket"
)

// Subscribe dials the realtime endpoint and streams change events until ctx
// ends or the connection drops. The channel is closed on exit.
func (c *Client) Subscribe(ctx context.Context) (<-chan event.ChangeEvent, error) {
	wsURL, err := c.RealtimeURL()
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan event.ChangeEvent, 16)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var ev event.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					slog.Warn("realtime feed closed", "error", err)
				}
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
