package conn

import (
	"context"
	"errors"
	"iter"
	"net"
	"time"

	"github.com/cosmez/respfmt/internal/resp"
)

// Subscribe yields pushed messages after a SUBSCRIBE until ctx is cancelled.
// Reads use a short deadline so cancellation is noticed between messages.
func (c *Connection) Subscribe(ctx context.Context) iter.Seq[resp.RedisValue] {
	return func(yield func(resp.RedisValue) bool) {
		for ctx.Err() == nil {
			response, err := c.Receive(200 * time.Millisecond)
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				yield(resp.RedisError{Value: err.Error()})
				return
			}
			if !yield(response) {
				return
			}
		}
	}
}
