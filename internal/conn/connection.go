package conn

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/resp"
)

// Connection is a TCP connection to a Redis server or gateway.
type Connection struct {
	Addr       string
	ServerInfo map[string]string

	mu     sync.Mutex // serializes request/reply pairs
	conn   net.Conn
	reader *bufio.Reader
	log    *zap.Logger
}

func newConnection(nc net.Conn, addr string, log *zap.Logger) *Connection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connection{
		Addr:   addr,
		conn:   nc,
		reader: bufio.NewReader(nc),
		log:    log.With(zap.String("addr", addr)),
	}
}

// Connect dials addr, authenticates when pass is set and loads INFO.
func Connect(ctx context.Context, addr, user, pass string, log *zap.Logger) (*Connection, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c := newConnection(nc, addr, log)
	c.log.Debug("connected")

	if pass != "" {
		if err := c.auth(user, pass); err != nil {
			c.Close()
			return nil, err
		}
	}

	// Restricted ACLs may block INFO; the connection is still usable.
	if err := c.getServerInfo(); err != nil {
		c.log.Warn("INFO unavailable", zap.Error(err))
		c.ServerInfo = map[string]string{"error": err.Error()}
	}
	return c, nil
}

func (c *Connection) auth(user, pass string) error {
	args := []string{"AUTH", pass}
	if user != "" {
		args = []string{"AUTH", user, pass}
	}
	response, err := c.DoArgs(5*time.Second, args...)
	if err != nil {
		return fmt.Errorf("AUTH failed: %w", err)
	}
	if errResp, ok := response.(resp.RedisError); ok {
		return fmt.Errorf("authentication failed: %s", errResp.Value)
	}
	if strResp, ok := response.(resp.RedisString); !ok || strResp.Value != "OK" {
		return fmt.Errorf("unexpected AUTH response: %v", response)
	}
	return nil
}

// Send writes an encoded request.
func (c *Connection) Send(frame []byte) error {
	c.log.Debug("send", zap.Int("bytes", len(frame)))
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("failed to write to %s: %w", c.Addr, err)
	}
	return nil
}

// Receive reads a single RESP value, optionally with a timeout.
func (c *Connection) Receive(timeout time.Duration) (resp.RedisValue, error) {
	if timeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}
	return resp.ParseValue(c.reader)
}

// RoundTrip sends frame and waits for its reply.
func (c *Connection) RoundTrip(frame []byte, timeout time.Duration) (resp.RedisValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.Send(frame); err != nil {
		return nil, err
	}
	return c.Receive(timeout)
}

// Do encodes template with command.Format and round trips it.
func (c *Connection) Do(timeout time.Duration, template string, args ...any) (resp.RedisValue, error) {
	frame, err := command.Format(template, args...)
	if err != nil {
		return nil, err
	}
	return c.RoundTrip(frame, timeout)
}

// DoArgs sends args as-is, each one a bulk string, and round trips them.
func (c *Connection) DoArgs(timeout time.Duration, args ...string) (resp.RedisValue, error) {
	return c.RoundTrip(command.FormatStrings(nil, args...), timeout)
}

// Close terminates the TCP connection.
func (c *Connection) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
