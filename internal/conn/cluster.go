package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/resp"
)

// Route tells where a command goes. Keyed is false for commands without a
// key, which go to the default gateway.
type Route struct {
	Addr   string
	Keyed  bool
	Key    []byte
	Slot   int
	Offset int // byte offset of the key payload in the frame
}

// Cluster sends each command to the gateway owning its key's slot. Gateway
// connections are dialed on first use.
type Cluster struct {
	User, Pass string

	part     cluster.Partitioner
	router   *cluster.Router
	reg      *command.Registry
	keyIndex int
	log      *zap.Logger

	mu    sync.Mutex
	conns map[string]*Connection
	dial  func(ctx context.Context, addr string) (*Connection, error)
}

// NewCluster spreads the partitioner's slots over gateways. Key positions come
// from reg unless keyIndex is positive.
func NewCluster(p cluster.Partitioner, gateways []string, reg *command.Registry, keyIndex int, log *zap.Logger) (*Cluster, error) {
	router, err := cluster.NewRouter(p, gateways)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cluster{
		part:     p,
		router:   router,
		reg:      reg,
		keyIndex: keyIndex,
		log:      log,
		conns:    make(map[string]*Connection),
	}
	c.dial = func(ctx context.Context, addr string) (*Connection, error) {
		return Connect(ctx, addr, c.User, c.Pass, c.log)
	}
	return c, nil
}

// Router exposes the slot table, e.g. for affinity overrides.
func (c *Cluster) Router() *cluster.Router { return c.router }

func (c *Cluster) observer() *cluster.KeyObserver {
	obs := cluster.NewKeyObserver(c.part, c.keyIndex)
	if c.keyIndex == 0 && c.reg != nil {
		obs.KeyIndexOf = func(name []byte) int { return c.reg.KeyIndex(string(name)) }
	}
	return obs
}

func (c *Cluster) route(obs *cluster.KeyObserver) (Route, error) {
	if !obs.Found {
		return Route{Addr: c.router.Gateways()[0]}, nil
	}
	addr, err := c.router.Pick(obs.Slot)
	if err != nil {
		return Route{}, err
	}
	return Route{Addr: addr, Keyed: true, Key: obs.Key, Slot: obs.Slot, Offset: obs.Offset}, nil
}

// Locate encodes args and reports where they would be sent, without any
// network traffic.
func (c *Cluster) Locate(args ...string) ([]byte, Route, error) {
	obs := c.observer()
	frame := command.FormatStrings(obs, args...)
	r, err := c.route(obs)
	return frame, r, err
}

// Do encodes template with command.Format and sends it to the owning gateway.
func (c *Cluster) Do(ctx context.Context, timeout time.Duration, template string, args ...any) (resp.RedisValue, Route, error) {
	obs := c.observer()
	frame, err := command.FormatObserved(obs, template, args...)
	if err != nil {
		return nil, Route{}, err
	}
	return c.send(ctx, timeout, frame, obs)
}

// DoArgs sends args as bulk strings to the owning gateway.
func (c *Cluster) DoArgs(ctx context.Context, timeout time.Duration, args ...string) (resp.RedisValue, Route, error) {
	obs := c.observer()
	frame := command.FormatStrings(obs, args...)
	return c.send(ctx, timeout, frame, obs)
}

func (c *Cluster) send(ctx context.Context, timeout time.Duration, frame []byte, obs *cluster.KeyObserver) (resp.RedisValue, Route, error) {
	r, err := c.route(obs)
	if err != nil {
		return nil, r, err
	}
	cn, err := c.conn(ctx, r.Addr)
	if err != nil {
		return nil, r, err
	}
	c.log.Debug("routed",
		zap.String("gateway", r.Addr),
		zap.Bool("keyed", r.Keyed),
		zap.Int("slot", r.Slot),
	)
	reply, err := cn.RoundTrip(frame, timeout)
	if err != nil {
		c.drop(r.Addr, cn)
		return nil, r, fmt.Errorf("gateway %s: %w", r.Addr, err)
	}
	return reply, r, nil
}

// conn returns the gateway's connection, dialing it without holding the lock
// so a slow gateway does not stall routing to the others.
func (c *Cluster) conn(ctx context.Context, addr string) (*Connection, error) {
	c.mu.Lock()
	cn, ok := c.conns[addr]
	c.mu.Unlock()
	if ok {
		return cn, nil
	}

	cn, err := c.dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.conns[addr]; ok {
		// Lost a dial race.
		cn.Close()
		return existing, nil
	}
	c.conns[addr] = cn
	return cn, nil
}

// drop forgets a broken connection so the next command redials.
func (c *Cluster) drop(addr string, cn *Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conns[addr] == cn {
		delete(c.conns, addr)
		cn.Close()
	}
}

// Close closes every gateway connection.
func (c *Cluster) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for addr, cn := range c.conns {
		if err := cn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, addr)
	}
	return firstErr
}
