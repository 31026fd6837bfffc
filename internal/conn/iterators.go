package conn

import (
	"fmt"
	"iter"
	"time"

	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/resp"
)

const (
	pageSize    = 100
	pageTimeout = 10 * time.Second
)

// page round trips one batch request. Errors are returned as a RedisError so
// iterators can yield them directly.
func (c *Connection) page(name string, template string, args ...any) (resp.RedisArray, *resp.RedisError) {
	frame, err := command.Format(template, args...)
	if err != nil {
		return resp.RedisArray{}, &resp.RedisError{Value: fmt.Sprintf("%s encode failed: %v", name, err)}
	}
	response, err := c.RoundTrip(frame, pageTimeout)
	if err != nil {
		return resp.RedisArray{}, &resp.RedisError{Value: fmt.Sprintf("%s failed: %v", name, err)}
	}
	switch v := response.(type) {
	case resp.RedisError:
		return resp.RedisArray{}, &v
	case resp.RedisArray:
		return v, nil
	}
	return resp.RedisArray{}, &resp.RedisError{Value: fmt.Sprintf("unexpected %s response %T", name, response)}
}

// scan drives a cursor-based SCAN family command until the cursor returns to
// "0". args builds the command arguments for a cursor; batch, when set,
// reshapes each returned batch before it is yielded.
func (c *Connection) scan(name, template string, args func(cursor string) []any, batch func([]resp.RedisValue) []resp.RedisValue) iter.Seq[resp.RedisValue] {
	return func(yield func(resp.RedisValue) bool) {
		cursor := "0"
		for {
			reply, errResp := c.page(name, template, args(cursor)...)
			if errResp != nil {
				yield(*errResp)
				return
			}
			if len(reply.Values) < 2 {
				yield(resp.RedisError{Value: fmt.Sprintf("unexpected %s response format", name)})
				return
			}
			cursor = reply.Values[0].StringValue()

			elems, ok := reply.Values[1].(resp.RedisArray)
			if !ok {
				yield(resp.RedisError{Value: fmt.Sprintf("unexpected %s batch format", name)})
				return
			}
			values := elems.Values
			if batch != nil {
				values = batch(values)
			}
			if !each(values, yield) || cursor == "0" {
				return
			}
		}
	}
}

func each(values []resp.RedisValue, yield func(resp.RedisValue) bool) bool {
	for _, v := range values {
		if !yield(v) {
			return false
		}
	}
	return true
}

// pairs groups a flat field/value reply into two-element arrays.
func pairs(values []resp.RedisValue) []resp.RedisValue {
	out := make([]resp.RedisValue, 0, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		out = append(out, resp.RedisArray{Values: []resp.RedisValue{values[i], values[i+1]}})
	}
	return out
}

// SafeKeys iterates over all keys matching pattern with SCAN.
func (c *Connection) SafeKeys(pattern string) iter.Seq[resp.RedisValue] {
	return c.scan("SCAN", "SCAN %s MATCH %b COUNT %d", func(cursor string) []any {
		return []any{cursor, pattern, pageSize}
	}, nil)
}

// SafeSets iterates over all members of a set with SSCAN.
func (c *Connection) SafeSets(key string) iter.Seq[resp.RedisValue] {
	return c.scan("SSCAN", "SSCAN %b %s COUNT %d", keyCursor(key), nil)
}

// SafeSortedSets iterates over members and scores of a sorted set with ZSCAN.
func (c *Connection) SafeSortedSets(key string) iter.Seq[resp.RedisValue] {
	return c.scan("ZSCAN", "ZSCAN %b %s COUNT %d", keyCursor(key), nil)
}

// SafeHash iterates over a hash with HSCAN, yielding [field value] pairs.
func (c *Connection) SafeHash(key string) iter.Seq[resp.RedisValue] {
	return c.scan("HSCAN", "HSCAN %b %s COUNT %d", keyCursor(key), pairs)
}

func keyCursor(key string) func(string) []any {
	return func(cursor string) []any {
		return []any{key, cursor, pageSize}
	}
}

// SafeList iterates over a list with LRANGE in pages of pageSize, stopping
// at the first empty page.
func (c *Connection) SafeList(key string) iter.Seq[resp.RedisValue] {
	return func(yield func(resp.RedisValue) bool) {
		for start := int64(0); ; start += pageSize {
			reply, errResp := c.page("LRANGE", "LRANGE %b %lld %lld", key, start, start+pageSize-1)
			if errResp != nil {
				yield(*errResp)
				return
			}
			if len(reply.Values) == 0 || !each(reply.Values, yield) {
				return
			}
		}
	}
}

// SafeStream iterates over a stream with XRANGE. Each next page starts after
// the last ID seen, using the exclusive "(" range prefix of Redis 6.2+.
func (c *Connection) SafeStream(key string) iter.Seq[resp.RedisValue] {
	return func(yield func(resp.RedisValue) bool) {
		cursor := "-"
		for {
			reply, errResp := c.page("XRANGE", "XRANGE %b %s + COUNT %d", key, cursor, pageSize)
			if errResp != nil {
				yield(*errResp)
				return
			}
			if len(reply.Values) == 0 || !each(reply.Values, yield) {
				return
			}

			last, ok := reply.Values[len(reply.Values)-1].(resp.RedisArray)
			if !ok || len(last.Values) == 0 {
				yield(resp.RedisError{Value: "unexpected XRANGE entry format"})
				return
			}
			cursor = "(" + last.Values[0].StringValue()
		}
	}
}
