package conn

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/cosmez/respfmt/internal/resp"
)

var ErrNoSuchKey = errors.New("key does not exist")

// GetKeyValue looks up the type of key and returns either its single value or
// an iterator over its collection.
func (c *Connection) GetKeyValue(key string) (typeName string, single resp.RedisValue, collection iter.Seq[resp.RedisValue], err error) {
	response, err := c.DoArgs(5*time.Second, "TYPE", key)
	if err != nil {
		return "", nil, nil, fmt.Errorf("TYPE failed: %w", err)
	}
	if errResp, ok := response.(resp.RedisError); ok {
		return "", nil, nil, fmt.Errorf("TYPE command failed: %s", errResp.Value)
	}
	strResp, ok := response.(resp.RedisString)
	if !ok {
		return "", nil, nil, fmt.Errorf("expected simple string for TYPE, got %T", response)
	}

	typeName = strResp.Value
	switch typeName {
	case "string":
		single, err = c.DoArgs(5*time.Second, "GET", key)
		if err != nil {
			return typeName, nil, nil, fmt.Errorf("GET failed: %w", err)
		}
		return typeName, single, nil, nil
	case "list":
		return typeName, nil, c.SafeList(key), nil
	case "set":
		return typeName, nil, c.SafeSets(key), nil
	case "zset":
		return typeName, nil, c.SafeSortedSets(key), nil
	case "hash":
		return typeName, nil, c.SafeHash(key), nil
	case "stream":
		return typeName, nil, c.SafeStream(key), nil
	case "none":
		return typeName, nil, nil, ErrNoSuchKey
	default:
		return typeName, nil, nil, fmt.Errorf("unsupported key type: %s", typeName)
	}
}
