package conn

import (
	"fmt"
	"strings"
	"time"

	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/resp"
)

// FetchServerCommands reads the server's COMMAND table for registry merging.
// It returns nil, nil when the server refuses COMMAND.
func (c *Connection) FetchServerCommands() ([]command.ServerCommand, error) {
	response, err := c.DoArgs(10*time.Second, "COMMAND")
	if err != nil {
		return nil, fmt.Errorf("COMMAND failed: %w", err)
	}

	// Old servers and restricted ACLs reply with an error.
	if _, ok := response.(resp.RedisError); ok {
		return nil, nil
	}

	array, ok := response.(resp.RedisArray)
	if !ok {
		return nil, fmt.Errorf("expected array for COMMAND, got %T", response)
	}

	var cmds []command.ServerCommand
	for _, entry := range array.Values {
		sc, err := parseCommandEntry(entry)
		if err != nil {
			continue
		}
		cmds = append(cmds, sc)
	}
	return cmds, nil
}

// parseCommandEntry converts one COMMAND reply entry. Servers before 7.0
// send six fields, later ones up to ten.
//
//	[0] name  [1] arity  [2] flags  [3] first key  [4] last key  [5] step
//	[6] ACL categories  [7] tips  [8] key specs  [9] subcommands
func parseCommandEntry(v resp.RedisValue) (command.ServerCommand, error) {
	arr, ok := v.(resp.RedisArray)
	if !ok || len(arr.Values) < 2 {
		return command.ServerCommand{}, fmt.Errorf("expected array with >= 2 elements")
	}

	sc := command.ServerCommand{
		// Subcommands are reported as "config|set".
		Name:  strings.ToUpper(strings.ReplaceAll(arr.Values[0].StringValue(), "|", " ")),
		Arity: integerAt(arr.Values, 1),
	}
	sc.FirstKey = int(integerAt(arr.Values, 3))
	sc.LastKey = int(integerAt(arr.Values, 4))
	sc.Step = int(integerAt(arr.Values, 5))

	if len(arr.Values) > 6 {
		sc.ACLCats = extractStringArray(arr.Values[6])
	}
	if len(arr.Values) > 9 {
		if subArr, ok := arr.Values[9].(resp.RedisArray); ok {
			for _, subEntry := range subArr.Values {
				if sub, err := parseCommandEntry(subEntry); err == nil {
					sc.Subcommands = append(sc.Subcommands, sub)
				}
			}
		}
	}
	return sc, nil
}

func integerAt(values []resp.RedisValue, i int) int64 {
	if i < len(values) {
		if n, ok := values[i].(resp.RedisInteger); ok {
			return n.IntValue
		}
	}
	return 0
}

func extractStringArray(v resp.RedisValue) []string {
	arr, ok := v.(resp.RedisArray)
	if !ok {
		return nil
	}
	strs := make([]string, 0, len(arr.Values))
	for _, elem := range arr.Values {
		strs = append(strs, elem.StringValue())
	}
	return strs
}

// getServerInfo loads INFO into ServerInfo as key/value pairs.
func (c *Connection) getServerInfo() error {
	response, err := c.DoArgs(5*time.Second, "INFO")
	if err != nil {
		return fmt.Errorf("INFO failed: %w", err)
	}

	bulkStr, ok := response.(resp.RedisBulkString)
	if !ok {
		return fmt.Errorf("expected bulk string for INFO, got %T", response)
	}

	c.ServerInfo = make(map[string]string)
	for _, line := range strings.Split(bulkStr.Value, "\r\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			c.ServerInfo[k] = v
		}
	}
	return nil
}
