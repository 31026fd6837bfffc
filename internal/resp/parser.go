package resp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotMultiBulk is returned by ReadCommand when the frame does not start
// with '*'.
var ErrNotMultiBulk = errors.New("resp: request is not a multi-bulk array")

// ParseValue reads a single RESP reply from r.
func ParseValue(r *bufio.Reader) (RedisValue, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch b {
	case '+':
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		return RedisString{Value: line}, nil
	case '-':
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		return RedisError{Value: line}, nil
	case ':':
		return parseInteger(r)
	case '$':
		return parseBulkString(r)
	case '*':
		return parseArray(r)
	default:
		return nil, fmt.Errorf("unknown RESP type byte: %q", b)
	}
}

// ReadCommand reads one multi-bulk request, the shape produced by Encode, and
// returns its arguments. It is the inverse of Encode.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b != '*' {
		return nil, fmt.Errorf("%w: got %q", ErrNotMultiBulk, b)
	}

	argc, err := readLength(r)
	if err != nil {
		return nil, fmt.Errorf("invalid argument count: %w", err)
	}
	if argc < 0 {
		return nil, fmt.Errorf("invalid argument count: %d", argc)
	}

	args := make([][]byte, argc)
	for i := range args {
		if b, err = r.ReadByte(); err != nil {
			return nil, err
		}
		if b != '$' {
			return nil, fmt.Errorf("argument %d: expected '$', got %q", i, b)
		}
		n, err := readLength(r)
		if err != nil {
			return nil, fmt.Errorf("argument %d: invalid bulk length: %w", i, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("argument %d: invalid bulk length %d", i, n)
		}
		if args[i], err = readPayload(r, n); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return args, nil
}

// readLine reads until \n and strips the trailing \r\n.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

func readLength(r *bufio.Reader) (int, error) {
	line, err := readLine(r)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(line)
}

// readPayload reads exactly n bytes followed by CRLF.
func readPayload(r *bufio.Reader, n int) ([]byte, error) {
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read bulk payload: %w", err)
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("expected CRLF after bulk payload, got %q", buf[n:])
	}
	return buf[:n:n], nil
}

func parseInteger(r *bufio.Reader) (RedisValue, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	val, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer format: %w", err)
	}
	return RedisInteger{IntValue: val}, nil
}

func parseBulkString(r *bufio.Reader) (RedisValue, error) {
	length, err := readLength(r)
	if err != nil {
		return nil, fmt.Errorf("invalid bulk string length: %w", err)
	}

	switch {
	case length == -1:
		return RedisNull{}, nil
	case length < -1:
		return nil, fmt.Errorf("invalid bulk string length: %d", length)
	}

	payload, err := readPayload(r, length)
	if err != nil {
		return nil, err
	}
	return RedisBulkString{Value: string(payload), Length: length}, nil
}

func parseArray(r *bufio.Reader) (RedisValue, error) {
	count, err := readLength(r)
	if err != nil {
		return nil, fmt.Errorf("invalid array count: %w", err)
	}

	switch {
	case count == -1:
		return RedisNull{}, nil
	case count < -1:
		return nil, fmt.Errorf("invalid array count: %d", count)
	}

	values := make([]RedisValue, count)
	for i := range values {
		val, err := ParseValue(r)
		if err != nil {
			return nil, fmt.Errorf("failed to parse array element %d: %w", i, err)
		}
		values[i] = val
	}
	return RedisArray{Values: values}, nil
}
