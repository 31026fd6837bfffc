package resp

import (
	"bufio"
	"bytes"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntLen(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{7, 1},
		{10, 2},
		{99, 2},
		{100, 3},
		{-1, 2},
		{-10, 3},
		{math.MaxInt64, 19},
		{math.MinInt64, 20},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, IntLen(tt.in))
			assert.Equal(t, len(strconv.Itoa(tt.in)), IntLen(tt.in))
		})
	}
}

func TestBulkLen(t *testing.T) {
	assert.Equal(t, 6, BulkLen(0))   // $0\r\n\r\n
	assert.Equal(t, 9, BulkLen(3))   // $3\r\nSET\r\n
	assert.Equal(t, 17, BulkLen(10)) // $10\r\n0123456789\r\n
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		args     [][]byte
		expected string
	}{
		{
			name:     "No Arguments",
			args:     nil,
			expected: "*0\r\n",
		},
		{
			name:     "Single",
			args:     [][]byte{[]byte("PING")},
			expected: "*1\r\n$4\r\nPING\r\n",
		},
		{
			name:     "Empty Argument",
			args:     [][]byte{[]byte("SET"), []byte("k"), {}},
			expected: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
		},
		{
			name:     "Binary Payload",
			args:     [][]byte{[]byte("SET"), []byte("key"), []byte("va\x00lue")},
			expected: "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$6\r\nva\x00lue\r\n",
		},
		{
			name:     "CRLF Inside Payload",
			args:     [][]byte{[]byte("ECHO"), []byte("a\r\nb")},
			expected: "*2\r\n$4\r\nECHO\r\n$4\r\na\r\nb\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.args, nil)
			assert.Equal(t, tt.expected, string(got))
			assert.Equal(t, EncodedLen(tt.args), len(got))
			// Terminator sits right past the frame.
			require.Equal(t, len(got)+1, cap(got))
			assert.Equal(t, byte(0), got[:cap(got)][len(got)])
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	args := [][]byte{
		[]byte("HSET"),
		[]byte("user:1000"),
		[]byte("name"),
		bytes.Repeat([]byte{0x00, 0xff, '\r', '\n'}, 40),
		{},
	}

	frame := Encode(args, nil)
	val, err := ParseValue(bufio.NewReader(bytes.NewReader(frame)))
	require.NoError(t, err)

	array, ok := val.(RedisArray)
	require.True(t, ok, "expected array, got %T", val)
	require.Len(t, array.Values, len(args))
	for i, v := range array.Values {
		bulk, ok := v.(RedisBulkString)
		require.True(t, ok)
		assert.Equal(t, string(args[i]), bulk.Value)
		assert.Equal(t, len(args[i]), bulk.Length)
	}
}

func TestEncodeObserverOffsets(t *testing.T) {
	args := [][]byte{[]byte("SET"), []byte("mykey"), []byte("0123456789")}

	type seen struct {
		index, offset int
		arg           string
	}
	var calls []seen
	frame := Encode(args, ArgObserverFunc(func(index, offset int, arg []byte) {
		calls = append(calls, seen{index, offset, string(arg)})
	}))

	require.Len(t, calls, len(args))
	for i, c := range calls {
		assert.Equal(t, i, c.index)
		assert.Equal(t, string(args[i]), c.arg)
		assert.Equal(t, string(args[i]), string(frame[c.offset:c.offset+len(args[i])]))
	}
	// "*3\r\n$3\r\n" is 8 bytes.
	assert.Equal(t, 8, calls[0].offset)
}

func TestEncodeWithLen(t *testing.T) {
	args := [][]byte{[]byte("GET"), []byte("foo")}
	bulk := BulkLen(3) + BulkLen(3)
	assert.Equal(t, "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n", string(EncodeWithLen(args, bulk, nil)))
}

func TestEncodeWithLenMismatchPanics(t *testing.T) {
	args := [][]byte{[]byte("GET"), []byte("foo")}

	assert.PanicsWithValue(t, ErrLengthMismatch, func() {
		EncodeWithLen(args, BulkLen(3), nil)
	})
	assert.PanicsWithValue(t, ErrLengthMismatch, func() {
		EncodeWithLen(args, 100, nil)
	})
}

func TestEncodeIdempotent(t *testing.T) {
	args := [][]byte{[]byte("LPUSH"), []byte("list"), []byte("a b c")}
	assert.Equal(t, Encode(args, nil), Encode(args, nil))
}
