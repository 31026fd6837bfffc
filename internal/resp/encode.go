package resp

import (
	"errors"
	"strconv"
)

// ErrLengthMismatch is the panic value raised when the bytes written by Encode
// differ from the size computed before allocation. It signals a bug in this
// package, never bad input.
var ErrLengthMismatch = errors.New("resp: encoded length does not match precomputed length")

// ArgObserver is notified once per argument while a command is being encoded.
//
// index is the argument position, offset is the position of the first payload
// byte in the output buffer (not the "$len\r\n" prefix) and arg is a borrowed,
// read-only view of the argument. Implementations must not modify arg, must not
// keep it after returning and must not call back into the encoder.
type ArgObserver interface {
	ObserveArg(index, offset int, arg []byte)
}

// ArgObserverFunc adapts a plain function to ArgObserver.
type ArgObserverFunc func(index, offset int, arg []byte)

func (f ArgObserverFunc) ObserveArg(index, offset int, arg []byte) { f(index, offset, arg) }

// IntLen returns the number of bytes needed to print i in decimal,
// including the sign for negative values.
func IntLen(i int) int {
	n := 0
	u := uint64(i)
	if i < 0 {
		n++
		u = uint64(-int64(i))
	}
	for {
		n++
		u /= 10
		if u == 0 {
			return n
		}
	}
}

// BulkLen returns the encoded size of a bulk string with an n byte payload:
// "$" + digits + "\r\n" + payload + "\r\n".
func BulkLen(n int) int {
	return 1 + IntLen(n) + 2 + n + 2
}

// HeaderLen returns the size of the "*<argc>\r\n" multi-bulk header.
func HeaderLen(argc int) int {
	return 1 + IntLen(argc) + 2
}

// EncodedLen returns the exact size of the multi-bulk request for args.
func EncodedLen(args [][]byte) int {
	total := HeaderLen(len(args))
	for _, arg := range args {
		total += BulkLen(len(arg))
	}
	return total
}

// Encode serializes args as a RESP multi-bulk request. The buffer is allocated
// once; obs, when non-nil, sees every argument right before its payload is
// copied.
func Encode(args [][]byte, obs ArgObserver) []byte {
	total := HeaderLen(len(args))
	for _, arg := range args {
		total += BulkLen(len(arg))
	}
	return encode(args, total, obs)
}

// EncodeWithLen is Encode for callers that already track the summed BulkLen of
// args. bulkTotal must not include the header.
func EncodeWithLen(args [][]byte, bulkTotal int, obs ArgObserver) []byte {
	return encode(args, HeaderLen(len(args))+bulkTotal, obs)
}

func encode(args [][]byte, total int, obs ArgObserver) []byte {
	// One spare byte holds a zero terminator outside the returned length.
	buf := make([]byte, 0, total+1)

	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(len(args)), 10)
	buf = append(buf, '\r', '\n')

	for i, arg := range args {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, '\r', '\n')
		if obs != nil {
			obs.ObserveArg(i, len(buf), arg)
		}
		buf = append(buf, arg...)
		buf = append(buf, '\r', '\n')
	}

	if len(buf) != total || cap(buf) != total+1 {
		panic(ErrLengthMismatch)
	}
	buf = append(buf, 0)
	return buf[:total]
}
