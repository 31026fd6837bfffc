package command

import (
	"bytes"
	"fmt"

	"github.com/cosmez/respfmt/internal/resp"
)

// FormatArgv encodes argv as one request without any parsing. argv is only
// read.
func FormatArgv(obs resp.ArgObserver, argv [][]byte) []byte {
	return resp.Encode(argv, obs)
}

// FormatArgvLen encodes argv using explicit lengths. With a nil argvlen each
// argument ends at its first zero byte, or at the end of the slice when it has
// none. Otherwise argv[j][:argvlen[j]] is used.
func FormatArgvLen(obs resp.ArgObserver, argv [][]byte, argvlen []int) ([]byte, error) {
	if argvlen != nil && len(argvlen) != len(argv) {
		return nil, fmt.Errorf("%w: %d lengths for %d arguments", ErrInvalidArgv, len(argvlen), len(argv))
	}

	args := make([][]byte, len(argv))
	for j, arg := range argv {
		if argvlen == nil {
			if n := bytes.IndexByte(arg, 0); n >= 0 {
				arg = arg[:n]
			}
			args[j] = arg
			continue
		}
		n := argvlen[j]
		if n < 0 || n > len(arg) {
			return nil, fmt.Errorf("%w: length %d for argument %d of %d bytes", ErrInvalidArgv, n, j, len(arg))
		}
		args[j] = arg[:n]
	}
	return resp.Encode(args, obs), nil
}

// FormatStrings encodes string arguments through the argv path.
func FormatStrings(obs resp.ArgObserver, argv ...string) []byte {
	args := make([][]byte, len(argv))
	for i, s := range argv {
		args[i] = []byte(s)
	}
	return resp.Encode(args, obs)
}
