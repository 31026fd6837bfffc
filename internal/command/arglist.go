package command

import "github.com/cosmez/respfmt/internal/resp"

// argList accumulates finished arguments together with the running sum of
// their encoded bulk sizes, so serialization needs no second sizing pass.
type argList struct {
	argv [][]byte
	bulk int
}

func (l *argList) append(arg []byte) {
	if arg == nil {
		arg = []byte{}
	}
	l.argv = append(l.argv, arg)
	l.bulk += resp.BulkLen(len(arg))
}

func (l *argList) len() int { return len(l.argv) }

func (l *argList) encodedLen() int { return resp.HeaderLen(len(l.argv)) + l.bulk }

func (l *argList) encode(obs resp.ArgObserver) []byte {
	return resp.EncodeWithLen(l.argv, l.bulk, obs)
}
