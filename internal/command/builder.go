package command

import (
	"strconv"

	"github.com/cosmez/respfmt/internal/resp"
)

// Builder assembles a command from typed arguments. It is the type-safe
// alternative to Format:
//
//	frame := command.New("SET").String(key).Bytes(value).String("EX").Int(60).Encode(nil)
//
// Every method copies its input, so callers may reuse their buffers.
type Builder struct {
	list argList
}

// New starts a command whose first argument is name.
func New(name string) *Builder {
	b := &Builder{}
	return b.String(name)
}

// String appends s as one argument.
func (b *Builder) String(s string) *Builder {
	b.list.append([]byte(s))
	return b
}

// Bytes appends a binary-safe argument.
func (b *Builder) Bytes(p []byte) *Builder {
	b.list.append(append([]byte{}, p...))
	return b
}

// Int appends v in decimal.
func (b *Builder) Int(v int64) *Builder {
	b.list.append(strconv.AppendInt(nil, v, 10))
	return b
}

// Uint appends v in decimal.
func (b *Builder) Uint(v uint64) *Builder {
	b.list.append(strconv.AppendUint(nil, v, 10))
	return b
}

// Float appends v using the shortest representation that parses back to v.
func (b *Builder) Float(v float64) *Builder {
	b.list.append(strconv.AppendFloat(nil, v, 'f', -1, 64))
	return b
}

// Args returns the arguments collected so far. The slice is shared with the
// builder.
func (b *Builder) Args() [][]byte { return b.list.argv }

// Len returns the number of arguments.
func (b *Builder) Len() int { return b.list.len() }

// EncodedLen returns the exact size Encode will produce.
func (b *Builder) EncodedLen() int { return b.list.encodedLen() }

// Encode serializes the command. The builder stays usable afterwards.
func (b *Builder) Encode(obs resp.ArgObserver) []byte {
	return b.list.encode(obs)
}
