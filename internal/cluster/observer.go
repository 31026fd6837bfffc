package cluster

import "github.com/cosmez/respfmt/internal/resp"

// KeyObserver records where the routing key lands in an encoded command.
// It is passed to the encoder as a resp.ArgObserver.
type KeyObserver struct {
	Partitioner Partitioner
	KeyIndex    int // argument position of the key, 1 when zero

	// KeyIndexOf, when set, resolves the key position from the command name
	// seen at index 0 and takes precedence over KeyIndex. A result of 0 marks
	// the command as keyless.
	KeyIndexOf func(name []byte) int

	Found  bool
	Key    []byte
	Offset int
	Slot   int

	pos int
}

var _ resp.ArgObserver = (*KeyObserver)(nil)

// NewKeyObserver returns an observer that picks the key at keyIndex.
func NewKeyObserver(p Partitioner, keyIndex int) *KeyObserver {
	return &KeyObserver{Partitioner: p, KeyIndex: keyIndex}
}

func (o *KeyObserver) ObserveArg(index, offset int, arg []byte) {
	if index == 0 {
		o.pos = o.KeyIndex
		if o.pos == 0 {
			o.pos = 1
		}
		if o.KeyIndexOf != nil {
			o.pos = o.KeyIndexOf(arg)
		}
		return
	}
	if o.Found || index != o.pos {
		return
	}
	o.Found = true
	o.Key = append(o.Key[:0], arg...)
	o.Offset = offset
	o.Slot = o.Partitioner.Slot(arg)
}

// Reset clears the captured key so the observer can be reused.
func (o *KeyObserver) Reset() {
	o.Found = false
	o.Key = o.Key[:0]
	o.Offset = 0
	o.Slot = 0
	o.pos = 0
}
