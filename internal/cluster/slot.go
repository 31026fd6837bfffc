package cluster

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashFunc maps a key to a 64-bit hash before it is reduced to a slot.
type HashFunc func([]byte) uint64

// Partitioner maps keys to slots.
type Partitioner struct {
	Name     string
	Slots    int
	Hash     HashFunc
	HashTags bool // hash only the {tag} part of a key when present
}

// RedisCluster is the Redis Cluster layout: CRC16 over 16384 slots with
// hash tags.
func RedisCluster() Partitioner {
	return Partitioner{Name: "redis", Slots: 16384, Hash: crc16Hash, HashTags: true}
}

// ARC is the nbase-arc gateway layout: CRC16 over 8192 partitions, whole key.
func ARC() Partitioner {
	return Partitioner{Name: "arc", Slots: 8192, Hash: crc16Hash}
}

// XX spreads keys over slots with xxhash, honoring hash tags.
func XX(slots int) Partitioner {
	return Partitioner{Name: "xxhash", Slots: slots, Hash: xxhash.Sum64, HashTags: true}
}

// ByName returns the preset registered under name ("crc16", "arc" or
// "xxhash"). slots overrides the preset's slot count when positive.
func ByName(name string, slots int) (Partitioner, error) {
	var p Partitioner
	switch strings.ToLower(name) {
	case "crc16", "redis", "":
		p = RedisCluster()
	case "arc":
		p = ARC()
	case "xxhash":
		p = XX(16384)
	default:
		return Partitioner{}, fmt.Errorf("unknown slot hash %q", name)
	}
	if slots > 0 {
		p.Slots = slots
	}
	return p, nil
}

func crc16Hash(b []byte) uint64 { return uint64(CRC16(b)) }

// Slot returns the slot of key in [0, Slots).
func (p Partitioner) Slot(key []byte) int {
	if p.HashTags {
		key = HashTag(key)
	}
	return int(p.Hash(key) % uint64(p.Slots))
}

// HashTag returns the part of key between the first '{' and the next '}',
// or key itself when there is no such non-empty section.
func HashTag(key []byte) []byte {
	start := bytes.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := bytes.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return key
	}
	return key[start+1 : start+1+end]
}
