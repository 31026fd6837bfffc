package serializer

import (
	"fmt"
	"sort"
	"strings"
)

// Serializer transforms a value before it is encoded into a command and
// reverses the transformation when the value is read back.
type Serializer interface {
	Serialize([]byte) ([]byte, error)
	Deserialize([]byte) ([]byte, error)
}

var codecs = map[string]Serializer{
	"base64": base64Serializer{},
	"gzip":   gzipSerializer{},
	"snappy": snappySerializer{},
}

// Get returns the codec registered under name, case-insensitively.
func Get(name string) (Serializer, error) {
	if s, ok := codecs[strings.ToLower(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown serializer: %q", name)
}

// Names lists the registered codecs in sorted order.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
