package resp

import "strconv"

// ValueType represents the type of a RESP reply value.
type ValueType int

const (
	TypeNone ValueType = iota
	TypeString
	TypeInteger
	TypeBulkString
	TypeArray
	TypeNull
	TypeError
)

var typeNames = [...]string{
	TypeNone:       "none",
	TypeString:     "simple-string",
	TypeInteger:    "integer",
	TypeBulkString: "bulk-string",
	TypeArray:      "array",
	TypeNull:       "null",
	TypeError:      "error",
}

func (t ValueType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

// RedisValue is implemented by every reply type returned by ParseValue.
type RedisValue interface {
	Type() ValueType
	StringValue() string
}

// RedisString is a simple string reply (+).
type RedisString struct {
	Value string
}

func (s RedisString) Type() ValueType     { return TypeString }
func (s RedisString) StringValue() string { return s.Value }

// RedisBulkString is a bulk string reply ($). Value holds the raw bytes, so it
// may contain zero bytes or CRLF.
type RedisBulkString struct {
	Value  string
	Length int
}

func (b RedisBulkString) Type() ValueType     { return TypeBulkString }
func (b RedisBulkString) StringValue() string { return b.Value }

// RedisInteger is an integer reply (:).
type RedisInteger struct {
	IntValue int64
}

func (i RedisInteger) Type() ValueType { return TypeInteger }
func (i RedisInteger) StringValue() string {
	return strconv.FormatInt(i.IntValue, 10)
}

// RedisArray is an array reply (*).
type RedisArray struct {
	Values []RedisValue
}

func (a RedisArray) Type() ValueType { return TypeArray }

// StringValue is empty; printers walk Values instead.
func (a RedisArray) StringValue() string { return "" }

// RedisError is an error reply (-).
type RedisError struct {
	Value string
}

func (e RedisError) Type() ValueType     { return TypeError }
func (e RedisError) StringValue() string { return e.Value }

// Error lets a RedisError travel as a Go error.
func (e RedisError) Error() string { return e.Value }

// RedisNull is a null bulk string ($-1) or null array (*-1).
type RedisNull struct{}

func (n RedisNull) Type() ValueType     { return TypeNull }
func (n RedisNull) StringValue() string { return "" }
