package command

import (
	"errors"
	"fmt"
)

// ErrEncode is matched by every failure of the encoding entry points. Callers
// that only need to know whether a command could be built test for it with
// errors.Is; the wrapped sentinels below say why.
var ErrEncode = errors.New("command could not be encoded")

var (
	ErrNilTarget       = fmt.Errorf("%w: nil output target", ErrEncode)
	ErrInvalidFormat   = fmt.Errorf("%w: invalid format directive", ErrEncode)
	ErrMissingArgument = fmt.Errorf("%w: missing argument for directive", ErrEncode)
	ErrArgumentType    = fmt.Errorf("%w: argument type does not match directive", ErrEncode)
	ErrNilArgument     = fmt.Errorf("%w: nil argument for %%s", ErrEncode)
	ErrInvalidArgv     = fmt.Errorf("%w: invalid argument vector", ErrEncode)
)
