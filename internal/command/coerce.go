package command

import (
	"fmt"
	"strconv"

	"github.com/cosmez/respfmt/internal/resp"
)

// Coerce converts textual arguments, as typed on a command line, into the Go
// values the directives ds expect. Integers accept 0x, 0o and 0b prefixes.
func Coerce(ds []Directive, raw []string) ([]any, error) {
	if len(raw) < len(ds) {
		return nil, fmt.Errorf("%w: template needs %d arguments, got %d", ErrMissingArgument, len(ds), len(raw))
	}
	if len(raw) > len(ds) {
		return nil, fmt.Errorf("template needs %d arguments, got %d", len(ds), len(raw))
	}

	args := make([]any, len(ds))
	for i, d := range ds {
		s := raw[i]
		switch d.Kind {
		case KindString:
			args[i] = s
		case KindBinary:
			args[i] = []byte(s)
		case KindInt:
			v, err := strconv.ParseInt(s, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %s: %w", i+1, d.Spec, err)
			}
			args[i] = v
		case KindUint:
			// Negative values are allowed and reinterpreted, as printf does.
			if v, err := strconv.ParseInt(s, 0, 64); err == nil {
				args[i] = v
				continue
			}
			v, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %s: %w", i+1, d.Spec, err)
			}
			args[i] = v
		case KindFloat:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d for %s: %w", i+1, d.Spec, err)
			}
			args[i] = v
		}
	}
	return args, nil
}

// FormatText encodes template with textual arguments, coercing each one to
// the kind its directive expects.
func FormatText(obs resp.ArgObserver, template string, raw ...string) ([]byte, error) {
	ds, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	args, err := Coerce(ds, raw)
	if err != nil {
		return nil, err
	}
	return FormatObserved(obs, template, args...)
}
