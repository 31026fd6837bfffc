package command

import (
	"fmt"

	"github.com/cosmez/respfmt/internal/resp"
)

// Format builds a RESP request from a printf-style template.
//
// Unquoted spaces separate arguments; substituted values never split, so
//
//	Format("SET %s %b", "my key", []byte("va\x00lue"))
//
// yields three arguments. Supported directives:
//
//	%s  string, []byte or fmt.Stringer
//	%b  []byte or string, copied byte for byte
//	%%  a literal '%'
//	%d %i %o %u %x %X with flags "#0- +", width, precision and hh/h/l/ll
//	%e %E %f %F %g %G %a %A for float32 and float64
//
// Integer directives follow C sizing: without a modifier the value is
// truncated to 32 bits, hh to 8, h to 16, l and ll keep 64.
func Format(template string, args ...any) ([]byte, error) {
	return FormatObserved(nil, template, args...)
}

// FormatObserved is Format with an observer called for every encoded argument.
func FormatObserved(obs resp.ArgObserver, template string, args ...any) ([]byte, error) {
	list, err := parseTemplate(template, args)
	if err != nil {
		return nil, err
	}
	return list.encode(obs), nil
}

// FormatCommand stores the encoded request in *target and returns its length.
// On failure *target is left untouched and -1 is returned with the error.
func FormatCommand(target *[]byte, obs resp.ArgObserver, template string, args ...any) (int, error) {
	if target == nil {
		return -1, ErrNilTarget
	}
	buf, err := FormatObserved(obs, template, args...)
	if err != nil {
		return -1, err
	}
	*target = buf
	return len(buf), nil
}

// parseTemplate resolves every directive of template against args and splits
// the result into arguments.
func parseTemplate(template string, args []any) (*argList, error) {
	var (
		list    argList
		cur     []byte
		touched bool // cur received at least one directive or byte
		next    int
	)

	for i := 0; i < len(template); i++ {
		c := template[i]

		if c != '%' || i+1 == len(template) {
			if c == ' ' {
				if touched {
					list.append(cur)
					cur, touched = nil, false
				}
				continue
			}
			cur = append(cur, c)
			touched = true
			continue
		}

		d, end, err := scanDirective(template, i)
		if err != nil {
			return nil, err
		}
		if d.Kind == KindPercent {
			cur = append(cur, '%')
		} else {
			if next >= len(args) {
				return nil, fmt.Errorf("%w: %s at offset %d", ErrMissingArgument, d.Spec, d.Offset)
			}
			if cur, err = d.appendArg(cur, args[next]); err != nil {
				return nil, err
			}
			next++
		}
		touched = true
		i = end - 1
	}

	if touched {
		list.append(cur)
	}
	return &list, nil
}

// ParseTemplate returns the directives of template that consume an argument,
// in order. It is the static check behind Validate.
func ParseTemplate(template string) ([]Directive, error) {
	var ds []Directive
	for i := 0; i < len(template); i++ {
		if template[i] != '%' || i+1 == len(template) {
			continue
		}
		d, end, err := scanDirective(template, i)
		if err != nil {
			return nil, err
		}
		if d.Kind != KindPercent {
			ds = append(ds, d)
		}
		i = end - 1
	}
	return ds, nil
}

// Validate reports whether template only uses supported directives.
func Validate(template string) error {
	_, err := ParseTemplate(template)
	return err
}
